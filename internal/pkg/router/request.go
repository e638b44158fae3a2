package router

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/shandysiswandi/notifyd/internal/pkg/goerror"
)

// maxRawBody bounds ReadBody.
const maxRawBody = 1 << 20

type Request struct {
	*http.Request
}

func (r *Request) GetParam(key string) string {
	return httprouter.ParamsFromContext(r.Context()).ByName(key)
}

func (r *Request) GetParamInt64(key string) (int64, error) {
	v, err := strconv.ParseInt(r.GetParam(key), 10, 64)
	if err != nil {
		return 0, goerror.NewInvalidFormat(key + " must be an integer")
	}
	return v, nil
}

func (r *Request) GetQuery(key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}

// GetQueryInt32 returns 0 when the parameter is absent.
func (r *Request) GetQueryInt32(key string) (int32, error) {
	raw := r.GetQuery(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, goerror.NewInvalidFormat("query " + key + " must be an integer")
	}
	return int32(v), nil
}

// GetQueryBool returns false when the parameter is absent.
func (r *Request) GetQueryBool(key string) (bool, error) {
	raw := r.GetQuery(key)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, goerror.NewInvalidFormat("query " + key + " must be a boolean")
	}
	return v, nil
}

// DecodeBody decodes exactly one JSON value and rejects unknown fields.
func (r *Request) DecodeBody(dst any) error {
	if r == nil || r.Body == nil {
		return goerror.NewInvalidFormat()
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return goerror.NewInvalidFormat()
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return goerror.NewInvalidFormat()
	}
	return nil
}

// ReadBody returns the raw body, needed when a signature covers the bytes.
func ReadBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRawBody+1))
	if err != nil {
		return nil, goerror.NewInvalidFormat()
	}
	if len(body) > maxRawBody {
		return nil, goerror.NewInvalidFormat("request body too large")
	}
	return body, nil
}
