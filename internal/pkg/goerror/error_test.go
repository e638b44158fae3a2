package goerror

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_StatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "server", err: NewServer(errors.New("db down")), want: http.StatusInternalServerError},
		{name: "forbidden", err: NewBusiness("locked", CodeForbidden), want: http.StatusForbidden},
		{name: "not found", err: NewBusiness("missing", CodeNotFound), want: http.StatusNotFound},
		{name: "invalid format", err: NewInvalidFormat(), want: http.StatusBadRequest},
		{name: "invalid input", err: NewInvalidInput(nil, "type", "unknown"), want: http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gerr *Error
			assert.True(t, errors.As(tt.err, &gerr))
			assert.Equal(t, tt.want, gerr.StatusCode())
		})
	}
}

func TestNewInvalidInput_Fields(t *testing.T) {
	err := NewInvalidInput(nil, "title", "required", "priority", "unknown")

	var gerr *Error
	assert.True(t, errors.As(err, &gerr))
	assert.Equal(t, map[string]string{"title": "required", "priority": "unknown"}, gerr.Fields())
	assert.True(t, HasCode(err, CodeInvalidInput))

	odd := NewInvalidInput(nil, "title")
	assert.True(t, HasCode(odd, CodeInvalidFormat))
}

func TestNewServer_Unwrap(t *testing.T) {
	base := errors.New("connection refused")
	err := NewServer(base)

	assert.ErrorIs(t, err, base)
	assert.Equal(t, "connection refused", err.Error())
	assert.False(t, HasCode(base, CodeInternal))
}
