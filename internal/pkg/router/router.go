// Package router wraps httprouter with the JSON envelope, middleware chain and
// auth rules shared by every notifyd endpoint.
package router

import (
	"net/http"

	"github.com/casbin/casbin/v3"
	"github.com/julienschmidt/httprouter"
	"github.com/shandysiswandi/notifyd/internal/pkg/config"
	"github.com/shandysiswandi/notifyd/internal/pkg/instrument"
	"github.com/shandysiswandi/notifyd/internal/pkg/jwt"
	"github.com/shandysiswandi/notifyd/internal/pkg/uid"
)

// Handler returns a payload to encode as JSON, or an error.
type Handler func(r *Request) (any, error)

// Middleware decorates an http.Handler.
type Middleware func(next http.Handler) http.Handler

// Chain applies mws so that the first one is the outermost.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] != nil {
			h = mws[i](h)
		}
	}
	return h
}

type Config struct {
	Config     config.Config
	UUID       uid.StringID
	JWT        jwt.JWT
	Instrument instrument.Instrumentation
	Enforcer   *casbin.Enforcer
}

type Router struct {
	hr       *httprouter.Router
	enforcer *casbin.Enforcer
	cfg      config.Config
	public   map[string]map[string]struct{}
	mws      []Middleware
}

func NewRouter(cfg Config) *Router {
	hr := &httprouter.Router{
		RedirectTrailingSlash:  true,
		RedirectFixedPath:      true,
		HandleMethodNotAllowed: true,
		HandleOPTIONS:          true,
		SaveMatchedRoutePath:   true,
		NotFound: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, errorResponse{Message: "endpoint not found"}, http.StatusNotFound)
		}),
		MethodNotAllowed: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, errorResponse{Message: "method not allowed"}, http.StatusMethodNotAllowed)
		}),
	}

	ro := &Router{
		hr:       hr,
		enforcer: cfg.Enforcer,
		cfg:      cfg.Config,
		public: map[string]map[string]struct{}{
			http.MethodGet: {"/": {}, "/health": {}},
		},
	}
	ro.mws = []Middleware{
		middlewareRecoverer,
		middlewareIP,
		middlewareCorrelationID(cfg.UUID),
		middlewareObservability(cfg.Config, cfg.Instrument),
		middlewareMaintenance(cfg.Config),
		middlewareAuthentication(cfg.JWT, ro.public),
	}

	hr.GET("/", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		writeJSON(w, errorResponse{Message: "notifyd"}, http.StatusOK)
	})
	ro.GET("/health", func(*Request) (any, error) { return healthResponse{Status: "ok"}, nil })

	return ro
}

type healthResponse struct {
	Status string `json:"status"`
}

// Public exempts method+path from bearer authentication. Register it before
// the route so the authentication middleware sees it.
func (r *Router) Public(method, path string) {
	if r.public[method] == nil {
		r.public[method] = map[string]struct{}{}
	}
	r.public[method][path] = struct{}{}
}

func (r *Router) GET(path string, h Handler, mws ...Middleware) {
	r.endpoint(http.MethodGet, path, h, mws...)
}

// GETRaw registers a handler that writes the response itself, e.g. a stream.
func (r *Router) GETRaw(path string, h http.Handler, mws ...Middleware) {
	r.hr.Handler(http.MethodGet, path, Chain(h, append(r.mws, mws...)...))
}

func (r *Router) POST(path string, h Handler, mws ...Middleware) {
	r.endpoint(http.MethodPost, path, h, mws...)
}

// POSTRaw registers a handler that must control the exact response body,
// e.g. a third party webhook handshake.
func (r *Router) POSTRaw(path string, h http.Handler, mws ...Middleware) {
	r.hr.Handler(http.MethodPost, path, Chain(h, append(r.mws, mws...)...))
}

func (r *Router) PUT(path string, h Handler, mws ...Middleware) {
	r.endpoint(http.MethodPut, path, h, mws...)
}

func (r *Router) PATCH(path string, h Handler, mws ...Middleware) {
	r.endpoint(http.MethodPatch, path, h, mws...)
}

func (r *Router) DELETE(path string, h Handler, mws ...Middleware) {
	r.endpoint(http.MethodDelete, path, h, mws...)
}

func (r *Router) endpoint(method, path string, h Handler, mws ...Middleware) {
	final := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		resp, err := h(&Request{Request: req})
		if err != nil {
			if rec, ok := w.(interface{ SetError(error) }); ok {
				rec.SetError(err)
			}
			writeError(w, err)
			return
		}
		writeOK(w, resp)
	})

	r.hr.Handler(method, path, Chain(final, append(r.mws, mws...)...))
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.hr.ServeHTTP(w, req)
}
