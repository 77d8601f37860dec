package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/km-arc/go-svcs/framework/container"
)

// Request wraps *http.Request with helpers for handlers that run behind the
// routing.Services middleware.
type Request struct {
	raw *http.Request
}

// NewRequest wraps a standard *http.Request.
func NewRequest(r *http.Request) *Request {
	return &Request{raw: r}
}

// Raw returns the underlying *http.Request.
func (req *Request) Raw() *http.Request { return req.raw }

// ── Services ─────────────────────────────────────────────────────────────────

// Services returns the request-scoped Container. It panics with
// container.ErrNoContainer when the Services middleware is not installed.
func (req *Request) Services() *container.Container {
	return ServicesFrom(req.raw)
}

// ServicesFrom returns the Container the Services middleware stored on r.
func ServicesFrom(r *http.Request) *container.Container {
	return container.MustFromContext(r.Context())
}

// Service resolves TypeOf[T]() from the request-scoped Container, passing the
// request context to context-bound factories.
//
//	db, err := gohttp.Service[*sql.Conn](r)
func Service[T any](r *http.Request) (T, error) {
	return container.ResolveFrom[T](r.Context())
}

// ── Replacing ────────────────────────────────────────────────────────────────

// Replace binds id to f in the request-scoped Container only, dropping any
// instance already resolved for id. Other requests keep the registry binding.
//
//	gohttp.Replace(r, container.TypeOf[Mailer](), container.Func(fakeMailer))
func Replace(r *http.Request, id container.ServiceID, f container.Factory, opts ...container.RegisterOption) {
	c := ServicesFrom(r)
	c.Forget(id)
	c.RegisterLocalFactory(id, f, opts...)
}

// ReplaceValue is Replace with a literal value.
func ReplaceValue(r *http.Request, id container.ServiceID, v any, opts ...container.RegisterOption) {
	Replace(r, id, container.Value(v), opts...)
}

// ── Binding ──────────────────────────────────────────────────────────────────

// Bind decodes a JSON request body into v.
func (req *Request) Bind(v any) error {
	defer req.raw.Body.Close()
	body, err := io.ReadAll(req.raw.Body)
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return errors.New("empty request body")
	}
	return json.Unmarshal(body, v)
}

// ── Input helpers ────────────────────────────────────────────────────────────

// Query returns a query-string value.
func (req *Request) Query(key string, fallback ...string) string {
	v := req.raw.URL.Query().Get(key)
	if v == "" && len(fallback) > 0 {
		return fallback[0]
	}
	return v
}

// RouteParam returns a URL route parameter (chi).
func (req *Request) RouteParam(key string) string {
	return chi.URLParam(req.raw, key)
}
