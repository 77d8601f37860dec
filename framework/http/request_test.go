package http_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/km-arc/go-svcs/framework/container"
	gohttp "github.com/km-arc/go-svcs/framework/http"
)

// ── helpers ──────────────────────────────────────────────────────────────────

func newJSONRequest(t *testing.T, body string) *gohttp.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return gohttp.NewRequest(req)
}

func newGetRequest(t *testing.T, rawQuery string) *gohttp.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/?"+rawQuery, nil)
	return gohttp.NewRequest(req)
}

type clock struct{ now string }

// ── Services ─────────────────────────────────────────────────────────────────

func TestRequest_Services(t *testing.T) {
	reg := container.NewRegistry()
	container.ProvideValue(reg, &clock{now: "noon"})
	c := container.New(reg)
	defer c.Close()

	raw := httptest.NewRequest(http.MethodGet, "/", nil)
	raw = raw.WithContext(container.WithContainer(raw.Context(), c))

	if got := gohttp.NewRequest(raw).Services(); got != c {
		t.Fatalf("Services(): got %p want %p", got, c)
	}

	clk, err := gohttp.Service[*clock](raw)
	if err != nil {
		t.Fatalf("Service error: %v", err)
	}
	if clk.now != "noon" {
		t.Errorf("now: got %q want noon", clk.now)
	}
}

func TestRequest_Service_ContextBound(t *testing.T) {
	type key struct{}
	reg := container.NewRegistry()
	container.ProvideContext(reg, func(ctx context.Context, _ *container.Container) (*clock, error) {
		return &clock{now: ctx.Value(key{}).(string)}, nil
	})
	c := container.New(reg)
	defer c.Close()

	raw := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx := context.WithValue(raw.Context(), key{}, "from-request")
	raw = raw.WithContext(container.WithContainer(ctx, c))

	clk, err := gohttp.Service[*clock](raw)
	if err != nil {
		t.Fatalf("Service error: %v", err)
	}
	if clk.now != "from-request" {
		t.Errorf("now: got %q want from-request", clk.now)
	}
}

func TestRequest_Service_NoMiddleware(t *testing.T) {
	raw := httptest.NewRequest(http.MethodGet, "/", nil)

	if _, err := gohttp.Service[*clock](raw); !errors.Is(err, container.ErrNoContainer) {
		t.Errorf("expected ErrNoContainer, got %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Error("ServicesFrom should panic without a container")
		}
	}()
	gohttp.ServicesFrom(raw)
}

// ── Replace ──────────────────────────────────────────────────────────────────

func TestReplace_OnlyAffectsOneRequest(t *testing.T) {
	reg := container.NewRegistry()
	container.ProvideValue(reg, &clock{now: "noon"})

	withServices := func() (*http.Request, *container.Container) {
		c := container.New(reg)
		raw := httptest.NewRequest(http.MethodGet, "/", nil)
		return raw.WithContext(container.WithContainer(raw.Context(), c)), c
	}
	first, c1 := withServices()
	second, c2 := withServices()
	defer c1.Close()
	defer c2.Close()

	if clk, _ := gohttp.Service[*clock](first); clk.now != "noon" {
		t.Fatalf("before replace: got %q want noon", clk.now)
	}

	gohttp.ReplaceValue(first, container.TypeOf[*clock](), &clock{now: "midnight"})

	if clk, _ := gohttp.Service[*clock](first); clk.now != "midnight" {
		t.Errorf("replaced request: got %q want midnight", clk.now)
	}
	if clk, _ := gohttp.Service[*clock](second); clk.now != "noon" {
		t.Errorf("other request: got %q want noon", clk.now)
	}
}

func TestReplace_FactoryReleasedWithRequest(t *testing.T) {
	reg := container.NewRegistry()
	container.ProvideValue(reg, &clock{now: "noon"})
	c := container.New(reg)
	raw := httptest.NewRequest(http.MethodGet, "/", nil)
	raw = raw.WithContext(container.WithContainer(raw.Context(), c))

	released := false
	gohttp.Replace(raw, container.TypeOf[*clock](), container.CleanupFunc(func(*container.Container) (any, func() error, error) {
		return &clock{now: "fake"}, func() error { released = true; return nil }, nil
	}))

	if clk, err := gohttp.Service[*clock](raw); err != nil || clk.now != "fake" {
		t.Fatalf("Service: got %v, %v", clk, err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !released {
		t.Error("replacement cleanup did not run")
	}
}

// ── Bind JSON ────────────────────────────────────────────────────────────────

func TestRequest_BindJSON(t *testing.T) {
	type user struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}

	req := newJSONRequest(t, `{"name":"Alice","email":"alice@example.com"}`)

	var u user
	if err := req.Bind(&u); err != nil {
		t.Fatalf("Bind error: %v", err)
	}
	if u.Name != "Alice" {
		t.Errorf("Name: got %q want %q", u.Name, "Alice")
	}
	if u.Email != "alice@example.com" {
		t.Errorf("Email: got %q want %q", u.Email, "alice@example.com")
	}
}

func TestRequest_BindJSON_EmptyBody(t *testing.T) {
	req := newJSONRequest(t, "")
	var v map[string]any
	if err := req.Bind(&v); err == nil {
		t.Error("expected error for empty body")
	}
}

func TestRequest_BindJSON_InvalidJSON(t *testing.T) {
	req := newJSONRequest(t, `{not json}`)
	var v map[string]any
	if err := req.Bind(&v); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

// ── Input helpers ────────────────────────────────────────────────────────────

func TestRequest_Query(t *testing.T) {
	req := newGetRequest(t, "page=2&sort=name")
	if got := req.Query("page"); got != "2" {
		t.Errorf("Query(page): got %q want 2", got)
	}
	if got := req.Query("limit", "20"); got != "20" {
		t.Errorf("Query fallback: got %q want 20", got)
	}
}

func TestRequest_RouteParam(t *testing.T) {
	r := chi.NewRouter()
	var got string
	r.Get("/services/{name}", func(w http.ResponseWriter, raw *http.Request) {
		got = gohttp.NewRequest(raw).RouteParam("name")
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/services/db", nil))

	if got != "db" {
		t.Errorf("RouteParam: got %q want db", got)
	}
}
