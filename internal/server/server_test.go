package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/JudoboyAlex/cu-boulder-anime-database/internal/service"
	"github.com/JudoboyAlex/cu-boulder-anime-database/pkg/catalog"
)

type fakeCatalog struct {
	result service.Result
	err    error
	status service.Status
	calls  int
}

func (f *fakeCatalog) Catalog(context.Context) (service.Result, error) {
	f.calls++
	return f.result, f.err
}

func (f *fakeCatalog) Status() service.Status {
	return f.status
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func newTestHandler(cat Catalog, store Pinger, metricsEnabled bool) http.Handler {
	nop := zerolog.Nop()
	return NewHandler(Deps{
		Catalog:        cat,
		Store:          store,
		MetricsEnabled: metricsEnabled,
		Logger:         &nop,
	})
}

func do(t *testing.T, h http.Handler, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestFetchAnime_Success(t *testing.T) {
	cat := &fakeCatalog{result: service.Result{
		Source: service.SourceStore,
		Records: []catalog.Record{
			{ID: 1, URL: "https://myanimelist.net/anime/1", ImageURL: "https://cdn/1l.jpg", Title: "Cowboy Bebop"},
			{ID: 5, URL: "https://myanimelist.net/anime/5", ImageURL: "https://cdn/5l.jpg", Title: "Trigun"},
		},
	}}
	h := newTestHandler(cat, fakePinger{}, false)

	w := do(t, h, http.MethodGet, "/fetch-anime", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if src := w.Header().Get("X-Catalog-Source"); src != "store" {
		t.Errorf("X-Catalog-Source = %q, want store", src)
	}

	var got []map[string]any
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0]["title_english"] != "Cowboy Bebop" || got[0]["large_image_url"] != "https://cdn/1l.jpg" {
		t.Errorf("first record = %v", got[0])
	}
	if got[1]["id"] != float64(5) {
		t.Errorf("second id = %v, want 5", got[1]["id"])
	}
}

func TestFetchAnime_EmptyIsArray(t *testing.T) {
	h := newTestHandler(&fakeCatalog{result: service.Result{Source: service.SourceUpstream}}, fakePinger{}, false)

	w := do(t, h, http.MethodGet, "/fetch-anime", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if body := strings.TrimSpace(w.Body.String()); body != "[]" {
		t.Errorf("body = %q, want []", body)
	}
}

func TestFetchAnime_Failure(t *testing.T) {
	cat := &fakeCatalog{err: errors.New("fetch page 7: jikan server error")}
	h := newTestHandler(cat, fakePinger{}, false)

	w := do(t, h, http.MethodGet, "/fetch-anime", nil)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q, want text/plain", ct)
	}
	if body := w.Body.String(); body != FetchFailedMessage {
		t.Errorf("body = %q, want %q", body, FetchFailedMessage)
	}
	if strings.Contains(w.Body.String(), "jikan") {
		t.Error("internal error details must not leak into the response")
	}
}

func TestFetchAnime_CORS(t *testing.T) {
	h := newTestHandler(&fakeCatalog{}, fakePinger{}, false)

	w := do(t, h, http.MethodGet, "/fetch-anime", map[string]string{"Origin": "http://localhost:5173"})
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}

	preflight := do(t, h, http.MethodOptions, "/fetch-anime", map[string]string{
		"Origin":                        "http://localhost:5173",
		"Access-Control-Request-Method": "GET",
	})
	if preflight.Code >= 300 {
		t.Errorf("preflight status = %d", preflight.Code)
	}
	if got := preflight.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, "GET") {
		t.Errorf("Access-Control-Allow-Methods = %q", got)
	}
}

func TestStatusEndpoint(t *testing.T) {
	started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	cat := &fakeCatalog{status: service.Status{
		State:        service.StateFetching,
		RunID:        "run-42",
		PagesFetched: 120,
		TotalPages:   1139,
		Records:      3000,
		Throttles:    2,
		StartedAt:    started,
	}}
	h := newTestHandler(cat, fakePinger{}, false)

	w := do(t, h, http.MethodGet, "/fetch-anime/status", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var got map[string]any
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["state"] != "fetching" || got["run_id"] != "run-42" {
		t.Errorf("status = %v", got)
	}
	if got["pages_fetched"] != float64(120) || got["total_pages"] != float64(1139) {
		t.Errorf("progress = %v/%v", got["pages_fetched"], got["total_pages"])
	}
	if _, ok := got["finished_at"]; ok {
		t.Error("zero finished_at should be omitted")
	}
	if cat.calls != 0 {
		t.Error("status must not trigger a catalog request")
	}
}

func TestHealthAndReadiness(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		pingErr    error
		wantStatus int
		wantBody   string
	}{
		{name: "health", path: "/health", wantStatus: http.StatusOK, wantBody: "OK"},
		{name: "ready", path: "/readyz", wantStatus: http.StatusOK},
		{name: "not ready", path: "/readyz", pingErr: errors.New("dial tcp: refused"), wantStatus: http.StatusServiceUnavailable},
		{name: "health ignores store", path: "/health", pingErr: errors.New("down"), wantStatus: http.StatusOK, wantBody: "OK"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(&fakeCatalog{}, fakePinger{err: tt.pingErr}, false)
			w := do(t, h, http.MethodGet, tt.path, nil)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantBody != "" && w.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", w.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	enabled := newTestHandler(&fakeCatalog{}, fakePinger{}, true)
	do(t, enabled, http.MethodGet, "/health", nil)

	w := do(t, enabled, http.MethodGet, "/metrics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body, _ := io.ReadAll(w.Body)
	if !strings.Contains(string(body), `anime_http_requests_total{method="GET",path="/health",status="200"}`) {
		t.Error("exposition should include the HTTP request counter for /health")
	}

	disabled := newTestHandler(&fakeCatalog{}, fakePinger{}, false)
	if w := do(t, disabled, http.MethodGet, "/metrics", nil); w.Code != http.StatusNotFound {
		t.Errorf("metrics disabled: status = %d, want 404", w.Code)
	}
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- Run(ctx, "127.0.0.1:0", http.NotFoundHandler(), zerolog.Nop())
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(ShutdownTimeout):
		t.Fatal("Run did not return after cancel")
	}
}
