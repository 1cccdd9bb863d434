package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func TestRegistry(t *testing.T) {
	if Registry != prometheus.DefaultRegisterer {
		t.Error("Registry should be the default Prometheus registerer")
	}
	if Gatherer != prometheus.DefaultGatherer {
		t.Error("Gatherer should be the default Prometheus gatherer")
	}
}

func TestHandler_ServesRegisteredMetrics(t *testing.T) {
	counter := promauto.With(Registry).NewCounter(prometheus.CounterOpts{
		Name: "anime_metrics_handler_test_total",
		Help: "Test counter",
	})
	counter.Inc()

	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body, _ := io.ReadAll(w.Body)
	if !strings.Contains(string(body), "anime_metrics_handler_test_total 1") {
		t.Errorf("exposition missing test counter:\n%s", body)
	}
}
