package server

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/bigkaa/ejobportal/internal/api/handlers"
	"github.com/bigkaa/ejobportal/internal/api/middleware"
	"github.com/bigkaa/ejobportal/internal/api/openapi"
	"github.com/bigkaa/ejobportal/internal/config"
	"github.com/bigkaa/ejobportal/internal/domain/model"
	"github.com/bigkaa/ejobportal/internal/pages"
	"github.com/bigkaa/ejobportal/internal/ui/portal"
	"github.com/bigkaa/ejobportal/internal/undo/undotest"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestDeps(t *testing.T, source *undotest.MemorySource, clock *undotest.ManualClock) Deps {
	t.Helper()
	mgr := pages.NewManager(map[model.Kind]pages.Factory{
		model.KindChildren: pages.Typed[undotest.Record](source, undotest.RecordID),
	}, pages.Options{
		Window: 10 * time.Second,
		Clock:  clock,
		Logger: testLogger(),
	})
	validator, err := middleware.NewRequestValidator(openapi.Spec, testLogger())
	if err != nil {
		t.Fatalf("NewRequestValidator: %v", err)
	}
	api := handlers.NewAPIHandler(handlers.Options{
		Health: handlers.NewHealthHandler(nil, nil, nil),
		Pages:  mgr,
		Logger: testLogger(),
	})
	return Deps{
		API:       api,
		Portal:    portal.NewHandler(mgr, testLogger()),
		Validator: validator,
		Pages:     mgr,
	}
}

func TestRouter_PublicRoutes(t *testing.T) {
	deps := newTestDeps(t, undotest.NewMemorySource(), undotest.NewManualClock(time.Now()))
	t.Cleanup(func() { _ = deps.Pages.Shutdown(context.Background()) })
	router := NewRouter(testLogger(), deps)

	tests := []struct {
		name   string
		method string
		path   string
		want   int
	}{
		{"liveness", http.MethodGet, "/health/live", http.StatusOK},
		{"readiness without checkers", http.MethodGet, "/health/ready", http.StatusServiceUnavailable},
		{"metrics", http.MethodGet, "/metrics", http.StatusOK},
		{"stylesheet", http.MethodGet, "/static/css/portal.css", http.StatusOK},
		{"script", http.MethodGet, "/static/js/portal.js", http.StatusOK},
		{"root redirect", http.MethodGet, "/", http.StatusFound},
		{"anonymous api", http.MethodPost, "/api/v1/pages", http.StatusUnauthorized},
		{"anonymous portal", http.MethodGet, "/portal/children", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(`{"kind":"children"}`))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("%s %s: статус %d, хотели %d", tt.method, tt.path, rec.Code, tt.want)
			}
		})
	}
}

func TestServer_ShutdownFlushesPendingDeletions(t *testing.T) {
	source := undotest.NewMemorySource("a", "b")
	clock := undotest.NewManualClock(time.Now())
	deps := newTestDeps(t, source, clock)

	hookCalled := false
	deps.OnShutdown = []func(context.Context){func(context.Context) { hookCalled = true }}
	srv := New(&config.Config{Port: 0, ShutdownTimeout: time.Second}, testLogger(), deps)

	ctx := context.Background()
	p, err := deps.Pages.Open(ctx, "officer-1", model.KindChildren, "en")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := p.Controller().Delete(ctx, []string{"a"}); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	calls := source.DeleteCalls()
	if len(calls) != 1 || calls[0][0] != "a" {
		t.Errorf("вызовы удаления = %v, хотели [[a]]", calls)
	}
	if !hookCalled {
		t.Error("действие OnShutdown не выполнено")
	}
}
