package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/ejobportal/internal/api/middleware"
	"github.com/bigkaa/ejobportal/internal/domain/model"
	"github.com/bigkaa/ejobportal/internal/pages"
	"github.com/bigkaa/ejobportal/internal/service"
	"github.com/bigkaa/ejobportal/internal/undo/undotest"
)

const testUser = "officer-1"

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// testEnv — обработчик API поверх источника записей в памяти.
type testEnv struct {
	clock   *undotest.ManualClock
	source  *undotest.MemorySource
	pages   *pages.Manager
	docs    *fakeDocuments
	notes   *fakeNotifications
	handler *APIHandler
	router  http.Handler
}

func newTestEnv(t *testing.T, ids ...string) *testEnv {
	t.Helper()
	env := &testEnv{
		clock:  undotest.NewManualClock(epoch),
		source: undotest.NewMemorySource(ids...),
		docs:   &fakeDocuments{},
		notes:  &fakeNotifications{},
	}
	env.pages = pages.NewManager(map[model.Kind]pages.Factory{
		model.KindChildren: pages.Typed[undotest.Record](env.source, undotest.RecordID),
	}, pages.Options{
		Window: 10 * time.Second,
		Clock:  env.clock,
		Logger: testLogger(),
	})
	t.Cleanup(func() { _ = env.pages.Shutdown(context.Background()) })

	env.handler = NewAPIHandler(Options{
		Health: NewHealthHandler(nil, nil, nil),
		Records: map[model.Kind]RecordEndpoint{
			model.KindChildren: Records[model.Child](
				func(context.Context, string) ([]*model.Child, error) {
					return []*model.Child{{ID: "c1", Name: "Ayesha"}}, nil
				},
				func(_ context.Context, userID string, c *model.Child) error {
					if c.Name == "" {
						return service.ErrValidation
					}
					c.ID = "c-new"
					c.UserID = userID
					return nil
				},
			),
			model.KindDocuments: Records[model.Document](
				func(context.Context, string) ([]*model.Document, error) {
					return nil, nil
				},
				nil,
			),
		},
		Documents:     env.docs,
		Notifications: env.notes,
		Pages:         env.pages,
		MaxUploadSize: 1 << 10,
		UndoWindow:    10 * time.Second,
		SSEKeepAlive:  time.Hour,
		Logger:        testLogger(),
	})
	env.router = newTestRouter(env.handler)
	return env
}

// newTestRouter монтирует маршруты так же, как сервер.
func newTestRouter(h *APIHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/health/live", h.HealthLive)
	r.Get("/health/ready", h.HealthReady)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				if user := req.Header.Get("X-Test-User"); user != "" {
					req = req.WithContext(middleware.WithClaims(req.Context(), &middleware.AuthClaims{Subject: user}))
				}
				next.ServeHTTP(w, req)
			})
		})
		r.Get("/records/{kind}", h.ListRecords)
		r.Post("/records/{kind}", h.CreateRecord)
		r.Post("/documents", h.UploadDocument)
		r.Get("/documents/{id}/url", h.GetDocumentURL)
		r.Post("/notifications/{id}/read", h.MarkNotificationRead)
		r.Post("/pages", h.OpenPage)
		r.Route("/pages/{pageID}", func(r chi.Router) {
			r.Get("/", h.GetPage)
			r.Delete("/", h.ClosePage)
			r.Get("/events", h.PageEvents)
			r.Delete("/selection", h.ClearSelection)
			r.Post("/selection/toggle", h.ToggleSelection)
			r.Post("/selection/all", h.SelectAll)
			r.Post("/delete", h.DeleteRecords)
			r.Post("/reconcile", h.ReconcilePage)
			r.Delete("/toasts/{toastID}", h.DismissToast)
			r.Post("/toasts/{toastID}/undo", h.UndoDelete)
		})
	})
	return r
}

// do выполняет запрос от имени пользователя user (пустой — анонимно).
func (env *testEnv) do(t *testing.T, user, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func decodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("некорректный JSON ответа: %v", err)
	}
	return v
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// fakeDocuments — DocumentAPI в памяти.
type fakeDocuments struct {
	uploaded []service.UploadRequest
	content  string
	urlErr   error
}

func (f *fakeDocuments) Upload(_ context.Context, userID string, req service.UploadRequest) (*model.Document, error) {
	data, _ := io.ReadAll(req.Body)
	f.content = string(data)
	f.uploaded = append(f.uploaded, req)
	return &model.Document{ID: "d1", UserID: userID, Title: req.Title, FileName: req.FileName, Size: req.Size}, nil
}

func (f *fakeDocuments) SignedURL(_ context.Context, _, docID string) (service.SignedURL, error) {
	if f.urlErr != nil {
		return service.SignedURL{}, f.urlErr
	}
	return service.SignedURL{
		URL:       "https://storage.test/object/sign/documents/" + docID + "?token=t",
		ExpiresAt: epoch.Add(10 * time.Minute),
	}, nil
}

// fakeNotifications — NotificationAPI в памяти.
type fakeNotifications struct {
	read []string
}

func (f *fakeNotifications) MarkRead(_ context.Context, _, id string) error {
	if id == "missing" {
		return service.ErrNotFound
	}
	f.read = append(f.read, id)
	return nil
}
