// handler.go — основной обработчик API портала.
// Объединяет доменные обработчики и делегирует запросы в сервисный слой
// и менеджер страниц.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	apierrors "github.com/bigkaa/ejobportal/internal/api/errors"
	"github.com/bigkaa/ejobportal/internal/api/middleware"
	"github.com/bigkaa/ejobportal/internal/domain/model"
	"github.com/bigkaa/ejobportal/internal/pages"
	"github.com/bigkaa/ejobportal/internal/service"
	"github.com/bigkaa/ejobportal/internal/undo"
)

// DocumentAPI — операции с документами, не покрытые RecordEndpoint.
type DocumentAPI interface {
	Upload(ctx context.Context, userID string, req service.UploadRequest) (*model.Document, error)
	SignedURL(ctx context.Context, userID, docID string) (service.SignedURL, error)
}

// NotificationAPI — отметка уведомлений прочитанными.
type NotificationAPI interface {
	MarkRead(ctx context.Context, userID, id string) error
}

// Options — зависимости APIHandler.
type Options struct {
	Health        *HealthHandler
	Records       map[model.Kind]RecordEndpoint
	Documents     DocumentAPI
	Notifications NotificationAPI
	Pages         *pages.Manager
	// MaxUploadSize — максимальный размер загружаемого документа
	MaxUploadSize int64
	// UndoWindow — окно отмены (для отображения на странице)
	UndoWindow time.Duration
	// SSEKeepAlive — интервал keep-alive комментариев SSE
	SSEKeepAlive time.Duration
	Logger       *slog.Logger
}

// APIHandler — основной обработчик API портала.
type APIHandler struct {
	health        *HealthHandler
	records       map[model.Kind]RecordEndpoint
	documents     DocumentAPI
	notifications NotificationAPI
	pages         *pages.Manager
	maxUploadSize int64
	undoWindow    time.Duration
	sseKeepAlive  time.Duration
	logger        *slog.Logger
}

// NewAPIHandler создаёт основной обработчик API.
func NewAPIHandler(opts Options) *APIHandler {
	if opts.SSEKeepAlive <= 0 {
		opts.SSEKeepAlive = 15 * time.Second
	}
	if opts.UndoWindow <= 0 {
		opts.UndoWindow = undo.DefaultWindow
	}
	return &APIHandler{
		health:        opts.Health,
		records:       opts.Records,
		documents:     opts.Documents,
		notifications: opts.Notifications,
		pages:         opts.Pages,
		maxUploadSize: opts.MaxUploadSize,
		undoWindow:    opts.UndoWindow,
		sseKeepAlive:  opts.SSEKeepAlive,
		logger:        opts.Logger.With(slog.String("component", "api_handler")),
	}
}

// HealthLive — liveness probe (делегируется в HealthHandler).
func (h *APIHandler) HealthLive(w http.ResponseWriter, r *http.Request) {
	h.health.HealthLive(w, r)
}

// HealthReady — readiness probe (делегируется в HealthHandler).
func (h *APIHandler) HealthReady(w http.ResponseWriter, r *http.Request) {
	h.health.HealthReady(w, r)
}

// GetMetrics — Prometheus метрики (делегируется в HealthHandler).
func (h *APIHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.health.GetMetrics(w, r)
}

// --- Вспомогательные функции ---

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// currentUser возвращает идентификатор пользователя из контекста.
// Если пользователь не аутентифицирован, пишет 401 и возвращает false.
func currentUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := middleware.SubjectFromContext(r.Context())
	if userID == "" {
		apierrors.Unauthorized(w, "Требуется аутентификация")
		return "", false
	}
	return userID, true
}

// handleServiceError маппит ошибки сервисного слоя в HTTP-ответы.
func (h *APIHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, undo.ErrEmptyBatch),
		errors.Is(err, pages.ErrUnknownKind):
		apierrors.ValidationError(w, err.Error())
	case errors.Is(err, service.ErrNotFound),
		errors.Is(err, pages.ErrPageNotFound),
		errors.Is(err, undo.ErrDetached):
		apierrors.NotFound(w, err.Error())
	case errors.Is(err, service.ErrConflict):
		apierrors.Conflict(w, err.Error())
	case errors.Is(err, service.ErrStorageUnavailable):
		apierrors.StorageUnavailable(w, err.Error())
	case errors.Is(err, pages.ErrClosed):
		apierrors.ServiceUnavailable(w, err.Error())
	default:
		h.logger.Error("Внутренняя ошибка", slog.String("error", err.Error()))
		apierrors.InternalError(w, "Внутренняя ошибка сервера")
	}
}
