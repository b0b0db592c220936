// records.go — список и создание записей по виду:
// GET/POST /api/v1/records/{kind}.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/ejobportal/internal/api/errors"
	"github.com/bigkaa/ejobportal/internal/domain/model"
	"github.com/bigkaa/ejobportal/internal/service"
)

// maxRecordBody — максимальный размер JSON-тела записи.
const maxRecordBody = 64 << 10

// errCreateUnsupported — записи вида создаются отдельным endpoint.
var errCreateUnsupported = errors.New("создание записей этого вида через /records не поддерживается")

// RecordEndpoint — необобщённые операции с записями одного вида.
type RecordEndpoint interface {
	List(ctx context.Context, userID string) ([]any, error)
	Create(ctx context.Context, userID string, body io.Reader) (any, error)
}

// ListFunc возвращает записи пользователя.
type ListFunc[T any] func(ctx context.Context, userID string) ([]*T, error)

// CreateFunc создаёт запись пользователя.
type CreateFunc[T any] func(ctx context.Context, userID string, r *T) error

// Records возвращает RecordEndpoint для записей типа T.
// create может быть nil: создание недоступно.
func Records[T any](list ListFunc[T], create CreateFunc[T]) RecordEndpoint {
	return recordEndpoint[T]{list: list, create: create}
}

type recordEndpoint[T any] struct {
	list   ListFunc[T]
	create CreateFunc[T]
}

func (e recordEndpoint[T]) List(ctx context.Context, userID string) ([]any, error) {
	records, err := e.list(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]any, len(records))
	for i, r := range records {
		out[i] = r
	}
	return out, nil
}

func (e recordEndpoint[T]) Create(ctx context.Context, userID string, body io.Reader) (any, error) {
	if e.create == nil {
		return nil, fmt.Errorf("%w: %v", service.ErrValidation, errCreateUnsupported)
	}
	rec := new(T)
	if err := json.NewDecoder(body).Decode(rec); err != nil {
		return nil, fmt.Errorf("%w: некорректный JSON: %v", service.ErrValidation, err)
	}
	if err := e.create(ctx, userID, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

type recordListResponse struct {
	Items []any `json:"items"`
}

// ListRecords — GET /api/v1/records/{kind}.
func (h *APIHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	endpoint, ok := h.recordEndpoint(w, r)
	if !ok {
		return
	}

	items, err := endpoint.List(r.Context(), userID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recordListResponse{Items: items})
}

// CreateRecord — POST /api/v1/records/{kind}.
func (h *APIHandler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	endpoint, ok := h.recordEndpoint(w, r)
	if !ok {
		return
	}

	rec, err := endpoint.Create(r.Context(), userID, http.MaxBytesReader(w, r.Body, maxRecordBody))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// recordEndpoint находит RecordEndpoint по параметру пути kind.
func (h *APIHandler) recordEndpoint(w http.ResponseWriter, r *http.Request) (RecordEndpoint, bool) {
	kind, err := model.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return nil, false
	}
	endpoint, ok := h.records[kind]
	if !ok {
		apierrors.NotFound(w, fmt.Sprintf("Вид записей %s не подключён", kind))
		return nil, false
	}
	return endpoint, true
}
