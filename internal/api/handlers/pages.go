// pages.go — операции страницы со списком: открытие, выбор, удаление
// с окном отмены, отмена, перезапрос и закрытие.
// Ошибка получения списка не прерывает запрос: страница возвращается
// в последнем известном состоянии вместе с уведомлением об ошибке.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/ejobportal/internal/api/errors"
	"github.com/bigkaa/ejobportal/internal/domain/model"
	"github.com/bigkaa/ejobportal/internal/notify"
	"github.com/bigkaa/ejobportal/internal/pages"
	"github.com/bigkaa/ejobportal/internal/ui/i18n"
	"github.com/bigkaa/ejobportal/internal/undo"
)

// maxPageBody — максимальный размер JSON-тела операций страницы.
const maxPageBody = 64 << 10

type openPageRequest struct {
	Kind string `json:"kind"`
	Lang string `json:"lang"`
}

type toggleRequest struct {
	ID string `json:"id"`
}

type deleteRequest struct {
	IDs []string `json:"ids"`
}

// pageResponse — состояние страницы.
type pageResponse struct {
	ID                string         `json:"id"`
	Kind              model.Kind     `json:"kind"`
	Lang              string         `json:"lang"`
	Rows              []any          `json:"rows"`
	Selected          []string       `json:"selected"`
	Pending           int            `json:"pending"`
	Batches           []undo.Batch   `json:"batches"`
	Toasts            []notify.Toast `json:"toasts"`
	Loaded            bool           `json:"loaded"`
	UndoWindowSeconds int            `json:"undo_window_seconds"`
}

type deleteResponse struct {
	Batch undo.Batch   `json:"batch"`
	Page  pageResponse `json:"page"`
}

func (h *APIHandler) pageView(p *pages.Page) pageResponse {
	v := p.Controller().View()
	resp := pageResponse{
		ID:                p.ID,
		Kind:              p.Kind,
		Lang:              p.Lang,
		Rows:              v.Rows,
		Selected:          v.Selected,
		Pending:           v.Pending,
		Batches:           v.Batches,
		Toasts:            p.Toasts().Active(),
		Loaded:            v.Loaded,
		UndoWindowSeconds: int(h.undoWindow.Seconds()),
	}
	if resp.Rows == nil {
		resp.Rows = []any{}
	}
	if resp.Selected == nil {
		resp.Selected = []string{}
	}
	if resp.Batches == nil {
		resp.Batches = []undo.Batch{}
	}
	return resp
}

// page находит страницу текущего пользователя по параметру пути pageID.
func (h *APIHandler) page(w http.ResponseWriter, r *http.Request) (*pages.Page, bool) {
	userID, ok := currentUser(w, r)
	if !ok {
		return nil, false
	}
	p, err := h.pages.Get(chi.URLParam(r, "pageID"), userID)
	if err != nil {
		h.handleServiceError(w, err)
		return nil, false
	}
	return p, true
}

// decodeBody декодирует необязательное JSON-тело. Пустое тело — не ошибка.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPageBody)).Decode(dst)
	if err != nil && !errors.Is(err, io.EOF) {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return false
	}
	return true
}

// OpenPage — POST /api/v1/pages.
func (h *APIHandler) OpenPage(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req openPageRequest
	if !decodeBody(w, r, &req) {
		return
	}
	kind, err := model.ParseKind(req.Kind)
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}
	lang := req.Lang
	if !i18n.IsSupported(lang) {
		lang = i18n.LangFromContext(r.Context())
	}

	p, err := h.pages.Open(r.Context(), userID, kind, lang)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.pageView(p))
}

// GetPage — GET /api/v1/pages/{pageID}.
func (h *APIHandler) GetPage(w http.ResponseWriter, r *http.Request) {
	p, ok := h.page(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.pageView(p))
}

// ClosePage — DELETE /api/v1/pages/{pageID}.
// Ожидающие удаления будут выполнены по истечении окна отмены.
func (h *APIHandler) ClosePage(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := h.pages.Close(chi.URLParam(r, "pageID"), userID); err != nil {
		h.handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ToggleSelection — POST /api/v1/pages/{pageID}/selection/toggle.
func (h *APIHandler) ToggleSelection(w http.ResponseWriter, r *http.Request) {
	p, ok := h.page(w, r)
	if !ok {
		return
	}
	var req toggleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ID == "" {
		apierrors.ValidationError(w, "Поле id обязательно")
		return
	}
	p.Controller().Toggle(req.ID)
	writeJSON(w, http.StatusOK, h.pageView(p))
}

// SelectAll — POST /api/v1/pages/{pageID}/selection/all.
func (h *APIHandler) SelectAll(w http.ResponseWriter, r *http.Request) {
	p, ok := h.page(w, r)
	if !ok {
		return
	}
	p.Controller().SelectAll()
	writeJSON(w, http.StatusOK, h.pageView(p))
}

// ClearSelection — DELETE /api/v1/pages/{pageID}/selection.
func (h *APIHandler) ClearSelection(w http.ResponseWriter, r *http.Request) {
	p, ok := h.page(w, r)
	if !ok {
		return
	}
	p.Controller().ClearSelection()
	writeJSON(w, http.StatusOK, h.pageView(p))
}

// DeleteRecords — POST /api/v1/pages/{pageID}/delete.
// Пустой список ids — удаляются выбранные записи.
// Записи скрываются сразу, удаление на сервере — после окна отмены.
func (h *APIHandler) DeleteRecords(w http.ResponseWriter, r *http.Request) {
	p, ok := h.page(w, r)
	if !ok {
		return
	}
	var req deleteRequest
	if !decodeBody(w, r, &req) {
		return
	}

	var (
		batch undo.Batch
		err   error
	)
	if len(req.IDs) == 0 {
		batch, err = p.Controller().DeleteSelected(r.Context())
	} else {
		batch, err = p.Controller().Delete(r.Context(), req.IDs)
	}
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, deleteResponse{Batch: batch, Page: h.pageView(p)})
}

// UndoDelete — POST /api/v1/pages/{pageID}/toasts/{toastID}/undo.
// Если уведомления уже нет (пакет выполнен или окно истекло), отмена
// сводится к перезапросу списка: страница показывает состояние сервера.
func (h *APIHandler) UndoDelete(w http.ResponseWriter, r *http.Request) {
	p, ok := h.page(w, r)
	if !ok {
		return
	}
	toastID := chi.URLParam(r, "toastID")
	if !p.Toasts().Invoke(toastID) {
		if _, err := p.Controller().Undo(r.Context(), toastID); errors.Is(err, undo.ErrDetached) {
			h.handleServiceError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, h.pageView(p))
}

// DismissToast — DELETE /api/v1/pages/{pageID}/toasts/{toastID}.
// Закрытие уведомления об отмене не отменяет удаление.
func (h *APIHandler) DismissToast(w http.ResponseWriter, r *http.Request) {
	p, ok := h.page(w, r)
	if !ok {
		return
	}
	p.Toasts().Dismiss(chi.URLParam(r, "toastID"))
	w.WriteHeader(http.StatusNoContent)
}

// ReconcilePage — POST /api/v1/pages/{pageID}/reconcile.
func (h *APIHandler) ReconcilePage(w http.ResponseWriter, r *http.Request) {
	p, ok := h.page(w, r)
	if !ok {
		return
	}
	if err := p.Controller().Reconcile(r.Context()); errors.Is(err, undo.ErrDetached) {
		h.handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.pageView(p))
}
