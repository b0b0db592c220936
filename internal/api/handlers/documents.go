// documents.go — загрузка документов и подписанные ссылки:
// POST /api/v1/documents, GET /api/v1/documents/{id}/url.
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	openapi_types "github.com/oapi-codegen/runtime/types"

	apierrors "github.com/bigkaa/ejobportal/internal/api/errors"
	"github.com/bigkaa/ejobportal/internal/service"
)

// multipartMemory — объём multipart-формы, хранимый в памяти (остальное во временных файлах).
const multipartMemory = 8 << 20

// multipartOverhead — запас на заголовки и поля формы сверх размера файла.
const multipartOverhead = 64 << 10

type signedURLResponse struct {
	DocumentID openapi_types.UUID `json:"document_id"`
	URL        string             `json:"url"`
	ExpiresAt  time.Time          `json:"expires_at"`
}

// UploadDocument — POST /api/v1/documents (multipart: file, title).
func (h *APIHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	if h.documents == nil {
		apierrors.NotFound(w, "Документы не подключены")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+multipartOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			apierrors.PayloadTooLarge(w, fmt.Sprintf("Размер файла превышает %d байт", h.maxUploadSize))
			return
		}
		apierrors.ValidationError(w, "Некорректная multipart-форма: "+err.Error())
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		apierrors.ValidationError(w, "Поле file обязательно")
		return
	}
	defer file.Close()

	if header.Size > h.maxUploadSize {
		apierrors.PayloadTooLarge(w, fmt.Sprintf("Размер файла превышает %d байт", h.maxUploadSize))
		return
	}

	doc, err := h.documents.Upload(r.Context(), userID, service.UploadRequest{
		Title:       r.FormValue("title"),
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

// GetDocumentURL — GET /api/v1/documents/{id}/url.
func (h *APIHandler) GetDocumentURL(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	if h.documents == nil {
		apierrors.NotFound(w, "Документы не подключены")
		return
	}

	var docID openapi_types.UUID
	if err := docID.UnmarshalText([]byte(chi.URLParam(r, "id"))); err != nil {
		apierrors.ValidationError(w, "Некорректный идентификатор документа")
		return
	}

	signed, err := h.documents.SignedURL(r.Context(), userID, docID.String())
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, signedURLResponse{
		DocumentID: docID,
		URL:        signed.URL,
		ExpiresAt:  signed.ExpiresAt,
	})
}

// MarkNotificationRead — POST /api/v1/notifications/{id}/read.
func (h *APIHandler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	if h.notifications == nil {
		apierrors.NotFound(w, "Уведомления не подключены")
		return
	}

	if err := h.notifications.MarkRead(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		h.handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
