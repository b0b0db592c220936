// Пакет portal — HTML-страницы портала со списками записей.
// Страница открывается на сервере, дальнейшие действия выполняет
// portal.js через API страниц и поток событий SSE.
package portal

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/ejobportal/internal/api/middleware"
	"github.com/bigkaa/ejobportal/internal/domain/model"
	"github.com/bigkaa/ejobportal/internal/pages"
	"github.com/bigkaa/ejobportal/internal/ui/i18n"
)

// langCookieMaxAge — срок хранения выбранного языка.
const langCookieMaxAge = 365 * 24 * time.Hour

// Handler — обработчики HTML-страниц портала.
type Handler struct {
	pages  *pages.Manager
	logger *slog.Logger
}

// NewHandler создаёт обработчики страниц портала.
func NewHandler(manager *pages.Manager, logger *slog.Logger) *Handler {
	return &Handler{
		pages:  manager,
		logger: logger.With(slog.String("component", "portal")),
	}
}

// Index обрабатывает GET /portal: перенаправляет на первую страницу.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/portal/"+string(model.Kinds[0]), http.StatusFound)
}

// ListPage обрабатывает GET /portal/{kind}.
// Каждый показ открывает новый экземпляр страницы со своим окном отмены.
func (h *Handler) ListPage(w http.ResponseWriter, r *http.Request) {
	userID := middleware.SubjectFromContext(r.Context())
	if userID == "" {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	kind, err := model.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	page, err := h.pages.Open(r.Context(), userID, kind, i18n.LangFromContext(r.Context()))
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, pages.ErrUnknownKind):
			status = http.StatusNotFound
		case errors.Is(err, pages.ErrClosed):
			status = http.StatusServiceUnavailable
		}
		h.logger.Error("Не удалось открыть страницу",
			slog.String("kind", string(kind)),
			slog.String("error", err.Error()),
		)
		http.Error(w, http.StatusText(status), status)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	component := Layout(kind, ListPage(page, page.Controller().View()))
	templ.Handler(component, templ.WithStreaming()).ServeHTTP(w, r)
}

// SetLanguage обрабатывает POST /portal/set-language.
// Устанавливает cookie "lang" и перенаправляет обратно.
func (h *Handler) SetLanguage(w http.ResponseWriter, r *http.Request) {
	lang := r.FormValue("lang")
	if !i18n.IsSupported(lang) {
		lang = "en"
	}

	http.SetCookie(w, &http.Cookie{
		Name:     i18n.LangCookieName,
		Value:    lang,
		Path:     "/",
		MaxAge:   int(langCookieMaxAge.Seconds()),
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(langCookieMaxAge),
	})

	referer := r.Header.Get("Referer")
	if referer == "" {
		referer = "/portal/"
	}
	http.Redirect(w, r, referer, http.StatusSeeOther)
}
