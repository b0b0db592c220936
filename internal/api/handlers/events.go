// events.go — SSE поток уведомлений страницы:
// GET /api/v1/pages/{pageID}/events.
// При подключении отправляются активные уведомления, затем события
// toast/dismiss по мере появления и keep-alive комментарии.
package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/bigkaa/ejobportal/internal/notify"
)

// PageEvents — SSE endpoint уведомлений страницы.
func (h *APIHandler) PageEvents(w http.ResponseWriter, r *http.Request) {
	p, ok := h.page(w, r)
	if !ok {
		return
	}

	events, unsubscribe := p.Toasts().Subscribe()
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	// ResponseController находит оригинальный http.Flusher через Unwrap()
	rc := http.NewResponseController(w)
	// Поток живёт дольше WriteTimeout сервера
	_ = rc.SetWriteDeadline(time.Time{})
	if err := rc.Flush(); err != nil {
		http.Error(w, "SSE не поддерживается", http.StatusInternalServerError)
		return
	}

	ctx := r.Context()
	h.logger.Debug("SSE клиент подключён",
		slog.String("page_id", p.ID),
		slog.String("remote_addr", r.RemoteAddr),
	)

	for _, t := range p.Toasts().Active() {
		h.sendEvent(w, rc, notify.Event{Type: notify.EventToast, Toast: t})
	}

	ticker := time.NewTicker(h.sseKeepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.logger.Debug("SSE клиент отключён", slog.String("page_id", p.ID))
			return
		case ev, ok := <-events:
			if !ok {
				// Страница закрыта
				fmt.Fprint(w, "event: closed\ndata: {}\n\n")
				_ = rc.Flush()
				return
			}
			h.sendEvent(w, rc, ev)
		case <-ticker.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			_ = rc.Flush()
		}
	}
}

// sendEvent отправляет событие в формате SSE: event: <type>\ndata: {json}\n\n
func (h *APIHandler) sendEvent(w http.ResponseWriter, rc *http.ResponseController, ev notify.Event) {
	data, err := json.Marshal(ev.Toast)
	if err != nil {
		h.logger.Error("Ошибка сериализации события", slog.String("error", err.Error()))
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
	_ = rc.Flush()
}
