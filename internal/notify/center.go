// Пакет notify — центр временных уведомлений (toast) одной страницы.
// Center реализует undo.Notifier: уведомление об отмене на весь пакет
// удаления и отдельные уведомления об ошибках. Подписчики (SSE) получают
// события появления и закрытия уведомлений.
package notify

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/ejobportal/internal/undo"
)

// DefaultErrorTTL — время показа уведомления об ошибке.
const DefaultErrorTTL = 8 * time.Second

// subscriberBuffer — ёмкость канала подписчика.
const subscriberBuffer = 16

var toastsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "ep_toasts_total",
	Help: "Количество показанных уведомлений по виду.",
}, []string{"kind"})

// Kind — вид уведомления.
type Kind string

const (
	// KindUndo — уведомление с действием «Отменить».
	KindUndo Kind = "undo"
	// KindError — уведомление об ошибке (без действия).
	KindError Kind = "error"
)

// Toast — временное уведомление.
type Toast struct {
	ID      string `json:"id"`
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	// Action — подпись действия (только для KindUndo)
	Action string `json:"action,omitempty"`
	// Count — количество записей в пакете (только для KindUndo)
	Count     int       `json:"count,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// EventType — тип события для подписчиков.
type EventType string

const (
	EventToast   EventType = "toast"
	EventDismiss EventType = "dismiss"
)

// Event — событие центра уведомлений.
type Event struct {
	Type  EventType `json:"type"`
	Toast Toast     `json:"toast"`
}

// Translator возвращает локализованную строку.
type Translator func(lang, key string, args ...any) string

// Options — параметры центра уведомлений.
type Options struct {
	// Lang — язык уведомлений страницы
	Lang string
	// Translate — функция перевода (по умолчанию возвращает ключ)
	Translate Translator
	// ErrorTTL — время показа ошибок (по умолчанию DefaultErrorTTL)
	ErrorTTL time.Duration
	// Now — источник времени (по умолчанию time.Now)
	Now    func() time.Time
	Logger *slog.Logger
}

type entry struct {
	toast  Toast
	action func()
}

// Center — уведомления одной страницы. Потокобезопасен.
type Center struct {
	lang      string
	translate Translator
	errorTTL  time.Duration
	now       func() time.Time
	logger    *slog.Logger

	mu      sync.Mutex
	toasts  map[string]*entry
	subs    map[int]chan Event
	nextSub int
	closed  bool
}

var _ undo.Notifier = (*Center)(nil)

// NewCenter создаёт центр уведомлений.
func NewCenter(opts Options) *Center {
	if opts.Lang == "" {
		opts.Lang = "en"
	}
	if opts.Translate == nil {
		opts.Translate = func(_, key string, _ ...any) string { return key }
	}
	if opts.ErrorTTL <= 0 {
		opts.ErrorTTL = DefaultErrorTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Center{
		lang:      opts.Lang,
		translate: opts.Translate,
		errorTTL:  opts.ErrorTTL,
		now:       opts.Now,
		logger:    opts.Logger.With(slog.String("component", "notify")),
		toasts:    make(map[string]*entry),
		subs:      make(map[int]chan Event),
	}
}

// NotifyUndo показывает одно уведомление на весь пакет удаления.
// Идентификатор уведомления совпадает с идентификатором пакета.
func (c *Center) NotifyUndo(batch undo.Batch, onUndo func()) {
	count := len(batch.IDs)
	message := c.translate(c.lang, "toast.undo.one")
	if count > 1 {
		message = c.translate(c.lang, "toast.undo.many", count)
	}

	t := Toast{
		ID:        batch.ID,
		Kind:      KindUndo,
		Message:   message,
		Action:    c.translate(c.lang, "toast.undo.action"),
		Count:     count,
		CreatedAt: batch.CreatedAt,
		ExpiresAt: batch.Deadline,
	}
	c.show(t, onUndo)
}

// NotifyError показывает уведомление об ошибке, отдельное от уведомлений об отмене.
func (c *Center) NotifyError(kind undo.ErrorKind, err error) {
	key := "toast.error.fetch"
	if kind == undo.ErrorKindCommit {
		key = "toast.error.commit"
	}
	now := c.now()
	t := Toast{
		ID:        uuid.NewString(),
		Kind:      KindError,
		Message:   c.translate(c.lang, key),
		CreatedAt: now,
		ExpiresAt: now.Add(c.errorTTL),
	}
	c.logger.Debug("Уведомление об ошибке",
		slog.String("kind", string(kind)),
		slog.String("error", err.Error()),
	)
	c.show(t, nil)
}

// Dismiss закрывает уведомление. Повторный вызов — no-op.
func (c *Center) Dismiss(id string) {
	c.mu.Lock()
	e, ok := c.toasts[id]
	if ok {
		delete(c.toasts, id)
		c.publishLocked(Event{Type: EventDismiss, Toast: e.toast})
	}
	c.mu.Unlock()
}

// Invoke выполняет действие уведомления (нажатие «Отменить») и закрывает его.
// Действие выполняется не более одного раза. Возвращает false, если
// уведомления нет или у него нет действия.
func (c *Center) Invoke(id string) bool {
	c.mu.Lock()
	e, ok := c.toasts[id]
	if !ok || e.action == nil {
		c.mu.Unlock()
		return false
	}
	delete(c.toasts, id)
	c.publishLocked(Event{Type: EventDismiss, Toast: e.toast})
	c.mu.Unlock()

	e.action()
	return true
}

// Active возвращает неистёкшие уведомления в порядке появления.
// Истёкшие уведомления удаляются.
func (c *Center) Active() []Toast {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	out := make([]Toast, 0, len(c.toasts))
	for id, e := range c.toasts {
		if now.After(e.toast.ExpiresAt) {
			delete(c.toasts, id)
			continue
		}
		out = append(out, e.toast)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Subscribe подписывает на события. Возвращает канал и функцию отписки.
// Медленный подписчик пропускает события: состояние всегда доступно через Active.
func (c *Center) Subscribe() (<-chan Event, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	if c.closed {
		close(ch)
		return ch, func() {}
	}
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if sub, ok := c.subs[id]; ok {
				delete(c.subs, id)
				close(sub)
			}
		})
	}
}

// Close закрывает все подписки. Уведомления после Close не публикуются.
func (c *Center) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	for id, ch := range c.subs {
		delete(c.subs, id)
		close(ch)
	}
	c.toasts = make(map[string]*entry)
}

func (c *Center) show(t Toast, action func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.toasts[t.ID] = &entry{toast: t, action: action}
	toastsTotal.WithLabelValues(string(t.Kind)).Inc()
	c.publishLocked(Event{Type: EventToast, Toast: t})
}

// publishLocked рассылает событие без блокировки. Вызывается под c.mu.
func (c *Center) publishLocked(ev Event) {
	for id, ch := range c.subs {
		select {
		case ch <- ev:
		default:
			c.logger.Debug("Подписчик не успевает, событие пропущено",
				slog.Int("subscriber", id),
				slog.String("toast_id", ev.Toast.ID),
			)
		}
	}
}
