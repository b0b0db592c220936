// Пакет pages — экземпляры страниц со списками записей.
// Каждая открытая страница владеет своим контроллером мягкого удаления
// и центром уведомлений. Страницы живут в LRU-кэше с TTL простоя:
// вытеснение страницы отвязывает контроллер от UI, несработавшие таймеры
// продолжают работу и только коммитят удаление.
package pages

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/errgroup"

	"github.com/bigkaa/ejobportal/internal/domain/model"
	"github.com/bigkaa/ejobportal/internal/notify"
	"github.com/bigkaa/ejobportal/internal/undo"
)

// Значения по умолчанию.
const (
	DefaultIdleTTL  = 30 * time.Minute
	DefaultMaxPages = 1000
	// flushParallelism — количество страниц, сбрасываемых одновременно при остановке
	flushParallelism = 16
)

var (
	// ErrPageNotFound — страница не найдена или принадлежит другому пользователю.
	ErrPageNotFound = errors.New("страница не найдена")
	// ErrUnknownKind — вид записей не зарегистрирован.
	ErrUnknownKind = errors.New("неизвестный вид записей")
	// ErrClosed — менеджер остановлен.
	ErrClosed = errors.New("менеджер страниц остановлен")
)

var (
	pagesOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ep_pages_open",
		Help: "Количество открытых страниц.",
	})
	pagesEvicted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ep_pages_evicted_total",
		Help: "Количество закрытых или вытесненных страниц.",
	})
)

// Page — открытая страница пользователя.
type Page struct {
	ID        string
	UserID    string
	Kind      model.Kind
	Lang      string
	CreatedAt time.Time

	ctrl   Controller
	toasts *notify.Center
}

// Controller возвращает контроллер страницы.
func (p *Page) Controller() Controller { return p.ctrl }

// Toasts возвращает центр уведомлений страницы.
func (p *Page) Toasts() *notify.Center { return p.toasts }

// Options — параметры менеджера страниц.
type Options struct {
	// IdleTTL — время жизни страницы без обращений
	IdleTTL time.Duration
	// MaxPages — максимальное количество открытых страниц
	MaxPages int
	// Window — окно отмены удаления
	Window time.Duration
	// Clock — источник таймеров (по умолчанию undo.SystemClock)
	Clock undo.Clock
	// Translate — перевод текстов уведомлений
	Translate notify.Translator
	Logger    *slog.Logger
}

// Manager — реестр открытых страниц.
type Manager struct {
	factories map[model.Kind]Factory
	opts      Options
	logger    *slog.Logger
	pages     *expirable.LRU[string, *Page]

	mu     sync.Mutex
	closed bool
	// detached — отвязанные страницы с несработавшими таймерами
	detached map[string]*Page
}

// NewManager создаёт менеджер страниц с фабриками контроллеров по видам записей.
func NewManager(factories map[model.Kind]Factory, opts Options) *Manager {
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = DefaultIdleTTL
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = DefaultMaxPages
	}
	if opts.Window <= 0 {
		opts.Window = undo.DefaultWindow
	}
	if opts.Clock == nil {
		opts.Clock = undo.SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	m := &Manager{
		factories: factories,
		opts:      opts,
		logger:    opts.Logger.With(slog.String("component", "pages")),
		detached:  make(map[string]*Page),
	}
	m.pages = expirable.NewLRU[string, *Page](opts.MaxPages, m.onEvict, opts.IdleTTL)
	return m
}

// Kinds возвращает виды записей, для которых зарегистрированы фабрики.
func (m *Manager) Kinds() []model.Kind {
	out := make([]model.Kind, 0, len(m.factories))
	for _, k := range model.Kinds {
		if _, ok := m.factories[k]; ok {
			out = append(out, k)
		}
	}
	return out
}

// Open открывает новую страницу и выполняет начальную загрузку списка.
// Ошибка загрузки не мешает открытию: страница показывает уведомление
// об ошибке и пустой список.
func (m *Manager) Open(ctx context.Context, userID string, kind model.Kind, lang string) (*Page, error) {
	factory, ok := m.factories[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrClosed
	}
	m.pruneDetachedLocked()
	m.mu.Unlock()

	center := notify.NewCenter(notify.Options{
		Lang:      lang,
		Translate: m.opts.Translate,
		Now:       m.opts.Clock.Now,
		Logger:    m.logger,
	})
	p := &Page{
		ID:        uuid.NewString(),
		UserID:    userID,
		Kind:      kind,
		Lang:      lang,
		CreatedAt: m.opts.Clock.Now(),
		toasts:    center,
	}
	p.ctrl = factory(userID, undo.Options{
		Window:   m.opts.Window,
		Clock:    m.opts.Clock,
		Notifier: center,
		Logger:   m.logger.With(slog.String("page_id", p.ID), slog.String("kind", string(kind))),
	})

	if err := p.ctrl.Load(ctx); err != nil {
		m.logger.Warn("Начальная загрузка страницы не выполнена",
			slog.String("page_id", p.ID),
			slog.String("error", err.Error()),
		)
	}

	m.pages.Add(p.ID, p)
	pagesOpen.Inc()
	m.logger.Debug("Страница открыта",
		slog.String("page_id", p.ID),
		slog.String("user_id", userID),
		slog.String("kind", string(kind)),
	)
	return p, nil
}

// Get возвращает страницу пользователя и продлевает её TTL.
func (m *Manager) Get(id, userID string) (*Page, error) {
	p, ok := m.pages.Get(id)
	if !ok || p.UserID != userID {
		return nil, ErrPageNotFound
	}
	m.pages.Add(id, p)
	return p, nil
}

// Close закрывает страницу пользователя. Ожидающие удаления будут выполнены.
func (m *Manager) Close(id, userID string) error {
	p, ok := m.pages.Peek(id)
	if !ok || p.UserID != userID {
		return ErrPageNotFound
	}
	m.pages.Remove(id)
	return nil
}

// Len возвращает количество открытых страниц.
func (m *Manager) Len() int {
	return m.pages.Len()
}

// Shutdown закрывает все страницы и немедленно выполняет все ожидающие
// удаления (по одному пакетному вызову на пакет).
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	// Purge вызывает onEvict для каждой страницы
	m.pages.Purge()

	m.mu.Lock()
	pending := make([]*Page, 0, len(m.detached))
	for _, p := range m.detached {
		pending = append(pending, p)
	}
	m.detached = make(map[string]*Page)
	m.mu.Unlock()

	var g errgroup.Group
	g.SetLimit(flushParallelism)
	for _, p := range pending {
		g.Go(func() error {
			if err := p.ctrl.Flush(ctx); err != nil {
				m.logger.Error("Ошибка сброса ожидающих удалений",
					slog.String("page_id", p.ID),
					slog.String("error", err.Error()),
				)
				return fmt.Errorf("страница %s: %w", p.ID, err)
			}
			return nil
		})
	}
	err := g.Wait()

	m.logger.Info("Менеджер страниц остановлен",
		slog.Int("flushed", len(pending)),
	)
	return err
}

// onEvict отвязывает вытесненную страницу от UI.
// Вызывается кэшем при Remove, Purge, истечении TTL и переполнении.
func (m *Manager) onEvict(id string, p *Page) {
	p.ctrl.Detach()
	p.toasts.Close()
	pagesOpen.Dec()
	pagesEvicted.Inc()

	m.mu.Lock()
	if p.ctrl.View().Pending > 0 {
		m.detached[id] = p
	}
	m.mu.Unlock()

	m.logger.Debug("Страница закрыта",
		slog.String("page_id", id),
		slog.String("user_id", p.UserID),
	)
}

// pruneDetachedLocked забывает отвязанные страницы без ожидающих удалений.
// Вызывается под m.mu.
func (m *Manager) pruneDetachedLocked() {
	for id, p := range m.detached {
		if p.ctrl.View().Pending == 0 {
			delete(m.detached, id)
		}
	}
}
