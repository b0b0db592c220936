// Пакет undo — мягкое удаление с возможностью отмены для страниц со списками.
//
// Жизненный цикл записи после начала удаления:
//
//	VISIBLE --(удаление)--> PENDING --(таймер)--> COMMITTED
//	PENDING --(отмена)--> RECONCILING --(перезапрос)--> VISIBLE или ABSENT
//
// Запись скрывается из видимого списка сразу, удаление на сервере выполняется
// одним пакетным вызовом после окна отмены. Отмена не восстанавливает
// локальную копию, а перезапрашивает список из источника истины.
package undo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// DefaultWindow — окно отмены удаления.
const DefaultWindow = 15 * time.Second

// Таймауты сетевых вызовов, выполняемых вне контекста HTTP-запроса.
const (
	commitTimeout = 30 * time.Second
	fetchTimeout  = 30 * time.Second
)

var (
	// ErrEmptyBatch — в пакете нет ни одной записи, доступной для удаления.
	ErrEmptyBatch = errors.New("пустой пакет удаления")
	// ErrDetached — страница закрыта, UI-операции недоступны.
	ErrDetached = errors.New("страница закрыта")
)

// Options — параметры контроллера.
type Options struct {
	// Window — окно отмены (по умолчанию DefaultWindow).
	Window time.Duration
	// Clock — источник таймеров (по умолчанию SystemClock).
	Clock Clock
	// Notifier — UI-уведомления (по умолчанию NopNotifier).
	Notifier Notifier
	// Logger — логгер (по умолчанию slog.Default()).
	Logger *slog.Logger
}

// View — снимок состояния страницы для отрисовки.
type View[R any] struct {
	// Records — видимый список: последний ответ сервера без ожидающих удаления записей.
	Records []R
	// Selected — выбранные идентификаторы.
	Selected []string
	// Pending — количество скрытых записей, ожидающих коммита.
	Pending int
	// Batches — активные пакеты удаления.
	Batches []Batch
	// Loaded — список хотя бы раз успешно получен.
	Loaded bool
}

// batchState — состояние пакета удаления.
type batchState struct {
	Batch
	// pending — идентификаторы с несработавшими таймерами.
	pending map[string]struct{}
	// fired — сработавшие идентификаторы, ожидающие коммита пакета.
	fired []string
	// committing — пакетный вызов удаления запущен.
	committing bool
}

// Controller — контроллер мягкого удаления для одной страницы.
// Обобщён по типу записи R, от записи нужен только идентификатор.
type Controller[R any] struct {
	userID   string
	idOf     func(R) string
	source   Source[R]
	registry *Registry
	clock    Clock
	window   time.Duration
	logger   *slog.Logger
	fetches  singleflight.Group

	mu        sync.Mutex
	notifier  Notifier
	records   []R
	loaded    bool
	selection *Selection
	batches   map[string]*batchState
	// owner — id записи → id пакета (ожидает, сработал или в полёте).
	owner    map[string]string
	detached bool
}

// NewController создаёт контроллер для записей пользователя userID.
// idOf извлекает идентификатор записи.
func NewController[R any](userID string, source Source[R], idOf func(R) string, opts Options) *Controller[R] {
	if opts.Window <= 0 {
		opts.Window = DefaultWindow
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.Notifier == nil {
		opts.Notifier = NopNotifier{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Controller[R]{
		userID:    userID,
		idOf:      idOf,
		source:    source,
		registry:  NewRegistry(opts.Clock),
		clock:     opts.Clock,
		window:    opts.Window,
		logger:    opts.Logger.With(slog.String("component", "undo")),
		notifier:  opts.Notifier,
		selection: NewSelection(),
		batches:   make(map[string]*batchState),
		owner:     make(map[string]string),
	}
}

// Window возвращает окно отмены.
func (c *Controller[R]) Window() time.Duration {
	return c.window
}

// Registry возвращает реестр отложенных удалений.
func (c *Controller[R]) Registry() *Registry {
	return c.registry
}

// Load выполняет начальную загрузку списка и очищает выбор.
func (c *Controller[R]) Load(ctx context.Context) error {
	c.mu.Lock()
	c.selection.Clear()
	c.mu.Unlock()
	return c.Reconcile(ctx)
}

// Reconcile перезапрашивает список из источника и заменяет его целиком.
// Параллельные вызовы объединяются в один запрос. Устаревшие выбранные
// идентификаторы молча отбрасываются. При ошибке список не меняется.
func (c *Controller[R]) Reconcile(ctx context.Context) error {
	c.mu.Lock()
	if c.detached {
		c.mu.Unlock()
		return ErrDetached
	}
	c.mu.Unlock()

	v, err, _ := c.fetches.Do("list", func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()
		return c.source.List(fetchCtx, c.userID)
	})
	if err != nil {
		reconcilesTotal.WithLabelValues("error").Inc()
		c.logger.Warn("Ошибка получения списка записей",
			slog.String("user_id", c.userID),
			slog.String("error", err.Error()),
		)
		c.notifyError(ErrorKindFetch, err)
		return fmt.Errorf("получение списка записей: %w", err)
	}
	records, _ := v.([]R)

	c.mu.Lock()
	c.records = append([]R(nil), records...)
	c.loaded = true
	valid := make(map[string]struct{}, len(c.records))
	for _, r := range c.visibleLocked() {
		valid[c.idOf(r)] = struct{}{}
	}
	dropped := c.selection.Retain(valid)
	c.mu.Unlock()

	reconcilesTotal.WithLabelValues("ok").Inc()
	if dropped > 0 {
		c.logger.Debug("Устаревшие идентификаторы исключены из выбора",
			slog.Int("dropped", dropped),
		)
	}
	return nil
}

// Toggle переключает выбор записи. Возвращает новое состояние.
func (c *Controller[R]) Toggle(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selection.Toggle(id)
}

// SelectAll выбирает все видимые записи.
func (c *Controller[R]) SelectAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	visible := c.visibleLocked()
	ids := make([]string, 0, len(visible))
	for _, r := range visible {
		ids = append(ids, c.idOf(r))
	}
	c.selection.SelectAll(ids)
}

// ClearSelection очищает выбор.
func (c *Controller[R]) ClearSelection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selection.Clear()
}

// DeleteSelected начинает удаление выбранных записей.
func (c *Controller[R]) DeleteSelected(ctx context.Context) (Batch, error) {
	c.mu.Lock()
	ids := c.selection.IDs()
	c.mu.Unlock()
	return c.Delete(ctx, ids)
}

// Delete начинает удаление записей ids: скрывает их из видимого списка,
// очищает выбор, ставит таймер на каждую запись и показывает одно
// уведомление с отменой на весь пакет.
//
// Записи, уже ожидающие удаления в другом пакете, переносятся в новый пакет
// (прежний таймер отменяется). Записи, таймер которых уже сработал, пропускаются.
func (c *Controller[R]) Delete(_ context.Context, ids []string) (Batch, error) {
	c.mu.Lock()
	if c.detached {
		c.mu.Unlock()
		return Batch{}, ErrDetached
	}

	var (
		accepted []string
		emptied  []string
		ready    []*batchState
		seen     = make(map[string]struct{}, len(ids))
	)
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		if prevID, ok := c.owner[id]; ok {
			prev := c.batches[prevID]
			if prev == nil {
				continue
			}
			if _, waiting := prev.pending[id]; !waiting {
				// Таймер уже сработал — запись удаляется в рамках прежнего пакета
				continue
			}
			if !c.registry.Cancel(id) {
				continue
			}
			delete(prev.pending, id)
			if len(prev.pending) == 0 && !prev.committing {
				if len(prev.fired) > 0 {
					prev.committing = true
					ready = append(ready, prev)
				} else {
					delete(c.batches, prevID)
					emptied = append(emptied, prevID)
				}
			}
		}
		accepted = append(accepted, id)
	}

	if len(accepted) == 0 {
		c.mu.Unlock()
		return Batch{}, ErrEmptyBatch
	}

	now := c.clock.Now()
	b := &batchState{
		Batch: Batch{
			ID:        uuid.NewString(),
			IDs:       accepted,
			CreatedAt: now,
			Deadline:  now.Add(c.window),
		},
		pending: make(map[string]struct{}, len(accepted)),
	}
	for _, id := range accepted {
		b.pending[id] = struct{}{}
		c.owner[id] = b.ID
	}
	c.batches[b.ID] = b
	c.selection.Clear()

	batchID := b.ID
	c.registry.Schedule(accepted, c.window, func(id string) {
		c.onFire(batchID, id)
	})

	notifier := c.notifier
	batch := b.Batch
	batch.IDs = append([]string(nil), accepted...)
	c.mu.Unlock()

	batchesTotal.Inc()
	c.logger.Info("Пакет удаления запланирован",
		slog.String("batch_id", batchID),
		slog.Int("count", len(accepted)),
		slog.Duration("window", c.window),
	)

	for _, id := range emptied {
		notifier.Dismiss(id)
	}
	for _, prev := range ready {
		_ = c.commit(context.Background(), prev)
	}

	notifier.NotifyUndo(batch, func() {
		_, _ = c.Undo(context.Background(), batchID)
	})
	return batch, nil
}

// Undo отменяет несработавшие таймеры пакета, закрывает его уведомление
// и перезапрашивает список. Для неизвестного или уже выполненного пакета
// только перезапрашивает список. Возвращает true, если отменена хотя бы одна запись.
func (c *Controller[R]) Undo(ctx context.Context, batchID string) (bool, error) {
	c.mu.Lock()
	if c.detached {
		c.mu.Unlock()
		return false, ErrDetached
	}

	cancelled := 0
	var ready *batchState
	if b, ok := c.batches[batchID]; ok && !b.committing {
		for id := range b.pending {
			if c.registry.Cancel(id) {
				delete(b.pending, id)
				delete(c.owner, id)
				cancelled++
			}
		}
		if len(b.pending) == 0 {
			if len(b.fired) == 0 {
				delete(c.batches, batchID)
			} else {
				b.committing = true
				ready = b
			}
		}
	}
	notifier := c.notifier
	c.mu.Unlock()

	if cancelled > 0 {
		undoTotal.Inc()
		c.logger.Info("Удаление отменено пользователем",
			slog.String("batch_id", batchID),
			slog.Int("count", cancelled),
		)
	}
	notifier.Dismiss(batchID)

	if ready != nil {
		_ = c.commit(context.Background(), ready)
	}

	if err := c.Reconcile(ctx); err != nil {
		return cancelled > 0, err
	}
	return cancelled > 0, nil
}

// Detach отвязывает контроллер от UI (страница закрыта).
// Несработавшие таймеры продолжают работу и выполняют только коммит на сервере:
// уведомления, перезапросы и изменения видимого списка подавляются.
func (c *Controller[R]) Detach() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.detached {
		return
	}
	c.detached = true
	c.notifier = NopNotifier{}
	c.selection.Clear()
	c.logger.Debug("Контроллер отвязан от UI",
		slog.Int("pending", c.registry.Len()),
	)
}

// Detached сообщает, отвязан ли контроллер от UI.
func (c *Controller[R]) Detached() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.detached
}

// Flush немедленно коммитит все ожидающие пакеты (по одному вызову на пакет).
// Несработавшие таймеры отменяются.
func (c *Controller[R]) Flush(ctx context.Context) error {
	stopped := c.registry.Stop()

	c.mu.Lock()
	for _, id := range stopped {
		b, ok := c.batches[c.owner[id]]
		if !ok {
			continue
		}
		delete(b.pending, id)
		b.fired = append(b.fired, id)
	}
	var ready []*batchState
	for _, b := range c.batches {
		if len(b.pending) == 0 && !b.committing && len(b.fired) > 0 {
			b.committing = true
			ready = append(ready, b)
		}
	}
	c.mu.Unlock()

	sort.Slice(ready, func(i, j int) bool {
		return ready[i].CreatedAt.Before(ready[j].CreatedAt)
	})

	var errs []error
	for _, b := range ready {
		if err := c.commit(ctx, b); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// View возвращает снимок состояния для отрисовки.
func (c *Controller[R]) View() View[R] {
	c.mu.Lock()
	defer c.mu.Unlock()

	batches := make([]Batch, 0, len(c.batches))
	for _, b := range c.batches {
		batch := b.Batch
		batch.IDs = append([]string(nil), b.IDs...)
		batches = append(batches, batch)
	}
	sort.Slice(batches, func(i, j int) bool {
		return batches[i].CreatedAt.Before(batches[j].CreatedAt)
	})

	return View[R]{
		Records:  c.visibleLocked(),
		Selected: c.selection.IDs(),
		Pending:  len(c.owner),
		Batches:  batches,
		Loaded:   c.loaded,
	}
}

// onFire вызывается реестром при срабатывании таймера id.
// Коммит пакета запускается, когда сработал последний таймер пакета.
func (c *Controller[R]) onFire(batchID, id string) {
	c.mu.Lock()
	b, ok := c.batches[batchID]
	if !ok {
		c.mu.Unlock()
		return
	}
	delete(b.pending, id)
	b.fired = append(b.fired, id)
	ready := len(b.pending) == 0 && !b.committing
	if ready {
		b.committing = true
	}
	c.mu.Unlock()

	if ready {
		_ = c.commit(context.Background(), b)
	}
}

// commit выполняет пакетное удаление сработавших записей пакета.
// При ошибке запись возвращается в видимый список через перезапрос
// и показывается уведомление об ошибке. Повторных попыток нет.
func (c *Controller[R]) commit(ctx context.Context, b *batchState) error {
	c.mu.Lock()
	ids := append([]string(nil), b.fired...)
	c.mu.Unlock()

	commitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), commitTimeout)
	defer cancel()
	err := c.source.DeleteBatch(commitCtx, c.userID, ids)

	c.mu.Lock()
	delete(c.batches, b.ID)
	for _, id := range ids {
		if c.owner[id] == b.ID {
			delete(c.owner, id)
		}
	}
	if err == nil {
		c.records = c.without(c.records, ids)
	}
	detached := c.detached
	notifier := c.notifier
	c.mu.Unlock()

	if err == nil {
		commitsTotal.WithLabelValues("ok").Inc()
		c.logger.Info("Пакет удаления выполнен",
			slog.String("batch_id", b.ID),
			slog.Int("count", len(ids)),
			slog.Bool("detached", detached),
		)
		notifier.Dismiss(b.ID)
		return nil
	}

	commitsTotal.WithLabelValues("error").Inc()
	c.logger.Error("Ошибка пакетного удаления",
		slog.String("batch_id", b.ID),
		slog.Int("count", len(ids)),
		slog.String("error", err.Error()),
	)
	err = fmt.Errorf("пакетное удаление %s: %w", b.ID, err)
	if detached {
		return err
	}

	notifier.Dismiss(b.ID)
	notifier.NotifyError(ErrorKindCommit, err)
	_ = c.Reconcile(ctx)
	return err
}

// notifyError показывает ошибку, если контроллер привязан к UI.
func (c *Controller[R]) notifyError(kind ErrorKind, err error) {
	c.mu.Lock()
	notifier := c.notifier
	c.mu.Unlock()
	notifier.NotifyError(kind, err)
}

// visibleLocked возвращает последний список без записей, ожидающих удаления.
// Вызывается под c.mu.
func (c *Controller[R]) visibleLocked() []R {
	out := make([]R, 0, len(c.records))
	for _, r := range c.records {
		if _, hidden := c.owner[c.idOf(r)]; hidden {
			continue
		}
		out = append(out, r)
	}
	return out
}

// without возвращает records без записей с идентификаторами ids.
func (c *Controller[R]) without(records []R, ids []string) []R {
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	out := records[:0:0]
	for _, r := range records {
		if _, ok := drop[c.idOf(r)]; ok {
			continue
		}
		out = append(out, r)
	}
	return out
}
