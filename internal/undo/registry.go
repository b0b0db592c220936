// registry.go — реестр отложенных удалений: id записи → таймер коммита.
//
// Инвариант: для каждого id в реестре не более одной записи. Повторное
// планирование отменяет прежний таймер и заменяет его новым.
// Сработавшая запись удаляется из реестра до вызова onFire, поэтому Cancel
// после срабатывания возвращает false (отмена возможна только до коммита).
package undo

import (
	"sort"
	"sync"
	"time"
)

// Entry — запись реестра отложенного удаления.
type Entry struct {
	// ID — идентификатор записи.
	ID string
	// ScheduledAt — время постановки в очередь.
	ScheduledAt time.Time
	// FireAt — время срабатывания таймера.
	FireAt time.Time

	timer Timer
}

// Registry — реестр отложенных удалений. Потокобезопасен.
// Область жизни — один экземпляр страницы.
type Registry struct {
	clock Clock

	mu      sync.Mutex
	entries map[string]*Entry
}

// NewRegistry создаёт пустой реестр.
func NewRegistry(clock Clock) *Registry {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Registry{
		clock:   clock,
		entries: make(map[string]*Entry),
	}
}

// Schedule ставит таймер для каждого id. Существующий таймер id
// отменяется и заменяется. По истечении delay запись удаляется из реестра
// и вызывается onFire(id).
func (r *Registry) Schedule(ids []string, delay time.Duration, onFire func(id string)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	for _, id := range ids {
		if prev, ok := r.entries[id]; ok {
			prev.timer.Stop()
			pendingDeletions.Dec()
		}

		e := &Entry{
			ID:          id,
			ScheduledAt: now,
			FireAt:      now.Add(delay),
		}
		e.timer = r.clock.AfterFunc(delay, func() {
			if r.take(id, e) {
				onFire(id)
			}
		})
		r.entries[id] = e
		pendingDeletions.Inc()
	}
}

// take удаляет запись, если она всё ещё принадлежит сработавшему таймеру.
func (r *Registry) take(id string, e *Entry) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.entries[id]; !ok || cur != e {
		return false
	}
	delete(r.entries, id)
	pendingDeletions.Dec()
	return true
}

// Cancel отменяет таймер id и удаляет запись.
// Возвращает false, если записи нет (не планировалась или уже сработала).
func (r *Registry) Cancel(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return false
	}
	e.timer.Stop()
	delete(r.entries, id)
	pendingDeletions.Dec()
	return true
}

// Pending проверяет, есть ли в реестре несработавший таймер для id.
func (r *Registry) Pending(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[id]
	return ok
}

// Entry возвращает копию записи id.
func (r *Registry) Entry(id string) (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return Entry{}, false
	}
	return Entry{ID: e.ID, ScheduledAt: e.ScheduledAt, FireAt: e.FireAt}, true
}

// Len возвращает количество несработавших таймеров.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// IDs возвращает идентификаторы с несработавшими таймерами (отсортированы).
func (r *Registry) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, 0, len(r.entries))
	for id := range r.entries {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Stop отменяет все несработавшие таймеры и возвращает их идентификаторы.
func (r *Registry) Stop() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, 0, len(r.entries))
	for id, e := range r.entries {
		e.timer.Stop()
		out = append(out, id)
	}
	pendingDeletions.Sub(float64(len(r.entries)))
	r.entries = make(map[string]*Entry)
	sort.Strings(out)
	return out
}
