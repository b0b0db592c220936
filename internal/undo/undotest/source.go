package undotest

import (
	"context"
	"errors"
	"sync"
)

// ErrForced — ошибка, возвращаемая источником по запросу теста.
var ErrForced = errors.New("принудительная ошибка источника")

// Record — простая запись для тестов контроллера.
type Record struct {
	ID    string
	Title string
}

// RecordID возвращает идентификатор записи.
func RecordID(r Record) string { return r.ID }

// MemorySource — источник записей в памяти (один пользователь).
// Считает вызовы и умеет принудительно завершать их ошибкой.
type MemorySource struct {
	mu          sync.Mutex
	records     []Record
	deleteCalls [][]string
	listCalls   int
	failDelete  bool
	failList    bool
}

// NewMemorySource создаёт источник с записями с идентификаторами ids.
func NewMemorySource(ids ...string) *MemorySource {
	s := &MemorySource{}
	for _, id := range ids {
		s.records = append(s.records, Record{ID: id, Title: "record " + id})
	}
	return s
}

// List возвращает копию записей.
func (s *MemorySource) List(_ context.Context, _ string) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.listCalls++
	if s.failList {
		return nil, ErrForced
	}
	return append([]Record(nil), s.records...), nil
}

// DeleteBatch удаляет записи ids целиком или не удаляет ничего.
func (s *MemorySource) DeleteBatch(_ context.Context, _ string, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deleteCalls = append(s.deleteCalls, append([]string(nil), ids...))
	if s.failDelete {
		return ErrForced
	}

	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	kept := s.records[:0]
	for _, r := range s.records {
		if _, ok := drop[r.ID]; !ok {
			kept = append(kept, r)
		}
	}
	s.records = kept
	return nil
}

// SetFailDelete включает или выключает ошибку DeleteBatch.
func (s *MemorySource) SetFailDelete(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failDelete = fail
}

// SetFailList включает или выключает ошибку List.
func (s *MemorySource) SetFailList(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failList = fail
}

// Remove удаляет запись в обход контроллера (например, из другой вкладки).
func (s *MemorySource) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.records[:0]
	for _, r := range s.records {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	s.records = kept
}

// DeleteCalls возвращает аргументы всех вызовов DeleteBatch.
func (s *MemorySource) DeleteCalls() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([][]string, len(s.deleteCalls))
	for i, c := range s.deleteCalls {
		out[i] = append([]string(nil), c...)
	}
	return out
}

// ListCalls возвращает количество вызовов List.
func (s *MemorySource) ListCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listCalls
}
