package undo

import "sort"

// Selection — множество идентификаторов, выбранных пользователем для
// массового действия. Порядок вставки не важен, дубликаты невозможны.
// Не потокобезопасна: синхронизацию обеспечивает Controller.
type Selection struct {
	ids map[string]struct{}
}

// NewSelection создаёт пустое множество выбора.
func NewSelection() *Selection {
	return &Selection{ids: make(map[string]struct{})}
}

// Toggle добавляет id, если его нет, и удаляет, если есть.
// Возвращает новое состояние (true — выбран).
func (s *Selection) Toggle(id string) bool {
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

// SelectAll заменяет выбор на переданные идентификаторы.
func (s *Selection) SelectAll(ids []string) {
	s.ids = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
}

// Clear очищает выбор.
func (s *Selection) Clear() {
	s.ids = make(map[string]struct{})
}

// Has проверяет, выбран ли id.
func (s *Selection) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Remove исключает идентификаторы из выбора.
func (s *Selection) Remove(ids ...string) {
	for _, id := range ids {
		delete(s.ids, id)
	}
}

// Retain оставляет в выборе только идентификаторы из valid.
// Возвращает количество отброшенных (устаревших) идентификаторов.
func (s *Selection) Retain(valid map[string]struct{}) int {
	dropped := 0
	for id := range s.ids {
		if _, ok := valid[id]; !ok {
			delete(s.ids, id)
			dropped++
		}
	}
	return dropped
}

// Len возвращает количество выбранных идентификаторов.
func (s *Selection) Len() int {
	return len(s.ids)
}

// IDs возвращает выбранные идентификаторы в отсортированном порядке.
func (s *Selection) IDs() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
