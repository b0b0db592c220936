package undotest

import (
	"sync"

	"github.com/bigkaa/ejobportal/internal/undo"
)

// ErrorEvent — записанное уведомление об ошибке.
type ErrorEvent struct {
	Kind undo.ErrorKind
	Err  error
}

// RecordingNotifier — Notifier, записывающий все вызовы.
type RecordingNotifier struct {
	mu        sync.Mutex
	batches   []undo.Batch
	actions   map[string]func()
	dismissed []string
	errors    []ErrorEvent
}

// NewRecordingNotifier создаёт пустой RecordingNotifier.
func NewRecordingNotifier() *RecordingNotifier {
	return &RecordingNotifier{actions: make(map[string]func())}
}

func (n *RecordingNotifier) NotifyUndo(batch undo.Batch, onUndo func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.batches = append(n.batches, batch)
	n.actions[batch.ID] = onUndo
}

func (n *RecordingNotifier) Dismiss(batchID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.dismissed = append(n.dismissed, batchID)
	delete(n.actions, batchID)
}

func (n *RecordingNotifier) NotifyError(kind undo.ErrorKind, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, ErrorEvent{Kind: kind, Err: err})
}

// ClickUndo вызывает действие «Отменить» уведомления пакета,
// как это сделал бы пользователь. Возвращает false, если уведомление закрыто.
func (n *RecordingNotifier) ClickUndo(batchID string) bool {
	n.mu.Lock()
	action, ok := n.actions[batchID]
	delete(n.actions, batchID)
	n.mu.Unlock()

	if !ok {
		return false
	}
	action()
	return true
}

// Batches возвращает показанные уведомления об отмене.
func (n *RecordingNotifier) Batches() []undo.Batch {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]undo.Batch(nil), n.batches...)
}

// Dismissed возвращает идентификаторы закрытых уведомлений.
func (n *RecordingNotifier) Dismissed() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.dismissed...)
}

// Errors возвращает показанные уведомления об ошибках.
func (n *RecordingNotifier) Errors() []ErrorEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]ErrorEvent(nil), n.errors...)
}
