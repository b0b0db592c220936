package undo

import (
	"context"
	"time"
)

// Source — слой хранения записей одной страницы.
// Оба вызова асинхронны относительно UI и атомарны целиком (all-or-nothing).
// Идентификатор текущего пользователя передаётся явно.
type Source[R any] interface {
	// List возвращает все записи пользователя (источник истины).
	List(ctx context.Context, userID string) ([]R, error)
	// DeleteBatch удаляет записи пользователя одним пакетным вызовом.
	DeleteBatch(ctx context.Context, userID string, ids []string) error
}

// ErrorKind — категория ошибки, показываемой пользователю.
type ErrorKind string

const (
	// ErrorKindCommit — пакетное удаление на сервере не выполнено.
	ErrorKindCommit ErrorKind = "commit"
	// ErrorKindFetch — не удалось получить список записей.
	ErrorKindFetch ErrorKind = "fetch"
)

// Batch — пакет удаления, инициированный одним действием пользователя.
type Batch struct {
	// ID — идентификатор пакета (он же идентификатор уведомления).
	ID string `json:"id"`
	// IDs — идентификаторы записей пакета.
	IDs []string `json:"ids"`
	// CreatedAt — время начала удаления.
	CreatedAt time.Time `json:"created_at"`
	// Deadline — время, после которого отмена невозможна.
	Deadline time.Time `json:"deadline"`
}

// Notifier — UI-уведомления (toast/banner).
// Не блокирует пользователя: все сообщения временные.
type Notifier interface {
	// NotifyUndo показывает одно сгруппированное уведомление на весь пакет
	// с действием «Отменить». onUndo вызывается не более одного раза.
	NotifyUndo(batch Batch, onUndo func())
	// Dismiss программно закрывает уведомление пакета.
	Dismiss(batchID string)
	// NotifyError показывает уведомление об ошибке (отдельно от undo).
	NotifyError(kind ErrorKind, err error)
}

// NopNotifier — Notifier без UI (фоновые операции, тесты).
type NopNotifier struct{}

func (NopNotifier) NotifyUndo(Batch, func())    {}
func (NopNotifier) Dismiss(string)              {}
func (NopNotifier) NotifyError(ErrorKind, error) {}
