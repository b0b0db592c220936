// controller.go — необобщённый интерфейс контроллера страницы.
// Manager хранит страницы разных видов записей в одном кэше, поэтому
// типизированный undo.Controller[R] оборачивается в адаптер.
package pages

import (
	"context"

	"github.com/bigkaa/ejobportal/internal/undo"
)

// View — снимок страницы для отрисовки и JSON-ответов.
type View struct {
	Rows     []any        `json:"rows"`
	Selected []string     `json:"selected"`
	Pending  int          `json:"pending"`
	Batches  []undo.Batch `json:"batches"`
	Loaded   bool         `json:"loaded"`
}

// Controller — операции страницы над записями одного вида.
type Controller interface {
	Load(ctx context.Context) error
	Reconcile(ctx context.Context) error
	Toggle(id string) bool
	SelectAll()
	ClearSelection()
	Delete(ctx context.Context, ids []string) (undo.Batch, error)
	DeleteSelected(ctx context.Context) (undo.Batch, error)
	Undo(ctx context.Context, batchID string) (bool, error)
	Detach()
	Flush(ctx context.Context) error
	View() View
}

// Factory создаёт контроллер страницы для пользователя userID.
type Factory func(userID string, opts undo.Options) Controller

// Typed возвращает Factory для записей типа R из источника source.
func Typed[R any](source undo.Source[R], idOf func(R) string) Factory {
	return func(userID string, opts undo.Options) Controller {
		return typed[R]{undo.NewController(userID, source, idOf, opts)}
	}
}

type typed[R any] struct {
	*undo.Controller[R]
}

func (t typed[R]) View() View {
	v := t.Controller.View()
	rows := make([]any, len(v.Records))
	for i, r := range v.Records {
		rows[i] = r
	}
	return View{
		Rows:     rows,
		Selected: v.Selected,
		Pending:  v.Pending,
		Batches:  v.Batches,
		Loaded:   v.Loaded,
	}
}
