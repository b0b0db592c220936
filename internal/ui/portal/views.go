// views.go — HTML-компоненты страниц портала.
package portal

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/a-h/templ"

	"github.com/bigkaa/ejobportal/internal/domain/model"
	"github.com/bigkaa/ejobportal/internal/pages"
	"github.com/bigkaa/ejobportal/internal/ui/i18n"
)

// dateLayout — формат дат в таблицах.
const dateLayout = "02 Jan 2006"

// columns возвращает ключи заголовков колонок для вида записей.
func columns(kind model.Kind) []string {
	switch kind {
	case model.KindChildren:
		return []string{"column.name", "column.date_of_birth", "column.gender"}
	case model.KindEducation:
		return []string{"column.degree", "column.institution", "column.passing_year", "column.result"}
	case model.KindDocuments:
		return []string{"column.title", "column.file_name", "column.size", "column.created_at"}
	case model.KindNotifications:
		return []string{"column.title", "column.body", "column.created_at"}
	}
	return nil
}

// cells возвращает идентификатор записи и значения ячеек строки.
func cells(row any) (string, []string) {
	switch r := row.(type) {
	case *model.Child:
		dob := ""
		if r.DateOfBirth != nil {
			dob = r.DateOfBirth.Format(dateLayout)
		}
		return r.ID, []string{r.Name, dob, r.Gender}
	case *model.Education:
		year := ""
		if r.PassingYear > 0 {
			year = strconv.Itoa(r.PassingYear)
		}
		return r.ID, []string{r.Degree, r.Institution, year, r.Result}
	case *model.Document:
		return r.ID, []string{r.Title, r.FileName, formatSize(r.Size), formatDate(r.CreatedAt)}
	case *model.Notification:
		return r.ID, []string{r.Title, r.Body, formatDate(r.CreatedAt)}
	}
	return "", nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

// formatSize форматирует размер файла в байтах.
func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGT"[exp])
}

// htmlWriter запоминает первую ошибку записи.
type htmlWriter struct {
	w   io.Writer
	err error
}

func (h *htmlWriter) raw(s string) {
	if h.err == nil {
		_, h.err = io.WriteString(h.w, s)
	}
}

func (h *htmlWriter) text(s string) {
	h.raw(templ.EscapeString(s))
}

// Layout — общий каркас страницы с навигацией по видам записей.
func Layout(active model.Kind, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		lang := i18n.LangFromContext(ctx)

		h.raw(`<!DOCTYPE html><html lang="`)
		h.text(lang)
		h.raw(`"><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1"><title>`)
		h.text(i18n.T(ctx, "app.title"))
		h.raw(`</title><link rel="stylesheet" href="/static/css/portal.css"></head><body><header><h1>`)
		h.text(i18n.T(ctx, "app.title"))
		h.raw(`</h1><nav>`)
		for _, k := range model.Kinds {
			h.raw(`<a href="/portal/`)
			h.text(string(k))
			h.raw(`"`)
			if k == active {
				h.raw(` class="active"`)
			}
			h.raw(`>`)
			h.text(i18n.T(ctx, "nav."+string(k)))
			h.raw(`</a>`)
		}
		h.raw(`</nav><form method="post" action="/portal/set-language"><label>`)
		h.text(i18n.T(ctx, "nav.language"))
		h.raw(` <select name="lang" onchange="this.form.submit()">`)
		for _, opt := range []struct{ code, label string }{{"en", "English"}, {"bn", "বাংলা"}} {
			h.raw(`<option value="` + opt.code + `"`)
			if opt.code == lang {
				h.raw(` selected`)
			}
			h.raw(`>`)
			h.text(opt.label)
			h.raw(`</option>`)
		}
		h.raw(`</select></label></form></header><main>`)
		if h.err != nil {
			return h.err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		h.raw(`</main><div id="toasts"></div><script src="/static/js/portal.js" defer></script></body></html>`)
		return h.err
	})
}

// ListPage — таблица записей страницы с панелью выбора и удаления.
func ListPage(page *pages.Page, view pages.View) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}

		h.raw(`<section data-page-id="`)
		h.text(page.ID)
		h.raw(`" data-selected-label="`)
		h.text(i18n.T(ctx, "page.selected"))
		h.raw(`" data-pending-label="`)
		h.text(i18n.T(ctx, "page.pending"))
		h.raw(`"><div class="toolbar">`)
		for _, b := range []struct{ action, key, class string }{
			{"select-all", "page.select_all", ""},
			{"clear", "page.clear_selection", ""},
			{"delete", "page.delete_selected", "danger"},
			{"refresh", "page.refresh", ""},
		} {
			h.raw(`<button type="button" data-action="` + b.action + `"`)
			if b.class != "" {
				h.raw(` class="` + b.class + `"`)
			}
			if b.action == "delete" && len(view.Selected) == 0 {
				h.raw(` disabled`)
			}
			h.raw(`>`)
			h.text(i18n.T(ctx, b.key))
			h.raw(`</button>`)
		}
		h.raw(`<span class="status" data-role="status">`)
		h.text(i18n.Tf(ctx, "page.selected", len(view.Selected)))
		h.raw(` · `)
		h.text(i18n.Tf(ctx, "page.pending", view.Pending))
		h.raw(`</span></div><table><thead><tr><th></th>`)
		for _, key := range columns(page.Kind) {
			h.raw(`<th>`)
			h.text(i18n.T(ctx, key))
			h.raw(`</th>`)
		}
		h.raw(`</tr></thead><tbody>`)

		selected := make(map[string]bool, len(view.Selected))
		for _, id := range view.Selected {
			selected[id] = true
		}
		for _, row := range view.Rows {
			id, values := cells(row)
			if id == "" {
				continue
			}
			h.raw(`<tr data-id="`)
			h.text(id)
			h.raw(`"><td><input type="checkbox"`)
			if selected[id] {
				h.raw(` checked`)
			}
			h.raw(`></td>`)
			for _, v := range values {
				h.raw(`<td>`)
				h.text(v)
				h.raw(`</td>`)
			}
			h.raw(`</tr>`)
		}
		h.raw(`</tbody></table><p class="empty" data-role="empty"`)
		if len(view.Rows) > 0 {
			h.raw(` hidden`)
		}
		h.raw(`>`)
		if view.Loaded {
			h.text(i18n.T(ctx, "page.empty"))
		} else {
			h.text(i18n.T(ctx, "page.loading"))
		}
		h.raw(`</p></section>`)
		return h.err
	})
}
