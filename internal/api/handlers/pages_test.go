package handlers

import (
	"net/http"
	"slices"
	"testing"
	"time"
)

type testPage struct {
	ID       string `json:"id"`
	Kind     string `json:"kind"`
	Lang     string `json:"lang"`
	Rows     []struct{ ID string } `json:"rows"`
	Selected []string              `json:"selected"`
	Pending  int                   `json:"pending"`
	Batches  []struct {
		ID  string   `json:"id"`
		IDs []string `json:"ids"`
	} `json:"batches"`
	Toasts []struct {
		ID    string `json:"id"`
		Kind  string `json:"kind"`
		Count int    `json:"count"`
	} `json:"toasts"`
	Loaded            bool `json:"loaded"`
	UndoWindowSeconds int  `json:"undo_window_seconds"`
}

func (p testPage) rowIDs() []string {
	out := make([]string, 0, len(p.Rows))
	for _, r := range p.Rows {
		out = append(out, r.ID)
	}
	return out
}

func (env *testEnv) openPage(t *testing.T) testPage {
	t.Helper()
	rec := env.do(t, testUser, http.MethodPost, "/api/v1/pages", `{"kind":"children","lang":"bn"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("открытие страницы: статус %d, тело %s", rec.Code, rec.Body)
	}
	return decodeJSON[testPage](t, rec)
}

func TestOpenPage(t *testing.T) {
	env := newTestEnv(t, "a", "b", "c")
	page := env.openPage(t)

	if page.ID == "" {
		t.Error("пустой идентификатор страницы")
	}
	if page.Kind != "children" || page.Lang != "bn" {
		t.Errorf("kind/lang = %s/%s, хотели children/bn", page.Kind, page.Lang)
	}
	if !slices.Equal(page.rowIDs(), []string{"a", "b", "c"}) {
		t.Errorf("строки = %v", page.rowIDs())
	}
	if !page.Loaded {
		t.Error("страница не загружена")
	}
	if page.UndoWindowSeconds != 10 {
		t.Errorf("undo_window_seconds = %d, хотели 10", page.UndoWindowSeconds)
	}
	if page.Selected == nil || page.Batches == nil {
		t.Error("пустые списки должны сериализоваться как []")
	}
}

func TestOpenPage_Errors(t *testing.T) {
	env := newTestEnv(t, "a")

	tests := []struct {
		name string
		user string
		body string
		want int
	}{
		{"anonymous", "", `{"kind":"children"}`, http.StatusUnauthorized},
		{"unknown kind", testUser, `{"kind":"salary"}`, http.StatusBadRequest},
		{"kind without factory", testUser, `{"kind":"documents"}`, http.StatusBadRequest},
		{"bad json", testUser, `{"kind":`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, tt.user, http.MethodPost, "/api/v1/pages", tt.body)
			if rec.Code != tt.want {
				t.Errorf("статус = %d, хотели %d (%s)", rec.Code, tt.want, rec.Body)
			}
		})
	}
}

func TestPage_OtherUserGets404(t *testing.T) {
	env := newTestEnv(t, "a")
	page := env.openPage(t)

	rec := env.do(t, "intruder", http.MethodGet, "/api/v1/pages/"+page.ID, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("чужая страница: статус %d, хотели 404", rec.Code)
	}
	rec = env.do(t, "intruder", http.MethodDelete, "/api/v1/pages/"+page.ID, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("закрытие чужой страницы: статус %d, хотели 404", rec.Code)
	}
}

func TestPage_DeleteSelectedAndUndo(t *testing.T) {
	env := newTestEnv(t, "a", "b", "c")
	page := env.openPage(t)
	base := "/api/v1/pages/" + page.ID

	env.do(t, testUser, http.MethodPost, base+"/selection/toggle", `{"id":"a"}`)
	rec := env.do(t, testUser, http.MethodPost, base+"/selection/toggle", `{"id":"c"}`)
	page = decodeJSON[testPage](t, rec)
	if len(page.Selected) != 2 {
		t.Fatalf("выбрано %v, хотели [a c]", page.Selected)
	}

	rec = env.do(t, testUser, http.MethodPost, base+"/delete", "")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("удаление: статус %d (%s)", rec.Code, rec.Body)
	}
	resp := decodeJSON[struct {
		Batch struct {
			ID  string   `json:"id"`
			IDs []string `json:"ids"`
		} `json:"batch"`
		Page testPage `json:"page"`
	}](t, rec)

	if !slices.Equal(resp.Page.rowIDs(), []string{"b"}) {
		t.Errorf("видимые строки = %v, хотели [b]", resp.Page.rowIDs())
	}
	if resp.Page.Pending != 2 || len(resp.Page.Selected) != 0 {
		t.Errorf("pending = %d, selected = %v", resp.Page.Pending, resp.Page.Selected)
	}
	if len(resp.Page.Toasts) != 1 || resp.Page.Toasts[0].ID != resp.Batch.ID || resp.Page.Toasts[0].Count != 2 {
		t.Errorf("уведомления = %+v, хотели одно на пакет %s", resp.Page.Toasts, resp.Batch.ID)
	}
	if n := len(env.source.DeleteCalls()); n != 0 {
		t.Fatalf("удаление на сервере до окна отмены: %d вызовов", n)
	}

	rec = env.do(t, testUser, http.MethodPost, base+"/toasts/"+resp.Batch.ID+"/undo", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("отмена: статус %d (%s)", rec.Code, rec.Body)
	}
	page = decodeJSON[testPage](t, rec)
	if !slices.Equal(page.rowIDs(), []string{"a", "b", "c"}) {
		t.Errorf("после отмены строки = %v", page.rowIDs())
	}
	if page.Pending != 0 || len(page.Toasts) != 0 {
		t.Errorf("после отмены pending = %d, toasts = %d", page.Pending, len(page.Toasts))
	}

	env.clock.Advance(time.Minute)
	if n := len(env.source.DeleteCalls()); n != 0 {
		t.Errorf("после отмены выполнено %d удалений", n)
	}
}

func TestPage_DeleteCommitsAfterWindow(t *testing.T) {
	env := newTestEnv(t, "a", "b", "c")
	page := env.openPage(t)
	base := "/api/v1/pages/" + page.ID

	rec := env.do(t, testUser, http.MethodPost, base+"/delete", `{"ids":["a","b"]}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("удаление: статус %d (%s)", rec.Code, rec.Body)
	}

	env.clock.Advance(10 * time.Second)

	calls := env.source.DeleteCalls()
	if len(calls) != 1 || len(calls[0]) != 2 {
		t.Fatalf("вызовы удаления = %v, хотели один пакет из двух записей", calls)
	}

	page = decodeJSON[testPage](t, env.do(t, testUser, http.MethodGet, base, ""))
	if !slices.Equal(page.rowIDs(), []string{"c"}) || page.Pending != 0 {
		t.Errorf("после коммита строки = %v, pending = %d", page.rowIDs(), page.Pending)
	}
}

func TestPage_LateUndoReconciles(t *testing.T) {
	env := newTestEnv(t, "a", "b")
	page := env.openPage(t)
	base := "/api/v1/pages/" + page.ID

	rec := env.do(t, testUser, http.MethodPost, base+"/delete", `{"ids":["a"]}`)
	batchID := decodeJSON[struct {
		Batch struct {
			ID string `json:"id"`
		} `json:"batch"`
	}](t, rec).Batch.ID
	env.clock.Advance(10 * time.Second)

	rec = env.do(t, testUser, http.MethodPost, base+"/toasts/"+batchID+"/undo", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("поздняя отмена: статус %d", rec.Code)
	}
	page = decodeJSON[testPage](t, rec)
	if !slices.Equal(page.rowIDs(), []string{"b"}) {
		t.Errorf("после поздней отмены строки = %v, хотели состояние сервера [b]", page.rowIDs())
	}
}

func TestPage_DeleteEmptySelection(t *testing.T) {
	env := newTestEnv(t, "a")
	page := env.openPage(t)

	rec := env.do(t, testUser, http.MethodPost, "/api/v1/pages/"+page.ID+"/delete", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("пустой пакет: статус %d, хотели 400", rec.Code)
	}
}

func TestPage_SelectAllAndClear(t *testing.T) {
	env := newTestEnv(t, "a", "b")
	page := env.openPage(t)
	base := "/api/v1/pages/" + page.ID

	page = decodeJSON[testPage](t, env.do(t, testUser, http.MethodPost, base+"/selection/all", ""))
	if len(page.Selected) != 2 {
		t.Errorf("выбрать все: %v", page.Selected)
	}
	page = decodeJSON[testPage](t, env.do(t, testUser, http.MethodDelete, base+"/selection", ""))
	if len(page.Selected) != 0 {
		t.Errorf("после очистки выбрано %v", page.Selected)
	}

	rec := env.do(t, testUser, http.MethodPost, base+"/selection/toggle", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("toggle без id: статус %d, хотели 400", rec.Code)
	}
}

func TestPage_ReconcileKeepsLastKnownOnFailure(t *testing.T) {
	env := newTestEnv(t, "a", "b")
	page := env.openPage(t)
	base := "/api/v1/pages/" + page.ID

	env.source.SetFailList(true)
	rec := env.do(t, testUser, http.MethodPost, base+"/reconcile", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("перезапрос: статус %d", rec.Code)
	}
	page = decodeJSON[testPage](t, rec)
	if !slices.Equal(page.rowIDs(), []string{"a", "b"}) {
		t.Errorf("строки = %v, хотели последний известный список", page.rowIDs())
	}
	if len(page.Toasts) != 1 || page.Toasts[0].Kind != "error" {
		t.Errorf("уведомления = %+v, хотели одно об ошибке", page.Toasts)
	}

	env.source.SetFailList(false)
	env.source.Remove("b")
	page = decodeJSON[testPage](t, env.do(t, testUser, http.MethodPost, base+"/reconcile", ""))
	if !slices.Equal(page.rowIDs(), []string{"a"}) {
		t.Errorf("после восстановления строки = %v, хотели [a]", page.rowIDs())
	}
}

func TestPage_DismissToastKeepsDeletion(t *testing.T) {
	env := newTestEnv(t, "a", "b")
	page := env.openPage(t)
	base := "/api/v1/pages/" + page.ID

	rec := env.do(t, testUser, http.MethodPost, base+"/delete", `{"ids":["a"]}`)
	resp := decodeJSON[struct {
		Batch struct {
			ID string `json:"id"`
		} `json:"batch"`
	}](t, rec)

	rec = env.do(t, testUser, http.MethodDelete, base+"/toasts/"+resp.Batch.ID, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("закрытие уведомления: статус %d", rec.Code)
	}
	env.clock.Advance(10 * time.Second)
	if n := len(env.source.DeleteCalls()); n != 1 {
		t.Errorf("вызовов удаления = %d, хотели 1", n)
	}
}

func TestClosePage_CommitsPending(t *testing.T) {
	env := newTestEnv(t, "a", "b")
	page := env.openPage(t)
	base := "/api/v1/pages/" + page.ID

	env.do(t, testUser, http.MethodPost, base+"/delete", `{"ids":["b"]}`)
	rec := env.do(t, testUser, http.MethodDelete, base, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("закрытие: статус %d", rec.Code)
	}
	if rec := env.do(t, testUser, http.MethodGet, base, ""); rec.Code != http.StatusNotFound {
		t.Errorf("закрытая страница: статус %d, хотели 404", rec.Code)
	}

	env.clock.Advance(10 * time.Second)
	calls := env.source.DeleteCalls()
	if len(calls) != 1 || calls[0][0] != "b" {
		t.Errorf("вызовы удаления = %v, хотели [[b]]", calls)
	}
}
