package handlers

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// readEvent читает поток SSE до события с типом want.
func readEvent(t *testing.T, r *bufio.Reader, want string) string {
	t.Helper()
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("чтение SSE до события %s: %v", want, err)
		}
		if strings.TrimSpace(line) != "event: "+want {
			continue
		}
		data, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("чтение данных события %s: %v", want, err)
		}
		return strings.TrimPrefix(strings.TrimSpace(data), "data: ")
	}
}

func TestPageEvents(t *testing.T) {
	env := newTestEnv(t, "a", "b")
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	page := env.openPage(t)
	base := "/api/v1/pages/" + page.ID

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+base+"/events", nil)
	req.Header.Set("X-Test-User", testUser)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("подключение SSE: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q, хотели text/event-stream", ct)
	}
	stream := bufio.NewReader(resp.Body)

	rec := env.do(t, testUser, http.MethodPost, base+"/delete", `{"ids":["a"]}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("удаление: статус %d", rec.Code)
	}
	if data := readEvent(t, stream, "toast"); !strings.Contains(data, `"kind":"undo"`) {
		t.Errorf("данные toast = %s", data)
	}

	env.do(t, testUser, http.MethodDelete, base, "")
	readEvent(t, stream, "closed")
}

func TestPageEvents_SendsActiveToastsOnConnect(t *testing.T) {
	env := newTestEnv(t, "a")
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	page := env.openPage(t)
	base := "/api/v1/pages/" + page.ID
	env.do(t, testUser, http.MethodPost, base+"/delete", `{"ids":["a"]}`)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+base+"/events", nil)
	req.Header.Set("X-Test-User", testUser)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("подключение SSE: %v", err)
	}
	defer resp.Body.Close()

	if data := readEvent(t, bufio.NewReader(resp.Body), "toast"); !strings.Contains(data, `"count":1`) {
		t.Errorf("данные toast = %s", data)
	}
}
