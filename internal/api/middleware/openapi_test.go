package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bigkaa/ejobportal/internal/api/openapi"
)

const testPageID = "3f2504e0-4f89-11d3-9a0c-0305e82c3301"

func newTestValidator(t *testing.T) http.Handler {
	t.Helper()
	v, err := NewRequestValidator(openapi.Spec, testLogger())
	if err != nil {
		t.Fatalf("NewRequestValidator: %v", err)
	}
	return v.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
}

func TestRequestValidator(t *testing.T) {
	handler := newTestValidator(t)

	tests := []struct {
		name        string
		method      string
		path        string
		contentType string
		body        string
		want        int
	}{
		{"valid kind", http.MethodGet, "/api/v1/records/children", "", "", http.StatusNoContent},
		{"unknown kind", http.MethodGet, "/api/v1/records/salary", "", "", http.StatusBadRequest},
		{"open page", http.MethodPost, "/api/v1/pages", "application/json", `{"kind":"education","lang":"bn"}`, http.StatusNoContent},
		{"open page without kind", http.MethodPost, "/api/v1/pages", "application/json", `{"lang":"en"}`, http.StatusBadRequest},
		{"open page bad lang", http.MethodPost, "/api/v1/pages", "application/json", `{"kind":"children","lang":"fr"}`, http.StatusBadRequest},
		{"page id not uuid", http.MethodGet, "/api/v1/pages/abc", "", "", http.StatusBadRequest},
		{"toggle", http.MethodPost, "/api/v1/pages/" + testPageID + "/selection/toggle", "application/json", `{"id":"r1"}`, http.StatusNoContent},
		{"toggle empty id", http.MethodPost, "/api/v1/pages/" + testPageID + "/selection/toggle", "application/json", `{"id":""}`, http.StatusBadRequest},
		{"delete selection without body", http.MethodPost, "/api/v1/pages/" + testPageID + "/delete", "", "", http.StatusNoContent},
		{"delete ids wrong type", http.MethodPost, "/api/v1/pages/" + testPageID + "/delete", "application/json", `{"ids":"r1"}`, http.StatusBadRequest},
		{"portal outside contract", http.MethodGet, "/portal/children", "", "", http.StatusNoContent},
		{"health outside contract", http.MethodGet, "/health/live", "", "", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body *strings.Reader
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			}
			var req *http.Request
			if body != nil {
				req = httptest.NewRequest(tt.method, tt.path, body)
			} else {
				req = httptest.NewRequest(tt.method, tt.path, nil)
			}
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("статус = %d, хотели %d: %s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}
