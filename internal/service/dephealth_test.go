// dephealth_test.go — unit-тесты для вычисления путей health check.
package service

import "testing"

func TestHealthPath(t *testing.T) {
	tests := []struct {
		name   string
		rawURL string
		suffix string
		want   string
	}{
		{
			name:   "storage API с префиксом",
			rawURL: "https://project.supabase.co/storage/v1",
			suffix: "/status",
			want:   "/storage/v1/status",
		},
		{
			name:   "storage API с trailing slash",
			rawURL: "https://storage.example.gov.bd/storage/v1/",
			suffix: "/status",
			want:   "/storage/v1/status",
		},
		{
			name:   "JWKS — путь самого документа",
			rawURL: "https://auth.example.gov.bd/.well-known/jwks.json",
			suffix: "",
			want:   "/.well-known/jwks.json",
		},
		{
			name:   "без пути",
			rawURL: "https://auth.example.gov.bd",
			suffix: "",
			want:   "/health",
		},
		{
			name:   "некорректный URL",
			rawURL: "://bad",
			suffix: "/status",
			want:   "/health",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := healthPath(tt.rawURL, tt.suffix); got != tt.want {
				t.Errorf("healthPath(%q, %q) = %q, хотели %q", tt.rawURL, tt.suffix, got, tt.want)
			}
		})
	}
}
