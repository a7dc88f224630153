package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// resolvedAddr runs one request through TrustedRealIP and returns the
// RemoteAddr the inner handler observed.
func resolvedAddr(t *testing.T, trusted []string, remoteAddr string, headers map[string]string) string {
	t.Helper()

	var seen string
	h := TrustedRealIP(trusted)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.RemoteAddr
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = remoteAddr
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	h.ServeHTTP(httptest.NewRecorder(), req)
	return seen
}

func TestTrustedRealIP(t *testing.T) {
	tests := []struct {
		name       string
		trusted    []string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			name:       "trusted proxy honors X-Real-IP",
			trusted:    []string{"10.0.0.0/8"},
			remoteAddr: "10.1.2.3:4567",
			headers:    map[string]string{"X-Real-IP": "203.0.113.9"},
			want:       "203.0.113.9",
		},
		{
			name:       "trusted proxy takes first forwarded hop",
			trusted:    []string{"10.0.0.0/8"},
			remoteAddr: "10.1.2.3:4567",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.9, 10.1.2.3"},
			want:       "203.0.113.9",
		},
		{
			name:       "untrusted connection keeps its address",
			trusted:    []string{"10.0.0.0/8"},
			remoteAddr: "198.51.100.7:9999",
			headers:    map[string]string{"X-Real-IP": "203.0.113.9"},
			want:       "198.51.100.7:9999",
		},
		{
			name:       "no trusted proxies configured",
			trusted:    nil,
			remoteAddr: "10.1.2.3:4567",
			headers:    map[string]string{"X-Real-IP": "203.0.113.9"},
			want:       "10.1.2.3:4567",
		},
		{
			name:       "bare IP entry is accepted as a trusted proxy",
			trusted:    []string{"127.0.0.1"},
			remoteAddr: "127.0.0.1:1234",
			headers:    map[string]string{"X-Real-IP": "203.0.113.9"},
			want:       "203.0.113.9",
		},
		{
			name:       "invalid header value is ignored",
			trusted:    []string{"10.0.0.0/8"},
			remoteAddr: "10.1.2.3:4567",
			headers:    map[string]string{"X-Real-IP": "not-an-ip"},
			want:       "10.1.2.3:4567",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := resolvedAddr(t, tc.trusted, tc.remoteAddr, tc.headers); got != tc.want {
				t.Errorf("RemoteAddr = %q, want %q", got, tc.want)
			}
		})
	}
}
