package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHeaders(t *testing.T) {
	handler := Headers(APIHeadersConfig())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/month", nil))
	for _, key := range []string{"Content-Security-Policy", "X-Frame-Options", "X-Content-Type-Options", "Cache-Control"} {
		if rec.Header().Get(key) == "" {
			t.Errorf("missing %s", key)
		}
	}
	if rec.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS must only be sent over TLS")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/month", nil)
	req.TLS = &tls.ConnectionState{}
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if got := rec.Header().Get("Strict-Transport-Security"); !strings.Contains(got, "includeSubDomains") {
		t.Errorf("HSTS = %q", got)
	}
}

func TestDetector_Inspect(t *testing.T) {
	d := NewDetector()
	tests := []struct {
		name   string
		method string
		target string
		header http.Header
		want   string
	}{
		{"plain", http.MethodGet, "/api/month?key=2024-03", nil, ""},
		{"traversal", http.MethodGet, "/../../etc/passwd", nil, ReasonPath},
		{"query probe", http.MethodGet, "/api/month?key=<script>", nil, ReasonPath},
		{"scanner", http.MethodGet, "/", http.Header{"User-Agent": {"sqlmap/1.7"}}, ReasonAgent},
		{"curl is fine", http.MethodGet, "/", http.Header{"User-Agent": {"curl/8.0"}}, ""},
		{"trace", "TRACE", "/", nil, ReasonMethod},
		{"long url", http.MethodGet, "/" + strings.Repeat("a", maxURLLength), nil, ReasonLongURL},
		{"hops", http.MethodGet, "/", http.Header{"X-Forwarded-For": {"1.1.1.1,2.2.2.2,3.3.3.3,4.4.4.4,5.5.5.5,6.6.6.6,7.7.7.7"}}, ReasonProxyHops},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, nil)
			for k, v := range tt.header {
				req.Header[k] = v
			}
			if got := d.Inspect(req); got != tt.want {
				t.Errorf("Inspect() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDetector_MiddlewarePassesThrough(t *testing.T) {
	d := NewDetector()
	reached := false
	handler := d.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { reached = true }))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/.env", nil))
	if !reached {
		t.Error("suspicious requests must still reach the handler")
	}
}

func TestDetector_ExtractClientIP(t *testing.T) {
	d := NewDetector()
	tests := []struct {
		name   string
		remote string
		xff    string
		xri    string
		want   string
	}{
		{"direct", "203.0.113.9:4000", "", "", "203.0.113.9"},
		{"untrusted peer ignores xff", "203.0.113.9:4000", "198.51.100.1", "", "203.0.113.9"},
		{"trusted proxy xff", "10.0.0.2:4000", "198.51.100.1, 10.0.0.2", "", "198.51.100.1"},
		{"trusted proxy real ip", "127.0.0.1:4000", "", "198.51.100.7", "198.51.100.7"},
		{"garbage xff", "10.0.0.2:4000", "not-an-ip", "", "10.0.0.2"},
		{"no port", "198.51.100.3", "", "", "198.51.100.3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}
			if got := d.ExtractClientIP(req); got != tt.want {
				t.Errorf("ExtractClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDetector_AddTrustedProxy(t *testing.T) {
	d := NewDetector()
	if err := d.AddTrustedProxy("nope"); err == nil {
		t.Error("expected error for invalid CIDR")
	}
	if err := d.AddTrustedProxy("203.0.113.0/24"); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.9:4000"
	req.Header.Set("X-Forwarded-For", "198.51.100.1")
	if got := d.ExtractClientIP(req); got != "198.51.100.1" {
		t.Errorf("ExtractClientIP() = %q", got)
	}
}
