package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":        slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseLevel("verbose"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Output: &buf, Component: ComponentBudget})

	logger.Info("saved", FieldCount, 3)
	out := buf.String()
	if !strings.Contains(out, "component=budget") || !strings.Contains(out, "count=3") {
		t.Fatalf("unexpected output: %s", out)
	}

	buf.Reset()
	logger.WithComponent(ComponentHTTP).Debug("hello")
	if !strings.Contains(buf.String(), "component=http") {
		t.Fatalf("component not replaced: %s", buf.String())
	}
}

func TestLoggerJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Format: "json", Output: &buf, Component: ComponentApp})
	logger.Warn("careful")
	if !strings.HasPrefix(buf.String(), "{") || !strings.Contains(buf.String(), `"component":"app"`) {
		t.Fatalf("expected JSON output, got %s", buf.String())
	}
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelWarn, Output: &buf})
	logger.Info("quiet")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn level: %s", buf.String())
	}
}

func TestMiddlewareStoresLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Output: &buf, Component: ComponentHTTP})

	h := Middleware(logger, func(*http.Request) string { return "req-1" })(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		FromContext(r.Context()).Info("inside")
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if !strings.Contains(buf.String(), "request_id=req-1") {
		t.Fatalf("request id missing: %s", buf.String())
	}
}

func TestFromContextFallsBack(t *testing.T) {
	if l := FromContext(context.Background()); l == nil || l.Component() != "unknown" {
		t.Fatalf("unexpected fallback logger %+v", l)
	}
}

func TestStructuredLogger(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Output: &buf}))

	r := httptest.NewRequest(http.MethodPost, "/api/transactions?x=1", nil)
	sl.LogHTTPEnd(context.Background(), r, 503, 12*time.Millisecond, "10.0.0.1")
	out := buf.String()
	if !strings.Contains(out, "level=ERROR") || !strings.Contains(out, "status_code=503") || !strings.Contains(out, "duration_ms=12") {
		t.Fatalf("unexpected output: %s", out)
	}

	buf.Reset()
	sl.LogError(context.Background(), "save failed", errors.New("disk full"), ComponentStorage, OpSave, NewFields().WithMonth("2024-02"))
	out = buf.String()
	if !strings.Contains(out, `error="disk full"`) || !strings.Contains(out, "month_key=2024-02") || !strings.Contains(out, "operation=save") {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestWithTransactionOmitsEmpty(t *testing.T) {
	f := NewFields().WithTransaction("t1", "", "future")
	if _, ok := f[FieldSeriesID]; ok {
		t.Error("empty series id should be omitted")
	}
	if f[FieldTransactionID] != "t1" || f[FieldScope] != "future" {
		t.Errorf("unexpected fields %v", f)
	}
}
