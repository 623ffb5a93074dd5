package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/tailored-agentic-units/hitl/observability"
)

func TestLevel_String(t *testing.T) {
	tests := []struct {
		name  string
		level observability.Level
		want  string
	}{
		{name: "trace range", level: 1, want: "TRACE"},
		{name: "verbose", level: observability.LevelVerbose, want: "DEBUG"},
		{name: "info", level: observability.LevelInfo, want: "INFO"},
		{name: "warning", level: observability.LevelWarning, want: "WARN"},
		{name: "error", level: observability.LevelError, want: "ERROR"},
		{name: "fatal range", level: 21, want: "FATAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.level.String(); got != tt.want {
				t.Errorf("Level(%d).String() = %q, want %q", tt.level, got, tt.want)
			}
		})
	}
}

func TestLevel_Mappings(t *testing.T) {
	tests := []struct {
		level    observability.Level
		wantSlog slog.Level
		wantZap  zapcore.Level
	}{
		{observability.LevelVerbose, slog.LevelDebug, zapcore.DebugLevel},
		{observability.LevelInfo, slog.LevelInfo, zapcore.InfoLevel},
		{observability.LevelWarning, slog.LevelWarn, zapcore.WarnLevel},
		{observability.LevelError, slog.LevelError, zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			if got := tt.level.SlogLevel(); got != tt.wantSlog {
				t.Errorf("SlogLevel() = %v, want %v", got, tt.wantSlog)
			}
			if got := tt.level.ZapLevel(); got != tt.wantZap {
				t.Errorf("ZapLevel() = %v, want %v", got, tt.wantZap)
			}
		})
	}
}

func TestOrNoOp(t *testing.T) {
	if _, ok := observability.OrNoOp(nil).(observability.NoOpObserver); !ok {
		t.Error("OrNoOp(nil) should return NoOpObserver")
	}

	var events []observability.Event
	capture := &captureObserver{events: &events}
	if observability.OrNoOp(capture) != capture {
		t.Error("OrNoOp should return the given observer")
	}
}

func TestMultiObserver(t *testing.T) {
	var events1, events2 []observability.Event

	multi := observability.NewMultiObserver(
		&captureObserver{events: &events1},
		nil,
		&captureObserver{events: &events2},
	)

	multi.OnEvent(context.Background(), observability.NewEvent("test.event", observability.LevelInfo, "test", nil))

	if len(events1) != 1 || len(events2) != 1 {
		t.Fatalf("got %d and %d events, want 1 each", len(events1), len(events2))
	}
	if events1[0].Type != "test.event" {
		t.Errorf("event type = %q, want %q", events1[0].Type, "test.event")
	}
}

func TestSlogObserver(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	obs := observability.NewSlogObserver(logger)

	obs.OnEvent(context.Background(), observability.NewEvent(
		"controller.turn.start", observability.LevelInfo, "controller.RunTurn",
		map[string]any{"thread_id": "1"},
	))
	obs.OnEvent(context.Background(), observability.NewEvent(
		"controller.turn.state", observability.LevelVerbose, "controller.RunTurn", nil,
	))

	output := buf.String()
	for _, want := range []string{"controller.turn.start", "source=controller.RunTurn", "thread_id=1"} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q: %s", want, output)
		}
	}
	if strings.Contains(output, "controller.turn.state") {
		t.Errorf("verbose event logged at info level: %s", output)
	}
}

func TestZapObserver(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	obs := observability.NewZapObserver(zap.New(core))

	obs.OnEvent(context.Background(), observability.NewEvent(
		"checkpoint.save", observability.LevelInfo, "checkpoint.redis",
		map[string]any{"thread_id": "1"},
	))
	obs.OnEvent(context.Background(), observability.NewEvent(
		"checkpoint.load", observability.LevelVerbose, "checkpoint.redis", nil,
	))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].Message != "checkpoint.save" {
		t.Errorf("message = %q, want %q", entries[0].Message, "checkpoint.save")
	}
	fields := entries[0].ContextMap()
	if fields["source"] != "checkpoint.redis" || fields["thread_id"] != "1" {
		t.Errorf("unexpected fields: %v", fields)
	}
}

func TestZapObserver_NilLogger(t *testing.T) {
	obs := observability.NewZapObserver(nil)
	obs.OnEvent(context.Background(), observability.NewEvent("x", observability.LevelError, "test", nil))
}

func TestPrometheusObserver(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs, err := observability.NewPrometheusObserver("hitl", reg)
	if err != nil {
		t.Fatalf("NewPrometheusObserver failed: %v", err)
	}

	ctx := context.Background()
	obs.OnEvent(ctx, observability.NewEvent("controller.interrupt", observability.LevelInfo, "test", nil))
	obs.OnEvent(ctx, observability.NewEvent("controller.interrupt", observability.LevelInfo, "test", nil))
	obs.OnEvent(ctx, observability.NewEvent("controller.turn.failed", observability.LevelWarning, "test", nil))

	count, err := testutil.GatherAndCount(reg, "hitl_events_total")
	if err != nil {
		t.Fatalf("GatherAndCount failed: %v", err)
	}
	if count != 2 {
		t.Errorf("got %d series, want 2", count)
	}

	if _, err := observability.NewPrometheusObserver("hitl", reg); err == nil {
		t.Error("expected duplicate registration error")
	}
}

func TestRegistry(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{name: "noop exists", key: "noop"},
		{name: "slog exists", key: "slog"},
		{name: "unknown fails", key: "nonexistent", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs, err := observability.GetObserver(tt.key)
			if (err != nil) != tt.wantErr {
				t.Errorf("GetObserver(%q) error = %v, wantErr %v", tt.key, err, tt.wantErr)
			}
			if !tt.wantErr && obs == nil {
				t.Errorf("GetObserver(%q) returned nil", tt.key)
			}
		})
	}
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	var events []observability.Event
	observability.RegisterObserver("test-custom", &captureObserver{events: &events})

	obs, err := observability.GetObserver("test-custom")
	if err != nil {
		t.Fatalf("GetObserver failed: %v", err)
	}
	obs.OnEvent(context.Background(), observability.Event{Type: "test.event"})

	if len(events) != 1 {
		t.Errorf("received %d events, want 1", len(events))
	}

	found := false
	for _, name := range observability.ObserverNames() {
		if name == "test-custom" {
			found = true
		}
	}
	if !found {
		t.Error("ObserverNames missing test-custom")
	}
}

type captureObserver struct {
	events *[]observability.Event
}

func (c *captureObserver) OnEvent(_ context.Context, event observability.Event) {
	*c.events = append(*c.events, event)
}
