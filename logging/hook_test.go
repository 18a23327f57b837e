package logging

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func TestIndexHook_ShipsEntries(t *testing.T) {
	var gotIndex string
	var gotDoc map[string]any
	hook := NewIndexHook(func(_ context.Context, index string, doc map[string]any) error {
		gotIndex = index
		gotDoc = doc
		return nil
	}, "app-logs")

	log := logrus.New()
	log.AddHook(hook)
	log.SetOutput(noopWriter{})
	log.WithField("request_id", "r1").Warn("slow query")

	if gotIndex != "app-logs" {
		t.Fatalf("unexpected index: %q", gotIndex)
	}
	if gotDoc["message"] != "slow query" || gotDoc["level"] != "warning" || gotDoc["request_id"] != "r1" {
		t.Fatalf("unexpected document: %v", gotDoc)
	}
	if _, ok := gotDoc["@timestamp"]; !ok {
		t.Fatalf("missing timestamp: %v", gotDoc)
	}
}

func TestIndexHook_DailyRotation(t *testing.T) {
	var gotIndex string
	hook := NewIndexHook(func(_ context.Context, index string, _ map[string]any) error {
		gotIndex = index
		return nil
	}, "app-logs", WithRotateDaily())

	entry := &logrus.Entry{Time: time.Now(), Level: logrus.InfoLevel, Message: "hi"}
	if err := hook.Fire(entry); err != nil {
		t.Fatalf("fire: %v", err)
	}
	want := "app-logs-" + time.Now().Format("2006.01.02")
	if gotIndex != want {
		t.Fatalf("expected %q, got %q", want, gotIndex)
	}
}

func TestIndexHook_DefaultLevelsExcludeDebug(t *testing.T) {
	hook := NewIndexHook(func(context.Context, string, map[string]any) error { return nil }, "app-logs")
	for _, lv := range hook.Levels() {
		if lv == logrus.DebugLevel || lv == logrus.TraceLevel {
			t.Fatalf("debug levels must not fire by default")
		}
	}

	custom := NewIndexHook(func(context.Context, string, map[string]any) error { return nil },
		"app-logs", WithHookLevels(logrus.ErrorLevel))
	if len(custom.Levels()) != 1 || custom.Levels()[0] != logrus.ErrorLevel {
		t.Fatalf("unexpected levels: %v", custom.Levels())
	}
}

func TestIndexHook_SinkErrorWrapped(t *testing.T) {
	sentinel := errors.New("cluster down")
	hook := NewIndexHook(func(context.Context, string, map[string]any) error { return sentinel }, "app-logs")

	err := hook.Fire(&logrus.Entry{Time: time.Now(), Level: logrus.ErrorLevel, Message: "x"})
	if !errors.Is(err, sentinel) {
		t.Fatalf("sink error must be wrapped, got %v", err)
	}
	if !strings.Contains(err.Error(), "failed to index log entry") {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }
