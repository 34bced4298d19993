package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"
)

func TestWithComponent(t *testing.T) {
	log := Logger()
	entry := log.WithComponent("test")
	if v, ok := entry.Entry.Data["component"]; !ok || v != "test" {
		t.Fatalf("component field missing: %v", entry.Entry.Data)
	}
}

func TestWithRun(t *testing.T) {
	log := Logger()
	entry := log.WithRun("run-1").WithComponent("pipeline")
	if entry.Entry.Data["run_id"] != "run-1" || entry.Entry.Data["component"] != "pipeline" {
		t.Fatalf("unexpected fields: %v", entry.Entry.Data)
	}
}

func TestConfigureInvalidLevel(t *testing.T) {
	// Ensure environment variables do not override the provided level
	t.Setenv("LOG_LEVEL", "")

	log := Logger()
	if err := log.Configure("invalid", "json", "stdout", 0); err == nil {
		t.Fatalf("expected error for invalid level")
	}
}

func TestConfigureInvalidFormat(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")

	log := Logger()
	if err := log.Configure("info", "xml", "stdout", 0); err == nil {
		t.Fatalf("expected error for invalid format")
	}
}

func TestWithEnv(t *testing.T) {
	os.Setenv("FOO", "bar")
	defer os.Unsetenv("FOO")
	log := Logger()
	entry := log.WithEnv("FOO")
	if v, ok := entry.Entry.Data["FOO"]; !ok || v != "bar" {
		t.Fatalf("env field not set: %v", entry.Entry.Data)
	}
}

func TestJSONOutputKeys(t *testing.T) {
	var buf bytes.Buffer
	log := Logger()
	log.SetOutput(&buf)

	log.WithComponent("normalizer").WithFields(Fields{"records": 2}).Info("normalized")

	var line map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("output is not JSON: %v (%s)", err, buf.String())
	}
	for _, k := range []string{"timestamp", "level", "message", "component", "records"} {
		if _, ok := line[k]; !ok {
			t.Errorf("missing key %q in %v", k, line)
		}
	}
}

func TestWarnAndErrorAreCounted(t *testing.T) {
	ResetStats()
	var buf bytes.Buffer
	log := Logger()
	log.SetOutput(&buf)

	log.WithComponent("writer").Warn("slow disk")
	log.WithComponent("writer").WithError(errors.New("boom")).Error("write failed")
	log.WithComponent("reader").Warn("empty page")

	stats := Stats()
	if len(stats) != 2 {
		t.Fatalf("expected 2 components, got %+v", stats)
	}
	if stats[0].Component != "reader" || stats[0].Warns != 1 || stats[0].Errors != 0 {
		t.Errorf("unexpected reader stats: %+v", stats[0])
	}
	if stats[1].Component != "writer" || stats[1].Warns != 1 || stats[1].Errors != 1 {
		t.Errorf("unexpected writer stats: %+v", stats[1])
	}

	buf.Reset()
	LogRunReport(context.Background(), log, "run-1", map[string]string{"market": "stock"}, map[string]float64{"records_extracted": 3})
	if !strings.Contains(buf.String(), "run report") {
		t.Errorf("run report not logged: %s", buf.String())
	}
}
