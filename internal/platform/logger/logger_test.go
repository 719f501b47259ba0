package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"trace":    zerolog.TraceLevel,
		"DEBUG":    zerolog.DebugLevel,
		"warning":  zerolog.WarnLevel,
		" error ":  zerolog.ErrorLevel,
		"":         zerolog.InfoLevel,
		"nonsense": zerolog.InfoLevel,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestBuild_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	l := build(Options{
		Level:        "debug",
		Format:       "json",
		Service:      "ringroster-api",
		Writer:       &buf,
		StaticFields: map[string]string{"region": "eu"},
	})
	l.Debug().Str("k", "v").Msg("hello")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("json line: %v: %s", err, buf.String())
	}
	for k, want := range map[string]string{"service": "ringroster-api", "region": "eu", "k": "v", "message": "hello", "level": "debug"} {
		if line[k] != want {
			t.Fatalf("%s = %v, want %q", k, line[k], want)
		}
	}
}

func TestBuild_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l := build(Options{Level: "warn", Format: "json", Writer: &buf})
	l.Info().Msg("dropped")
	if buf.Len() != 0 {
		t.Fatalf("info line written at warn level: %s", buf.String())
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("LOG_FORMAT", "JSON")
	t.Setenv("LOG_SERVICE", "ringroster-sync")
	t.Setenv("LOG_CALLER", "yes")
	t.Setenv("LOG_SAMPLE_EVERY", "5")

	opt := FromEnv()
	if opt.Level != "warn" || opt.Format != "json" || opt.Service != "ringroster-sync" {
		t.Fatalf("FromEnv = %+v", opt)
	}
	if !opt.WithCaller || opt.SampleEvery != 5 {
		t.Fatalf("FromEnv caller/sample = %+v", opt)
	}
}

// the only test that initializes the root logger
func TestC_AddsRequestFields(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{Level: "debug", Format: "json", Writer: &buf})

	ctx := WithRequest(context.Background(), "req-1", "tenant-a")
	C(ctx).Info().Msg("scoped")
	Named("contacts").Info().Msg("named")

	out := buf.String()
	for _, want := range []string{`"request_id":"req-1"`, `"tenant_id":"tenant-a"`, `"component":"contacts"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %s in %s", want, out)
		}
	}
	if Get() == nil {
		t.Fatalf("Get returned nil")
	}
}

func TestReplace_Restores(t *testing.T) {
	var buf bytes.Buffer
	before := Get()
	restore := Replace(zerolog.New(&buf))
	Get().Info().Msg("swapped")
	restore()
	if Get() != before {
		t.Fatalf("root logger not restored")
	}
	if !strings.Contains(buf.String(), "swapped") {
		t.Fatalf("replacement not used: %q", buf.String())
	}
}
