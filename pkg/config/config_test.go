package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if cfg.Dispatch.Quiet != 300*time.Millisecond {
		t.Fatalf("unexpected default quiet %s", cfg.Dispatch.Quiet)
	}
}

func TestParseOverlaysDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
collector:
  prefix: soal_selidik
dispatch:
  quiet: 500ms
transport:
  kind: phoenix
  phoenix:
    url: ws://localhost:4000/live
    topic: lv:phx-abc
export:
  tokens:
    header_fill: "#1f2937"
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.Dispatch.Quiet != 500*time.Millisecond || cfg.Dispatch.Event != "autosave" {
		t.Fatalf("unexpected dispatch %+v", cfg.Dispatch)
	}
	if cfg.Transport.Phoenix.Heartbeat != 30*time.Second {
		t.Fatalf("expected default heartbeat kept, got %s", cfg.Transport.Phoenix.Heartbeat)
	}
	if cfg.Export.Tokens["header_fill"] != "#1f2937" {
		t.Fatalf("tokens not decoded: %v", cfg.Export.Tokens)
	}
}

func TestValidateCollectsErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Dispatch.Quiet = 0
	cfg.Transport.Kind = "carrier-pigeon"
	cfg.Guard.Bindings = map[string]string{"autosave": "saveForm"}
	cfg.Collector.Prefix = "soal["

	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, want := range []string{"collector.prefix", "dispatch.quiet", "transport.kind", "guard.document"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q missing %q", err, want)
		}
	}

	cfg = DefaultConfig()
	cfg.Transport.Kind = TransportNATS
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "transport.nats.url") {
		t.Fatalf("expected nats url error, got %v", err)
	}
}

func TestMerge(t *testing.T) {
	base := DefaultConfig()
	base.Export.Tokens = map[string]string{"header_fill": "#000000", "font": "Helvetica"}

	base.Merge(&Config{
		Collector: CollectorConfig{Prefix: "soal_selidik"},
		Transport: TransportConfig{Kind: TransportNATS, NATS: NATSConfig{URL: "nats://127.0.0.1:4222"}},
		Export:    ExportConfig{Tokens: map[string]string{"header_fill": "#ffffff"}},
	})

	if base.Collector.Prefix != "soal_selidik" || base.Transport.Kind != TransportNATS {
		t.Fatalf("merge did not apply: %+v", base)
	}
	if base.Dispatch.Quiet != 300*time.Millisecond {
		t.Fatalf("zero values must not override")
	}
	want := map[string]string{"header_fill": "#ffffff", "font": "Helvetica"}
	if diff := cmp.Diff(want, base.Export.Tokens); diff != "" {
		t.Fatalf("tokens mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveLoadAndFind(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	cfg := DefaultConfig()
	cfg.Collector.Prefix = "soal_selidik"
	path := filepath.Join(dir, FileName)
	if err := cfg.SaveToFile(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(cfg, loaded); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
	if got := Find(nested); got != path {
		t.Fatalf("expected Find to locate %s, got %s", path, got)
	}
}
