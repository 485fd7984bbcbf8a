package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rdtrace.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Trace.Algorithm != "Olken" || !cfg.Trace.AssignBases || !cfg.Trace.EventLogs {
		t.Errorf("unexpected defaults %+v", cfg.Trace)
	}
	if !cfg.Ingest.Header {
		t.Errorf("ingestion should expect a header row by default")
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
trace:
  algorithm: "Scale,0.5,64"
  strict: true
  kernel: stencil
  size: 32
output:
  store: /tmp/rd.db
log:
  level: debug
  pretty: false
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Trace.Algorithm != "Scale,0.5,64" || !cfg.Trace.Strict {
		t.Errorf("unexpected trace config %+v", cfg.Trace)
	}
	if cfg.Trace.Kernel != "stencil" || cfg.Trace.Size != 32 {
		t.Errorf("unexpected kernel %q size %d", cfg.Trace.Kernel, cfg.Trace.Size)
	}
	if !cfg.Trace.AssignBases {
		t.Errorf("fields absent from the file should keep their defaults")
	}
	if cfg.Output.Store != "/tmp/rd.db" || cfg.Log.Level != "debug" || cfg.Log.Pretty {
		t.Errorf("unexpected output/log config %+v %+v", cfg.Output, cfg.Log)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("RDTRACE_ALGORITHM", "Stack")
	t.Setenv("RDTRACE_SIZE", "8")
	t.Setenv("RDTRACE_STRICT", "true")
	t.Setenv("RDTRACE_METRICS", "1")

	path := writeConfig(t, "trace:\n  algorithm: Vec\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Trace.Algorithm != "Stack" {
		t.Errorf("expected env to override algorithm, got %q", cfg.Trace.Algorithm)
	}
	if cfg.Trace.Size != 8 || !cfg.Trace.Strict || !cfg.Metrics.Enabled {
		t.Errorf("unexpected overrides %+v %+v", cfg.Trace, cfg.Metrics)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty algorithm", "trace:\n  algorithm: \",1\"\n"},
		{"zero size", "trace:\n  size: 0\n"},
		{"bad yaml", "trace: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.body)); err == nil {
				t.Errorf("expected error")
			}
		})
	}
}

func TestMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Errorf("expected error for missing file")
	}
}
