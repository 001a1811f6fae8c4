package internal

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	pkgconfig "github.com/starford/failbook/pkg/config"
)

func TestDefaultConfig_RequiresBaseDir(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err == nil {
		t.Fatal("default config without base dir should fail validation")
	}
	cfg.Scan.BaseDir = "/tmp/bench"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config with base dir should pass: %v", err)
	}
}

func TestDefaultConfig_Values(t *testing.T) {
	cfg := NewDefaultConfig()
	if cfg.App.HTTP.Address() != "0.0.0.0:9999" {
		t.Errorf("address = %q", cfg.App.HTTP.Address())
	}
	if cfg.Scan.ResultsFile != ".aider.results.json" || cfg.Scan.TranscriptFile != ".aider.chat.history.md" {
		t.Errorf("scan = %+v", cfg.Scan)
	}
	out := cfg.Output.Outputs()
	if out.Combined != "combined_chat_history.md" || out.Cleaned != "cleaned_chat_history.md" || out.HTML != "combined_chat_history.html" {
		t.Errorf("outputs = %+v", out)
	}
}

func TestHTTPConfig_InvalidPort(t *testing.T) {
	for _, port := range []int{0, -1, 70000} {
		cfg := HTTPConfig{Port: port}
		if err := cfg.Validate(); err == nil {
			t.Errorf("port %d should fail validation", port)
		}
	}
}

func TestOutputConfig_DistinctNames(t *testing.T) {
	cfg := NewDefaultConfig().Output
	cfg.Cleaned = cfg.Combined
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "distinct") {
		t.Errorf("err = %v, want distinct-names error", err)
	}
}

func TestScanConfig_EmptyArtifactName(t *testing.T) {
	cfg := ScanConfig{BaseDir: "/x", ResultsFile: "", TranscriptFile: "t.md"}
	if err := cfg.Validate(); err == nil {
		t.Error("empty results file should fail validation")
	}
}

func TestConfigFile_OverridesDefaults(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.yaml")
	content := "app:\n  log_level: debug\n  http:\n    port: 8081\nscan:\n  base_dir: /data/bench\noutput:\n  title: Nightly\n"
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	if err := pkgconfig.Decode(p, cfg); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if err := pkgconfig.Validate(cfg); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.App.LogLevel != slog.LevelDebug {
		t.Errorf("log level = %v", cfg.App.LogLevel)
	}
	if cfg.App.HTTP.Port != 8081 || cfg.Scan.BaseDir != "/data/bench" || cfg.Output.Title != "Nightly" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Scan.ResultsFile != ".aider.results.json" {
		t.Errorf("unset fields should keep defaults, got %q", cfg.Scan.ResultsFile)
	}
}
