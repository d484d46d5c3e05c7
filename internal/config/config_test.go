package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/jmylchreest/labquant/internal/quantize"
	"github.com/jmylchreest/labquant/internal/seed"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() error = %v", err)
	}
	if !reflect.DeepEqual(cfg.QuantizeOptions(), quantize.DefaultOptions()) {
		t.Errorf("QuantizeOptions() = %+v, want %+v", cfg.QuantizeOptions(), quantize.DefaultOptions())
	}

	mode, err := cfg.Mode()
	if err != nil || mode != quantize.ModeKMeans {
		t.Errorf("Mode() = %q, %v; want kmeans", mode, err)
	}

	sc, err := cfg.SeedConfig()
	if err != nil {
		t.Fatalf("SeedConfig() error = %v", err)
	}
	if sc.Mode != seed.ModeManual || sc.Value == nil || *sc.Value != seed.DefaultValue {
		t.Errorf("SeedConfig() = %+v, want manual %d", sc, seed.DefaultValue)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if !reflect.DeepEqual(cfg, DefaultConfig()) {
		t.Errorf("LoadConfig() = %+v, want defaults", cfg)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", FileName)

	cfg := DefaultConfig()
	cfg.Quantize.Mode = "meanshift"
	cfg.Quantize.KMax = 6
	cfg.MeanShift.Bandwidth = 7.5
	cfg.MeanShift.BinSeeding = false
	cfg.Seed.Mode = "content"
	cfg.Output.Palette = "json"
	cfg.Server.Timeout = 45 * time.Second

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig() error = %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if !reflect.DeepEqual(loaded, cfg) {
		t.Errorf("round trip mismatch:\ngot  %+v\nwant %+v", loaded, cfg)
	}
}

func TestLoadConfigPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	data := "quantize:\n  kMax: 5\nserver:\n  addr: \"127.0.0.1:9000\"\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Quantize.KMax != 5 {
		t.Errorf("KMax = %d, want 5", cfg.Quantize.KMax)
	}
	if cfg.Server.Addr != "127.0.0.1:9000" {
		t.Errorf("Addr = %q, want 127.0.0.1:9000", cfg.Server.Addr)
	}

	def := DefaultConfig()
	if cfg.Quantize.KMin != def.Quantize.KMin || cfg.MeanShift.Quantile != def.MeanShift.Quantile {
		t.Error("keys missing from the file should keep their defaults")
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{name: "malformed yaml", data: "quantize: [", wantErr: "failed to parse"},
		{name: "bad mode", data: "quantize:\n  mode: median\n", wantErr: "unknown clustering mode"},
		{name: "bad k range", data: "quantize:\n  kMin: 6\n  kMax: 3\n", wantErr: "below minimum"},
		{name: "bad seed mode", data: "seed:\n  mode: dice\n", wantErr: "invalid seed mode"},
		{name: "bad palette", data: "output:\n  palette: xml\n", wantErr: "invalid palette format"},
		{name: "bad quality", data: "output:\n  quality: 0\n", wantErr: "quality"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), FileName)
			if err := os.WriteFile(path, []byte(tt.data), 0o600); err != nil {
				t.Fatal(err)
			}
			_, err := LoadConfig(path)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("LoadConfig() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestCreateDefaultConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)

	if err := CreateDefaultConfigFile(path, false); err != nil {
		t.Fatalf("CreateDefaultConfigFile() error = %v", err)
	}
	if err := CreateDefaultConfigFile(path, false); err == nil {
		t.Error("CreateDefaultConfigFile() should refuse to overwrite without force")
	}
	if err := CreateDefaultConfigFile(path, true); err != nil {
		t.Errorf("CreateDefaultConfigFile(force) error = %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if !reflect.DeepEqual(cfg, DefaultConfig()) {
		t.Error("written default config does not load back as defaults")
	}
}
