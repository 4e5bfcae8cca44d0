package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEmbeddedDefaultsLoad(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("loading embedded defaults: %v", err)
	}
	if cfg.World.Width <= 0 || cfg.World.Height <= 0 {
		t.Fatalf("defaults carry bad world size %dx%d", cfg.World.Width, cfg.World.Height)
	}
	if cfg.Derived.CellCount != cfg.World.Width*cfg.World.Height {
		t.Fatalf("cell count %d != %d*%d", cfg.Derived.CellCount, cfg.World.Width, cfg.World.Height)
	}
	if cfg.Derived.RegionsX*cfg.Derived.RegionsY < 2 {
		t.Fatal("defaults must derive at least 2 regions")
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"zero width", "world:\n  width: 0\n"},
		{"negative height", "world:\n  height: -5\n"},
		{"zero tick", "sim:\n  tick_millis: 0\n"},
		{"negative colonies", "sim:\n  initial_colonies: -1\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.yaml")
			if err := os.WriteFile(path, []byte(tc.yaml), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Fatal("expected a validation error")
			}
		})
	}
}

func TestFileOverridesMergeWithDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "override.yaml")
	if err := os.WriteFile(path, []byte("world:\n  width: 64\n  height: 64\nsim:\n  workers: 6\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.World.Width != 64 || cfg.World.Height != 64 {
		t.Fatalf("override ignored: %dx%d", cfg.World.Width, cfg.World.Height)
	}
	if cfg.Sim.TickMillis <= 0 {
		t.Fatal("defaults not merged under override")
	}
	if cfg.Derived.RegionsX*cfg.Derived.RegionsY < 6 {
		t.Fatalf("derived %dx%d regions cannot feed 6 workers",
			cfg.Derived.RegionsX, cfg.Derived.RegionsY)
	}
}

func TestWriteYAMLRoundTrips(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.World.Width = 77
	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatal(err)
	}
	back, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if back.World.Width != 77 {
		t.Fatalf("round trip lost width: %d", back.World.Width)
	}
}
