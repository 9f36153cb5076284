package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"astrocore/pkg/centroid"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	t.Setenv(EnvPath, filepath.Join(t.TempDir(), "absent.json"))
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Logging.Level != "info" || cfg.Centroid.Radius != 8 || len(cfg.Watch.Extensions) != 3 {
		t.Fatalf("defaults %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"logging": {"level": "debug", "format": "json"},
		"centroid": {"radius": 5, "inner_radius": 8, "outer_radius": 14, "estimator": "howell", "plane_background": true},
		"wcs": {"sip_always": true}
	}`)
	t.Setenv(EnvPath, path)
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Logging.Format != "json" || cfg.Centroid.OuterRadius != 14 {
		t.Fatalf("not applied: %+v", cfg)
	}
	// untouched fields keep their defaults
	if !cfg.Centroid.Reposition || cfg.Centroid.MaxIterations != 100 || cfg.Watch.SettleMs != 500 {
		t.Fatalf("defaults lost: %+v", cfg)
	}

	p := cfg.CentroidParams()
	if p.Estimator != centroid.EstimatorHowell || !p.PlaneBackground || p.Radius != 5 {
		t.Fatalf("centroid params %+v", p)
	}
	if len(cfg.WCSOptions()) != 1 {
		t.Fatalf("wcs options %d", len(cfg.WCSOptions()))
	}
	if d := cfg.DetectParams(); d.Sensitivity != 5 || !d.HotpixelFiltering {
		t.Fatalf("detect params %+v", d)
	}
}

func TestLoadRejectsBadFiles(t *testing.T) {
	cases := map[string]string{
		"syntax":    `{"logging": `,
		"unknown":   `{"logginq": {}}`,
		"estimator": `{"centroid": {"estimator": "psf"}}`,
		"annulus":   `{"centroid": {"inner_radius": 10, "outer_radius": 5}}`,
		"negative":  `{"centroid": {"radius": -1}}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadFile(writeConfig(t, body))
			if err == nil || !strings.Contains(err.Error(), "config.json") {
				t.Fatalf("want error naming the file, got %v", err)
			}
		})
	}
}

func TestExpandUser(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	got, _ := expandUser("~/.config/astrocore/config.json")
	if got != filepath.Join(home, ".config/astrocore/config.json") {
		t.Fatalf("got %s", got)
	}
	if got, _ := expandUser("/etc/astrocore.json"); got != "/etc/astrocore.json" {
		t.Fatalf("got %s", got)
	}
}
