package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"astrocore/pkg/centroid"
	"astrocore/pkg/detect"
	"astrocore/pkg/wcs"
)

const (
	defaultConfigPath = "~/.config/astrocore/config.json"
	// EnvPath names the environment variable that overrides the config path.
	EnvPath = "ASTROCORE_CONFIG"
)

// Config holds user-editable settings for the command line tools.
type Config struct {
	Logging  Logging  `json:"logging"`
	Images   Images   `json:"images"`
	Centroid Centroid `json:"centroid"`
	Detect   Detect   `json:"detect"`
	WCS      WCS      `json:"wcs"`
	Watch    Watch    `json:"watch"`
}

// Logging controls logging verbosity and format.
type Logging struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // text, json
}

// Images controls how frames are loaded.
type Images struct {
	Debayer bool `json:"debayer"` // interpolate colour mosaics (BAYERPAT) into luminance
}

// Centroid holds aperture defaults. A zero radius lets field measurements
// pick the aperture from the stars.
type Centroid struct {
	Radius                float64 `json:"radius"`
	InnerRadius           float64 `json:"inner_radius"`
	OuterRadius           float64 `json:"outer_radius"`
	Estimator             string  `json:"estimator"` // moment, howell
	Reposition            bool    `json:"reposition"`
	PlaneBackground       bool    `json:"plane_background"`
	RemoveBackgroundStars bool    `json:"remove_background_stars"`
	MaxIterations         int     `json:"max_iterations"`
	Tolerance             float64 `json:"tolerance"`
}

// Detect configures star detection.
type Detect struct {
	HotpixelFiltering    bool    `json:"hotpixel_filtering"`
	NoiseReductionRadius int     `json:"noise_reduction_radius"`
	Sensitivity          float64 `json:"sensitivity"`
	MinSeparation        float64 `json:"min_separation"`
	Border               int     `json:"border"`
	Saturation           float64 `json:"saturation"`
	MaxStars             int     `json:"max_stars"`
}

// WCS selects model construction options.
type WCS struct {
	ZeroInverseFallback bool `json:"zero_inverse_fallback"`
	SIPAlways           bool `json:"sip_always"`
}

// Watch configures directory monitoring.
type Watch struct {
	Extensions []string `json:"extensions"`
	SettleMs   int      `json:"settle_ms"` // quiet period before a new file is read
}

// Load reads configuration from disk, falling back to defaults when the file
// does not exist.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvPath)
	if configPath == "" {
		configPath = defaultConfigPath
	}
	expanded, err := expandUser(configPath)
	if err != nil {
		return nil, err
	}
	return LoadFile(expanded)
}

// LoadFile reads configuration from path over the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Default returns the built-in settings.
func Default() *Config {
	d := detect.DefaultParams()
	return &Config{
		Logging: Logging{Level: "info", Format: "text"},
		Centroid: Centroid{
			Radius:                8,
			InnerRadius:           12,
			OuterRadius:           20,
			Estimator:             "moment",
			Reposition:            true,
			RemoveBackgroundStars: true,
			MaxIterations:         100,
			Tolerance:             0.01,
		},
		Detect: Detect{
			HotpixelFiltering:    d.HotpixelFiltering,
			NoiseReductionRadius: d.NoiseReductionRadius,
			Sensitivity:          d.Sensitivity,
			MinSeparation:        d.MinSeparation,
			Border:               d.Border,
		},
		Watch: Watch{
			Extensions: []string{".fits", ".fit", ".fts"},
			SettleMs:   500,
		},
	}
}

// Validate reports the first inconsistent setting.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Centroid.Estimator) {
	case "", "moment", "howell":
	default:
		return fmt.Errorf("centroid.estimator %q: want moment or howell", c.Centroid.Estimator)
	}
	if c.Centroid.Radius < 0 || c.Centroid.InnerRadius < 0 || c.Centroid.OuterRadius < 0 {
		return errors.New("centroid radii must not be negative")
	}
	if c.Centroid.OuterRadius > 0 && c.Centroid.OuterRadius < c.Centroid.InnerRadius {
		return errors.New("centroid.outer_radius is smaller than inner_radius")
	}
	if c.Detect.NoiseReductionRadius < 0 || c.Detect.Sensitivity <= 0 {
		return errors.New("detect.noise_reduction_radius must be >= 0 and detect.sensitivity > 0")
	}
	return nil
}

// CentroidParams converts the centroid section.
func (c *Config) CentroidParams() centroid.Params {
	p := centroid.Params{
		Radius:                c.Centroid.Radius,
		InnerRadius:           c.Centroid.InnerRadius,
		OuterRadius:           c.Centroid.OuterRadius,
		Reposition:            c.Centroid.Reposition,
		PlaneBackground:       c.Centroid.PlaneBackground,
		RemoveBackgroundStars: c.Centroid.RemoveBackgroundStars,
		MaxIterations:         c.Centroid.MaxIterations,
		Tolerance:             c.Centroid.Tolerance,
	}
	if strings.EqualFold(c.Centroid.Estimator, "howell") {
		p.Estimator = centroid.EstimatorHowell
	}
	return p
}

// DetectParams converts the detect section.
func (c *Config) DetectParams() detect.Params {
	p := detect.DefaultParams()
	p.HotpixelFiltering = c.Detect.HotpixelFiltering
	p.NoiseReductionRadius = c.Detect.NoiseReductionRadius
	p.Sensitivity = c.Detect.Sensitivity
	p.MinSeparation = c.Detect.MinSeparation
	p.Border = c.Detect.Border
	p.SaturationThreshold = c.Detect.Saturation
	p.MaxStars = c.Detect.MaxStars
	return p
}

// WCSOptions converts the wcs section.
func (c *Config) WCSOptions() []wcs.Option {
	var opts []wcs.Option
	if c.WCS.ZeroInverseFallback {
		opts = append(opts, wcs.WithZeroInverseFallback())
	}
	if c.WCS.SIPAlways {
		opts = append(opts, wcs.WithSIPAlways())
	}
	return opts
}

func expandUser(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	if path == "~" {
		return home, nil
	}

	return filepath.Join(home, path[2:]), nil
}
