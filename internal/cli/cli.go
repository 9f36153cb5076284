package cli

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"astrocore/internal/config"
	"astrocore/internal/logging"
	"astrocore/pkg/fitsheader"
	"astrocore/pkg/imagedata"
)

// Root carries shared state for the subcommands.
type Root struct {
	cfg *config.Config
	log *slog.Logger
}

// NewRootCmd creates the root Cobra command.
func NewRootCmd(cfg *config.Config, log *slog.Logger) *cobra.Command {
	root := &Root{cfg: cfg, log: log}
	var logLevel string

	rootCmd := &cobra.Command{
		Use:   "astrocore",
		Short: "Astrocore inspects and measures astronomical images",
		Long: `Astrocore reads FITS headers and World Coordinate System solutions,
converts between pixel and sky coordinates, measures star centroids and
summarizes focus and field curvature across a frame.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if logLevel != "" {
				root.log = logging.NewTo(cmd.ErrOrStderr(), logLevel, root.cfg.Logging.Format)
			}
		},
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the configured log level (debug|info|warn|error)")

	rootCmd.AddCommand(newHeaderCmd(root))
	rootCmd.AddCommand(newWCSCmd(root))
	rootCmd.AddCommand(newMeasureCmd(root))
	rootCmd.AddCommand(newTrackCmd(root))
	rootCmd.AddCommand(newFieldCmd(root))
	rootCmd.AddCommand(newFocusCmd(root))
	rootCmd.AddCommand(newConvertCmd(root))
	rootCmd.AddCommand(newWatchCmd(root))
	rootCmd.AddCommand(newConfigCmd(root))

	return rootCmd
}

func isFITS(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".fits", ".fit", ".fts":
		return true
	}
	return false
}

// loadFrame reads pixels from a FITS file or a regular image. Regular images
// come with an empty header.
func (r *Root) loadFrame(path string) (*imagedata.Frame, fitsheader.Header, error) {
	if !isFITS(path) {
		f, err := loadNonFitsImage(path)
		if err != nil {
			return nil, fitsheader.Header{}, err
		}
		return f, fitsheader.FromCards(nil), nil
	}
	var opts []imagedata.Option
	if r.cfg.Images.Debayer {
		opts = append(opts, imagedata.WithDebayer())
	}
	img, err := imagedata.ReadFile(path, opts...)
	if err != nil {
		return nil, fitsheader.Header{}, fmt.Errorf("reading %s: %w", path, err)
	}
	r.log.Debug("frame loaded", "path", path, "width", img.Frame.Width(), "height", img.Frame.Height(), "bitpix", img.BitPix)
	return img.Frame, img.Header, nil
}

func parseFloats(args []string) ([]float64, error) {
	out := make([]float64, len(args))
	for i, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", a)
		}
		out[i] = v
	}
	return out, nil
}

// parseRA accepts degrees, or hours when the text is sexagesimal.
func parseRA(s string) (float64, error) {
	if strings.ContainsAny(s, ":h ") {
		v, ok := fitsheader.ParseSexagesimal(s, 24)
		if !ok {
			return 0, fmt.Errorf("invalid right ascension %q", s)
		}
		return v * 15, nil
	}
	v, ok := fitsheader.ParseSexagesimal(s, 360)
	if !ok {
		return 0, fmt.Errorf("invalid right ascension %q", s)
	}
	return v, nil
}

func parseDec(s string) (float64, error) {
	v, ok := fitsheader.ParseSexagesimal(s, 90)
	if !ok {
		return 0, fmt.Errorf("invalid declination %q", s)
	}
	return v, nil
}

func formatRA(deg float64) string {
	return fitsheader.FormatSexagesimal(deg/15, 2)
}

func formatDec(deg float64) string {
	s := fitsheader.FormatSexagesimal(deg, 1)
	if deg >= 0 {
		s = "+" + s
	}
	return s
}
