package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"astrocore/pkg/field"
	"astrocore/pkg/fitsheader"
	"astrocore/pkg/lsq"
)

// focuserKeys are the focuser position keywords written by common capture
// programs.
var focuserKeys = []string{"FOCUSPOS", "FOCPOS", "FOCUS"}

// analyze measures every detected star of a file and summarizes the field.
func (r *Root) analyze(ctx context.Context, path string, radius float64) (*field.Analysis, fitsheader.Header, int, int, error) {
	frame, h, err := r.loadFrame(path)
	if err != nil {
		return nil, h, 0, 0, err
	}
	p := r.cfg.CentroidParams()
	p.Radius = radius
	if radius > 0 {
		p.InnerRadius, p.OuterRadius = 2*radius, 3*radius
	}
	stars, found, err := field.Measure(ctx, frame, r.cfg.DetectParams(), p)
	if err != nil {
		return nil, h, 0, 0, err
	}
	r.log.Debug("stars measured", "path", path, "candidates", len(found.Candidates), "measured", len(stars),
		"background", found.Noise.BackgroundMean, "noise", found.Noise.Sigma)
	a := field.Analyze(stars, frame.Width(), frame.Height())
	if a == nil {
		return nil, h, 0, 0, fmt.Errorf("%s: no stars found", path)
	}
	return a, h, frame.Width(), frame.Height(), nil
}

func newFieldCmd(root *Root) *cobra.Command {
	var (
		overlay string
		radius  float64
	)
	cmd := &cobra.Command{
		Use:   "field <file>",
		Short: "Report FWHM across a 3x3 grid with tilt and off-axis figures",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, w, h, err := root.analyze(cmd.Context(), args[0], radius)
			if err != nil {
				return err
			}
			printField(cmd.OutOrStdout(), a)
			if overlay != "" {
				if err := field.WriteOverlayFile(overlay, a, w, h); err != nil {
					return err
				}
				root.log.Info("overlay written", "path", overlay)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&overlay, "overlay", "o", "", "write a JPEG zone map to this path")
	cmd.Flags().Float64VarP(&radius, "radius", "r", 0, "aperture radius in pixels (0 picks it from the stars)")
	return cmd
}

func printField(out io.Writer, a *field.Analysis) {
	fmt.Fprintf(out, "Stars:        %d\n", a.Stars)
	fmt.Fprintf(out, "FWHM median:  %.3f px\n", a.MedianFWHM)
	for i, z := range field.Zones {
		s := a.Zones[z]
		fmt.Fprintf(out, "  %-7s FWHM=%.3f  ecc=%.3f  n=%d\n", s.Label, s.MedianFWHM, s.MedianEccentricity, s.StarCount)
		if (i+1)%3 == 0 && i < len(field.Zones)-1 {
			fmt.Fprintln(out, "  ---")
		}
	}
	fmt.Fprintf(out, "Tilt:         %.1f%% (best: %s, worst: %s)\n", a.TiltPct, a.BestCorner, a.WorstCorner)
	fmt.Fprintf(out, "Off-axis:     %.1f%%\n", a.OffAxisPct)
	if !a.Reliable {
		fmt.Fprintln(out, "[LOW STAR COUNT - UNRELIABLE]")
	}
}

func newFocusCmd(root *Root) *cobra.Command {
	var (
		key    string
		radius float64
	)
	cmd := &cobra.Command{
		Use:   "focus <file.fits>...",
		Short: "Fit a V-curve to median FWHM against focuser position",
		Long: `Focus measures the median star FWHM of each frame, reads the focuser
position from the header and fits a parabola through the points. At least
three frames at distinct positions are needed.`,
		Args: cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			keys := focuserKeys
			if key != "" {
				keys = []string{key}
			}
			out := cmd.OutOrStdout()
			var positions, widths []float64
			for _, path := range args {
				a, h, _, _, err := root.analyze(cmd.Context(), path, radius)
				if err != nil {
					return err
				}
				pos, ok := focuserPosition(h, keys)
				if !ok {
					return fmt.Errorf("%s: no focuser position in %v", path, keys)
				}
				positions = append(positions, pos)
				widths = append(widths, a.MedianFWHM)
				fmt.Fprintf(out, "%s\t%g\t%.3f\t%d\n", path, pos, a.MedianFWHM, a.Stars)
			}
			fit, err := lsq.FitFocusCurve(positions, widths)
			if errors.Is(err, lsq.ErrNoMinimum) {
				return errors.New("FWHM does not reach a minimum within the sampled range")
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "best focus %.1f, FWHM %.3f px (chi2 %.4f)\n", fit.Best, fit.MinWidth, fit.ChiSquare)
			return nil
		},
	}
	cmd.Flags().StringVarP(&key, "key", "k", "", "focuser position keyword (default FOCUSPOS, FOCPOS, FOCUS)")
	cmd.Flags().Float64VarP(&radius, "radius", "r", 0, "aperture radius in pixels (0 picks it from the stars)")
	return cmd
}

func focuserPosition(h fitsheader.Header, keys []string) (float64, bool) {
	for _, k := range keys {
		if v, ok := h.Float(k); ok {
			return v, true
		}
	}
	return 0, false
}
