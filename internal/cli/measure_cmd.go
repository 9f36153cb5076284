package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"astrocore/pkg/centroid"
	"astrocore/pkg/fitsheader"
	"astrocore/pkg/imagedata"
	"astrocore/pkg/wcs"
)

// apertureFlags overrides the configured aperture on a command.
type apertureFlags struct {
	radius, inner, outer float64
	howell, plane        bool
	fixed                bool
}

func (a *apertureFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64VarP(&a.radius, "radius", "r", 0, "aperture radius in pixels (default from config)")
	cmd.Flags().Float64Var(&a.inner, "inner", 0, "inner background radius")
	cmd.Flags().Float64Var(&a.outer, "outer", 0, "outer background radius")
	cmd.Flags().BoolVar(&a.howell, "howell", false, "use marginal sums for repositioning")
	cmd.Flags().BoolVar(&a.plane, "plane", false, "fit a sloped background plane")
	cmd.Flags().BoolVar(&a.fixed, "fixed", false, "measure at the given position without repositioning")
}

func (a *apertureFlags) params(base centroid.Params) centroid.Params {
	p := base
	if a.radius > 0 {
		p.Radius = a.radius
	}
	if a.inner > 0 {
		p.InnerRadius = a.inner
	}
	if a.outer > 0 {
		p.OuterRadius = a.outer
	}
	if a.howell {
		p.Estimator = centroid.EstimatorHowell
	}
	if a.plane {
		p.PlaneBackground = true
	}
	if a.fixed {
		p.Reposition = false
	}
	return p
}

func newMeasureCmd(root *Root) *cobra.Command {
	var (
		ap       apertureFlags
		annotate string
	)
	cmd := &cobra.Command{
		Use:   "measure <file> <x> <y>",
		Short: "Centroid a star and report its shape",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			xy, err := parseFloats(args[1:])
			if err != nil {
				return err
			}
			frame, h, err := root.loadFrame(args[0])
			if err != nil {
				return err
			}
			p := ap.params(root.cfg.CentroidParams())
			if p.Radius <= 0 {
				return errors.New("measure needs an aperture radius")
			}
			res, err := centroid.Measure(frame, xy[0], xy[1], &p)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printMeasurement(out, res)

			m := wcs.New(h, frame.Width(), frame.Height(), root.cfg.WCSOptions()...)
			if ra, dec, ok := m.PixelToSky(res.X, res.Y); ok {
				fmt.Fprintf(out, "RA/Dec:       %s %s\n", formatRA(ra), formatDec(dec))
				if m.HasScale() {
					fmt.Fprintf(out, "FWHM arcsec:  %.2f\n", res.FWHM*(m.XScaleArcSec()+m.YScaleArcSec())/2)
				}
			}

			if annotate != "" {
				if !isFITS(args[0]) {
					return errors.New("annotations can only be written to FITS files")
				}
				a := fitsheader.Annotation{X: res.X, Y: res.Y, Radius: p.Radius, ShowCircle: true, Label: annotate}
				return root.editHeader(args[0], func(h fitsheader.Header) (fitsheader.Header, error) {
					return h.UpsertAnnotation(a), nil
				})
			}
			return nil
		},
	}
	ap.register(cmd)
	cmd.Flags().StringVar(&annotate, "annotate", "", "write an ANNOTATE card with this label at the measured position")
	return cmd
}

func printMeasurement(out io.Writer, r *centroid.Result) {
	fmt.Fprintf(out, "Position:     %.2f %.2f\n", r.X, r.Y)
	fmt.Fprintf(out, "Converged:    %t (%d iterations)\n", r.Converged, r.Iterations)
	bg := "annulus mean"
	if r.Plane {
		bg = "plane"
	}
	fmt.Fprintf(out, "Background:   %.2f (%s, %d px)\n", r.Background, bg, r.BackgroundSamples)
	fmt.Fprintf(out, "Peak:         %.2f\n", r.Peak)
	fmt.Fprintf(out, "Flux:         %.1f\n", r.Flux)
	fmt.Fprintf(out, "FWHM:         %.2f (x %.2f, y %.2f)\n", r.FWHM, r.WidthX, r.WidthY)
	fmt.Fprintf(out, "Eccentricity: %.3f at %.1f deg\n", r.Eccentricity, r.Orientation)
}

func newTrackCmd(root *Root) *cobra.Command {
	var (
		ap   apertureFlags
		x, y float64
	)
	cmd := &cobra.Command{
		Use:   "track <file>...",
		Short: "Follow one star through a sequence of frames",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := ap.params(root.cfg.CentroidParams())
			if p.Radius <= 0 {
				return errors.New("track needs an aperture radius")
			}
			frames := make([]centroid.PixelSource, len(args))
			for i, path := range args {
				f, _, err := root.loadFrame(path)
				if err != nil {
					return err
				}
				frames[i] = f
			}
			out := cmd.OutOrStdout()
			for i, m := range centroid.Track(frames, x, y, &p) {
				if m.Err != nil {
					fmt.Fprintf(out, "%s\tlost: %v\n", args[i], m.Err)
					continue
				}
				fmt.Fprintf(out, "%s\t%.2f\t%.2f\t%.2f\t%.1f\n", args[i], m.Result.X, m.Result.Y, m.Result.FWHM, m.Result.Flux)
			}
			return nil
		},
	}
	ap.register(cmd)
	cmd.Flags().Float64VarP(&x, "x", "x", 0, "starting x position")
	cmd.Flags().Float64VarP(&y, "y", "y", 0, "starting y position")
	cmd.MarkFlagRequired("x")
	cmd.MarkFlagRequired("y")
	return cmd
}

var _ centroid.PixelSource = (*imagedata.Frame)(nil)
