package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"astrocore/internal/logging"
	"astrocore/pkg/imagedata"
	"astrocore/pkg/precession"
	"astrocore/pkg/sphere"
	"astrocore/pkg/wcs"
)

func newWCSCmd(root *Root) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wcs",
		Short: "Inspect and apply World Coordinate System solutions",
	}
	cmd.AddCommand(newWCSInfoCmd(root))
	cmd.AddCommand(newPixToSkyCmd(root))
	cmd.AddCommand(newSkyToPixCmd(root))
	cmd.AddCommand(newWCSRepairCmd(root))
	return cmd
}

// model builds the WCS model of a FITS file from its header alone.
func (r *Root) model(path string) (*wcs.Model, error) {
	h, err := imagedata.ReadHeaderFile(path)
	if err != nil {
		return nil, err
	}
	m := wcs.New(h, 0, 0, r.cfg.WCSOptions()...)
	logging.LogDiagnostics(r.log, path, m.Diagnostics())
	if !m.HasWCS() {
		return m, fmt.Errorf("%s: %w", path, m.Err())
	}
	return m, nil
}

func newWCSInfoCmd(root *Root) *cobra.Command {
	return &cobra.Command{
		Use:   "info <file.fits>",
		Short: "Summarize the WCS solution of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := root.model(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			c1, c2 := m.CType()
			fmt.Fprintf(out, "Axes:        %s %s (%s)\n", c1, c2, m.Projection())
			fmt.Fprintf(out, "Image:       %d x %d\n", m.Width(), m.Height())
			x, y := m.CRPix()
			fmt.Fprintf(out, "CRPIX:       %.3f %.3f\n", x, y)
			if m.HasRaDec() {
				ra, dec := m.CRVal()
				fmt.Fprintf(out, "CRVAL:       %s %s\n", formatRA(ra), formatDec(dec))
			}
			fmt.Fprintf(out, "Transform:   %s", m.MatrixSource())
			if m.SIP() {
				fmt.Fprint(out, " + SIP")
			}
			fmt.Fprintln(out)
			fmt.Fprintf(out, "Epoch:       %g\n", m.Epoch())
			if m.HasScale() {
				fmt.Fprintf(out, "Scale:       %.3f x %.3f arcsec/px\n", m.XScaleArcSec(), m.YScaleArcSec())
				fmt.Fprintf(out, "North PA:    %.2f deg\n", m.NorthPA())
				fmt.Fprintf(out, "East PA:     %.2f deg\n", m.EastPA())
			}

			w, h := float64(m.Width()), float64(m.Height())
			if ra, dec, ok := m.PixelToSky(w/2, h/2); ok {
				fmt.Fprintf(out, "Center:      %s %s\n", formatRA(ra), formatDec(dec))
			}
			ra0, dec0, ok0 := m.PixelToSky(0, 0)
			ra1, dec1, ok1 := m.PixelToSky(w, h)
			if ok0 && ok1 {
				fmt.Fprintf(out, "Diagonal:    %.3f deg\n", sphere.Separation(ra0, dec0, ra1, dec1))
			}
			return nil
		},
	}
}

func newPixToSkyCmd(root *Root) *cobra.Command {
	var epoch float64
	cmd := &cobra.Command{
		Use:   "pix2sky <file.fits> <x> <y>",
		Short: "Convert a pixel position to RA/Dec",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			xy, err := parseFloats(args[1:])
			if err != nil {
				return err
			}
			m, err := root.model(args[0])
			if err != nil {
				return err
			}
			ra, dec, ok := m.PixelToSky(xy[0], xy[1])
			if !ok {
				return fmt.Errorf("pixel %g,%g has no sky position", xy[0], xy[1])
			}
			if epoch != precession.J2000 {
				ra, dec = precession.FromJ2000(ra, dec, epoch)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%.6f %.6f  %s %s\n", ra, dec, formatRA(ra), formatDec(dec))
			return nil
		},
	}
	cmd.Flags().Float64Var(&epoch, "epoch", precession.J2000, "report coordinates for the equinox of this Julian epoch")
	return cmd
}

func newSkyToPixCmd(root *Root) *cobra.Command {
	var epoch float64
	cmd := &cobra.Command{
		Use:   "sky2pix <file.fits> <ra> <dec>",
		Short: "Convert RA/Dec to a pixel position",
		Long: `RA is read as degrees, or as hours when written sexagesimally
("05:35:17.3" or "5h35m17.3s"). Dec is degrees in either form. Put "--"
before the coordinates when the declination is negative.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ra, err := parseRA(args[1])
			if err != nil {
				return err
			}
			dec, err := parseDec(args[2])
			if err != nil {
				return err
			}
			if epoch != precession.J2000 {
				ra, dec = precession.ToJ2000(ra, dec, epoch)
			}
			m, err := root.model(args[0])
			if err != nil {
				return err
			}
			x, y, ok := m.SkyToPixel(ra, dec)
			if !ok {
				return fmt.Errorf("%s %s is not projected onto the image", args[1], args[2])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%.3f %.3f\n", x, y)
			return nil
		},
	}
	cmd.Flags().Float64Var(&epoch, "epoch", precession.J2000, "equinox of the given coordinates as a Julian epoch")
	return cmd
}

func newWCSRepairCmd(root *Root) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "repair <file.fits>",
		Short: "Rewrite CDELT/CROTA/PC transforms as a CD matrix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := imagedata.ReadHeaderFile(args[0])
			if err != nil {
				return err
			}
			before := wcs.New(h, 0, 0, root.cfg.WCSOptions()...)
			fixed, m, err := wcs.Repair(h, 0, 0, root.cfg.WCSOptions()...)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			logging.LogDiagnostics(root.log, args[0], m.Diagnostics())
			out := cmd.OutOrStdout()
			if before.MatrixSource() == wcs.MatrixCD {
				fmt.Fprintln(out, "already a CD matrix, nothing to do")
				return nil
			}
			fmt.Fprintf(out, "%s -> %s\n", before.MatrixSource(), m.MatrixSource())
			if dryRun {
				return nil
			}
			return imagedata.WriteHeader(args[0], fixed)
		},
	}
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "report without writing the file")
	return cmd
}
