package cli

import (
	"time"

	"github.com/spf13/cobra"

	"astrocore/internal/watch"
)

func newWatchCmd(root *Root) *cobra.Command {
	var radius float64
	cmd := &cobra.Command{
		Use:   "watch <dir>...",
		Short: "Analyze frames as they are written to capture directories",
		Long: `Watch waits for new FITS files in the given directories and logs the
star count, median FWHM and tilt of each one. It runs until interrupted.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settle := time.Duration(root.cfg.Watch.SettleMs) * time.Millisecond
			w, err := watch.New(args, root.cfg.Watch.Extensions, settle, root.log)
			if err != nil {
				return err
			}
			defer w.Stop()

			ctx := cmd.Context()
			if err := w.Start(ctx); err != nil {
				return err
			}
			for ev := range w.Events {
				a, _, _, _, err := root.analyze(ctx, ev.Path, radius)
				if err != nil {
					root.log.Warn("analysis failed", "path", ev.Path, "err", err)
					continue
				}
				root.log.Info("frame analyzed", "path", ev.Path, "stars", a.Stars,
					"fwhm", a.MedianFWHM, "tilt_pct", a.TiltPct, "off_axis_pct", a.OffAxisPct,
					"reliable", a.Reliable)
			}
			return nil
		},
	}
	cmd.Flags().Float64VarP(&radius, "radius", "r", 0, "aperture radius in pixels (0 picks it from the stars)")
	return cmd
}
