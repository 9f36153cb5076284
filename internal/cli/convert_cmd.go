package cli

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"astrocore/pkg/fitsheader"
	"astrocore/pkg/imagedata"
)

func newConvertCmd(root *Root) *cobra.Command {
	var (
		object   string
		exposure float64
	)
	cmd := &cobra.Command{
		Use:   "convert <image> [output.fits]",
		Short: "Convert a PNG, JPEG or TIFF image to a 32-bit float FITS file",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]
			output := strings.TrimSuffix(input, filepath.Ext(input)) + ".fits"
			if len(args) > 1 {
				output = args[1]
			}
			if input == output {
				return fmt.Errorf("refusing to overwrite %s", input)
			}
			frame, h, err := root.loadFrame(input)
			if err != nil {
				return err
			}
			h = h.Set("DATE", fitsheader.Str(time.Now().UTC().Format("2006-01-02T15:04:05")), "file creation date")
			if object != "" {
				h = h.Set("OBJECT", fitsheader.Str(object), "target name")
			}
			if exposure > 0 {
				h = h.Set("EXPTIME", fitsheader.Real(exposure), "exposure time in seconds")
			}
			h = h.AddHistory("converted from " + filepath.Base(input))
			if err := imagedata.WriteFITSFile(output, frame, h); err != nil {
				return err
			}
			root.log.Info("image converted", "input", input, "output", output,
				"width", frame.Width(), "height", frame.Height())
			fmt.Fprintln(cmd.OutOrStdout(), output)
			return nil
		},
	}
	cmd.Flags().StringVar(&object, "object", "", "OBJECT keyword for the new file")
	cmd.Flags().Float64Var(&exposure, "exposure", 0, "EXPTIME keyword in seconds")
	return cmd
}
