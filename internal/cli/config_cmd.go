package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"astrocore/internal/config"
)

func newConfigCmd(root *Root) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			cfgPath := os.Getenv(config.EnvPath)
			if cfgPath == "" {
				cfgPath = "(default) ~/.config/astrocore/config.json"
			}
			fmt.Fprintf(out, "Config file: %s\n", cfgPath)
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(root.cfg)
		},
	}
	return cmd
}
