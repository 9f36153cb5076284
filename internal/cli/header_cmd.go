package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"astrocore/pkg/fitsheader"
	"astrocore/pkg/imagedata"
)

func newHeaderCmd(root *Root) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "header",
		Short: "Read and edit FITS header cards",
	}
	cmd.AddCommand(newHeaderShowCmd(root))
	cmd.AddCommand(newHeaderGetCmd(root))
	cmd.AddCommand(newHeaderSetCmd(root))
	cmd.AddCommand(newHeaderRemoveCmd(root))
	cmd.AddCommand(newHeaderHistoryCmd(root))
	cmd.AddCommand(newHeaderObsCmd(root))
	return cmd
}

func newHeaderShowCmd(root *Root) *cobra.Command {
	return &cobra.Command{
		Use:   "show <file.fits>",
		Short: "Print every card of the primary header",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := imagedata.ReadHeaderFile(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), h.String())
			return nil
		},
	}
}

func newHeaderGetCmd(root *Root) *cobra.Command {
	return &cobra.Command{
		Use:   "get <file.fits> <KEY>",
		Short: "Print the value, type and comment of a keyword",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := imagedata.ReadHeaderFile(args[0])
			if err != nil {
				return err
			}
			key := strings.ToUpper(args[1])
			v, ok := h.Text(key)
			if !ok {
				return fmt.Errorf("%s: keyword %s not found", args[0], key)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s = %s (%s)", key, v, h.Type(key))
			if c, ok := h.Comment(key); ok && c != "" {
				fmt.Fprintf(out, " / %s", c)
			}
			fmt.Fprintln(out)
			return nil
		},
	}
}

func newHeaderSetCmd(root *Root) *cobra.Command {
	var (
		comment string
		kind    string
	)
	cmd := &cobra.Command{
		Use:   "set <file.fits> <KEY> <value>",
		Short: "Add or replace a keyword",
		Long: `Set writes KEY into the primary header, replacing the first existing card
with that keyword. The value type is inferred unless --type is given. Without
--comment a replaced card keeps its comment.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := headerValue(args[2], kind)
			if err != nil {
				return err
			}
			return root.editHeader(args[0], func(h fitsheader.Header) (fitsheader.Header, error) {
				return h.Set(strings.ToUpper(args[1]), v, comment), nil
			})
		},
	}
	cmd.Flags().StringVarP(&comment, "comment", "c", "", "card comment")
	cmd.Flags().StringVarP(&kind, "type", "t", "auto", "value type (auto|string|int|real|bool)")
	return cmd
}

func newHeaderRemoveCmd(root *Root) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <file.fits> <KEY>",
		Aliases: []string{"remove"},
		Short:   "Remove every card with a keyword",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := strings.ToUpper(args[1])
			return root.editHeader(args[0], func(h fitsheader.Header) (fitsheader.Header, error) {
				out := h.Remove(key)
				if out.Len() == h.Len() {
					return h, fmt.Errorf("keyword %s not found", key)
				}
				return out, nil
			})
		},
	}
}

func newHeaderHistoryCmd(root *Root) *cobra.Command {
	return &cobra.Command{
		Use:   "history <file.fits> <text>...",
		Short: "Append HISTORY cards, wrapping long text",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args[1:], " ")
			return root.editHeader(args[0], func(h fitsheader.Header) (fitsheader.Header, error) {
				return h.AddHistory(text), nil
			})
		},
	}
}

func newHeaderObsCmd(root *Root) *cobra.Command {
	return &cobra.Command{
		Use:   "obs <file.fits>",
		Short: "Print the observation date, time and exposure",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := imagedata.ReadHeaderFile(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if t, ok := h.ObservationDateTime(); ok {
				fmt.Fprintf(out, "Start:    %s\n", t.UTC().Format("2006-01-02T15:04:05.000"))
			} else {
				date, _ := h.ObservationDate()
				clock, _ := h.ObservationTime()
				fmt.Fprintf(out, "Start:    %s %s\n", date, clock)
			}
			if exp, ok := h.ExposureTime(); ok {
				fmt.Fprintf(out, "Exposure: %gs\n", exp)
			} else {
				fmt.Fprintln(out, "Exposure: unknown")
			}
			for _, a := range h.Annotations() {
				fmt.Fprintf(out, "Annotate: %q at %.2f,%.2f\n", a.Label, a.X, a.Y)
			}
			return nil
		},
	}
}

// editHeader rewrites the header of a FITS file in place.
func (r *Root) editHeader(path string, edit func(fitsheader.Header) (fitsheader.Header, error)) error {
	h, err := imagedata.ReadHeaderFile(path)
	if err != nil {
		return err
	}
	h, err = edit(h)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := imagedata.WriteHeader(path, h); err != nil {
		return err
	}
	r.log.Info("header updated", "path", path, "cards", h.Len())
	return nil
}

func headerValue(s, kind string) (fitsheader.Value, error) {
	switch strings.ToLower(kind) {
	case "string", "str":
		return fitsheader.Str(s), nil
	case "int", "integer":
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fitsheader.Value{}, fmt.Errorf("invalid integer %q", s)
		}
		return fitsheader.Integer(i), nil
	case "real", "float":
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fitsheader.Value{}, fmt.Errorf("invalid real %q", s)
		}
		return fitsheader.Real(f), nil
	case "bool", "logical":
		switch strings.ToUpper(s) {
		case "T", "TRUE":
			return fitsheader.Logical(true), nil
		case "F", "FALSE":
			return fitsheader.Logical(false), nil
		}
		return fitsheader.Value{}, fmt.Errorf("invalid logical %q", s)
	case "auto", "":
	default:
		return fitsheader.Value{}, fmt.Errorf("unknown value type %q", kind)
	}

	if s == "T" || s == "F" {
		return fitsheader.Logical(s == "T"), nil
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return fitsheader.Integer(i), nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return fitsheader.Real(f), nil
	}
	return fitsheader.Str(s), nil
}
