// SPDX-License-Identifier: Unlicense OR MIT

package commands

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"eliasnaur.com/virtgbm/fourcc"
	"eliasnaur.com/virtgbm/virgl"
	"github.com/spf13/cobra"
)

func newLayoutCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "layout FORMAT WIDTH HEIGHT",
		Short: "Show the emulated layout of a YUV format",
		Long: `Print how a YUV buffer is laid out as a single R8 image on hosts
that cannot sample the format natively. No device is needed.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := fourcc.Parse(args[0])
			if err != nil {
				return err
			}
			width, err := parseDimension(args[1])
			if err != nil {
				return err
			}
			height, err := parseDimension(args[2])
			if err != nil {
				return err
			}
			l, ok := virgl.EmulatedLayout(format, width, height)
			if !ok {
				return fmt.Errorf("format %v has no emulated layout", format)
			}
			printLayout(cmd.OutOrStdout(), l)
			return nil
		},
	}
}

func parseDimension(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil || v == 0 {
		return 0, fmt.Errorf("invalid dimension %q", s)
	}
	return uint32(v), nil
}

func printLayout(out io.Writer, l virgl.Layout) {
	fmt.Fprintf(out, "Resource: %v %dx%d, %d bytes\n\n", l.Format, l.Width, l.Height, l.TotalSize)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PLANE\tOFFSET\tSTRIDE\tSIZE")
	for p := 0; p < l.NumPlanes; p++ {
		fmt.Fprintf(w, "%d\t%d\t%d\t%d\n", p, l.Offsets[p], l.Strides[p], l.Sizes[p])
	}
	w.Flush()
}
