// SPDX-License-Identifier: Unlicense OR MIT

package commands

import (
	"fmt"
	"text/tabwriter"

	"eliasnaur.com/virtgbm/fourcc"
	"eliasnaur.com/virtgbm/gbm"
	"github.com/spf13/cobra"
)

type allocFlags struct {
	width, height uint32
	format        string
	use           string
	pattern       uint8
}

func newAllocCmd(o *options) *cobra.Command {
	var f allocFlags
	cmd := &cobra.Command{
		Use:   "alloc",
		Short: "Allocate, fill and release a buffer",
		Long: `Allocate a buffer, map it, fill its first plane with a byte pattern,
flush and invalidate the mapping, and print the plane layout before
releasing it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := fourcc.Parse(f.format)
			if err != nil {
				return err
			}
			use, ok := gbm.ParseUse(f.use)
			if !ok {
				return fmt.Errorf("invalid use %q", f.use)
			}
			drv, release, err := o.openDriver()
			if err != nil {
				return err
			}
			defer release()
			return runAlloc(cmd, drv, f, format, use)
		},
	}
	flags := cmd.Flags()
	flags.Uint32Var(&f.width, "width", 64, "buffer width")
	flags.Uint32Var(&f.height, "height", 64, "buffer height")
	flags.StringVar(&f.format, "format", "XR24", "pixel format")
	flags.StringVar(&f.use, "use", "sw-read-often|sw-write-often|texture", "usage flags separated by |")
	flags.Uint8Var(&f.pattern, "pattern", 0xa5, "fill byte")
	return cmd
}

func runAlloc(cmd *cobra.Command, drv *gbm.Driver, f allocFlags, format fourcc.Format, use gbm.Use) (err error) {
	bo, err := drv.Create(f.width, f.height, format, use)
	if err != nil {
		return fmt.Errorf("create: %w (errno %d)", err, gbm.Errno(err))
	}
	defer func() {
		if derr := drv.Destroy(bo); err == nil {
			err = derr
		}
	}()

	m, err := drv.Map(bo, gbm.Rect{Width: bo.Width, Height: bo.Height}, gbm.MapReadWrite)
	if err != nil {
		return fmt.Errorf("map: %w", err)
	}
	fill(m, f.pattern)
	if err := drv.Flush(m); err != nil {
		drv.Unmap(m)
		return fmt.Errorf("flush: %w", err)
	}
	if err := drv.Invalidate(m); err != nil {
		drv.Unmap(m)
		return fmt.Errorf("invalidate: %w", err)
	}
	printBO(cmd, drv, bo)
	if err := drv.Unmap(m); err != nil {
		return fmt.Errorf("unmap: %w", err)
	}
	return nil
}

// fill writes pattern to the visible bytes of every row of plane 0.
func fill(m *gbm.Mapping, pattern uint8) {
	bo := m.BO
	data := m.Data()
	row := m.Rect.Width * bo.Format.BytesPerPixel(0)
	for y := uint32(0); y < m.Rect.Height; y++ {
		start := y * bo.Strides[0]
		if int(start+row) > len(data) {
			return
		}
		line := data[start : start+row]
		for i := range line {
			line[i] = pattern
		}
	}
}

func printBO(cmd *cobra.Command, drv *gbm.Driver, bo *gbm.BO) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Buffer:  %v %dx%d, use %v\n", bo.Format, bo.Width, bo.Height, bo.Use)
	fmt.Fprintf(out, "Handle:  %d, %d bytes, tiling %#x\n\n", bo.Handle, bo.TotalSize, bo.Tiling)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PLANE\tOFFSET\tSTRIDE\tSIZE")
	for p := 0; p < bo.NumPlanes; p++ {
		fmt.Fprintf(w, "%d\t%d\t%d\t%d\n", p, bo.Offsets[p], bo.Strides[p], bo.Sizes[p])
	}
	w.Flush()

	info, err := drv.ResourceInfo(bo)
	if err != nil {
		fmt.Fprintf(out, "\nHost layout: %v\n", err)
		return
	}
	if info.Strides[0] != 0 {
		fmt.Fprintf(out, "\nHost layout: strides %v, offsets %v, modifier %#x\n", info.Strides, info.Offsets, info.FormatModifier)
	}
}
