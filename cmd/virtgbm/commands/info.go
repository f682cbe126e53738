// SPDX-License-Identifier: Unlicense OR MIT

package commands

import (
	"fmt"
	"text/tabwriter"

	"eliasnaur.com/virtgbm/gbm"
	"eliasnaur.com/virtgbm/virgl"
	"github.com/spf13/cobra"
)

func newInfoCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the host capabilities and the supported formats",
		Long: `Open the device, negotiate the host capabilities, and print the
deployment parameters together with the format and usage table.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			drv, release, err := o.openDriver()
			if err != nil {
				return err
			}
			defer release()
			printInfo(cmd, drv)
			return nil
		},
	}
}

func printInfo(cmd *cobra.Command, drv *gbm.Driver) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Backend:          %s\n", drv.Backend().Name())
	if b, ok := drv.Backend().(*virgl.Backend); ok {
		id, maxVersion := b.CapsetVersion()
		fmt.Fprintf(out, "Parameters:       %v\n", b.Params())
		fmt.Fprintf(out, "Capability set:   %d (max version %d)\n", id, maxVersion)
		fmt.Fprintf(out, "Host GBM:         %t\n", b.HostGBM())
	}
	fmt.Fprintf(out, "Max texture size: %d\n\n", drv.MaxTexture2DSize())

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FORMAT\tUSE")
	combos := drv.Combinations()
	for _, f := range combos.Formats() {
		use, _ := combos.Lookup(f)
		fmt.Fprintf(w, "%v\t%v\n", f, use)
	}
	w.Flush()
}
