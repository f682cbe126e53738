// SPDX-License-Identifier: Unlicense OR MIT

package commands

import (
	"fmt"
	"text/tabwriter"

	"eliasnaur.com/virtgbm/pci"
	"github.com/spf13/cobra"
)

func newDevicesCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List the PCI display controllers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			funcs, err := o.sysfs().DisplayFunctions()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ADDRESS\tID\tCLASS\tRENDER NODE\t")
			for _, f := range funcs {
				node := f.RenderNode
				if node == "" {
					node = "-"
				}
				mark := ""
				if f.VendorID == pci.VendorVirtio && f.DeviceID == pci.DeviceVirtioGPU {
					mark = "virtio-gpu"
				}
				fmt.Fprintf(w, "%v\t%04x:%04x\t%06x\t%s\t%s\n", f.Address, f.VendorID, f.DeviceID, f.Class, node, mark)
			}
			return w.Flush()
		},
	}
}
