// SPDX-License-Identifier: Unlicense OR MIT

// Command virtgbm allocates and inspects buffers on a virtio-gpu
// device.
package main

import (
	"os"

	"eliasnaur.com/virtgbm/cmd/virtgbm/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
