// SPDX-License-Identifier: Unlicense OR MIT

// Package commands implements the virtgbm command line.
package commands

import (
	"fmt"

	"eliasnaur.com/virtgbm/drm"
	"eliasnaur.com/virtgbm/gbm"
	"eliasnaur.com/virtgbm/internal/config"
	"eliasnaur.com/virtgbm/internal/logging"
	"eliasnaur.com/virtgbm/pci"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// options is the state shared by the commands of one invocation.
type options struct {
	v       *viper.Viper
	cfgFile string
	verbose bool
	cfg     *config.Config
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	o := &options{v: viper.New()}
	rootCmd := &cobra.Command{
		Use:   "virtgbm",
		Short: "A buffer allocator for virtio-gpu",
		Long: `virtgbm allocates graphics buffers on a virtio-gpu device backed by the
virglrenderer host renderer, and reports what the host supports.`,
		SilenceUsage:      true,
		PersistentPreRunE: o.load,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&o.cfgFile, "config", "", "config file (default is $HOME/.virtgbm/config.yaml)")
	pf.BoolVarP(&o.verbose, "verbose", "v", false, "verbose output")
	pf.String("device", "", "render node (default is the discovered virtio-gpu node)")
	pf.String("sysfs-root", "/sys", "sysfs mount point")
	pf.String("backend", "", "allocation backend")
	pf.StringToString("param", nil, "backend parameter overrides, such as 3d=0")
	pf.String("log-level", "", "log level")

	o.v.BindPFlag("device", pf.Lookup("device"))
	o.v.BindPFlag("sysfs_root", pf.Lookup("sysfs-root"))
	o.v.BindPFlag("backend", pf.Lookup("backend"))
	o.v.BindPFlag("params", pf.Lookup("param"))
	o.v.BindPFlag("logging.level", pf.Lookup("log-level"))

	rootCmd.AddCommand(
		newInfoCmd(o),
		newAllocCmd(o),
		newLayoutCmd(o),
		newDevicesCmd(o),
	)
	return rootCmd
}

// load reads the configuration and sets up logging.
func (o *options) load(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWith(o.v, o.cfgFile)
	if err != nil {
		return err
	}
	level := cfg.Logging.Level
	if o.verbose {
		level = "debug"
	}
	if err := logging.Init(level, cfg.Logging.File, cfg.Logging.Console); err != nil {
		return fmt.Errorf("initializing logging: %w", err)
	}
	if used := o.v.ConfigFileUsed(); used != "" {
		logging.Debugf("using config file %s", used)
	}
	o.cfg = cfg
	return nil
}

func (o *options) sysfs() pci.Sysfs {
	return pci.Sysfs{Root: o.cfg.SysfsRoot}
}

// openDriver opens the configured render node, or the discovered
// virtio-gpu node, and initializes the backend on it. The returned
// function releases both.
func (o *options) openDriver() (*gbm.Driver, func(), error) {
	path := o.cfg.Device
	if path == "" {
		f, err := o.sysfs().FindVirtioGPU()
		if err != nil {
			return nil, nil, fmt.Errorf("discovering virtio-gpu: %w", err)
		}
		path = f.RenderNode
		logging.Infof("using virtio-gpu %s at %s", f.Address, path)
	}
	dev, err := drm.Open(path)
	if err != nil {
		return nil, nil, err
	}
	drv, err := gbm.New(dev, o.cfg.Backend, gbm.Options{Params: o.cfg.Params})
	if err != nil {
		dev.Close()
		return nil, nil, err
	}
	return drv, func() {
		drv.Close()
		dev.Close()
	}, nil
}
