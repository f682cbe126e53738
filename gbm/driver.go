// SPDX-License-Identifier: Unlicense OR MIT

package gbm

import (
	"fmt"

	"eliasnaur.com/virtgbm/fourcc"
	"eliasnaur.com/virtgbm/internal/logging"
)

// Options tune a Driver.
type Options struct {
	// Params overrides backend parameters by name. The virtio-gpu
	// backend reads "3d", "capset_fix", "resource_blob",
	// "host_visible", "cross_device" and "context_init".
	Params map[string]uint64
}

// Driver is a driver context: a device, the backend serving it, and
// the combination table the backend built at initialization.
type Driver struct {
	dev     Device
	backend Backend
	combos  Combinations
	opts    Options
	closed  bool
}

// New initializes the named backend on dev.
func New(dev Device, backend string, opts Options) (*Driver, error) {
	b := lookup(backend)
	if b == nil {
		return nil, fmt.Errorf("%w: %q", ErrBackendNotAvailable, backend)
	}
	return NewWithBackend(dev, b, opts)
}

// NewWithBackend initializes b on dev.
func NewWithBackend(dev Device, b Backend, opts Options) (*Driver, error) {
	drv := &Driver{
		dev:     dev,
		backend: b,
		opts:    opts,
	}
	if err := b.Init(drv); err != nil {
		return nil, fmt.Errorf("gbm: %s init: %w", b.Name(), err)
	}
	logging.Debugf("gbm: %s backend ready with %d combinations", b.Name(), drv.combos.Len())
	return drv, nil
}

func (d *Driver) Device() Device {
	return d.dev
}

func (d *Driver) Backend() Backend {
	return d.backend
}

func (d *Driver) Options() Options {
	return d.opts
}

// Param returns the override of the named parameter, if any.
func (d *Driver) Param(name string) (uint64, bool) {
	v, ok := d.opts.Params[name]
	return v, ok
}

// AddCombination adds a supported combination. Backends call it
// from Init.
func (d *Driver) AddCombination(format fourcc.Format, meta Metadata, use Use) {
	d.combos.Add(format, meta, use)
}

// ModifyCombination grants additional usage to the existing
// combinations of format. Backends call it from Init.
func (d *Driver) ModifyCombination(format fourcc.Format, meta Metadata, use Use) {
	d.combos.Modify(format, meta, use)
}

// Combinations returns the combination table.
func (d *Driver) Combinations() *Combinations {
	return &d.combos
}

// ResolveFormatAndUse resolves flexible formats through the backend.
func (d *Driver) ResolveFormatAndUse(format fourcc.Format, use Use) (fourcc.Format, Use) {
	return d.backend.ResolveFormatAndUse(format, use)
}

// IsCombinationSupported reports whether a buffer of the format and
// usage can be created, after resolution.
func (d *Driver) IsCombinationSupported(format fourcc.Format, use Use) bool {
	format, use = d.ResolveFormatAndUse(format, use)
	return d.combos.Supported(format, use)
}

func (d *Driver) newBO(width, height uint32, format fourcc.Format, use Use) (*BO, error) {
	if d.closed {
		return nil, ErrNotInitialized
	}
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("%w: %dx%d buffer", ErrInvalidArgument, width, height)
	}
	if _, ok := fourcc.LayoutOf(format); !ok {
		return nil, fmt.Errorf("%w: format %v", ErrInvalidArgument, format)
	}
	return &BO{
		Width:     width,
		Height:    height,
		Format:    format,
		Use:       use,
		NumPlanes: format.NumPlanes(),
		drv:       d,
	}, nil
}

// Create allocates a buffer. Flexible formats are resolved first; a
// combination missing from the table fails with ErrUnsupported.
func (d *Driver) Create(width, height uint32, format fourcc.Format, use Use) (*BO, error) {
	if d.closed {
		return nil, ErrNotInitialized
	}
	format, use = d.ResolveFormatAndUse(format, use)
	if !d.combos.Supported(format, use) {
		return nil, fmt.Errorf("%w: %v with %v", ErrUnsupported, format, use)
	}
	bo, err := d.newBO(width, height, format, use)
	if err != nil {
		return nil, err
	}
	if err := d.backend.Create(bo, width, height, format, use); err != nil {
		return nil, err
	}
	logging.WithField("handle", bo.Handle).Debugf("gbm: created %dx%d %v buffer for %v", width, height, format, use)
	return bo, nil
}

// CreateWithModifiers allocates a buffer using one of the modifiers.
func (d *Driver) CreateWithModifiers(width, height uint32, format fourcc.Format, modifiers []uint64) (*BO, error) {
	bo, err := d.newBO(width, height, format, UseNone)
	if err != nil {
		return nil, err
	}
	if err := d.backend.CreateWithModifiers(bo, width, height, format, modifiers); err != nil {
		return nil, err
	}
	return bo, nil
}

// Import wraps a buffer exported as dma-buf file descriptors.
func (d *Driver) Import(data *ImportData) (*BO, error) {
	bo, err := d.newBO(data.Width, data.Height, data.Format, data.Use)
	if err != nil {
		return nil, err
	}
	if err := d.backend.Import(bo, data); err != nil {
		return nil, err
	}
	return bo, nil
}

// Destroy releases bo. It must not be used afterwards.
func (d *Driver) Destroy(bo *BO) error {
	return d.backend.Destroy(bo)
}

// Map maps bo for access to rect and invalidates the rectangle so
// host writes are visible.
func (d *Driver) Map(bo *BO, rect Rect, flags MapFlags) (*Mapping, error) {
	if d.closed {
		return nil, ErrNotInitialized
	}
	if rect.Width == 0 || rect.Height == 0 ||
		rect.X > bo.Width || rect.Width > bo.Width-rect.X ||
		rect.Y > bo.Height || rect.Height > bo.Height-rect.Y {
		return nil, fmt.Errorf("%w: rectangle %+v outside %dx%d buffer", ErrInvalidArgument, rect, bo.Width, bo.Height)
	}
	vma := &VMA{Handle: bo.Handle, Flags: flags}
	mem, err := d.backend.Map(bo, vma, flags)
	if err != nil {
		return nil, err
	}
	vma.Mem = mem
	m := &Mapping{BO: bo, VMA: vma, Rect: rect}
	if err := d.backend.Invalidate(bo, m); err != nil {
		d.backend.Unmap(bo, vma)
		return nil, err
	}
	return m, nil
}

// Unmap flushes the writes made through m to the host and unmaps it.
func (d *Driver) Unmap(m *Mapping) error {
	ferr := d.backend.Flush(m.BO, m)
	if err := d.backend.Unmap(m.BO, m.VMA); err != nil {
		return err
	}
	return ferr
}

func (d *Driver) Flush(m *Mapping) error {
	return d.backend.Flush(m.BO, m)
}

func (d *Driver) Invalidate(m *Mapping) error {
	return d.backend.Invalidate(m.BO, m)
}

func (d *Driver) ResourceInfo(bo *BO) (ResourceInfo, error) {
	return d.backend.ResourceInfo(bo)
}

func (d *Driver) MaxTexture2DSize() uint32 {
	return d.backend.MaxTexture2DSize()
}

// Close releases the backend. Buffers must be destroyed first. Later
// allocations and mappings fail with ErrNotInitialized.
func (d *Driver) Close() {
	if d.closed {
		return
	}
	d.closed = true
	d.backend.Close()
}
