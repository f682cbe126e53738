// SPDX-License-Identifier: Unlicense OR MIT

package gbm

import (
	"eliasnaur.com/virtgbm/fourcc"
)

// BO is a buffer object: GPU visible memory plus its layout. A BO is
// owned by its creator until it is passed to Driver.Destroy.
type BO struct {
	Width, Height uint32
	Format        fourcc.Format
	Use           Use

	NumPlanes int
	Strides   [fourcc.MaxPlanes]uint32
	Offsets   [fourcc.MaxPlanes]uint32
	Sizes     [fourcc.MaxPlanes]uint32
	TotalSize uint64

	// Tiling is backend defined. The virtio-gpu backend stores the
	// blob flags of blob resources here.
	Tiling         uint32
	FormatModifier uint64

	// Handle is the kernel buffer handle.
	Handle uint32

	// ScreenCapture caches the result of the screen capture probe
	// of the virtio-gpu backend.
	ScreenCapture Probe

	drv *Driver
}

// Probe is the outcome of a lazy one-time check.
type Probe uint8

const (
	ProbeUnknown Probe = iota
	ProbeNegative
	ProbePositive
)

// Rect is a rectangle of pixels.
type Rect struct {
	X, Y          uint32
	Width, Height uint32
}

// VMA is a process mapping of a buffer.
type VMA struct {
	Mem    []byte
	Handle uint32
	Flags  MapFlags
}

// Mapping binds a BO to a mapped region and the rectangle being
// accessed through it.
type Mapping struct {
	BO   *BO
	VMA  *VMA
	Rect Rect
}

// Data returns the mapped bytes starting at the first pixel of the
// access rectangle in plane 0.
func (m *Mapping) Data() []byte {
	bo := m.BO
	off := uint64(bo.Offsets[0]) + uint64(bo.Strides[0])*uint64(m.Rect.Y) +
		uint64(bo.Format.BytesPerPixel(0))*uint64(m.Rect.X)
	if off > uint64(len(m.VMA.Mem)) {
		return nil
	}
	return m.VMA.Mem[off:]
}

// Metadata is the layout constraint of a format combination.
type Metadata struct {
	Priority uint32
	Tiling   uint32
	Modifier uint64
}

// ModLinear is the linear layout modifier.
const ModLinear uint64 = 0

var LinearMetadata = Metadata{Priority: 1, Tiling: 0, Modifier: ModLinear}

// ResourceInfo is the per-plane layout the host reports for a
// buffer.
type ResourceInfo struct {
	Strides        [fourcc.MaxPlanes]uint32
	Offsets        [fourcc.MaxPlanes]uint32
	FormatModifier uint64
}

// ImportData describes a buffer exported by another process.
type ImportData struct {
	Width, Height  uint32
	Format         fourcc.Format
	Use            Use
	FDs            [fourcc.MaxPlanes]int
	Strides        [fourcc.MaxPlanes]uint32
	Offsets        [fourcc.MaxPlanes]uint32
	FormatModifier uint64
}

// FromFormat fills the plane metadata of bo for a buffer of the given
// format whose first plane rows are stride bytes apart and whose
// planes are height rows tall before subsampling.
func (bo *BO) FromFormat(stride, height uint32, format fourcc.Format) {
	n := format.NumPlanes()
	bo.NumPlanes = n
	var offset uint32
	for p := 0; p < n; p++ {
		bo.Strides[p] = fourcc.PlaneStride(format, stride, p)
		bo.Sizes[p] = fourcc.PlaneSize(format, bo.Strides[p], height, p)
		bo.Offsets[p] = offset
		offset += bo.Sizes[p]
	}
	bo.TotalSize = uint64(offset)
}

// Driver returns the driver that created bo.
func (bo *BO) Driver() *Driver {
	return bo.drv
}
