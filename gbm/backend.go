// SPDX-License-Identifier: Unlicense OR MIT

// Package gbm is a generic buffer manager: it allocates buffer
// objects through a pluggable Backend and tracks the format and usage
// combinations the backend supports.
package gbm

import (
	"errors"

	"eliasnaur.com/virtgbm/drm"
	"eliasnaur.com/virtgbm/fourcc"
)

var (
	ErrBackendNotAvailable = errors.New("gbm: backend not available")
	ErrNotInitialized      = errors.New("gbm: driver not initialized")
	ErrInvalidArgument     = errors.New("gbm: invalid argument")
	ErrUnsupported         = errors.New("gbm: unsupported format and usage combination")
	ErrMapFailed           = errors.New("gbm: mapping failed")
)

// Errno returns the negated OS error code of a failed kernel call,
// or 0 for a nil error.
func Errno(err error) int {
	if err == nil {
		return 0
	}
	return -int(drm.Errno(err))
}

// Device is the kernel interface every backend needs. *drm.Device
// implements it.
type Device interface {
	GemClose(handle uint32) error
	PrimeFDToHandle(fd int) (uint32, error)
	CreateDumb(req *drm.CreateDumb) error
	MapDumb(handle uint32) (uint64, error)
	DestroyDumb(handle uint32) error
	Mmap(offset uint64, length int, prot int) ([]byte, error)
	Munmap(b []byte) error
}

// Backend is an allocation backend for one kind of kernel driver.
// A backend instance serves exactly one Driver.
type Backend interface {
	// Name returns the backend identifier.
	Name() string

	// Init probes the device and fills the combination table of drv
	// through AddCombination and ModifyCombination.
	Init(drv *Driver) error

	// Close releases the backend state.
	Close()

	// Create allocates storage for bo. The format and usage are
	// already resolved.
	Create(bo *BO, width, height uint32, format fourcc.Format, use Use) error

	// CreateWithModifiers allocates storage for bo using one of
	// the layout modifiers.
	CreateWithModifiers(bo *BO, width, height uint32, format fourcc.Format, modifiers []uint64) error

	Destroy(bo *BO) error
	Import(bo *BO, data *ImportData) error

	// Map maps bo into the process and returns the mapped bytes.
	Map(bo *BO, vma *VMA, flags MapFlags) ([]byte, error)
	Unmap(bo *BO, vma *VMA) error

	// Invalidate makes host writes to the mapped rectangle visible
	// to the process.
	Invalidate(bo *BO, m *Mapping) error

	// Flush makes process writes to the mapped rectangle visible
	// to the host.
	Flush(bo *BO, m *Mapping) error

	// ResolveFormatAndUse maps flexible formats to concrete ones and
	// adjusts the usage to what the backend can provide.
	ResolveFormatAndUse(format fourcc.Format, use Use) (fourcc.Format, Use)

	ResourceInfo(bo *BO) (ResourceInfo, error)
	MaxTexture2DSize() uint32
}
