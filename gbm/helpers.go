// SPDX-License-Identifier: Unlicense OR MIT

package gbm

import (
	"fmt"

	"eliasnaur.com/virtgbm/drm"
	"eliasnaur.com/virtgbm/fourcc"
	"eliasnaur.com/virtgbm/internal/logging"
	"golang.org/x/sys/unix"
)

// Prot returns the memory protection for a mapping with flags.
func Prot(flags MapFlags) int {
	if flags&MapWrite != 0 {
		return unix.PROT_READ | unix.PROT_WRITE
	}
	return unix.PROT_READ
}

// DumbCreate allocates bo as a dumb buffer. With dumb32bpp the
// request is expressed in 32 bit pixels, for kernels that only
// accept that depth.
func DumbCreate(dev Device, bo *BO, width, height uint32, format fourcc.Format, dumb32bpp bool) error {
	alignedWidth, alignedHeight := width, height
	switch format {
	case fourcc.R16:
		alignedWidth = fourcc.Align(width, 16)
	case fourcc.YVU420Android:
		// The layout uses the unpadded height; chroma rows must be 16
		// byte aligned.
		height = bo.Height
		alignedWidth = fourcc.Align(width, 32)
		alignedHeight = 3 * fourcc.DivRoundUp(height, 2)
	case fourcc.YVU420, fourcc.NV12, fourcc.NV21, fourcc.P010:
		// Room for the chroma planes.
		alignedHeight = 3 * fourcc.DivRoundUp(height, 2)
	}
	req := drm.CreateDumb{
		Width:  alignedWidth,
		Height: alignedHeight,
		Bpp:    format.BytesPerPixel(0) * 8,
	}
	if dumb32bpp {
		req.Width = fourcc.DivRoundUp(alignedWidth*format.BytesPerPixel(0), 4)
		req.Bpp = 32
	}
	if err := dev.CreateDumb(&req); err != nil {
		logging.Errorf("DRM_IOCTL_MODE_CREATE_DUMB failed (%d, %d): %v", width, height, err)
		return err
	}
	bo.FromFormat(req.Pitch, height, format)
	bo.Handle = req.Handle
	bo.TotalSize = req.Size
	return nil
}

// DumbDestroy releases a dumb buffer.
func DumbDestroy(dev Device, bo *BO) error {
	if err := dev.DestroyDumb(bo.Handle); err != nil {
		logging.Errorf("DRM_IOCTL_MODE_DESTROY_DUMB failed (handle=%x): %v", bo.Handle, err)
		return err
	}
	return nil
}

// DumbMap maps a dumb buffer.
func DumbMap(dev Device, bo *BO, vma *VMA, flags MapFlags) ([]byte, error) {
	offset, err := dev.MapDumb(bo.Handle)
	if err != nil {
		logging.Errorf("DRM_IOCTL_MODE_MAP_DUMB failed: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrMapFailed, err)
	}
	mem, err := dev.Mmap(offset, int(bo.TotalSize), Prot(flags))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMapFailed, err)
	}
	return mem, nil
}

// GemDestroy closes the kernel handle of bo.
func GemDestroy(dev Device, bo *BO) error {
	if err := dev.GemClose(bo.Handle); err != nil {
		logging.Errorf("DRM_IOCTL_GEM_CLOSE failed (handle=%x): %v", bo.Handle, err)
		return err
	}
	return nil
}

// PrimeImport imports the dma-buf of data into bo. All planes must
// refer to the same buffer.
func PrimeImport(dev Device, bo *BO, data *ImportData) error {
	n := data.Format.NumPlanes()
	var handle uint32
	for p := 0; p < n; p++ {
		h, err := dev.PrimeFDToHandle(data.FDs[p])
		if err != nil {
			logging.Errorf("DRM_IOCTL_PRIME_FD_TO_HANDLE failed (fd=%d): %v", data.FDs[p], err)
			if p > 0 {
				dev.GemClose(handle)
			}
			return err
		}
		if p > 0 && h != handle {
			dev.GemClose(handle)
			return fmt.Errorf("%w: planes span distinct buffers", ErrInvalidArgument)
		}
		handle = h
	}
	bo.Handle = handle
	bo.NumPlanes = n
	bo.FormatModifier = data.FormatModifier
	var end uint64
	for p := 0; p < n; p++ {
		bo.Strides[p] = data.Strides[p]
		bo.Offsets[p] = data.Offsets[p]
		bo.Sizes[p] = fourcc.PlaneSize(data.Format, data.Strides[p], data.Height, p)
		if e := uint64(bo.Offsets[p]) + uint64(bo.Sizes[p]); e > end {
			end = e
		}
	}
	bo.TotalSize = end
	return nil
}

// Munmap unmaps vma.
func Munmap(dev Device, vma *VMA) error {
	if vma.Mem == nil {
		return nil
	}
	err := dev.Munmap(vma.Mem)
	vma.Mem = nil
	return err
}
