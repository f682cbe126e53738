// SPDX-License-Identifier: Unlicense OR MIT

package virgl

import (
	"fmt"

	"eliasnaur.com/virtgbm/drm"
	"eliasnaur.com/virtgbm/fourcc"
	"eliasnaur.com/virtgbm/gbm"
	"eliasnaur.com/virtgbm/internal/logging"
)

// Create allocates bo as a blob resource when the host can share it,
// as a 3D resource when the host renders, and as a dumb buffer
// otherwise.
func (b *Backend) Create(bo *gbm.BO, width, height uint32, format fourcc.Format, use gbm.Use) error {
	if b.blobEnabled() && b.params.HostVisible != 0 && b.shouldUseBlob(format, use) {
		return b.createBlob(bo)
	}
	if b.is3D() {
		return b.create3D(bo, width, height, format, use)
	}
	return b.create2D(bo, width, height, format)
}

// shouldUseBlob reports whether a buffer is better served by a blob
// resource. Blobs need the host buffer manager, and pay off only when
// something other than the GPU needs efficient access.
func (b *Backend) shouldUseBlob(format fourcc.Format, use gbm.Use) bool {
	if !b.hostGBM {
		return false
	}
	if use&(gbm.UseSWReadOften|gbm.UseSWWriteOften|gbm.UseLinear|gbm.UseNonGPUHW|gbm.UseGPUDataBuffer) == 0 {
		return false
	}
	switch format {
	case fourcc.R8:
		// Strides are fully determined by the format.
		return true
	case fourcc.YVU420Android, fourcc.NV12:
		// The host layout is unknown at creation, so the guest
		// cannot map these.
		return use&gbm.UseSWMask == 0
	}
	return false
}

func (b *Backend) createBlob(bo *gbm.BO) error {
	flags := uint32(drm.BLOB_FLAG_USE_SHAREABLE)
	if bo.Use&(gbm.UseSWMask|gbm.UseGPUDataBuffer) != 0 {
		flags |= drm.BLOB_FLAG_USE_MAPPABLE
	}
	// Every blob is cross device for now.
	flags |= drm.BLOB_FLAG_USE_CROSS_DEVICE

	blobID := b.nextBlobID.Add(1) - 1
	bo.FromFormat(fourcc.Stride(bo.Format, bo.Width, 0), bo.Height, bo.Format)
	bo.TotalSize = uint64(fourcc.Align(uint32(bo.TotalSize), pageSize))
	bo.Tiling = flags

	cmd := pipeResourceCreate{
		Format: translateFormat(bo.Format),
		Bind:   computeBind(bo.Use),
		Width:  bo.Width,
		Height: bo.Height,
		BlobID: blobID,
	}
	req := drm.ResourceCreateBlob{
		Blob_mem:   drm.BLOB_MEM_HOST3D,
		Blob_flags: flags,
		Size:       bo.TotalSize,
		Blob_id:    uint64(blobID),
	}
	if err := b.dev.ResourceCreateBlob(&req, cmd.encode()); err != nil {
		logging.Errorf("DRM_VIRTGPU_RESOURCE_CREATE_BLOB failed with %v", err)
		return err
	}
	bo.Handle = req.Bo_handle
	return nil
}

func (b *Backend) create3D(bo *gbm.BO, width, height uint32, format fourcc.Format, use gbm.Use) error {
	if b.supportsNatively(format, use) {
		bo.FromFormat(fourcc.Stride(format, width, 0), height, format)
	} else {
		if !b.supportsEmulation(format, use) {
			panic(fmt.Sprintf("virgl: %v with %v is supported neither natively nor through emulation", format, use))
		}
		l, _ := EmulatedLayout(format, width, height)
		l.apply(bo)
		format, width, height = l.Format, l.Width, l.Height
	}

	// The 2D texture target makes the host bind the resource as a
	// 2D texture.
	req := drm.ResourceCreate{
		Target:     PIPE_TEXTURE_2D,
		Format:     translateFormat(format),
		Bind:       computeBind(use),
		Width:      width,
		Height:     height,
		Depth:      1,
		Array_size: 1,
		Size:       fourcc.Align(uint32(bo.TotalSize), pageSize),
	}
	if err := b.dev.ResourceCreate(&req); err != nil {
		logging.Errorf("DRM_IOCTL_VIRTGPU_RESOURCE_CREATE failed with %v", err)
		return err
	}
	bo.Handle = req.Bo_handle
	return nil
}

func (b *Backend) create2D(bo *gbm.BO, width, height uint32, format fourcc.Format) error {
	if format != fourcc.R8 {
		width = fourcc.Align(width, llvmpipeTileSize)
		height = fourcc.Align(height, llvmpipeTileSize)
	}
	return gbm.DumbCreate(b.dev, bo, width, height, format, true)
}

// CreateWithModifiers allocates bo if modifiers allow the linear
// layout, the only layout of the backend.
func (b *Backend) CreateWithModifiers(bo *gbm.BO, width, height uint32, format fourcc.Format, modifiers []uint64) error {
	for _, m := range modifiers {
		if m == gbm.ModLinear {
			return b.Create(bo, width, height, format, gbm.UseNone)
		}
	}
	return fmt.Errorf("%w: no linear modifier in %#x", gbm.ErrInvalidArgument, modifiers)
}

func (b *Backend) Destroy(bo *gbm.BO) error {
	if b.is3D() {
		return gbm.GemDestroy(b.dev, bo)
	}
	return gbm.DumbDestroy(b.dev, bo)
}

func (b *Backend) Import(bo *gbm.BO, data *gbm.ImportData) error {
	return gbm.PrimeImport(b.dev, bo, data)
}

// Map maps the whole of bo. Failures wrap gbm.ErrMapFailed.
func (b *Backend) Map(bo *gbm.BO, vma *gbm.VMA, flags gbm.MapFlags) ([]byte, error) {
	if !b.is3D() {
		return gbm.DumbMap(b.dev, bo, vma, flags)
	}
	offset, err := b.dev.Map(bo.Handle)
	if err != nil {
		logging.Errorf("DRM_IOCTL_VIRTGPU_MAP failed with %v", err)
		return nil, fmt.Errorf("%w: %v", gbm.ErrMapFailed, err)
	}
	mem, err := b.dev.Mmap(offset, int(bo.TotalSize), gbm.Prot(flags))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", gbm.ErrMapFailed, err)
	}
	return mem, nil
}

func (b *Backend) Unmap(bo *gbm.BO, vma *gbm.VMA) error {
	return gbm.Munmap(b.dev, vma)
}
