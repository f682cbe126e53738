// SPDX-License-Identifier: Unlicense OR MIT

package virgl

import (
	"strings"

	"eliasnaur.com/virtgbm/drm"
	"eliasnaur.com/virtgbm/fourcc"
	"eliasnaur.com/virtgbm/gbm"
	"eliasnaur.com/virtgbm/internal/logging"
	"golang.org/x/exp/slices"
)

// screenCaptureMarker appears in the fdinfo of screen capture buffers.
const screenCaptureMarker = "ARC-SCREEN-CAP"

// screenCaptureFormats are the formats screen capture buffers come in.
var screenCaptureFormats = []fourcc.Format{
	fourcc.ABGR8888,
	fourcc.ARGB8888,
	fourcc.XRGB8888,
	fourcc.XBGR8888,
}

// Invalidate copies the host contents of the mapped rectangle into
// the guest and waits for the copy to complete. Only buffers the host
// may write are transferred.
func (b *Backend) Invalidate(bo *gbm.BO, m *gbm.Mapping) error {
	if !b.is3D() {
		return nil
	}
	// Codec usage does not say whether the buffer is input or output;
	// R8 is encoder output, anything else decoder output.
	hostWrites := gbm.UseRendering | gbm.UseCameraWrite | gbm.UseGPUDataBuffer
	if bo.Format == fourcc.R8 {
		hostWrites |= gbm.UseHWVideoEncoder
	} else {
		hostWrites |= gbm.UseHWVideoDecoder
	}
	if bo.ScreenCapture == gbm.ProbeUnknown && bo.Use&gbm.UseRendering == 0 {
		bo.ScreenCapture = gbm.ProbeNegative
		if b.isScreenCapture(bo) {
			bo.ScreenCapture = gbm.ProbePositive
			bo.Use |= gbm.UseRendering
		}
	}
	if bo.Use&hostWrites == 0 {
		return nil
	}
	if b.blobEnabled() && bo.Tiling&drm.BLOB_FLAG_USE_MAPPABLE != 0 {
		return nil
	}

	xfer := b.transfer(bo, m)
	// The host renderer reads the guest stride from the level field,
	// except for rendering resources which it lays out itself.
	if bo.Use&gbm.UseRendering == 0 && b.hostGBM {
		xfer.Level = bo.Strides[0]
	}
	for _, box := range b.boxes(bo, m.Rect) {
		xfer.Box = drm.Box{X: box.X, Y: box.Y, W: box.Width, H: box.Height, D: 1}
		if err := b.dev.TransferFromHost(&xfer); err != nil {
			logging.Errorf("DRM_IOCTL_VIRTGPU_TRANSFER_FROM_HOST failed with %v", err)
			return err
		}
	}
	// Host changes must be visible, and must not overwrite later
	// guest changes.
	if err := b.dev.Wait(m.VMA.Handle); err != nil {
		logging.Errorf("DRM_IOCTL_VIRTGPU_WAIT failed with %v", err)
		return err
	}
	return nil
}

// Flush copies the guest contents of the mapped rectangle to the
// host. It waits for the copy only when hardware other than the GPU
// may read the buffer; GPU reads are ordered after the transfer.
func (b *Backend) Flush(bo *gbm.BO, m *gbm.Mapping) error {
	if !b.is3D() {
		return nil
	}
	if m.VMA.Flags&gbm.MapWrite == 0 {
		return nil
	}
	if b.blobEnabled() && bo.Tiling&drm.BLOB_FLAG_USE_MAPPABLE != 0 {
		return nil
	}

	xfer := b.transfer(bo, m)
	if b.hostGBM {
		xfer.Level = bo.Strides[0]
	}
	for _, box := range b.boxes(bo, m.Rect) {
		xfer.Box = drm.Box{X: box.X, Y: box.Y, W: box.Width, H: box.Height, D: 1}
		if err := b.dev.TransferToHost(&xfer); err != nil {
			logging.Errorf("DRM_IOCTL_VIRTGPU_TRANSFER_TO_HOST failed with %v", err)
			return err
		}
	}
	if bo.Use&gbm.UseNonGPUHW != 0 {
		if err := b.dev.Wait(m.VMA.Handle); err != nil {
			logging.Errorf("DRM_IOCTL_VIRTGPU_WAIT failed with %v", err)
			return err
		}
	}
	return nil
}

// transfer returns the transfer request of m without a box.
func (b *Backend) transfer(bo *gbm.BO, m *gbm.Mapping) drm.Transfer {
	xfer := drm.Transfer{Bo_handle: m.VMA.Handle}
	// The host assumes offset 0 for planar images and finds the
	// planes from the box alone.
	if (m.Rect.X != 0 || m.Rect.Y != 0) && bo.NumPlanes == 1 {
		xfer.Offset = bo.Strides[0]*m.Rect.Y + bo.Format.BytesPerPixel(0)*m.Rect.X
	}
	return xfer
}

// boxes returns the rectangles to transfer for rect, split per plane
// for emulated buffers.
func (b *Backend) boxes(bo *gbm.BO, rect gbm.Rect) []gbm.Rect {
	if b.supportsNatively(bo.Format, bo.Use) {
		return []gbm.Rect{rect}
	}
	if !b.supportsEmulation(bo.Format, bo.Use) {
		panic("virgl: transfer of " + bo.Format.String() + " supported neither natively nor through emulation")
	}
	return transferBoxes(bo.Format, bo.Width, bo.Height, rect)
}

// isScreenCapture reports whether bo is a screen capture buffer by
// looking for the capture marker in the fdinfo of its dma-buf.
func (b *Backend) isScreenCapture(bo *gbm.BO) bool {
	if bo.NumPlanes != 1 || !slices.Contains(screenCaptureFormats, bo.Format) {
		return false
	}
	info, err := b.dev.FDInfo(bo.Handle)
	if err != nil {
		return false
	}
	return strings.Contains(info, screenCaptureMarker)
}
