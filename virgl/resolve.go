// SPDX-License-Identifier: Unlicense OR MIT

package virgl

import (
	"eliasnaur.com/virtgbm/fourcc"
	"eliasnaur.com/virtgbm/gbm"
)

// ResolveFormatAndUse replaces flexible formats with concrete ones and
// adjusts use to what the host provides for them.
func (b *Backend) ResolveFormatAndUse(format fourcc.Format, use gbm.Use) (fourcc.Format, gbm.Use) {
	if b.is3D() {
		return b.resolve3D(format, use)
	}
	return resolve2D(format, use)
}

func (b *Backend) resolve3D(format fourcc.Format, use gbm.Use) (fourcc.Format, gbm.Use) {
	switch format {
	case fourcc.FlexImplementationDefined:
		if use&(gbm.UseCameraRead|gbm.UseCameraWrite) != 0 {
			// Cameras produce NV12.
			format = fourcc.NV12
		} else {
			// Not every host can tile XBGR8888.
			format = fourcc.XBGR8888
			use &^= gbm.UseHWVideoEncoder
			use |= gbm.UseLinear
		}
	case fourcc.FlexYCbCr420888:
		// Every host driver prefers NV12 for media.
		format = fourcc.NV12
	}

	switch format {
	case fourcc.NV12, fourcc.ABGR8888, fourcc.ARGB8888, fourcc.RGB565, fourcc.XBGR8888, fourcc.XRGB8888:
		// The formats the guest may scan out.
		if use&gbm.UseScanout != 0 && !b.supportsNatively(format, gbm.UseScanout) {
			use &^= gbm.UseScanout
		}
	case fourcc.YVU420Android:
		use &^= gbm.UseScanout
		use |= gbm.UseLinear
	}
	return format, use
}

func resolve2D(format fourcc.Format, use gbm.Use) (fourcc.Format, gbm.Use) {
	// Only the primary plane format can be scanned out.
	if format != fourcc.XRGB8888 {
		use &^= gbm.UseScanout
	}
	switch format {
	case fourcc.FlexImplementationDefined:
		if use&(gbm.UseCameraRead|gbm.UseCameraWrite) != 0 {
			format = fourcc.NV12
		} else {
			format = fourcc.XBGR8888
			use &^= gbm.UseHWVideoEncoder
		}
	case fourcc.FlexYCbCr420888:
		format = fourcc.YVU420Android
		use |= gbm.UseLinear
	case fourcc.YVU420Android:
		use |= gbm.UseLinear
	}
	return format, use
}
