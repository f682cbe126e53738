// SPDX-License-Identifier: Unlicense OR MIT

package virgl

import (
	"eliasnaur.com/virtgbm/fourcc"
	"eliasnaur.com/virtgbm/gbm"
	"eliasnaur.com/virtgbm/internal/logging"
)

// supportsNatively reports whether the host renderer supports format
// for every usage class in use. A host without capabilities supports
// everything.
func (b *Backend) supportsNatively(format fourcc.Format, use gbm.Use) bool {
	c := &b.caps
	if c.maxVersion() == 0 {
		return true
	}
	if use&gbm.UseRendering != 0 && !c.caps.v1.render.supports(format) {
		return false
	}
	if use&gbm.UseTexture != 0 && !c.caps.v1.sampler.supports(format) {
		return false
	}
	if use&gbm.UseScanout != 0 && c.isV2 && !c.caps.scanout.supports(format) {
		return false
	}
	return true
}

// supportsEmulation reports whether format can be allocated as an
// oversized R8 buffer holding each plane as a sub-image.
func (b *Backend) supportsEmulation(format fourcc.Format, use gbm.Use) bool {
	if b.hostGBM {
		return false
	}
	if use&(gbm.UseRendering|gbm.UseScanout) != 0 {
		return false
	}
	if !b.supportsNatively(fourcc.R8, use) {
		return false
	}
	_, ok := emulatedFormats[format]
	return ok
}

// addCombination adds a combination if the host supports it, natively
// or through emulation. Scanout is dropped rather than the whole
// combination when the host cannot scan out format.
func (b *Backend) addCombination(format fourcc.Format, meta gbm.Metadata, use gbm.Use) {
	if b.is3D() {
		if use&gbm.UseScanout != 0 && !b.supportsNatively(format, gbm.UseScanout) {
			logging.Infof("virgl: strip scanout on format %v", format)
			use &^= gbm.UseScanout
		}
		if !b.supportsNatively(format, use) && !b.supportsEmulation(format, use) {
			logging.Infof("virgl: skipping unsupported combination format %v", format)
			return
		}
	}
	b.drv.AddCombination(format, meta, use)
}

func (b *Backend) addCombinations(formats []fourcc.Format, meta gbm.Metadata, use gbm.Use) {
	for _, f := range formats {
		b.addCombination(f, meta, use)
	}
}

// bindRule translates usage bits to virgl bind bits. A rule does not
// apply when the usage holds any of the unless bits.
type bindRule struct {
	use    gbm.Use
	bind   uint32
	unless gbm.Use
}

// bindRules never set both the often and rarely hint of a direction,
// and no hint for protected buffers, because the combination of all
// four hint bits means protected.
var bindRules = []bindRule{
	{use: gbm.UseTexture, bind: VIRGL_BIND_SAMPLER_VIEW},
	{use: gbm.UseRendering, bind: VIRGL_BIND_RENDER_TARGET},
	{use: gbm.UseScanout, bind: VIRGL_BIND_SCANOUT},
	{use: gbm.UseCursor, bind: VIRGL_BIND_CURSOR},
	{use: gbm.UseLinear | gbm.UseSensorDirectData | gbm.UseGPUDataBuffer | gbm.UseFrontRendering, bind: VIRGL_BIND_LINEAR},
	{use: gbm.UseProtected, bind: VIRGL_BIND_MINIGBM_PROTECTED},
	{use: gbm.UseSWReadOften, bind: VIRGL_BIND_MINIGBM_SW_READ_OFTEN, unless: gbm.UseProtected},
	{use: gbm.UseSWReadRarely, bind: VIRGL_BIND_MINIGBM_SW_READ_RARELY, unless: gbm.UseProtected | gbm.UseSWReadOften},
	{use: gbm.UseSWWriteOften, bind: VIRGL_BIND_MINIGBM_SW_WRITE_OFTEN, unless: gbm.UseProtected},
	{use: gbm.UseSWWriteRarely, bind: VIRGL_BIND_MINIGBM_SW_WRITE_RARELY, unless: gbm.UseProtected | gbm.UseSWWriteOften},
	{use: gbm.UseCameraWrite, bind: VIRGL_BIND_MINIGBM_CAMERA_WRITE},
	{use: gbm.UseCameraRead, bind: VIRGL_BIND_MINIGBM_CAMERA_READ},
	{use: gbm.UseHWVideoDecoder, bind: VIRGL_BIND_MINIGBM_HW_VIDEO_DECODER},
	{use: gbm.UseHWVideoEncoder, bind: VIRGL_BIND_MINIGBM_HW_VIDEO_ENCODER},
}

// bindFlags returns the virgl bind flags of use and the usage bits no
// rule consumed. Shared is always set: the guest allocates, not the
// host renderer.
func bindFlags(use gbm.Use) (bind uint32, leftover gbm.Use) {
	bind = VIRGL_BIND_SHARED
	leftover = use
	for _, r := range bindRules {
		if use&r.use == 0 || use&r.unless != 0 {
			continue
		}
		bind |= r.bind
		leftover &^= r.use
	}
	return bind, leftover
}

// computeBind is bindFlags with the leftover bits logged and dropped.
func computeBind(use gbm.Use) uint32 {
	bind, leftover := bindFlags(use)
	if leftover != 0 {
		logging.Errorf("virgl: unhandled bo use flag: %#x (%v)", uint64(leftover), leftover)
	}
	return bind
}
