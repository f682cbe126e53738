// SPDX-License-Identifier: Unlicense OR MIT

// Package virgl implements the gbm backend of the Linux virtio-gpu
// driver backed by the virglrenderer host renderer.
package virgl

import (
	"fmt"
	"math"
	"sync/atomic"

	"eliasnaur.com/virtgbm/drm"
	"eliasnaur.com/virtgbm/fourcc"
	"eliasnaur.com/virtgbm/gbm"
	"eliasnaur.com/virtgbm/internal/logging"
)

// Name is the registry name of the backend.
const Name = "virtio_gpu"

// Limits of the 2D software renderers. The 2D texture limit is the
// smaller of the SwiftShader and llvmpipe limits.
const (
	max2DTextureSize = 8192
	llvmpipeTileSize = 64
)

const pageSize = 4096

// Device is the kernel interface of the backend. *drm.Device
// implements it.
type Device interface {
	gbm.Device
	GetParam(param uint64) (uint64, error)
	GetCaps(capsetID uint32, buf []byte) error
	ResourceCreate(req *drm.ResourceCreate) error
	ResourceCreateBlob(req *drm.ResourceCreateBlob, cmd []byte) error
	Map(handle uint32) (uint64, error)
	ResourceInfo(req *drm.ResourceInfo) error
	TransferToHost(req *drm.Transfer) error
	TransferFromHost(req *drm.Transfer) error
	Wait(handle uint32) error
	FDInfo(handle uint32) (string, error)
}

var (
	renderTargetFormats = []fourcc.Format{
		fourcc.ABGR8888, fourcc.ARGB8888, fourcc.RGB565, fourcc.XBGR8888, fourcc.XRGB8888,
	}
	dumbTextureSourceFormats = []fourcc.Format{
		fourcc.R8, fourcc.R16, fourcc.YVU420, fourcc.NV12, fourcc.NV21,
		fourcc.YVU420Android, fourcc.ABGR2101010, fourcc.ABGR16161616F,
	}
	textureSourceFormats = []fourcc.Format{
		fourcc.NV12, fourcc.NV21, fourcc.R8, fourcc.R16, fourcc.RG88,
		fourcc.YVU420Android, fourcc.ABGR2101010, fourcc.ABGR16161616F,
	}
)

// Backend is the virtio-gpu backend. Its state is written by Init
// and read-only afterwards, except for the blob id counter.
type Backend struct {
	drv    *gbm.Driver
	dev    Device
	params Params
	caps   capabilities
	// hostGBM reports whether the host allocates buffers through
	// its own buffer manager.
	hostGBM    bool
	nextBlobID atomic.Uint32
}

func init() {
	gbm.Register(Name, func() gbm.Backend { return new(Backend) })
}

func (b *Backend) Name() string {
	return Name
}

// Init queries the deployment parameters and the host capabilities
// and fills the combination table of drv.
func (b *Backend) Init(drv *gbm.Driver) error {
	dev, ok := drv.Device().(Device)
	if !ok {
		return fmt.Errorf("virgl: %T is not a virtio-gpu device", drv.Device())
	}
	b.drv = drv
	b.dev = dev
	b.params = queryParams(dev, drv.Options().Params)
	if b.is3D() {
		b.caps = negotiate(dev, b.params.CapsetFix != 0)
		// Only virglrenderer advertises capabilities, and only a host
		// buffer manager doesn't emulate YUV formats.
		b.hostGBM = b.caps.maxVersion() > 0 &&
			b.supportsNatively(fourcc.NV12, gbm.UseTexture)
	}
	logging.Infof("virgl: %v capset=v%d host_gbm=%t", b.params, b.caps.version(), b.hostGBM)

	linear := gbm.LinearMetadata
	if b.is3D() {
		// The host hypervisor can show these, not necessarily scan
		// them out.
		b.addCombinations(renderTargetFormats, linear, gbm.UseRenderMask|gbm.UseScanout)
		b.addCombinations(textureSourceFormats, linear, gbm.UseTextureMask)
		// Goes through addCombination so scanout is stripped when the
		// host cannot scan out NV12.
		b.addCombination(fourcc.NV12, linear, gbm.UseTextureMask|gbm.UseCameraRead|
			gbm.UseCameraWrite|gbm.UseHWVideoDecoder|gbm.UseHWVideoEncoder|gbm.UseScanout)
	} else {
		// The only format of the virtio primary plane.
		b.addCombination(fourcc.XRGB8888, linear, gbm.UseRenderMask|gbm.UseScanout)
		// The only format of the virtio cursor plane.
		b.addCombination(fourcc.ARGB8888, linear, gbm.UseRenderMask|gbm.UseCursor)
		b.addCombinations(renderTargetFormats, linear, gbm.UseRenderMask)
		b.addCombinations(dumbTextureSourceFormats, linear, gbm.UseTextureMask)
		drv.ModifyCombination(fourcc.NV12, linear, gbm.UseCameraRead|gbm.UseCameraWrite|
			gbm.UseHWVideoDecoder|gbm.UseHWVideoEncoder)
	}

	// Conformance suites expect these.
	b.addCombination(fourcc.RGB888, linear, gbm.UseSWMask)
	b.addCombination(fourcc.BGR888, linear, gbm.UseSWMask)
	// Camera preview needs scanout; it is stripped when the host
	// cannot scan out P010.
	b.addCombination(fourcc.P010, linear, gbm.UseScanout|gbm.UseTexture|gbm.UseSWMask|
		gbm.UseCameraRead|gbm.UseCameraWrite)
	drv.ModifyCombination(fourcc.R8, linear, gbm.UseCameraRead|gbm.UseCameraWrite|
		gbm.UseHWVideoDecoder|gbm.UseHWVideoEncoder|gbm.UseSensorDirectData|gbm.UseGPUDataBuffer)

	if !b.hostGBM {
		codec := gbm.UseCameraRead | gbm.UseCameraWrite | gbm.UseHWVideoDecoder | gbm.UseHWVideoEncoder
		drv.ModifyCombination(fourcc.ABGR8888, linear, codec)
		drv.ModifyCombination(fourcc.XBGR8888, linear, codec)
		drv.ModifyCombination(fourcc.NV21, linear, codec)
		drv.ModifyCombination(fourcc.R16, linear, gbm.UseCameraRead|gbm.UseCameraWrite|gbm.UseHWVideoDecoder)
		drv.ModifyCombination(fourcc.YVU420, linear, codec)
		drv.ModifyCombination(fourcc.YVU420Android, linear, codec)
	}
	return nil
}

func (b *Backend) Close() {
	b.dev = nil
	b.drv = nil
}

func (b *Backend) is3D() bool {
	return b.params.Features3D != 0
}

func (b *Backend) blobEnabled() bool {
	return b.params.ResourceBlob != 0
}

// Params returns the deployment parameters in effect.
func (b *Backend) Params() Params {
	return b.params
}

// CapsetVersion returns the capability set id in use, and the
// version the host reports in it.
func (b *Backend) CapsetVersion() (id int, maxVersion uint32) {
	return b.caps.version(), b.caps.maxVersion()
}

// HostGBM reports whether the host allocates buffers through its own
// buffer manager.
func (b *Backend) HostGBM() bool {
	return b.hostGBM
}

func (b *Backend) MaxTexture2DSize() uint32 {
	if !b.is3D() {
		return max2DTextureSize
	}
	if s := b.caps.maxTexture2DSize(); s != 0 {
		return s
	}
	return math.MaxUint32
}

// ResourceInfo returns the plane layout the host chose for bo. Without
// 3D support it returns the zero value.
func (b *Backend) ResourceInfo(bo *gbm.BO) (gbm.ResourceInfo, error) {
	var info gbm.ResourceInfo
	if !b.is3D() {
		return info, nil
	}
	req := drm.ResourceInfo{
		Bo_handle: bo.Handle,
		Type:      drm.RESOURCE_INFO_TYPE_EXTENDED,
	}
	if err := b.dev.ResourceInfo(&req); err != nil {
		logging.Errorf("DRM_IOCTL_VIRTGPU_RESOURCE_INFO failed with %v", err)
		return info, err
	}
	for p := 0; p < fourcc.MaxPlanes; p++ {
		// Kernels without the extended query leave the strides zero.
		if req.Strides[p] == 0 {
			break
		}
		info.Strides[p] = req.Strides[p]
		info.Offsets[p] = req.Offsets[p]
	}
	info.FormatModifier = req.Format_modifier
	return info, nil
}
