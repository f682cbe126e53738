// SPDX-License-Identifier: Unlicense OR MIT

package virgl

import (
	"sync"
	"testing"
	"unsafe"

	"eliasnaur.com/virtgbm/drm"
	"eliasnaur.com/virtgbm/fourcc"
	"eliasnaur.com/virtgbm/gbm"
	"golang.org/x/sys/unix"
)

// fakeDevice is an in-memory virtio-gpu device recording every
// request.
type fakeDevice struct {
	mu sync.Mutex

	params    map[uint64]uint64
	caps      capsV2
	capsErr   map[uint32]error
	capsCalls []uint32

	createErr   error
	mapErr      error
	fdinfo      string
	resInfo     drm.ResourceInfo
	resInfoType uint32

	nextHandle  uint32
	created     []drm.ResourceCreate
	blobs       []drm.ResourceCreateBlob
	blobCmds    [][]byte
	dumbs       []drm.CreateDumb
	toHost      []drm.Transfer
	fromHost    []drm.Transfer
	waits       []uint32
	closed      []uint32
	destroyed   []uint32
	fdinfoCalls int
	unmapped    int
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		params:  make(map[uint64]uint64),
		capsErr: make(map[uint32]error),
	}
}

func kernelError(name string, errno unix.Errno) error {
	return &drm.Error{Request: name, Errno: errno}
}

func (f *fakeDevice) handle() uint32 {
	f.nextHandle++
	return f.nextHandle
}

func (f *fakeDevice) GetParam(param uint64) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.params[param]
	if !ok {
		return 0, kernelError("DRM_IOCTL_VIRTGPU_GETPARAM", unix.EINVAL)
	}
	return v, nil
}

func (f *fakeDevice) GetCaps(capsetID uint32, buf []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.capsCalls = append(f.capsCalls, capsetID)
	if err := f.capsErr[capsetID]; err != nil {
		return err
	}
	src := unsafe.Slice((*byte)(unsafe.Pointer(&f.caps)), unsafe.Sizeof(f.caps))
	copy(buf, src)
	return nil
}

func (f *fakeDevice) ResourceCreate(req *drm.ResourceCreate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	req.Bo_handle = f.handle()
	req.Res_handle = req.Bo_handle
	f.created = append(f.created, *req)
	return nil
}

func (f *fakeDevice) ResourceCreateBlob(req *drm.ResourceCreateBlob, cmd []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	req.Bo_handle = f.handle()
	req.Cmd_size = uint32(len(cmd))
	f.blobs = append(f.blobs, *req)
	f.blobCmds = append(f.blobCmds, append([]byte(nil), cmd...))
	return nil
}

func (f *fakeDevice) Map(handle uint32) (uint64, error) {
	if f.mapErr != nil {
		return 0, f.mapErr
	}
	return uint64(handle) << 12, nil
}

func (f *fakeDevice) ResourceInfo(req *drm.ResourceInfo) error {
	f.resInfoType = req.Type
	info := f.resInfo
	info.Bo_handle = req.Bo_handle
	// The kernel returns the stride in the type word.
	info.Type = info.Strides[0]
	*req = info
	return nil
}

func (f *fakeDevice) TransferToHost(req *drm.Transfer) error {
	f.toHost = append(f.toHost, *req)
	return nil
}

func (f *fakeDevice) TransferFromHost(req *drm.Transfer) error {
	f.fromHost = append(f.fromHost, *req)
	return nil
}

func (f *fakeDevice) Wait(handle uint32) error {
	f.waits = append(f.waits, handle)
	return nil
}

func (f *fakeDevice) FDInfo(handle uint32) (string, error) {
	f.fdinfoCalls++
	return f.fdinfo, nil
}

func (f *fakeDevice) GemClose(handle uint32) error {
	f.closed = append(f.closed, handle)
	return nil
}

func (f *fakeDevice) PrimeFDToHandle(fd int) (uint32, error) {
	return uint32(fd) + 100, nil
}

func (f *fakeDevice) CreateDumb(req *drm.CreateDumb) error {
	if f.createErr != nil {
		return f.createErr
	}
	req.Handle = f.handle()
	req.Pitch = req.Width * req.Bpp / 8
	req.Size = uint64(req.Pitch) * uint64(req.Height)
	f.dumbs = append(f.dumbs, *req)
	return nil
}

func (f *fakeDevice) MapDumb(handle uint32) (uint64, error) {
	if f.mapErr != nil {
		return 0, f.mapErr
	}
	return uint64(handle) << 12, nil
}

func (f *fakeDevice) DestroyDumb(handle uint32) error {
	f.destroyed = append(f.destroyed, handle)
	return nil
}

func (f *fakeDevice) Mmap(offset uint64, length int, prot int) ([]byte, error) {
	return make([]byte, length), nil
}

func (f *fakeDevice) Munmap(b []byte) error {
	f.unmapped++
	return nil
}

func (m *supportedFormatMask) set(formats ...fourcc.Format) {
	for _, f := range formats {
		vf := translateFormat(f)
		m.bitmask[vf/32] |= 1 << (vf % 32)
	}
}

var allFormats = []fourcc.Format{
	fourcc.R8, fourcc.R16, fourcc.RG88, fourcc.RGB565, fourcc.RGB888, fourcc.BGR888,
	fourcc.XRGB8888, fourcc.XBGR8888, fourcc.ARGB8888, fourcc.ABGR8888,
	fourcc.ABGR2101010, fourcc.ABGR16161616F, fourcc.NV12, fourcc.NV21,
	fourcc.P010, fourcc.YVU420, fourcc.YVU420Android,
}

// emulatingHost returns a 3D device whose host renderer lacks YUV
// support and can only scan out XRGB8888.
func emulatingHost() *fakeDevice {
	f := newFakeDevice()
	f.params[drm.PARAM_3D_FEATURES] = 1
	f.params[drm.PARAM_CAPSET_QUERY_FIX] = 1
	f.caps.v1.max_version = 2
	f.caps.v1.render.set(renderTargetFormats...)
	f.caps.v1.sampler.set(renderTargetFormats...)
	f.caps.v1.sampler.set(fourcc.R8, fourcc.R16, fourcc.RG88, fourcc.ABGR2101010, fourcc.ABGR16161616F)
	f.caps.scanout.set(fourcc.XRGB8888)
	f.caps.max_texture_2d_size = 16384
	return f
}

// gbmHost returns a 3D device whose host allocates through its own
// buffer manager and supports blob resources.
func gbmHost() *fakeDevice {
	f := newFakeDevice()
	f.params[drm.PARAM_3D_FEATURES] = 1
	f.params[drm.PARAM_CAPSET_QUERY_FIX] = 1
	f.params[drm.PARAM_RESOURCE_BLOB] = 1
	f.params[drm.PARAM_HOST_VISIBLE] = 1
	f.caps.v1.max_version = 2
	f.caps.v1.render.set(renderTargetFormats...)
	f.caps.v1.sampler.set(allFormats...)
	f.caps.scanout.set(renderTargetFormats...)
	f.caps.scanout.set(fourcc.NV12)
	return f
}

// dumbHost returns a device without 3D support.
func dumbHost() *fakeDevice {
	f := newFakeDevice()
	f.params[drm.PARAM_3D_FEATURES] = 0
	return f
}

func newTestDriver(t *testing.T, dev *fakeDevice, params map[string]uint64) (*gbm.Driver, *Backend) {
	t.Helper()
	drv, err := gbm.New(dev, Name, gbm.Options{Params: params})
	if err != nil {
		t.Fatalf("gbm.New: %v", err)
	}
	t.Cleanup(drv.Close)
	return drv, drv.Backend().(*Backend)
}
