// SPDX-License-Identifier: Unlicense OR MIT

package gbm

import (
	"errors"
	"testing"

	"eliasnaur.com/virtgbm/drm"
	"eliasnaur.com/virtgbm/fourcc"
	"golang.org/x/sys/unix"
)

// mockDevice implements Device in memory.
type mockDevice struct {
	handles   map[int]uint32
	dumbs     []drm.CreateDumb
	closed    []uint32
	destroyed []uint32
	unmapped  int
	createErr error
}

func (d *mockDevice) GemClose(handle uint32) error {
	d.closed = append(d.closed, handle)
	return nil
}

func (d *mockDevice) PrimeFDToHandle(fd int) (uint32, error) {
	h, ok := d.handles[fd]
	if !ok {
		return 0, &drm.Error{Request: "DRM_IOCTL_PRIME_FD_TO_HANDLE", Errno: unix.EBADF}
	}
	return h, nil
}

func (d *mockDevice) CreateDumb(req *drm.CreateDumb) error {
	if d.createErr != nil {
		return d.createErr
	}
	req.Handle = uint32(len(d.dumbs) + 1)
	req.Pitch = req.Width * req.Bpp / 8
	req.Size = uint64(req.Pitch) * uint64(req.Height)
	d.dumbs = append(d.dumbs, *req)
	return nil
}

func (d *mockDevice) MapDumb(handle uint32) (uint64, error) {
	return uint64(handle) << 12, nil
}

func (d *mockDevice) DestroyDumb(handle uint32) error {
	d.destroyed = append(d.destroyed, handle)
	return nil
}

func (d *mockDevice) Mmap(offset uint64, length int, prot int) ([]byte, error) {
	return make([]byte, length), nil
}

func (d *mockDevice) Munmap(b []byte) error {
	d.unmapped++
	return nil
}

// mockBackend allocates dumb buffers and records the order of the
// driver calls.
type mockBackend struct {
	calls         []string
	initErr       error
	invalidateErr error
}

func (b *mockBackend) record(call string) {
	b.calls = append(b.calls, call)
}

func (b *mockBackend) Name() string { return "mock" }

func (b *mockBackend) Init(drv *Driver) error {
	b.record("init")
	if b.initErr != nil {
		return b.initErr
	}
	drv.AddCombination(fourcc.XRGB8888, LinearMetadata, UseRenderMask|UseScanout)
	drv.AddCombination(fourcc.NV12, LinearMetadata, UseTextureMask)
	drv.ModifyCombination(fourcc.NV12, LinearMetadata, UseCameraWrite)
	return nil
}

func (b *mockBackend) Close() { b.record("close") }

func (b *mockBackend) Create(bo *BO, width, height uint32, format fourcc.Format, use Use) error {
	b.record("create")
	return DumbCreate(bo.Driver().Device(), bo, width, height, format, false)
}

func (b *mockBackend) CreateWithModifiers(bo *BO, width, height uint32, format fourcc.Format, modifiers []uint64) error {
	b.record("create-with-modifiers")
	return b.Create(bo, width, height, format, UseNone)
}

func (b *mockBackend) Destroy(bo *BO) error {
	b.record("destroy")
	return DumbDestroy(bo.Driver().Device(), bo)
}

func (b *mockBackend) Import(bo *BO, data *ImportData) error {
	b.record("import")
	return PrimeImport(bo.Driver().Device(), bo, data)
}

func (b *mockBackend) Map(bo *BO, vma *VMA, flags MapFlags) ([]byte, error) {
	b.record("map")
	return DumbMap(bo.Driver().Device(), bo, vma, flags)
}

func (b *mockBackend) Unmap(bo *BO, vma *VMA) error {
	b.record("unmap")
	return Munmap(bo.Driver().Device(), vma)
}

func (b *mockBackend) Invalidate(bo *BO, m *Mapping) error {
	b.record("invalidate")
	return b.invalidateErr
}

func (b *mockBackend) Flush(bo *BO, m *Mapping) error {
	b.record("flush")
	return nil
}

func (b *mockBackend) ResolveFormatAndUse(format fourcc.Format, use Use) (fourcc.Format, Use) {
	if format == fourcc.FlexImplementationDefined {
		return fourcc.XRGB8888, use | UseLinear
	}
	return format, use
}

func (b *mockBackend) ResourceInfo(bo *BO) (ResourceInfo, error) {
	return ResourceInfo{Strides: bo.Strides, Offsets: bo.Offsets}, nil
}

func (b *mockBackend) MaxTexture2DSize() uint32 { return 4096 }

func newMockDriver(t *testing.T) (*Driver, *mockBackend, *mockDevice) {
	t.Helper()
	dev := &mockDevice{handles: make(map[int]uint32)}
	b := new(mockBackend)
	drv, err := NewWithBackend(dev, b, Options{})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(drv.Close)
	return drv, b, dev
}

var errMock = errors.New("mock failure")
