// SPDX-License-Identifier: Unlicense OR MIT

package drm

import "unsafe"

// Request records of the virtio-gpu and generic DRM ioctls. The
// layouts match the kernel UAPI headers field for field.

type GetParam struct {
	Param uint64
	Value uint64
}

type GetCaps struct {
	Cap_set_id  uint32
	Cap_set_ver uint32
	Addr        uint64
	Size        uint32
	padding     uint32
}

type ResourceCreate struct {
	Target     uint32
	Format     uint32
	Bind       uint32
	Width      uint32
	Height     uint32
	Depth      uint32
	Array_size uint32
	Last_level uint32
	Nr_samples uint32
	Flags      uint32
	Bo_handle  uint32
	Res_handle uint32
	Size       uint32
	Stride     uint32
}

type ResourceCreateBlob struct {
	Blob_mem   uint32
	Blob_flags uint32
	Bo_handle  uint32
	Res_handle uint32
	Size       uint64
	padding    uint32
	Cmd_size   uint32
	Cmd        uint64
	Blob_id    uint64
}

type Map struct {
	Offset  uint64
	Handle  uint32
	padding uint32
}

// ResourceInfo is the ChromeOS extended resource info record. Type
// shares its word with the stride the kernel returns.
type ResourceInfo struct {
	Bo_handle       uint32
	Res_handle      uint32
	Size            uint32
	Type            uint32
	Strides         [4]uint32
	Num_planes      uint32
	Offsets         [4]uint32
	padding         uint32
	Format_modifier uint64
}

type Box struct {
	X, Y, Z uint32
	W, H, D uint32
}

// Transfer is the record of both the transfer-to-host and the
// transfer-from-host ioctls.
type Transfer struct {
	Bo_handle    uint32
	Box          Box
	Level        uint32
	Offset       uint32
	Stride       uint32
	Layer_stride uint32
}

type Wait struct {
	Handle uint32
	Flags  uint32
}

type PrimeHandle struct {
	Handle uint32
	Flags  uint32
	Fd     int32
}

type GemClose struct {
	Handle  uint32
	padding uint32
}

type CreateDumb struct {
	Height uint32
	Width  uint32
	Bpp    uint32
	Flags  uint32
	Handle uint32
	Pitch  uint32
	Size   uint64
}

type MapDumb struct {
	Handle  uint32
	padding uint32
	Offset  uint64
}

type DestroyDumb struct {
	Handle uint32
}

// Record sizes are part of the ioctl numbers; a layout drift fails
// the build.
var (
	_ [0]struct{} = [unsafe.Sizeof(GetParam{}) - 16]struct{}{}
	_ [0]struct{} = [unsafe.Sizeof(GetCaps{}) - 24]struct{}{}
	_ [0]struct{} = [unsafe.Sizeof(ResourceCreate{}) - 56]struct{}{}
	_ [0]struct{} = [unsafe.Sizeof(ResourceCreateBlob{}) - 48]struct{}{}
	_ [0]struct{} = [unsafe.Sizeof(Map{}) - 16]struct{}{}
	_ [0]struct{} = [unsafe.Sizeof(ResourceInfo{}) - 64]struct{}{}
	_ [0]struct{} = [unsafe.Sizeof(Transfer{}) - 44]struct{}{}
	_ [0]struct{} = [unsafe.Sizeof(Wait{}) - 8]struct{}{}
	_ [0]struct{} = [unsafe.Sizeof(PrimeHandle{}) - 12]struct{}{}
	_ [0]struct{} = [unsafe.Sizeof(CreateDumb{}) - 32]struct{}{}
	_ [0]struct{} = [unsafe.Sizeof(MapDumb{}) - 16]struct{}{}

	_ [0]struct{} = [unsafe.Offsetof(ResourceInfo{}.Type) - 12]struct{}{}
	_ [0]struct{} = [unsafe.Offsetof(ResourceInfo{}.Strides) - 16]struct{}{}
	_ [0]struct{} = [unsafe.Offsetof(ResourceInfo{}.Num_planes) - 32]struct{}{}
	_ [0]struct{} = [unsafe.Offsetof(ResourceInfo{}.Offsets) - 36]struct{}{}
	_ [0]struct{} = [unsafe.Offsetof(ResourceInfo{}.Format_modifier) - 56]struct{}{}
)

const (
	// DRM_COMMAND_BASE offsets.
	_DRM_VIRTGPU_MAP                  = 0x01
	_DRM_VIRTGPU_GETPARAM             = 0x03
	_DRM_VIRTGPU_RESOURCE_CREATE      = 0x04
	_DRM_VIRTGPU_RESOURCE_INFO        = 0x05
	_DRM_VIRTGPU_TRANSFER_FROM_HOST   = 0x06
	_DRM_VIRTGPU_TRANSFER_TO_HOST     = 0x07
	_DRM_VIRTGPU_WAIT                 = 0x08
	_DRM_VIRTGPU_GET_CAPS             = 0x09
	_DRM_VIRTGPU_RESOURCE_CREATE_BLOB = 0x0a

	_DRM_COMMAND_BASE = 0x40
	_DRM_IOCTL_BASE   = 'd'

	// Generic DRM requests.
	_DRM_GEM_CLOSE          = 0x09
	_DRM_PRIME_HANDLE_TO_FD = 0x2d
	_DRM_PRIME_FD_TO_HANDLE = 0x2e
	_DRM_MODE_CREATE_DUMB   = 0xb2
	_DRM_MODE_MAP_DUMB      = 0xb3
	_DRM_MODE_DESTROY_DUMB  = 0xb4
)

// GETPARAM parameters.
const (
	PARAM_3D_FEATURES      = 1
	PARAM_CAPSET_QUERY_FIX = 2
	PARAM_RESOURCE_BLOB    = 3
	PARAM_HOST_VISIBLE     = 4
	PARAM_CROSS_DEVICE     = 5
	PARAM_CONTEXT_INIT     = 6
)

const (
	BLOB_MEM_HOST3D = 0x0002

	BLOB_FLAG_USE_MAPPABLE     = 0x0001
	BLOB_FLAG_USE_SHAREABLE    = 0x0002
	BLOB_FLAG_USE_CROSS_DEVICE = 0x0004
)

const RESOURCE_INFO_TYPE_EXTENDED = 0x0001

const (
	_IOC_WRITE = 1
	_IOC_READ  = 2
)

func ioc(dir, nr, size uintptr) uintptr {
	return dir<<30 | size<<16 | _DRM_IOCTL_BASE<<8 | nr
}

func iowr(nr, size uintptr) uintptr {
	return ioc(_IOC_READ|_IOC_WRITE, nr, size)
}

func iow(nr, size uintptr) uintptr {
	return ioc(_IOC_WRITE, nr, size)
}

var (
	ioctlVirtgpuMap                = iowr(_DRM_COMMAND_BASE+_DRM_VIRTGPU_MAP, unsafe.Sizeof(Map{}))
	ioctlVirtgpuGetParam           = iowr(_DRM_COMMAND_BASE+_DRM_VIRTGPU_GETPARAM, unsafe.Sizeof(GetParam{}))
	ioctlVirtgpuResourceCreate     = iowr(_DRM_COMMAND_BASE+_DRM_VIRTGPU_RESOURCE_CREATE, unsafe.Sizeof(ResourceCreate{}))
	ioctlVirtgpuResourceInfo       = iowr(_DRM_COMMAND_BASE+_DRM_VIRTGPU_RESOURCE_INFO, unsafe.Sizeof(ResourceInfo{}))
	ioctlVirtgpuTransferFromHost   = iowr(_DRM_COMMAND_BASE+_DRM_VIRTGPU_TRANSFER_FROM_HOST, unsafe.Sizeof(Transfer{}))
	ioctlVirtgpuTransferToHost     = iowr(_DRM_COMMAND_BASE+_DRM_VIRTGPU_TRANSFER_TO_HOST, unsafe.Sizeof(Transfer{}))
	ioctlVirtgpuWait               = iowr(_DRM_COMMAND_BASE+_DRM_VIRTGPU_WAIT, unsafe.Sizeof(Wait{}))
	ioctlVirtgpuGetCaps            = iowr(_DRM_COMMAND_BASE+_DRM_VIRTGPU_GET_CAPS, unsafe.Sizeof(GetCaps{}))
	ioctlVirtgpuResourceCreateBlob = iowr(_DRM_COMMAND_BASE+_DRM_VIRTGPU_RESOURCE_CREATE_BLOB, unsafe.Sizeof(ResourceCreateBlob{}))

	ioctlGemClose        = iow(_DRM_GEM_CLOSE, unsafe.Sizeof(GemClose{}))
	ioctlPrimeHandleToFD = iowr(_DRM_PRIME_HANDLE_TO_FD, unsafe.Sizeof(PrimeHandle{}))
	ioctlPrimeFDToHandle = iowr(_DRM_PRIME_FD_TO_HANDLE, unsafe.Sizeof(PrimeHandle{}))
	ioctlModeCreateDumb  = iowr(_DRM_MODE_CREATE_DUMB, unsafe.Sizeof(CreateDumb{}))
	ioctlModeMapDumb     = iowr(_DRM_MODE_MAP_DUMB, unsafe.Sizeof(MapDumb{}))
	ioctlModeDestroyDumb = iowr(_DRM_MODE_DESTROY_DUMB, unsafe.Sizeof(DestroyDumb{}))
)
