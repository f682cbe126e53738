// SPDX-License-Identifier: Unlicense OR MIT

// Package drm is a thin binding to the DRM render node interface of
// the Linux virtio-gpu driver.
package drm

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Device is an open DRM device node.
type Device struct {
	fd int
}

// Open opens the DRM node at path for reading and writing.
func Open(path string) (*Device, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("drm: open %s: %w", path, err)
	}
	return &Device{fd: fd}, nil
}

// FD returns the file descriptor of the device.
func (d *Device) FD() int {
	return d.fd
}

func (d *Device) Close() error {
	if d.fd < 0 {
		return nil
	}
	err := unix.Close(d.fd)
	d.fd = -1
	return err
}

// ioctl issues a request, restarting it when interrupted.
func (d *Device) ioctl(name string, req uintptr, arg unsafe.Pointer) error {
	for {
		_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(d.fd), req, uintptr(arg))
		switch errno {
		case 0:
			return nil
		case unix.EINTR, unix.EAGAIN:
			continue
		}
		return &Error{Request: name, Errno: errno}
	}
}

// Error is a failed device request.
type Error struct {
	Request string
	Errno   unix.Errno
}

func (e *Error) Error() string {
	return fmt.Sprintf("drm: %s failed with %v", e.Request, e.Errno)
}

func (e *Error) Unwrap() error {
	return e.Errno
}

// Errno returns the OS error code carried by err, or EIO when err
// does not originate from a system call.
func Errno(err error) unix.Errno {
	var errno unix.Errno
	if errors.As(err, &errno) {
		return errno
	}
	return unix.EIO
}

func (d *Device) GetParam(param uint64) (uint64, error) {
	req := GetParam{Param: param}
	if err := d.ioctl("DRM_IOCTL_VIRTGPU_GETPARAM", ioctlVirtgpuGetParam, unsafe.Pointer(&req)); err != nil {
		return 0, err
	}
	return req.Value, nil
}

// GetCaps fills buf with the capability set capsetID.
func (d *Device) GetCaps(capsetID uint32, buf []byte) error {
	if len(buf) == 0 {
		return &Error{Request: "DRM_IOCTL_VIRTGPU_GET_CAPS", Errno: unix.EINVAL}
	}
	req := GetCaps{
		Cap_set_id: capsetID,
		Addr:       uint64(uintptr(unsafe.Pointer(&buf[0]))),
		Size:       uint32(len(buf)),
	}
	err := d.ioctl("DRM_IOCTL_VIRTGPU_GET_CAPS", ioctlVirtgpuGetCaps, unsafe.Pointer(&req))
	runtime.KeepAlive(buf)
	return err
}

func (d *Device) ResourceCreate(req *ResourceCreate) error {
	return d.ioctl("DRM_IOCTL_VIRTGPU_RESOURCE_CREATE", ioctlVirtgpuResourceCreate, unsafe.Pointer(req))
}

// ResourceCreateBlob creates a blob resource described by the
// virgl command stream cmd.
func (d *Device) ResourceCreateBlob(req *ResourceCreateBlob, cmd []byte) error {
	if len(cmd) > 0 {
		req.Cmd = uint64(uintptr(unsafe.Pointer(&cmd[0])))
		req.Cmd_size = uint32(len(cmd))
	}
	err := d.ioctl("DRM_IOCTL_VIRTGPU_RESOURCE_CREATE_BLOB", ioctlVirtgpuResourceCreateBlob, unsafe.Pointer(req))
	runtime.KeepAlive(cmd)
	return err
}

// Map returns the mmap offset of a buffer handle.
func (d *Device) Map(handle uint32) (uint64, error) {
	req := Map{Handle: handle}
	if err := d.ioctl("DRM_IOCTL_VIRTGPU_MAP", ioctlVirtgpuMap, unsafe.Pointer(&req)); err != nil {
		return 0, err
	}
	return req.Offset, nil
}

func (d *Device) ResourceInfo(req *ResourceInfo) error {
	return d.ioctl("DRM_IOCTL_VIRTGPU_RESOURCE_INFO", ioctlVirtgpuResourceInfo, unsafe.Pointer(req))
}

func (d *Device) TransferToHost(req *Transfer) error {
	return d.ioctl("DRM_IOCTL_VIRTGPU_TRANSFER_TO_HOST", ioctlVirtgpuTransferToHost, unsafe.Pointer(req))
}

func (d *Device) TransferFromHost(req *Transfer) error {
	return d.ioctl("DRM_IOCTL_VIRTGPU_TRANSFER_FROM_HOST", ioctlVirtgpuTransferFromHost, unsafe.Pointer(req))
}

// Wait blocks until the host is done with every transfer issued for
// handle.
func (d *Device) Wait(handle uint32) error {
	req := Wait{Handle: handle}
	return d.ioctl("DRM_IOCTL_VIRTGPU_WAIT", ioctlVirtgpuWait, unsafe.Pointer(&req))
}

func (d *Device) GemClose(handle uint32) error {
	req := GemClose{Handle: handle}
	return d.ioctl("DRM_IOCTL_GEM_CLOSE", ioctlGemClose, unsafe.Pointer(&req))
}

func (d *Device) PrimeHandleToFD(handle uint32) (int, error) {
	req := PrimeHandle{Handle: handle, Flags: unix.O_CLOEXEC | unix.O_RDWR}
	if err := d.ioctl("DRM_IOCTL_PRIME_HANDLE_TO_FD", ioctlPrimeHandleToFD, unsafe.Pointer(&req)); err != nil {
		return -1, err
	}
	return int(req.Fd), nil
}

func (d *Device) PrimeFDToHandle(fd int) (uint32, error) {
	req := PrimeHandle{Fd: int32(fd)}
	if err := d.ioctl("DRM_IOCTL_PRIME_FD_TO_HANDLE", ioctlPrimeFDToHandle, unsafe.Pointer(&req)); err != nil {
		return 0, err
	}
	return req.Handle, nil
}

// FDInfo exports handle as a dma-buf and returns the fdinfo text
// the kernel reports for it. At most 255 bytes are read.
func (d *Device) FDInfo(handle uint32) (string, error) {
	fd, err := d.PrimeHandleToFD(handle)
	if err != nil {
		return "", err
	}
	defer unix.Close(fd)
	f, err := os.Open(fmt.Sprintf("/proc/self/fdinfo/%d", fd))
	if err != nil {
		return "", err
	}
	defer f.Close()
	var buf [255]byte
	n, err := f.Read(buf[:])
	if err != nil {
		return "", err
	}
	return string(buf[:n]), nil
}

func (d *Device) CreateDumb(req *CreateDumb) error {
	return d.ioctl("DRM_IOCTL_MODE_CREATE_DUMB", ioctlModeCreateDumb, unsafe.Pointer(req))
}

func (d *Device) MapDumb(handle uint32) (uint64, error) {
	req := MapDumb{Handle: handle}
	if err := d.ioctl("DRM_IOCTL_MODE_MAP_DUMB", ioctlModeMapDumb, unsafe.Pointer(&req)); err != nil {
		return 0, err
	}
	return req.Offset, nil
}

func (d *Device) DestroyDumb(handle uint32) error {
	req := DestroyDumb{Handle: handle}
	return d.ioctl("DRM_IOCTL_MODE_DESTROY_DUMB", ioctlModeDestroyDumb, unsafe.Pointer(&req))
}

// Mmap maps length bytes of the device at offset, shared with the
// kernel.
func (d *Device) Mmap(offset uint64, length int, prot int) ([]byte, error) {
	return unix.Mmap(d.fd, int64(offset), length, prot, unix.MAP_SHARED)
}

func (d *Device) Munmap(b []byte) error {
	return unix.Munmap(b)
}
