// SPDX-License-Identifier: Unlicense OR MIT

// Package pci discovers PCI functions and their DRM render nodes
// through sysfs.
package pci

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"eliasnaur.com/virtgbm/internal/logging"
	"golang.org/x/exp/slices"
)

// Address represents a PCI function.
type Address struct {
	Domain                uint16
	Bus, Device, Function uint8
}

// Function is a discovered PCI function.
type Function struct {
	Address
	VendorID, DeviceID uint16
	Class              uint32
	// RenderNode is the device path of the DRM render node, or
	// empty if the function has none.
	RenderNode string
}

const (
	VendorVirtio    = 0x1af4
	DeviceVirtioGPU = 0x1050

	// ClassDisplay is the base class of display controllers.
	ClassDisplay = 0x03
)

// ErrNotFound is returned when no matching function exists.
var ErrNotFound = errors.New("pci: device not found")

// Sysfs is a sysfs tree mounted at Root.
type Sysfs struct {
	Root string
	// DevRoot is where render nodes appear; /dev/dri if empty.
	DevRoot string
}

// ParseAddress parses an address in the DDDD:BB:DD.F form.
func ParseAddress(s string) (Address, error) {
	var a Address
	dom, rest, ok1 := strings.Cut(s, ":")
	bus, rest, ok2 := strings.Cut(rest, ":")
	dev, fn, ok3 := strings.Cut(rest, ".")
	if !ok1 || !ok2 || !ok3 {
		return a, fmt.Errorf("pci: invalid address %q", s)
	}
	fields := []struct {
		s    string
		bits int
		dst  func(uint64)
	}{
		{dom, 16, func(v uint64) { a.Domain = uint16(v) }},
		{bus, 8, func(v uint64) { a.Bus = uint8(v) }},
		{dev, 5, func(v uint64) { a.Device = uint8(v) }},
		{fn, 3, func(v uint64) { a.Function = uint8(v) }},
	}
	for _, f := range fields {
		v, err := strconv.ParseUint(f.s, 16, f.bits)
		if err != nil {
			return Address{}, fmt.Errorf("pci: invalid address %q: %w", s, err)
		}
		f.dst(v)
	}
	return a, nil
}

func (a Address) String() string {
	return fmt.Sprintf("%04x:%02x:%02x.%x", a.Domain, a.Bus, a.Device, a.Function)
}

func (a Address) compare(b Address) int {
	ka := uint64(a.Domain)<<16 | uint64(a.Bus)<<8 | uint64(a.Device)<<3 | uint64(a.Function)
	kb := uint64(b.Domain)<<16 | uint64(b.Bus)<<8 | uint64(b.Device)<<3 | uint64(b.Function)
	switch {
	case ka < kb:
		return -1
	case ka > kb:
		return 1
	}
	return 0
}

func (s Sysfs) devicesDir() string {
	return filepath.Join(s.Root, "bus", "pci", "devices")
}

func (s Sysfs) dir(a Address) string {
	return filepath.Join(s.devicesDir(), a.String())
}

// Detect returns the addresses of every PCI function in ascending
// order. Bridges and multi-function devices are already flattened by
// the kernel.
func (s Sysfs) Detect() ([]Address, error) {
	entries, err := os.ReadDir(s.devicesDir())
	if err != nil {
		return nil, fmt.Errorf("pci: %w", err)
	}
	var addrs []Address
	for _, e := range entries {
		a, err := ParseAddress(e.Name())
		if err != nil {
			logging.Debugf("pci: skipping %s: %v", e.Name(), err)
			continue
		}
		addrs = append(addrs, a)
	}
	slices.SortFunc(addrs, Address.compare)
	return addrs, nil
}

func (s Sysfs) readHex(a Address, attr string, bits int) (uint64, error) {
	b, err := os.ReadFile(filepath.Join(s.dir(a), attr))
	if err != nil {
		return 0, fmt.Errorf("pci: %w", err)
	}
	v, err := strconv.ParseUint(strings.TrimSpace(string(b)), 0, bits)
	if err != nil {
		return 0, fmt.Errorf("pci: %s %s: %w", a, attr, err)
	}
	return v, nil
}

func (s Sysfs) ReadVendorID(a Address) (uint16, error) {
	v, err := s.readHex(a, "vendor", 16)
	return uint16(v), err
}

func (s Sysfs) ReadDeviceID(a Address) (uint16, error) {
	v, err := s.readHex(a, "device", 16)
	return uint16(v), err
}

// ReadClass returns the 24 bit class code: base class, sub class and
// programming interface.
func (s Sysfs) ReadClass(a Address) (uint32, error) {
	v, err := s.readHex(a, "class", 24)
	return uint32(v), err
}

// RenderNode returns the path of the DRM render node of a, or
// ErrNotFound.
func (s Sysfs) RenderNode(a Address) (string, error) {
	entries, err := os.ReadDir(filepath.Join(s.dir(a), "drm"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("pci: %w", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "renderD") {
			devRoot := s.DevRoot
			if devRoot == "" {
				devRoot = "/dev/dri"
			}
			return filepath.Join(devRoot, e.Name()), nil
		}
	}
	return "", ErrNotFound
}

// Describe reads the identification of a.
func (s Sysfs) Describe(a Address) (Function, error) {
	f := Function{Address: a}
	var err error
	if f.VendorID, err = s.ReadVendorID(a); err != nil {
		return f, err
	}
	if f.DeviceID, err = s.ReadDeviceID(a); err != nil {
		return f, err
	}
	if f.Class, err = s.ReadClass(a); err != nil {
		return f, err
	}
	node, err := s.RenderNode(a)
	switch {
	case err == nil:
		f.RenderNode = node
	case !errors.Is(err, ErrNotFound):
		return f, err
	}
	return f, nil
}

// DisplayFunctions returns the display controllers.
func (s Sysfs) DisplayFunctions() ([]Function, error) {
	addrs, err := s.Detect()
	if err != nil {
		return nil, err
	}
	var funcs []Function
	for _, a := range addrs {
		f, err := s.Describe(a)
		if err != nil {
			logging.Warnf("pci: %s: %v", a, err)
			continue
		}
		if f.Class>>16 == ClassDisplay {
			funcs = append(funcs, f)
		}
	}
	return funcs, nil
}

// FindVirtioGPU returns the first virtio-gpu function with a render
// node.
func (s Sysfs) FindVirtioGPU() (Function, error) {
	funcs, err := s.DisplayFunctions()
	if err != nil {
		return Function{}, err
	}
	for _, f := range funcs {
		if f.VendorID == VendorVirtio && f.DeviceID == DeviceVirtioGPU && f.RenderNode != "" {
			return f, nil
		}
	}
	return Function{}, ErrNotFound
}
