// SPDX-License-Identifier: Unlicense OR MIT

// Package fourcc describes DRM four-character pixel format codes
// and the memory layout of their planes.
package fourcc

import "fmt"

// Format is a packed four-character code identifying the channel
// layout of a pixel format.
type Format uint32

// MaxPlanes is the maximum number of planes of any format.
const MaxPlanes = 4

func code(a, b, c, d byte) Format {
	return Format(a) | Format(b)<<8 | Format(c)<<16 | Format(d)<<24
}

const (
	R8            Format = 'R' | '8'<<8 | ' '<<16 | ' '<<24
	R16           Format = 'R' | '1'<<8 | '6'<<16 | ' '<<24
	RG88          Format = 'R' | 'G'<<8 | '8'<<16 | '8'<<24
	RGB565        Format = 'R' | 'G'<<8 | '1'<<16 | '6'<<24
	RGB888        Format = 'R' | 'G'<<8 | '2'<<16 | '4'<<24
	BGR888        Format = 'B' | 'G'<<8 | '2'<<16 | '4'<<24
	XRGB8888      Format = 'X' | 'R'<<8 | '2'<<16 | '4'<<24
	XBGR8888      Format = 'X' | 'B'<<8 | '2'<<16 | '4'<<24
	ARGB8888      Format = 'A' | 'R'<<8 | '2'<<16 | '4'<<24
	ABGR8888      Format = 'A' | 'B'<<8 | '2'<<16 | '4'<<24
	ABGR2101010   Format = 'A' | 'B'<<8 | '3'<<16 | '0'<<24
	ABGR16161616F Format = 'A' | 'B'<<8 | '4'<<16 | 'H'<<24
	NV12          Format = 'N' | 'V'<<8 | '1'<<16 | '2'<<24
	NV21          Format = 'N' | 'V'<<8 | '2'<<16 | '1'<<24
	P010          Format = 'P' | '0'<<8 | '1'<<16 | '0'<<24
	YVU420        Format = 'Y' | 'V'<<8 | '1'<<16 | '2'<<24

	// YVU420Android is YVU420 with the Android stride alignment
	// rules: luma rows aligned to 32 bytes, chroma rows to 16.
	YVU420Android Format = '9' | '9'<<8 | '9'<<16 | '7'<<24

	// FlexImplementationDefined lets the allocator pick the format.
	FlexImplementationDefined Format = '9' | '9'<<8 | '9'<<16 | '8'<<24

	// FlexYCbCr420888 is any 4:2:0 YCbCr format of the allocator's choice.
	FlexYCbCr420888 Format = '9' | '9'<<8 | '9'<<16 | '9'<<24
)

// Layout describes the planes of a format.
type Layout struct {
	NumPlanes     int
	BytesPerPixel [MaxPlanes]uint32
	// Horizontal and vertical subsampling factors per plane.
	HSub, VSub [MaxPlanes]uint32
}

var (
	packed1  = Layout{NumPlanes: 1, BytesPerPixel: [MaxPlanes]uint32{1}, HSub: [MaxPlanes]uint32{1}, VSub: [MaxPlanes]uint32{1}}
	packed2  = Layout{NumPlanes: 1, BytesPerPixel: [MaxPlanes]uint32{2}, HSub: [MaxPlanes]uint32{1}, VSub: [MaxPlanes]uint32{1}}
	packed3  = Layout{NumPlanes: 1, BytesPerPixel: [MaxPlanes]uint32{3}, HSub: [MaxPlanes]uint32{1}, VSub: [MaxPlanes]uint32{1}}
	packed4  = Layout{NumPlanes: 1, BytesPerPixel: [MaxPlanes]uint32{4}, HSub: [MaxPlanes]uint32{1}, VSub: [MaxPlanes]uint32{1}}
	packed8  = Layout{NumPlanes: 1, BytesPerPixel: [MaxPlanes]uint32{8}, HSub: [MaxPlanes]uint32{1}, VSub: [MaxPlanes]uint32{1}}
	biplanar = Layout{NumPlanes: 2, BytesPerPixel: [MaxPlanes]uint32{1, 2}, HSub: [MaxPlanes]uint32{1, 2}, VSub: [MaxPlanes]uint32{1, 2}}
	p010     = Layout{NumPlanes: 2, BytesPerPixel: [MaxPlanes]uint32{2, 4}, HSub: [MaxPlanes]uint32{1, 2}, VSub: [MaxPlanes]uint32{1, 2}}
	triplane = Layout{NumPlanes: 3, BytesPerPixel: [MaxPlanes]uint32{1, 1, 1}, HSub: [MaxPlanes]uint32{1, 2, 2}, VSub: [MaxPlanes]uint32{1, 2, 2}}
)

var layouts = map[Format]Layout{
	R8:            packed1,
	R16:           packed2,
	RG88:          packed2,
	RGB565:        packed2,
	RGB888:        packed3,
	BGR888:        packed3,
	XRGB8888:      packed4,
	XBGR8888:      packed4,
	ARGB8888:      packed4,
	ABGR8888:      packed4,
	ABGR2101010:   packed4,
	ABGR16161616F: packed8,
	NV12:          biplanar,
	NV21:          biplanar,
	P010:          p010,
	YVU420:        triplane,
	YVU420Android: triplane,
}

// LayoutOf returns the plane layout of f. Flexible formats have no
// layout until they are resolved.
func LayoutOf(f Format) (Layout, bool) {
	l, ok := layouts[f]
	return l, ok
}

// NumPlanes returns the plane count of f, or 0 for unknown formats.
func (f Format) NumPlanes() int {
	return layouts[f].NumPlanes
}

// BytesPerPixel returns the bytes per pixel of the given plane.
func (f Format) BytesPerPixel(plane int) uint32 {
	return layouts[f].BytesPerPixel[plane]
}

// IsYUV reports whether f is a multi-planar luma/chroma format.
func (f Format) IsYUV() bool {
	return f.NumPlanes() > 1
}

func (f Format) String() string {
	b := [4]byte{byte(f), byte(f >> 8), byte(f >> 16), byte(f >> 24)}
	for _, c := range b {
		if c < ' ' || c > '~' {
			return fmt.Sprintf("%#08x", uint32(f))
		}
	}
	return string(b[:])
}

// Parse parses a format name such as "NV12" or "XR24". Names
// shorter than four characters are padded with spaces.
func Parse(name string) (Format, error) {
	if f, ok := names[name]; ok {
		return f, nil
	}
	if len(name) == 0 || len(name) > 4 {
		return 0, fmt.Errorf("fourcc: invalid format name %q", name)
	}
	b := []byte("    ")
	copy(b, name)
	f := code(b[0], b[1], b[2], b[3])
	if _, ok := layouts[f]; !ok {
		return 0, fmt.Errorf("fourcc: unknown format %q", name)
	}
	return f, nil
}

var names = map[string]Format{
	"R8":                R8,
	"R16":               R16,
	"RG88":              RG88,
	"RGB565":            RGB565,
	"RGB888":            RGB888,
	"BGR888":            BGR888,
	"XRGB8888":          XRGB8888,
	"XBGR8888":          XBGR8888,
	"ARGB8888":          ARGB8888,
	"ABGR8888":          ABGR8888,
	"ABGR2101010":       ABGR2101010,
	"ABGR16161616F":     ABGR16161616F,
	"NV12":              NV12,
	"NV21":              NV21,
	"P010":              P010,
	"YVU420":            YVU420,
	"YVU420_ANDROID":    YVU420Android,
	"FLEX_IMPL_DEFINED": FlexImplementationDefined,
	"FLEX_YCBCR_420":    FlexYCbCr420888,
}

// Align rounds v up to a multiple of a.
func Align(v, a uint32) uint32 {
	return (v + a - 1) / a * a
}

// DivRoundUp returns ceil(n/d).
func DivRoundUp(n, d uint32) uint32 {
	return (n + d - 1) / d
}

// Stride returns the row pitch in bytes of the given plane for a
// buffer width pixels wide.
func Stride(f Format, width uint32, plane int) uint32 {
	l, ok := layouts[f]
	if !ok || plane >= l.NumPlanes {
		return 0
	}
	stride := DivRoundUp(width, l.HSub[plane]) * l.BytesPerPixel[plane]
	if f == YVU420Android {
		if plane != 0 {
			stride = Align(stride, 16)
		} else {
			stride = Align(stride, 32)
		}
	}
	return stride
}

// PlaneStride derives the stride of a chroma plane from the luma
// stride of a buffer.
func PlaneStride(f Format, stride0 uint32, plane int) uint32 {
	if plane == 0 {
		return stride0
	}
	l := layouts[f]
	s := DivRoundUp(stride0*l.BytesPerPixel[plane]/l.BytesPerPixel[0], l.HSub[plane])
	if f == YVU420Android {
		s = Align(s, 16)
	}
	return s
}

// PlaneSize returns the size in bytes of a plane with the given
// stride, for a buffer height rows tall.
func PlaneSize(f Format, stride, height uint32, plane int) uint32 {
	l := layouts[f]
	return stride * DivRoundUp(height, l.VSub[plane])
}
