// SPDX-License-Identifier: Unlicense OR MIT

package fourcc

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	tests := []struct {
		f    Format
		want string
	}{
		{NV12, "NV12"},
		{XRGB8888, "XR24"},
		{R8, "R8  "},
		{YVU420Android, "9997"},
	}
	for _, tt := range tests {
		if got := tt.f.String(); got != tt.want {
			t.Errorf("%#x.String() = %q, want %q", uint32(tt.f), got, tt.want)
		}
	}
	if got := Format(1).String(); !strings.HasPrefix(got, "0x") {
		t.Errorf("Format(1).String() = %q, want hexadecimal", got)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		want Format
	}{
		{"NV12", NV12},
		{"XR24", XRGB8888},
		{"R8", R8},
		{"XBGR8888", XBGR8888},
		{"YVU420_ANDROID", YVU420Android},
		{"FLEX_IMPL_DEFINED", FlexImplementationDefined},
	}
	for _, tt := range tests {
		got, err := Parse(tt.name)
		if err != nil {
			t.Errorf("Parse(%q): %v", tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
	for _, name := range []string{"", "ZZZZ", "TOOLONG"} {
		if _, err := Parse(name); err == nil {
			t.Errorf("Parse(%q) succeeded, want error", name)
		}
	}
}

func TestLayoutOf(t *testing.T) {
	for _, f := range []Format{FlexImplementationDefined, FlexYCbCr420888} {
		if _, ok := LayoutOf(f); ok {
			t.Errorf("LayoutOf(%v) ok, want no layout", f)
		}
		if n := f.NumPlanes(); n != 0 {
			t.Errorf("%v.NumPlanes() = %d, want 0", f, n)
		}
	}
	tests := []struct {
		f      Format
		planes int
		yuv    bool
	}{
		{R8, 1, false},
		{ABGR16161616F, 1, false},
		{NV12, 2, true},
		{P010, 2, true},
		{YVU420, 3, true},
	}
	for _, tt := range tests {
		if n := tt.f.NumPlanes(); n != tt.planes {
			t.Errorf("%v.NumPlanes() = %d, want %d", tt.f, n, tt.planes)
		}
		if y := tt.f.IsYUV(); y != tt.yuv {
			t.Errorf("%v.IsYUV() = %t, want %t", tt.f, y, tt.yuv)
		}
	}
}

func TestStride(t *testing.T) {
	tests := []struct {
		f     Format
		width uint32
		plane int
		want  uint32
	}{
		{R8, 100, 0, 100},
		{RGB888, 100, 0, 300},
		{ABGR8888, 100, 0, 400},
		{ABGR16161616F, 100, 0, 800},
		{NV12, 100, 0, 100},
		{NV12, 100, 1, 100},
		{NV12, 101, 1, 102},
		{P010, 100, 1, 200},
		{YVU420, 100, 1, 50},
		{YVU420Android, 100, 0, 128},
		{YVU420Android, 100, 1, 64},
		{YVU420Android, 64, 2, 32},
		{NV12, 100, 2, 0},
	}
	for _, tt := range tests {
		if got := Stride(tt.f, tt.width, tt.plane); got != tt.want {
			t.Errorf("Stride(%v, %d, %d) = %d, want %d", tt.f, tt.width, tt.plane, got, tt.want)
		}
	}
}

func TestPlaneStrideAndSize(t *testing.T) {
	tests := []struct {
		f          Format
		stride0    uint32
		height     uint32
		plane      int
		wantStride uint32
		wantSize   uint32
	}{
		{NV12, 64, 64, 1, 64, 2048},
		{NV12, 64, 63, 1, 64, 2048},
		{P010, 200, 10, 1, 200, 1000},
		{YVU420, 128, 64, 2, 64, 2048},
		{YVU420Android, 160, 10, 1, 80, 400},
		{YVU420Android, 96, 10, 1, 48, 240},
		{ABGR8888, 400, 50, 0, 400, 20000},
	}
	for _, tt := range tests {
		stride := PlaneStride(tt.f, tt.stride0, tt.plane)
		if stride != tt.wantStride {
			t.Errorf("PlaneStride(%v, %d, %d) = %d, want %d", tt.f, tt.stride0, tt.plane, stride, tt.wantStride)
		}
		if size := PlaneSize(tt.f, stride, tt.height, tt.plane); size != tt.wantSize {
			t.Errorf("PlaneSize(%v, %d, %d, %d) = %d, want %d", tt.f, stride, tt.height, tt.plane, size, tt.wantSize)
		}
	}
}

func TestAlign(t *testing.T) {
	if got := Align(100, 64); got != 128 {
		t.Errorf("Align(100, 64) = %d, want 128", got)
	}
	if got := Align(128, 64); got != 128 {
		t.Errorf("Align(128, 64) = %d, want 128", got)
	}
	if got := DivRoundUp(7, 2); got != 4 {
		t.Errorf("DivRoundUp(7, 2) = %d, want 4", got)
	}
}
