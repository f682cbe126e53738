// SPDX-License-Identifier: Unlicense OR MIT

package gbm

import (
	"testing"

	"eliasnaur.com/virtgbm/fourcc"
)

func TestCombinations(t *testing.T) {
	var c Combinations
	c.Add(fourcc.XRGB8888, LinearMetadata, UseRendering|UseScanout)
	c.Add(fourcc.NV12, LinearMetadata, UseTexture)
	c.Add(fourcc.NV12, LinearMetadata, UseTexture|UseCameraRead)
	c.Add(fourcc.R8, LinearMetadata, UseTexture)

	tests := []struct {
		f    fourcc.Format
		use  Use
		want bool
	}{
		{fourcc.XRGB8888, UseRendering, true},
		{fourcc.XRGB8888, UseRendering | UseScanout, true},
		{fourcc.XRGB8888, UseCursor, false},
		{fourcc.XRGB8888, UseNone, true},
		{fourcc.NV12, UseTexture | UseCameraRead, true},
		{fourcc.NV12, UseCameraWrite, false},
		{fourcc.ABGR8888, UseNone, false},
	}
	for _, tt := range tests {
		if got := c.Supported(tt.f, tt.use); got != tt.want {
			t.Errorf("Supported(%v, %v) = %t, want %t", tt.f, tt.use, got, tt.want)
		}
	}
	if u, ok := c.Lookup(fourcc.NV12); !ok || u != UseTexture|UseCameraRead {
		t.Errorf("Lookup(NV12) = %v, %t", u, ok)
	}
	if _, ok := c.Lookup(fourcc.ABGR8888); ok {
		t.Error("Lookup(ABGR8888) found a missing format")
	}
	want := []fourcc.Format{fourcc.R8, fourcc.NV12, fourcc.XRGB8888}
	got := c.Formats()
	if len(got) != len(want) {
		t.Fatalf("Formats() = %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("Formats()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if c.Len() != 4 {
		t.Errorf("Len() = %d, want 4", c.Len())
	}
}

func TestCombinationsModify(t *testing.T) {
	var c Combinations
	c.Add(fourcc.R8, LinearMetadata, UseTexture)
	c.Add(fourcc.R8, LinearMetadata, UseSWReadOften)
	tiled := Metadata{Priority: 2, Tiling: 1, Modifier: 7}
	c.Add(fourcc.R8, tiled, UseRendering)

	c.Modify(fourcc.R8, LinearMetadata, UseCameraWrite)
	c.Modify(fourcc.NV12, LinearMetadata, UseCameraWrite)

	all := c.All()
	if len(all) != 3 {
		t.Fatalf("All() = %v, want 3 entries", all)
	}
	if all[0].Use != UseTexture|UseCameraWrite || all[1].Use != UseSWReadOften|UseCameraWrite {
		t.Errorf("linear uses after Modify = %v, %v", all[0].Use, all[1].Use)
	}
	if all[2].Use != UseRendering {
		t.Errorf("tiled use after Modify = %v, want rendering", all[2].Use)
	}
	if c.Supported(fourcc.NV12, UseCameraWrite) {
		t.Error("Modify added a missing format")
	}
	// All returns a copy.
	all[0].Use = UseNone
	if !c.Supported(fourcc.R8, UseTexture) {
		t.Error("mutating All() changed the table")
	}
}
