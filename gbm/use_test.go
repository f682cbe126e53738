// SPDX-License-Identifier: Unlicense OR MIT

package gbm

import "testing"

func TestUseString(t *testing.T) {
	tests := []struct {
		u    Use
		want string
	}{
		{UseNone, "none"},
		{UseScanout, "scanout"},
		{UseRendering | UseTexture, "rendering|texture"},
		{UseCameraRead | 1<<31, "camera-read|unknown"},
	}
	for _, tt := range tests {
		if got := tt.u.String(); got != tt.want {
			t.Errorf("Use(%#x).String() = %q, want %q", uint64(tt.u), got, tt.want)
		}
	}
}

func TestParseUse(t *testing.T) {
	tests := []struct {
		s    string
		want Use
		ok   bool
	}{
		{"", UseNone, true},
		{"none", UseNone, true},
		{"texture", UseTexture, true},
		{"rendering|scanout", UseRendering | UseScanout, true},
		{"sw-read-often, sw-write-often", UseSWReadOften | UseSWWriteOften, true},
		{"texture|bogus", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseUse(tt.s)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseUse(%q) = %v, %t, want %v, %t", tt.s, got, ok, tt.want, tt.ok)
		}
	}
	for _, n := range useNames {
		u, ok := ParseUse(n.u.String())
		if !ok || u != n.u {
			t.Errorf("ParseUse(%q) = %v, %t", n.u.String(), u, ok)
		}
	}
}

func TestUseMasks(t *testing.T) {
	if UseRenderMask&UseRendering == 0 || UseRenderMask&UseTexture == 0 {
		t.Errorf("UseRenderMask = %v", UseRenderMask)
	}
	if UseTextureMask&UseRendering != 0 {
		t.Errorf("UseTextureMask = %v includes rendering", UseTextureMask)
	}
	if UseNonGPUHW&(UseTexture|UseRendering) != 0 {
		t.Errorf("UseNonGPUHW = %v includes GPU usage", UseNonGPUHW)
	}
}
