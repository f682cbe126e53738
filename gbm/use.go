// SPDX-License-Identifier: Unlicense OR MIT

package gbm

import "strings"

// Use is a bitmask of the ways a buffer will be accessed.
type Use uint64

const (
	UseScanout Use = 1 << iota
	UseCursor
	UseRendering
	UseLinear
	UseTexture
	UseSWReadRarely
	UseSWReadOften
	UseSWWriteRarely
	UseSWWriteOften
	UseExternalDisplay
	UseProtected
	UseHWVideoEncoder
	UseCameraWrite
	UseCameraRead
	UseTestAlloc
	UseHWVideoDecoder
	UseRenderScript
	UseGPUDataBuffer
	UseSensorDirectData
	UseFrontRendering

	UseNone Use = 0
)

const (
	UseSWMask = UseSWReadOften | UseSWWriteOften | UseSWReadRarely | UseSWWriteRarely |
		UseFrontRendering

	UseTextureMask = UseLinear | UseRenderScript | UseSWMask | UseTexture

	UseRenderMask = UseTextureMask | UseRendering

	// UseNonGPUHW is the usage of hardware other than the GPU.
	UseNonGPUHW = UseScanout | UseCameraWrite | UseCameraRead | UseHWVideoEncoder |
		UseHWVideoDecoder | UseSensorDirectData
)

var useNames = []struct {
	u    Use
	name string
}{
	{UseScanout, "scanout"},
	{UseCursor, "cursor"},
	{UseRendering, "rendering"},
	{UseLinear, "linear"},
	{UseTexture, "texture"},
	{UseSWReadRarely, "sw-read-rarely"},
	{UseSWReadOften, "sw-read-often"},
	{UseSWWriteRarely, "sw-write-rarely"},
	{UseSWWriteOften, "sw-write-often"},
	{UseExternalDisplay, "external-display"},
	{UseProtected, "protected"},
	{UseHWVideoEncoder, "video-encoder"},
	{UseCameraWrite, "camera-write"},
	{UseCameraRead, "camera-read"},
	{UseTestAlloc, "test-alloc"},
	{UseHWVideoDecoder, "video-decoder"},
	{UseRenderScript, "renderscript"},
	{UseGPUDataBuffer, "gpu-data-buffer"},
	{UseSensorDirectData, "sensor-direct-data"},
	{UseFrontRendering, "front-rendering"},
}

func (u Use) String() string {
	if u == UseNone {
		return "none"
	}
	var parts []string
	for _, n := range useNames {
		if u&n.u != 0 {
			parts = append(parts, n.name)
			u &^= n.u
		}
	}
	if u != 0 {
		parts = append(parts, "unknown")
	}
	return strings.Join(parts, "|")
}

// ParseUse parses a list of usage names separated by '|' or ','.
func ParseUse(s string) (Use, bool) {
	var u Use
	for _, f := range strings.FieldsFunc(s, func(r rune) bool { return r == '|' || r == ',' }) {
		f = strings.TrimSpace(f)
		found := false
		for _, n := range useNames {
			if n.name == f {
				u |= n.u
				found = true
				break
			}
		}
		if !found && f != "none" {
			return 0, false
		}
	}
	return u, true
}

// MapFlags are the access intents of a mapping.
type MapFlags uint32

const (
	MapRead MapFlags = 1 << iota
	MapWrite

	MapReadWrite = MapRead | MapWrite
)
