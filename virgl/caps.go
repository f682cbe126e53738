// SPDX-License-Identifier: Unlicense OR MIT

package virgl

import (
	"unsafe"

	"eliasnaur.com/virtgbm/fourcc"
	"eliasnaur.com/virtgbm/internal/logging"
)

type supportedFormatMask struct {
	bitmask [16]uint32
}

type capsV1 struct {
	max_version                    uint32
	sampler                        supportedFormatMask
	render                         supportedFormatMask
	depthstencil                   supportedFormatMask
	vertexbuffer                   supportedFormatMask
	bset                           uint32
	glsl_level                     uint32
	max_texture_array_layers       uint32
	max_streamout_buffers          uint32
	max_dual_source_render_targets uint32
	max_render_targets             uint32
	max_samples                    uint32
	prim_mask                      uint32
	max_tbo_size                   uint32
	max_uniform_blocks             uint32
	max_viewports                  uint32
	max_texture_gather_components  uint32
}

type capsV2 struct {
	v1                                  capsV1
	min_aliased_point_size              float32
	max_aliased_point_size              float32
	min_smooth_point_size               float32
	max_smooth_point_size               float32
	min_aliased_line_width              float32
	max_aliased_line_width              float32
	min_smooth_line_width               float32
	max_smooth_line_width               float32
	max_texture_lod_bias                float32
	max_geom_output_vertices            uint32
	max_geom_total_output_components    uint32
	max_vertex_outputs                  uint32
	max_vertex_attribs                  uint32
	max_shader_patch_varyings           uint32
	min_texel_offset                    int32
	max_texel_offset                    int32
	min_texture_gather_offset           int32
	max_texture_gather_offset           int32
	texture_buffer_offset_alignment     uint32
	uniform_buffer_offset_alignment     uint32
	shader_buffer_offset_alignment      uint32
	capability_bits                     uint32
	sample_locations                    [8]uint32
	max_vertex_attrib_stride            uint32
	max_shader_buffer_frag_compute      uint32
	max_shader_buffer_other_stages      uint32
	max_shader_image_frag_compute       uint32
	max_shader_image_other_stages       uint32
	max_image_samples                   uint32
	max_compute_work_group_invocations  uint32
	max_compute_shared_memory_size      uint32
	max_compute_grid_size               [3]uint32
	max_compute_block_size              [3]uint32
	max_texture_2d_size                 uint32
	max_texture_3d_size                 uint32
	max_texture_cube_size               uint32
	max_combined_shader_buffers         uint32
	max_atomic_counters                 [6]uint32
	max_atomic_counter_buffers          [6]uint32
	max_combined_atomic_counters        uint32
	max_combined_atomic_counter_buffers uint32
	host_feature_check_version          uint32
	supported_readback_formats          supportedFormatMask
	scanout                             supportedFormatMask
}

const (
	_VIRTIO_GPU_CAPSET_VIRGL  = 1
	_VIRTIO_GPU_CAPSET_VIRGL2 = 2
)

// The legacy capability set is exactly 308 bytes.
var _ [0]struct{} = [unsafe.Sizeof(capsV1{}) - 308]struct{}{}

// capabilities is the capability set of the host renderer. It is
// fetched once by negotiate and never changes afterwards.
type capabilities struct {
	isV2 bool
	caps capsV2
}

// capsDevice is the part of Device negotiate needs.
type capsDevice interface {
	GetCaps(capsetID uint32, buf []byte) error
}

// negotiate fetches the capability set. The extended set is requested
// only when the kernel reports the capset size fix; if that fails the
// legacy set is tried once. When both fail the returned set is all
// zero, under which every format is reported supported.
func negotiate(dev capsDevice, capsetFix bool) capabilities {
	var c capabilities
	if capsetFix {
		buf := unsafe.Slice((*byte)(unsafe.Pointer(&c.caps)), unsafe.Sizeof(c.caps))
		err := dev.GetCaps(_VIRTIO_GPU_CAPSET_VIRGL2, buf)
		if err == nil {
			c.isV2 = true
			return c
		}
		logging.Errorf("DRM_IOCTL_VIRTGPU_GET_CAPS failed with %v", err)
		c.caps = capsV2{}
	}
	buf := unsafe.Slice((*byte)(unsafe.Pointer(&c.caps.v1)), unsafe.Sizeof(c.caps.v1))
	if err := dev.GetCaps(_VIRTIO_GPU_CAPSET_VIRGL, buf); err != nil {
		logging.Errorf("DRM_IOCTL_VIRTGPU_GET_CAPS failed with %v", err)
		c.caps = capsV2{}
	}
	return c
}

// version returns the capability set id in use: 2 for the extended
// layout, 1 otherwise.
func (c *capabilities) version() int {
	if c.isV2 {
		return _VIRTIO_GPU_CAPSET_VIRGL2
	}
	return _VIRTIO_GPU_CAPSET_VIRGL
}

func (c *capabilities) maxVersion() uint32 {
	return c.caps.v1.max_version
}

// maxTexture2DSize returns the host texture size limit, or 0 when
// the host does not report one.
func (c *capabilities) maxTexture2DSize() uint32 {
	if !c.isV2 {
		return 0
	}
	return c.caps.max_texture_2d_size
}

func (m *supportedFormatMask) supports(f fourcc.Format) bool {
	vf := translateFormat(f)
	if vf == 0 {
		logging.Errorf("virgl: unhandled format %v", f)
		return false
	}
	idx, bit := vf/32, vf%32
	if int(idx) >= len(m.bitmask) {
		return false
	}
	return m.bitmask[idx]&(1<<bit) != 0
}
