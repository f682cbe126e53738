// SPDX-License-Identifier: Unlicense OR MIT

package virgl

import (
	"encoding/binary"

	"eliasnaur.com/virtgbm/fourcc"
)

const (
	VIRGL_FORMAT_B8G8R8A8_UNORM     = 1
	VIRGL_FORMAT_B8G8R8X8_UNORM     = 2
	VIRGL_FORMAT_B5G6R5_UNORM       = 7
	VIRGL_FORMAT_R10G10B10A2_UNORM  = 8
	VIRGL_FORMAT_R16_UNORM          = 48
	VIRGL_FORMAT_R8_UNORM           = 64
	VIRGL_FORMAT_R8G8_UNORM         = 65
	VIRGL_FORMAT_R8G8B8_UNORM       = 66
	VIRGL_FORMAT_R8G8B8A8_UNORM     = 67
	VIRGL_FORMAT_R16G16B16A16_FLOAT = 94
	VIRGL_FORMAT_R8G8B8X8_UNORM     = 134
	VIRGL_FORMAT_YV12               = 163
	VIRGL_FORMAT_NV12               = 166
	VIRGL_FORMAT_NV21               = 167
	VIRGL_FORMAT_P010               = 314
)

const (
	VIRGL_BIND_RENDER_TARGET = 1 << 1
	VIRGL_BIND_SAMPLER_VIEW  = 1 << 3
	VIRGL_BIND_CURSOR        = 1 << 16
	VIRGL_BIND_SCANOUT       = 1 << 18
	VIRGL_BIND_LINEAR        = 1 << 22

	// The host allocates through its own buffer manager.
	VIRGL_BIND_SHARED = 1 << 20

	VIRGL_BIND_MINIGBM_CAMERA_WRITE     = 1 << 23
	VIRGL_BIND_MINIGBM_CAMERA_READ      = 1 << 24
	VIRGL_BIND_MINIGBM_HW_VIDEO_DECODER = 1 << 25
	VIRGL_BIND_MINIGBM_HW_VIDEO_ENCODER = 1 << 26
	VIRGL_BIND_MINIGBM_SW_READ_OFTEN    = 1 << 27
	VIRGL_BIND_MINIGBM_SW_READ_RARELY   = 1 << 28
	VIRGL_BIND_MINIGBM_SW_WRITE_OFTEN   = 1 << 29
	VIRGL_BIND_MINIGBM_SW_WRITE_RARELY  = 1 << 30

	// Protected content sets every software hint bit.
	VIRGL_BIND_MINIGBM_PROTECTED = 0xf << 27
)

const _VIRGL_CCMD_PIPE_RESOURCE_CREATE = 48

// Dword indices of a PIPE_RESOURCE_CREATE command; index 0 is the
// command header.
const (
	_VIRGL_PIPE_RES_CREATE_SIZE       = 11
	_VIRGL_PIPE_RES_CREATE_FORMAT     = 1
	_VIRGL_PIPE_RES_CREATE_BIND       = 2
	_VIRGL_PIPE_RES_CREATE_TARGET     = 3
	_VIRGL_PIPE_RES_CREATE_WIDTH      = 4
	_VIRGL_PIPE_RES_CREATE_HEIGHT     = 5
	_VIRGL_PIPE_RES_CREATE_DEPTH      = 6
	_VIRGL_PIPE_RES_CREATE_ARRAY_SIZE = 7
	_VIRGL_PIPE_RES_CREATE_LAST_LEVEL = 8
	_VIRGL_PIPE_RES_CREATE_NR_SAMPLES = 9
	_VIRGL_PIPE_RES_CREATE_FLAGS      = 10
	_VIRGL_PIPE_RES_CREATE_BLOB_ID    = 11
)

const PIPE_TEXTURE_2D = 2

func encodeCmdHeader(size uint16, typ uint8, subtype uint8) uint32 {
	return uint32(size)<<16 | uint32(subtype)<<8 | uint32(typ)
}

// translateFormat returns the virgl format of f, or 0 if virgl has
// no equivalent.
func translateFormat(f fourcc.Format) uint32 {
	switch f {
	case fourcc.BGR888, fourcc.RGB888:
		return VIRGL_FORMAT_R8G8B8_UNORM
	case fourcc.XRGB8888:
		return VIRGL_FORMAT_B8G8R8X8_UNORM
	case fourcc.ARGB8888:
		return VIRGL_FORMAT_B8G8R8A8_UNORM
	case fourcc.XBGR8888:
		return VIRGL_FORMAT_R8G8B8X8_UNORM
	case fourcc.ABGR8888:
		return VIRGL_FORMAT_R8G8B8A8_UNORM
	case fourcc.ABGR16161616F:
		return VIRGL_FORMAT_R16G16B16A16_FLOAT
	case fourcc.ABGR2101010:
		return VIRGL_FORMAT_R10G10B10A2_UNORM
	case fourcc.RGB565:
		return VIRGL_FORMAT_B5G6R5_UNORM
	case fourcc.R8:
		return VIRGL_FORMAT_R8_UNORM
	case fourcc.R16:
		return VIRGL_FORMAT_R16_UNORM
	case fourcc.RG88:
		return VIRGL_FORMAT_R8G8_UNORM
	case fourcc.NV12:
		return VIRGL_FORMAT_NV12
	case fourcc.NV21:
		return VIRGL_FORMAT_NV21
	case fourcc.P010:
		return VIRGL_FORMAT_P010
	case fourcc.YVU420, fourcc.YVU420Android:
		return VIRGL_FORMAT_YV12
	}
	return 0
}

// pipeResourceCreate is a PIPE_RESOURCE_CREATE command of a 2D
// texture backing blob blobID.
type pipeResourceCreate struct {
	Format, Bind  uint32
	Width, Height uint32
	BlobID        uint32
}

// encode returns the little endian command stream.
func (c pipeResourceCreate) encode() []byte {
	var cmd [_VIRGL_PIPE_RES_CREATE_SIZE + 1]uint32
	cmd[0] = encodeCmdHeader(_VIRGL_PIPE_RES_CREATE_SIZE, _VIRGL_CCMD_PIPE_RESOURCE_CREATE, 0)
	cmd[_VIRGL_PIPE_RES_CREATE_FORMAT] = c.Format
	cmd[_VIRGL_PIPE_RES_CREATE_BIND] = c.Bind
	cmd[_VIRGL_PIPE_RES_CREATE_TARGET] = PIPE_TEXTURE_2D
	cmd[_VIRGL_PIPE_RES_CREATE_WIDTH] = c.Width
	cmd[_VIRGL_PIPE_RES_CREATE_HEIGHT] = c.Height
	cmd[_VIRGL_PIPE_RES_CREATE_DEPTH] = 1
	cmd[_VIRGL_PIPE_RES_CREATE_BLOB_ID] = c.BlobID
	bo := binary.LittleEndian
	buf := make([]byte, 4*len(cmd))
	for i, w := range cmd {
		bo.PutUint32(buf[i*4:], w)
	}
	return buf
}
