// SPDX-License-Identifier: Unlicense OR MIT

package virgl

import (
	"fmt"

	"eliasnaur.com/virtgbm/fourcc"
	"eliasnaur.com/virtgbm/gbm"
)

// Emulated buffers hold every plane as a sub-image of one R8 image:
//
//	| Y | Y | Y | Y | Y | Y |
//	| Y | Y | Y | Y | Y | Y |
//	| U | U | U |   |   |   |
//	| V | V | V |   |   |   |
//
// so that a rectangle of the image maps to one rectangle per plane.
// The chroma planes are stacked, never side by side, because media
// code assumes the V plane rows do not interleave with the U rows.

// emulatedFormats maps the emulated formats to their plane count.
var emulatedFormats = map[fourcc.Format]int{
	fourcc.NV12:          2,
	fourcc.NV21:          2,
	fourcc.YVU420:        3,
	fourcc.YVU420Android: 3,
}

// Layout is the single plane R8 image backing an emulated buffer and
// the placement of the logical planes inside it.
type Layout struct {
	Format        fourcc.Format
	Width, Height uint32
	NumPlanes     int
	Strides       [fourcc.MaxPlanes]uint32
	Offsets       [fourcc.MaxPlanes]uint32
	Sizes         [fourcc.MaxPlanes]uint32
	TotalSize     uint64
}

// EmulatedLayout returns the emulated layout of a width x height
// buffer of format, or false if format is never emulated.
func EmulatedLayout(format fourcc.Format, width, height uint32) (Layout, bool) {
	n, ok := emulatedFormats[format]
	if !ok {
		return Layout{}, false
	}
	l := Layout{Format: fourcc.R8, NumPlanes: n}
	yHeight := height
	cHeight := fourcc.DivRoundUp(height, 2)
	heights := [fourcc.MaxPlanes]uint32{yHeight, cHeight, cHeight}
	if n == 2 {
		l.Width = width
		l.Height = yHeight + cHeight
	} else {
		l.Width = fourcc.Align(width, 32)
		l.Height = yHeight + 2*cHeight
	}
	var offset uint32
	for p := 0; p < n; p++ {
		l.Strides[p] = l.Width
		l.Offsets[p] = offset
		l.Sizes[p] = l.Width * heights[p]
		offset += l.Sizes[p]
	}
	l.TotalSize = uint64(l.Width) * uint64(l.Height)
	return l, true
}

// transferBoxes returns the rectangles of the emulated image covering
// rect of a width x height buffer of format, in plane order. A full
// buffer rectangle is covered by a single box.
func transferBoxes(format fourcc.Format, width, height uint32, rect gbm.Rect) []gbm.Rect {
	l, ok := EmulatedLayout(format, width, height)
	if !ok {
		panic(fmt.Sprintf("virgl: no emulated layout for %v", format))
	}
	if rect.X == 0 && rect.Y == 0 && rect.Width == width && rect.Height == height {
		return []gbm.Rect{{Width: l.Width, Height: l.Height}}
	}
	yHeight := height
	cHeight := fourcc.DivRoundUp(height, 2)
	boxes := []gbm.Rect{rect}
	if l.NumPlanes == 2 {
		// Interleaved CbCr keeps the luma width.
		boxes = append(boxes, gbm.Rect{
			X:      rect.X,
			Y:      rect.Y + yHeight,
			Width:  rect.Width,
			Height: fourcc.DivRoundUp(rect.Height, 2),
		})
		return boxes
	}
	cb := gbm.Rect{
		X:      rect.X,
		Y:      rect.Y + yHeight,
		Width:  fourcc.DivRoundUp(rect.Width, 2),
		Height: fourcc.DivRoundUp(rect.Height, 2),
	}
	cr := cb
	cr.Y += cHeight
	return append(boxes, cb, cr)
}

// apply copies the plane placement of l to bo.
func (l Layout) apply(bo *gbm.BO) {
	for p := 0; p < l.NumPlanes; p++ {
		bo.Strides[p] = l.Strides[p]
		bo.Offsets[p] = l.Offsets[p]
		bo.Sizes[p] = l.Sizes[p]
	}
	bo.TotalSize = l.TotalSize
}
