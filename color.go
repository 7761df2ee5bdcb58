package csdf

import (
	"image/color"

	"github.com/chewxy/math32"
	"github.com/soypat/glgl/math/ms1"
)

// Color is the surface color carried through shape evaluation.
// R, G and B are in 0..255 and A is in 0..1 by convention, though no
// operation clamps channels. Clamping happens only at the pixel boundary,
// see [Color.NRGBA].
type Color struct {
	R float32 `json:"r"`
	G float32 `json:"g"`
	B float32 `json:"b"`
	A float32 `json:"a"`
}

var _ color.Color = Color{}

// NewColor returns a Color with the given channel values.
func NewColor(r, g, b, a float32) Color {
	return Color{R: r, G: g, B: b, A: a}
}

// Add returns the channel-wise sum of c and o.
func (c Color) Add(o Color) Color {
	return Color{R: c.R + o.R, G: c.G + o.G, B: c.B + o.B, A: c.A + o.A}
}

// SmoothMin returns the polynomial smooth minimum of c and o applied to each channel independently.
// k is the blend radius; k==0 yields the channel-wise minimum.
func (c Color) SmoothMin(o Color, k float32) Color {
	return Color{
		R: smin(c.R, o.R, k),
		G: smin(c.G, o.G, k),
		B: smin(c.B, o.B, k),
		A: smin(c.A, o.A, k),
	}
}

// IsFinite reports whether no channel is NaN or infinite.
func (c Color) IsFinite() bool {
	return isFinite(c.R) && isFinite(c.G) && isFinite(c.B) && isFinite(c.A)
}

// NRGBA converts c to an 8 bit non-premultiplied color. RGB channels are
// clamped to 0..255 and alpha is mapped from 0..1 to 0..255. NaN channels map to zero.
func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{
		R: to8bit(c.R),
		G: to8bit(c.G),
		B: to8bit(c.B),
		A: to8bit(c.A * 255),
	}
}

// RGBA implements [color.Color].
func (c Color) RGBA() (r, g, b, a uint32) {
	return c.NRGBA().RGBA()
}

func to8bit(v float32) uint8 {
	if math32.IsNaN(v) {
		return 0
	}
	return uint8(math32.Round(ms1.Clamp(v, 0, 255)))
}

func isFinite(v float32) bool {
	return !math32.IsNaN(v) && !math32.IsInf(v, 0)
}

// smin is the polynomial smooth minimum. Its result differs from min(a,b) by at most k/4.
func smin(a, b, k float32) float32 {
	if k == 0 {
		return math32.Min(a, b)
	}
	h := ms1.Clamp(0.5+0.5*(b-a)/k, 0, 1)
	return ms1.Interp(b, a, h) - k*h*(1-h)
}
