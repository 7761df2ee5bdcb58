// Package sdfxcompat exposes csdf shapes as sdfx 2D signed distance
// functions so the sdfx rendering toolchain can consume them.
package sdfxcompat

import (
	"errors"

	"github.com/chewxy/math32"
	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
	"github.com/soypat/csdf"
	"github.com/soypat/geometry/ms2"
)

var _ sdf.SDF2 = (*SDF2)(nil)

// SDF2 wraps a [csdf.Shape] and implements [sdf.SDF2]. Distances are computed in
// float32 and widened to float64. Color information is available through [SDF2.Color].
type SDF2 struct {
	shape  csdf.Shape
	bounds sdf.Box2
}

// NewSDF2 returns an sdfx SDF2 for shape. csdf shapes carry no bounding box,
// so bounds must enclose the region where the shape is negative.
func NewSDF2(shape csdf.Shape, bounds ms2.Box) (*SDF2, error) {
	if shape == nil {
		return nil, csdf.ErrNilShape
	}
	bounds = bounds.Canon()
	sz := bounds.Size()
	if !(sz.X > 0) || !(sz.Y > 0) || math32.IsInf(sz.X, 0) || math32.IsInf(sz.Y, 0) {
		return nil, errors.New("bounds must have positive finite area")
	}
	return &SDF2{
		shape: shape,
		bounds: sdf.Box2{
			Min: v2.Vec{X: float64(bounds.Min.X), Y: float64(bounds.Min.Y)},
			Max: v2.Vec{X: float64(bounds.Max.X), Y: float64(bounds.Max.Y)},
		},
	}, nil
}

// Evaluate implements [sdf.SDF2].
func (s *SDF2) Evaluate(p v2.Vec) float64 {
	d, _ := s.shape.Evaluate(float32(p.X), float32(p.Y))
	return float64(d)
}

// BoundingBox implements [sdf.SDF2].
func (s *SDF2) BoundingBox() sdf.Box2 {
	return s.bounds
}

// Color returns the surface color of the shape at p.
func (s *SDF2) Color(p v2.Vec) csdf.Color {
	_, c := s.shape.Evaluate(float32(p.X), float32(p.Y))
	return c
}

// Shape returns the wrapped shape.
func (s *SDF2) Shape() csdf.Shape { return s.shape }
