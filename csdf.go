// Package csdf implements an algebra of colored 2D signed distance fields.
//
// Shapes are built bottom-up with a [Builder]: primitives such as circles and
// rectangles are wrapped by transforms (translate, scale, rotate) and joined by
// combinators (union, subtract, blend...). Evaluating a [Shape] at a point
// returns the signed distance to its surface, negative inside, and the color
// of the surface there. Shapes are immutable after construction and may be
// evaluated concurrently from any number of goroutines.
package csdf

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/chewxy/math32"
	"github.com/soypat/csdf/glbuild"
)

const (
	// epstol is used to check for badly conditioned denominators
	// such as scale factors and transformation matrix determinants.
	epstol = 6e-7
)

// Shape is a colored 2D signed distance field. Evaluate must return a finite
// distance and color for any finite (x,y). Every Shape also generates its own GLSL.
type Shape interface {
	glbuild.Shader2D
	// Evaluate returns the signed distance from (x,y) to the shape's surface
	// and the surface color associated with (x,y).
	Evaluate(x, y float32) (dist float32, c Color)
}

var (
	// ErrBadParameter is returned when a shape or operation receives an invalid numeric parameter.
	ErrBadParameter = errors.New("csdf: bad parameter")
	// ErrNilShape is returned when a nil shape is passed to an operation.
	ErrNilShape = errors.New("csdf: nil shape")
)

// Flags modify [Builder] behavior.
type Flags uint64

const (
	// FlagNoDimensionPanic makes the Builder accumulate construction errors instead of panicking.
	// Constructors that fail return nil and errors can be read with [Builder.Err].
	FlagNoDimensionPanic Flags = 1 << iota
)

// Builder wraps all SDF primitive and operation construction.
// Provides error handling strategies with panics or error accumulation during shape generation.
// The zero value is ready to use and panics on invalid parameters.
// A Builder is not safe for concurrent use; shapes it returns are.
type Builder struct {
	flags     Flags
	accumErrs []error
}

// Flags returns the current builder flags.
func (bld *Builder) Flags() Flags { return bld.flags }

// SetFlags sets the builder flags.
func (bld *Builder) SetFlags(flags Flags) {
	bld.flags = flags
}

// Err returns all errors accumulated since the last call to [Builder.ClearErrors].
func (bld *Builder) Err() error {
	if len(bld.accumErrs) == 0 {
		return nil
	}
	return errors.Join(bld.accumErrs...)
}

// ClearErrors discards accumulated errors.
func (bld *Builder) ClearErrors() {
	bld.accumErrs = bld.accumErrs[:0]
}

func (bld *Builder) shapeErrorf(op string, msg string, args ...any) {
	err := fmt.Errorf("%s: %w: %s", op, ErrBadParameter, fmt.Sprintf(msg, args...))
	bld.fail(err)
}

func (bld *Builder) nilsdf(op string) {
	bld.fail(fmt.Errorf("%s: %w", op, ErrNilShape))
}

func (bld *Builder) fail(err error) {
	if bld.flags&FlagNoDimensionPanic == 0 {
		panic(err)
	}
	Logger().Warn("shape construction failed", slog.Any("err", err))
	bld.accumErrs = append(bld.accumErrs, err)
}

// checkFinite records an error for the first non-finite value and reports whether all were finite.
func (bld *Builder) checkFinite(op string, vals ...float32) bool {
	for i, v := range vals {
		if !isFinite(v) {
			bld.shapeErrorf(op, "non-finite argument %d: %v", i, v)
			return false
		}
	}
	return true
}

func (bld *Builder) checkColor(op string, c Color) bool {
	if !c.IsFinite() {
		bld.shapeErrorf(op, "non-finite color %v", c)
		return false
	}
	return true
}

// IsExact reports whether the distance returned by s is an exact Euclidean distance
// everywhere. Renderers may take full sphere-marching steps only for exact shapes.
// Union, subtract, intersect, displace, blend and non-uniform scaling yield bounds.
func IsExact(s Shape) bool {
	switch s := s.(type) {
	case nil:
		return false
	case *union, *subtract, *intersect, *displace, *blend:
		return false
	case *scale:
		if s.k.X != s.k.Y && s.k.X != -s.k.Y {
			return false
		}
	}
	exact := true
	s.ForEach2DChild(nil, func(_ any, child glbuild.Shader2D) error {
		sh, ok := child.(Shape)
		if !ok || !IsExact(sh) {
			exact = false
		}
		return nil
	})
	return exact
}

// CountNodes returns the number of nodes visited by a single evaluation of s.
// Evaluation cost grows linearly with this number.
func CountNodes(s Shape) int {
	if s == nil {
		return 0
	}
	n := 1
	s.ForEach2DChild(nil, func(_ any, child glbuild.Shader2D) error {
		if sh, ok := child.(Shape); ok {
			n += CountNodes(sh)
		}
		return nil
	})
	return n
}

// Format returns a compact representation of the shape tree, i.e:
//
//	union(circle,translate(circle))
func Format(s Shape) string {
	if s == nil {
		return "<nil>"
	}
	return glbuild.FormatShader(s)
}

func minf(a, b float32) float32 {
	return math32.Min(a, b)
}

func maxf(a, b float32) float32 {
	return math32.Max(a, b)
}

func absf(a float32) float32 {
	return math32.Abs(a)
}

func hypotf(a, b float32) float32 {
	return math32.Hypot(a, b)
}
