package sdflisp

import (
	"fmt"

	zygo "github.com/glycerine/zygomys/zygo"
	"github.com/soypat/csdf"
)

// sexpShape wraps a csdf.Shape so it can be passed between builtins.
type sexpShape struct {
	shape csdf.Shape
}

func (s *sexpShape) SexpString(ps *zygo.PrintState) string {
	return "(shape " + csdf.Format(s.shape) + ")"
}
func (s *sexpShape) Type() *zygo.RegisteredType { return nil }

// sexpColor wraps a csdf.Color.
type sexpColor struct {
	color csdf.Color
}

func (c *sexpColor) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(rgba %g %g %g %g)", c.color.R, c.color.G, c.color.B, c.color.A)
}
func (c *sexpColor) Type() *zygo.RegisteredType { return nil }

func toFloat32(s zygo.Sexp) (float32, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float32(v.Val), nil
	case *zygo.SexpFloat:
		return float32(v.Val), nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

func toShape(s zygo.Sexp) (csdf.Shape, error) {
	if v, ok := s.(*sexpShape); ok {
		return v.shape, nil
	}
	return nil, fmt.Errorf("expected shape, got %T (%s)", s, s.SexpString(nil))
}

func toColor(s zygo.Sexp) (csdf.Color, error) {
	if v, ok := s.(*sexpColor); ok {
		return v.color, nil
	}
	return csdf.Color{}, fmt.Errorf("expected color, got %T (%s)", s, s.SexpString(nil))
}

// argReader extracts typed positional arguments for a builtin, remembering the first failure.
type argReader struct {
	fn   string
	args []zygo.Sexp
	err  error
}

func (r *argReader) fail(i int, what string, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("%s: %s (argument %d): %w", r.fn, what, i+1, err)
	}
}

func (r *argReader) float(i int, what string) float32 {
	if r.err != nil {
		return 0
	}
	v, err := toFloat32(r.args[i])
	if err != nil {
		r.fail(i, what, err)
	}
	return v
}

func (r *argReader) shape(i int) csdf.Shape {
	if r.err != nil {
		return nil
	}
	v, err := toShape(r.args[i])
	if err != nil {
		r.fail(i, "shape", err)
	}
	return v
}

func (r *argReader) color(i int) csdf.Color {
	if r.err != nil {
		return csdf.Color{}
	}
	v, err := toColor(r.args[i])
	if err != nil {
		r.fail(i, "color", err)
	}
	return v
}

// arity checks the argument count lies in [min, max]. max<0 means unbounded.
func arity(fn string, args []zygo.Sexp, min, max int) error {
	n := len(args)
	switch {
	case max == min && n != min:
		return fmt.Errorf("%s requires exactly %d arguments, got %d", fn, min, n)
	case n < min:
		return fmt.Errorf("%s requires at least %d arguments, got %d", fn, min, n)
	case max >= 0 && n > max:
		return fmt.Errorf("%s accepts at most %d arguments, got %d", fn, max, n)
	}
	return nil
}

type shapeFunc func(bld *csdf.Builder, r *argReader) csdf.Shape

// registerShape installs a builtin producing a shape. Argument errors and
// invalid shape parameters reported by bld are returned as script errors.
func registerShape(env *zygo.Zlisp, bld *csdf.Builder, fn string, min, max int, build shapeFunc) {
	env.AddFunction(fn, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		err := arity(fn, args, min, max)
		if err != nil {
			return zygo.SexpNull, err
		}
		r := argReader{fn: fn, args: args}
		s := build(bld, &r)
		if r.err != nil {
			return zygo.SexpNull, r.err
		}
		if err := bld.Err(); err != nil {
			bld.ClearErrors()
			return zygo.SexpNull, err
		}
		if s == nil {
			return zygo.SexpNull, fmt.Errorf("%s: %w", fn, csdf.ErrNilShape)
		}
		return &sexpShape{shape: s}, nil
	})
}

// registerBuiltins installs the scene builtins into env. Shapes are built with bld,
// which must have [csdf.FlagNoDimensionPanic] set.
func registerBuiltins(env *zygo.Zlisp, bld *csdf.Builder) {
	// (rgba 255 0 0 1), alpha defaults to 1.
	env.AddFunction("rgba", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		err := arity("rgba", args, 3, 4)
		if err != nil {
			return zygo.SexpNull, err
		}
		r := argReader{fn: "rgba", args: args}
		c := csdf.NewColor(r.float(0, "red"), r.float(1, "green"), r.float(2, "blue"), 1)
		if len(args) == 4 {
			c.A = r.float(3, "alpha")
		}
		if r.err != nil {
			return zygo.SexpNull, r.err
		}
		return &sexpColor{color: c}, nil
	})

	// Primitives take their dimensions followed by a color.
	registerShape(env, bld, "circle", 2, 2, func(bld *csdf.Builder, r *argReader) csdf.Shape {
		radius, c := r.float(0, "radius"), r.color(1)
		if r.err != nil {
			return nil
		}
		return bld.NewCircle(radius, c)
	})
	registerShape(env, bld, "rect", 3, 3, func(bld *csdf.Builder, r *argReader) csdf.Shape {
		w, h, c := r.float(0, "width"), r.float(1, "height"), r.color(2)
		if r.err != nil {
			return nil
		}
		return bld.NewRectangle(w, h, c)
	})
	registerShape(env, bld, "torus", 3, 3, func(bld *csdf.Builder, r *argReader) csdf.Shape {
		outer, inner, c := r.float(0, "outer radius"), r.float(1, "inner radius"), r.color(2)
		if r.err != nil {
			return nil
		}
		return bld.NewTorus(outer, inner, c)
	})
	registerShape(env, bld, "belt", 2, 2, func(bld *csdf.Builder, r *argReader) csdf.Shape {
		w, c := r.float(0, "width"), r.color(1)
		if r.err != nil {
			return nil
		}
		return bld.NewBelt(w, c)
	})
	registerShape(env, bld, "capsule", 3, 3, func(bld *csdf.Builder, r *argReader) csdf.Shape {
		l, radius, c := r.float(0, "length"), r.float(1, "radius"), r.color(2)
		if r.err != nil {
			return nil
		}
		return bld.NewCapsule(l, radius, c)
	})

	// Transforms take the shape first.
	registerShape(env, bld, "translate", 3, 3, func(bld *csdf.Builder, r *argReader) csdf.Shape {
		s, dx, dy := r.shape(0), r.float(1, "dx"), r.float(2, "dy")
		if r.err != nil {
			return nil
		}
		return bld.Translate(s, dx, dy)
	})
	// (scale s k) or (scale s kx ky)
	registerShape(env, bld, "scale", 2, 3, func(bld *csdf.Builder, r *argReader) csdf.Shape {
		s, kx := r.shape(0), r.float(1, "factor")
		if len(r.args) == 2 {
			if r.err != nil {
				return nil
			}
			return bld.Scale(s, kx)
		}
		ky := r.float(2, "y factor")
		if r.err != nil {
			return nil
		}
		return bld.ScaleXY(s, kx, ky)
	})
	// (rotate s theta) with theta in radians, counter-clockwise.
	registerShape(env, bld, "rotate", 2, 2, func(bld *csdf.Builder, r *argReader) csdf.Shape {
		s, theta := r.shape(0), r.float(1, "angle")
		if r.err != nil {
			return nil
		}
		return bld.Rotate(s, theta)
	})
	registerShape(env, bld, "expand", 2, 2, func(bld *csdf.Builder, r *argReader) csdf.Shape {
		s, radius := r.shape(0), r.float(1, "radius")
		if r.err != nil {
			return nil
		}
		return bld.Expand(s, radius)
	})
	registerShape(env, bld, "paint", 2, 2, func(bld *csdf.Builder, r *argReader) csdf.Shape {
		s, c := r.shape(0), r.color(1)
		if r.err != nil {
			return nil
		}
		return bld.ColorSDF(s, c)
	})

	// Combinators.
	registerShape(env, bld, "union", 2, -1, func(bld *csdf.Builder, r *argReader) csdf.Shape {
		shapes := make([]csdf.Shape, len(r.args))
		for i := range r.args {
			shapes[i] = r.shape(i)
		}
		if r.err != nil {
			return nil
		}
		return bld.Union(shapes[0], shapes[1], shapes[2:]...)
	})
	binary := map[string]func(a, b csdf.Shape) csdf.Shape{
		"subtract":  bld.Subtract,
		"intersect": bld.Intersect,
		"displace":  bld.Displace,
	}
	for fn, op := range binary {
		registerShape(env, bld, fn, 2, 2, func(bld *csdf.Builder, r *argReader) csdf.Shape {
			a, b := r.shape(0), r.shape(1)
			if r.err != nil {
				return nil
			}
			return op(a, b)
		})
	}
	registerShape(env, bld, "blend", 3, 3, func(bld *csdf.Builder, r *argReader) csdf.Shape {
		a, b, k := r.shape(0), r.shape(1), r.float(2, "radius")
		if r.err != nil {
			return nil
		}
		return bld.Blend(a, b, k)
	})
}
