package csdf

import (
	"github.com/chewxy/math32"
	"github.com/soypat/csdf/glbuild"
	"github.com/soypat/geometry/ms2"
)

// Translate moves the shape by (dx,dy). Is exact.
func (bld *Builder) Translate(s Shape, dx, dy float32) Shape {
	const op = "Translate"
	if s == nil {
		bld.nilsdf(op)
		return nil
	} else if !bld.checkFinite(op, dx, dy) {
		return nil
	}
	return &translate{s: s, t: ms2.Vec{X: dx, Y: dy}}
}

type translate struct {
	s Shape
	t ms2.Vec
}

func (t *translate) ForEach2DChild(userData any, fn func(userData any, s glbuild.Shader2D) error) error {
	return fn(userData, t.s)
}

func (t *translate) AppendShaderName(b []byte) []byte {
	b = append(b, "translate"...)
	b = glbuild.AppendFloats(b, '_', 'n', 'p', t.t.X, t.t.Y)
	b = append(b, '_')
	return glbuild.AppendNamesHash(b, t.s)
}

func (t *translate) AppendShaderBody(b []byte) []byte {
	b = glbuild.AppendVec2Decl(b, "t", t.t)
	b = append(b, "return "...)
	b = t.s.AppendShaderName(b)
	b = append(b, "(p-t,c);"...)
	return b
}

// Scale scales the shape uniformly by k around the origin. Is exact.
func (bld *Builder) Scale(s Shape, k float32) Shape {
	return bld.scaleXY("Scale", s, k, k)
}

// ScaleXY scales the shape by kx along x and ky along y around the origin.
// Negative factors mirror the shape. The returned distance is the child's distance
// multiplied by min(|kx|,|ky|) which is exact for |kx|==|ky| and a lower bound otherwise.
func (bld *Builder) ScaleXY(s Shape, kx, ky float32) Shape {
	return bld.scaleXY("ScaleXY", s, kx, ky)
}

func (bld *Builder) scaleXY(op string, s Shape, kx, ky float32) Shape {
	if s == nil {
		bld.nilsdf(op)
		return nil
	} else if !bld.checkFinite(op, kx, ky) {
		return nil
	} else if math32.Abs(kx) < epstol || math32.Abs(ky) < epstol {
		bld.shapeErrorf(op, "zero or near-zero scale factor (%v,%v)", kx, ky)
		return nil
	}
	return &scale{s: s, k: ms2.Vec{X: kx, Y: ky}, f: minf(absf(kx), absf(ky))}
}

type scale struct {
	s Shape
	k ms2.Vec
	// f is the distance correction factor.
	f float32
}

func (s *scale) ForEach2DChild(userData any, fn func(userData any, s glbuild.Shader2D) error) error {
	return fn(userData, s.s)
}

func (s *scale) AppendShaderName(b []byte) []byte {
	b = append(b, "scale"...)
	b = glbuild.AppendFloats(b, '_', 'n', 'p', s.k.X, s.k.Y)
	b = append(b, '_')
	return glbuild.AppendNamesHash(b, s.s)
}

func (s *scale) AppendShaderBody(b []byte) []byte {
	b = glbuild.AppendVec2Decl(b, "k", s.k)
	b = glbuild.AppendFloatDecl(b, "f", s.f)
	b = append(b, "return f*"...)
	b = s.s.AppendShaderName(b)
	b = append(b, "(p/k,c);"...)
	return b
}

// Rotate rotates the shape counter-clockwise around the origin by theta radians. Is exact.
func (bld *Builder) Rotate(s Shape, theta float32) Shape {
	const op = "Rotate"
	if s == nil {
		bld.nilsdf(op)
		return nil
	} else if !bld.checkFinite(op, theta) {
		return nil
	}
	m := ms2.RotationMat2(theta)
	det := m.Determinant()
	if math32.Abs(det) < epstol {
		bld.shapeErrorf(op, "badly conditioned rotation")
		return nil
	}
	return &rotate{s: s, theta: theta, tInv: m.Inverse()}
}

type rotate struct {
	s     Shape
	theta float32
	tInv  ms2.Mat2
}

func (r *rotate) ForEach2DChild(userData any, fn func(userData any, s glbuild.Shader2D) error) error {
	return fn(userData, r.s)
}

func (r *rotate) AppendShaderName(b []byte) []byte {
	b = append(b, "rotate"...)
	b = glbuild.AppendFloats(b, '_', 'n', 'p', r.theta)
	b = append(b, '_')
	return glbuild.AppendNamesHash(b, r.s)
}

func (r *rotate) AppendShaderBody(b []byte) []byte {
	b = glbuild.AppendMat2Decl(b, "invT", r.tInv)
	b = append(b, "return "...)
	b = r.s.AppendShaderName(b)
	b = append(b, "(invT*p,c);"...)
	return b
}

// Union joins the shapes of several SDFs into one. The color is taken from
// the shape closest to the point; on equal distances the earliest argument wins.
// Nested unions are flattened. The distance is exact inside and a lower bound outside.
func (bld *Builder) Union(a, b Shape, more ...Shape) Shape {
	const op = "Union"
	var U union
	for _, s := range append([]Shape{a, b}, more...) {
		if s == nil {
			bld.nilsdf(op)
			return nil
		}
		if subU, ok := s.(*union); ok {
			// Flattening keeps generated GLSL small and readable.
			U.joined = append(U.joined, subU.joined...)
		} else {
			U.joined = append(U.joined, s)
		}
	}
	return &U
}

type union struct {
	joined []Shape
}

func (u *union) ForEach2DChild(userData any, fn func(userData any, s glbuild.Shader2D) error) error {
	for i := range u.joined {
		err := fn(userData, u.joined[i])
		if err != nil {
			return err
		}
	}
	return nil
}

func (u *union) AppendShaderName(b []byte) []byte {
	b = append(b, "union"...)
	b = append(b, '_')
	shaders := make([]glbuild.Shader, len(u.joined))
	for i := range u.joined {
		shaders[i] = u.joined[i]
	}
	return glbuild.AppendNamesHash(b, shaders...)
}

func (u *union) AppendShaderBody(b []byte) []byte {
	b = append(b, "float d="...)
	b = u.joined[0].AppendShaderName(b)
	b = append(b, "(p,c);\nvec4 c1;\nfloat d1;\n"...)
	for _, s := range u.joined[1:] {
		b = append(b, "d1="...)
		b = s.AppendShaderName(b)
		b = append(b, "(p,c1);\nif(d1<d){d=d1;c=c1;}\n"...)
	}
	b = append(b, "return d;"...)
	return b
}

// Subtract removes b's volume from a. The color is a's where a bounds the result and
// b's on the carved surface; on equal distances a wins.
func (bld *Builder) Subtract(a, b Shape) Shape {
	if a == nil || b == nil {
		bld.nilsdf("Subtract")
		return nil
	}
	return &subtract{a: a, b: b}
}

type subtract struct {
	a, b Shape
}

func (s *subtract) ForEach2DChild(userData any, fn func(userData any, s glbuild.Shader2D) error) error {
	err := fn(userData, s.a)
	if err != nil {
		return err
	}
	return fn(userData, s.b)
}

func (s *subtract) AppendShaderName(b []byte) []byte {
	b = append(b, "subtract_"...)
	return glbuild.AppendNamesHash(b, s.a, s.b)
}

func (s *subtract) AppendShaderBody(b []byte) []byte {
	b = append(b, "float d="...)
	b = s.a.AppendShaderName(b)
	b = append(b, "(p,c);\nvec4 c1;\nfloat d1=-"...)
	b = s.b.AppendShaderName(b)
	b = append(b, "(p,c1);\nif(d1>d){d=d1;c=c1;}\nreturn d;"...)
	return b
}

// Intersect keeps the region common to a and b. The color follows the
// shape with the larger distance; on equal distances a wins.
func (bld *Builder) Intersect(a, b Shape) Shape {
	if a == nil || b == nil {
		bld.nilsdf("Intersect")
		return nil
	}
	return &intersect{a: a, b: b}
}

type intersect struct {
	a, b Shape
}

func (s *intersect) ForEach2DChild(userData any, fn func(userData any, s glbuild.Shader2D) error) error {
	err := fn(userData, s.a)
	if err != nil {
		return err
	}
	return fn(userData, s.b)
}

func (s *intersect) AppendShaderName(b []byte) []byte {
	b = append(b, "intersect_"...)
	return glbuild.AppendNamesHash(b, s.a, s.b)
}

func (s *intersect) AppendShaderBody(b []byte) []byte {
	b = append(b, "float d="...)
	b = s.a.AppendShaderName(b)
	b = append(b, "(p,c);\nvec4 c1;\nfloat d1="...)
	b = s.b.AppendShaderName(b)
	b = append(b, "(p,c1);\nif(d1>d){d=d1;c=c1;}\nreturn d;"...)
	return b
}

// Expand grows the shape outward by r, or erodes it for negative r. Color is unchanged.
func (bld *Builder) Expand(s Shape, r float32) Shape {
	const op = "Expand"
	if s == nil {
		bld.nilsdf(op)
		return nil
	} else if !bld.checkFinite(op, r) {
		return nil
	}
	return &expand{s: s, r: r}
}

type expand struct {
	s Shape
	r float32
}

func (e *expand) ForEach2DChild(userData any, fn func(userData any, s glbuild.Shader2D) error) error {
	return fn(userData, e.s)
}

func (e *expand) AppendShaderName(b []byte) []byte {
	b = append(b, "expand"...)
	b = glbuild.AppendFloats(b, '_', 'n', 'p', e.r)
	b = append(b, '_')
	return glbuild.AppendNamesHash(b, e.s)
}

func (e *expand) AppendShaderBody(b []byte) []byte {
	b = glbuild.AppendFloatDecl(b, "r", e.r)
	b = append(b, "return "...)
	b = e.s.AppendShaderName(b)
	b = append(b, "(p,c)-r;"...)
	return b
}

// Displace adds the distances of a and b, perturbing a's surface by b's field.
// The result is not a true distance field away from the surface.
// The color is the sum of a's and b's colors at the origin, sampled once here.
func (bld *Builder) Displace(a, b Shape) Shape {
	if a == nil || b == nil {
		bld.nilsdf("Displace")
		return nil
	}
	_, ca := a.Evaluate(0, 0)
	_, cb := b.Evaluate(0, 0)
	return &displace{a: a, b: b, c: ca.Add(cb)}
}

type displace struct {
	a, b Shape
	c    Color
}

func (d *displace) ForEach2DChild(userData any, fn func(userData any, s glbuild.Shader2D) error) error {
	err := fn(userData, d.a)
	if err != nil {
		return err
	}
	return fn(userData, d.b)
}

func (d *displace) AppendShaderName(b []byte) []byte {
	b = append(b, "displace_"...)
	return glbuild.AppendNamesHash(b, d.a, d.b)
}

func (d *displace) AppendShaderBody(b []byte) []byte {
	b = append(b, "vec4 c1;\nfloat d="...)
	b = d.a.AppendShaderName(b)
	b = append(b, "(p,c1)+"...)
	b = d.b.AppendShaderName(b)
	b = append(b, "(p,c1);\n"...)
	b = appendColorAssign(b, d.c)
	b = append(b, "return d;"...)
	return b
}

// Blend joins a and b with a smooth transition of radius k between their surfaces.
// k==0 is equivalent to a union's distance. The result differs from the union
// distance by at most k/4. The color is the per-channel smooth minimum with the
// same k of a's and b's colors at the origin, sampled once here.
func (bld *Builder) Blend(a, b Shape, k float32) Shape {
	const op = "Blend"
	if a == nil || b == nil {
		bld.nilsdf(op)
		return nil
	} else if !bld.checkFinite(op, k) {
		return nil
	} else if k < 0 {
		bld.shapeErrorf(op, "negative blend radius %v", k)
		return nil
	}
	_, ca := a.Evaluate(0, 0)
	_, cb := b.Evaluate(0, 0)
	return &blend{a: a, b: b, k: k, c: ca.SmoothMin(cb, k)}
}

type blend struct {
	a, b Shape
	k    float32
	c    Color
}

func (s *blend) ForEach2DChild(userData any, fn func(userData any, s glbuild.Shader2D) error) error {
	err := fn(userData, s.a)
	if err != nil {
		return err
	}
	return fn(userData, s.b)
}

func (s *blend) AppendShaderName(b []byte) []byte {
	b = append(b, "blend"...)
	b = glbuild.AppendFloats(b, '_', 'n', 'p', s.k)
	b = append(b, '_')
	return glbuild.AppendNamesHash(b, s.a, s.b)
}

func (s *blend) AppendShaderBody(b []byte) []byte {
	b = glbuild.AppendFloatDecl(b, "k", s.k)
	b = append(b, "vec4 c1;\nfloat d1="...)
	b = s.a.AppendShaderName(b)
	b = append(b, "(p,c1);\nfloat d2="...)
	b = s.b.AppendShaderName(b)
	b = append(b, "(p,c1);\n"...)
	b = appendColorAssign(b, s.c)
	if s.k == 0 {
		b = append(b, "return min(d1,d2);"...)
		return b
	}
	b = append(b, `float h=clamp(0.5+0.5*(d2-d1)/k,0.0,1.0);
return mix(d2,d1,h)-k*h*(1.0-h);`...)
	return b
}

// ColorSDF returns s painted with color c. The distance is unchanged.
func (bld *Builder) ColorSDF(s Shape, c Color) Shape {
	const op = "ColorSDF"
	if s == nil {
		bld.nilsdf(op)
		return nil
	} else if !bld.checkColor(op, c) {
		return nil
	}
	return &colorOverride{s: s, c: c}
}

type colorOverride struct {
	s Shape
	c Color
}

func (co *colorOverride) ForEach2DChild(userData any, fn func(userData any, s glbuild.Shader2D) error) error {
	return fn(userData, co.s)
}

func (co *colorOverride) AppendShaderName(b []byte) []byte {
	b = append(b, "color"...)
	b = appendColorNameSuffix(b, co.c)
	b = append(b, '_')
	return glbuild.AppendNamesHash(b, co.s)
}

func (co *colorOverride) AppendShaderBody(b []byte) []byte {
	b = append(b, "vec4 c1;\nfloat d="...)
	b = co.s.AppendShaderName(b)
	b = append(b, "(p,c1);\n"...)
	b = appendColorAssign(b, co.c)
	b = append(b, "return d;"...)
	return b
}
