package csdf

import (
	"github.com/soypat/csdf/glbuild"
	"github.com/soypat/geometry/ms2"
)

// NewCircle creates a circle of radius r centered at the origin painted with color c.
func (bld *Builder) NewCircle(r float32, c Color) Shape {
	const op = "NewCircle"
	if !bld.checkFinite(op, r) || !bld.checkColor(op, c) {
		return nil
	} else if r < 0 {
		bld.shapeErrorf(op, "negative radius %v", r)
		return nil
	}
	return &circle{r: r, c: c}
}

type circle struct {
	r float32
	c Color
}

func (c *circle) ForEach2DChild(userData any, fn func(userData any, s glbuild.Shader2D) error) error {
	return nil
}

func (c *circle) AppendShaderName(b []byte) []byte {
	b = append(b, "circle"...)
	b = glbuild.AppendFloats(b, '_', 'n', 'p', c.r)
	return appendColorNameSuffix(b, c.c)
}

func (c *circle) AppendShaderBody(b []byte) []byte {
	b = appendColorAssign(b, c.c)
	b = glbuild.AppendFloatDecl(b, "r", c.r)
	b = append(b, "return length(p)-r;"...)
	return b
}

// NewRectangle creates an axis aligned rectangle of width w and height h centered at the origin.
func (bld *Builder) NewRectangle(w, h float32, c Color) Shape {
	const op = "NewRectangle"
	if !bld.checkFinite(op, w, h) || !bld.checkColor(op, c) {
		return nil
	} else if w < 0 || h < 0 {
		bld.shapeErrorf(op, "negative dimension %vx%v", w, h)
		return nil
	}
	return &rect{d: ms2.Vec{X: w, Y: h}, c: c}
}

type rect struct {
	d ms2.Vec
	c Color
}

func (r *rect) ForEach2DChild(userData any, fn func(userData any, s glbuild.Shader2D) error) error {
	return nil
}

func (r *rect) AppendShaderName(b []byte) []byte {
	b = append(b, "rect"...)
	b = glbuild.AppendFloats(b, '_', 'n', 'p', r.d.X, r.d.Y)
	return appendColorNameSuffix(b, r.c)
}

func (r *rect) AppendShaderBody(b []byte) []byte {
	b = appendColorAssign(b, r.c)
	b = glbuild.AppendVec2Decl(b, "b", ms2.Scale(0.5, r.d))
	b = append(b, `vec2 d=abs(p)-b;
return length(max(d,0.0))+min(max(d.x,d.y),0.0);`...)
	return b
}

// NewTorus creates an annulus bounded by circles of radius rOuter and rInner centered at the origin.
// rInner equal to rOuter yields an infinitely thin ring.
func (bld *Builder) NewTorus(rOuter, rInner float32, c Color) Shape {
	const op = "NewTorus"
	if !bld.checkFinite(op, rOuter, rInner) || !bld.checkColor(op, c) {
		return nil
	} else if rInner < 0 {
		bld.shapeErrorf(op, "negative inner radius %v", rInner)
		return nil
	} else if rOuter < rInner {
		bld.shapeErrorf(op, "outer radius %v smaller than inner radius %v", rOuter, rInner)
		return nil
	}
	return &torus{mid: (rOuter + rInner) / 2, halfWidth: (rOuter - rInner) / 2, c: c}
}

type torus struct {
	mid       float32
	halfWidth float32
	c         Color
}

func (t *torus) ForEach2DChild(userData any, fn func(userData any, s glbuild.Shader2D) error) error {
	return nil
}

func (t *torus) AppendShaderName(b []byte) []byte {
	b = append(b, "torus"...)
	b = glbuild.AppendFloats(b, '_', 'n', 'p', t.mid, t.halfWidth)
	return appendColorNameSuffix(b, t.c)
}

func (t *torus) AppendShaderBody(b []byte) []byte {
	b = appendColorAssign(b, t.c)
	b = glbuild.AppendFloatDecl(b, "mid", t.mid)
	b = glbuild.AppendFloatDecl(b, "hw", t.halfWidth)
	b = append(b, "return abs(length(p)-mid)-hw;"...)
	return b
}

// NewBelt creates the half-plane y <= width/2. It is unbounded in x and in -y,
// useful as a ground plane or cutting plane.
func (bld *Builder) NewBelt(width float32, c Color) Shape {
	const op = "NewBelt"
	if !bld.checkFinite(op, width) || !bld.checkColor(op, c) {
		return nil
	} else if width < 0 {
		bld.shapeErrorf(op, "negative width %v", width)
		return nil
	}
	return &belt{halfWidth: width / 2, c: c}
}

type belt struct {
	halfWidth float32
	c         Color
}

func (bt *belt) ForEach2DChild(userData any, fn func(userData any, s glbuild.Shader2D) error) error {
	return nil
}

func (bt *belt) AppendShaderName(b []byte) []byte {
	b = append(b, "belt"...)
	b = glbuild.AppendFloats(b, '_', 'n', 'p', bt.halfWidth)
	return appendColorNameSuffix(b, bt.c)
}

func (bt *belt) AppendShaderBody(b []byte) []byte {
	b = appendColorAssign(b, bt.c)
	b = glbuild.AppendFloatDecl(b, "hw", bt.halfWidth)
	b = append(b, "return p.y-hw;"...)
	return b
}

// NewCapsule creates a horizontal stadium: all points within radius r of the
// segment of length l centered at the origin along the x axis.
func (bld *Builder) NewCapsule(l, r float32, c Color) Shape {
	const op = "NewCapsule"
	if !bld.checkFinite(op, l, r) || !bld.checkColor(op, c) {
		return nil
	} else if l < 0 || r < 0 {
		bld.shapeErrorf(op, "negative length %v or radius %v", l, r)
		return nil
	}
	return &capsule{halfLen: l / 2, r: r, c: c}
}

type capsule struct {
	halfLen float32
	r       float32
	c       Color
}

func (cp *capsule) ForEach2DChild(userData any, fn func(userData any, s glbuild.Shader2D) error) error {
	return nil
}

func (cp *capsule) AppendShaderName(b []byte) []byte {
	b = append(b, "capsule"...)
	b = glbuild.AppendFloats(b, '_', 'n', 'p', cp.halfLen, cp.r)
	return appendColorNameSuffix(b, cp.c)
}

func (cp *capsule) AppendShaderBody(b []byte) []byte {
	b = appendColorAssign(b, cp.c)
	b = glbuild.AppendFloatDecl(b, "hl", cp.halfLen)
	b = glbuild.AppendFloatDecl(b, "r", cp.r)
	b = append(b, `float dx=max(abs(p.x)-hl,0.0);
return length(vec2(dx,p.y))-r;`...)
	return b
}

func appendColorNameSuffix(b []byte, c Color) []byte {
	b = append(b, "_c"...)
	return glbuild.AppendFloatsHash(b, c.R, c.G, c.B, c.A)
}

func appendColorAssign(b []byte, c Color) []byte {
	b = append(b, "c=vec4("...)
	b = glbuild.AppendFloats(b, ',', '-', '.', c.R, c.G, c.B, c.A)
	b = append(b, ");\n"...)
	return b
}
