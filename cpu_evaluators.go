package csdf

import (
	"github.com/soypat/geometry/ms2"
)

func (c *circle) Evaluate(x, y float32) (float32, Color) {
	return hypotf(x, y) - c.r, c.c
}

func (r *rect) Evaluate(x, y float32) (float32, Color) {
	dx := absf(x) - r.d.X/2
	dy := absf(y) - r.d.Y/2
	inside := minf(maxf(dx, dy), 0)
	outside := hypotf(maxf(dx, 0), maxf(dy, 0))
	return inside + outside, r.c
}

func (t *torus) Evaluate(x, y float32) (float32, Color) {
	return absf(hypotf(x, y)-t.mid) - t.halfWidth, t.c
}

func (bt *belt) Evaluate(x, y float32) (float32, Color) {
	return y - bt.halfWidth, bt.c
}

func (cp *capsule) Evaluate(x, y float32) (float32, Color) {
	dx := maxf(absf(x)-cp.halfLen, 0)
	return hypotf(dx, y) - cp.r, cp.c
}

func (t *translate) Evaluate(x, y float32) (float32, Color) {
	return t.s.Evaluate(x-t.t.X, y-t.t.Y)
}

func (s *scale) Evaluate(x, y float32) (float32, Color) {
	d, c := s.s.Evaluate(x/s.k.X, y/s.k.Y)
	return d * s.f, c
}

func (r *rotate) Evaluate(x, y float32) (float32, Color) {
	p := ms2.MulMatVec(r.tInv, ms2.Vec{X: x, Y: y})
	return r.s.Evaluate(p.X, p.Y)
}

func (u *union) Evaluate(x, y float32) (float32, Color) {
	d, c := u.joined[0].Evaluate(x, y)
	for _, s := range u.joined[1:] {
		d1, c1 := s.Evaluate(x, y)
		if d1 < d {
			d, c = d1, c1
		}
	}
	return d, c
}

func (s *subtract) Evaluate(x, y float32) (float32, Color) {
	da, ca := s.a.Evaluate(x, y)
	db, cb := s.b.Evaluate(x, y)
	db = -db
	if db > da {
		return db, cb
	}
	return da, ca
}

func (s *intersect) Evaluate(x, y float32) (float32, Color) {
	da, ca := s.a.Evaluate(x, y)
	db, cb := s.b.Evaluate(x, y)
	if db > da {
		return db, cb
	}
	return da, ca
}

func (e *expand) Evaluate(x, y float32) (float32, Color) {
	d, c := e.s.Evaluate(x, y)
	return d - e.r, c
}

func (d *displace) Evaluate(x, y float32) (float32, Color) {
	da, _ := d.a.Evaluate(x, y)
	db, _ := d.b.Evaluate(x, y)
	return da + db, d.c
}

func (s *blend) Evaluate(x, y float32) (float32, Color) {
	da, _ := s.a.Evaluate(x, y)
	db, _ := s.b.Evaluate(x, y)
	return smin(da, db, s.k), s.c
}

func (co *colorOverride) Evaluate(x, y float32) (float32, Color) {
	d, _ := co.s.Evaluate(x, y)
	return d, co.c
}
