package csdf_test

import (
	"bytes"
	"errors"
	"log/slog"
	"math"
	"math/rand"
	"strings"
	"sync"
	"testing"

	"github.com/chewxy/math32"
	"github.com/soypat/csdf"
	"github.com/soypat/csdf/glbuild"
)

var (
	white  = csdf.NewColor(255, 255, 255, 1)
	red    = csdf.NewColor(255, 0, 0, 1)
	blue   = csdf.NewColor(0, 0, 255, 1)
	yellow = csdf.NewColor(255, 255, 0, 1)
)

const tol = 1e-4

func randomPoints(seed int64, n int, scale float32) [][2]float32 {
	rng := rand.New(rand.NewSource(seed))
	pts := make([][2]float32, n)
	for i := range pts {
		pts[i] = [2]float32{
			scale * (2*rng.Float32() - 1),
			scale * (2*rng.Float32() - 1),
		}
	}
	return pts
}

func near(a, b, tolerance float32) bool {
	return math32.Abs(a-b) <= tolerance*math32.Max(1, math32.Max(math32.Abs(a), math32.Abs(b)))
}

// assertEquivalent checks a and b produce the same output over random points.
func assertEquivalent(t *testing.T, a, b csdf.Shape, tolerance float32) {
	t.Helper()
	for _, p := range randomPoints(1, 256, 200) {
		da, ca := a.Evaluate(p[0], p[1])
		db, cb := b.Evaluate(p[0], p[1])
		if !near(da, db, tolerance) {
			t.Fatalf("at %v: distance mismatch %v != %v", p, da, db)
		}
		if ca != cb {
			t.Fatalf("at %v: color mismatch %v != %v", p, ca, cb)
		}
	}
}

func TestPrimitives(t *testing.T) {
	var bld csdf.Builder
	var tests = []struct {
		name  string
		s     csdf.Shape
		x, y  float32
		want  float32
		color csdf.Color
	}{
		{"circle-origin", bld.NewCircle(50, red), 0, 0, -50, red},
		{"circle-edge", bld.NewCircle(50, red), 30, 40, 0, red},
		{"circle-out", bld.NewCircle(50, red), 0, 60, 10, red},
		{"rect-center", bld.NewRectangle(20, 10, blue), 0, 0, -5, blue},
		{"rect-side", bld.NewRectangle(20, 10, blue), 15, 0, 5, blue},
		{"rect-corner", bld.NewRectangle(20, 10, blue), 13, 9, 5, blue},
		{"torus-mid", bld.NewTorus(30, 10, white), 20, 0, -10, white},
		{"torus-hole", bld.NewTorus(30, 10, white), 0, 0, 10, white},
		{"torus-out", bld.NewTorus(30, 10, white), 0, 35, 5, white},
		{"belt-below", bld.NewBelt(10, yellow), 1000, -20, -25, yellow},
		{"belt-above", bld.NewBelt(10, yellow), -1000, 10, 5, yellow},
		{"capsule-center", bld.NewCapsule(100, 10, red), 0, 0, -10, red},
		{"capsule-cap", bld.NewCapsule(100, 10, red), 60, 0, 0, red},
		{"capsule-above", bld.NewCapsule(100, 10, red), 20, 30, 20, red},
		{"capsule-diag", bld.NewCapsule(100, 10, red), -53, 4, -5, red},
	}
	for _, test := range tests {
		d, c := test.s.Evaluate(test.x, test.y)
		if !near(d, test.want, tol) {
			t.Errorf("%s: want distance %v, got %v", test.name, test.want, d)
		}
		if c != test.color {
			t.Errorf("%s: want color %v, got %v", test.name, test.color, c)
		}
	}
}

func TestCircleRadiusProperty(t *testing.T) {
	var bld csdf.Builder
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		r := 100 * rng.Float32()
		theta := 2 * math.Pi * rng.Float32()
		s := bld.NewCircle(r, white)
		d, _ := s.Evaluate(r*math32.Cos(theta), r*math32.Sin(theta))
		if !near(d, 0, tol) {
			t.Fatalf("r=%v: want 0 on boundary, got %v", r, d)
		}
		d, _ = s.Evaluate(0, 0)
		if d != -r {
			t.Fatalf("r=%v: want %v at origin, got %v", r, -r, d)
		}
	}
}

func TestTransforms(t *testing.T) {
	var bld csdf.Builder
	s := bld.Union(bld.NewRectangle(30, 10, red), bld.Translate(bld.NewCircle(8, blue), 12, 7))
	t.Run("translate-composes", func(t *testing.T) {
		assertEquivalent(t, bld.Translate(bld.Translate(s, 3, -4), -7, 11), bld.Translate(s, -4, 7), tol)
	})
	t.Run("rotate-zero", func(t *testing.T) {
		assertEquivalent(t, bld.Rotate(s, 0), s, 0)
	})
	t.Run("scale-one", func(t *testing.T) {
		assertEquivalent(t, bld.ScaleXY(s, 1, 1), s, 0)
		assertEquivalent(t, bld.Scale(s, 1), s, 0)
	})
	t.Run("rotate-full-turn", func(t *testing.T) {
		assertEquivalent(t, bld.Rotate(s, 2*math.Pi), s, 1e-3)
	})
	t.Run("rotate-counter-clockwise", func(t *testing.T) {
		c := bld.Translate(bld.NewCircle(5, red), 10, 0)
		rotated := bld.Rotate(c, math.Pi/2)
		d, _ := rotated.Evaluate(0, 10)
		if !near(d, -5, tol) {
			t.Errorf("want circle moved to (0,10), got distance %v there", d)
		}
	})
	t.Run("scale-uniform-exact", func(t *testing.T) {
		scaled := bld.Scale(bld.NewCircle(1, red), 2)
		d, _ := scaled.Evaluate(3, 0)
		if !near(d, 1, tol) {
			t.Errorf("want 1, got %v", d)
		}
		if !csdf.IsExact(scaled) {
			t.Error("uniform scale should be exact")
		}
	})
	t.Run("scale-nonuniform-bound", func(t *testing.T) {
		// Ellipse with semi-axes 4 and 1.
		ellipse := bld.ScaleXY(bld.NewCircle(1, red), 4, 1)
		if csdf.IsExact(ellipse) {
			t.Error("non-uniform scale must not be reported exact")
		}
		// Distance along the axes is known exactly; the field must not exceed it.
		for _, p := range [][3]float32{{6, 0, 2}, {0, 3, 2}, {-5, 0, 1}} {
			d, _ := ellipse.Evaluate(p[0], p[1])
			if d > p[2]+tol || d <= 0 {
				t.Errorf("at (%v,%v): want positive distance bounded by %v, got %v", p[0], p[1], p[2], d)
			}
		}
	})
}

func TestCombinatorIdentities(t *testing.T) {
	var bld csdf.Builder
	a := bld.Translate(bld.NewRectangle(40, 20, red), -10, 5)
	b := bld.Rotate(bld.NewCapsule(60, 8, blue), 0.3)
	U := bld.Union(a, b)
	I := bld.Intersect(a, b)
	S := bld.Subtract(a, b)
	for _, p := range randomPoints(2, 1000, 100) {
		x, y := p[0], p[1]
		da, ca := a.Evaluate(x, y)
		db, cb := b.Evaluate(x, y)
		du, cu := U.Evaluate(x, y)
		if du != math32.Min(da, db) {
			t.Fatalf("union at %v: want %v, got %v", p, math32.Min(da, db), du)
		} else if (da <= db && cu != ca) || (db < da && cu != cb) {
			t.Fatalf("union at %v: color of wrong child", p)
		}
		di, ci := I.Evaluate(x, y)
		if di != math32.Max(da, db) {
			t.Fatalf("intersect at %v: want %v, got %v", p, math32.Max(da, db), di)
		} else if (da >= db && ci != ca) || (db > da && ci != cb) {
			t.Fatalf("intersect at %v: color of wrong child", p)
		}
		ds, cs := S.Evaluate(x, y)
		if ds != math32.Max(da, -db) {
			t.Fatalf("subtract at %v: want %v, got %v", p, math32.Max(da, -db), ds)
		} else if (da >= -db && cs != ca) || (-db > da && cs != cb) {
			t.Fatalf("subtract at %v: color of wrong child", p)
		}
	}
}

func TestUnionFlattensAndTies(t *testing.T) {
	var bld csdf.Builder
	a := bld.NewCircle(10, red)
	b := bld.NewCircle(10, blue)
	c := bld.Translate(bld.NewCircle(10, yellow), 100, 0)
	nested := bld.Union(bld.Union(a, b), c)
	flat := bld.Union(a, b, c)
	assertEquivalent(t, nested, flat, 0)
	if csdf.CountNodes(nested) != csdf.CountNodes(flat) {
		t.Errorf("nested union not flattened: %s vs %s", csdf.Format(nested), csdf.Format(flat))
	}
	_, col := nested.Evaluate(0, 0)
	if col != red {
		t.Errorf("tie must go to the first operand, got %v", col)
	}
	_, col = bld.Intersect(a, b).Evaluate(3, 0)
	if col != red {
		t.Errorf("intersect tie must go to the first operand, got %v", col)
	}
}

func TestExpand(t *testing.T) {
	var bld csdf.Builder
	s := bld.Union(bld.NewTorus(40, 20, red), bld.NewBelt(4, blue))
	assertEquivalent(t, bld.Expand(s, 0), s, 0)
	assertEquivalent(t, bld.Expand(bld.Expand(s, 3), -7.5), bld.Expand(s, -4.5), tol)
	d, _ := bld.Expand(bld.NewCircle(10, red), 5).Evaluate(15, 0)
	if !near(d, 0, tol) {
		t.Errorf("expanded circle boundary: want 0, got %v", d)
	}
}

func TestBlendConvergesToUnion(t *testing.T) {
	var bld csdf.Builder
	a := bld.NewCircle(50, red)
	b := bld.Translate(bld.NewCircle(30, blue), 60, 10)
	U := bld.Union(a, b)
	pts := randomPoints(3, 500, 150)
	prevErr := float32(math.Inf(1))
	for _, k := range []float32{40, 20, 10, 5, 1, 0.1, 0.01, 0} {
		B := bld.Blend(a, b, k)
		var maxErr float32
		for _, p := range pts {
			du, _ := U.Evaluate(p[0], p[1])
			db, _ := B.Evaluate(p[0], p[1])
			if db > du+tol {
				t.Fatalf("k=%v: blend must not exceed union distance at %v", k, p)
			}
			maxErr = math32.Max(maxErr, du-db)
		}
		if maxErr > k/4+tol {
			t.Errorf("k=%v: error %v exceeds bound %v", k, maxErr, k/4)
		}
		if maxErr > prevErr {
			t.Errorf("k=%v: error %v did not shrink from %v", k, maxErr, prevErr)
		}
		prevErr = maxErr
	}
	if prevErr != 0 {
		t.Errorf("blend with k=0 must equal union, error %v", prevErr)
	}
}

// countingShape counts evaluations of the wrapped shape.
type countingShape struct {
	csdf.Shape
	mu    sync.Mutex
	count int
}

func (c *countingShape) Evaluate(x, y float32) (float32, csdf.Color) {
	c.mu.Lock()
	c.count++
	c.mu.Unlock()
	return c.Shape.Evaluate(x, y)
}

func (c *countingShape) ForEach2DChild(userData any, fn func(userData any, s glbuild.Shader2D) error) error {
	return fn(userData, c.Shape)
}

func TestOriginColorSampledOnce(t *testing.T) {
	var bld csdf.Builder
	// Colors at origin differ from colors elsewhere.
	left := &countingShape{Shape: bld.Union(bld.NewCircle(5, csdf.NewColor(10, 20, 30, 0.25)), bld.Translate(bld.NewCircle(5, red), 100, 0))}
	right := &countingShape{Shape: bld.NewCircle(2, csdf.NewColor(1, 2, 3, 0.5))}
	displaced := bld.Displace(left, right)
	if left.count != 1 || right.count != 1 {
		t.Fatalf("want one construction sample per child, got %d and %d", left.count, right.count)
	}
	wantColor := csdf.NewColor(11, 22, 33, 0.75)
	for _, p := range [][2]float32{{0, 0}, {100, 0}, {-40, 77}} {
		d, c := displaced.Evaluate(p[0], p[1])
		dl, _ := left.Shape.Evaluate(p[0], p[1])
		dr, _ := right.Shape.Evaluate(p[0], p[1])
		if d != dl+dr {
			t.Errorf("displace at %v: want %v, got %v", p, dl+dr, d)
		}
		if c != wantColor {
			t.Errorf("displace at %v: want fixed color %v, got %v", p, wantColor, c)
		}
	}
	left.count, right.count = 0, 0
	blended := bld.Blend(left, right, 0)
	if left.count != 1 || right.count != 1 {
		t.Fatalf("want one construction sample per child, got %d and %d", left.count, right.count)
	}
	_, c := blended.Evaluate(100, 0)
	if want := csdf.NewColor(1, 2, 3, 0.25); c != want {
		t.Errorf("blend color with k=0: want channel-wise min %v, got %v", want, c)
	}
}

func TestColorSDF(t *testing.T) {
	var bld csdf.Builder
	s := bld.Union(bld.NewCircle(10, red), bld.Translate(bld.NewCircle(10, blue), 30, 0))
	painted := bld.ColorSDF(s, yellow)
	for _, p := range randomPoints(4, 100, 50) {
		d, c := painted.Evaluate(p[0], p[1])
		want, _ := s.Evaluate(p[0], p[1])
		if d != want || c != yellow {
			t.Fatalf("at %v: want (%v,%v), got (%v,%v)", p, want, yellow, d, c)
		}
	}
}

func TestTwoCirclesUnion(t *testing.T) {
	var bld csdf.Builder
	first := csdf.NewColor(255, 255, 252, 1)
	second := csdf.NewColor(0, 255, 255, 1)
	s := bld.Union(bld.NewCircle(50, first), bld.Translate(bld.NewCircle(50, second), 50, 0))
	d, c := s.Evaluate(25, 0)
	// The midpoint is 25 units from both centers.
	if d != -25 {
		t.Errorf("want -25 at midpoint, got %v", d)
	}
	if c != first {
		t.Errorf("tie must resolve to first operand color %v, got %v", first, c)
	}
}

func TestSubtractScenario(t *testing.T) {
	var bld csdf.Builder
	colorA := csdf.NewColor(255, 255, 252, 1)
	colorB := csdf.NewColor(0, 255, 255, 1)
	s := bld.Subtract(bld.NewCircle(50, colorA), bld.Translate(bld.NewCircle(50, colorB), 50, 0))
	d, c := s.Evaluate(-40, 0)
	if d >= 0 || c != colorA {
		t.Errorf("untouched region: want negative distance with colorA, got %v %v", d, c)
	}
	for _, p := range [][2]float32{{25, 0}, {40, 10}, {10, 0}} {
		d, _ := s.Evaluate(p[0], p[1])
		if d < 0 {
			t.Errorf("lens region at %v must be carved away, got %v", p, d)
		}
	}
	// The origin lies on the carved boundary which takes b's color.
	d, c = s.Evaluate(0, 0)
	if d != 0 || c != colorB {
		t.Errorf("origin: want 0 with colorB, got %v %v", d, c)
	}
}

func TestDemoScene(t *testing.T) {
	var bld csdf.Builder
	c := bld.NewCircle(50, csdf.NewColor(255, 255, 252, 1))
	c2 := bld.Translate(bld.NewCircle(50, csdf.NewColor(0, 255, 255, 1)), 50, 0)
	c3 := bld.Translate(bld.NewCircle(10, yellow), 70, 0)
	rec := bld.Translate(bld.NewRectangle(50, 50, red), 0, -200)
	scene := bld.Union(bld.Union(bld.Subtract(c, c2), rec), c3)
	if got := csdf.Format(scene); got != "union(subtract(circle,translate(circle)),translate(rect),translate(circle))" {
		t.Errorf("unexpected scene %s", got)
	}
	_, col := scene.Evaluate(70, 0)
	if col != yellow {
		t.Errorf("small circle should paint (70,0), got %v", col)
	}
	d, col := scene.Evaluate(0, -200)
	if d != -25 || col != red {
		t.Errorf("rectangle center: got %v %v", d, col)
	}
	if csdf.IsExact(scene) {
		t.Error("scene with boolean operations is not exact")
	}
	if n := csdf.CountNodes(scene); n != 9 {
		t.Errorf("want 9 nodes, got %d", n)
	}
}

func TestFiniteEverywhere(t *testing.T) {
	var bld csdf.Builder
	c := bld.NewCircle(0, red)
	shapes := []csdf.Shape{
		c,
		bld.NewRectangle(0, 0, red),
		bld.NewTorus(5, 5, red),
		bld.NewBelt(0, red),
		bld.NewCapsule(0, 0, red),
		bld.ScaleXY(bld.NewCapsule(10, 1, blue), -1e-3, 1e3),
		bld.Rotate(bld.NewTorus(30, 2, blue), 1e6),
		bld.Blend(c, bld.NewBelt(10, blue), 1e3),
		bld.Displace(bld.NewTorus(3, 1, red), bld.Expand(c, -1e4)),
		bld.Subtract(bld.NewBelt(1, red), bld.Intersect(c, bld.NewRectangle(1, 1e6, blue))),
	}
	pts := append(randomPoints(5, 200, 1e4), [2]float32{}, [2]float32{1e15, -1e15}, [2]float32{-1e-30, 1e-30})
	for _, s := range shapes {
		for _, p := range pts {
			d, col := s.Evaluate(p[0], p[1])
			if math32.IsNaN(d) || math32.IsInf(d, 0) || !col.IsFinite() {
				t.Fatalf("%s at %v: non-finite result %v %v", csdf.Format(s), p, d, col)
			}
		}
	}
}

func TestConcurrentEvaluation(t *testing.T) {
	var bld csdf.Builder
	c := bld.NewCircle(50, red)
	scene := bld.Blend(bld.Union(c, bld.Rotate(bld.NewCapsule(80, 5, blue), 1)), bld.Translate(c, 40, 0), 8)
	pts := randomPoints(6, 2000, 100)
	want := make([]float32, len(pts))
	for i, p := range pts {
		want[i], _ = scene.Evaluate(p[0], p[1])
	}
	var wg sync.WaitGroup
	var mu sync.Mutex
	mismatches := 0
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i, p := range pts {
				d, _ := scene.Evaluate(p[0], p[1])
				if d != want[i] {
					mu.Lock()
					mismatches++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()
	if mismatches != 0 {
		t.Errorf("got %d mismatches under concurrent evaluation", mismatches)
	}
}

func TestBuilderPanicsByDefault(t *testing.T) {
	var tests = map[string]func(bld *csdf.Builder){
		"circle-negative":   func(bld *csdf.Builder) { bld.NewCircle(-1, red) },
		"circle-nan":        func(bld *csdf.Builder) { bld.NewCircle(float32(math.NaN()), red) },
		"rect-negative":     func(bld *csdf.Builder) { bld.NewRectangle(1, -1, red) },
		"torus-inverted":    func(bld *csdf.Builder) { bld.NewTorus(1, 2, red) },
		"torus-negative":    func(bld *csdf.Builder) { bld.NewTorus(1, -1, red) },
		"belt-negative":     func(bld *csdf.Builder) { bld.NewBelt(-2, red) },
		"capsule-negative":  func(bld *csdf.Builder) { bld.NewCapsule(-1, 1, red) },
		"color-nan":         func(bld *csdf.Builder) { bld.NewCircle(1, csdf.NewColor(float32(math.NaN()), 0, 0, 1)) },
		"scale-zero":        func(bld *csdf.Builder) { bld.ScaleXY(bld.NewCircle(1, red), 1, 0) },
		"translate-inf":     func(bld *csdf.Builder) { bld.Translate(bld.NewCircle(1, red), float32(math.Inf(1)), 0) },
		"rotate-nan":        func(bld *csdf.Builder) { bld.Rotate(bld.NewCircle(1, red), float32(math.NaN())) },
		"blend-negative":    func(bld *csdf.Builder) { bld.Blend(bld.NewCircle(1, red), bld.NewCircle(1, red), -1) },
		"expand-inf":        func(bld *csdf.Builder) { bld.Expand(bld.NewCircle(1, red), float32(math.Inf(-1))) },
		"union-nil":         func(bld *csdf.Builder) { bld.Union(bld.NewCircle(1, red), nil) },
		"subtract-nil":      func(bld *csdf.Builder) { bld.Subtract(nil, bld.NewCircle(1, red)) },
		"colorsdf-bad":      func(bld *csdf.Builder) { bld.ColorSDF(bld.NewCircle(1, red), csdf.NewColor(0, 0, 0, float32(math.Inf(1)))) },
		"displace-nil":      func(bld *csdf.Builder) { bld.Displace(nil, nil) },
		"intersect-nil":     func(bld *csdf.Builder) { bld.Intersect(bld.NewCircle(1, red), nil) },
		"scale-uniform-nil": func(bld *csdf.Builder) { bld.Scale(nil, 2) },
	}
	for name, fn := range tests {
		t.Run(name, func(t *testing.T) {
			var bld csdf.Builder
			defer func() {
				if recover() == nil {
					t.Error("expected panic")
				}
			}()
			fn(&bld)
		})
	}
}

func TestBuilderErrors(t *testing.T) {
	var bld csdf.Builder
	bld.SetFlags(csdf.FlagNoDimensionPanic)
	if bld.Flags()&csdf.FlagNoDimensionPanic == 0 {
		t.Fatal("flag not set")
	}
	s := bld.NewCircle(-1, red)
	if s != nil {
		t.Error("expecting nil shape for invalid radius")
	}
	err := bld.Err()
	if !errors.Is(err, csdf.ErrBadParameter) {
		t.Errorf("want ErrBadParameter, got %v", err)
	}
	// Invalid nodes never make it into a scene.
	scene := bld.Union(bld.Translate(s, 1, 1), bld.NewCircle(1, red))
	if scene != nil {
		t.Error("expected nil scene built from invalid shape")
	}
	err = bld.Err()
	if !errors.Is(err, csdf.ErrNilShape) {
		t.Errorf("want ErrNilShape, got %v", err)
	}
	if !strings.Contains(err.Error(), "NewCircle") {
		t.Errorf("error should name the failing constructor: %v", err)
	}
	bld.ClearErrors()
	if bld.Err() != nil {
		t.Error("expected builder error to be cleared")
	}
	if bld.NewCircle(1, red) == nil || bld.Err() != nil {
		t.Error("valid construction after clear failed")
	}
}

func TestBuilderLogsAccumulatedErrors(t *testing.T) {
	var buf bytes.Buffer
	csdf.SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})))
	defer csdf.SetLogger(nil)
	var bld csdf.Builder
	bld.SetFlags(csdf.FlagNoDimensionPanic)
	bld.NewTorus(1, 2, red)
	if !strings.Contains(buf.String(), "NewTorus") {
		t.Errorf("expected warning naming constructor, got %q", buf.String())
	}
	buf.Reset()
	csdf.SetLogger(nil)
	bld.NewTorus(1, 2, red)
	if buf.Len() != 0 {
		t.Error("nil logger must silence output")
	}
}

func TestColor(t *testing.T) {
	c := csdf.NewColor(300, -20, 127.6, 1.5)
	got := c.NRGBA()
	if got.R != 255 || got.G != 0 || got.B != 128 || got.A != 255 {
		t.Errorf("boundary conversion: got %+v", got)
	}
	got = csdf.NewColor(10, 20, 30, 0.5).NRGBA()
	if got.A != 128 {
		t.Errorf("want alpha 128, got %d", got.A)
	}
	sum := csdf.NewColor(200, 100, 0, 0.75).Add(csdf.NewColor(100, 0, 5, 0.5))
	if sum != csdf.NewColor(300, 100, 5, 1.25) {
		t.Errorf("Add must not clamp, got %v", sum)
	}
	m := csdf.NewColor(10, 200, 30, 1).SmoothMin(csdf.NewColor(20, 100, 30, 0), 0)
	if m != csdf.NewColor(10, 100, 30, 0) {
		t.Errorf("SmoothMin with k=0 is channel-wise min, got %v", m)
	}
	m = csdf.NewColor(10, 10, 10, 1).SmoothMin(csdf.NewColor(10, 10, 10, 1), 4)
	if m.R != 9 {
		t.Errorf("SmoothMin of equal values dips by k/4, got %v", m.R)
	}
	if csdf.NewColor(0, float32(math.Inf(1)), 0, 0).IsFinite() {
		t.Error("infinite channel reported finite")
	}
	r, _, _, a := white.RGBA()
	if r != 0xffff || a != 0xffff {
		t.Errorf("RGBA: got %x %x", r, a)
	}
}

func TestIsExact(t *testing.T) {
	var bld csdf.Builder
	c := bld.NewCircle(1, red)
	var tests = []struct {
		s    csdf.Shape
		want bool
	}{
		{c, true},
		{bld.Translate(bld.Rotate(bld.Expand(c, 1), 1), 1, 2), true},
		{bld.ScaleXY(c, -2, 2), true},
		{bld.ColorSDF(c, blue), true},
		{bld.ScaleXY(c, 1, 2), false},
		{bld.Union(c, c), false},
		{bld.Translate(bld.Subtract(c, c), 1, 1), false},
		{bld.Displace(c, c), false},
		{bld.Blend(c, c, 1), false},
		{nil, false},
	}
	for i, test := range tests {
		if got := csdf.IsExact(test.s); got != test.want {
			t.Errorf("%d %s: want %v, got %v", i, csdf.Format(test.s), test.want, got)
		}
	}
}

func TestGLSLGeneration(t *testing.T) {
	var bld csdf.Builder
	c := bld.NewCircle(50, red)
	shapes := []csdf.Shape{
		bld.NewRectangle(1, 2, red),
		bld.NewTorus(3, 1, red),
		bld.NewBelt(2, red),
		bld.NewCapsule(5, 1, red),
		bld.Scale(c, 2),
		bld.Rotate(c, 1),
		bld.Union(c, bld.Translate(c, 1, 0), bld.Translate(c, 2, 0)),
		bld.Subtract(c, bld.Translate(c, 50, 0)),
		bld.Intersect(c, bld.NewBelt(1, blue)),
		bld.Expand(c, -2),
		bld.Displace(c, bld.NewCircle(1, blue)),
		bld.Blend(c, bld.NewCircle(1, blue), 3),
		bld.Blend(c, bld.NewCircle(1, blue), 0),
		bld.ColorSDF(c, blue),
	}
	prog := glbuild.NewDefaultProgrammer()
	var buf bytes.Buffer
	for _, s := range shapes {
		buf.Reset()
		_, err := prog.WriteComputeSDF2(&buf, s)
		if err != nil {
			t.Fatalf("%s: %v", csdf.Format(s), err)
		}
		src := buf.String()
		if strings.Count(src, "{") != strings.Count(src, "}") {
			t.Errorf("%s: unbalanced braces\n%s", csdf.Format(s), src)
		}
		if strings.Contains(src, "NaN") || strings.Contains(src, "__") {
			t.Errorf("%s: invalid GLSL token\n%s", csdf.Format(s), src)
		}
		for _, line := range strings.Split(src, "\n") {
			if strings.HasPrefix(line, "float ") && strings.HasSuffix(line, "(vec2 p, out vec4 c){") {
				name := strings.TrimSuffix(strings.TrimPrefix(line, "float "), "(vec2 p, out vec4 c){")
				if strings.ContainsAny(name, ".-,") {
					t.Errorf("bad identifier %q", name)
				}
			}
		}
	}
}
