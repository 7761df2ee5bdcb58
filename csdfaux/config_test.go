package csdfaux_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/soypat/csdf"
	"github.com/soypat/csdf/csdfaux"
	"github.com/soypat/geometry/ms2"
)

func TestDefaultRenderConfig(t *testing.T) {
	cfg := csdfaux.DefaultRenderConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.Viewport.Width != 800 || cfg.Viewport.Height != 600 {
		t.Errorf("unexpected viewport size %dx%d", cfg.Viewport.Width, cfg.Viewport.Height)
	}
	if !cfg.AntiAlias || cfg.Raytrace.SubDivide != 4 || cfg.RenderOrder != csdfaux.OrderProgressive {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}

func TestPixelToScene(t *testing.T) {
	vp := csdfaux.DefaultRenderConfig().Viewport
	var tests = []struct {
		px, py float32
		want   ms2.Vec
	}{
		{px: 399, py: 299, want: ms2.Vec{}},
		{px: 0, py: 0, want: ms2.Vec{X: -399, Y: -299}},
		{px: 399.5, py: 300.25, want: ms2.Vec{X: 0.5, Y: 1.25}},
	}
	for _, test := range tests {
		got := vp.PixelToScene(test.px, test.py)
		if got != test.want {
			t.Errorf("PixelToScene(%v,%v): want %v, got %v", test.px, test.py, test.want, got)
		}
	}
	var bld csdf.Builder
	circle := bld.NewCircle(50, csdf.NewColor(255, 0, 0, 1))
	d, c := vp.Sample(circle, 399, 299)
	if d != -50 || c != csdf.NewColor(255, 0, 0, 1) {
		t.Errorf("sampling viewport center: got %v %v", d, c)
	}
}

func TestLoadRenderConfig(t *testing.T) {
	const input = `{
	"environment": {"backgroundColor": {"r": 255, "g": 128, "b": 180, "a": 1}},
	"raytrace": {"hitThreshold": 0.5, "sampleFunction": "uniform"},
	"viewport": {"width": 64, "height": 32, "transform": [[2, 0, -64], [0, -2, 32]]}
}`
	cfg, err := csdfaux.LoadRenderConfig(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Environment.Background != csdf.NewColor(255, 128, 180, 1) {
		t.Errorf("background not decoded: %v", cfg.Environment.Background)
	}
	if cfg.Raytrace.HitThreshold != 0.5 || cfg.Raytrace.SampleFunction != csdfaux.SampleUniform {
		t.Errorf("raytrace not decoded: %+v", cfg.Raytrace)
	}
	if cfg.Raytrace.ReflectDepth != 8 || !cfg.AntiAlias {
		t.Error("absent fields must keep defaults")
	}
	got := cfg.Viewport.PixelToScene(32, 16)
	if got != (ms2.Vec{}) {
		t.Errorf("want origin at viewport center, got %v", got)
	}
}

func TestLoadRenderConfigErrors(t *testing.T) {
	var tests = []string{
		`{"unknownField": 1}`,
		`{"raytrace": {"hitThreshold": 0}}`,
		`{"raytrace": {"sampleFunction": "spiral"}}`,
		`{"renderOrder": "random"}`,
		`{"viewport": {"width": 0}}`,
		`{"viewport": {"transform": [[0, 0, 0], [0, 0, 0]]}}`,
		`{"raytrace": {"subDivide": 0}}`,
		`not json`,
	}
	for _, input := range tests {
		_, err := csdfaux.LoadRenderConfig(strings.NewReader(input))
		if err == nil {
			t.Errorf("expected error for %s", input)
		}
	}
}

func TestValidateJoinsErrors(t *testing.T) {
	cfg := csdfaux.DefaultRenderConfig()
	cfg.Raytrace.ReflectDepth = -1
	cfg.Viewport.Height = -1
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	var joined interface{ Unwrap() []error }
	if !errors.As(err, &joined) || len(joined.Unwrap()) != 2 {
		t.Errorf("want two joined errors, got %v", err)
	}
}
