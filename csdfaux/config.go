// Package csdfaux holds auxiliary types for consumers of csdf shapes, such as
// the configuration record exchanged with raytracing renderers.
package csdfaux

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/chewxy/math32"
	"github.com/soypat/csdf"
	"github.com/soypat/geometry/ms2"
)

// Sampling strategies understood by renderers.
const (
	SampleJittered = "jittered"
	SampleUniform  = "uniform"
	SampleRandom   = "random"
)

// Render orders understood by renderers.
const (
	OrderProgressive = "progressive"
	OrderFullFrame   = "fullframe"
)

// RenderConfig is the configuration a renderer receives together with a shape.
// csdf does not interpret it.
type RenderConfig struct {
	Environment Environment `json:"environment"`
	Raytrace    Raytrace    `json:"raytrace"`
	// RenderOrder is one of [OrderProgressive] or [OrderFullFrame].
	RenderOrder string   `json:"renderOrder"`
	Viewport    Viewport `json:"viewport"`
	AntiAlias   bool     `json:"antiAlias"`
}

type Environment struct {
	Ambient    csdf.Color `json:"ambient"`
	Background csdf.Color `json:"backgroundColor"`
}

type Raytrace struct {
	// HitThreshold is the distance under which sphere marching considers the surface hit.
	HitThreshold float32 `json:"hitThreshold"`
	ReflectDepth int     `json:"reflectDepth"`
	RefractDepth int     `json:"refractDepth"`
	// SampleFunction is one of [SampleJittered], [SampleUniform] or [SampleRandom].
	SampleFunction string `json:"sampleFunction"`
	// SubDivide is the number of sub-samples per pixel side when anti-aliasing.
	SubDivide int `json:"subDivide"`
}

// Viewport maps output pixels to scene coordinates.
type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
	// Transform is the 2x3 affine transform taking pixel coordinates (x,y,1) to the scene.
	Transform [2][3]float32 `json:"transform"`
}

// DefaultRenderConfig returns an 800x600 progressive, anti-aliased configuration
// with the scene origin near the center of the viewport.
func DefaultRenderConfig() RenderConfig {
	return RenderConfig{
		Environment: Environment{
			Ambient:    csdf.NewColor(0, 0, 0, 1),
			Background: csdf.NewColor(0, 0, 0, 1),
		},
		Raytrace: Raytrace{
			HitThreshold:   0.01,
			ReflectDepth:   8,
			RefractDepth:   8,
			SampleFunction: SampleJittered,
			SubDivide:      4,
		},
		RenderOrder: OrderProgressive,
		Viewport: Viewport{
			Width:  800,
			Height: 600,
			Transform: [2][3]float32{
				{1, 0, -400 + 1},
				{0, 1, -300 + 1},
			},
		},
		AntiAlias: true,
	}
}

// Validate checks the configuration for values no renderer can work with.
func (cfg *RenderConfig) Validate() error {
	var errs []error
	if !(cfg.Raytrace.HitThreshold > 0) || math32.IsInf(cfg.Raytrace.HitThreshold, 0) {
		errs = append(errs, fmt.Errorf("hit threshold must be positive and finite, got %v", cfg.Raytrace.HitThreshold))
	}
	if cfg.Raytrace.ReflectDepth < 0 || cfg.Raytrace.RefractDepth < 0 {
		errs = append(errs, errors.New("negative recursion depth"))
	}
	switch cfg.Raytrace.SampleFunction {
	case SampleJittered, SampleUniform, SampleRandom:
	default:
		errs = append(errs, fmt.Errorf("unknown sample function %q", cfg.Raytrace.SampleFunction))
	}
	if cfg.Raytrace.SubDivide < 1 {
		errs = append(errs, fmt.Errorf("sub-division must be at least 1, got %d", cfg.Raytrace.SubDivide))
	}
	switch cfg.RenderOrder {
	case OrderProgressive, OrderFullFrame:
	default:
		errs = append(errs, fmt.Errorf("unknown render order %q", cfg.RenderOrder))
	}
	if cfg.Viewport.Width <= 0 || cfg.Viewport.Height <= 0 {
		errs = append(errs, fmt.Errorf("bad viewport size %dx%d", cfg.Viewport.Width, cfg.Viewport.Height))
	}
	for _, row := range cfg.Viewport.Transform {
		for _, v := range row {
			if math32.IsNaN(v) || math32.IsInf(v, 0) {
				errs = append(errs, errors.New("non-finite viewport transform"))
				break
			}
		}
	}
	t := cfg.Viewport.Transform
	if det := t[0][0]*t[1][1] - t[0][1]*t[1][0]; det == 0 {
		errs = append(errs, errors.New("singular viewport transform"))
	}
	if !cfg.Environment.Ambient.IsFinite() || !cfg.Environment.Background.IsFinite() {
		errs = append(errs, errors.New("non-finite environment color"))
	}
	return errors.Join(errs...)
}

// PixelToScene maps the pixel coordinate (px,py) to scene coordinates.
// Fractional pixel coordinates are valid and used for sub-sampling.
func (vp Viewport) PixelToScene(px, py float32) ms2.Vec {
	t := vp.Transform
	return ms2.Vec{
		X: t[0][0]*px + t[0][1]*py + t[0][2],
		Y: t[1][0]*px + t[1][1]*py + t[1][2],
	}
}

// Sample evaluates s at the scene position of pixel (px,py).
func (vp Viewport) Sample(s csdf.Shape, px, py float32) (float32, csdf.Color) {
	p := vp.PixelToScene(px, py)
	return s.Evaluate(p.X, p.Y)
}

// LoadRenderConfig reads a JSON render configuration. Fields absent from the
// input keep the values of [DefaultRenderConfig]. Unknown fields are an error.
func LoadRenderConfig(r io.Reader) (RenderConfig, error) {
	cfg := DefaultRenderConfig()
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	err := dec.Decode(&cfg)
	if err != nil {
		return RenderConfig{}, fmt.Errorf("decoding render config: %w", err)
	}
	err = cfg.Validate()
	if err != nil {
		return RenderConfig{}, fmt.Errorf("invalid render config: %w", err)
	}
	return cfg, nil
}
