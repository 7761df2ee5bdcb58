// Package gleval evaluates colored 2D SDFs over batches of positions, the form
// in which renderers and GPU programs consume them.
package gleval

import (
	"errors"
	"fmt"
	"slices"
	"sync/atomic"

	"github.com/chewxy/math32"
	"github.com/soypat/csdf"
	"github.com/soypat/geometry/ms2"
)

// SDF2 implements a colored 2D signed distance field in vectorized
// form suitable for running on GPU.
type SDF2 interface {
	// Evaluate evaluates the signed distance field over pos positions.
	// dist and pos must be of same length. Resulting distances are stored
	// in dist. colors may be nil, otherwise it must be of same length as pos
	// and receives the surface color at each position.
	//
	// userData facilitates getting data to the evaluators for use in processing, such as [VecPool].
	Evaluate(pos []ms2.Vec, dist []float32, colors []csdf.Color, userData any) error
}

var (
	errEmptyBuffers         = errors.New("empty buffers")
	errMismatchBufferLength = errors.New("position and distance buffer length mismatch")
	errMismatchColorLength  = errors.New("position and color buffer length mismatch")
)

func checkBuffers(pos []ms2.Vec, dist []float32, colors []csdf.Color) error {
	if len(pos) != len(dist) {
		return errMismatchBufferLength
	} else if colors != nil && len(colors) != len(pos) {
		return errMismatchColorLength
	} else if len(pos) == 0 {
		return errEmptyBuffers
	}
	return nil
}

// NewCPUSDF2 returns an [SDF2] evaluating s on the CPU.
func NewCPUSDF2(s csdf.Shape) (*SDF2CPU, error) {
	if s == nil {
		return nil, errors.New("nil shape")
	}
	return &SDF2CPU{shape: s}, nil
}

// SDF2CPU evaluates a [csdf.Shape] point by point. It is safe for concurrent use.
type SDF2CPU struct {
	shape csdf.Shape
	evals atomic.Uint64
}

// Evaluate implements [SDF2].
func (s *SDF2CPU) Evaluate(pos []ms2.Vec, dist []float32, colors []csdf.Color, userData any) error {
	err := checkBuffers(pos, dist, colors)
	if err != nil {
		return err
	}
	if colors == nil {
		for i, p := range pos {
			dist[i], _ = s.shape.Evaluate(p.X, p.Y)
		}
	} else {
		for i, p := range pos {
			dist[i], colors[i] = s.shape.Evaluate(p.X, p.Y)
		}
	}
	s.evals.Add(uint64(len(pos)))
	return nil
}

// Shape returns the shape evaluated by s.
func (s *SDF2CPU) Shape() csdf.Shape { return s.shape }

// Evaluations returns total positions evaluated during the SDF's lifetime.
func (s *SDF2CPU) Evaluations() uint64 { return s.evals.Load() }

// GradientsCentralDiff uses central differences to approximate the distance gradient at each position,
// which are stored in grads. The returned gradients are not normalized. For exact
// distance fields their length is close to 1 away from sharp features.
// userData must carry a [VecPool].
func GradientsCentralDiff(s SDF2, pos []ms2.Vec, grads []ms2.Vec, step float32, userData any) error {
	if step <= 0 || math32.IsInf(step, 0) || math32.IsNaN(step) {
		return errors.New("invalid step")
	} else if len(pos) != len(grads) {
		return errors.New("length of position must match length of gradients")
	} else if s == nil {
		return errors.New("nil SDF2")
	} else if len(pos) == 0 {
		return errEmptyBuffers
	}
	vp, err := GetVecPool(userData)
	if err != nil {
		return fmt.Errorf("VecPool required for gradient calculation: %w", err)
	}
	h := step * 0.5
	d1 := vp.Float.Acquire(len(pos))
	d2 := vp.Float.Acquire(len(pos))
	auxPos := vp.V2.Acquire(len(pos))
	defer vp.Float.Release(d1)
	defer vp.Float.Release(d2)
	defer vp.V2.Release(auxPos)
	var vecs = [2]ms2.Vec{{X: h}, {Y: h}}
	inv := 1 / step
	for dim := 0; dim < 2; dim++ {
		hv := vecs[dim]
		for i, p := range pos {
			auxPos[i] = ms2.Add(p, hv)
		}
		err = s.Evaluate(auxPos, d1, nil, userData)
		if err != nil {
			return err
		}
		for i, p := range pos {
			auxPos[i] = ms2.Sub(p, hv)
		}
		err = s.Evaluate(auxPos, d2, nil, userData)
		if err != nil {
			return err
		}
		switch dim {
		case 0:
			for i, d := range d1 {
				grads[i].X = (d - d2[i]) * inv
			}
		case 1:
			for i, d := range d1 {
				grads[i].Y = (d - d2[i]) * inv
			}
		}
	}
	return nil
}

// BlockCachedSDF2 caches evaluations of an SDF2 on a grid of square-ish cells:
// every position inside a cell reports the distance and color of the first position
// evaluated in that cell. This trades purity and precision for speed:
// results depend on evaluation order. Not safe for concurrent use.
type BlockCachedSDF2 struct {
	sdf     SDF2
	mul     ms2.Vec
	m       map[[2]int]cachedSample
	posbuf  []ms2.Vec
	distbuf []float32
	colbuf  []csdf.Color
	idxbuf  []int
	hits    uint64
	evals   uint64
}

type cachedSample struct {
	d float32
	c csdf.Color
}

// Reset resets the cache to evaluate sdf with cells of size resX by resY and reuses the underlying buffers.
// It also resets statistics such as evaluations and cache hits.
func (c2 *BlockCachedSDF2) Reset(sdf SDF2, resX, resY float32) error {
	if sdf == nil {
		return errors.New("nil SDF2")
	} else if !(resX > 0) || !(resY > 0) || math32.IsInf(resX, 0) || math32.IsInf(resY, 0) {
		return errors.New("invalid resolution for BlockCachedSDF2")
	}
	if c2.m == nil {
		c2.m = make(map[[2]int]cachedSample)
	} else {
		clear(c2.m)
	}
	*c2 = BlockCachedSDF2{
		sdf:     sdf,
		mul:     ms2.Vec{X: 1 / resX, Y: 1 / resY},
		m:       c2.m,
		posbuf:  c2.posbuf[:0],
		distbuf: c2.distbuf[:0],
		colbuf:  c2.colbuf[:0],
		idxbuf:  c2.idxbuf[:0],
	}
	csdf.Logger().Debug("block cache reset", "resX", resX, "resY", resY)
	return nil
}

// VecPool returns the VecPool of the underlying SDF, if any.
func (c2 *BlockCachedSDF2) VecPool() *VecPool {
	vp, _ := GetVecPool(c2.sdf)
	return vp
}

// CacheHits returns total amount of cached evaluations done since the last Reset.
func (c2 *BlockCachedSDF2) CacheHits() uint64 {
	return c2.hits
}

// Evaluations returns total evaluations performed successfully since the last Reset, including cached.
func (c2 *BlockCachedSDF2) Evaluations() uint64 {
	return c2.evals
}

func (c2 *BlockCachedSDF2) key(p ms2.Vec) [2]int {
	tp := ms2.MulElem(c2.mul, p)
	return [2]int{int(math32.Floor(tp.X)), int(math32.Floor(tp.Y))}
}

// Evaluate implements the [SDF2] interface with cached evaluation.
func (c2 *BlockCachedSDF2) Evaluate(pos []ms2.Vec, dist []float32, colors []csdf.Color, userData any) error {
	if c2.sdf == nil {
		return errors.New("BlockCachedSDF2 not initialized, call Reset")
	}
	err := checkBuffers(pos, dist, colors)
	if err != nil {
		return err
	}
	seekPos := c2.posbuf[:0]
	idx := c2.idxbuf[:0]
	for i, p := range pos {
		sample, cached := c2.m[c2.key(p)]
		if cached {
			dist[i] = sample.d
			if colors != nil {
				colors[i] = sample.c
			}
		} else {
			seekPos = append(seekPos, p)
			idx = append(idx, i)
		}
	}
	if len(idx) > 0 {
		// Renew buffers in case they were grown.
		c2.idxbuf = idx
		c2.posbuf = seekPos
		c2.distbuf = slices.Grow(c2.distbuf[:0], len(seekPos))
		c2.colbuf = slices.Grow(c2.colbuf[:0], len(seekPos))
		seekDist := c2.distbuf[:len(seekPos)]
		seekCol := c2.colbuf[:len(seekPos)]
		err := c2.sdf.Evaluate(seekPos, seekDist, seekCol, userData)
		if err != nil {
			return err
		}
		for i, p := range seekPos {
			k := c2.key(p)
			if _, ok := c2.m[k]; !ok {
				c2.m[k] = cachedSample{d: seekDist[i], c: seekCol[i]}
			}
			// Positions sharing a cell within this batch report the first sample.
			sample := c2.m[k]
			dist[idx[i]] = sample.d
			if colors != nil {
				colors[idx[i]] = sample.c
			}
		}
	}
	c2.evals += uint64(len(dist))
	c2.hits += uint64(len(dist) - len(seekPos))
	return nil
}
