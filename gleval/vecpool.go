package gleval

import (
	"errors"
	"fmt"

	"github.com/soypat/csdf"
	"github.com/soypat/geometry/ms2"
)

// VecPool provides reusable scratch buffers for batch evaluation of SDFs.
// Pass a *VecPool as userData to [SDF2.Evaluate] and helpers such as [GradientsCentralDiff].
// A VecPool is not safe for concurrent use; use one per goroutine.
type VecPool struct {
	V2    bufPool[ms2.Vec]
	Float bufPool[float32]
	Color bufPool[csdf.Color]
}

// SetMinAllocationLen sets the minimum length of newly allocated buffers.
func (vp *VecPool) SetMinAllocationLen(minimumLength int) {
	vp.V2.minAlloc = minimumLength
	vp.Float.minAlloc = minimumLength
	vp.Color.minAlloc = minimumLength
}

// AssertAllReleased returns a non-nil error if any buffer is still acquired.
func (vp *VecPool) AssertAllReleased() error {
	err := vp.Float.assertAllReleased()
	if err != nil {
		return fmt.Errorf("Float pool: %w", err)
	}
	err = vp.V2.assertAllReleased()
	if err != nil {
		return fmt.Errorf("V2 pool: %w", err)
	}
	err = vp.Color.assertAllReleased()
	if err != nil {
		return fmt.Errorf("Color pool: %w", err)
	}
	return nil
}

// TotalAlloc returns the number of elements allocated across all buffers.
func (vp *VecPool) TotalAlloc() int {
	return vp.Float.totalAlloc() + vp.V2.totalAlloc() + vp.Color.totalAlloc()
}

// GetVecPool extracts a *VecPool from userData, either directly
// or through a VecPool() method.
func GetVecPool(userData any) (*VecPool, error) {
	switch v := userData.(type) {
	case *VecPool:
		if v == nil {
			return nil, errors.New("nil *VecPool")
		}
		return v, nil
	case interface{ VecPool() *VecPool }:
		vp := v.VecPool()
		if vp == nil {
			return nil, errors.New("VecPool method returned nil")
		}
		return vp, nil
	}
	return nil, fmt.Errorf("want userData *gleval.VecPool, got %T", userData)
}

type bufPool[T any] struct {
	_ins      [][]T
	_acquired []bool
	minAlloc  int
}

// Acquire returns a buffer of the given length. It must be returned with Release.
func (bp *bufPool[T]) Acquire(length int) []T {
	for i, locked := range bp._acquired {
		if !locked && len(bp._ins[i]) >= length {
			bp._acquired[i] = true
			return bp._ins[i][:length]
		}
	}
	newSlice := make([]T, max(length, bp.minAlloc, 1))
	bp._ins = append(bp._ins, newSlice)
	bp._acquired = append(bp._acquired, true)
	return newSlice[:length]
}

// Release returns a buffer previously obtained with Acquire to the pool.
func (bp *bufPool[T]) Release(buf []T) error {
	if cap(buf) == 0 {
		return errors.New("release of zero capacity buffer")
	}
	buf = buf[:1]
	for i, instance := range bp._ins {
		if &instance[0] == &buf[0] {
			if !bp._acquired[i] {
				return errors.New("release of unacquired resource")
			}
			bp._acquired[i] = false
			return nil
		}
	}
	return errors.New("release of nonexistent resource")
}

func (bp *bufPool[T]) assertAllReleased() error {
	for i, locked := range bp._acquired {
		if locked {
			return fmt.Errorf("buffer %d of length %d not released", i, len(bp._ins[i]))
		}
	}
	return nil
}

func (bp *bufPool[T]) totalAlloc() (n int) {
	for _, buf := range bp._ins {
		n += len(buf)
	}
	return n
}
