package sdflisp

import (
	"fmt"
	"sync"
	"time"

	"github.com/soypat/csdf"
)

// EvalTimeout is the hard limit for a single evaluation.
const EvalTimeout = 5 * time.Second

type evalResult struct {
	shape  csdf.Shape
	errors []EvalError
	err    error
}

// waitWithTimeout waits for a result from ch or fails after EvalTimeout.
// Results of evaluations superseded by a newer call to Evaluate are discarded.
// On timeout the evaluating goroutine may still be running.
func waitWithTimeout(ch <-chan evalResult, gen uint64, mu *sync.Mutex, currentGen *uint64) (csdf.Shape, []EvalError, error) {
	timer := time.NewTimer(EvalTimeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		mu.Lock()
		current := *currentGen
		mu.Unlock()
		if gen != current {
			return nil, nil, fmt.Errorf("evaluation superseded by newer request")
		}
		return res.shape, res.errors, res.err

	case <-timer.C:
		csdf.Logger().Warn("script evaluation timed out", "timeout", EvalTimeout)
		return nil, nil, fmt.Errorf("evaluation timed out after %s", EvalTimeout)
	}
}
