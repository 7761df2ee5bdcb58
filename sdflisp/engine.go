// Package sdflisp builds csdf shapes from Lisp scene descriptions evaluated
// by a sandboxed zygomys interpreter.
//
//	(def white (rgba 255 255 252 1))
//	(union (circle 50 white) (translate (circle 50 (rgba 0 255 255 1)) 50 0))
//
// The value of the last expression in a script must be a shape.
package sdflisp

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	zygo "github.com/glycerine/zygomys/zygo"
	"github.com/soypat/csdf"
)

// ErrNoShape is returned inside an EvalError when a script does not evaluate to a shape.
var ErrNoShape = errors.New("script did not evaluate to a shape")

// EvalError is a non-fatal error in user code, such as a parse error,
// a bad builtin argument or an invalid shape parameter.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Engine evaluates scene scripts. It is safe for concurrent use;
// each call to Evaluate runs in a fresh sandboxed environment.
type Engine struct {
	mu         sync.Mutex
	generation uint64
}

// NewEngine creates a new Engine instance.
func NewEngine() *Engine {
	return &Engine{}
}

// Evaluate runs source and returns the shape it describes.
//
// Return semantics:
//   - On success: returns shape + nil errors + nil error
//   - On parse/eval failure: returns nil shape + eval errors + nil error
//   - On fatal failure (timeout, panic, superseded): returns nil + nil + error
func (e *Engine) Evaluate(source string) (csdf.Shape, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()
		s, evalErrs, err := e.evaluate(source)
		ch <- evalResult{shape: s, errors: evalErrs, err: err}
	}()
	return waitWithTimeout(ch, gen, &e.mu, &e.generation)
}

func (e *Engine) evaluate(source string) (csdf.Shape, []EvalError, error) {
	if strings.TrimSpace(source) == "" {
		return nil, []EvalError{{Message: ErrNoShape.Error()}}, nil
	}
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	var bld csdf.Builder
	bld.SetFlags(csdf.FlagNoDimensionPanic)
	registerBuiltins(env, &bld)

	err := env.LoadString(preprocessSource(source))
	if err != nil {
		return nil, parseZygomysError(err), nil
	}
	result, err := env.Run()
	if err != nil {
		return nil, parseZygomysError(err), nil
	}
	ss, ok := result.(*sexpShape)
	if !ok {
		got := "nothing"
		if result != nil {
			got = result.SexpString(nil)
		}
		return nil, []EvalError{{Message: fmt.Sprintf("%s, got %s", ErrNoShape, got)}}, nil
	}
	csdf.Logger().Debug("script evaluated", "nodes", csdf.CountNodes(ss.shape))
	return ss.shape, nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ...".
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into EvalErrors, extracting the
// line number when the message carries one.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()
	for _, pattern := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := pattern.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
		}
	}
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}

// preprocessSource converts traditional ; line comments to the // comments
// zygomys understands, leaving string literals untouched.
func preprocessSource(source string) string {
	b := []byte(source)
	result := make([]byte, 0, len(b)+8)
	for i := 0; i < len(b); {
		switch b[i] {
		case '"':
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
		case ';':
			result = append(result, '/', '/')
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
		default:
			result = append(result, b[i])
			i++
		}
	}
	return string(result)
}
