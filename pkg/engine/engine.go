// Package engine runs kiln render scripts. It wraps zygomys in a sandboxed
// environment whose builtins build a scene and drive a host backend.
package engine

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/chazu/kiln/pkg/host"
	"github.com/chazu/kiln/pkg/scene"
	zygo "github.com/glycerine/zygomys/zygo"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a runtime error in user code.
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

// Output records one image written by a render call.
type Output struct {
	Path     string
	Width    int
	Height   int
	Maskable bool
}

// Load records one mesh loaded by import-obj or load-obj.
type Load struct {
	Name     string
	Path     string
	Fallback bool // built by the fallback parser
	Vertices int
	Faces    int
}

// Result bundles the output of a script run.
type Result struct {
	Scene    *scene.Scene
	Outputs  []Output
	Loads    []Load
	Warnings []scene.ValidationError
}

// Options configures an Engine.
type Options struct {
	// Host performs imports and renders. Required.
	Host host.Host
	// Dir is the directory relative paths in scripts resolve against.
	Dir string
	// Timeout bounds a whole run. Zero means no limit beyond ctx.
	Timeout time.Duration
	// OnRender, if set, is called after each image is written.
	OnRender func(Output)
	// OnLoad, if set, is called after each mesh is loaded.
	OnLoad func(Load)
}

// Engine evaluates render scripts. Each call to Run creates a fresh sandbox
// and a fresh scene.
type Engine struct {
	host     host.Host
	dir      string
	timeout  time.Duration
	onRender func(Output)
	onLoad   func(Load)
}

// NewEngine creates an Engine.
func NewEngine(opts Options) (*Engine, error) {
	if opts.Host == nil {
		return nil, fmt.Errorf("engine: no host configured")
	}
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}
	return &Engine{host: opts.Host, dir: dir, timeout: opts.Timeout, onRender: opts.OnRender, onLoad: opts.OnLoad}, nil
}

// Host returns the engine's host backend.
func (e *Engine) Host() host.Host {
	return e.host
}

// Run evaluates source.
//
// Return semantics:
//   - On success: returns result + nil errors + nil error
//   - On parse/eval failure in the script: returns nil + eval errors + nil error
//   - On host failure (import, render), cancellation or panic: returns nil +
//     nil + error
func (e *Engine) Run(ctx context.Context, source string) (*Result, []EvalError, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	ch := make(chan evalResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		res, evalErrs, err := e.run(ctx, source)
		ch <- evalResult{result: res, errors: evalErrs, err: err}
	}()

	return waitForResult(ctx, ch)
}

// run performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) run(ctx context.Context, source string) (*Result, []EvalError, error) {
	st := &runState{
		ctx:      ctx,
		host:     e.host,
		dir:      e.dir,
		result:   &Result{Scene: scene.New()},
		onRender: e.onRender,
		onLoad:   e.onLoad,
	}

	// Empty source is a valid script that renders nothing.
	if strings.TrimSpace(source) == "" {
		return st.result, nil, nil
	}

	// Sandbox mode keeps scripts away from the filesystem and syscalls;
	// file access goes through the builtins only.
	env := zygo.NewZlispSandbox()
	defer env.Stop()
	registerBuiltins(env, st)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err), nil
	}

	_, err := env.Run()
	if st.fatal != nil {
		return nil, nil, fmt.Errorf("engine: %w", st.fatal)
	}
	if err != nil {
		return nil, parseZygomysError(err), nil
	}

	for _, ve := range scene.Validate(st.result.Scene) {
		if ve.Severity == scene.SeverityWarning {
			st.result.Warnings = append(st.result.Warnings, ve)
		}
	}
	return st.result, nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
// It attempts to extract line number information from the error message.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	// zygomys formats parse errors as "Error on line N: <details>\n"
	if m := linePattern.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
	}

	if m := linePatternShort.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
	}

	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
