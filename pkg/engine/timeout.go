package engine

import (
	"context"
	"fmt"
)

// evalResult is the internal type used to pass evaluation results through channels.
type evalResult struct {
	result *Result
	errors []EvalError
	err    error
}

// waitForResult waits for a result from ch, or returns ctx's error once ctx
// is done.
//
// On cancellation the evaluation goroutine may still be running. Every
// builtin that touches the host checks ctx first, so the script stops at its
// next host call and its result is dropped.
func waitForResult(ctx context.Context, ch <-chan evalResult) (*Result, []EvalError, error) {
	select {
	case res := <-ch:
		return res.result, res.errors, res.err
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return nil, nil, fmt.Errorf("evaluation timed out: %w", ctx.Err())
		}
		return nil, nil, fmt.Errorf("evaluation canceled: %w", ctx.Err())
	}
}
