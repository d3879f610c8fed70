package blender

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/chazu/kiln/pkg/logging"
)

type cmdOptions struct {
	args   []string
	stream bool
}

type cmdOption func(*cmdOptions)

func withArgs(args ...string) cmdOption {
	return func(o *cmdOptions) {
		o.args = append(o.args, args...)
	}
}

func withStream(stream bool) cmdOption {
	return func(o *cmdOptions) {
		o.stream = stream
	}
}

// executeCmd runs command and returns its combined output. The process is
// killed when ctx is done. On failure the captured output is logged unless
// it was already streamed.
func executeCmd(ctx context.Context, command string, options ...cmdOption) (string, error) {
	opts := &cmdOptions{}
	for _, o := range options {
		o(opts)
	}

	logging.LogDebug("executing: %s %s", command, strings.Join(opts.args, " "))
	cmd := exec.CommandContext(ctx, command, opts.args...)

	var b bytes.Buffer
	if opts.stream {
		cmd.Stdout = io.MultiWriter(&b, os.Stdout)
		cmd.Stderr = io.MultiWriter(&b, os.Stderr)
	} else {
		cmd.Stdout = &b
		cmd.Stderr = &b
	}
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return b.String(), ctx.Err()
		}
		if !opts.stream {
			logging.LogDebug("failed command output:\n%s", b.String())
		}
		return b.String(), fmt.Errorf("executing %s: %w", command, err)
	}
	return b.String(), nil
}
