package collect

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// defaultToolTimeout bounds one post-processing tool invocation when the
// caller configured none.
const defaultToolTimeout = 5 * time.Minute

// errToolCommandEmpty is returned when a post-processing step is enabled but
// its tool command is not configured.
var errToolCommandEmpty = errors.New("tool command is empty")

// ToolRunner runs one external post-processing tool over a placed file.
type ToolRunner interface {
	Run(ctx context.Context, command []string, target string) error
}

// ExecToolRunner invokes post-processing tools through the shell environment.
// A missing tool is a hard failure, the policy is never silently skipped.
type ExecToolRunner struct {
	timeout time.Duration
}

// NewExecToolRunner builds an ExecToolRunner with the given per-invocation
// timeout.
func NewExecToolRunner(timeout time.Duration) *ExecToolRunner {
	if timeout <= 0 {
		timeout = defaultToolTimeout
	}

	return &ExecToolRunner{timeout: timeout}
}

// Run appends the target file to the command line and executes it.
func (r *ExecToolRunner) Run(ctx context.Context, command []string, target string) error {
	if len(command) == 0 {
		return errToolCommandEmpty
	}

	cmdCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	args := append(append([]string(nil), command[1:]...), target)
	cmd := exec.CommandContext(cmdCtx, command[0], args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return fmt.Errorf("run %s: %w: %s", command[0], err, bytes.TrimSpace(stderr.Bytes()))
		}

		return fmt.Errorf("run %s: %w", command[0], err)
	}

	return nil
}
