package exectool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Result is the captured output of one invocation
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Client runs an external tool as a subprocess, one invocation per call
type Client struct {
	workingDir string
	command    string
	baseArgs   []string
	timeout    time.Duration
}

// NewClient creates a new tool client. A relative command path is resolved against workingDir.
func NewClient(workingDir, command string, baseArgs []string, timeout time.Duration) *Client {
	return &Client{
		workingDir: workingDir,
		command:    command,
		baseArgs:   baseArgs,
		timeout:    timeout,
	}
}

// Run spawns the tool with baseArgs followed by args. Arguments are passed
// directly to the process, never through a shell.
func (c *Client) Run(ctx context.Context, args ...string) (*Result, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	fullArgs := make([]string, 0, len(c.baseArgs)+len(args))
	fullArgs = append(fullArgs, c.baseArgs...)
	fullArgs = append(fullArgs, args...)

	cmd := exec.CommandContext(ctx, c.command, fullArgs...)
	cmd.Dir = c.workingDir
	cmd.WaitDelay = 5 * time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := &Result{
		Stdout: strings.TrimSpace(stdout.String()),
		Stderr: strings.TrimSpace(stderr.String()),
	}

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, fmt.Errorf("%s: %w", c.command, ctxErr)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, fmt.Errorf("%s exited with code %d", c.command, result.ExitCode)
		}
		return result, fmt.Errorf("failed to start %s: %w", c.command, err)
	}

	return result, nil
}
