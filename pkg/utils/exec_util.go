package utils

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const commandTimeout = 10 * time.Second

var ErrCommandTimeout = errors.New("command timed out")

// RunCommand runs a command with a timeout (default: 10s) and returns its
// combined output.
func RunCommand(ctx context.Context, name string, args ...string) (string, error) {
	var out bytes.Buffer
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &out
	cmd.Stderr = &out
	hideWindow(cmd)
	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("failed to start command %s: %w", name, err)
	}
	err := cmd.Wait()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return out.String(), fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), ErrCommandTimeout)
	}
	if err != nil {
		return out.String(), fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(out.String()))
	}
	return out.String(), nil
}

// StartDetached starts a command without waiting for it to exit. Used for GUI
// programs that keep running after the call returns.
func StartDetached(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	hideWindow(cmd)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start command %s: %w", name, err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
