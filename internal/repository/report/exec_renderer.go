package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// ExecRenderer runs an external plotting command with the trajectory file
// appended as the last argument.
type ExecRenderer struct {
	command []string
}

func NewExecRenderer(command []string) (*ExecRenderer, error) {
	if len(command) == 0 || command[0] == "" {
		return nil, errors.New("chart command is empty")
	}
	return &ExecRenderer{command: append([]string(nil), command...)}, nil
}

func (r *ExecRenderer) Render(ctx context.Context, trajectoryPath string) error {
	args := append(append([]string(nil), r.command[1:]...), trajectoryPath)
	cmd := exec.CommandContext(ctx, r.command[0], args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := bytes.TrimSpace(stderr.Bytes()); len(msg) > 0 {
			return fmt.Errorf("%s: %w: %s", r.command[0], err, msg)
		}
		return fmt.Errorf("%s: %w", r.command[0], err)
	}
	return nil
}
