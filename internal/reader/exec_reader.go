package reader

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"go.uber.org/zap"
)

// ExecReader drives enrollment through an external helper process (the
// serial enrollment script shipped with the terminal firmware). The helper
// is invoked as `<command...> <username> <uniqueID>` and owns the card-wait
// timeout; a non-zero exit is a transport failure.
type ExecReader struct {
	command []string
	logger  *zap.Logger
}

// NewExecReader constructs an ExecReader from an argv-style command.
func NewExecReader(command []string, logger *zap.Logger) (*ExecReader, error) {
	if len(command) == 0 {
		return nil, fmt.Errorf("exec reader requires a command")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExecReader{command: command, logger: logger}, nil
}

// ReadCard launches the helper and scans its output for a card identifier.
func (r *ExecReader) ReadCard(ctx context.Context, username, uniqueID string) (string, error) {
	args := append(append([]string{}, r.command[1:]...), username, uniqueID)
	cmd := exec.CommandContext(ctx, r.command[0], args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Debug("launching reader helper",
		zap.String("command", r.command[0]),
		zap.Strings("args", args))

	if err := cmd.Run(); err != nil {
		return "", &ProcessError{Stdout: stdout.String(), Stderr: stderr.String(), Err: err}
	}

	uid, ok := ExtractUID(stdout.String())
	if !ok {
		r.logger.Warn("reader helper produced no uid", zap.String("stdout", stdout.String()))
		return "", ErrNoUID
	}
	return uid, nil
}
