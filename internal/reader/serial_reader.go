package reader

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"
)

// SerialReader talks to the enrollment terminal directly over its serial
// port, speaking the firmware's line protocol: the host sends
// `ENROLL:<uniqueID>:<username>` and the terminal answers `UID:<uid>` once
// a card is presented.
type SerialReader struct {
	port    string
	baud    int
	timeout time.Duration
	logger  *zap.Logger
}

// NewSerialReader constructs a SerialReader.
func NewSerialReader(port string, baud int, timeout time.Duration, logger *zap.Logger) *SerialReader {
	if baud <= 0 {
		baud = 115200
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SerialReader{port: port, baud: baud, timeout: timeout, logger: logger}
}

// ReadCard issues the enroll command and waits for the UID line, bounded by
// the configured timeout.
func (r *SerialReader) ReadCard(ctx context.Context, username, uniqueID string) (string, error) {
	port, err := serial.Open(r.port, &serial.Mode{BaudRate: r.baud})
	if err != nil {
		return "", fmt.Errorf("open serial port %s: %w", r.port, err)
	}
	defer port.Close()

	// Short per-read timeout so the wait loop can observe ctx and the
	// overall deadline between reads.
	if err := port.SetReadTimeout(500 * time.Millisecond); err != nil {
		return "", fmt.Errorf("set read timeout: %w", err)
	}
	_ = port.ResetInputBuffer()
	_ = port.ResetOutputBuffer()

	command := fmt.Sprintf("ENROLL:%s:%s\n", uniqueID, username)
	if _, err := port.Write([]byte(command)); err != nil {
		return "", fmt.Errorf("write enroll command: %w", err)
	}
	r.logger.Debug("enroll command sent", zap.String("port", r.port))

	deadline := time.Now().Add(r.timeout)
	var buffer strings.Builder
	chunk := make([]byte, 64)

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		n, err := port.Read(chunk)
		if err != nil {
			return "", fmt.Errorf("read serial port: %w", err)
		}
		if n == 0 {
			continue
		}
		buffer.Write(chunk[:n])

		for {
			data := buffer.String()
			idx := strings.IndexByte(data, '\n')
			if idx < 0 {
				break
			}
			line := strings.TrimSpace(data[:idx])
			buffer.Reset()
			buffer.WriteString(data[idx+1:])

			if line == "" {
				continue
			}
			r.logger.Debug("terminal line", zap.String("line", line))
			if uid, ok := strings.CutPrefix(line, "UID:"); ok {
				if uid = strings.TrimSpace(uid); uid != "" {
					return uid, nil
				}
			}
		}
	}

	return "", fmt.Errorf("%w after %s", ErrCardWaitTimeout, r.timeout)
}
