package reader

import (
	"context"
	"fmt"
	"time"
)

// SimReader emulates a card presentation without hardware: after a fixed
// delay it yields a unique SIM_UID_* identifier. Used in development and
// in environments with no terminal attached.
type SimReader struct {
	delay time.Duration
}

// NewSimReader constructs a SimReader.
func NewSimReader(delay time.Duration) *SimReader {
	if delay < 0 {
		delay = 0
	}
	return &SimReader{delay: delay}
}

// ReadCard waits out the simulated tap delay and returns a synthetic uid.
func (r *SimReader) ReadCard(ctx context.Context, username, uniqueID string) (string, error) {
	timer := time.NewTimer(r.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-timer.C:
	}
	return fmt.Sprintf("SIM_UID_%d", time.Now().UnixNano()), nil
}
