// Package reader provides the card reader capability: a blocking,
// time-boxed read of a physical credential. Configuration selects one of
// three adapters: an external helper process, a direct serial link to the
// terminal, or an in-process simulator.
package reader

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// CardReader reads one physical credential for the given user. The call
// blocks until a card is presented, the adapter's own timeout elapses, or
// ctx is cancelled; callers run it on a dedicated goroutine.
type CardReader interface {
	ReadCard(ctx context.Context, username, uniqueID string) (string, error)
}

// ErrNoUID means the adapter finished cleanly but produced no card
// identifier, e.g. the helper exited zero without a recognized UID line.
var ErrNoUID = errors.New("could not retrieve card identifier from reader")

// ErrCardWaitTimeout means no card was presented before the adapter's
// deadline. Distinct from ErrNoUID so callers can surface the timeout.
var ErrCardWaitTimeout = errors.New("timed out waiting for card")

// ProcessError reports a failed reader helper invocation, carrying the
// captured output for diagnostics.
type ProcessError struct {
	Stdout string
	Stderr string
	Err    error
}

func (e *ProcessError) Error() string {
	detail := strings.TrimSpace(e.Stderr)
	if detail == "" {
		detail = strings.TrimSpace(e.Stdout)
	}
	if detail == "" {
		return fmt.Sprintf("reader process failed: %v", e.Err)
	}
	return fmt.Sprintf("reader process failed: %s", detail)
}

func (e *ProcessError) Unwrap() error { return e.Err }

// ExtractUID scans reader output line by line for a card identifier.
// Recognized forms, first match wins:
//
//	Card <uid> ... enrolled for ...
//	UID_RECEIVED:<uid>
//
// The "Card " anchor matters: helper progress lines repeat the enrollment
// phrase with a prefix (e.g. "SIM_ENROLL: Card ... enrolled for ...") and
// must not match.
func ExtractUID(output string) (string, bool) {
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if rest, ok := strings.CutPrefix(line, "Card "); ok && strings.Contains(rest, "enrolled for") {
			if fields := strings.Fields(rest); len(fields) > 0 {
				return fields[0], true
			}
		}
		if rest, ok := strings.CutPrefix(line, "UID_RECEIVED:"); ok {
			if uid := strings.TrimSpace(rest); uid != "" {
				return uid, true
			}
		}
	}
	return "", false
}
