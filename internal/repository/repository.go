package repository

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors surfaced by repositories so services can map persistence
// failures onto API error codes without knowing the driver.
var (
	ErrDuplicate  = errors.New("duplicate key")
	ErrForeignKey = errors.New("foreign key violation")
)

// translateConstraint converts the sqlite driver's constraint failures into
// the package sentinels. modernc/sqlite reports constraint violations as
// plain error strings, not typed errors.
func translateConstraint(op string, err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return fmt.Errorf("%s: %w", op, ErrDuplicate)
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return fmt.Errorf("%s: %w", op, ErrForeignKey)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
