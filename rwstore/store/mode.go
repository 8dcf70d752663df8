package store

import (
	"fmt"
	"strings"
)

// Mode describes how a record is currently occupied, or how a Handle was admitted.
type Mode int

const (
	// ModeUnknown is reported by Status for keys the store does not know.
	ModeUnknown Mode = iota
	// ModeClosed means nobody holds the record.
	ModeClosed
	// ModeReadable means one or more readers hold the record.
	ModeReadable
	// ModeReadWriteable means a single writer holds the record.
	ModeReadWriteable
)

// String returns the upper-case name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeClosed:
		return "CLOSED"
	case ModeReadable:
		return "READABLE"
	case ModeReadWriteable:
		return "READWRITEABLE"
	default:
		return "UNKNOWN"
	}
}

// admissible reports whether m can be requested from Store.Open.
func (m Mode) admissible() bool {
	return m == ModeReadable || m == ModeReadWriteable
}

// ParseMode converts a user-supplied mode name into a Mode.
// Matching is case-insensitive; "read"/"r" and "write"/"readwrite"/"rw" are accepted as aliases.
func ParseMode(value string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "readable", "read", "r":
		return ModeReadable, nil
	case "readwriteable", "readwritable", "readwrite", "write", "rw", "w":
		return ModeReadWriteable, nil
	case "closed":
		return ModeClosed, nil
	case "unknown":
		return ModeUnknown, nil
	default:
		return ModeUnknown, fmt.Errorf("%w: %q", ErrInvalidMode, value)
	}
}
