package rwstore

import (
	"fmt"
	"math"
	"time"

	"github.com/dustin/go-humanize"
)

// parseSizeValue parses a size given either as a number of bytes or as a string like "64kb".
// Caller is responsible for wrapping the error, if it's used in JS code.
func parseSizeValue(v any) (uint64, error) {
	switch x := v.(type) {
	case nil:
		return 0, nil
	case int64:
		return nonNegative(x)
	case int:
		return nonNegative(int64(x))
	case int32:
		return nonNegative(int64(x))
	case uint64:
		return x, nil
	case uint:
		return uint64(x), nil
	case uint32:
		return uint64(x), nil
	case float64:
		if math.Trunc(x) != x {
			return 0, fmt.Errorf("size must be a whole number of bytes: %f", x)
		}

		return nonNegative(int64(x))
	case string:
		size, err := humanize.ParseBytes(x)
		if err != nil {
			return 0, fmt.Errorf("invalid size string %q: %w", x, err)
		}

		return size, nil
	default:
		return 0, fmt.Errorf("unsupported size type: %T", x)
	}
}

// parseDurationValue parses a duration given either as milliseconds or as a string like "1s".
// Caller is responsible for wrapping the error, if it's used in JS code.
func parseDurationValue(v any) (time.Duration, error) {
	switch x := v.(type) {
	case nil:
		return 0, nil
	case int:
		return durationFromMillis(int64(x))
	case int32:
		return durationFromMillis(int64(x))
	case int64:
		return durationFromMillis(x)
	case float64:
		if math.Trunc(x) != x {
			return 0, fmt.Errorf("duration must be whole milliseconds: %f", x)
		}

		return durationFromMillis(int64(x))
	case string:
		duration, err := time.ParseDuration(x)
		if err != nil {
			return 0, fmt.Errorf("invalid duration string %q: %w", x, err)
		}

		if duration < 0 {
			return 0, fmt.Errorf("negative duration: %s", x)
		}

		return duration, nil
	default:
		return 0, fmt.Errorf("unsupported duration type: %T", x)
	}
}

// nonNegative converts a signed byte count, rejecting negative values.
func nonNegative(n int64) (uint64, error) {
	if n < 0 {
		return 0, fmt.Errorf("negative size: %d", n)
	}

	return uint64(n), nil
}

// durationFromMillis converts milliseconds to a time.Duration and returns an error if invalid.
func durationFromMillis(ms int64) (time.Duration, error) {
	if ms < 0 {
		return 0, fmt.Errorf("negative duration: %d", ms)
	}

	if ms > math.MaxInt64/int64(time.Millisecond) {
		return 0, fmt.Errorf("duration too large: %dms", ms)
	}

	return time.Duration(ms) * time.Millisecond, nil
}

// sizeValuesEqual compares two size values after parsing; unset equals zero.
func sizeValuesEqual(a, b any) bool {
	left, errLeft := parseSizeValue(a)
	right, errRight := parseSizeValue(b)

	return errLeft == nil && errRight == nil && left == right
}

// durationValuesEqual compares two duration values after parsing; unset equals zero.
func durationValuesEqual(a, b any) bool {
	left, errLeft := parseDurationValue(a)
	right, errRight := parseDurationValue(b)

	return errLeft == nil && errRight == nil && left == right
}
