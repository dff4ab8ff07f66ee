// Package dxltime parses the datetime format used by DXL exports.
package dxltime

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidDateTime indicates a value that is not a DXL datetime.
var ErrInvalidDateTime = errors.New("invalid DXL datetime")

// Parse converts a DXL datetime string to a time.Time.
//
// The export format is YYYYMMDDTHHMMSS,ff optionally followed by a zone
// offset such as +09 or -0530. A bare 8-digit YYYYMMDD date is also
// accepted (midnight UTC). Returns ErrInvalidDateTime for anything
// else; callers treat that as a recoverable anomaly, not a failure.
func Parse(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrInvalidDateTime)
	}

	base, loc := splitZone(raw)

	if !strings.ContainsRune(base, 'T') {
		if len(base) == 8 && allDigits(base) {
			t, err := time.ParseInLocation("20060102", base, loc)
			if err != nil {
				return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateTime, raw)
			}
			return t, nil
		}
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateTime, raw)
	}

	datePart, timePart, _ := strings.Cut(base, "T")

	// Fractional seconds use a comma separator and hundredths precision.
	var nanos int
	if sec, frac, ok := strings.Cut(timePart, ","); ok {
		timePart = sec
		frac = (frac + "000000000")[:9]
		n, err := strconv.Atoi(frac)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateTime, raw)
		}
		nanos = n
	}

	if len(datePart) != 8 || len(timePart) != 6 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateTime, raw)
	}

	t, err := time.ParseInLocation("20060102150405", datePart+timePart, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateTime, raw)
	}
	return t.Add(time.Duration(nanos)), nil
}

// splitZone strips a trailing ±HH or ±HHMM offset, if present, and
// returns the remaining text plus the matching fixed location. A sign
// that is part of the date/time body (no digit-only suffix of length 2
// or 4) is left alone.
func splitZone(raw string) (string, *time.Location) {
	idx := strings.LastIndexAny(raw, "+-")
	if idx <= 0 {
		return raw, time.UTC
	}
	suffix := raw[idx+1:]
	if !allDigits(suffix) || (len(suffix) != 2 && len(suffix) != 4) {
		return raw, time.UTC
	}

	hours, _ := strconv.Atoi(suffix[:2])
	mins := 0
	if len(suffix) == 4 {
		mins, _ = strconv.Atoi(suffix[2:])
	}
	offset := hours*3600 + mins*60
	if raw[idx] == '-' {
		offset = -offset
	}
	if offset < -24*3600 || offset > 24*3600 {
		return raw[:idx], time.UTC
	}
	return raw[:idx], time.FixedZone("", offset)
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
