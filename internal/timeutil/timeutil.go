// Package timeutil provides duration parsing for cache and scheduling knobs.
package timeutil

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidDuration indicates an unparseable or negative duration string.
var ErrInvalidDuration = errors.New("invalid duration")

// MaxDurationLength limits duration string length to prevent abuse.
const MaxDurationLength = 50

// dayWeekPattern matches day and week components, which the standard parser
// does not accept.
var dayWeekPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)([dw])`)

// ParseDuration parses a duration string for TTLs and timeouts. On top of
// the standard units (ns, us, ms, s, m, h) it accepts "d" for days and "w"
// for weeks, including mixed forms like "1d12h". Negative durations are
// rejected.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty string", ErrInvalidDuration)
	}
	if len(s) > MaxDurationLength {
		return 0, fmt.Errorf("%w: exceeds %d characters", ErrInvalidDuration, MaxDurationLength)
	}

	// Rewrite day/week components into hours, then let the standard parser
	// handle the rest. "7d" becomes "168h"; "1d12h" becomes "24h12h", which
	// time.ParseDuration sums.
	expanded := dayWeekPattern.ReplaceAllStringFunc(s, func(m string) string {
		sub := dayWeekPattern.FindStringSubmatch(m)
		value, err := strconv.ParseFloat(sub[1], 64)
		if err != nil {
			return m
		}
		hours := value * 24
		if sub[2] == "w" {
			hours = value * 24 * 7
		}
		return strconv.FormatFloat(hours, 'f', -1, 64) + "h"
	})

	d, err := time.ParseDuration(expanded)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
	}
	if d < 0 {
		return 0, fmt.Errorf("%w: %q is negative", ErrInvalidDuration, s)
	}
	return d, nil
}
