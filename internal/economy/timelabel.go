package economy

import (
	"strconv"
	"strings"
	"time"
	"unicode"
)

// DefaultTimeBudget is used when a route's time label cannot be parsed.
const DefaultTimeBudget = 10 * time.Minute

// ParseTimeLabel converts a display label such as "25 mins", "1h 10m",
// "90s" or "1:30" (minutes:seconds, or h:mm:ss) into a duration.
func ParseTimeLabel(label string) (time.Duration, bool) {
	s := strings.ToLower(strings.TrimSpace(label))
	if s == "" {
		return 0, false
	}

	if strings.Contains(s, ":") {
		parts := strings.Split(s, ":")
		var total time.Duration
		for _, p := range parts {
			n, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil || n < 0 {
				return 0, false
			}
			total = total*60 + time.Duration(n)
		}
		return total * time.Second, total > 0
	}

	var total time.Duration
	matched := false
	for s != "" {
		s = strings.TrimLeftFunc(s, unicode.IsSpace)
		numEnd := strings.IndexFunc(s, func(r rune) bool { return !unicode.IsDigit(r) && r != '.' })
		if numEnd == 0 {
			return 0, false
		}
		if numEnd < 0 {
			numEnd = len(s)
		}
		n, err := strconv.ParseFloat(s[:numEnd], 64)
		if err != nil {
			return 0, false
		}
		s = strings.TrimLeftFunc(s[numEnd:], unicode.IsSpace)
		unitEnd := strings.IndexFunc(s, func(r rune) bool { return !unicode.IsLetter(r) })
		if unitEnd < 0 {
			unitEnd = len(s)
		}
		unit := s[:unitEnd]
		s = s[unitEnd:]

		var scale time.Duration
		switch unit {
		case "h", "hr", "hrs", "hour", "hours":
			scale = time.Hour
		case "", "m", "min", "mins", "minute", "minutes":
			scale = time.Minute
		case "s", "sec", "secs", "second", "seconds":
			scale = time.Second
		default:
			return 0, false
		}
		total += time.Duration(n * float64(scale))
		matched = true
	}
	return total, matched && total > 0
}

// TimeBudget returns the session length for a route label and vehicle
// multiplier, whole seconds.
func TimeBudget(label string, multiplier float64) int {
	d, ok := ParseTimeLabel(label)
	if !ok {
		d = DefaultTimeBudget
	}
	if multiplier <= 0 {
		multiplier = 1
	}
	return int(d.Seconds() * multiplier)
}
