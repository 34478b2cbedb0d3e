package plan

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const millisPerDay = 24 * 60 * 60 * 1000

var errTimestampFormat = errors.New("expected Y-M-D[ h:m:s[.fff]][ +hh:mm]")

// parseTimestamp parses Y-M-D[ h:m:s[.fff]][ ±hh:mm] into UTC milliseconds since the epoch.
// Years written with fewer than four digits and a value below 100 map into
// 1970-2069. The calendar is proleptic Gregorian.
func parseTimestamp(s string) (int64, error) {
	parts := strings.Fields(s)
	if len(parts) == 0 || len(parts) > 3 {
		return 0, errTimestampFormat
	}

	year, month, day, err := parseDatePart(parts[0])
	if err != nil {
		return 0, err
	}

	var hour, minute, sec, millis int
	var offset time.Duration
	rest := parts[1:]
	if len(rest) > 0 && !isZone(rest[0]) {
		hour, minute, sec, millis, err = parseTimePart(rest[0])
		if err != nil {
			return 0, err
		}
		rest = rest[1:]
	}
	if len(rest) > 0 {
		offset, err = parseZone(rest[0])
		if err != nil {
			return 0, err
		}
		rest = rest[1:]
	}
	if len(rest) > 0 {
		return 0, errTimestampFormat
	}

	t := time.Date(year, time.Month(month), day, hour, minute, sec, millis*int(time.Millisecond), time.UTC)
	return t.UnixMilli() - offset.Milliseconds(), nil
}

// parseDate parses a date, ignoring any time of day, into milliseconds at midnight UTC.
func parseDate(s string) (int64, error) {
	ms, err := parseTimestamp(s)
	if err != nil {
		return 0, err
	}
	return truncateDay(ms), nil
}

func truncateDay(ms int64) int64 {
	days := ms / millisPerDay
	if ms%millisPerDay < 0 {
		days--
	}
	return days * millisPerDay
}

func parseDatePart(s string) (year, month, day int, err error) {
	fields := strings.Split(s, "-")
	if len(fields) != 3 {
		return 0, 0, 0, errTimestampFormat
	}
	year, err = parseDigits(fields[0], "year")
	if err != nil {
		return 0, 0, 0, err
	}
	if len(fields[0]) < 4 && year < 100 {
		if year < 70 {
			year += 2000
		} else {
			year += 1900
		}
	}
	if month, err = parseDigits(fields[1], "month"); err != nil {
		return 0, 0, 0, err
	}
	if day, err = parseDigits(fields[2], "day"); err != nil {
		return 0, 0, 0, err
	}
	if month < 1 || month > 12 {
		return 0, 0, 0, fmt.Errorf("month %d out of range", month)
	}
	if day < 1 || day > daysIn(year, month) {
		return 0, 0, 0, fmt.Errorf("day %d out of range", day)
	}
	return year, month, day, nil
}

func parseTimePart(s string) (hour, minute, sec, millis int, err error) {
	clock, frac, hasFrac := strings.Cut(s, ".")
	fields := strings.Split(clock, ":")
	if len(fields) != 3 {
		return 0, 0, 0, 0, errTimestampFormat
	}
	if hour, err = parseDigits(fields[0], "hour"); err != nil {
		return
	}
	if minute, err = parseDigits(fields[1], "minute"); err != nil {
		return
	}
	if sec, err = parseDigits(fields[2], "second"); err != nil {
		return
	}
	if hour > 23 || minute > 59 || sec > 59 {
		return 0, 0, 0, 0, fmt.Errorf("time %s out of range", clock)
	}
	if hasFrac {
		if frac == "" {
			return 0, 0, 0, 0, errTimestampFormat
		}
		// only millisecond precision is kept
		if len(frac) > 3 {
			frac = frac[:3]
		}
		if millis, err = parseDigits(frac, "fraction"); err != nil {
			return
		}
		for i := len(frac); i < 3; i++ {
			millis *= 10
		}
	}
	return hour, minute, sec, millis, nil
}

func isZone(s string) bool {
	return strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") || s == "Z" || s == "UTC"
}

func parseZone(s string) (time.Duration, error) {
	if s == "Z" || s == "UTC" {
		return 0, nil
	}
	if len(s) < 2 || (s[0] != '+' && s[0] != '-') {
		return 0, errTimestampFormat
	}
	hh, mm, ok := strings.Cut(s[1:], ":")
	if !ok {
		return 0, errTimestampFormat
	}
	h, err := parseDigits(hh, "zone hour")
	if err != nil {
		return 0, err
	}
	m, err := parseDigits(mm, "zone minute")
	if err != nil {
		return 0, err
	}
	if h > 14 || m > 59 {
		return 0, fmt.Errorf("zone offset %s out of range", s)
	}
	d := time.Duration(h)*time.Hour + time.Duration(m)*time.Minute
	if s[0] == '-' {
		d = -d
	}
	return d, nil
}

func parseDigits(s, what string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("missing %s", what)
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, fmt.Errorf("invalid %s %q", what, s)
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", what, s, err)
	}
	return n, nil
}

func daysIn(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
