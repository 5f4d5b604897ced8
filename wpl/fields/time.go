package fields

import (
	"strconv"
	"time"

	"github.com/gravwell/wplrouter/record"
)

var monthIdx = map[string]time.Month{
	"Jan": time.January, "Feb": time.February, "Mar": time.March,
	"Apr": time.April, "May": time.May, "Jun": time.June,
	"Jul": time.July, "Aug": time.August, "Sep": time.September,
	"Oct": time.October, "Nov": time.November, "Dec": time.December,
}

// parseCLF hand-decodes `dd/Mon/yyyy:HH:MM:SS +ZZZZ`, optionally wrapped in
// `[ ]`, without going through time.Parse's format-string machinery. It
// is tried before the general layered fallbacks.
func parseCLF(s string) (time.Time, bool) {
	if len(s) > 1 && s[0] == '[' && s[len(s)-1] == ']' {
		s = s[1 : len(s)-1]
	}
	// 06/Aug/2019:12:12:19 +0800 -> exactly 26 bytes when zone has sign+4 digits
	if len(s) < 26 {
		return time.Time{}, false
	}
	day, ok := atoi2(s[0:2])
	if !ok || s[2] != '/' {
		return time.Time{}, false
	}
	mon, ok := monthIdx[s[3:6]]
	if !ok || s[6] != '/' {
		return time.Time{}, false
	}
	year, err := strconv.Atoi(s[7:11])
	if err != nil || s[11] != ':' {
		return time.Time{}, false
	}
	hh, ok := atoi2(s[12:14])
	if !ok || s[14] != ':' {
		return time.Time{}, false
	}
	mm, ok := atoi2(s[15:17])
	if !ok || s[17] != ':' {
		return time.Time{}, false
	}
	ss, ok := atoi2(s[18:20])
	if !ok || s[20] != ' ' {
		return time.Time{}, false
	}
	sign := s[21]
	if sign != '+' && sign != '-' {
		return time.Time{}, false
	}
	zh, ok1 := atoi2(s[22:24])
	zm, ok2 := atoi2(s[24:26])
	if !ok1 || !ok2 {
		return time.Time{}, false
	}
	offset := zh*3600 + zm*60
	if sign == '-' {
		offset = -offset
	}
	loc := time.FixedZone("", offset)
	return time.Date(year, mon, day, hh, mm, ss, 0, loc), true
}

func atoi2(s string) (int, bool) {
	if len(s) != 2 || s[0] < '0' || s[0] > '9' || s[1] < '0' || s[1] > '9' {
		return 0, false
	}
	return int(s[0]-'0')*10 + int(s[1]-'0'), true
}

var fixedLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	time.RFC1123Z,
	time.RFC1123,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006/01/02 15:04:05",
	"01/02/2006 15:04:05",
}

// ParseTime tries, in order: CLF fast-path, RFC3339, RFC2822, ISO, then a
// list of generic fixed layouts.
func ParseTime(s string) (time.Time, record.DataType, bool) {
	if t, ok := parseCLF(s); ok {
		return t, record.TimeCLF, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, record.TimeRFC3339, true
	}
	if t, err := time.Parse(time.RFC1123Z, s); err == nil {
		return t, record.TimeRFC2822, true
	}
	if t, err := time.Parse("2006-01-02T15:04:05Z0700", s); err == nil {
		return t, record.TimeISO, true
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, record.TimeISO, true
	}
	for _, layout := range fixedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, record.Time, true
		}
	}
	if sec, err := strconv.ParseInt(s, 10, 64); err == nil && len(s) >= 9 && len(s) <= 10 {
		return time.Unix(sec, 0).UTC(), record.TimeTIMESTAMP, true
	}
	return time.Time{}, record.Time, false
}
