package scores

import (
	"regexp"
	"strings"
)

const DefaultDateFormat = "MM/DD/YYYY"

var supportedFormats = map[string]bool{
	"MM/DD/YYYY":       true,
	"DD/MM/YYYY":       true,
	"YYYY/MM/DD":       true,
	"YYYY/DD/MM":       true,
	"MM/DD/YYYY HH:mm": true,
	"DD/MM/YYYY HH:mm": true,
	"YYYY/MM/DD HH:mm": true,
	"YYYY/DD/MM HH:mm": true,
}

// SupportedFormat reports whether f is one of the date formats the
// settings form offers.
func SupportedFormat(f string) bool { return supportedFormats[strings.TrimSpace(f)] }

var timestampPattern = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})(?:[ T](\d{1,2}):(\d{2})(?::(\d{2}))?)?`)

// FormatDate renders a YYYY-MM-DD[ HH:mm[:ss]] timestamp in format. The
// fields are taken as written, with no timezone conversion. Timestamps that
// do not parse come back unchanged; unknown formats fall back to
// MM/DD/YYYY.
func FormatDate(timestamp, format string) string {
	m := timestampPattern.FindStringSubmatch(strings.TrimSpace(timestamp))
	if m == nil {
		return timestamp
	}
	format = strings.TrimSpace(format)
	if !SupportedFormat(format) {
		format = DefaultDateFormat
	}
	hour, minute := "00", "00"
	if m[4] != "" {
		hour, minute = pad2(m[4]), m[5]
	}
	r := strings.NewReplacer(
		"YYYY", m[1],
		"MM", pad2(m[2]),
		"DD", pad2(m[3]),
		"HH", hour,
		"mm", minute,
	)
	return r.Replace(format)
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
