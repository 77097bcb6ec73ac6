package core

import (
	"strings"
	"time"
)

// DateLayout is the canonical display and storage layout for entry dates.
const DateLayout = "02/01/2006"

// ParseEntryDate normalizes user date input to canonical DD/MM/YYYY.
//
// The keywords "oggi" and "today" (case-insensitive) resolve to the date
// returned by now. When now is nil the keywords are rejected and only an
// explicit DD/MM/YYYY value is accepted. Single-digit day and month are
// accepted and zero-padded; any other layout is ErrInvalidDate.
func ParseEntryDate(s string, now func() time.Time) (string, error) {
	s = strings.TrimSpace(s)
	if isTodayKeyword(s) {
		if now == nil {
			return "", ErrInvalidDate
		}
		return now().Format(DateLayout), nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return "", ErrInvalidDate
	}
	return t.Format(DateLayout), nil
}

func isTodayKeyword(s string) bool {
	switch strings.ToLower(s) {
	case "oggi", "today":
		return true
	}
	return false
}
