package domain

import "time"

// UsageRecord is one subject's issuance count for a single UTC day.
type UsageRecord struct {
	Subject string
	Day     time.Time
	Tokens  int64
}

// DayOf truncates t to its UTC calendar day.
func DayOf(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
