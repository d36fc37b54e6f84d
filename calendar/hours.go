package calendar

import (
	"fmt"
	"strings"
	"time"
)

const (
	defaultOpenMinute  = 9 * 60
	defaultCloseMinute = 20 * 60
)

// Hours is a day's opening window in minutes from midnight.
type Hours struct {
	Open   int
	Close  int
	Closed bool
}

// HoursFor reads the salon's weekly schedule ({"monday": {"open": "09:00",
// "close": "20:00", "closed": false}, ...}). Missing or malformed days fall
// back to 09:00–20:00.
func HoursFor(schedule map[string]interface{}, wd time.Weekday) Hours {
	h := Hours{Open: defaultOpenMinute, Close: defaultCloseMinute}
	raw, ok := schedule[strings.ToLower(wd.String())].(map[string]interface{})
	if !ok {
		return h
	}
	if closed, ok := raw["closed"].(bool); ok {
		h.Closed = closed
	}
	open, errOpen := parseClock(raw["open"])
	closing, errClose := parseClock(raw["close"])
	if errOpen == nil && errClose == nil && closing > open {
		h.Open, h.Close = open, closing
	}
	return h
}

func parseClock(v interface{}) (int, error) {
	s, ok := v.(string)
	if !ok {
		return 0, fmt.Errorf("clock value %v is not a string", v)
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}
