package service

import (
	"fmt"
	"time"
)

// SemesterAt returns the academic semester code for a point in time,
// formatted like "HK1-2526". The academic year runs September to August:
// HK1 covers Sep-Jan, HK2 Feb-May, HK3 Jun-Aug.
func SemesterAt(t time.Time) string {
	year := t.Year()
	var term int
	var startYear int
	switch m := t.Month(); {
	case m >= time.September:
		term = 1
		startYear = year
	case m == time.January:
		term = 1
		startYear = year - 1
	case m <= time.May:
		term = 2
		startYear = year - 1
	default:
		term = 3
		startYear = year - 1
	}
	return fmt.Sprintf("HK%d-%02d%02d", term, startYear%100, (startYear+1)%100)
}
