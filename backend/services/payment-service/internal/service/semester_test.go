package service

import (
	"testing"
	"time"
)

func TestSemesterAt(t *testing.T) {
	cases := []struct {
		date time.Time
		want string
	}{
		{time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC), "HK1-2526"},
		{time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC), "HK1-2526"},
		{time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC), "HK2-2526"},
		{time.Date(2026, time.May, 31, 0, 0, 0, 0, time.UTC), "HK2-2526"},
		{time.Date(2026, time.June, 10, 0, 0, 0, 0, time.UTC), "HK3-2526"},
		{time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC), "HK1-2627"},
	}
	for _, tc := range cases {
		if got := SemesterAt(tc.date); got != tc.want {
			t.Errorf("SemesterAt(%s) = %s, want %s", tc.date.Format("2006-01-02"), got, tc.want)
		}
	}
}
