package interval

import "time"

// EndTime returns start shifted by the given number of whole hours.
func EndTime(start time.Time, hours int) time.Time {
	return start.Add(time.Duration(hours) * time.Hour)
}

// Overlaps reports whether the half-open intervals [s1,e1) and [s2,e2) intersect.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && s2.Before(e1)
}

func DaysBetween(start, end time.Time) float64 {
	return end.Sub(start).Hours() / 24
}

// SameDay compares calendar dates using the location of ref.
func SameDay(t, ref time.Time) bool {
	t = t.In(ref.Location())
	y1, m1, d1 := t.Date()
	y2, m2, d2 := ref.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
