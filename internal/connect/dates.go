package connect

import "time"

// DateLayout is the "dd MMM yyyy hh:mm AM/PM" format the service expects.
const DateLayout = "02 Jan 2006 03:04 PM"

// DayRange returns the bounds of t's calendar day, in t's location, as
// "dd MMM yyyy 12:00 AM" and "dd MMM yyyy 11:59 PM".
func DayRange(t time.Time) (start, end string) {
	y, m, d := t.Date()
	first := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	last := time.Date(y, m, d, 23, 59, 0, 0, t.Location())
	return first.Format(DateLayout), last.Format(DateLayout)
}
