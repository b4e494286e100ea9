package connect

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDayRange(t *testing.T) {
	boise, err := time.LoadLocation("America/Boise")
	if err != nil {
		boise = time.FixedZone("MDT", -6*60*60)
	}
	start, end := DayRange(time.Date(2019, time.October, 5, 15, 42, 10, 0, boise))
	assert.Equal(t, "05 Oct 2019 12:00 AM", start)
	assert.Equal(t, "05 Oct 2019 11:59 PM", end)
}

func TestDayRange_SingleDigitDay(t *testing.T) {
	start, end := DayRange(time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "01 Mar 2026 12:00 AM", start)
	assert.Equal(t, "01 Mar 2026 11:59 PM", end)
}
