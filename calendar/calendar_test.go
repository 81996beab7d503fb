package calendar_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhansa067/HHPCalc/calendar"
)

func TestDayOf_DropsClock(t *testing.T) {
	morning := time.Date(2025, time.March, 10, 8, 30, 0, 0, time.UTC)
	evening := time.Date(2025, time.March, 10, 23, 59, 59, 0, time.UTC)

	assert.True(t, calendar.DayOf(morning).Equal(calendar.DayOf(evening)))
	assert.Equal(t, "2025-03-10", calendar.DayOf(morning).String())
}

func TestDayOf_UsesTimestampLocation(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*60*60)
	// 01:00 in Jakarta is still the previous day in UTC
	ts := time.Date(2025, time.March, 10, 1, 0, 0, 0, jakarta)

	assert.Equal(t, "2025-03-10", calendar.DayOf(ts).String())
}

func TestPeriod_DaysAndLen(t *testing.T) {
	p := calendar.Period{
		Start: calendar.NewDay(2025, time.February, 27),
		End:   calendar.NewDay(2025, time.March, 2),
	}

	days := p.Days()
	require.Len(t, days, 4)
	assert.Equal(t, 4, p.Len())
	assert.Equal(t, "2025-02-27", days[0].String())
	assert.Equal(t, "2025-03-01", days[2].String())
	assert.Equal(t, 2, p.Index(calendar.NewDay(2025, time.March, 1)))
	assert.Equal(t, -1, p.Index(calendar.NewDay(2025, time.March, 3)))
}

func TestPeriod_EmptyWhenEndBeforeStart(t *testing.T) {
	p := calendar.Period{
		Start: calendar.NewDay(2025, time.March, 2),
		End:   calendar.NewDay(2025, time.March, 1),
	}

	assert.Equal(t, 0, p.Len())
	assert.Empty(t, p.Days())
}

func TestHorizon_StartsTheNextDay(t *testing.T) {
	from := calendar.NewDay(2025, time.December, 30)
	h := calendar.Horizon(from, 3)

	days := h.Days()
	require.Len(t, days, 3)
	assert.Equal(t, "2025-12-31", days[0].String())
	assert.Equal(t, "2026-01-02", days[2].String())
}

func TestDay_TextRoundTrip(t *testing.T) {
	var d calendar.Day
	require.NoError(t, d.UnmarshalText([]byte("2024-02-29")))
	assert.True(t, d.Equal(calendar.NewDay(2024, time.February, 29)))

	assert.Error(t, d.UnmarshalText([]byte("29/02/2024")))
}
