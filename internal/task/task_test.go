package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dalbo/briefingbot/internal/clock"
	"github.com/dalbo/briefingbot/internal/todoist"
)

func testZone(t *testing.T) *clock.Zone {
	t.Helper()
	z, err := clock.LoadZone("America/Sao_Paulo")
	require.NoError(t, err)
	return z
}

// local builds an instant at wall-clock time in the target zone.
func local(z *clock.Zone, y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, z.Location())
}

func TestFromAPI(t *testing.T) {
	z := testZone(t)

	t.Run("datetime due", func(t *testing.T) {
		tk, err := FromAPI(todoist.Task{
			ID:       "1",
			Content:  "pay rent",
			Priority: 3,
			Due:      &todoist.Due{Date: "2025-03-10", Datetime: "2025-03-10T18:00:00Z"},
		}, z)
		require.NoError(t, err)
		require.NotNil(t, tk.Due)
		assert.True(t, tk.DueHasTime)
		assert.True(t, tk.Due.Equal(time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)))
	})

	t.Run("date-only due lands at start of civil day", func(t *testing.T) {
		tk, err := FromAPI(todoist.Task{
			ID:  "2",
			Due: &todoist.Due{Date: "2025-03-10"},
		}, z)
		require.NoError(t, err)
		require.NotNil(t, tk.Due)
		assert.False(t, tk.DueHasTime)
		assert.True(t, tk.Due.Equal(local(z, 2025, 3, 10, 0, 0)))
	})

	t.Run("time annotation in free-text due string", func(t *testing.T) {
		tk, err := FromAPI(todoist.Task{
			ID:  "3",
			Due: &todoist.Due{Date: "2025-03-10", String: "every day 14:30"},
		}, z)
		require.NoError(t, err)
		assert.True(t, tk.DueHasTime)
		assert.True(t, tk.Due.Equal(local(z, 2025, 3, 10, 14, 30)))
	})

	t.Run("no due", func(t *testing.T) {
		tk, err := FromAPI(todoist.Task{ID: "4", Content: "someday"}, z)
		require.NoError(t, err)
		assert.Nil(t, tk.Due)
	})

	t.Run("malformed due date is rejected", func(t *testing.T) {
		_, err := FromAPI(todoist.Task{
			ID:  "5",
			Due: &todoist.Due{Date: "not-a-date"},
		}, z)
		assert.Error(t, err)
	})

	t.Run("missing id is rejected", func(t *testing.T) {
		_, err := FromAPI(todoist.Task{Content: "ghost"}, z)
		assert.Error(t, err)
	})

	t.Run("out-of-range priority normalized", func(t *testing.T) {
		tk, err := FromAPI(todoist.Task{ID: "6", Priority: 9}, z)
		require.NoError(t, err)
		assert.Equal(t, 1, tk.Priority)
	})
}

func TestTemporalPredicates(t *testing.T) {
	z := testZone(t)
	now := local(z, 2025, 3, 10, 10, 0) // today 10:00

	due := func(ts time.Time) Task {
		return Task{ID: "t", Due: &ts, DueHasTime: true}
	}

	t.Run("no due date is never relevant", func(t *testing.T) {
		tk := Task{ID: "t"}
		assert.False(t, tk.DueToday(z, now))
		assert.False(t, tk.Overdue(z, now))
		assert.False(t, tk.Relevant(z, now))
	})

	t.Run("due yesterday morning", func(t *testing.T) {
		tk := due(local(z, 2025, 3, 9, 9, 0))
		assert.True(t, tk.Overdue(z, now))
		assert.False(t, tk.DueToday(z, now))
		assert.True(t, tk.Relevant(z, now))
	})

	t.Run("due earlier today", func(t *testing.T) {
		tk := due(local(z, 2025, 3, 10, 8, 0))
		assert.True(t, tk.Overdue(z, now))
		assert.True(t, tk.DueToday(z, now))
		assert.True(t, tk.Relevant(z, now))
	})

	t.Run("due later today", func(t *testing.T) {
		tk := due(local(z, 2025, 3, 10, 18, 0))
		assert.False(t, tk.Overdue(z, now))
		assert.True(t, tk.DueToday(z, now))
		assert.True(t, tk.Relevant(z, now))
	})

	t.Run("due tomorrow", func(t *testing.T) {
		tk := due(local(z, 2025, 3, 11, 9, 0))
		assert.False(t, tk.Overdue(z, now))
		assert.False(t, tk.DueToday(z, now))
		assert.False(t, tk.Relevant(z, now))
	})

	t.Run("date-only due today counts overdue once the day started", func(t *testing.T) {
		start := z.StartOfDay(now)
		tk := Task{ID: "t", Due: &start}
		assert.True(t, tk.DueToday(z, now))
		assert.True(t, tk.Overdue(z, now))
	})
}

// Any due instant on an earlier civil day is overdue regardless of its
// time of day.
func TestOverdueIgnoresTimeOfDayOnPastDays(t *testing.T) {
	z := testZone(t)
	now := local(z, 2025, 3, 10, 0, 30) // just past midnight

	for hour := 0; hour < 24; hour++ {
		ts := local(z, 2025, 3, 9, hour, 0)
		tk := Task{ID: "t", Due: &ts, DueHasTime: true}
		assert.True(t, tk.Overdue(z, now), "hour %d", hour)
	}
}

func TestInInbox(t *testing.T) {
	assert.True(t, Task{ID: "a"}.InInbox())
	assert.False(t, Task{ID: "b", ProjectID: "2203306141"}.InInbox())
}

func TestPriorityMarker(t *testing.T) {
	tests := []struct {
		priority int
		want     string
	}{
		{4, "🔴"},
		{3, "🟠"},
		{2, "🔵"},
		{1, "⚪"},
		{0, ""},
		{5, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Task{Priority: tt.priority}.PriorityMarker())
	}
}
