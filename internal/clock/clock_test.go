package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustZone(t *testing.T) *Zone {
	t.Helper()
	z, err := LoadZone("America/Sao_Paulo")
	require.NoError(t, err)
	return z
}

func TestLoadZone(t *testing.T) {
	t.Run("default name", func(t *testing.T) {
		z, err := LoadZone("")
		require.NoError(t, err)
		assert.Equal(t, DefaultZoneName, z.Location().String())
	})

	t.Run("unknown zone fails", func(t *testing.T) {
		_, err := LoadZone("Mars/Olympus_Mons")
		assert.Error(t, err)
	})
}

func TestSameDay(t *testing.T) {
	z := mustZone(t)

	// Sao Paulo is UTC-3. 02:00 UTC is 23:00 the previous civil day.
	tests := []struct {
		name string
		a, b time.Time
		want bool
	}{
		{
			name: "identical instants",
			a:    time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
			b:    time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
			want: true,
		},
		{
			name: "same UTC day, different civil day",
			a:    time.Date(2025, 3, 10, 2, 0, 0, 0, time.UTC),  // Mar 9 23:00 -03
			b:    time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC), // Mar 10 09:00 -03
			want: false,
		},
		{
			name: "different UTC day, same civil day",
			a:    time.Date(2025, 3, 10, 23, 0, 0, 0, time.UTC), // Mar 10 20:00 -03
			b:    time.Date(2025, 3, 11, 2, 59, 0, 0, time.UTC), // Mar 10 23:59 -03
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, z.SameDay(tt.a, tt.b))
			// Symmetric.
			assert.Equal(t, tt.want, z.SameDay(tt.b, tt.a))
		})
	}
}

// Reflexivity holds for any instant.
func TestSameDayReflexive(t *testing.T) {
	z := mustZone(t)
	instants := []time.Time{
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 30, 2, 59, 59, 0, time.UTC),
		time.Date(2025, 12, 31, 3, 0, 0, 0, time.UTC),
		time.Now(),
	}
	for _, x := range instants {
		assert.True(t, z.SameDay(x, x), "instant %v", x)
	}
}

func TestStartOfDay(t *testing.T) {
	z := mustZone(t)

	// Mar 10 09:00 -03 == Mar 10 12:00 UTC.
	in := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	got := z.StartOfDay(in)

	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, z.Location()), got)
	// Midnight -03 is 03:00 UTC.
	assert.True(t, got.Equal(time.Date(2025, 3, 10, 3, 0, 0, 0, time.UTC)))
}

func TestEndOfDay(t *testing.T) {
	z := mustZone(t)

	in := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	got := z.EndOfDay(in)
	assert.Equal(t, time.Date(2025, 3, 11, 0, 0, 0, 0, z.Location()), got)
	assert.Equal(t, 24*time.Hour, got.Sub(z.StartOfDay(in)))
}

func TestBeforeToday(t *testing.T) {
	z := mustZone(t)

	now := time.Date(2025, 3, 10, 13, 0, 0, 0, time.UTC) // Mar 10 10:00 -03

	t.Run("yesterday is before today", func(t *testing.T) {
		assert.True(t, z.BeforeToday(time.Date(2025, 3, 9, 23, 0, 0, 0, time.UTC), now))
	})
	t.Run("earlier today is not before today", func(t *testing.T) {
		assert.False(t, z.BeforeToday(time.Date(2025, 3, 10, 11, 0, 0, 0, time.UTC), now))
	})
	t.Run("last instant of yesterday", func(t *testing.T) {
		// Mar 10 02:59:59 UTC == Mar 9 23:59:59 -03.
		assert.True(t, z.BeforeToday(time.Date(2025, 3, 10, 2, 59, 59, 0, time.UTC), now))
	})
	t.Run("exact midnight is today", func(t *testing.T) {
		assert.False(t, z.BeforeToday(time.Date(2025, 3, 10, 3, 0, 0, 0, time.UTC), now))
	})
}

func TestDateOf(t *testing.T) {
	z := mustZone(t)

	y, m, d := z.DateOf(time.Date(2025, 3, 10, 1, 0, 0, 0, time.UTC))
	assert.Equal(t, 2025, y)
	assert.Equal(t, time.March, m)
	assert.Equal(t, 9, d)
}
