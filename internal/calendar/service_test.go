package calendar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dalbo/briefingbot/internal/clock"
)

// Feed with one event today, one tomorrow and a daily series, relative to
// the fixed test clock below.
const serviceICS = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//test//test//EN
BEGIN:VEVENT
UID:today-1
SUMMARY:Budget review
DTSTART:20250310T170000Z
DTEND:20250310T180000Z
END:VEVENT
BEGIN:VEVENT
UID:tomorrow-1
SUMMARY:Offsite
DTSTART:20250311T170000Z
DTEND:20250311T180000Z
END:VEVENT
BEGIN:VEVENT
UID:daily-1
SUMMARY:Standup
DTSTART:20250301T120000Z
DTEND:20250301T121500Z
RRULE:FREQ=DAILY
END:VEVENT
END:VCALENDAR
`

func TestServiceTodayEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(serviceICS))
	}))
	defer srv.Close()

	zone, err := clock.LoadZone("America/Sao_Paulo")
	require.NoError(t, err)
	now := func() time.Time { return time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC) } // Mar 10 noon -03

	svc := NewService(
		[]Source{{ID: "main", URL: srv.URL}},
		NewFetcher(t.TempDir()),
		zone,
		now,
	)

	events, err := svc.TodayEvents(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 2)

	// Sorted ascending: standup occurrence at 12:00Z, then review at 17:00Z.
	assert.Equal(t, "Standup", events[0].Summary)
	assert.Equal(t, OccurrenceID("daily-1", time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)), events[0].ID)
	assert.Equal(t, "today-1", events[1].ID)
}

func TestServiceAllSourcesFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	zone, err := clock.LoadZone("America/Sao_Paulo")
	require.NoError(t, err)

	svc := NewService([]Source{{ID: "down", URL: srv.URL}}, NewFetcher(t.TempDir()), zone, nil)

	_, err = svc.TodayEvents(context.Background())
	assert.ErrorIs(t, err, ErrAllSourcesFailed)
}

func TestServicePartialSourceFailure(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(serviceICS))
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer bad.Close()

	zone, err := clock.LoadZone("America/Sao_Paulo")
	require.NoError(t, err)
	now := func() time.Time { return time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC) }

	svc := NewService([]Source{
		{ID: "good", URL: good.URL},
		{ID: "bad", URL: bad.URL},
	}, NewFetcher(t.TempDir()), zone, now)

	events, err := svc.TodayEvents(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, events)
}

func TestServiceNoSources(t *testing.T) {
	zone, err := clock.LoadZone("America/Sao_Paulo")
	require.NoError(t, err)

	svc := NewService(nil, NewFetcher(t.TempDir()), zone, nil)
	events, err := svc.TodayEvents(context.Background())
	require.NoError(t, err)
	assert.Empty(t, events)
}
