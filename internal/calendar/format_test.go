package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatterDisplay(t *testing.T) {
	paris := mustLoad(t, "Europe/Paris")
	f := Formatter{Day: Today(time.Date(2024, 1, 15, 7, 0, 0, 0, paris), paris)}

	tests := []struct {
		name         string
		payload      string
		wantTitle    string
		wantLocation string
		wantHours    string
	}{
		{
			name: "timed within the day",
			payload: lines(
				"SUMMARY:Team sync",
				"LOCATION:Room 4",
				"DTSTART;TZID=Europe/Paris:20240115T140000",
				"DTEND;TZID=Europe/Paris:20240115T150000",
			),
			wantTitle:    "Team sync",
			wantLocation: "Room 4",
			wantHours:    "14:00 - 15:00",
		},
		{
			name: "utc instants shown in local time",
			payload: lines(
				"SUMMARY:Call",
				"DTSTART:20240115T080000Z",
				"DTEND:20240115T083000Z",
			),
			wantTitle: "Call",
			wantHours: "09:00 - 09:30",
		},
		{
			name: "started yesterday",
			payload: lines(
				"SUMMARY:Night shift",
				"DTSTART;TZID=Europe/Paris:20240114T220000",
				"DTEND;TZID=Europe/Paris:20240115T060000",
			),
			wantTitle: "Night shift",
			wantHours: "Sun 14 Jan 22:00 - 06:00",
		},
		{
			name: "ends tomorrow",
			payload: lines(
				"SUMMARY:Trip",
				"LOCATION:Lyon",
				"DTSTART;TZID=Europe/Paris:20240115T180000",
				"DTEND;TZID=Europe/Paris:20240117T120000",
			),
			wantTitle:    "Trip",
			wantLocation: "Lyon",
			wantHours:    "18:00 - Wed 17 Jan 12:00",
		},
		{
			name: "all-day",
			payload: lines(
				"SUMMARY:Holiday",
				"DTSTART;VALUE=DATE:20240115",
				"DTEND;VALUE=DATE:20240116",
			),
			wantTitle: "Holiday",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := ParseEvent(tt.payload, CategoryPersonal, paris)
			require.NoError(t, err)

			title, location, hours := f.Display(ev)
			assert.Equal(t, tt.wantTitle, title)
			assert.Equal(t, tt.wantLocation, location)
			assert.Equal(t, tt.wantHours, hours)
		})
	}
}

func TestFormatterDisplay_CustomLong(t *testing.T) {
	f := Formatter{
		Day:  Today(time.Date(2024, 1, 15, 7, 0, 0, 0, time.UTC), time.UTC),
		Long: func(t time.Time) string { return t.Format("02/01 15h04") },
	}

	ev, err := ParseEvent("DTSTART:20240114T200000Z\nDTEND:20240115T010000Z", CategoryPersonal, time.UTC)
	require.NoError(t, err)

	_, _, hours := f.Display(ev)
	assert.Equal(t, "14/01 20h00 - 01:00", hours)
}

func TestFormatterDisplay_InvalidEventPanics(t *testing.T) {
	f := Formatter{Day: Today(time.Now(), time.UTC)}
	assert.PanicsWithValue(t, ErrInvalidEvent, func() {
		f.Display(Event{})
	})
}
