package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNormalizeConvertsUnits(t *testing.T) {
	records, err := Normalize([]RawActivity{{
		ID:             1,
		Type:           "Run",
		StartDateLocal: "2024-03-04T07:15:30Z",
		Distance:       8046.5,
		ElapsedTime:    3*3600 + 25*60 + 59,
	}})
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	require.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), rec.StartDate)
	require.Equal(t, "07:15:30", rec.TimeString())
	require.Equal(t, 5.0, rec.Miles)
	require.Equal(t, 3, rec.Hours)
	require.Equal(t, 25, rec.Minutes)
}

func TestNormalizeOneMile(t *testing.T) {
	records, err := Normalize([]RawActivity{{StartDateLocal: "2024-03-04T07:00:00Z", Distance: 1609, ElapsedTime: 540}})
	require.NoError(t, err)
	require.Equal(t, 1.0, records[0].Miles)
	require.Equal(t, 0, records[0].Hours)
	require.Equal(t, 9, records[0].Minutes)
}

func TestNormalizeZeroElapsedTime(t *testing.T) {
	records, err := Normalize([]RawActivity{{StartDateLocal: "2024-03-04T07:00:00", Distance: 0, ElapsedTime: 0}})
	require.NoError(t, err)
	require.Equal(t, 0, records[0].Hours)
	require.Equal(t, 0, records[0].Minutes)
	require.Equal(t, 0.0, records[0].Miles)
}

func TestNormalizeSortsAscending(t *testing.T) {
	records, err := Normalize([]RawActivity{
		{ID: 3, StartDateLocal: "2024-03-06T06:00:00Z"},
		{ID: 2, StartDateLocal: "2024-03-04T18:30:00Z"},
		{ID: 1, StartDateLocal: "2024-03-04T06:30:00Z"},
	})
	require.NoError(t, err)

	got := make([]string, 0, len(records))
	for _, r := range records {
		got = append(got, r.DateString()+" "+r.TimeString())
	}
	require.Equal(t, []string{"2024-03-04 06:30:00", "2024-03-04 18:30:00", "2024-03-06 06:00:00"}, got)
}

func TestNormalizeRejectsMalformedTimestamp(t *testing.T) {
	_, err := Normalize([]RawActivity{{ID: 9, StartDateLocal: "yesterday"}})
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrFetch))
}

func TestNormalizeEmpty(t *testing.T) {
	records, err := Normalize(nil)
	require.NoError(t, err)
	require.Empty(t, records)
}
