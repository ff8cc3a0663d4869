package persistence

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/runlog/internal/domain"
)

func TestReadActivitiesCSV(t *testing.T) {
	input := "start_date,start_time,miles,hours,minutes\n" +
		"2024-03-06,18:30:00,3.2,0,30\n" +
		"2024-03-04,07:00:00,5.0,0,45\n"

	records, err := ReadActivitiesCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "2024-03-06", records[0].DateString())
	require.Equal(t, 18*time.Hour+30*time.Minute, records[0].StartTime)
	require.Equal(t, 5.0, records[1].Miles)
	require.Equal(t, 45, records[1].Minutes)
}

func TestReadActivitiesCSVRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"empty":        "",
		"wrong header": "date,time,miles,hours,minutes\n",
		"bad date":     "start_date,start_time,miles,hours,minutes\n03/04/2024,07:00:00,5,0,45\n",
		"bad miles":    "start_date,start_time,miles,hours,minutes\n2024-03-04,07:00:00,five,0,45\n",
		"short row":    "start_date,start_time,miles,hours,minutes\n2024-03-04,07:00:00,5\n",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ReadActivitiesCSV(strings.NewReader(input))
			require.ErrorIs(t, err, domain.ErrConfig)
		})
	}
}

func TestReadActivitiesCSVHeaderOnly(t *testing.T) {
	records, err := ReadActivitiesCSV(strings.NewReader("start_date,start_time,miles,hours,minutes\n"))
	require.NoError(t, err)
	require.Empty(t, records)
}
