package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"example.com/runlog/internal/domain"
)

type stubWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (s *stubWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if s.err != nil {
		return s.err
	}
	s.msgs = append(s.msgs, msgs...)
	return nil
}

func (s *stubWriter) Close() error {
	s.closed = true
	return nil
}

func TestPublishSyncCompleted(t *testing.T) {
	w := &stubWriter{}
	p := NewPublisher(w)
	p.now = func() time.Time { return time.Date(2024, 3, 11, 6, 0, 0, 0, time.UTC) }

	latest := domain.ActivityRecord{
		StartDate: time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC),
		StartTime: 18*time.Hour + 30*time.Minute,
		Miles:     3.2,
	}
	err := p.PublishSyncCompleted(context.Background(), domain.SyncResult{
		RunID:    "run-1",
		Fetched:  2,
		Inserted: 2,
		Latest:   &latest,
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	require.Equal(t, []byte("run-1"), msg.Key)
	require.Equal(t, EventSyncCompleted, string(msg.Headers[0].Value))

	var evt SyncCompleted
	require.NoError(t, json.Unmarshal(msg.Value, &evt))
	require.Equal(t, 2, evt.Inserted)
	require.Equal(t, "18:30:00", evt.LatestRun.StartTime)
	require.Equal(t, "2024-03-06", evt.LatestRun.StartDate)

	require.NoError(t, p.Close())
	require.True(t, w.closed)
}

func TestPublishSyncCompletedWriteError(t *testing.T) {
	p := NewPublisher(&stubWriter{err: errors.New("leader not available")})
	err := p.PublishSyncCompleted(context.Background(), domain.SyncResult{RunID: "run-2"})
	require.ErrorContains(t, err, "leader not available")
}
