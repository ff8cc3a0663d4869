package events

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"

	"example.com/runlog/internal/domain"
	"example.com/runlog/internal/logging"
)

// MessageWriter is the subset of *kafka.Writer used by Publisher.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes SyncCompleted events to a single topic.
type Publisher struct {
	writer MessageWriter
	now    func() time.Time
}

// NewKafkaPublisher creates a publisher with a synchronous writer that waits for all replicas.
func NewKafkaPublisher(brokers []string, topic string) *Publisher {
	return NewPublisher(&kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		Compression:            kafka.Snappy,
		AllowAutoTopicCreation: true,
	})
}

// NewPublisher wraps an existing writer.
func NewPublisher(w MessageWriter) *Publisher {
	return &Publisher{writer: w, now: time.Now}
}

// PublishSyncCompleted encodes result and writes it keyed by run id.
func (p *Publisher) PublishSyncCompleted(ctx context.Context, result domain.SyncResult) error {
	evt := SyncCompleted{
		RunID:       result.RunID,
		WindowStart: result.WindowStart,
		WindowEnd:   result.WindowEnd,
		Fetched:     result.Fetched,
		Inserted:    result.Inserted,
		OccurredAt:  p.now().UTC(),
	}
	if result.Latest != nil {
		evt.LatestRun = &LatestRun{
			StartDate: result.Latest.DateString(),
			StartTime: result.Latest.TimeString(),
			Miles:     result.Latest.Miles,
		}
	}

	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode sync event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(result.RunID),
		Value: body,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(EventSyncCompleted)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write sync event: %w", err)
	}
	logging.Ctx(ctx).Debug().Msg("sync event published")
	return nil
}

// Close flushes and releases the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
