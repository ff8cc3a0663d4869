package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"example.com/runlog/internal/logging"
	"example.com/runlog/internal/observability"
)

const (
	endOfDay       = 23*time.Hour + 59*time.Minute + 59*time.Second
	manualStartOff = time.Second
	resumeOffset   = time.Minute
)

// ActivityRepository captures persistence operations.
type ActivityRepository interface {
	InsertAll(ctx context.Context, records []ActivityRecord) (int, error)
	QueryRange(ctx context.Context, start, end time.Time) ([]ActivityRecord, error)
	LastRecord(ctx context.Context) (*ActivityRecord, error)
}

// TokenSource yields a currently valid API access token.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// ActivityFetcher pulls running activities in the window (start, end].
type ActivityFetcher interface {
	FetchActivities(ctx context.Context, token string, start, end time.Time) ([]RawActivity, error)
}

// EventPublisher announces completed syncs to downstream consumers.
type EventPublisher interface {
	PublishSyncCompleted(ctx context.Context, result SyncResult) error
}

// SyncRequest selects the sync window. ManualStart bypasses the stored watermark.
type SyncRequest struct {
	EndDate     time.Time
	ManualStart *time.Time
}

// SyncResult summarises a sync run.
type SyncResult struct {
	RunID       string
	WindowStart time.Time
	WindowEnd   time.Time
	Fetched     int
	Inserted    int
	Latest      *ActivityRecord
}

// Option configures optional behaviour for the Service.
type Option func(*Service)

// WithLocation sets the zone in which stored wall-clock times are interpreted.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithDefaultStart sets the start date used when the table is empty.
func WithDefaultStart(date *time.Time) Option {
	return func(s *Service) {
		s.defaultStart = date
	}
}

// WithPublisher attaches an event publisher.
func WithPublisher(p EventPublisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// Service orchestrates the sync and reporting workflows.
type Service struct {
	repo         ActivityRepository
	tokens       TokenSource
	fetcher      ActivityFetcher
	publisher    EventPublisher
	loc          *time.Location
	defaultStart *time.Time
	now          func() time.Time
}

// NewService constructs a Service. tokens and fetcher may be nil for read-only use.
func NewService(repo ActivityRepository, tokens TokenSource, fetcher ActivityFetcher, opts ...Option) *Service {
	s := &Service{
		repo:    repo,
		tokens:  tokens,
		fetcher: fetcher,
		loc:     time.UTC,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Location reports the zone used for boundary computation.
func (s *Service) Location() *time.Location {
	return s.loc
}

// Sync pulls new runs from the API and stores them.
//
// The window ends at 23:59:59 on req.EndDate. It starts at 00:00:01 on req.ManualStart
// when given, otherwise one minute after the latest stored run, so that re-running
// against the same end date inserts nothing new.
func (s *Service) Sync(ctx context.Context, req SyncRequest) (SyncResult, error) {
	if s.tokens == nil || s.fetcher == nil {
		return SyncResult{}, fmt.Errorf("%w: sync requires a token source and an activity fetcher", ErrConfig)
	}
	if req.EndDate.IsZero() {
		return SyncResult{}, fmt.Errorf("%w: end date is required", ErrConfig)
	}

	result := SyncResult{RunID: uuid.NewString()}
	ctx = logging.ContextWithRunID(ctx, result.RunID)
	log := logging.Ctx(ctx)
	began := s.now()

	start, err := s.startBoundary(ctx, req.ManualStart)
	if err != nil {
		observability.RecordSyncFailure()
		return result, err
	}
	end := At(req.EndDate, endOfDay, s.loc)
	result.WindowStart, result.WindowEnd = start, end

	log.Info().Time("after", start).Time("before", end).Msg("sync window computed")

	if !start.Before(end) {
		log.Info().Msg("sync window is empty, nothing to fetch")
		return result, nil
	}

	token, err := s.tokens.AccessToken(ctx)
	if err != nil {
		observability.RecordSyncFailure()
		return result, err
	}

	raw, err := s.fetcher.FetchActivities(ctx, token, start, end)
	if err != nil {
		observability.RecordSyncFailure()
		return result, err
	}
	result.Fetched = len(raw)

	records, err := Normalize(raw)
	if err != nil {
		observability.RecordSyncFailure()
		return result, err
	}

	inserted, err := s.repo.InsertAll(ctx, records)
	switch {
	case errors.Is(err, ErrNoRows):
		log.Info().Msg("no new runs available for the requested window")
	case err != nil:
		observability.RecordSyncFailure()
		return result, err
	}
	result.Inserted = inserted
	if len(records) > 0 {
		latest := records[len(records)-1]
		result.Latest = &latest
	}

	var latestAt time.Time
	if result.Latest != nil {
		latestAt = result.Latest.StartedAt(s.loc)
	}
	observability.RecordSyncSuccess(result.Fetched, result.Inserted, s.now().Sub(began), latestAt)

	log.Info().Int("fetched", result.Fetched).Int("inserted", result.Inserted).Msg("sync finished")

	if s.publisher != nil {
		if pubErr := s.publisher.PublishSyncCompleted(ctx, result); pubErr != nil {
			log.Warn().Err(pubErr).Msg("publish sync event failed")
		}
	}
	return result, nil
}

func (s *Service) startBoundary(ctx context.Context, manual *time.Time) (time.Time, error) {
	if manual != nil {
		return At(*manual, manualStartOff, s.loc), nil
	}

	last, err := s.repo.LastRecord(ctx)
	if err != nil {
		return time.Time{}, err
	}
	if last != nil {
		logging.Ctx(ctx).Info().Str("date", last.DateString()).Str("time", last.TimeString()).Msg("last stored run")
		return At(last.StartDate, last.StartTime+resumeOffset, s.loc), nil
	}

	if s.defaultStart != nil {
		return At(*s.defaultStart, manualStartOff, s.loc), nil
	}
	return time.Time{}, fmt.Errorf("%w: %w", ErrConfig, ErrNoStartBoundary)
}

// Runs returns stored runs whose start date lies within [start, end], newest first.
func (s *Service) Runs(ctx context.Context, start, end time.Time) ([]ActivityRecord, error) {
	start, end = Date(start), Date(end)
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end date %s precedes start date %s", ErrConfig, end.Format(DateLayout), start.Format(DateLayout))
	}
	return s.repo.QueryRange(ctx, start, end)
}

// LatestRun returns the most recent stored run, or nil when none exist.
func (s *Service) LatestRun(ctx context.Context) (*ActivityRecord, error) {
	return s.repo.LastRecord(ctx)
}

// Import stores records verbatim, without deduplication.
func (s *Service) Import(ctx context.Context, records []ActivityRecord) (int, error) {
	return s.repo.InsertAll(ctx, records)
}
