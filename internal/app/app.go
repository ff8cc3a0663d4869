// Package app wires configuration, storage, credentials and the Strava client into a
// domain service shared by the CLI and the API server.
package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/runlog/internal/config"
	"example.com/runlog/internal/credentials"
	"example.com/runlog/internal/domain"
	"example.com/runlog/internal/events"
	"example.com/runlog/internal/logging"
	"example.com/runlog/internal/persistence/postgres"
	"example.com/runlog/internal/strava"
)

// App holds the shared dependencies of a runlog process.
type App struct {
	Config      *config.Config
	Pool        *pgxpool.Pool
	Repo        *postgres.Repository
	Credentials *credentials.Manager
	Service     *domain.Service
	publisher   *events.Publisher
}

// New connects to Postgres and assembles the domain service. The database URL comes from
// configuration, falling back to the "postgres" section of the credential file.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	store := credentials.NewFileStore(cfg.CredentialsPath)
	manager := credentials.NewManager(store, credentials.WithTokenURL(cfg.Strava.TokenURL))

	dsn := cfg.Postgres.URL
	if dsn == "" {
		bundle, err := store.Load()
		if err != nil {
			return nil, err
		}
		if dsn, err = bundle.PostgresDSN(); err != nil {
			return nil, err
		}
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: connect to postgres: %v", domain.ErrConfig, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: ping postgres: %v", domain.ErrConfig, err)
	}

	repo := postgres.NewRepository(pool, cfg.Postgres.Table)
	fetcher := strava.NewBreakerClient(strava.NewClient(cfg.Strava), 0)

	opts := []domain.Option{
		domain.WithLocation(cfg.Location()),
		domain.WithDefaultStart(cfg.DefaultStartDate()),
	}
	a := &App{
		Config:      cfg,
		Pool:        pool,
		Repo:        repo,
		Credentials: manager,
	}
	if len(cfg.Kafka.Brokers) > 0 {
		a.publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		opts = append(opts, domain.WithPublisher(a.publisher))
		logging.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("sync events enabled")
	}
	a.Service = domain.NewService(repo, manager, fetcher, opts...)
	return a, nil
}

// Close releases the publisher and the connection pool.
func (a *App) Close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			logging.Warn().Err(err).Msg("close kafka publisher")
		}
	}
	if a.Pool != nil {
		a.Pool.Close()
	}
}
