//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"

	"example.com/runlog/internal/domain"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	ctx := context.Background()

	pg, err := postgrescontainer.Run(ctx, "postgres:16-alpine",
		postgrescontainer.WithDatabase("runlog"),
		postgrescontainer.WithUsername("runlog"),
		postgrescontainer.WithPassword("runlog"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, waitForDatabase(ctx, connStr))

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	repo := NewRepository(pool, "runs")
	applied, err := repo.Migrate(ctx)
	require.NoError(t, err)
	require.Equal(t, len(Migrations), applied)

	again, err := repo.Migrate(ctx)
	require.NoError(t, err)
	require.Zero(t, again)
	return repo
}

func TestRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	last, err := repo.LastRecord(ctx)
	require.NoError(t, err)
	require.Nil(t, last)

	mon, _ := domain.ParseDate("2024-03-04")
	wed, _ := domain.ParseDate("2024-03-06")
	records := []domain.ActivityRecord{
		{StartDate: mon, StartTime: 7 * time.Hour, Miles: 5.0, Hours: 0, Minutes: 45},
		{StartDate: wed, StartTime: 6 * time.Hour, Miles: 3.2, Hours: 0, Minutes: 30},
		{StartDate: wed, StartTime: 18*time.Hour + 30*time.Minute + 15*time.Second, Miles: 1.4, Hours: 0, Minutes: 12},
	}
	n, err := repo.InsertAll(ctx, records)
	require.NoError(t, err)
	require.Equal(t, 3, n)

	last, err = repo.LastRecord(ctx)
	require.NoError(t, err)
	require.NotNil(t, last)
	require.Equal(t, "2024-03-06", last.DateString())
	require.Equal(t, "18:30:15", last.TimeString())

	got, err := repo.QueryRange(ctx, mon, mon.AddDate(0, 0, 2))
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, records[2], got[0])
	require.Equal(t, records[0], got[2])

	got, err = repo.QueryRange(ctx, mon, mon)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, 5.0, got[0].Miles)

	res, err := repo.RunQuery(ctx, `SELECT start_date, sum(miles) AS total FROM runs GROUP BY start_date ORDER BY start_date`)
	require.NoError(t, err)
	require.Equal(t, []string{"start_date", "total"}, res.Columns)
	require.Equal(t, [][]string{{"2024-03-04", "5"}, {"2024-03-06", "4.6"}}, res.Rows)
}

func TestRepositoryInsertAllIsAtomic(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	day, _ := domain.ParseDate("2024-03-04")
	_, err := repo.InsertAll(ctx, []domain.ActivityRecord{
		{StartDate: day, StartTime: time.Hour, Miles: 1},
		{StartDate: day, StartTime: 2 * time.Hour, Miles: 123456789},
	})
	require.ErrorIs(t, err, domain.ErrWrite)

	last, err := repo.LastRecord(ctx)
	require.NoError(t, err)
	require.Nil(t, last)
}

func waitForDatabase(ctx context.Context, connStr string) error {
	deadline := time.Now().Add(30 * time.Second)
	for {
		pool, err := pgxpool.New(ctx, connStr)
		if err == nil {
			err = pool.Ping(ctx)
			pool.Close()
			if err == nil {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return err
		}
		time.Sleep(time.Second)
	}
}
