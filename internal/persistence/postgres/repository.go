package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/runlog/internal/domain"
)

// DefaultTable is the run table name used when none is configured.
const DefaultTable = "runs"

const (
	columnsPerRow = 5
	// Postgres caps bind parameters at 65535 per statement.
	maxRowsPerInsert = 65535 / columnsPerRow
)

// Repository provides Postgres-backed persistence for run records.
type Repository struct {
	pool  *pgxpool.Pool
	name  string
	table string
}

// NewRepository constructs a Repository over the named table.
func NewRepository(pool *pgxpool.Pool, table string) *Repository {
	if table == "" {
		table = DefaultTable
	}
	return &Repository{pool: pool, name: table, table: pgx.Identifier{table}.Sanitize()}
}

// InsertAll writes records in a single transaction. An empty slice returns
// domain.ErrNoRows without touching the database.
func (r *Repository) InsertAll(ctx context.Context, records []domain.ActivityRecord) (int, error) {
	if len(records) == 0 {
		return 0, domain.ErrNoRows
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("%w: begin: %v", domain.ErrWrite, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	inserted := 0
	for _, chunk := range chunkRecords(records, maxRowsPerInsert) {
		stmt, args := r.insertStatement(chunk)
		var tag pgconn.CommandTag
		tag, err = tx.Exec(ctx, stmt, args...)
		if err != nil {
			return 0, fmt.Errorf("%w: insert %d rows: %v", domain.ErrWrite, len(chunk), err)
		}
		inserted += int(tag.RowsAffected())
	}

	if err = tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("%w: commit: %v", domain.ErrWrite, err)
	}
	return inserted, nil
}

// QueryRange returns records whose start_date lies in [start, end], newest first.
func (r *Repository) QueryRange(ctx context.Context, start, end time.Time) ([]domain.ActivityRecord, error) {
	query := `SELECT start_date, start_time, miles::float8, hours, minutes FROM ` + r.table + `
        WHERE start_date BETWEEN $1::date AND $2::date
        ORDER BY start_date DESC, start_time DESC`

	rows, err := r.pool.Query(ctx, query, domain.Date(start), domain.Date(end))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrQuery, err)
	}
	defer rows.Close()

	var out []domain.ActivityRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrQuery, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrQuery, err)
	}
	return out, nil
}

// LastRecord returns the run with the greatest (start_date, start_time), or nil for an empty table.
func (r *Repository) LastRecord(ctx context.Context) (*domain.ActivityRecord, error) {
	query := `SELECT start_date, start_time, miles::float8, hours, minutes FROM ` + r.table + `
        ORDER BY start_date DESC, start_time DESC LIMIT 1`

	rec, err := scanRecord(r.pool.QueryRow(ctx, query))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrQuery, err)
	}
	return &rec, nil
}

// QueryResult is the tabular outcome of an ad-hoc query, with values rendered as text.
type QueryResult struct {
	Columns []string
	Rows    [][]string
}

// RunQuery executes arbitrary SQL and returns its result set.
func (r *Repository) RunQuery(ctx context.Context, sql string) (QueryResult, error) {
	rows, err := r.pool.Query(ctx, sql)
	if err != nil {
		return QueryResult{}, fmt.Errorf("%w: %v", domain.ErrQuery, err)
	}
	defer rows.Close()

	var result QueryResult
	for _, fd := range rows.FieldDescriptions() {
		result.Columns = append(result.Columns, fd.Name)
	}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return QueryResult{}, fmt.Errorf("%w: %v", domain.ErrQuery, err)
		}
		row := make([]string, len(values))
		for i, v := range values {
			row[i] = formatValue(v)
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return QueryResult{}, fmt.Errorf("%w: %v", domain.ErrQuery, err)
	}
	return result, nil
}

// Table returns the quoted table identifier.
func (r *Repository) Table() string {
	return r.table
}

func (r *Repository) insertStatement(records []domain.ActivityRecord) (string, []any) {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(r.table)
	b.WriteString(" (start_date, start_time, miles, hours, minutes) VALUES ")

	args := make([]any, 0, len(records)*columnsPerRow)
	for i, rec := range records {
		if i > 0 {
			b.WriteByte(',')
		}
		n := i * columnsPerRow
		fmt.Fprintf(&b, "($%d::date,$%d::time,$%d::float8,$%d,$%d)", n+1, n+2, n+3, n+4, n+5)
		args = append(args,
			domain.Date(rec.StartDate),
			pgtype.Time{Microseconds: rec.StartTime.Microseconds(), Valid: true},
			rec.Miles,
			rec.Hours,
			rec.Minutes,
		)
	}
	return b.String(), args
}

func chunkRecords(records []domain.ActivityRecord, size int) [][]domain.ActivityRecord {
	var chunks [][]domain.ActivityRecord
	for len(records) > size {
		chunks = append(chunks, records[:size])
		records = records[size:]
	}
	if len(records) > 0 {
		chunks = append(chunks, records)
	}
	return chunks
}

func scanRecord(row pgx.Row) (domain.ActivityRecord, error) {
	var (
		rec       domain.ActivityRecord
		startDate time.Time
		startTime pgtype.Time
	)
	if err := row.Scan(&startDate, &startTime, &rec.Miles, &rec.Hours, &rec.Minutes); err != nil {
		return domain.ActivityRecord{}, err
	}
	rec.StartDate = domain.Date(startDate)
	rec.StartTime = time.Duration(startTime.Microseconds) * time.Microsecond
	return rec, nil
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case time.Time:
		if val.Hour() == 0 && val.Minute() == 0 && val.Second() == 0 && val.Nanosecond() == 0 {
			return val.Format(domain.DateLayout)
		}
		return val.Format(time.RFC3339)
	case pgtype.Time:
		if !val.Valid {
			return ""
		}
		return domain.FormatTimeOfDay(time.Duration(val.Microseconds) * time.Microsecond)
	case pgtype.Numeric:
		f, err := val.Float64Value()
		if err != nil || !f.Valid {
			return ""
		}
		return strconv.FormatFloat(f.Float64, 'f', -1, 64)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case []byte:
		return string(val)
	default:
		return fmt.Sprint(val)
	}
}
