package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/ericdfournier/la100es/pkg/config"
	"github.com/ericdfournier/la100es/pkg/parcel"
	"github.com/ericdfournier/la100es/pkg/validation"
)

// Postgres reads parcel and permit rows with a configured query.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects using the DSN held in db.DSNEnv, after loading
// db.EnvFile if it exists. An empty DSN falls back to the PGHOST, PGUSER,
// PGDATABASE family of variables.
func OpenPostgres(ctx context.Context, db *config.Database) (*Postgres, error) {
	if db.EnvFile != "" {
		if err := godotenv.Load(db.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", db.EnvFile, err)
		}
	}

	poolConfig, err := pgxpool.ParseConfig(os.Getenv(db.DSNEnv))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", db.DSNEnv, err)
	}
	poolConfig.MaxConns = 4
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Close releases the connection pool.
func (p *Postgres) Close() { p.pool.Close() }

// LoadParcels runs query and assembles its rows into parcels. Result columns
// are matched to dataset columns by name.
func (p *Postgres) LoadParcels(ctx context.Context, query string, opts Options) ([]*parcel.Parcel, *validation.Report, error) {
	rows, err := p.pool.Query(ctx, query)
	if err != nil {
		return nil, nil, fmt.Errorf("querying parcels: %w", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.Name
	}
	if err := requireColumns(cols, RequiredColumns, "postgres"); err != nil {
		return nil, nil, err
	}

	bar := newBar(0, opts.Progress, "postgres ")
	var records []Record
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, nil, fmt.Errorf("scanning parcel row: %w", err)
		}
		rec := make(Record, len(cols))
		for i, c := range cols {
			rec[c] = formatValue(vals[i])
		}
		records = append(records, rec)
		bar.Increment()
	}
	bar.Finish()
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("reading parcel rows: %w", err)
	}
	return Assemble(records, "postgres", opts)
}

// formatValue renders a decoded column value the way the CSV reader would
// see it.
func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case bool:
		return strconv.FormatBool(x)
	case int16:
		return strconv.FormatInt(int64(x), 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return x.Format("2006-01-02")
	case pgtype.Numeric:
		if !x.Valid {
			return ""
		}
		f, err := x.Float64Value()
		if err != nil || !f.Valid {
			return ""
		}
		return strconv.FormatFloat(f.Float64, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}
