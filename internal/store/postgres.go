// Package store persists dataset entries in PostgreSQL.
package store

import (
	"context"
	_ "embed"
	"fmt"
	"math"
	"time"

	"github.com/JonMunkholm/snepalysis/internal/core"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

//go:embed schema.sql
var schemaSQL string

const entriesTable = "entries"

// copyColumns lists the columns written by InsertMany, in CopyFrom row order.
var copyColumns = []string{"id", "lat", "long", "country", "state"}

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// Entry is a stored record with its storage identity.
type Entry struct {
	ID        string
	Record    core.Record
	CreatedAt time.Time
}

// Postgres implements core.Store over an entries table.
type Postgres struct {
	db DBTX
}

var _ core.Store = (*Postgres)(nil)

// New returns a Postgres store using db.
func New(db DBTX) *Postgres {
	return &Postgres{db: db}
}

// EnsureSchema creates the entries table and its indexes if missing.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Find returns every stored record within scope.
func (p *Postgres) Find(ctx context.Context, scope core.Scope) ([]core.Record, error) {
	where, args := NewWhereBuilder().AddScope(scope).Build()
	query := fmt.Sprintf("SELECT lat, long, country, state FROM %s%s", quoteIdentifier(entriesTable), where)

	rows, err := p.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find entries: %w", err)
	}
	defer rows.Close()

	var out []core.Record
	for rows.Next() {
		var lat, long pgtype.Float8
		var r core.Record
		if err := rows.Scan(&lat, &long, &r.Country, &r.State); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		r.Latitude = float8OrNaN(lat)
		r.Longitude = float8OrNaN(long)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}

	return out, nil
}

// Count returns the number of stored records within scope.
func (p *Postgres) Count(ctx context.Context, scope core.Scope) (int64, error) {
	where, args := NewWhereBuilder().AddScope(scope).Build()
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s%s", quoteIdentifier(entriesTable), where)

	var n int64
	if err := p.db.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return n, nil
}

// InsertMany appends records in a single COPY and returns the number written.
func (p *Postgres) InsertMany(ctx context.Context, records []core.Record) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}

	src := pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
		r := records[i]
		return []any{
			pgtype.UUID{Bytes: uuid.New(), Valid: true},
			r.Latitude,
			r.Longitude,
			r.Country,
			r.State,
		}, nil
	})

	n, err := p.db.CopyFrom(ctx, pgx.Identifier{entriesTable}, copyColumns, src)
	if err != nil {
		return 0, fmt.Errorf("copy entries: %w", err)
	}
	return n, nil
}

// Page returns up to limit entries starting at offset, in insertion order.
func (p *Postgres) Page(ctx context.Context, offset, limit int) ([]Entry, error) {
	query := fmt.Sprintf(
		"SELECT id, lat, long, country, state, created_at FROM %s ORDER BY created_at, id LIMIT $1 OFFSET $2",
		quoteIdentifier(entriesTable),
	)

	rows, err := p.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("page entries: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var id pgtype.UUID
		var lat, long pgtype.Float8
		var e Entry
		if err := rows.Scan(&id, &lat, &long, &e.Record.Country, &e.Record.State, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		if id.Valid {
			e.ID = uuid.UUID(id.Bytes).String()
		}
		e.Record.Latitude = float8OrNaN(lat)
		e.Record.Longitude = float8OrNaN(long)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}

	return entries, nil
}

// float8OrNaN maps SQL NULL to NaN, matching how unparsable coordinates are
// represented in memory.
func float8OrNaN(f pgtype.Float8) float64 {
	if !f.Valid {
		return math.NaN()
	}
	return f.Float64
}
