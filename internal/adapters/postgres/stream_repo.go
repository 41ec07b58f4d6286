package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/streamgeo/internal/core/domain"
	"github.com/samirrijal/streamgeo/internal/pkg/streamio"
)

// StreamRepo implements ports.StreamRepository with pgx.
type StreamRepo struct {
	db *DB
}

// NewStreamRepo creates a new StreamRepo.
func NewStreamRepo(db *DB) *StreamRepo {
	return &StreamRepo{db: db}
}

const streamColumns = `id, name, points, n_points, distance, created_at`

// Create inserts rec, assigning an ID when it has none.
func (r *StreamRepo) Create(ctx context.Context, rec *domain.StreamRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	err := r.db.Pool.QueryRow(ctx, `
		INSERT INTO streams (id, name, points, n_points, distance)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, rec.ID, rec.Name, streamio.MarshalStream(rec.Points), len(rec.Points), rec.Distance,
	).Scan(&rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert stream: %w", err)
	}
	return nil
}

// GetByID returns a stream by UUID.
func (r *StreamRepo) GetByID(ctx context.Context, id string) (*domain.StreamRecord, error) {
	row := r.db.Pool.QueryRow(ctx, `SELECT `+streamColumns+` FROM streams WHERE id = $1`, id)
	rec, err := scanStream(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("stream %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// GetByIDs returns streams in the order of ids.
func (r *StreamRepo) GetByIDs(ctx context.Context, ids []string) ([]domain.StreamRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.db.Pool.Query(ctx, `SELECT `+streamColumns+` FROM streams WHERE id = ANY($1::uuid[])`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[string]domain.StreamRecord, len(ids))
	for rows.Next() {
		rec, err := scanStream(rows)
		if err != nil {
			return nil, err
		}
		byID[rec.ID] = *rec
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]domain.StreamRecord, 0, len(ids))
	for _, id := range ids {
		key := id
		if u, err := uuid.Parse(id); err == nil {
			key = u.String()
		}
		rec, ok := byID[key]
		if !ok {
			return nil, fmt.Errorf("stream %s: %w", id, domain.ErrNotFound)
		}
		out = append(out, rec)
	}
	return out, nil
}

// List returns a page of streams, newest first.
func (r *StreamRepo) List(ctx context.Context, offset, limit int) ([]domain.StreamRecord, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+streamColumns+` FROM streams
		ORDER BY created_at DESC, id
		OFFSET $1 LIMIT $2
	`, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.StreamRecord
	for rows.Next() {
		rec, err := scanStream(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// Count returns the number of stored streams.
func (r *StreamRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.Pool.QueryRow(ctx, `SELECT count(*) FROM streams`).Scan(&n)
	return n, err
}

func scanStream(row pgx.Row) (*domain.StreamRecord, error) {
	var (
		rec    domain.StreamRecord
		id     uuid.UUID
		points []byte
	)
	if err := row.Scan(&id, &rec.Name, &points, &rec.NPoints, &rec.Distance, &rec.CreatedAt); err != nil {
		return nil, err
	}
	stream, err := streamio.UnmarshalStream(points)
	if err != nil {
		return nil, fmt.Errorf("decode stream %s: %w", id, err)
	}
	rec.ID = id.String()
	rec.Points = stream
	return &rec, nil
}
