package inquiry

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/kailas-cloud/inquirydesk/internal/db/postgres"
	"github.com/kailas-cloud/inquirydesk/internal/domain"
	dominq "github.com/kailas-cloud/inquirydesk/internal/domain/inquiry"
)

var recordColumns = []string{"id", "user_message", "ai_category", "ai_reply", "urgency", "created_at", "updated_at"}

// PostgresRepo stores inquiries in the inquiries table.
type PostgresRepo struct {
	db postgres.DB
}

// NewPostgres creates a Postgres-backed inquiry repository.
func NewPostgres(db postgres.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

// Create inserts the record and returns it with the database-assigned ID.
func (r *PostgresRepo) Create(ctx context.Context, inq dominq.Inquiry) (dominq.Inquiry, error) {
	rec := toRecord(&inq)
	query, args, err := squirrel.Insert(postgres.InquiriesTable).
		Columns("user_message", "ai_category", "ai_reply", "urgency", "created_at").
		Values(rec.UserMessage, rec.Category, rec.Reply, rec.Urgency, rec.CreatedAt).
		Suffix("RETURNING id").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return dominq.Inquiry{}, fmt.Errorf("building insert query: %w", err)
	}

	var id int64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return dominq.Inquiry{}, fmt.Errorf("insert inquiry: %w", err)
	}
	return inq.WithID(id), nil
}

// Get loads one inquiry.
func (r *PostgresRepo) Get(ctx context.Context, id int64) (dominq.Inquiry, error) {
	query, args, err := squirrel.Select(recordColumns...).
		From(postgres.InquiriesTable).
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return dominq.Inquiry{}, fmt.Errorf("building select query: %w", err)
	}

	var rec record
	if err := pgxscan.Get(ctx, r.db, &rec, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return dominq.Inquiry{}, domain.ErrNotFound
		}
		return dominq.Inquiry{}, fmt.Errorf("scanning inquiry %d: %w", id, err)
	}
	return rec.toDomain(), nil
}

// List returns inquiries newest first.
func (r *PostgresRepo) List(ctx context.Context, skip, limit int) ([]dominq.Inquiry, error) {
	query, args, err := squirrel.Select(recordColumns...).
		From(postgres.InquiriesTable).
		OrderBy("created_at DESC", "id DESC").
		Offset(uint64(skip)).
		Limit(uint64(limit)).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}

	var recs []record
	if err := pgxscan.Select(ctx, r.db, &recs, query, args...); err != nil {
		return nil, fmt.Errorf("scanning inquiries: %w", err)
	}

	out := make([]dominq.Inquiry, len(recs))
	for i := range recs {
		out[i] = recs[i].toDomain()
	}
	return out, nil
}

// Delete removes one inquiry.
func (r *PostgresRepo) Delete(ctx context.Context, id int64) error {
	query, args, err := squirrel.Delete(postgres.InquiriesTable).
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("building delete query: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete inquiry %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteAll removes every inquiry and returns how many were deleted.
func (r *PostgresRepo) DeleteAll(ctx context.Context) (int, error) {
	tag, err := r.db.Exec(ctx, "DELETE FROM "+postgres.InquiriesTable)
	if err != nil {
		return 0, fmt.Errorf("delete inquiries: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
