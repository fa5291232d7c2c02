package calls

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgxQuerier is the subset of pgxpool.Pool the repository needs, split out so
// tests can inject pgxmock.
type pgxQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresRepository stores calls in the relational database.
type PostgresRepository struct {
	db pgxQuerier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("calls: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

// NewPostgresRepositoryWithDB allows injecting a mock database for testing.
func NewPostgresRepositoryWithDB(db pgxQuerier) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new call row in pending status.
func (r *PostgresRepository) Create(ctx context.Context, patientID string) (*Call, error) {
	if patientID == "" {
		return nil, ErrMissingPatientID
	}

	id := uuid.New()
	query := `
		INSERT INTO calls (id, patient_id, status)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`
	var createdAt time.Time
	if err := r.db.QueryRow(ctx, query, id, patientID, StatusPending).Scan(&createdAt); err != nil {
		return nil, fmt.Errorf("calls: insert failed: %w", err)
	}

	return &Call{
		ID:        id.String(),
		PatientID: patientID,
		Status:    StatusPending,
		CreatedAt: createdAt,
	}, nil
}

// GetByID fetches a single call.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Call, error) {
	query := `
		SELECT id, patient_id, audio_url, transcript, sentiment_label, status, created_at
		FROM calls
		WHERE id = $1
	`
	var call Call
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&call.ID,
		&call.PatientID,
		&call.AudioURL,
		&call.Transcript,
		&call.SentimentLabel,
		&call.Status,
		&call.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCallNotFound
		}
		return nil, fmt.Errorf("calls: select failed: %w", err)
	}
	return &call, nil
}

// Update applies the non-nil fields of update and returns the updated row.
func (r *PostgresRepository) Update(ctx context.Context, id string, update Update) (*Call, error) {
	sets := make([]string, 0, 4)
	args := make([]any, 0, 5)
	argIdx := 1

	appendSet := func(column string, value *string) {
		if value == nil {
			return
		}
		sets = append(sets, fmt.Sprintf("%s = $%d", column, argIdx))
		args = append(args, *value)
		argIdx++
	}
	appendSet("status", update.Status)
	appendSet("audio_url", update.AudioURL)
	appendSet("transcript", update.Transcript)
	appendSet("sentiment_label", update.SentimentLabel)

	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}

	args = append(args, id)
	query := fmt.Sprintf(`
		UPDATE calls
		SET %s
		WHERE id = $%d
		RETURNING id, patient_id, audio_url, transcript, sentiment_label, status, created_at
	`, strings.Join(sets, ", "), argIdx)

	var call Call
	if err := r.db.QueryRow(ctx, query, args...).Scan(
		&call.ID,
		&call.PatientID,
		&call.AudioURL,
		&call.Transcript,
		&call.SentimentLabel,
		&call.Status,
		&call.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCallNotFound
		}
		return nil, fmt.Errorf("calls: update failed: %w", err)
	}
	return &call, nil
}

// List returns all calls, newest first.
func (r *PostgresRepository) List(ctx context.Context) ([]*Call, error) {
	query := `
		SELECT id, patient_id, audio_url, transcript, sentiment_label, status, created_at
		FROM calls
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("calls: list failed: %w", err)
	}
	defer rows.Close()

	out := make([]*Call, 0)
	for rows.Next() {
		var call Call
		if err := rows.Scan(
			&call.ID,
			&call.PatientID,
			&call.AudioURL,
			&call.Transcript,
			&call.SentimentLabel,
			&call.Status,
			&call.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("calls: scan failed: %w", err)
		}
		out = append(out, &call)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("calls: rows failed: %w", err)
	}
	return out, nil
}
