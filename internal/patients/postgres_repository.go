package patients

import (
	"context"
	"errors"
	"fmt"
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

// PostgresRepository stores patients in the relational database.
type PostgresRepository struct {
	db pgxQuerier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("patients: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

// NewPostgresRepositoryWithDB allows injecting a mock database for testing.
func NewPostgresRepositoryWithDB(db pgxQuerier) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new patient row.
func (r *PostgresRepository) Create(ctx context.Context, req *CreatePatientRequest) (*Patient, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	id := uuid.New()
	query := `
		INSERT INTO patients (id, name, phone, health_issue, severity, appointment_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`
	var createdAt time.Time
	if err := r.db.QueryRow(ctx, query,
		id,
		req.Name,
		req.Phone,
		req.HealthIssue,
		req.Severity,
		req.AppointmentDate,
	).Scan(&createdAt); err != nil {
		return nil, fmt.Errorf("patients: insert failed: %w", err)
	}

	return &Patient{
		ID:              id.String(),
		Name:            req.Name,
		Phone:           req.Phone,
		HealthIssue:     req.HealthIssue,
		Severity:        req.Severity,
		AppointmentDate: req.AppointmentDate,
		CreatedAt:       createdAt,
	}, nil
}

// GetByID fetches a single patient.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Patient, error) {
	query := `
		SELECT id, name, phone, health_issue, severity, appointment_date::text, created_at
		FROM patients
		WHERE id = $1
	`
	var patient Patient
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&patient.ID,
		&patient.Name,
		&patient.Phone,
		&patient.HealthIssue,
		&patient.Severity,
		&patient.AppointmentDate,
		&patient.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("patients: select failed: %w", err)
	}
	return &patient, nil
}

// List returns all patients, newest first.
func (r *PostgresRepository) List(ctx context.Context) ([]*Patient, error) {
	query := `
		SELECT id, name, phone, health_issue, severity, appointment_date::text, created_at
		FROM patients
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("patients: list failed: %w", err)
	}
	defer rows.Close()

	out := make([]*Patient, 0)
	for rows.Next() {
		var patient Patient
		if err := rows.Scan(
			&patient.ID,
			&patient.Name,
			&patient.Phone,
			&patient.HealthIssue,
			&patient.Severity,
			&patient.AppointmentDate,
			&patient.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("patients: scan failed: %w", err)
		}
		out = append(out, &patient)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("patients: rows failed: %w", err)
	}
	return out, nil
}
