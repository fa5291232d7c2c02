package patients

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (pgxmock.PgxPoolIface, *PostgresRepository) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, NewPostgresRepositoryWithDB(mock)
}

func TestPostgresCreate(t *testing.T) {
	mock, repo := newMockRepo(t)
	now := time.Now().UTC()

	mock.ExpectQuery("INSERT INTO patients").
		WithArgs(pgxmock.AnyArg(), "Asha Rao", "9876543210", "knee pain", SeverityHigh, "2026-09-15").
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(now))

	patient, err := repo.Create(context.Background(), &CreatePatientRequest{
		Name:            "Asha Rao",
		Phone:           "9876543210",
		HealthIssue:     "knee pain",
		Severity:        SeverityHigh,
		AppointmentDate: "2026-09-15",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, patient.ID)
	assert.Equal(t, "Asha Rao", patient.Name)
	assert.Equal(t, now, patient.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCreate_ValidationShortCircuits(t *testing.T) {
	_, repo := newMockRepo(t)

	_, err := repo.Create(context.Background(), &CreatePatientRequest{
		Name: "Asha Rao",
		// missing everything else
	})
	assert.Error(t, err)
}

func TestPostgresGetByID_NotFound(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectQuery("SELECT id, name").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrPatientNotFound)
}

func TestPostgresList(t *testing.T) {
	mock, repo := newMockRepo(t)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT id, name, phone, health_issue, severity, appointment_date").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "phone", "health_issue", "severity", "appointment_date", "created_at"}).
			AddRow("p-1", "Asha Rao", "9876543210", "knee pain", SeverityHigh, "2026-09-15", now))

	out, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "2026-09-15", out[0].AppointmentDate)
}
