package calls

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

	mock.ExpectQuery("INSERT INTO calls").
		WithArgs(pgxmock.AnyArg(), "patient-1", StatusPending).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(now))

	call, err := repo.Create(context.Background(), "patient-1")
	require.NoError(t, err)
	assert.NotEmpty(t, call.ID)
	assert.Equal(t, "patient-1", call.PatientID)
	assert.Equal(t, StatusPending, call.Status)
	assert.Equal(t, now, call.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCreate_RequiresPatient(t *testing.T) {
	_, repo := newMockRepo(t)
	_, err := repo.Create(context.Background(), "")
	assert.ErrorIs(t, err, ErrMissingPatientID)
}

func TestPostgresGetByID(t *testing.T) {
	mock, repo := newMockRepo(t)
	now := time.Now().UTC()
	audio := "https://api.twilio.com/rec/RE1"

	mock.ExpectQuery("SELECT id, patient_id, audio_url, transcript, sentiment_label, status, created_at").
		WithArgs("call-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "patient_id", "audio_url", "transcript", "sentiment_label", "status", "created_at"}).
			AddRow("call-1", "patient-1", &audio, (*string)(nil), (*string)(nil), StatusCompleted, now))

	call, err := repo.GetByID(context.Background(), "call-1")
	require.NoError(t, err)
	assert.Equal(t, "call-1", call.ID)
	require.NotNil(t, call.AudioURL)
	assert.Equal(t, audio, *call.AudioURL)
	assert.Nil(t, call.Transcript)
	assert.Equal(t, StatusCompleted, call.Status)
}

func TestPostgresGetByID_NotFound(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectQuery("SELECT id, patient_id").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrCallNotFound)
}

func TestPostgresUpdate_PartialFields(t *testing.T) {
	mock, repo := newMockRepo(t)
	now := time.Now().UTC()

	mock.ExpectQuery("UPDATE calls").
		WithArgs(StatusCompleted, "https://rec", "call-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "patient_id", "audio_url", "transcript", "sentiment_label", "status", "created_at"}).
			AddRow("call-1", "patient-1", String("https://rec"), (*string)(nil), (*string)(nil), StatusCompleted, now))

	call, err := repo.Update(context.Background(), "call-1", Update{
		Status:   String(StatusCompleted),
		AudioURL: String("https://rec"),
	})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, call.Status)
	require.NotNil(t, call.AudioURL)
	assert.Equal(t, "https://rec", *call.AudioURL)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdate_NoFieldsFallsBackToGet(t *testing.T) {
	mock, repo := newMockRepo(t)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT id, patient_id").
		WithArgs("call-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "patient_id", "audio_url", "transcript", "sentiment_label", "status", "created_at"}).
			AddRow("call-1", "patient-1", (*string)(nil), (*string)(nil), (*string)(nil), StatusPending, now))

	call, err := repo.Update(context.Background(), "call-1", Update{})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, call.Status)
}

func TestPostgresList(t *testing.T) {
	mock, repo := newMockRepo(t)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT id, patient_id, audio_url, transcript, sentiment_label, status, created_at").
		WillReturnRows(pgxmock.NewRows([]string{"id", "patient_id", "audio_url", "transcript", "sentiment_label", "status", "created_at"}).
			AddRow("call-2", "patient-1", (*string)(nil), (*string)(nil), (*string)(nil), StatusPending, now).
			AddRow("call-1", "patient-1", (*string)(nil), (*string)(nil), (*string)(nil), StatusCompleted, now.Add(-time.Hour)))

	out, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "call-2", out[0].ID)
	assert.Equal(t, "call-1", out[1].ID)
}
