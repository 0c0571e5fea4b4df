package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/feedbackhub/internal/app/models"
	"github.com/yigit/feedbackhub/internal/db"
	"github.com/yigit/feedbackhub/internal/pkg/apperrors"
	"github.com/yigit/feedbackhub/internal/pkg/keycodec"
)

// key 42 under s~test-app
const idForKey42 = "agpzfnRlc3QtYXBwchYLEhBGZWVkYmFja1F1ZXN0aW9uGCoM"

// notBefore matches a time.Time argument that is not earlier than the given instant
type notBefore time.Time

func (n notBefore) Match(v interface{}) bool {
	t, ok := v.(time.Time)
	return ok && !t.Before(time.Time(n))
}

func newTestRepository(t *testing.T) (*FeedbackQuestionRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	pool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	repo := NewFeedbackQuestionRepository(db.NewPostgresDBFromPool(pool), keycodec.NewLegacyURLSafeEncoder("s~test-app", ""))
	return repo, pool
}

func newQuestion() *models.FeedbackQuestion {
	return models.NewFeedbackQuestion(
		"Final", "CS2103",
		"Rate your team", "",
		2, models.QuestionTypeRubric,
		models.ParticipantStudents, models.ParticipantOwnTeamMembers,
		models.MaxPossibleRecipients,
		[]models.FeedbackParticipantType{models.ParticipantInstructors}, nil, nil,
	)
}

func anyArgs(n int) []interface{} {
	args := make([]interface{}, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func expectInsert(pool pgxmock.PgxPoolIface, id int64, externalID string, since time.Time) *pgxmock.ExpectedExec {
	pool.ExpectBegin()
	pool.ExpectQuery("SELECT nextval").
		WillReturnRows(pgxmock.NewRows([]string{"nextval"}).AddRow(id))

	// id, external_id, 12 data columns, created_at, updated_at
	args := append([]interface{}{id, externalID}, anyArgs(12)...)
	args = append(args, pgxmock.AnyArg(), notBefore(since))
	return pool.ExpectExec("INSERT INTO feedback_questions").WithArgs(args...)
}

func TestSaveInsertAssignsKeyAfterCommit(t *testing.T) {
	repo, pool := newTestRepository(t)
	q := newQuestion()
	start := time.Now()

	expectInsert(pool, 42, idForKey42, start).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	pool.ExpectCommit()

	require.NoError(t, repo.Save(context.Background(), q))

	id, ok := q.Key().Value()
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)

	stored, ok := q.StoredID()
	assert.True(t, ok)
	assert.Equal(t, idForKey42, stored)
	assert.False(t, q.UpdatedAt().Before(start))
	assert.NoError(t, pool.ExpectationsWereMet())
}

func TestSaveInsertFailureLeavesKeyUnassigned(t *testing.T) {
	testCases := []struct {
		name    string
		dbErr   error
		wantErr error
	}{
		{
			name:    "duplicate question number",
			dbErr:   &pgconn.PgError{Code: "23505", ConstraintName: constraintQuestionNumber},
			wantErr: apperrors.ErrFeedbackQuestionAlreadyExists,
		},
		{
			name:    "timestamps check",
			dbErr:   &pgconn.PgError{Code: "23514", ConstraintName: constraintTimestamps},
			wantErr: apperrors.ErrValidationFailed,
		},
		{
			name:    "external id collision",
			dbErr:   &pgconn.PgError{Code: "23505", ConstraintName: constraintExternalID},
			wantErr: apperrors.ErrConflict,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			repo, pool := newTestRepository(t)
			q := newQuestion()

			expectInsert(pool, 42, idForKey42, time.Time{}).WillReturnError(tc.dbErr)
			pool.ExpectRollback()

			err := repo.Save(context.Background(), q)
			assert.ErrorIs(t, err, tc.wantErr)
			assert.False(t, q.Key().IsAssigned())
			_, ok := q.StoredID()
			assert.False(t, ok)
			assert.NoError(t, pool.ExpectationsWereMet())
		})
	}
}

func TestSaveInsertMapsConstraintWhenRollbackFails(t *testing.T) {
	repo, pool := newTestRepository(t)
	q := newQuestion()

	expectInsert(pool, 42, idForKey42, time.Time{}).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: constraintQuestionNumber})
	pool.ExpectRollback().WillReturnError(errors.New("conn closed"))

	err := repo.Save(context.Background(), q)
	assert.ErrorIs(t, err, apperrors.ErrFeedbackQuestionAlreadyExists)
	assert.False(t, q.Key().IsAssigned())
}

func TestSaveUpdateRefreshesUpdatedAt(t *testing.T) {
	repo, pool := newTestRepository(t)

	old := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	q := models.RestoreFeedbackQuestion(models.FeedbackQuestionRecord{
		ID:                  7,
		ExternalID:          "stored",
		FeedbackSessionName: "Final",
		CourseID:            "CS2103",
		QuestionText:        "Rate your team",
		QuestionNumber:      2,
		QuestionType:        "RUBRIC",
		GiverType:           "STUDENTS",
		RecipientType:       "OWN_TEAM_MEMBERS",
		CreatedAt:           old,
		UpdatedAt:           old,
	})
	q.SetQuestionText("Rate each team member")
	start := time.Now()

	// SetMap sorts columns: 12 data columns, then updated_at, then the id in the WHERE clause
	args := append(anyArgs(12), notBefore(start), int64(7))
	pool.ExpectExec("UPDATE feedback_questions").WithArgs(args...).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.Save(context.Background(), q))
	assert.False(t, q.UpdatedAt().Before(start))
	assert.Equal(t, old, q.CreatedAt())
	assert.NoError(t, pool.ExpectationsWereMet())
}

func TestSaveUpdateMissingRow(t *testing.T) {
	repo, pool := newTestRepository(t)
	q := newQuestion()
	require.NoError(t, q.AssignKey(9))

	pool.ExpectExec("UPDATE feedback_questions").WithArgs(anyArgs(14)...).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	assert.ErrorIs(t, repo.Save(context.Background(), q), apperrors.ErrFeedbackQuestionNotFound)
}

func TestSaveUpdateDuplicateNumber(t *testing.T) {
	repo, pool := newTestRepository(t)
	q := newQuestion()
	require.NoError(t, q.AssignKey(9))

	pool.ExpectExec("UPDATE feedback_questions").WithArgs(anyArgs(14)...).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: constraintQuestionNumber})

	assert.ErrorIs(t, repo.Save(context.Background(), q), apperrors.ErrFeedbackQuestionAlreadyExists)
}

func TestGetByExternalIDReadsStoredID(t *testing.T) {
	repo, pool := newTestRepository(t)
	created := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	rows := pgxmock.NewRows(feedbackQuestionColumns).AddRow(
		int64(42), "issued-under-old-settings",
		"Final", "CS2103",
		"Rate your team", "",
		2, "RUBRIC",
		"STUDENTS", "OWN_TEAM_MEMBERS",
		-100,
		[]string{"INSTRUCTORS"}, []string{}, []string{},
		created, created,
	)
	pool.ExpectQuery("SELECT (.+) FROM feedback_questions WHERE external_id").
		WithArgs("issued-under-old-settings").
		WillReturnRows(rows)

	q, err := repo.GetByExternalID(context.Background(), "issued-under-old-settings")
	require.NoError(t, err)

	id, _ := q.Key().Value()
	assert.Equal(t, int64(42), id)
	stored, ok := q.StoredID()
	assert.True(t, ok)
	assert.Equal(t, "issued-under-old-settings", stored)
	assert.Equal(t, []models.FeedbackParticipantType{models.ParticipantInstructors}, q.ShowResponsesTo())
	assert.Equal(t, created, q.UpdatedAt())
}

func TestGetByKeyNotFound(t *testing.T) {
	repo, pool := newTestRepository(t)

	pool.ExpectQuery("SELECT (.+) FROM feedback_questions WHERE id").
		WithArgs(int64(5)).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByKey(context.Background(), 5)
	assert.ErrorIs(t, err, apperrors.ErrFeedbackQuestionNotFound)
}

func TestCountByCourse(t *testing.T) {
	repo, pool := newTestRepository(t)

	pool.ExpectQuery("SELECT COUNT").
		WithArgs("CS2103").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(3)))

	total, err := repo.CountByCourse(context.Background(), "CS2103")
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
}

func TestDeleteNotFound(t *testing.T) {
	repo, pool := newTestRepository(t)

	pool.ExpectExec("DELETE FROM feedback_questions").
		WithArgs(int64(9)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), 9), apperrors.ErrFeedbackQuestionNotFound)
}
