package services

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yigit/feedbackhub/internal/app/models"
	"github.com/yigit/feedbackhub/internal/pkg/apperrors"
	"github.com/yigit/feedbackhub/internal/pkg/events"
	"github.com/yigit/feedbackhub/internal/pkg/keycodec"
)

const (
	testAppID = "s~test-app"
	// key 1 under testAppID
	idForKeyOne = "agpzfnRlc3QtYXBwchYLEhBGZWVkYmFja1F1ZXN0aW9uGAEM"
	// key 1 as issued before the encoder started writing the empty namespace
	legacyIDForKeyOne = "agpzfnRlc3QtYXBwchYLEhBGZWVkYmFja1F1ZXN0aW9uGAEMogEA"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Save(ctx context.Context, q *models.FeedbackQuestion) error {
	args := m.Called(ctx, q)
	return args.Error(0)
}

func (m *mockStore) GetByKey(ctx context.Context, id int64) (*models.FeedbackQuestion, error) {
	args := m.Called(ctx, id)
	q, _ := args.Get(0).(*models.FeedbackQuestion)
	return q, args.Error(1)
}

func (m *mockStore) GetByExternalID(ctx context.Context, externalID string) (*models.FeedbackQuestion, error) {
	args := m.Called(ctx, externalID)
	q, _ := args.Get(0).(*models.FeedbackQuestion)
	return q, args.Error(1)
}

func (m *mockStore) ListBySession(ctx context.Context, courseID, sessionName string) ([]*models.FeedbackQuestion, error) {
	args := m.Called(ctx, courseID, sessionName)
	qs, _ := args.Get(0).([]*models.FeedbackQuestion)
	return qs, args.Error(1)
}

func (m *mockStore) ListByCourse(ctx context.Context, courseID string, offset uint64, limit int) ([]*models.FeedbackQuestion, error) {
	args := m.Called(ctx, courseID, offset, limit)
	qs, _ := args.Get(0).([]*models.FeedbackQuestion)
	return qs, args.Error(1)
}

func (m *mockStore) CountByCourse(ctx context.Context, courseID string) (int64, error) {
	args := m.Called(ctx, courseID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStore) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, evt events.QuestionEvent) error {
	args := m.Called(ctx, evt)
	return args.Error(0)
}

func (m *mockPublisher) Close() error {
	return nil
}

func newTestService(store *mockStore, pub *mockPublisher) FeedbackQuestionService {
	codec := keycodec.NewLegacyURLSafeEncoder(testAppID, "")
	return NewFeedbackQuestionService(store, codec, pub, zerolog.New(io.Discard))
}

func validQuestion() *models.FeedbackQuestion {
	return models.NewFeedbackQuestion(
		"Mid-term Feedback", "CS1010",
		"What went well?", "",
		1, models.QuestionTypeText,
		models.ParticipantStudents, models.ParticipantSelf,
		1,
		[]models.FeedbackParticipantType{models.ParticipantInstructors, models.ParticipantReceiver},
		[]models.FeedbackParticipantType{models.ParticipantInstructors},
		nil,
	)
}

func persisted(t *testing.T, id int64) *models.FeedbackQuestion {
	t.Helper()
	q := validQuestion()
	require.NoError(t, q.AssignKey(id))
	return q
}

func assignOnSave(id int64) func(mock.Arguments) {
	return func(args mock.Arguments) {
		q := args.Get(1).(*models.FeedbackQuestion)
		if !q.Key().IsAssigned() {
			_ = q.AssignKey(id)
		}
	}
}

func TestCreateQuestion(t *testing.T) {
	store := new(mockStore)
	pub := new(mockPublisher)
	svc := newTestService(store, pub)

	q := validQuestion()
	store.On("Save", mock.Anything, q).Run(assignOnSave(1)).Return(nil)
	pub.On("Publish", mock.Anything, mock.MatchedBy(func(e events.QuestionEvent) bool {
		return e.Type == events.EventQuestionCreated && e.FeedbackQuestionID == idForKeyOne && e.CourseID == "CS1010"
	})).Return(nil)

	id, err := svc.CreateQuestion(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, idForKeyOne, id)

	store.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestCreateQuestionPublishFailureIsNotFatal(t *testing.T) {
	store := new(mockStore)
	pub := new(mockPublisher)
	svc := newTestService(store, pub)

	q := validQuestion()
	store.On("Save", mock.Anything, q).Run(assignOnSave(1)).Return(nil)
	pub.On("Publish", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	id, err := svc.CreateQuestion(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, idForKeyOne, id)
}

func TestCreateQuestionDuplicateNumber(t *testing.T) {
	store := new(mockStore)
	svc := newTestService(store, new(mockPublisher))

	q := validQuestion()
	store.On("Save", mock.Anything, q).Return(apperrors.ErrFeedbackQuestionAlreadyExists)

	_, err := svc.CreateQuestion(context.Background(), q)
	assert.ErrorIs(t, err, apperrors.ErrFeedbackQuestionAlreadyExists)
}

func TestCreateQuestionRejectsPersisted(t *testing.T) {
	store := new(mockStore)
	svc := newTestService(store, new(mockPublisher))

	_, err := svc.CreateQuestion(context.Background(), persisted(t, 3))
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
	store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCreateQuestionValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(q *models.FeedbackQuestion)
	}{
		{"empty text", func(q *models.FeedbackQuestion) { q.SetQuestionText("  ") }},
		{"zero number", func(q *models.FeedbackQuestion) { q.SetQuestionNumber(0) }},
		{"unknown type", func(q *models.FeedbackQuestion) { q.SetQuestionType("ESSAY") }},
		{"giver none", func(q *models.FeedbackQuestion) { q.SetGiverType(models.ParticipantNone) }},
		{"recipient giver", func(q *models.FeedbackQuestion) { q.SetRecipientType(models.ParticipantGiver) }},
		{"negative count", func(q *models.FeedbackQuestion) {
			q.SetRecipientType(models.ParticipantStudents)
			q.SetNumberOfEntitiesToGiveFeedbackTo(-3)
		}},
		{"self with many", func(q *models.FeedbackQuestion) { q.SetNumberOfEntitiesToGiveFeedbackTo(2) }},
		{"self with unlimited", func(q *models.FeedbackQuestion) {
			q.SetNumberOfEntitiesToGiveFeedbackTo(models.MaxPossibleRecipients)
		}},
		{"bad visibility", func(q *models.FeedbackQuestion) {
			q.SetShowGiverNameTo([]models.FeedbackParticipantType{models.ParticipantSelf})
		}},
		{"empty course", func(q *models.FeedbackQuestion) { q.SetCourseID("") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(mockStore)
			svc := newTestService(store, new(mockPublisher))

			q := validQuestion()
			tt.mutate(q)

			_, err := svc.CreateQuestion(context.Background(), q)
			assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
			store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		})
	}
}

func TestCreateQuestionAllowsUnlimitedRecipients(t *testing.T) {
	store := new(mockStore)
	pub := new(mockPublisher)
	svc := newTestService(store, pub)

	q := validQuestion()
	q.SetRecipientType(models.ParticipantOwnTeamMembers)
	q.SetNumberOfEntitiesToGiveFeedbackTo(models.MaxPossibleRecipients)

	store.On("Save", mock.Anything, q).Run(assignOnSave(2)).Return(nil)
	pub.On("Publish", mock.Anything, mock.Anything).Return(nil)

	_, err := svc.CreateQuestion(context.Background(), q)
	assert.NoError(t, err)
}

func TestGetQuestion(t *testing.T) {
	t.Run("stored external id", func(t *testing.T) {
		store := new(mockStore)
		svc := newTestService(store, new(mockPublisher))

		want := persisted(t, 1)
		store.On("GetByExternalID", mock.Anything, idForKeyOne).Return(want, nil)

		got, err := svc.GetQuestion(context.Background(), " "+idForKeyOne+" ")
		require.NoError(t, err)
		assert.Same(t, want, got)
		store.AssertNotCalled(t, "GetByKey", mock.Anything, mock.Anything)
	})

	t.Run("legacy id falls back to the decoded key", func(t *testing.T) {
		store := new(mockStore)
		svc := newTestService(store, new(mockPublisher))

		want := persisted(t, 1)
		store.On("GetByExternalID", mock.Anything, legacyIDForKeyOne).Return(nil, apperrors.ErrFeedbackQuestionNotFound)
		store.On("GetByKey", mock.Anything, int64(1)).Return(want, nil)

		got, err := svc.GetQuestion(context.Background(), legacyIDForKeyOne)
		require.NoError(t, err)
		assert.Same(t, want, got)
	})

	t.Run("undecodable id", func(t *testing.T) {
		store := new(mockStore)
		svc := newTestService(store, new(mockPublisher))

		store.On("GetByExternalID", mock.Anything, "nope!").Return(nil, apperrors.ErrFeedbackQuestionNotFound)

		_, err := svc.GetQuestion(context.Background(), "nope!")
		assert.ErrorIs(t, err, apperrors.ErrFeedbackQuestionNotFound)
	})

	t.Run("other kind", func(t *testing.T) {
		store := new(mockStore)
		svc := newTestService(store, new(mockPublisher))

		other, err := keycodec.NewLegacyURLSafeEncoder(testAppID, "").Encode("Course", 1)
		require.NoError(t, err)
		store.On("GetByExternalID", mock.Anything, other).Return(nil, apperrors.ErrFeedbackQuestionNotFound)

		_, err = svc.GetQuestion(context.Background(), other)
		assert.ErrorIs(t, err, apperrors.ErrFeedbackQuestionNotFound)
		store.AssertNotCalled(t, "GetByKey", mock.Anything, mock.Anything)
	})

	t.Run("empty id", func(t *testing.T) {
		svc := newTestService(new(mockStore), new(mockPublisher))
		_, err := svc.GetQuestion(context.Background(), "")
		assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
	})

	t.Run("storage failure", func(t *testing.T) {
		store := new(mockStore)
		svc := newTestService(store, new(mockPublisher))

		boom := errors.New("connection reset")
		store.On("GetByExternalID", mock.Anything, idForKeyOne).Return(nil, boom)

		_, err := svc.GetQuestion(context.Background(), idForKeyOne)
		assert.ErrorIs(t, err, boom)
	})
}

func TestListSessionQuestions(t *testing.T) {
	store := new(mockStore)
	svc := newTestService(store, new(mockPublisher))

	want := []*models.FeedbackQuestion{persisted(t, 1), persisted(t, 2)}
	store.On("ListBySession", mock.Anything, "CS1010", "Mid-term Feedback").Return(want, nil)

	got, err := svc.ListSessionQuestions(context.Background(), "CS1010", "Mid-term Feedback")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = svc.ListSessionQuestions(context.Background(), "CS1010", "")
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestListCourseQuestions(t *testing.T) {
	t.Run("second page", func(t *testing.T) {
		store := new(mockStore)
		svc := newTestService(store, new(mockPublisher))

		page := []*models.FeedbackQuestion{persisted(t, 3)}
		store.On("CountByCourse", mock.Anything, "CS1010").Return(int64(3), nil)
		store.On("ListByCourse", mock.Anything, "CS1010", uint64(2), 2).Return(page, nil)

		got, total, err := svc.ListCourseQuestions(context.Background(), "CS1010", 2, 2)
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Equal(t, page, got)
	})

	t.Run("past the end", func(t *testing.T) {
		store := new(mockStore)
		svc := newTestService(store, new(mockPublisher))

		store.On("CountByCourse", mock.Anything, "CS1010").Return(int64(3), nil)

		got, total, err := svc.ListCourseQuestions(context.Background(), "CS1010", 5, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Empty(t, got)
		store.AssertNotCalled(t, "ListByCourse", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing course", func(t *testing.T) {
		svc := newTestService(new(mockStore), new(mockPublisher))
		_, _, err := svc.ListCourseQuestions(context.Background(), " ", 1, 10)
		assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
	})
}

func TestUpdateQuestion(t *testing.T) {
	store := new(mockStore)
	pub := new(mockPublisher)
	svc := newTestService(store, pub)

	existing := persisted(t, 1)
	store.On("GetByExternalID", mock.Anything, idForKeyOne).Return(existing, nil)
	store.On("Save", mock.Anything, existing).Return(nil)
	pub.On("Publish", mock.Anything, mock.MatchedBy(func(e events.QuestionEvent) bool {
		return e.Type == events.EventQuestionUpdated && e.QuestionNumber == 4
	})).Return(nil)

	text := "What could be improved?"
	number := 4
	got, err := svc.UpdateQuestion(context.Background(), idForKeyOne, FeedbackQuestionUpdate{
		QuestionText:   &text,
		QuestionNumber: &number,
	})
	require.NoError(t, err)
	assert.Equal(t, text, got.QuestionText())
	assert.Equal(t, 4, got.QuestionNumber())
	assert.Equal(t, models.QuestionTypeText, got.QuestionType())

	pub.AssertExpectations(t)
}

func TestUpdateQuestionInvalidChange(t *testing.T) {
	store := new(mockStore)
	svc := newTestService(store, new(mockPublisher))

	store.On("GetByExternalID", mock.Anything, idForKeyOne).Return(persisted(t, 1), nil)

	count := 5
	_, err := svc.UpdateQuestion(context.Background(), idForKeyOne, FeedbackQuestionUpdate{
		NumberOfEntitiesToGiveFeedbackTo: &count,
	})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
	store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestDeleteQuestion(t *testing.T) {
	store := new(mockStore)
	pub := new(mockPublisher)
	svc := newTestService(store, pub)

	store.On("GetByExternalID", mock.Anything, idForKeyOne).Return(persisted(t, 1), nil)
	store.On("Delete", mock.Anything, int64(1)).Return(nil)
	pub.On("Publish", mock.Anything, mock.MatchedBy(func(e events.QuestionEvent) bool {
		return e.Type == events.EventQuestionDeleted && e.FeedbackQuestionID == idForKeyOne
	})).Return(nil)

	require.NoError(t, svc.DeleteQuestion(context.Background(), idForKeyOne))
	store.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestDeleteQuestionNotFound(t *testing.T) {
	store := new(mockStore)
	svc := newTestService(store, new(mockPublisher))

	store.On("GetByExternalID", mock.Anything, idForKeyOne).Return(persisted(t, 1), nil)
	store.On("Delete", mock.Anything, int64(1)).Return(apperrors.ErrFeedbackQuestionNotFound)

	err := svc.DeleteQuestion(context.Background(), idForKeyOne)
	assert.ErrorIs(t, err, apperrors.ErrFeedbackQuestionNotFound)
}

func TestExternalIDPrefersStoredID(t *testing.T) {
	svc := newTestService(new(mockStore), new(mockPublisher))

	q := persisted(t, 1)
	id, err := svc.ExternalID(q)
	require.NoError(t, err)
	assert.Equal(t, idForKeyOne, id)

	// ids issued under earlier datastore settings keep being served
	q.SetStoredID("agpzfm9sZC1hcHByFgsSEEZlZWRiYWNrUXVlc3Rpb24YAQw")
	id, err = svc.ExternalID(q)
	require.NoError(t, err)
	assert.Equal(t, "agpzfm9sZC1hcHByFgsSEEZlZWRiYWNrUXVlc3Rpb24YAQw", id)
}
