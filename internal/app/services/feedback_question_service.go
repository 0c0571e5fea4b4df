package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/feedbackhub/internal/app/models"
	"github.com/yigit/feedbackhub/internal/pkg/apperrors"
	"github.com/yigit/feedbackhub/internal/pkg/events"
	"github.com/yigit/feedbackhub/internal/pkg/helpers"
	"github.com/yigit/feedbackhub/internal/pkg/keycodec"
)

// FeedbackQuestionStore is the storage the service needs. Save assigns the internal key on
// first persist and refreshes updatedAt on every call.
type FeedbackQuestionStore interface {
	Save(ctx context.Context, q *models.FeedbackQuestion) error
	GetByKey(ctx context.Context, id int64) (*models.FeedbackQuestion, error)
	GetByExternalID(ctx context.Context, externalID string) (*models.FeedbackQuestion, error)
	ListBySession(ctx context.Context, courseID, sessionName string) ([]*models.FeedbackQuestion, error)
	ListByCourse(ctx context.Context, courseID string, offset uint64, limit int) ([]*models.FeedbackQuestion, error)
	CountByCourse(ctx context.Context, courseID string) (int64, error)
	Delete(ctx context.Context, id int64) error
}

// FeedbackQuestionService defines the interface for feedback question operations
type FeedbackQuestionService interface {
	CreateQuestion(ctx context.Context, q *models.FeedbackQuestion) (string, error)
	GetQuestion(ctx context.Context, externalID string) (*models.FeedbackQuestion, error)
	ListSessionQuestions(ctx context.Context, courseID, sessionName string) ([]*models.FeedbackQuestion, error)
	ListCourseQuestions(ctx context.Context, courseID string, page, size int) ([]*models.FeedbackQuestion, int64, error)
	UpdateQuestion(ctx context.Context, externalID string, update FeedbackQuestionUpdate) (*models.FeedbackQuestion, error)
	DeleteQuestion(ctx context.Context, externalID string) error
	ExternalID(q *models.FeedbackQuestion) (string, error)
}

// FeedbackQuestionUpdate carries the fields to change; nil fields are left as they are.
type FeedbackQuestionUpdate struct {
	QuestionText                     *string
	QuestionDescription              *string
	QuestionNumber                   *int
	QuestionType                     *models.FeedbackQuestionType
	GiverType                        *models.FeedbackParticipantType
	RecipientType                    *models.FeedbackParticipantType
	NumberOfEntitiesToGiveFeedbackTo *int
	ShowResponsesTo                  *[]models.FeedbackParticipantType
	ShowGiverNameTo                  *[]models.FeedbackParticipantType
	ShowRecipientNameTo              *[]models.FeedbackParticipantType
}

// Apply copies the set fields onto q
func (u FeedbackQuestionUpdate) Apply(q *models.FeedbackQuestion) {
	if u.QuestionText != nil {
		q.SetQuestionText(*u.QuestionText)
	}
	if u.QuestionDescription != nil {
		q.SetQuestionDescription(*u.QuestionDescription)
	}
	if u.QuestionNumber != nil {
		q.SetQuestionNumber(*u.QuestionNumber)
	}
	if u.QuestionType != nil {
		q.SetQuestionType(*u.QuestionType)
	}
	if u.GiverType != nil {
		q.SetGiverType(*u.GiverType)
	}
	if u.RecipientType != nil {
		q.SetRecipientType(*u.RecipientType)
	}
	if u.NumberOfEntitiesToGiveFeedbackTo != nil {
		q.SetNumberOfEntitiesToGiveFeedbackTo(*u.NumberOfEntitiesToGiveFeedbackTo)
	}
	if u.ShowResponsesTo != nil {
		q.SetShowResponsesTo(*u.ShowResponsesTo)
	}
	if u.ShowGiverNameTo != nil {
		q.SetShowGiverNameTo(*u.ShowGiverNameTo)
	}
	if u.ShowRecipientNameTo != nil {
		q.SetShowRecipientNameTo(*u.ShowRecipientNameTo)
	}
}

// feedbackQuestionServiceImpl implements the FeedbackQuestionService interface
type feedbackQuestionServiceImpl struct {
	store     FeedbackQuestionStore
	codec     keycodec.Codec
	publisher events.Publisher
	logger    zerolog.Logger
}

// NewFeedbackQuestionService creates a new feedback question service instance
func NewFeedbackQuestionService(store FeedbackQuestionStore, codec keycodec.Codec, publisher events.Publisher, lgr zerolog.Logger) FeedbackQuestionService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &feedbackQuestionServiceImpl{
		store:     store,
		codec:     codec,
		publisher: publisher,
		logger:    lgr,
	}
}

// validateFeedbackQuestion checks the consistency rules the record itself does not enforce
func (s *feedbackQuestionServiceImpl) validateFeedbackQuestion(q *models.FeedbackQuestion) error {
	if q == nil {
		return fmt.Errorf("%w: feedback question is nil", apperrors.ErrValidationFailed)
	}
	if strings.TrimSpace(q.CourseID()) == "" {
		return fmt.Errorf("%w: course id cannot be empty", apperrors.ErrValidationFailed)
	}
	if strings.TrimSpace(q.FeedbackSessionName()) == "" {
		return fmt.Errorf("%w: feedback session name cannot be empty", apperrors.ErrValidationFailed)
	}
	if strings.TrimSpace(q.QuestionText()) == "" {
		return fmt.Errorf("%w: question text cannot be empty", apperrors.ErrValidationFailed)
	}
	if q.QuestionNumber() < 1 {
		return fmt.Errorf("%w: question number must be at least 1", apperrors.ErrValidationFailed)
	}
	if !q.QuestionType().IsValid() {
		return fmt.Errorf("%w: unknown question type %q", apperrors.ErrValidationFailed, q.QuestionType())
	}
	if !q.GiverType().IsValidGiver() {
		return fmt.Errorf("%w: %q is not a valid giver type", apperrors.ErrValidationFailed, q.GiverType())
	}
	if !q.RecipientType().IsValidRecipient() {
		return fmt.Errorf("%w: %q is not a valid recipient type", apperrors.ErrValidationFailed, q.RecipientType())
	}

	n := q.NumberOfEntitiesToGiveFeedbackTo()
	if n != models.MaxPossibleRecipients && n < 1 {
		return fmt.Errorf("%w: number of entities to give feedback to must be positive", apperrors.ErrValidationFailed)
	}
	if q.RecipientType().IsSingleTarget() && n != 1 {
		return fmt.Errorf("%w: recipient type %s allows exactly one recipient", apperrors.ErrValidationFailed, q.RecipientType())
	}

	lists := map[string][]models.FeedbackParticipantType{
		"showResponsesTo":     q.ShowResponsesTo(),
		"showGiverNameTo":     q.ShowGiverNameTo(),
		"showRecipientNameTo": q.ShowRecipientNameTo(),
	}
	for name, list := range lists {
		for _, p := range list {
			if !p.IsValidVisibility() {
				return fmt.Errorf("%w: %s contains invalid participant type %q", apperrors.ErrValidationFailed, name, p)
			}
		}
	}

	return nil
}

// CreateQuestion persists a new question and returns its external id
func (s *feedbackQuestionServiceImpl) CreateQuestion(ctx context.Context, q *models.FeedbackQuestion) (string, error) {
	if err := s.validateFeedbackQuestion(q); err != nil {
		return "", err
	}
	if q.Key().IsAssigned() {
		return "", fmt.Errorf("%w: question already persisted", apperrors.ErrInvalidState)
	}

	if err := s.store.Save(ctx, q); err != nil {
		if errors.Is(err, apperrors.ErrFeedbackQuestionAlreadyExists) {
			return "", apperrors.ErrFeedbackQuestionAlreadyExists
		}
		return "", fmt.Errorf("error creating feedback question: %w", err)
	}

	externalID, err := s.ExternalID(q)
	if err != nil {
		return "", err
	}

	s.publish(ctx, events.EventQuestionCreated, externalID, q)
	return externalID, nil
}

// GetQuestion resolves an external id. Ids issued before the encoder migration that are not
// stored on the row are decoded back to the internal key.
func (s *feedbackQuestionServiceImpl) GetQuestion(ctx context.Context, externalID string) (*models.FeedbackQuestion, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, fmt.Errorf("%w: feedback question id is required", apperrors.ErrValidationFailed)
	}

	q, err := s.store.GetByExternalID(ctx, externalID)
	if err == nil {
		return q, nil
	}
	if !errors.Is(err, apperrors.ErrFeedbackQuestionNotFound) {
		return nil, fmt.Errorf("error retrieving feedback question: %w", err)
	}

	key, decodeErr := s.codec.Decode(externalID)
	if decodeErr != nil || key.Kind != models.FeedbackQuestionKind {
		return nil, apperrors.ErrFeedbackQuestionNotFound
	}

	q, err = s.store.GetByKey(ctx, key.ID)
	if err != nil {
		if errors.Is(err, apperrors.ErrFeedbackQuestionNotFound) {
			return nil, apperrors.ErrFeedbackQuestionNotFound
		}
		return nil, fmt.Errorf("error retrieving feedback question: %w", err)
	}

	s.logger.Debug().Str("feedbackQuestionId", externalID).Msg("Resolved feedback question through decoded legacy id")
	return q, nil
}

// ListSessionQuestions lists the questions of a session in question number order
func (s *feedbackQuestionServiceImpl) ListSessionQuestions(ctx context.Context, courseID, sessionName string) ([]*models.FeedbackQuestion, error) {
	if strings.TrimSpace(courseID) == "" || strings.TrimSpace(sessionName) == "" {
		return nil, fmt.Errorf("%w: course id and session name are required", apperrors.ErrValidationFailed)
	}

	questions, err := s.store.ListBySession(ctx, courseID, sessionName)
	if err != nil {
		return nil, fmt.Errorf("error retrieving feedback questions: %w", err)
	}
	return questions, nil
}

// ListCourseQuestions returns one page of a course's questions and the course total
func (s *feedbackQuestionServiceImpl) ListCourseQuestions(ctx context.Context, courseID string, page, size int) ([]*models.FeedbackQuestion, int64, error) {
	if strings.TrimSpace(courseID) == "" {
		return nil, 0, fmt.Errorf("%w: course id is required", apperrors.ErrValidationFailed)
	}

	total, err := s.store.CountByCourse(ctx, courseID)
	if err != nil {
		return nil, 0, fmt.Errorf("error counting feedback questions: %w", err)
	}

	offset, limit := helpers.CalculateOffsetLimit(page, size)
	if total == 0 || offset >= uint64(total) {
		return []*models.FeedbackQuestion{}, total, nil
	}

	questions, err := s.store.ListByCourse(ctx, courseID, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("error retrieving feedback questions: %w", err)
	}
	return questions, total, nil
}

// UpdateQuestion applies update to the stored question and saves it
func (s *feedbackQuestionServiceImpl) UpdateQuestion(ctx context.Context, externalID string, update FeedbackQuestionUpdate) (*models.FeedbackQuestion, error) {
	q, err := s.GetQuestion(ctx, externalID)
	if err != nil {
		return nil, err
	}

	update.Apply(q)
	if err := s.validateFeedbackQuestion(q); err != nil {
		return nil, err
	}

	if err := s.store.Save(ctx, q); err != nil {
		if apperrors.Is(err, apperrors.ErrFeedbackQuestionNotFound, apperrors.ErrFeedbackQuestionAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("error updating feedback question: %w", err)
	}

	if id, err := s.ExternalID(q); err == nil {
		s.publish(ctx, events.EventQuestionUpdated, id, q)
	}
	return q, nil
}

// DeleteQuestion deletes the question identified by externalID
func (s *feedbackQuestionServiceImpl) DeleteQuestion(ctx context.Context, externalID string) error {
	q, err := s.GetQuestion(ctx, externalID)
	if err != nil {
		return err
	}

	id, _ := q.Key().Value()
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, apperrors.ErrFeedbackQuestionNotFound) {
			return apperrors.ErrFeedbackQuestionNotFound
		}
		return fmt.Errorf("error deleting feedback question: %w", err)
	}

	if externalID, err := s.ExternalID(q); err == nil {
		s.publish(ctx, events.EventQuestionDeleted, externalID, q)
	}
	return nil
}

// ExternalID returns the id under which q is exposed to clients, preferring the stored one
func (s *feedbackQuestionServiceImpl) ExternalID(q *models.FeedbackQuestion) (string, error) {
	// the stored id stays valid when the datastore settings change later
	if id, ok := q.StoredID(); ok {
		return id, nil
	}
	return q.ID(s.codec)
}

func (s *feedbackQuestionServiceImpl) publish(ctx context.Context, eventType events.EventType, externalID string, q *models.FeedbackQuestion) {
	err := s.publisher.Publish(ctx, events.QuestionEvent{
		Type:                eventType,
		FeedbackQuestionID:  externalID,
		CourseID:            q.CourseID(),
		FeedbackSessionName: q.FeedbackSessionName(),
		QuestionNumber:      q.QuestionNumber(),
		OccurredAt:          time.Now(),
	})
	if err != nil {
		s.logger.Warn().Err(err).
			Str("event", string(eventType)).
			Str("feedbackQuestionId", externalID).
			Msg("Failed to publish feedback question event")
	}
}
