package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/feedbackhub/internal/app/models"
	"github.com/yigit/feedbackhub/internal/db"
	"github.com/yigit/feedbackhub/internal/pkg/apperrors"
	"github.com/yigit/feedbackhub/internal/pkg/dberrors"
	"github.com/yigit/feedbackhub/internal/pkg/keycodec"
	"github.com/yigit/feedbackhub/internal/pkg/logger"
)

const (
	feedbackQuestionsTable = "feedback_questions"

	constraintQuestionNumber = "feedback_questions_session_number_key"
	constraintExternalID     = "feedback_questions_external_id_key"
	constraintTimestamps     = "feedback_questions_timestamps_check"
)

// nextKeySQL reserves the key up front so the external id is written with the row
const nextKeySQL = `SELECT nextval(pg_get_serial_sequence('feedback_questions', 'id'))`

var feedbackQuestionColumns = []string{
	"id",
	"external_id",
	"feedback_session_name",
	"course_id",
	"question_text",
	"question_description",
	"question_number",
	"question_type",
	"giver_type",
	"recipient_type",
	"number_of_entities_to_give_feedback_to",
	"show_responses_to",
	"show_giver_name_to",
	"show_recipient_name_to",
	"created_at",
	"updated_at",
}

// FeedbackQuestionRepository persists feedback questions. It owns the internal key lifecycle:
// keys are generated on first save and never set by callers.
type FeedbackQuestionRepository struct {
	db      *db.PostgresDB
	encoder keycodec.Encoder
	sb      squirrel.StatementBuilderType
}

// NewFeedbackQuestionRepository creates a new FeedbackQuestionRepository
func NewFeedbackQuestionRepository(database *db.PostgresDB, encoder keycodec.Encoder) *FeedbackQuestionRepository {
	return &FeedbackQuestionRepository{
		db:      database,
		encoder: encoder,
		sb:      squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Save inserts the question if it has no key yet, otherwise updates it. updatedAt is refreshed
// on every call, after the caller's changes and before the write.
func (r *FeedbackQuestionRepository) Save(ctx context.Context, q *models.FeedbackQuestion) error {
	q.Touch()

	if !q.Key().IsAssigned() {
		return r.insert(ctx, q)
	}
	return r.update(ctx, q)
}

func (r *FeedbackQuestionRepository) insert(ctx context.Context, q *models.FeedbackQuestion) error {
	rec := q.Record()

	var (
		id         int64
		externalID string
	)
	err := r.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, nextKeySQL).Scan(&id); err != nil {
			return fmt.Errorf("failed to reserve feedback question key: %w", err)
		}

		var err error
		externalID, err = keycodec.DeriveExternalID(r.encoder, models.FeedbackQuestionKind, models.AssignedKey(id))
		if err != nil {
			return err
		}

		sql, args, err := r.sb.Insert(feedbackQuestionsTable).
			Columns(feedbackQuestionColumns...).
			Values(
				id,
				externalID,
				rec.FeedbackSessionName,
				rec.CourseID,
				rec.QuestionText,
				rec.QuestionDescription,
				rec.QuestionNumber,
				rec.QuestionType,
				rec.GiverType,
				rec.RecipientType,
				rec.NumberOfEntitiesToGiveFeedbackTo,
				rec.ShowResponsesTo,
				rec.ShowGiverNameTo,
				rec.ShowRecipientNameTo,
				rec.CreatedAt,
				rec.UpdatedAt,
			).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build insert feedback question query: %w", err)
		}
		_, err = tx.Exec(ctx, sql, args...)
		return err
	})
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, constraintQuestionNumber) {
			return apperrors.ErrFeedbackQuestionAlreadyExists
		}
		if dberrors.IsCheckConstraintError(err, constraintTimestamps) {
			return fmt.Errorf("%w: createdAt is after updatedAt", apperrors.ErrValidationFailed)
		}
		if dberrors.IsDuplicateConstraintError(err, constraintExternalID) {
			return fmt.Errorf("%w: external id collision for key %d", apperrors.ErrConflict, id)
		}
		logger.Error().Err(err).
			Str("courseId", rec.CourseID).
			Str("feedbackSessionName", rec.FeedbackSessionName).
			Msg("Error creating feedback question")
		return fmt.Errorf("error creating feedback question: %w", err)
	}

	// the key is handed to the record only once the row is durable
	if err := q.AssignKey(id); err != nil {
		return err
	}
	q.SetStoredID(externalID)
	return nil
}

func (r *FeedbackQuestionRepository) update(ctx context.Context, q *models.FeedbackQuestion) error {
	rec := q.Record()
	sql, args, err := r.sb.Update(feedbackQuestionsTable).
		SetMap(map[string]interface{}{
			"feedback_session_name":                  rec.FeedbackSessionName,
			"course_id":                              rec.CourseID,
			"question_text":                          rec.QuestionText,
			"question_description":                   rec.QuestionDescription,
			"question_number":                        rec.QuestionNumber,
			"question_type":                          rec.QuestionType,
			"giver_type":                             rec.GiverType,
			"recipient_type":                         rec.RecipientType,
			"number_of_entities_to_give_feedback_to": rec.NumberOfEntitiesToGiveFeedbackTo,
			"show_responses_to":                      rec.ShowResponsesTo,
			"show_giver_name_to":                     rec.ShowGiverNameTo,
			"show_recipient_name_to":                 rec.ShowRecipientNameTo,
			"updated_at":                             rec.UpdatedAt,
		}).
		Where(squirrel.Eq{"id": rec.ID}).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building update feedback question SQL")
		return fmt.Errorf("failed to build update feedback question query: %w", err)
	}

	cmdTag, err := r.db.Pool.Exec(ctx, sql, args...)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, constraintQuestionNumber) {
			return apperrors.ErrFeedbackQuestionAlreadyExists
		}
		if dberrors.IsCheckConstraintError(err, constraintTimestamps) {
			return fmt.Errorf("%w: createdAt is after updatedAt", apperrors.ErrValidationFailed)
		}
		logger.Error().Err(err).Int64("feedbackQuestionId", rec.ID).Msg("Error executing update feedback question query")
		return fmt.Errorf("error updating feedback question: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrFeedbackQuestionNotFound
	}
	return nil
}

// GetByKey retrieves a question by its internal key
func (r *FeedbackQuestionRepository) GetByKey(ctx context.Context, id int64) (*models.FeedbackQuestion, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

// GetByExternalID retrieves a question by the external id stored at creation
func (r *FeedbackQuestionRepository) GetByExternalID(ctx context.Context, externalID string) (*models.FeedbackQuestion, error) {
	return r.getOne(ctx, squirrel.Eq{"external_id": externalID})
}

func (r *FeedbackQuestionRepository) getOne(ctx context.Context, where squirrel.Eq) (*models.FeedbackQuestion, error) {
	sql, args, err := r.sb.Select(feedbackQuestionColumns...).
		From(feedbackQuestionsTable).
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building get feedback question SQL")
		return nil, fmt.Errorf("failed to build get feedback question query: %w", err)
	}

	q, err := scanFeedbackQuestion(r.db.Pool.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrFeedbackQuestionNotFound
		}
		logger.Error().Err(err).Interface("where", where).Msg("Error scanning feedback question row")
		return nil, fmt.Errorf("error getting feedback question: %w", err)
	}
	return q, nil
}

// ListBySession retrieves the questions of a session ordered by question number
func (r *FeedbackQuestionRepository) ListBySession(ctx context.Context, courseID, sessionName string) ([]*models.FeedbackQuestion, error) {
	return r.list(ctx, squirrel.Eq{"course_id": courseID, "feedback_session_name": sessionName})
}

// ListByCourse retrieves one page of a course's questions grouped by session
func (r *FeedbackQuestionRepository) ListByCourse(ctx context.Context, courseID string, offset uint64, limit int) ([]*models.FeedbackQuestion, error) {
	builder := r.sb.Select(feedbackQuestionColumns...).
		From(feedbackQuestionsTable).
		Where(squirrel.Eq{"course_id": courseID}).
		OrderBy("feedback_session_name ASC", "question_number ASC").
		Offset(offset)
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}
	return r.query(ctx, builder)
}

// CountByCourse counts the questions of a course
func (r *FeedbackQuestionRepository) CountByCourse(ctx context.Context, courseID string) (int64, error) {
	sql, args, err := r.sb.Select("COUNT(*)").
		From(feedbackQuestionsTable).
		Where(squirrel.Eq{"course_id": courseID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count feedback questions query: %w", err)
	}

	var total int64
	if err := r.db.Pool.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		logger.Error().Err(err).Str("courseId", courseID).Msg("Error counting feedback questions")
		return 0, fmt.Errorf("error counting feedback questions: %w", err)
	}
	return total, nil
}

func (r *FeedbackQuestionRepository) list(ctx context.Context, where squirrel.Eq) ([]*models.FeedbackQuestion, error) {
	return r.query(ctx, r.sb.Select(feedbackQuestionColumns...).
		From(feedbackQuestionsTable).
		Where(where).
		OrderBy("feedback_session_name ASC", "question_number ASC"))
}

func (r *FeedbackQuestionRepository) query(ctx context.Context, builder squirrel.SelectBuilder) ([]*models.FeedbackQuestion, error) {
	sql, args, err := builder.ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building list feedback questions SQL")
		return nil, fmt.Errorf("failed to build list feedback questions query: %w", err)
	}

	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list feedback questions query")
		return nil, fmt.Errorf("error querying feedback questions: %w", err)
	}
	defer rows.Close()

	questions := []*models.FeedbackQuestion{}
	for rows.Next() {
		q, err := scanFeedbackQuestion(rows)
		if err != nil {
			logger.Error().Err(err).Msg("Error scanning feedback question row during list")
			return nil, fmt.Errorf("error scanning feedback question row: %w", err)
		}
		questions = append(questions, q)
	}

	if err := rows.Err(); err != nil {
		logger.Error().Err(err).Msg("Error iterating feedback question rows")
		return nil, fmt.Errorf("error iterating feedback question rows: %w", err)
	}

	return questions, nil
}

// Delete removes a question by its internal key
func (r *FeedbackQuestionRepository) Delete(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Delete(feedbackQuestionsTable).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building delete feedback question SQL")
		return fmt.Errorf("failed to build delete feedback question query: %w", err)
	}

	cmdTag, err := r.db.Pool.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("feedbackQuestionId", id).Msg("Error executing delete feedback question query")
		return fmt.Errorf("error deleting feedback question: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrFeedbackQuestionNotFound
	}
	return nil
}

func scanFeedbackQuestion(row pgx.Row) (*models.FeedbackQuestion, error) {
	var rec models.FeedbackQuestionRecord
	err := row.Scan(
		&rec.ID,
		&rec.ExternalID,
		&rec.FeedbackSessionName,
		&rec.CourseID,
		&rec.QuestionText,
		&rec.QuestionDescription,
		&rec.QuestionNumber,
		&rec.QuestionType,
		&rec.GiverType,
		&rec.RecipientType,
		&rec.NumberOfEntitiesToGiveFeedbackTo,
		&rec.ShowResponsesTo,
		&rec.ShowGiverNameTo,
		&rec.ShowRecipientNameTo,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return models.RestoreFeedbackQuestion(rec), nil
}
