package seed

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	appModels "github.com/yigit/feedbackhub/internal/app/models"
	appServices "github.com/yigit/feedbackhub/internal/app/services"
	"github.com/yigit/feedbackhub/internal/pkg/apperrors"
)

const (
	DemoCourseID    = "DEMO101"
	DemoSessionName = "Mid-term Feedback"
)

// DemoQuestions returns the questions created for the demo course session.
func DemoQuestions() []*appModels.FeedbackQuestion {
	instructors := []appModels.FeedbackParticipantType{appModels.ParticipantInstructors}
	return []*appModels.FeedbackQuestion{
		appModels.NewFeedbackQuestion(
			DemoSessionName, DemoCourseID,
			"What did you like most about the course so far?", "",
			1, appModels.QuestionTypeText,
			appModels.ParticipantStudents, appModels.ParticipantSelf,
			1,
			instructors, instructors, instructors,
		),
		appModels.NewFeedbackQuestion(
			DemoSessionName, DemoCourseID,
			"Rate the contribution of each team member", "Consider effort and communication.",
			2, appModels.QuestionTypeRubric,
			appModels.ParticipantStudents, appModels.ParticipantOwnTeamMembers,
			appModels.MaxPossibleRecipients,
			[]appModels.FeedbackParticipantType{appModels.ParticipantInstructors, appModels.ParticipantReceiver},
			instructors, nil,
		),
		appModels.NewFeedbackQuestion(
			DemoSessionName, DemoCourseID,
			"How is your team working together?", "",
			3, appModels.QuestionTypeMCQ,
			appModels.ParticipantStudents, appModels.ParticipantOwnTeam,
			1,
			instructors, nil, nil,
		),
	}
}

// CreateDemoQuestions creates the demo questions if they don't exist.
// Questions that already exist are skipped; other errors are collected and returned together.
func CreateDemoQuestions(ctx context.Context, svc appServices.FeedbackQuestionService, lgr zerolog.Logger) error {
	lgr.Info().Str("courseId", DemoCourseID).Str("session", DemoSessionName).Msg("Checking/Creating demo feedback questions...")

	var finalErr error
	for _, q := range DemoQuestions() {
		externalID, err := svc.CreateQuestion(ctx, q)
		switch {
		case errors.Is(err, apperrors.ErrFeedbackQuestionAlreadyExists):
			lgr.Debug().Int("questionNumber", q.QuestionNumber()).Msg("Demo question already exists, skipping")
		case err != nil:
			lgr.Error().Err(err).Int("questionNumber", q.QuestionNumber()).Msg("Error creating demo question")
			finalErr = errors.Join(finalErr, err)
		default:
			lgr.Info().Int("questionNumber", q.QuestionNumber()).Str("feedbackQuestionId", externalID).Msg("Demo question created")
		}
	}

	lgr.Info().Msg("Demo feedback question check/creation finished.")
	return finalErr
}
