package dto

import (
	"time"

	"github.com/yigit/feedbackhub/internal/app/models"
)

// CreateFeedbackQuestionRequest is the body of a question creation call. Course and session
// come from the path.
type CreateFeedbackQuestionRequest struct {
	QuestionText                     string   `json:"questionText" binding:"required,max=2000"`
	QuestionDescription              string   `json:"questionDescription" binding:"max=10000"`
	QuestionNumber                   int      `json:"questionNumber" binding:"required,min=1"`
	QuestionType                     string   `json:"questionType" binding:"required,feedback_question_type"`
	GiverType                        string   `json:"giverType" binding:"required,feedback_participant"`
	RecipientType                    string   `json:"recipientType" binding:"required,feedback_participant"`
	NumberOfEntitiesToGiveFeedbackTo int      `json:"numberOfEntitiesToGiveFeedbackTo" binding:"required,entity_count"`
	ShowResponsesTo                  []string `json:"showResponsesTo" binding:"omitempty,dive,feedback_participant"`
	ShowGiverNameTo                  []string `json:"showGiverNameTo" binding:"omitempty,dive,feedback_participant"`
	ShowRecipientNameTo              []string `json:"showRecipientNameTo" binding:"omitempty,dive,feedback_participant"`
}

// ToModel builds an unsaved question for the given course and session
func (r CreateFeedbackQuestionRequest) ToModel(courseID, sessionName string) *models.FeedbackQuestion {
	return models.NewFeedbackQuestion(
		sessionName, courseID,
		r.QuestionText, r.QuestionDescription,
		r.QuestionNumber,
		models.FeedbackQuestionType(r.QuestionType),
		models.FeedbackParticipantType(r.GiverType),
		models.FeedbackParticipantType(r.RecipientType),
		r.NumberOfEntitiesToGiveFeedbackTo,
		ParticipantTypes(r.ShowResponsesTo),
		ParticipantTypes(r.ShowGiverNameTo),
		ParticipantTypes(r.ShowRecipientNameTo),
	)
}

// UpdateFeedbackQuestionRequest is a partial update. Omitted fields keep their value; an
// empty list clears a visibility list.
type UpdateFeedbackQuestionRequest struct {
	QuestionText                     *string  `json:"questionText" binding:"omitempty,min=1,max=2000"`
	QuestionDescription              *string  `json:"questionDescription" binding:"omitempty,max=10000"`
	QuestionNumber                   *int     `json:"questionNumber" binding:"omitempty,min=1"`
	QuestionType                     *string  `json:"questionType" binding:"omitempty,feedback_question_type"`
	GiverType                        *string  `json:"giverType" binding:"omitempty,feedback_participant"`
	RecipientType                    *string  `json:"recipientType" binding:"omitempty,feedback_participant"`
	NumberOfEntitiesToGiveFeedbackTo *int     `json:"numberOfEntitiesToGiveFeedbackTo" binding:"omitempty,entity_count"`
	ShowResponsesTo                  []string `json:"showResponsesTo" binding:"omitempty,dive,feedback_participant"`
	ShowGiverNameTo                  []string `json:"showGiverNameTo" binding:"omitempty,dive,feedback_participant"`
	ShowRecipientNameTo              []string `json:"showRecipientNameTo" binding:"omitempty,dive,feedback_participant"`
}

// FeedbackQuestionResponse is the client view of a question
type FeedbackQuestionResponse struct {
	FeedbackQuestionID               string    `json:"feedbackQuestionId"`
	FeedbackSessionName              string    `json:"feedbackSessionName"`
	CourseID                         string    `json:"courseId"`
	QuestionText                     string    `json:"questionText"`
	QuestionDescription              string    `json:"questionDescription"`
	QuestionNumber                   int       `json:"questionNumber"`
	QuestionType                     string    `json:"questionType"`
	GiverType                        string    `json:"giverType"`
	RecipientType                    string    `json:"recipientType"`
	NumberOfEntitiesToGiveFeedbackTo int       `json:"numberOfEntitiesToGiveFeedbackTo"`
	ShowResponsesTo                  []string  `json:"showResponsesTo"`
	ShowGiverNameTo                  []string  `json:"showGiverNameTo"`
	ShowRecipientNameTo              []string  `json:"showRecipientNameTo"`
	CreatedAt                        time.Time `json:"createdAt"`
	UpdatedAt                        time.Time `json:"updatedAt"`
}

// NewFeedbackQuestionResponse maps q onto its response under externalID
func NewFeedbackQuestionResponse(q *models.FeedbackQuestion, externalID string) FeedbackQuestionResponse {
	return FeedbackQuestionResponse{
		FeedbackQuestionID:               externalID,
		FeedbackSessionName:              q.FeedbackSessionName(),
		CourseID:                         q.CourseID(),
		QuestionText:                     q.QuestionText(),
		QuestionDescription:              q.QuestionDescription(),
		QuestionNumber:                   q.QuestionNumber(),
		QuestionType:                     string(q.QuestionType()),
		GiverType:                        string(q.GiverType()),
		RecipientType:                    string(q.RecipientType()),
		NumberOfEntitiesToGiveFeedbackTo: q.NumberOfEntitiesToGiveFeedbackTo(),
		ShowResponsesTo:                  participantStrings(q.ShowResponsesTo()),
		ShowGiverNameTo:                  participantStrings(q.ShowGiverNameTo()),
		ShowRecipientNameTo:              participantStrings(q.ShowRecipientNameTo()),
		CreatedAt:                        q.CreatedAt(),
		UpdatedAt:                        q.UpdatedAt(),
	}
}

// ParticipantTypes converts wire values to participant types, keeping nil as nil
func ParticipantTypes(values []string) []models.FeedbackParticipantType {
	if values == nil {
		return nil
	}
	out := make([]models.FeedbackParticipantType, len(values))
	for i, v := range values {
		out[i] = models.FeedbackParticipantType(v)
	}
	return out
}

func participantStrings(list []models.FeedbackParticipantType) []string {
	out := make([]string, len(list))
	for i, p := range list {
		out[i] = string(p)
	}
	return out
}
