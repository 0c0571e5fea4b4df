package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/feedbackhub/internal/app/models"
	"github.com/yigit/feedbackhub/internal/app/models/dto"
	"github.com/yigit/feedbackhub/internal/app/services"
	"github.com/yigit/feedbackhub/internal/middleware"
	"github.com/yigit/feedbackhub/internal/pkg/helpers"
)

// FeedbackQuestionController handles feedback question endpoints
type FeedbackQuestionController struct {
	questionService services.FeedbackQuestionService
}

// NewFeedbackQuestionController creates a new FeedbackQuestionController
func NewFeedbackQuestionController(questionService services.FeedbackQuestionService) *FeedbackQuestionController {
	return &FeedbackQuestionController{
		questionService: questionService,
	}
}

// CreateQuestion handles POST /courses/:courseId/sessions/:sessionName/questions
func (c *FeedbackQuestionController) CreateQuestion(ctx *gin.Context) {
	var req dto.CreateFeedbackQuestionRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	q := req.ToModel(ctx.Param("courseId"), ctx.Param("sessionName"))
	externalID, err := c.questionService.CreateQuestion(ctx.Request.Context(), q)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.Header("Location", "/api/v1/questions/"+externalID)
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(dto.NewFeedbackQuestionResponse(q, externalID)))
}

// ListSessionQuestions handles GET /courses/:courseId/sessions/:sessionName/questions
func (c *FeedbackQuestionController) ListSessionQuestions(ctx *gin.Context) {
	questions, err := c.questionService.ListSessionQuestions(ctx.Request.Context(), ctx.Param("courseId"), ctx.Param("sessionName"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	items, err := c.toResponses(questions)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.ListResponse{
		Items: items,
		Total: len(items),
	}))
}

// ListCourseQuestions handles GET /courses/:courseId/questions?page=&size=
func (c *FeedbackQuestionController) ListCourseQuestions(ctx *gin.Context) {
	page, size := helpers.ParsePaginationParams(ctx)

	questions, total, err := c.questionService.ListCourseQuestions(ctx.Request.Context(), ctx.Param("courseId"), page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	items, err := c.toResponses(questions)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.PaginatedResponse{
		Items:      items,
		Pagination: helpers.NewPaginationInfo(total, page, size),
	}))
}

// GetQuestion handles GET /questions/:questionId
func (c *FeedbackQuestionController) GetQuestion(ctx *gin.Context) {
	q, err := c.questionService.GetQuestion(ctx.Request.Context(), ctx.Param("questionId"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	c.respondWithQuestion(ctx, http.StatusOK, q)
}

// UpdateQuestion handles PUT /questions/:questionId
func (c *FeedbackQuestionController) UpdateQuestion(ctx *gin.Context) {
	var req dto.UpdateFeedbackQuestionRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	q, err := c.questionService.UpdateQuestion(ctx.Request.Context(), ctx.Param("questionId"), toServiceUpdate(req))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	c.respondWithQuestion(ctx, http.StatusOK, q)
}

// DeleteQuestion handles DELETE /questions/:questionId
func (c *FeedbackQuestionController) DeleteQuestion(ctx *gin.Context) {
	if err := c.questionService.DeleteQuestion(ctx.Request.Context(), ctx.Param("questionId")); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.SuccessResponse{
		Message: "Feedback question deleted",
	}))
}

func (c *FeedbackQuestionController) respondWithQuestion(ctx *gin.Context, status int, q *models.FeedbackQuestion) {
	externalID, err := c.questionService.ExternalID(q)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(status, dto.NewSuccessResponse(dto.NewFeedbackQuestionResponse(q, externalID)))
}

func (c *FeedbackQuestionController) toResponses(questions []*models.FeedbackQuestion) ([]dto.FeedbackQuestionResponse, error) {
	items := make([]dto.FeedbackQuestionResponse, 0, len(questions))
	for _, q := range questions {
		externalID, err := c.questionService.ExternalID(q)
		if err != nil {
			return nil, err
		}
		items = append(items, dto.NewFeedbackQuestionResponse(q, externalID))
	}
	return items, nil
}

func toServiceUpdate(req dto.UpdateFeedbackQuestionRequest) services.FeedbackQuestionUpdate {
	update := services.FeedbackQuestionUpdate{
		QuestionText:                     req.QuestionText,
		QuestionDescription:              req.QuestionDescription,
		QuestionNumber:                   req.QuestionNumber,
		NumberOfEntitiesToGiveFeedbackTo: req.NumberOfEntitiesToGiveFeedbackTo,
	}
	if req.QuestionType != nil {
		t := models.FeedbackQuestionType(*req.QuestionType)
		update.QuestionType = &t
	}
	if req.GiverType != nil {
		p := models.FeedbackParticipantType(*req.GiverType)
		update.GiverType = &p
	}
	if req.RecipientType != nil {
		p := models.FeedbackParticipantType(*req.RecipientType)
		update.RecipientType = &p
	}
	if req.ShowResponsesTo != nil {
		list := dto.ParticipantTypes(req.ShowResponsesTo)
		update.ShowResponsesTo = &list
	}
	if req.ShowGiverNameTo != nil {
		list := dto.ParticipantTypes(req.ShowGiverNameTo)
		update.ShowGiverNameTo = &list
	}
	if req.ShowRecipientNameTo != nil {
		list := dto.ParticipantTypes(req.ShowRecipientNameTo)
		update.ShowRecipientNameTo = &list
	}
	return update
}
