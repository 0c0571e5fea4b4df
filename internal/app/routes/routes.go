package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/feedbackhub/internal/app/controllers"
	"github.com/yigit/feedbackhub/internal/app/models/dto"
	"github.com/yigit/feedbackhub/internal/app/models/dto/enums"
	"github.com/yigit/feedbackhub/internal/middleware"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	questionController *controllers.FeedbackQuestionController,
	authMiddleware *middleware.AuthMiddleware,
) {
	v1 := router.Group("/api/v1")

	// Health check endpoint (public)
	v1.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, dto.NewSuccessResponse(gin.H{"status": "ok"}))
	})

	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())

	instructorOnly := authMiddleware.RoleRequired(enums.RoleInstructor)

	authenticated.GET("/courses/:courseId/questions", questionController.ListCourseQuestions)

	sessionQuestions := authenticated.Group("/courses/:courseId/sessions/:sessionName/questions")
	{
		sessionQuestions.GET("", questionController.ListSessionQuestions)
		sessionQuestions.POST("", instructorOnly, questionController.CreateQuestion)
	}

	questions := authenticated.Group("/questions")
	{
		questions.GET("/:questionId", questionController.GetQuestion)
		questions.PUT("/:questionId", instructorOnly, questionController.UpdateQuestion)
		questions.DELETE("/:questionId", instructorOnly, questionController.DeleteQuestion)
	}
}
