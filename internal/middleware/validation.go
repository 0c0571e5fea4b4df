package middleware

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/yigit/feedbackhub/internal/app/models"
	"github.com/yigit/feedbackhub/internal/app/models/dto"
)

var registerOnce sync.Once

// RegisterValidators adds the feedback specific tags to gin's validator. Safe to call more
// than once.
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
			return
		}

		rules := map[string]validator.Func{
			"feedback_question_type": func(fl validator.FieldLevel) bool {
				return models.FeedbackQuestionType(fl.Field().String()).IsValid()
			},
			"feedback_participant": func(fl validator.FieldLevel) bool {
				return models.FeedbackParticipantType(fl.Field().String()).IsValid()
			},
			"entity_count": func(fl validator.FieldLevel) bool {
				n := fl.Field().Int()
				return n >= 1 || n == models.MaxPossibleRecipients
			},
		}
		for tag, fn := range rules {
			if err = v.RegisterValidation(tag, fn); err != nil {
				return
			}
		}
	})
	return err
}

// BindJSON binds the request body into obj and answers 400 on failure. It returns false when
// the request has already been aborted.
func BindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
		return false
	}
	return true
}
