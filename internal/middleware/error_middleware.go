package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/yigit/feedbackhub/internal/app/models/dto"
	"github.com/yigit/feedbackhub/internal/pkg/apperrors"
	"github.com/yigit/feedbackhub/internal/pkg/logger"
)

// HandleAPIError maps service errors onto HTTP responses
func HandleAPIError(c *gin.Context, err error) {
	status, detail := classifyError(err)

	if status >= http.StatusInternalServerError {
		detail = detail.WithSeverity(dto.ErrorSeverityCritical)
		logger.Error().Err(err).
			Str("requestId", c.GetString(RequestIDKey)).
			Str("path", c.FullPath()).
			Msg("Request failed")
	}
	if status < http.StatusInternalServerError {
		detail = detail.WithSeverity(dto.ErrorSeverityWarning)
		if gin.Mode() != gin.ReleaseMode {
			detail = detail.WithDebugInfo("%v", err)
		}
	}

	c.AbortWithStatusJSON(status, dto.NewErrorResponse(detail))
}

func classifyError(err error) (int, *dto.ErrorDetail) {
	var custom *apperrors.CustomError
	if errors.As(err, &custom) && custom.Err != nil {
		status, detail := classifyError(custom.Err)
		if custom.Code != "" {
			detail.Code = dto.ErrorCode(custom.Code)
		}
		if custom.Message != "" {
			detail.Message = custom.Message
		}
		if custom.Details != nil {
			detail.Details = custom.Details
		} else if detail.Code == dto.ErrorCodeValidationFailed {
			detail.Details = custom.Error()
		}
		return status, detail
	}

	var pgErr *pgconn.PgError
	switch {
	case errors.Is(err, apperrors.ErrFeedbackQuestionNotFound):
		return http.StatusNotFound, dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, "Feedback question not found")
	case errors.Is(err, apperrors.ErrResourceNotFound):
		return http.StatusNotFound, dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, "Resource not found")
	case errors.Is(err, apperrors.ErrMalformedKey):
		return http.StatusNotFound, dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, "Feedback question not found")
	case errors.Is(err, apperrors.ErrFeedbackQuestionAlreadyExists):
		return http.StatusConflict, dto.NewErrorDetail(dto.ErrorCodeResourceAlreadyExists, "A question with this number already exists in the session")
	case errors.Is(err, apperrors.ErrResourceAlreadyExists):
		return http.StatusConflict, dto.NewErrorDetail(dto.ErrorCodeResourceAlreadyExists, "Resource already exists")
	case errors.Is(err, apperrors.ErrConflict):
		return http.StatusConflict, dto.NewErrorDetail(dto.ErrorCodeConflict, "Conflict")
	case errors.Is(err, apperrors.ErrInvalidState):
		return http.StatusConflict, dto.NewErrorDetail(dto.ErrorCodeResourceInvalid, "Resource is not in a valid state for this operation")
	case errors.Is(err, apperrors.ErrPermissionDenied):
		return http.StatusForbidden, dto.NewErrorDetail(dto.ErrorCodeForbidden, "Permission denied")
	case errors.Is(err, apperrors.ErrTokenExpired):
		return http.StatusUnauthorized, dto.NewErrorDetail(dto.ErrorCodeExpiredToken, "Token expired")
	case errors.Is(err, apperrors.ErrTokenInvalid):
		return http.StatusUnauthorized, dto.NewErrorDetail(dto.ErrorCodeInvalidToken, "Invalid token")
	case errors.Is(err, apperrors.ErrValidationFailed):
		// the service's reason travels in details, release mode included
		return http.StatusBadRequest, dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Validation failed").WithDetails(err.Error())
	case errors.Is(err, apperrors.ErrBadRequest), errors.Is(err, apperrors.ErrInvalidFormat):
		return http.StatusBadRequest, dto.NewErrorDetail(dto.ErrorCodeBadRequest, "Bad request")
	case errors.Is(err, apperrors.ErrEncodingFailure):
		return http.StatusInternalServerError, dto.NewErrorDetail(dto.ErrorCodeKeyEncoding, "Failed to derive feedback question id")
	case errors.As(err, &pgErr):
		return http.StatusInternalServerError, dto.NewErrorDetail(dto.ErrorCodeDatabaseError, "Database error")
	default:
		return http.StatusInternalServerError, dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error")
	}
}
