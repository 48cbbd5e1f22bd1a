package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/lumina/internal/audit/domain"
	bonusleveldomain "github.com/smallbiznis/lumina/internal/bonuslevel/domain"
	hierarchydomain "github.com/smallbiznis/lumina/internal/hierarchy/domain"
	memberdomain "github.com/smallbiznis/lumina/internal/member/domain"
	teampurchasedomain "github.com/smallbiznis/lumina/internal/teampurchase/domain"
	turnoverdomain "github.com/smallbiznis/lumina/internal/turnover/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	var vErr *ValidationErrors
	if errors.As(err, &vErr) {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	switch {
	case errors.Is(err, memberdomain.ErrNotFound),
		errors.Is(err, hierarchydomain.ErrMemberNotFound),
		errors.Is(err, bonusleveldomain.ErrNotFound),
		errors.Is(err, turnoverdomain.ErrNotFound),
		errors.Is(err, teampurchasedomain.ErrNotFound),
		errors.Is(err, auditdomain.ErrNoTurnoverRecord),
		errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: err.Error(),
		}

	case errors.Is(err, turnoverdomain.ErrAlreadyFinalized),
		errors.Is(err, turnoverdomain.ErrNotFinalized),
		errors.Is(err, turnoverdomain.ErrPeriodFinalized),
		errors.Is(err, teampurchasedomain.ErrAlreadyCalculated),
		errors.Is(err, teampurchasedomain.ErrNotCalculated),
		errors.Is(err, teampurchasedomain.ErrNotApproved),
		errors.Is(err, teampurchasedomain.ErrAlreadyApproved),
		errors.Is(err, teampurchasedomain.ErrAlreadyPaidOut),
		errors.Is(err, teampurchasedomain.ErrCalculationBusy),
		errors.Is(err, hierarchydomain.ErrCycleDetected):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}

	case errors.Is(err, bonusleveldomain.ErrInvalidRange),
		errors.Is(err, bonusleveldomain.ErrOverlappingLevels),
		errors.Is(err, bonusleveldomain.ErrOpenEndedNotLast),
		errors.Is(err, teampurchasedomain.ErrNoContributions),
		errors.Is(err, teampurchasedomain.ErrInvalidAmount):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "unprocessable",
			Message: err.Error(),
		}
	}

	return http.StatusInternalServerError, errorPayload{
		Type:    "internal_error",
		Message: "internal server error",
	}
}
