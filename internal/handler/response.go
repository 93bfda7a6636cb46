package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hamroengineering/hamro/internal/model"
	"github.com/hamroengineering/hamro/internal/service"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// statusBySentinel maps service sentinels to HTTP statuses
var statusBySentinel = []struct {
	err    error
	status int
}{
	{service.ErrInvalidCredentials, http.StatusUnauthorized},

	{service.ErrEmailNotVerified, http.StatusForbidden},
	{service.ErrAccountDisabled, http.StatusForbidden},
	{service.ErrSubscriptionRequired, http.StatusForbidden},
	{service.ErrAdminOnly, http.StatusForbidden},
	{service.ErrResourceAccessDenied, http.StatusForbidden},

	{service.ErrNoData, http.StatusNotFound},
	{service.ErrNoActivePlan, http.StatusNotFound},

	{service.ErrAttemptInProgress, http.StatusConflict},
	{service.ErrActiveSubscription, http.StatusConflict},
	{service.ErrAlreadyBookmarked, http.StatusConflict},
	{service.ErrEmailTaken, http.StatusConflict},
	{service.ErrDuplicate, http.StatusConflict},

	{service.ErrOTPRateLimited, http.StatusTooManyRequests},

	{service.ErrPasswordMismatch, http.StatusBadRequest},
	{service.ErrNewPasswordMismatch, http.StatusBadRequest},
	{service.ErrOldPasswordIncorrect, http.StatusBadRequest},
	{service.ErrEmailAlreadyVerified, http.StatusBadRequest},
	{service.ErrInvalidOTP, http.StatusBadRequest},
	{service.ErrSubscriptionClosed, http.StatusBadRequest},
	{service.ErrAttemptClosed, http.StatusBadRequest},
	{service.ErrQuestionNotInTest, http.StatusBadRequest},
	{service.ErrOptionMismatch, http.StatusBadRequest},
	{service.ErrCorrectOption, http.StatusBadRequest},
	{service.ErrRefundNotAllowed, http.StatusBadRequest},
	{service.ErrRefundAmount, http.StatusBadRequest},
	{service.ErrRefundPending, http.StatusBadRequest},
	{service.ErrInvalidTransition, http.StatusBadRequest},
	{service.ErrResourceSource, http.StatusBadRequest},
	{service.ErrNotDownloadable, http.StatusBadRequest},
	{service.ErrInvalidImportInput, http.StatusBadRequest},
}

// statusFor resolves the HTTP status for a service error
func statusFor(err error) int {
	var nf *service.NotFoundError
	if errors.As(err, &nf) {
		return http.StatusNotFound
	}
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest
	}
	for _, s := range statusBySentinel {
		if errors.Is(err, s.err) {
			return s.status
		}
	}
	return http.StatusInternalServerError
}

// respondError writes the error body for err. Unmapped errors are logged and
// reported without internal detail.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Msg("Unhandled service error")
		c.JSON(status, model.ErrorResponse{Error: "Internal server error"})
		return
	}

	var conflict *service.AttemptConflictError
	if errors.As(err, &conflict) {
		c.JSON(status, gin.H{
			"error":      service.ErrAttemptInProgress.Error(),
			"attempt_id": conflict.AttemptID,
		})
		return
	}

	c.JSON(status, model.ErrorResponse{Error: rootMessage(err)})
}

// rootMessage drops wrapping context so clients see the sentinel text
func rootMessage(err error) string {
	var nf *service.NotFoundError
	if errors.As(err, &nf) {
		return nf.Error()
	}
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		return verr.Error()
	}
	for _, s := range statusBySentinel {
		if errors.Is(err, s.err) {
			return s.err.Error()
		}
	}
	return err.Error()
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
}

// currentUserID returns the authenticated user's id set by the auth middleware
func currentUserID(c *gin.Context) uuid.UUID {
	return c.MustGet("user_id").(uuid.UUID)
}

// pathID parses a UUID path parameter, writing a 400 on failure
func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

// queryID parses an optional UUID query parameter
func queryID(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid " + name})
		return nil, false
	}
	return &id, true
}
