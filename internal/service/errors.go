package service

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Sentinel errors returned by services. Their text is safe to show to clients.
var (
	ErrPasswordMismatch     = errors.New("Passwords don't match")
	ErrNewPasswordMismatch  = errors.New("New passwords don't match")
	ErrOldPasswordIncorrect = errors.New("Old password is incorrect")
	ErrInvalidCredentials   = errors.New("Invalid email or password")
	ErrEmailNotVerified     = errors.New("Please verify your email first")
	ErrEmailAlreadyVerified = errors.New("Email already verified")
	ErrAccountDisabled      = errors.New("Account is disabled")
	ErrEmailTaken           = errors.New("email already registered")
	ErrInvalidOTP           = errors.New("Invalid or expired OTP")
	ErrOTPRateLimited       = errors.New("Too many OTP requests. Please try again later")

	ErrAdminOnly            = errors.New("Admin access required")
	ErrSubscriptionRequired = errors.New("An active subscription is required")
	ErrResourceAccessDenied = errors.New("Your plan does not include resource downloads")
	ErrActiveSubscription   = errors.New("You already have an active subscription")
	ErrSubscriptionClosed   = errors.New("Subscription is not active")
	ErrNoActivePlan         = errors.New("No active subscription plan is available")

	ErrAttemptInProgress = errors.New("You already have an attempt in progress for this test")
	ErrAttemptClosed     = errors.New("This attempt is already completed")
	ErrQuestionNotInTest = errors.New("Question is not part of this test")
	ErrOptionMismatch    = errors.New("Selected option does not belong to this question")
	ErrCorrectOption     = errors.New("MCQ questions need exactly one correct option")
	ErrAlreadyBookmarked = errors.New("Question already bookmarked")
	ErrDuplicate         = errors.New("A record with these values already exists")

	ErrRefundNotAllowed   = errors.New("Only completed transactions can be refunded")
	ErrRefundAmount       = errors.New("Refund amount must not exceed the transaction amount")
	ErrRefundPending      = errors.New("A refund is already pending for this transaction")
	ErrInvalidTransition  = errors.New("Invalid status transition")
	ErrResourceSource     = errors.New("Provide either a file or a link")
	ErrNotDownloadable    = errors.New("This resource has no file to download")
	ErrNoData             = errors.New("No data")
	ErrInvalidImportInput = errors.New("No questions found in the import text")
)

// NotFoundError reports a missing (or hidden) record
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}

func notFound(resource string) error {
	return &NotFoundError{Resource: resource}
}

// lookupErr turns a repository miss into a NotFoundError and wraps anything else
func lookupErr(err error, resource string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(resource)
	}
	return errors.Wrapf(err, "find %s", strings.ToLower(resource))
}

// AttemptConflictError carries the attempt that blocks a new start
type AttemptConflictError struct {
	AttemptID uuid.UUID
}

func (e *AttemptConflictError) Error() string {
	return fmt.Sprintf("%s (attempt %s)", ErrAttemptInProgress.Error(), e.AttemptID)
}

func (e *AttemptConflictError) Unwrap() error {
	return ErrAttemptInProgress
}

// ValidationError is a business-rule failure on otherwise well-formed input
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}
