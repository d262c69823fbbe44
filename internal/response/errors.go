package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrTokenRequired ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid  ErrCode = "TOKEN_INVALID"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation ErrCode = "VALIDATION_ERROR"
	ErrInvalidID  ErrCode = "INVALID_ID"

	// ─── Attempt lifecycle ─────────────────────────────────────────────
	ErrExamUnavailable     ErrCode = "EXAM_UNAVAILABLE"
	ErrAttemptNotOpen      ErrCode = "ATTEMPT_NOT_OPEN"
	ErrAttemptNotStarted   ErrCode = "ATTEMPT_NOT_STARTED"
	ErrAttemptFinished     ErrCode = "ATTEMPT_FINISHED"
	ErrUnknownQuestion     ErrCode = "UNKNOWN_QUESTION"
	ErrFinishNotAllowed    ErrCode = "FINISH_NOT_ALLOWED"
	ErrSubmissionInFlight  ErrCode = "SUBMISSION_IN_FLIGHT"
	ErrSubmissionFailed    ErrCode = "SUBMISSION_FAILED"
	ErrSkipUnavailable     ErrCode = "SKIP_UNAVAILABLE"
	ErrResultNotFound      ErrCode = "RESULT_NOT_FOUND"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid."
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid identifier format."
	case ErrExamUnavailable:
		return "The exam definition could not be loaded."
	case ErrAttemptNotOpen:
		return "No open attempt exists for this exam."
	case ErrAttemptNotStarted:
		return "The attempt has not been started yet."
	case ErrAttemptFinished:
		return "The attempt has already been submitted."
	case ErrUnknownQuestion:
		return "The question does not belong to this exam."
	case ErrFinishNotAllowed:
		return "Finishing is not allowed in the current phase."
	case ErrSubmissionInFlight:
		return "A submission is already in progress."
	case ErrSubmissionFailed:
		return "Submission failed. Your progress is preserved, please retry."
	case ErrSkipUnavailable:
		return "Skipping parts is only available in listening attempts."
	case ErrResultNotFound:
		return "No finished attempt was found for this exam."
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
