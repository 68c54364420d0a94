package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Session / Authentication ──────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrSessionExpired     ErrCode = "SESSION_EXPIRED"

	// ─── Configuration ─────────────────────────────────────────────────
	ErrMissingQuizID ErrCode = "CONFIGURATION_MISSING_QUIZ_ID"
	ErrInvalidQuizID ErrCode = "CONFIGURATION_INVALID_QUIZ_ID"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Fetch / Aggregation ───────────────────────────────────────────
	ErrFetchFailed      ErrCode = "FETCH_FAILED"
	ErrNoSubmissions    ErrCode = "NO_SUBMISSIONS"
	ErrMalformedRecords ErrCode = "MALFORMED_RECORDS_SKIPPED"
	ErrStaleSnapshot    ErrCode = "STALE_SNAPSHOT"
	ErrNoSnapshot       ErrCode = "NO_SNAPSHOT"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	case ErrInvalidCredentials:
		return "Moodle rejected the username or password."
	case ErrTokenRequired:
		return "A session token is required."
	case ErrTokenInvalid:
		return "The session token is invalid."
	case ErrSessionExpired:
		return "The dashboard session has expired. Sign in again."
	case ErrMissingQuizID:
		return "A quiz ID is required."
	case ErrInvalidQuizID:
		return "The quiz ID must be numeric."
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidPayload:
		return "The request payload is invalid."
	case ErrFetchFailed:
		return "Fetching quiz data from Moodle failed."
	case ErrNoSubmissions:
		return "The quiz has no submissions yet."
	case ErrMalformedRecords:
		return "Some malformed records were skipped."
	case ErrStaleSnapshot:
		return "Showing the last successful snapshot; the latest sync failed."
	case ErrNoSnapshot:
		return "No snapshot available yet. Run a sync first."
	case ErrNotFound:
		return "Resource not found."
	case ErrRateLimitExceeded:
		return "Too many requests. Slow down."
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "Unknown error."
	}
}
