package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrTokenRequired ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid  ErrCode = "TOKEN_INVALID"
	ErrTokenRevoked  ErrCode = "TOKEN_REVOKED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden ErrCode = "FORBIDDEN"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation       ErrCode = "VALIDATION_ERROR"
	ErrInvalidParameter ErrCode = "INVALID_PARAMETER"
	ErrInvalidPayload   ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound            ErrCode = "NOT_FOUND"
	ErrClassNotFound       ErrCode = "CLASS_NOT_FOUND"
	ErrSubjectNotFound     ErrCode = "SUBJECT_NOT_FOUND"
	ErrQuestionSetNotFound ErrCode = "QUESTION_SET_NOT_FOUND"
	ErrResultNotFound      ErrCode = "RESULT_NOT_FOUND"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrPersistence  ErrCode = "PERSISTENCE_ERROR"
	ErrUpstreamData ErrCode = "UPSTREAM_DATA_ERROR"
	ErrInternal     ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrTokenRequired:
		return "Authentication token is required."
	case ErrTokenInvalid:
		return "Authentication token is invalid or expired."
	case ErrTokenRevoked:
		return "You have been signed out. Please sign in again."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have permission to access this resource."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Check the fields for details."
	case ErrInvalidParameter:
		return "A path or query parameter is malformed."
	case ErrInvalidPayload:
		return "Request body is malformed."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "The requested resource was not found."
	case ErrClassNotFound:
		return "Class not found."
	case ErrSubjectNotFound:
		return "Subject not found."
	case ErrQuestionSetNotFound:
		return "No questions exist for this subject, semester and set."
	case ErrResultNotFound:
		return "Test result not found."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please slow down."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrPersistence:
		return "Your answers could not be saved. Please try submitting again."
	case ErrUpstreamData:
		return "The question bank returned inconsistent data."
	case ErrInternal:
		return "An internal server error occurred."

	default:
		return "An unknown error occurred."
	}
}
