package httputil

// Machine-readable error codes returned alongside error messages.
// Clients match on these to drive UI state, so they are part of the API
// contract and must not be renamed.
const (
	CodeInvalidRequestBody = "INVALID_REQUEST_BODY"
	CodeInternalError      = "INTERNAL_ERROR"

	CodeEmailRequired      = "EMAIL_REQUIRED"
	CodePasswordRequired   = "PASSWORD_REQUIRED"
	CodePasswordTooShort   = "PASSWORD_TOO_SHORT"
	CodeInvalidEmailFormat = "INVALID_EMAIL_FORMAT"
	CodeUsernameRequired   = "USERNAME_REQUIRED"
	CodeEmailAlreadyExists = "EMAIL_ALREADY_EXISTS"

	CodeInvalidCredentials     = "INVALID_CREDENTIALS"
	CodeEmailNotVerified       = "EMAIL_NOT_VERIFIED"
	CodeAccountNotCompleted    = "ACCOUNT_NOT_COMPLETED"
	CodeNoPendingRegistration  = "NO_PENDING_REGISTRATION"
	CodeAllocationExhausted    = "ALLOCATION_EXHAUSTED"
	CodeRegistrationConflict   = "REGISTRATION_CONFLICT"
	CodeInvalidVerifyToken     = "INVALID_VERIFICATION_TOKEN"
	CodeVerifyTokenExpired     = "VERIFICATION_TOKEN_EXPIRED"
	CodeEmailAlreadyVerified   = "EMAIL_ALREADY_VERIFIED"

	CodeMissingAuth       = "MISSING_AUTH"
	CodeInvalidAuthHeader = "INVALID_AUTH_HEADER"
	CodeInvalidSession    = "INVALID_SESSION"
	CodeSessionExpired    = "SESSION_EXPIRED"
)
