package apierrors

import "fmt"

// Client-side validation failures (no network call made).
const (
	ErrCodeNotSixDigits  = "CODE_NOT_SIX_DIGITS"
	ErrMissingCredential = "MISSING_CREDENTIAL"
)

// Remote call failures.
const (
	ErrLoginFailed      = "LOGIN_FAILED"
	ErrLogoutFailed     = "LOGOUT_FAILED"
	ErrRegisterFailed   = "REGISTER_FAILED"
	ErrMFASetupFailed   = "MFA_SETUP_FAILED"
	ErrMFAVerifyFailed  = "MFA_VERIFICATION_FAILED"
	ErrMFADisableFailed = "MFA_DISABLE_FAILED"
)

// APIError is a semantic failure reported by the remote API or produced at a
// call boundary. Status is the HTTP status (0 for transport failures that
// never produced a response); Code is a stable machine code; Message carries
// the server-provided error text when there is one.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s (%d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("%s (%d)", e.Code, e.Status)
}

func NewAPIError(status int, code string) *APIError {
	return &APIError{Status: status, Code: code}
}

func NewAPIErrorWithMessage(status int, code string, message string) *APIError {
	return &APIError{Status: status, Code: code, Message: message}
}
