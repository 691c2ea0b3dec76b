package models

type AuthLoginBody struct {
	Username string `json:"username" form:"username" validate:"required,max=150"`
	Password string `json:"password" form:"password" validate:"required,max=72"`
}

// AuthLoginResponse is the remote API's answer to a login attempt. When the
// account has MFA enabled the server sets RequiresMFA and UserID; the caller
// must complete a challenge before the session becomes authenticated.
type AuthLoginResponse struct {
	User        *User  `json:"user,omitempty"`
	Token       string `json:"token,omitempty"`
	RequiresMFA bool   `json:"requires_mfa"`
	UserID      string `json:"user_id,omitempty"`
	Message     string `json:"message,omitempty"`
}

type AuthRegisterBody struct {
	Username string `json:"username" form:"username" validate:"required,max=150"`
	Email    string `json:"email"    form:"email"    validate:"required,email,max=254"`
	Password string `json:"password" form:"password" validate:"required,min=8,max=72"`
}

type AuthLogoutBody struct {
	User *User `json:"user"`
}

// APIErrorBody is the error envelope the remote API uses for domain errors.
// Semantic failures ("MFA already enabled", "invalid code") are signalled
// through Error, not through the status code alone.
type APIErrorBody struct {
	Error string `json:"error"`
}
