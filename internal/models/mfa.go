package models

// MFASetupResponse is returned by the enrollment endpoints. Secret and QRURI
// are only present when a fresh enrollment was initiated.
type MFASetupResponse struct {
	User   *User  `json:"user,omitempty"`
	Secret string `json:"secret,omitempty"`
	QRURI  string `json:"qr_uri,omitempty"`
}

// MFAChallengeBody verifies a post-login challenge code. The remote API names
// the code field "token"; UserID carries the identifier returned by login.
type MFAChallengeBody struct {
	UserID string `json:"user_id" validate:"required"`
	Token  string `json:"token"   validate:"required,len=6,numeric"`
}

type MFAChallengeResponse struct {
	User *User `json:"user"`
}

// MFAEnableBody submits the enrollment secret together with a code generated
// from it to verify and enable MFA.
type MFAEnableBody struct {
	Secret string `json:"secret" validate:"required"`
	Code   string `json:"code"   validate:"required,len=6,numeric"`
}

type MFAEnableResponse struct {
	User *User `json:"user"`
}

type MFADisableResponse struct {
	User *User `json:"user"`
}
