package models

// User is the identity record returned by the remote authentication API.
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	Username    string `json:"username"`
	MFAEnabled  bool   `json:"mfa_enabled"`
	RequiresMFA bool   `json:"requires_mfa,omitempty"`
}

// Merge returns a copy of u with every non-zero field of in applied on top.
// Boolean fields are always taken from in, since false is a meaningful value
// for MFA flags (disabling MFA must be able to clear them).
func (u User) Merge(in User) User {
	out := u
	if in.ID != "" {
		out.ID = in.ID
	}
	if in.Email != "" {
		out.Email = in.Email
	}
	if in.Name != "" {
		out.Name = in.Name
	}
	if in.Username != "" {
		out.Username = in.Username
	}
	out.MFAEnabled = in.MFAEnabled
	out.RequiresMFA = in.RequiresMFA
	return out
}
