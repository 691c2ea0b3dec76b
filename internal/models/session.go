package models

// SessionState tags where a session sits in the authentication lifecycle.
// The pending state exists so that a login that still needs an MFA challenge
// can hold the provisionally issued user and token without ever reporting
// the session as authenticated.
type SessionState string

const (
	StateAnonymous     SessionState = "anonymous"
	StatePendingMFA    SessionState = "pending_mfa"
	StateAuthenticated SessionState = "authenticated"
)

// Session is the client's record of current identity, credential and
// authentication status. It is owned exclusively by the session store;
// consumers receive value copies.
type Session struct {
	State SessionState
	User  *User
	Token string

	// PendingUserID is the challenge identifier returned by login when MFA
	// is required. Only meaningful in StatePendingMFA; never persisted.
	PendingUserID string
}

// IsAuthenticated reports whether the session is fully authenticated.
// True only in StateAuthenticated, which in turn requires a user and token.
func (s Session) IsAuthenticated() bool {
	return s.State == StateAuthenticated
}

// Valid reports whether the session satisfies the core invariant:
// an authenticated session always carries both a user and a token.
func (s Session) Valid() bool {
	if s.State == StateAuthenticated {
		return s.User != nil && s.Token != ""
	}
	return true
}

// PersistedSession is the durable on-disk shape of a session. Field names
// match the record the browser build kept in local storage so the two
// clients stay interchangeable against the same account.
type PersistedSession struct {
	User          *User  `json:"user"`
	Token         string `json:"token"`
	Authenticated bool   `json:"isAuthenticated"`
}

// ToPersisted converts the session to its durable form. A pending-MFA
// session persists its provisional user and token with the authenticated
// flag off, mirroring the in-memory intermediate state.
func (s Session) ToPersisted() PersistedSession {
	return PersistedSession{
		User:          s.User,
		Token:         s.Token,
		Authenticated: s.State == StateAuthenticated,
	}
}

// FromPersisted rebuilds a session from its durable form. A record claiming
// authentication without a user and token violates the invariant and
// degrades to anonymous rather than restoring a broken session.
func FromPersisted(p PersistedSession) Session {
	switch {
	case p.Authenticated && p.User != nil && p.Token != "":
		return Session{State: StateAuthenticated, User: p.User, Token: p.Token}
	case !p.Authenticated && p.User != nil && p.Token != "":
		return Session{State: StatePendingMFA, User: p.User, Token: p.Token}
	default:
		return Session{State: StateAnonymous}
	}
}
