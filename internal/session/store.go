package session

import (
	"context"
	"sync"

	"authweb/internal/models"
	"authweb/internal/remote"

	"go.uber.org/zap"
)

// Store owns the process-wide session. All mutations go through its
// operations; consumers only ever see value copies. The mutex serializes
// writers, and it is never held across a remote call, so the session stays
// readable (and shows no half-written state) while a request is in flight.
type Store struct {
	api       remote.IAuthAPI
	persister IPersister
	logger    *zap.Logger

	mu      sync.Mutex
	session models.Session
}

func NewStore(api remote.IAuthAPI, persister IPersister, logger *zap.Logger) *Store {
	s := &Store{
		api:       api,
		persister: persister,
		logger:    logger,
		session:   models.Session{State: models.StateAnonymous},
	}
	s.restore()
	return s
}

// restore rebuilds the session from the persisted record. Token staleness is
// the server's responsibility; a record that violates the authentication
// invariant degrades to anonymous.
func (s *Store) restore() {
	record, ok, err := s.persister.Load()
	if err != nil {
		s.logger.Warn("Failed to load persisted session, starting anonymous", zap.Error(err))
		return
	}
	if !ok {
		return
	}

	s.session = models.FromPersisted(record)
	s.logger.Info("Session restored",
		zap.String("state", string(s.session.State)))
}

// Current returns a copy of the session.
func (s *Store) Current() models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// Login authenticates against the remote API. When the server signals that
// an MFA challenge is still required, the provisional user and token are
// stored but the session stays unauthenticated until the challenge passes.
// On any remote failure the session is left untouched and nil is returned;
// user-facing messaging is the caller's concern.
func (s *Store) Login(ctx context.Context, username string, password string) *models.AuthLoginResponse {
	resp, err := s.api.Login(ctx, models.AuthLoginBody{Username: username, Password: password})
	if err != nil {
		s.logger.Warn("Login failed", zap.String("username", username), zap.Error(err))
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if resp.RequiresMFA {
		s.session = models.Session{
			State:         models.StatePendingMFA,
			User:          resp.User,
			Token:         resp.Token,
			PendingUserID: resp.UserID,
		}
	} else {
		s.session = models.Session{
			State: models.StateAuthenticated,
			User:  resp.User,
			Token: resp.Token,
		}
	}
	s.persist()

	s.logger.Info("Login succeeded",
		zap.String("username", username),
		zap.Bool("requires_mfa", resp.RequiresMFA))
	return resp
}

// Logout invalidates the token server-side and resets the session. The reset
// happens whether or not the server call succeeds: a client stuck "logged
// in" against an unreachable server is worse than an orphaned server-side
// token.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	token := s.session.Token
	user := s.session.User
	s.mu.Unlock()

	if err := s.api.Logout(ctx, token, user); err != nil {
		s.logger.Warn("Server-side logout failed, clearing local session anyway", zap.Error(err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = models.Session{State: models.StateAnonymous}
	if err := s.persister.Clear(); err != nil {
		s.logger.Warn("Failed to clear persisted session", zap.Error(err))
	}
	s.logger.Info("Logged out")
}

// Register creates an account and reports whether the server acknowledged
// it. No session is established; the caller logs in separately.
func (s *Store) Register(ctx context.Context, username string, email string, password string) bool {
	ok, err := s.api.Register(ctx, models.AuthRegisterBody{
		Username: username,
		Email:    email,
		Password: password,
	})
	if err != nil {
		s.logger.Warn("Registration failed", zap.String("username", username), zap.Error(err))
		return false
	}
	return ok
}

// SetUser merges the given fields into the current user record and, when the
// session holds a token, marks it authenticated. Used after a passed MFA
// challenge or an enrollment change to refresh identity fields without a
// re-login.
func (s *Store) SetUser(partial models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session.User == nil {
		u := partial
		s.session.User = &u
	} else {
		merged := s.session.User.Merge(partial)
		s.session.User = &merged
	}

	// Marking authenticated without a token would break the invariant;
	// in that case the merge is kept but the state is not upgraded.
	if s.session.Token != "" {
		s.session.State = models.StateAuthenticated
		s.session.PendingUserID = ""
	}
	s.persist()
}

// SetAuthState flips the session between authenticated and MFA-pending. An
// upgrade request that the invariant cannot support (no user or no token)
// is refused rather than recorded.
func (s *Store) SetAuthState(authenticated bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if authenticated {
		if s.session.User == nil || s.session.Token == "" {
			s.logger.Warn("Refusing to mark session authenticated without user and token")
			return
		}
		s.session.State = models.StateAuthenticated
		s.session.PendingUserID = ""
	} else {
		if s.session.User != nil && s.session.Token != "" {
			s.session.State = models.StatePendingMFA
		} else {
			s.session = models.Session{State: models.StateAnonymous}
		}
	}
	s.persist()
}

// persist writes the session through the persister. Callers hold the mutex.
// Persistence failures are logged, not propagated; the in-memory session is
// authoritative for this process.
func (s *Store) persist() {
	if err := s.persister.Save(s.session.ToPersisted()); err != nil {
		s.logger.Warn("Failed to persist session", zap.Error(err))
	}
}
