package mfa

import (
	"context"
	"sync"

	"authweb/internal/configuration"
	"authweb/internal/helpers"
	"authweb/internal/models"
	"authweb/internal/remote"
	"authweb/internal/session"

	"go.uber.org/zap"
)

// ChallengeResult is the outcome of the last validation attempt.
type ChallengeResult string

const (
	ResultUnset   ChallengeResult = "unset"
	ResultValid   ChallengeResult = "valid"
	ResultInvalid ChallengeResult = "invalid"
)

const genericChallengeError = "Error al verificar el código"

// ChallengeFlow drives the post-login MFA challenge: six single-digit cells,
// filled by typing or paste, validated against the server exactly once per
// completing edit. It is scoped to one visit of the challenge screen; Close
// discards any late validation result once the screen is gone.
type ChallengeFlow struct {
	api    remote.IAuthAPI
	store  *session.Store
	logger *zap.Logger

	mu     sync.Mutex
	userID string
	cells  [configuration.MFACodeLength]string
	focus  int
	result ChallengeResult
	errMsg string
	busy   bool
	closed bool
}

func NewChallengeFlow(api remote.IAuthAPI, store *session.Store, logger *zap.Logger, pendingUserID string) *ChallengeFlow {
	return &ChallengeFlow{
		api:    api,
		store:  store,
		logger: logger,
		userID: pendingUserID,
		result: ResultUnset,
	}
}

// ChallengeSnapshot is a consistent read of the flow for rendering.
type ChallengeSnapshot struct {
	Cells  []string        `json:"cells"`
	Focus  int             `json:"focus"`
	Result ChallengeResult `json:"result"`
	Error  string          `json:"error,omitempty"`
	Busy   bool            `json:"busy"`
}

func (f *ChallengeFlow) Snapshot() ChallengeSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	cells := make([]string, len(f.cells))
	copy(cells, f.cells[:])
	return ChallengeSnapshot{
		Cells:  cells,
		Focus:  f.focus,
		Result: f.result,
		Error:  f.errMsg,
		Busy:   f.busy,
	}
}

// SetDigit places value into the given cell. Anything other than the empty
// string or a single digit is rejected as a no-op. Accepting a digit in a
// non-final cell advances the focus; filling the last empty cell triggers
// validation.
func (f *ChallengeFlow) SetDigit(ctx context.Context, index int, value string) {
	if index < 0 || index >= configuration.MFACodeLength {
		return
	}
	if len(value) > 1 || (value != "" && (value[0] < '0' || value[0] > '9')) {
		return
	}

	f.mu.Lock()
	f.cells[index] = value
	if value != "" && index < configuration.MFACodeLength-1 {
		f.focus = index + 1
	}
	code, complete := f.codeLocked()
	start := complete && !f.busy
	if start {
		f.busy = true
	}
	f.mu.Unlock()

	if start {
		f.validate(ctx, code)
	}
}

// Backspace clears the focused cell, or moves focus left when the cell is
// already empty.
func (f *ChallengeFlow) Backspace() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cells[f.focus] == "" && f.focus > 0 {
		f.focus--
		return
	}
	f.cells[f.focus] = ""
}

// HandlePaste spreads up to six digits from text across the cells, ignoring
// every non-digit character. Completing the code this way triggers exactly
// the same single validation as typed entry.
func (f *ChallengeFlow) HandlePaste(ctx context.Context, text string) {
	digits := helpers.ExtractDigits(text, configuration.MFACodeLength)

	f.mu.Lock()
	for i, d := range digits {
		f.cells[i] = d
	}
	code, complete := f.codeLocked()
	start := complete && !f.busy
	if start {
		f.busy = true
	}
	f.mu.Unlock()

	if start {
		f.validate(ctx, code)
	}
}

// codeLocked joins the cells and reports whether all six are filled.
// Callers hold the mutex.
func (f *ChallengeFlow) codeLocked() (string, bool) {
	code := ""
	for _, c := range f.cells {
		if c == "" {
			return "", false
		}
		code += c
	}
	return code, true
}

// validate submits the full code with the pending user identifier. On
// success the session is finalized: auth state flips on and the returned
// user record is merged in. The mutex is not held across the remote call;
// a flow closed while the request was in flight discards the outcome
// instead of mutating a session nobody is observing.
func (f *ChallengeFlow) validate(ctx context.Context, code string) {
	resp, err := f.api.VerifyMFA(ctx, models.MFAChallengeBody{
		UserID: f.userID,
		Token:  code,
	})

	f.mu.Lock()
	defer f.mu.Unlock()
	f.busy = false

	if f.closed {
		f.logger.Debug("Discarding challenge result for a closed flow")
		return
	}

	if err != nil {
		f.result = ResultInvalid
		if msg := remote.ServerMessage(err); msg != "" {
			f.errMsg = msg
		} else {
			f.errMsg = genericChallengeError
		}
		f.logger.Warn("MFA challenge rejected", zap.Error(err))
		return
	}

	f.result = ResultValid
	f.errMsg = ""
	f.store.SetAuthState(true)
	if resp.User != nil {
		f.store.SetUser(*resp.User)
	}
	f.logger.Info("MFA challenge passed")
}

// Redirect returns the route to advance to once validation has passed, or
// "" while the challenge is still open.
func (f *ChallengeFlow) Redirect() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.result == ResultValid {
		return configuration.RouteDashboard
	}
	return ""
}

// Close tears the flow down. Any validation still in flight will have its
// effect silently dropped.
func (f *ChallengeFlow) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}
