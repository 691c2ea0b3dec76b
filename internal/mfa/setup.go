package mfa

import (
	"bytes"
	"context"
	"image/png"
	"sync"

	"authweb/internal/helpers"
	"authweb/internal/models"
	"authweb/internal/remote"
	"authweb/internal/session"

	"github.com/pquerna/otp"
	"go.uber.org/zap"
)

// SetupState is where the enrollment flow currently sits.
type SetupState string

const (
	SetupLoading SetupState = "loading"
	// SetupPending means a fresh secret has been issued and is waiting for
	// a verification code.
	SetupPending SetupState = "needs_setup"
	SetupEnabled SetupState = "enabled"
)

const (
	errCodeFormat    = "Please enter a valid 6-digit code"
	errSetupFailed   = "Failed to initialize MFA setup. Please try again."
	errVerifyFailed  = "Failed to verify MFA code. Please try again."
	errDisableFailed = "Failed to disable MFA. Please try again."
)

// SetupFlow drives MFA enrollment: it fetches a fresh secret on entry,
// verifies a code to enable, and disables with immediate re-initiation so a
// retired secret is never offered for re-enrollment. Scoped to one visit of
// the setup screen.
type SetupFlow struct {
	api    remote.IAuthAPI
	store  *session.Store
	logger *zap.Logger

	mu     sync.Mutex
	state  SetupState
	secret string
	qrURI  string
	key    *otp.Key
	errMsg string
	busy   bool
	closed bool
}

func NewSetupFlow(api remote.IAuthAPI, store *session.Store, logger *zap.Logger) *SetupFlow {
	return &SetupFlow{
		api:    api,
		store:  store,
		logger: logger,
		state:  SetupLoading,
	}
}

// SetupSnapshot is a consistent read of the flow for rendering. Issuer and
// Account come from the parsed otpauth URI when it parsed cleanly.
type SetupSnapshot struct {
	State   SetupState `json:"state"`
	Secret  string     `json:"secret,omitempty"`
	QRURI   string     `json:"qr_uri,omitempty"`
	Issuer  string     `json:"issuer,omitempty"`
	Account string     `json:"account,omitempty"`
	Error   string     `json:"error,omitempty"`
	Busy    bool       `json:"busy"`
}

func (f *SetupFlow) Snapshot() SetupSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap := SetupSnapshot{
		State:  f.state,
		Secret: f.secret,
		QRURI:  f.qrURI,
		Error:  f.errMsg,
		Busy:   f.busy,
	}
	if f.key != nil {
		snap.Issuer = f.key.Issuer()
		snap.Account = f.key.AccountName()
	}
	return snap
}

// Initiate requests a fresh enrollment secret. When the server reports that
// MFA is already active the flow lands directly in the enabled state and no
// secret is shown.
func (f *SetupFlow) Initiate(ctx context.Context) {
	f.mu.Lock()
	f.busy = true
	f.errMsg = ""
	token := f.store.Current().Token
	f.mu.Unlock()

	resp, err := f.api.InitiateMFASetup(ctx, token)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.busy = false
	if f.closed {
		return
	}

	if err != nil {
		if remote.IsMFAAlreadyEnabled(err) {
			f.state = SetupEnabled
			f.secret = ""
			f.qrURI = ""
			f.key = nil
			return
		}
		f.errMsg = errSetupFailed
		f.logger.Warn("MFA setup initiation failed", zap.Error(err))
		return
	}

	f.state = SetupPending
	f.secret = resp.Secret
	f.qrURI = resp.QRURI

	// The URI is server-issued; a parse failure only loses the decoded
	// issuer/account labels, the raw URI and secret are still usable.
	key, parseErr := helpers.ParseEnrollmentURI(resp.QRURI)
	if parseErr != nil {
		f.logger.Warn("Enrollment URI did not parse", zap.Error(parseErr))
		f.key = nil
		return
	}
	f.key = key
}

// VerifyAndEnable submits the code generated from the enrollment secret.
// A code that is not exactly six digits is rejected locally, with no
// network call. On success the session's user record is refreshed and the
// flow transitions to enabled.
func (f *SetupFlow) VerifyAndEnable(ctx context.Context, code string) {
	if !helpers.IsValidCode(code) {
		f.mu.Lock()
		f.errMsg = errCodeFormat
		f.mu.Unlock()
		return
	}

	f.mu.Lock()
	f.busy = true
	f.errMsg = ""
	token := f.store.Current().Token
	secret := f.secret
	f.mu.Unlock()

	resp, err := f.api.VerifyAndEnableMFA(ctx, token, models.MFAEnableBody{
		Secret: secret,
		Code:   code,
	})

	f.mu.Lock()
	defer f.mu.Unlock()
	f.busy = false
	if f.closed {
		return
	}

	if err != nil {
		f.errMsg = errVerifyFailed
		f.logger.Warn("MFA enable verification failed", zap.Error(err))
		return
	}

	f.state = SetupEnabled
	f.secret = ""
	f.qrURI = ""
	f.key = nil
	if resp.User != nil {
		f.store.SetUser(*resp.User)
	}
	f.logger.Info("MFA enabled")
}

// Disable turns MFA off and immediately re-initiates setup so the screen
// shows a freshly issued secret; a previously disabled secret must not be
// reused for re-enrollment. On failure the flow stays enabled.
func (f *SetupFlow) Disable(ctx context.Context) {
	f.mu.Lock()
	f.busy = true
	f.errMsg = ""
	token := f.store.Current().Token
	f.mu.Unlock()

	resp, err := f.api.DisableMFA(ctx, token)

	f.mu.Lock()
	if f.closed {
		f.busy = false
		f.mu.Unlock()
		return
	}
	if err != nil {
		f.busy = false
		f.errMsg = errDisableFailed
		f.mu.Unlock()
		f.logger.Warn("MFA disable failed", zap.Error(err))
		return
	}

	f.state = SetupLoading
	f.secret = ""
	f.qrURI = ""
	f.key = nil
	f.busy = false
	f.mu.Unlock()

	if resp.User != nil {
		f.store.SetUser(*resp.User)
	}
	f.logger.Info("MFA disabled, re-initiating setup")
	f.Initiate(ctx)
}

// QRImage renders the enrollment URI as a PNG of the given pixel size, or
// ok=false when there is no parsed key to render (not in setup, or the
// server-issued URI did not parse).
func (f *SetupFlow) QRImage(size int) ([]byte, bool) {
	f.mu.Lock()
	key := f.key
	f.mu.Unlock()

	if key == nil {
		return nil, false
	}

	img, err := key.Image(size, size)
	if err != nil {
		f.logger.Warn("Failed to render enrollment QR", zap.Error(err))
		return nil, false
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		f.logger.Warn("Failed to encode enrollment QR", zap.Error(err))
		return nil, false
	}
	return buf.Bytes(), true
}

// Close tears the flow down; late responses no longer mutate anything.
func (f *SetupFlow) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}
