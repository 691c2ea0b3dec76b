package remote

import (
	"context"
	"errors"
	"net/http"
	"time"

	apierrors "authweb/internal/errors"
	"authweb/internal/models"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Remote API endpoints. Trailing slashes are part of the contract.
const (
	pathLogin       = "/login/"
	pathLogout      = "/logout/"
	pathRegister    = "/register/"
	pathVerifyMFA   = "/verify_mfa/"
	pathMFAInitiate = "/initiate_mfa_setup/"
	pathMFAEnable   = "/verify_and_enable_mfa/"
	pathMFADisable  = "/disable_mfa/"
)

// mfaAlreadyEnabledMessage is the exact error string the API returns when
// setup is initiated for an account that already has MFA active.
const mfaAlreadyEnabledMessage = "MFA ya está habilitado"

// IAuthAPI is the surface of the remote authentication API the client
// consumes. Implementations convert every transport, protocol and domain
// failure into an *apierrors.APIError; no call panics or returns a raw
// transport error to its caller.
type IAuthAPI interface {
	Login(ctx context.Context, body models.AuthLoginBody) (*models.AuthLoginResponse, error)
	Logout(ctx context.Context, token string, user *models.User) error
	Register(ctx context.Context, body models.AuthRegisterBody) (bool, error)
	VerifyMFA(ctx context.Context, body models.MFAChallengeBody) (*models.MFAChallengeResponse, error)
	InitiateMFASetup(ctx context.Context, token string) (*models.MFASetupResponse, error)
	VerifyAndEnableMFA(ctx context.Context, token string, body models.MFAEnableBody) (*models.MFAEnableResponse, error)
	DisableMFA(ctx context.Context, token string) (*models.MFADisableResponse, error)
}

type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

var _ IAuthAPI = (*Client)(nil)

func New(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")

	return &Client{http: httpClient, logger: logger}
}

// Login exchanges credentials for a token. A 200 with requires_mfa set is
// still a success; deciding what to do with it belongs to the session store.
func (c *Client) Login(ctx context.Context, body models.AuthLoginBody) (*models.AuthLoginResponse, error) {
	var out models.AuthLoginResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		SetError(&models.APIErrorBody{}).
		Post(pathLogin)
	if err := c.check(resp, err, http.StatusOK, apierrors.ErrLoginFailed); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout asks the server to invalidate the token. The caller clears local
// state regardless of the outcome; the error only carries diagnostics.
func (c *Client) Logout(ctx context.Context, token string, user *models.User) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetBody(models.AuthLogoutBody{User: user}).
		SetError(&models.APIErrorBody{}).
		Post(pathLogout)
	return c.check(resp, err, http.StatusOK, apierrors.ErrLogoutFailed)
}

// Register creates an account. It returns true only on a 201; no session is
// established by this call.
func (c *Client) Register(ctx context.Context, body models.AuthRegisterBody) (bool, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetError(&models.APIErrorBody{}).
		Post(pathRegister)
	if err := c.check(resp, err, http.StatusCreated, apierrors.ErrRegisterFailed); err != nil {
		return false, err
	}
	return true, nil
}

// VerifyMFA submits a post-login challenge code for the pending user.
func (c *Client) VerifyMFA(ctx context.Context, body models.MFAChallengeBody) (*models.MFAChallengeResponse, error) {
	var out models.MFAChallengeResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		SetError(&models.APIErrorBody{}).
		Post(pathVerifyMFA)
	if err := c.check(resp, err, http.StatusOK, apierrors.ErrMFAVerifyFailed); err != nil {
		return nil, err
	}
	return &out, nil
}

// InitiateMFASetup requests a fresh enrollment secret and otpauth URI.
// An already-enrolled account comes back as a domain error recognizable
// through IsMFAAlreadyEnabled.
func (c *Client) InitiateMFASetup(ctx context.Context, token string) (*models.MFASetupResponse, error) {
	var out models.MFASetupResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetBody(map[string]any{}).
		SetResult(&out).
		SetError(&models.APIErrorBody{}).
		Post(pathMFAInitiate)
	if err := c.check(resp, err, http.StatusOK, apierrors.ErrMFASetupFailed); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyAndEnableMFA proves possession of the enrollment secret and turns
// MFA on for the account.
func (c *Client) VerifyAndEnableMFA(ctx context.Context, token string, body models.MFAEnableBody) (*models.MFAEnableResponse, error) {
	var out models.MFAEnableResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetBody(body).
		SetResult(&out).
		SetError(&models.APIErrorBody{}).
		Post(pathMFAEnable)
	if err := c.check(resp, err, http.StatusOK, apierrors.ErrMFAVerifyFailed); err != nil {
		return nil, err
	}
	return &out, nil
}

// DisableMFA turns MFA off for the account.
func (c *Client) DisableMFA(ctx context.Context, token string) (*models.MFADisableResponse, error) {
	var out models.MFADisableResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetBody(map[string]any{}).
		SetResult(&out).
		SetError(&models.APIErrorBody{}).
		Post(pathMFADisable)
	if err := c.check(resp, err, http.StatusOK, apierrors.ErrMFADisableFailed); err != nil {
		return nil, err
	}
	return &out, nil
}

// check folds resty transport errors and unexpected statuses into a single
// *apierrors.APIError. The server's error payload, when present, becomes the
// message so callers can branch on domain errors.
func (c *Client) check(resp *resty.Response, err error, wantStatus int, code string) error {
	if err != nil {
		c.logger.Warn("Remote call failed",
			zap.String("code", code),
			zap.Error(err))
		return apierrors.NewAPIErrorWithMessage(0, code, err.Error())
	}

	if resp.StatusCode() == wantStatus {
		return nil
	}

	message := ""
	if body, ok := resp.Error().(*models.APIErrorBody); ok && body != nil {
		message = body.Error
	}
	c.logger.Warn("Remote call rejected",
		zap.String("code", code),
		zap.Int("status", resp.StatusCode()),
		zap.String("server_error", message))
	return apierrors.NewAPIErrorWithMessage(resp.StatusCode(), code, message)
}

// IsMFAAlreadyEnabled reports whether err is the domain error the API uses
// to signal that enrollment is unnecessary because MFA is already active.
func IsMFAAlreadyEnabled(err error) bool {
	var apiErr *apierrors.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Message == mfaAlreadyEnabledMessage
}

// ServerMessage extracts the server-provided error text from err, or returns
// the empty string when there is none.
func ServerMessage(err error) string {
	var apiErr *apierrors.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}
