package mfa

import (
	"bytes"
	"context"
	"image/png"
	"net/http"
	"testing"

	apierrors "authweb/internal/errors"
	"authweb/internal/models"
	"authweb/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testEnrollmentURI = "otpauth://totp/AuthWeb:alice@example.com?secret=JBSWY3DPEHPK3PXP&issuer=AuthWeb"

// newAuthenticatedStore builds a store holding a logged-in session, the
// state from which the setup screen is reachable.
func newAuthenticatedStore(t *testing.T, api *mockAPI) *session.Store {
	t.Helper()
	api.loginFn = func(models.AuthLoginBody) (*models.AuthLoginResponse, error) {
		return &models.AuthLoginResponse{
			User:  &models.User{Username: "alice"},
			Token: "t1",
		}, nil
	}
	store := session.NewStore(api, nopPersister{}, zap.NewNop())
	require.NotNil(t, store.Login(context.Background(), "alice", "pw"))
	require.True(t, store.Current().IsAuthenticated())
	return store
}

// TestSetup_Initiate requests a fresh secret and checks the pending state:
// secret and URI exposed, issuer and account decoded, QR renderable.
func TestSetup_Initiate(t *testing.T) {
	api := &mockAPI{}
	store := newAuthenticatedStore(t, api)
	api.initiateFn = func() (*models.MFASetupResponse, error) {
		return &models.MFASetupResponse{
			Secret: "JBSWY3DPEHPK3PXP",
			QRURI:  testEnrollmentURI,
		}, nil
	}

	flow := NewSetupFlow(api, store, zap.NewNop())
	flow.Initiate(context.Background())

	snap := flow.Snapshot()
	assert.Equal(t, SetupPending, snap.State)
	assert.Equal(t, "JBSWY3DPEHPK3PXP", snap.Secret)
	assert.Equal(t, testEnrollmentURI, snap.QRURI)
	assert.Equal(t, "AuthWeb", snap.Issuer)
	assert.Equal(t, "alice@example.com", snap.Account)
	assert.False(t, snap.Busy)

	data, ok := flow.QRImage(200)
	require.True(t, ok)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())
}

// TestSetup_InitiateWhenAlreadyEnabled sends the domain error the server
// uses for accounts that already have MFA and checks the flow lands in the
// enabled state without offering a secret.
func TestSetup_InitiateWhenAlreadyEnabled(t *testing.T) {
	api := &mockAPI{}
	store := newAuthenticatedStore(t, api)
	api.initiateFn = func() (*models.MFASetupResponse, error) {
		return nil, apierrors.NewAPIErrorWithMessage(
			http.StatusBadRequest, apierrors.ErrMFASetupFailed, "MFA ya está habilitado")
	}

	flow := NewSetupFlow(api, store, zap.NewNop())
	flow.Initiate(context.Background())

	snap := flow.Snapshot()
	assert.Equal(t, SetupEnabled, snap.State)
	assert.Empty(t, snap.Secret)
	assert.Empty(t, snap.QRURI)
	assert.Empty(t, snap.Error)

	_, ok := flow.QRImage(200)
	assert.False(t, ok)
}

// TestSetup_InitiateFailure checks that an unrelated server failure keeps
// the flow in loading with a retryable error message.
func TestSetup_InitiateFailure(t *testing.T) {
	api := &mockAPI{}
	store := newAuthenticatedStore(t, api)
	api.initiateFn = func() (*models.MFASetupResponse, error) {
		return nil, apierrors.NewAPIError(http.StatusBadGateway, apierrors.ErrMFASetupFailed)
	}

	flow := NewSetupFlow(api, store, zap.NewNop())
	flow.Initiate(context.Background())

	snap := flow.Snapshot()
	assert.Equal(t, SetupLoading, snap.State)
	assert.Equal(t, "Failed to initialize MFA setup. Please try again.", snap.Error)
}

// TestSetup_VerifyRejectsShortCodeLocally checks that a code that is not
// exactly six digits never reaches the network.
func TestSetup_VerifyRejectsShortCodeLocally(t *testing.T) {
	api := &mockAPI{}
	store := newAuthenticatedStore(t, api)
	flow := NewSetupFlow(api, store, zap.NewNop())

	for _, code := range []string{"", "123", "1234567", "12345a"} {
		flow.VerifyAndEnable(context.Background(), code)
	}

	assert.Equal(t, 0, api.enableCalls)
	assert.Equal(t, "Please enter a valid 6-digit code", flow.Snapshot().Error)
}

// TestSetup_VerifyAndEnable runs the happy enrollment: the issued secret and
// the code are submitted together, the flow lands in enabled, the secret is
// no longer exposed, and the refreshed user record flows into the session.
func TestSetup_VerifyAndEnable(t *testing.T) {
	api := &mockAPI{}
	store := newAuthenticatedStore(t, api)
	api.initiateFn = func() (*models.MFASetupResponse, error) {
		return &models.MFASetupResponse{Secret: "JBSWY3DPEHPK3PXP", QRURI: testEnrollmentURI}, nil
	}

	var got models.MFAEnableBody
	api.enableFn = func(body models.MFAEnableBody) (*models.MFAEnableResponse, error) {
		got = body
		return &models.MFAEnableResponse{
			User: &models.User{Username: "alice", MFAEnabled: true},
		}, nil
	}

	flow := NewSetupFlow(api, store, zap.NewNop())
	flow.Initiate(context.Background())
	flow.VerifyAndEnable(context.Background(), "123456")

	assert.Equal(t, "JBSWY3DPEHPK3PXP", got.Secret)
	assert.Equal(t, "123456", got.Code)

	snap := flow.Snapshot()
	assert.Equal(t, SetupEnabled, snap.State)
	assert.Empty(t, snap.Secret)

	user := store.Current().User
	require.NotNil(t, user)
	assert.True(t, user.MFAEnabled)
}

// TestSetup_VerifyFailure checks a rejected code keeps the pending secret so
// the user can retry with the next one.
func TestSetup_VerifyFailure(t *testing.T) {
	api := &mockAPI{}
	store := newAuthenticatedStore(t, api)
	api.initiateFn = func() (*models.MFASetupResponse, error) {
		return &models.MFASetupResponse{Secret: "JBSWY3DPEHPK3PXP", QRURI: testEnrollmentURI}, nil
	}
	api.enableFn = func(models.MFAEnableBody) (*models.MFAEnableResponse, error) {
		return nil, apierrors.NewAPIError(http.StatusBadRequest, apierrors.ErrMFAVerifyFailed)
	}

	flow := NewSetupFlow(api, store, zap.NewNop())
	flow.Initiate(context.Background())
	flow.VerifyAndEnable(context.Background(), "123456")

	snap := flow.Snapshot()
	assert.Equal(t, SetupPending, snap.State)
	assert.Equal(t, "JBSWY3DPEHPK3PXP", snap.Secret)
	assert.Equal(t, "Failed to verify MFA code. Please try again.", snap.Error)
}

// TestSetup_DisableReinitiates disables MFA and checks that setup is
// re-initiated immediately, so the screen offers a freshly issued secret and
// never the retired one.
func TestSetup_DisableReinitiates(t *testing.T) {
	api := &mockAPI{}
	store := newAuthenticatedStore(t, api)

	secrets := []string{"FIRSTSECRETAAAAA", "SECONDSECRETAAAA"}
	api.initiateFn = func() (*models.MFASetupResponse, error) {
		secret := secrets[0]
		if api.initiateCalls > 1 {
			secret = secrets[1]
		}
		return &models.MFASetupResponse{
			Secret: secret,
			QRURI:  "otpauth://totp/AuthWeb:alice@example.com?secret=" + secret + "&issuer=AuthWeb",
		}, nil
	}
	api.enableFn = func(models.MFAEnableBody) (*models.MFAEnableResponse, error) {
		return &models.MFAEnableResponse{User: &models.User{MFAEnabled: true}}, nil
	}
	api.disableFn = func() (*models.MFADisableResponse, error) {
		return &models.MFADisableResponse{User: &models.User{MFAEnabled: false}}, nil
	}

	flow := NewSetupFlow(api, store, zap.NewNop())
	flow.Initiate(context.Background())
	flow.VerifyAndEnable(context.Background(), "123456")
	require.Equal(t, SetupEnabled, flow.Snapshot().State)

	flow.Disable(context.Background())

	assert.Equal(t, 1, api.disableCalls)
	assert.Equal(t, 2, api.initiateCalls)

	snap := flow.Snapshot()
	assert.Equal(t, SetupPending, snap.State)
	assert.Equal(t, "SECONDSECRETAAAA", snap.Secret)

	user := store.Current().User
	require.NotNil(t, user)
	assert.False(t, user.MFAEnabled)
}

// TestSetup_DisableFailureStaysEnabled checks MFA is still reported active
// when the server refuses to turn it off.
func TestSetup_DisableFailureStaysEnabled(t *testing.T) {
	api := &mockAPI{}
	store := newAuthenticatedStore(t, api)
	api.initiateFn = func() (*models.MFASetupResponse, error) {
		return nil, apierrors.NewAPIErrorWithMessage(
			http.StatusBadRequest, apierrors.ErrMFASetupFailed, "MFA ya está habilitado")
	}
	api.disableFn = func() (*models.MFADisableResponse, error) {
		return nil, apierrors.NewAPIError(http.StatusBadGateway, apierrors.ErrMFADisableFailed)
	}

	flow := NewSetupFlow(api, store, zap.NewNop())
	flow.Initiate(context.Background())
	require.Equal(t, SetupEnabled, flow.Snapshot().State)

	flow.Disable(context.Background())

	snap := flow.Snapshot()
	assert.Equal(t, SetupEnabled, snap.State)
	assert.Equal(t, "Failed to disable MFA. Please try again.", snap.Error)
	assert.Equal(t, 1, api.initiateCalls)
}
