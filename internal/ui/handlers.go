package ui

import (
	"net/http"
	"strconv"
	"sync"

	"authweb/internal/configuration"
	"authweb/internal/helpers"
	"authweb/internal/mfa"
	m "authweb/internal/middlewares"
	"authweb/internal/models"
	"authweb/internal/remote"
	"authweb/internal/session"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// UIService serves the five screens and the small JSON surface their page
// scripts use. It holds the transient per-screen flows; screens are
// presentational and delegate every decision to the session store and the
// MFA flows.
type UIService struct {
	Session *session.Store
	API     remote.IAuthAPI
	Logger  *zap.Logger

	mu        sync.Mutex
	challenge *mfa.ChallengeFlow
	setup     *mfa.SetupFlow
}

func (s *UIService) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get(configuration.RouteLogin, s.LoginPage)
	r.With(m.Validate[models.AuthLoginBody]).
		Post(configuration.RouteLogin, s.Login)

	r.Get(configuration.RouteRegister, s.RegisterPage)
	r.With(m.Validate[models.AuthRegisterBody]).
		Post(configuration.RouteRegister, s.Register)

	r.Get(configuration.RouteDashboard, s.Dashboard)
	r.Post("/logout", s.Logout)

	r.Route(configuration.RouteChallenge, func(r chi.Router) {
		r.Get("/", s.ChallengePage)
		r.Get("/state", s.ChallengeState)
		r.Post("/digit", s.ChallengeDigit)
		r.Post("/backspace", s.ChallengeBackspace)
		r.Post("/paste", s.ChallengePaste)
	})

	r.Route(configuration.RouteMFASetup, func(r chi.Router) {
		r.Get("/", s.SetupPage)
		r.Get("/qr.png", s.SetupQR)
		r.Post("/verify", s.SetupVerify)
		r.Post("/disable", s.SetupDisable)
	})

	r.Get("/api/session", s.SessionState)

	return r
}

type pageData struct {
	Error     string
	User      *models.User
	Challenge mfa.ChallengeSnapshot
	Setup     mfa.SetupSnapshot
}

func (s *UIService) LoginPage(w http.ResponseWriter, _ *http.Request) {
	render(w, "login.html", pageData{})
}

// Login submits credentials through the session store and branches to the
// challenge screen when the server demands MFA.
func (s *UIService) Login(w http.ResponseWriter, r *http.Request) {
	body := m.GetBody[models.AuthLoginBody](r)

	resp := s.Session.Login(r.Context(), body.Username, body.Password)
	if resp == nil {
		render(w, "login.html", pageData{
			Error: "There was an error, check your credentials or try again later.",
		})
		return
	}

	if resp.RequiresMFA {
		s.openChallenge(resp.UserID)
		http.Redirect(w, r, configuration.RouteChallenge, http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, configuration.RouteDashboard, http.StatusSeeOther)
}

func (s *UIService) RegisterPage(w http.ResponseWriter, _ *http.Request) {
	render(w, "register.html", pageData{})
}

// Register creates the account and, on acknowledgement, chains straight
// into a login with the same credentials.
func (s *UIService) Register(w http.ResponseWriter, r *http.Request) {
	body := m.GetBody[models.AuthRegisterBody](r)

	if ok := s.Session.Register(r.Context(), body.Username, body.Email, body.Password); !ok {
		render(w, "register.html", pageData{
			Error: "Could not register the account, check your data or try again later.",
		})
		return
	}

	resp := s.Session.Login(r.Context(), body.Username, body.Password)
	if resp == nil {
		render(w, "register.html", pageData{
			Error: "Account created but sign-in failed, try logging in.",
		})
		return
	}

	http.Redirect(w, r, configuration.RouteDashboard, http.StatusSeeOther)
}

func (s *UIService) Dashboard(w http.ResponseWriter, _ *http.Request) {
	render(w, "dashboard.html", pageData{User: s.Session.Current().User})
}

func (s *UIService) Logout(w http.ResponseWriter, r *http.Request) {
	s.Session.Logout(r.Context())
	s.closeFlows()
	http.Redirect(w, r, configuration.RouteLogin, http.StatusSeeOther)
}

func (s *UIService) ChallengePage(w http.ResponseWriter, r *http.Request) {
	flow := s.currentChallenge()
	if flow == nil {
		http.Redirect(w, r, configuration.RouteLogin, http.StatusSeeOther)
		return
	}
	render(w, "challenge.html", pageData{Challenge: flow.Snapshot()})
}

type challengeStateResponse struct {
	mfa.ChallengeSnapshot
	Redirect string `json:"redirect,omitempty"`
}

func (s *UIService) ChallengeState(w http.ResponseWriter, _ *http.Request) {
	flow := s.currentChallenge()
	if flow == nil {
		helpers.RespondWithError(w, http.StatusNotFound, []string{"NO_PENDING_CHALLENGE"})
		return
	}
	helpers.RespondWithJSON(w, http.StatusOK, challengeStateResponse{
		ChallengeSnapshot: flow.Snapshot(),
		Redirect:          flow.Redirect(),
	})
}

// ChallengeDigit feeds one typed cell into the flow. Validation, when the
// edit completes the code, happens inside the flow before this returns.
func (s *UIService) ChallengeDigit(w http.ResponseWriter, r *http.Request) {
	flow := s.currentChallenge()
	if flow == nil {
		helpers.RespondWithError(w, http.StatusNotFound, []string{"NO_PENDING_CHALLENGE"})
		return
	}
	if err := r.ParseForm(); err != nil {
		helpers.RespondWithError(w, http.StatusBadRequest, []string{"MALFORMED_BODY"})
		return
	}

	index, err := strconv.Atoi(r.PostFormValue("index"))
	if err != nil {
		helpers.RespondWithError(w, http.StatusBadRequest, []string{"INVALID_INDEX"})
		return
	}
	flow.SetDigit(r.Context(), index, r.PostFormValue("value"))

	helpers.RespondWithJSON(w, http.StatusOK, challengeStateResponse{
		ChallengeSnapshot: flow.Snapshot(),
		Redirect:          flow.Redirect(),
	})
}

func (s *UIService) ChallengeBackspace(w http.ResponseWriter, _ *http.Request) {
	flow := s.currentChallenge()
	if flow == nil {
		helpers.RespondWithError(w, http.StatusNotFound, []string{"NO_PENDING_CHALLENGE"})
		return
	}
	flow.Backspace()
	helpers.RespondWithJSON(w, http.StatusOK, challengeStateResponse{
		ChallengeSnapshot: flow.Snapshot(),
	})
}

func (s *UIService) ChallengePaste(w http.ResponseWriter, r *http.Request) {
	flow := s.currentChallenge()
	if flow == nil {
		helpers.RespondWithError(w, http.StatusNotFound, []string{"NO_PENDING_CHALLENGE"})
		return
	}
	if err := r.ParseForm(); err != nil {
		helpers.RespondWithError(w, http.StatusBadRequest, []string{"MALFORMED_BODY"})
		return
	}
	flow.HandlePaste(r.Context(), r.PostFormValue("text"))

	helpers.RespondWithJSON(w, http.StatusOK, challengeStateResponse{
		ChallengeSnapshot: flow.Snapshot(),
		Redirect:          flow.Redirect(),
	})
}

// SetupPage enters the enrollment screen: any previous flow is torn down
// and a fresh one initiates against the server.
func (s *UIService) SetupPage(w http.ResponseWriter, r *http.Request) {
	flow := s.openSetup()
	flow.Initiate(r.Context())
	render(w, "setup.html", pageData{Setup: flow.Snapshot()})
}

// SetupQR serves the enrollment QR as a locally rendered PNG; nothing about
// the secret leaves the machine except through the remote API itself.
func (s *UIService) SetupQR(w http.ResponseWriter, r *http.Request) {
	flow := s.currentSetup()
	if flow == nil {
		http.NotFound(w, r)
		return
	}
	data, ok := flow.QRImage(250)
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if _, err := w.Write(data); err != nil {
		s.Logger.Warn("Failed to write QR image", zap.Error(err))
	}
}

func (s *UIService) SetupVerify(w http.ResponseWriter, r *http.Request) {
	flow := s.currentSetup()
	if flow == nil {
		http.Redirect(w, r, configuration.RouteMFASetup, http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		helpers.RespondWithError(w, http.StatusBadRequest, []string{"MALFORMED_BODY"})
		return
	}
	flow.VerifyAndEnable(r.Context(), r.PostFormValue("code"))
	render(w, "setup.html", pageData{Setup: flow.Snapshot(), User: s.Session.Current().User})
}

func (s *UIService) SetupDisable(w http.ResponseWriter, r *http.Request) {
	flow := s.currentSetup()
	if flow == nil {
		http.Redirect(w, r, configuration.RouteMFASetup, http.StatusSeeOther)
		return
	}
	flow.Disable(r.Context())
	render(w, "setup.html", pageData{Setup: flow.Snapshot(), User: s.Session.Current().User})
}

type sessionStateResponse struct {
	User          *models.User        `json:"user"`
	State         models.SessionState `json:"state"`
	Authenticated bool                `json:"isAuthenticated"`
}

// SessionState exposes a read-only session snapshot to page scripts. The
// token never leaves the process through this endpoint.
func (s *UIService) SessionState(w http.ResponseWriter, _ *http.Request) {
	current := s.Session.Current()
	helpers.RespondWithJSON(w, http.StatusOK, sessionStateResponse{
		User:          current.User,
		State:         current.State,
		Authenticated: current.IsAuthenticated(),
	})
}

func (s *UIService) openChallenge(pendingUserID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.challenge != nil {
		s.challenge.Close()
	}
	s.challenge = mfa.NewChallengeFlow(s.API, s.Session, s.Logger, pendingUserID)
}

func (s *UIService) currentChallenge() *mfa.ChallengeFlow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.challenge
}

func (s *UIService) openSetup() *mfa.SetupFlow {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setup != nil {
		s.setup.Close()
	}
	s.setup = mfa.NewSetupFlow(s.API, s.Session, s.Logger)
	return s.setup
}

func (s *UIService) currentSetup() *mfa.SetupFlow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setup
}

func (s *UIService) closeFlows() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.challenge != nil {
		s.challenge.Close()
		s.challenge = nil
	}
	if s.setup != nil {
		s.setup.Close()
		s.setup = nil
	}
}
