package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mcoot/scoutbook/internal/api/request"
	"github.com/mcoot/scoutbook/internal/api/response"
	"github.com/mcoot/scoutbook/internal/api/sse"
	"github.com/mcoot/scoutbook/internal/services/identity"
	"github.com/mcoot/scoutbook/internal/services/identity/federated"
	"github.com/mcoot/scoutbook/internal/services/session"
	"github.com/mcoot/scoutbook/internal/services/vault"
)

// SessionHandler exposes the session controller
type SessionHandler struct {
	session  *session.Controller
	verifier *federated.Verifier
	logger   *slog.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(controller *session.Controller, verifier *federated.Verifier, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		session:  controller,
		verifier: verifier,
		logger:   logger.With(slog.String("component", "session-handler")),
	}
}

// Get handles GET /api/v1/session
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, h.session.Snapshot())
}

// Events handles GET /api/v1/session/events
func (h *SessionHandler) Events(w http.ResponseWriter, r *http.Request) {
	events, unsubscribe := h.session.Subscribe()
	defer unsubscribe()

	sse.Serve(w, r, "session", h.session.Snapshot(), events, h.logger)
}

// Login handles POST /api/v1/session/login
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	h.respond(w, h.session.Login(r.Context(), req.Email, req.Password))
}

// Register handles POST /api/v1/session/register
func (h *SessionHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	err := h.session.Register(r.Context(), identity.Registration{
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		Email:            req.Email,
		Password:         req.Password,
		RegistrationCode: req.RegistrationCode,
	})
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, h.session.Snapshot())
}

// Federated handles POST /api/v1/session/federated
func (h *SessionHandler) Federated(w http.ResponseWriter, r *http.Request) {
	var req request.FederatedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	cred := federated.Credential{
		ProviderID: req.ProviderID,
		Email:      req.Email,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
	}
	switch {
	case req.IdentityToken != "":
		parsed, err := h.verifier.Parse(req.IdentityToken)
		if err != nil {
			WriteError(w, err)
			return
		}
		cred = parsed
	case h.verifier.Enabled():
		// Unsigned provider fields are only trusted when no secret is configured
		WriteError(w, NewInvalidRequestError("identity_token is required"))
		return
	case cred.ProviderID == "":
		WriteError(w, NewInvalidRequestError("identity_token or provider_id is required"))
		return
	}

	h.respond(w, h.session.FederatedSignIn(r.Context(), cred))
}

// Biometric handles POST /api/v1/session/biometric
func (h *SessionHandler) Biometric(w http.ResponseWriter, r *http.Request) {
	var req request.BiometricRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, NewInvalidRequestError("invalid request body"))
			return
		}
	}

	ctx := r.Context()
	if req.Passcode != "" {
		ctx = vault.WithPasscode(ctx, req.Passcode)
	}

	h.respond(w, h.session.AttemptBiometricLogin(ctx))
}

// Logout handles POST /api/v1/session/logout
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, h.session.Logout(r.Context()))
}

// Refresh handles POST /api/v1/session/refresh
func (h *SessionHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, h.session.RefreshBiometrics(r.Context()))
}

// ClearError handles DELETE /api/v1/session/error
func (h *SessionHandler) ClearError(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, h.session.ClearError())
}

// respond writes the sign-in error, or the new session state on success
func (h *SessionHandler) respond(w http.ResponseWriter, err error) {
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, h.session.Snapshot())
}
