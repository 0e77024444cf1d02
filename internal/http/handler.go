package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hubble-app/identity-api/internal/httputil"
	"github.com/hubble-app/identity-api/internal/identity"
	"github.com/hubble-app/identity-api/internal/logging"
	"github.com/hubble-app/identity-api/internal/publicid"
	"github.com/hubble-app/identity-api/internal/registration"
	"github.com/hubble-app/identity-api/internal/session"
	"github.com/hubble-app/identity-api/internal/user"
	versioncheck "github.com/hubble-app/identity-api/internal/version"
)

// EmailVerifier consumes emailed verification link tokens.
type EmailVerifier interface {
	VerifyEmail(ctx context.Context, token string) error
}

// UserReader is the read side of the user store needed by protected routes.
type UserReader interface {
	GetByProviderID(ctx context.Context, providerUserID string) (*user.User, error)
}

// Handler contains the HTTP handlers for the identity bootstrap flow
type Handler struct {
	registrations *registration.Coordinator
	gate          *session.Gate
	verifier      EmailVerifier
	users         UserReader
	versions      *versioncheck.Checker
	logger        *logging.Logger
}

func NewHandler(
	registrations *registration.Coordinator,
	gate *session.Gate,
	verifier EmailVerifier,
	users UserReader,
	versions *versioncheck.Checker,
	logger *logging.Logger,
) *Handler {
	return &Handler{
		registrations: registrations,
		gate:          gate,
		verifier:      verifier,
		users:         users,
		versions:      versions,
		logger:        logger,
	}
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

// RegisterResponse represents the registration response
type RegisterResponse struct {
	UID     string `json:"uid"`
	Message string `json:"message"`
}

// CompleteRequest represents the registration completion request body
type CompleteRequest struct {
	UID string `json:"uid"`
}

// CompleteResponse represents the committed registration
type CompleteResponse struct {
	UID      string `json:"uid"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse represents an authenticated session
type LoginResponse struct {
	UID      string `json:"uid"`
	Email    string `json:"email"`
	Username string `json:"username"`
	UserID   string `json:"userId"`
	Token    string `json:"token"`
}

// Register handles the first phase of registration
// @Summary      Begin registration
// @Description  Create the provider credential and stage profile data until the email is verified.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RegisterRequest true "Registration data"
// @Success      201 {object} RegisterResponse
// @Failure      400 {object} httputil.ErrorResponse "Validation error"
// @Failure      409 {object} httputil.ErrorResponse "Email already exists"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid registration request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	account, err := h.registrations.Begin(r.Context(), req.Email, req.Password, req.Username)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrDuplicateEmail):
			logger.Warn("registration failed: email already exists")
			httputil.RespondErrorWithCode(w, "email already exists", httputil.CodeEmailAlreadyExists, http.StatusConflict)
		case errors.Is(err, identity.ErrEmailRequired):
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeEmailRequired, http.StatusBadRequest)
		case errors.Is(err, identity.ErrInvalidEmailFormat):
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeInvalidEmailFormat, http.StatusBadRequest)
		case errors.Is(err, identity.ErrPasswordRequired):
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodePasswordRequired, http.StatusBadRequest)
		case errors.Is(err, identity.ErrPasswordTooShort):
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodePasswordTooShort, http.StatusBadRequest)
		case errors.Is(err, registration.ErrUsernameRequired):
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeUsernameRequired, http.StatusBadRequest)
		default:
			logger.Error("registration failed: internal error", "error", err.Error())
			httputil.RespondErrorWithCode(w, "failed to register", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("registration started", "uid", account.UserID)

	httputil.RespondJSON(w, RegisterResponse{
		UID:     account.UserID,
		Message: "Registration started. Please check your email to verify your account.",
	}, http.StatusCreated)
}

// VerifyEmail consumes an emailed verification link token
// @Summary      Verify email
// @Description  Consume the token carried by the emailed verification link.
// @Tags         auth
// @Produce      json
// @Param        token query string true "Verification token"
// @Success      200 {object} map[string]string
// @Failure      400 {object} httputil.ErrorResponse "Invalid or expired token"
// @Router       /auth/verify-email [get]
func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	token := r.URL.Query().Get("token")
	if token == "" {
		httputil.RespondErrorWithCode(w, "verification token is required", httputil.CodeInvalidVerifyToken, http.StatusBadRequest)
		return
	}

	if err := h.verifier.VerifyEmail(r.Context(), token); err != nil {
		switch {
		case errors.Is(err, identity.ErrEmailAlreadyVerified):
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeEmailAlreadyVerified, http.StatusBadRequest)
		case errors.Is(err, identity.ErrVerificationExpired):
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeVerifyTokenExpired, http.StatusBadRequest)
		case errors.Is(err, identity.ErrInvalidVerificationToken):
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeInvalidVerifyToken, http.StatusBadRequest)
		default:
			logger.Error("email verification failed", "error", err.Error())
			httputil.RespondErrorWithCode(w, "failed to verify email", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	httputil.RespondJSON(w, map[string]string{"message": "Email verified. You can now complete your registration."}, http.StatusOK)
}

// Complete handles the second phase of registration
// @Summary      Complete registration
// @Description  Commit a verified registration: allocate the public identifier and write the durable user record.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body CompleteRequest true "Provider account id"
// @Success      200 {object} CompleteResponse
// @Failure      403 {object} httputil.ErrorResponse "Email not verified"
// @Failure      404 {object} httputil.ErrorResponse "No pending registration"
// @Failure      500 {object} httputil.ErrorResponse "Allocation exhausted or internal error"
// @Router       /auth/complete [post]
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req CompleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	uid, err := h.registrations.Complete(r.Context(), req.UID)
	if err != nil {
		switch {
		case errors.Is(err, registration.ErrNoPendingRegistration):
			logger.Warn("completion failed: no pending registration", "uid", req.UID)
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeNoPendingRegistration, http.StatusNotFound)
		case errors.Is(err, registration.ErrEmailNotVerified):
			logger.Warn("completion failed: email not verified", "uid", req.UID)
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeEmailNotVerified, http.StatusForbidden)
		case errors.Is(err, publicid.ErrAllocationExhausted):
			// Regeneration is cheap and the space is sparse: retrying the
			// whole commit is expected to succeed.
			logger.Error("completion failed: allocation exhausted", "uid", req.UID)
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeAllocationExhausted, http.StatusInternalServerError)
		case errors.Is(err, user.ErrDuplicatePublicID), errors.Is(err, user.ErrAlreadyRegistered):
			logger.Error("completion failed: conflicting record", "uid", req.UID, "error", err.Error())
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeRegistrationConflict, http.StatusConflict)
		default:
			logger.Error("completion failed: internal error", "uid", req.UID, "error", err.Error())
			httputil.RespondErrorWithCode(w, "failed to complete registration", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	record, err := h.users.GetByProviderID(r.Context(), uid)
	if err != nil {
		logger.Error("committed record could not be read back", "uid", uid, "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to load user record", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("registration completed", "uid", uid, "public_id", record.PublicID)

	httputil.RespondJSON(w, CompleteResponse{
		UID:      record.ProviderUserID,
		UserID:   record.PublicID,
		Username: record.Username,
	}, http.StatusOK)
}

// Login handles user login
// @Summary      User login
// @Description  Authenticate and pass the verification and completion gates.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} LoginResponse
// @Failure      401 {object} httputil.ErrorResponse "Invalid credentials"
// @Failure      403 {object} httputil.ErrorResponse "Email not verified or account not completed"
// @Router       /auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	authed, err := h.gate.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrInvalidCredentials):
			logger.Warn("login failed: invalid credentials", "email", req.Email)
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeInvalidCredentials, http.StatusUnauthorized)
		case errors.Is(err, session.ErrEmailNotVerified):
			logger.Warn("login rejected: email not verified", "email", req.Email)
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeEmailNotVerified, http.StatusForbidden)
		case errors.Is(err, session.ErrAccountNotCompleted):
			logger.Warn("login rejected: account not completed", "email", req.Email)
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeAccountNotCompleted, http.StatusForbidden)
		default:
			logger.Error("login failed: internal error", "error", err.Error())
			httputil.RespondErrorWithCode(w, "failed to log in", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("login succeeded", "uid", authed.ProviderUserID)

	httputil.RespondJSON(w, LoginResponse{
		UID:      authed.ProviderUserID,
		Email:    authed.Email,
		Username: authed.Username,
		UserID:   authed.PublicID,
		Token:    authed.Token,
	}, http.StatusOK)
}

// Logout revokes the active session
// @Summary      Logout
// @Description  Revoke the session carried in the Authorization header.
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} map[string]string
// @Failure      401 {object} httputil.ErrorResponse "Missing or invalid session"
// @Router       /auth/logout [post]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	token, ok := bearerToken(r)
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	if err := h.gate.Logout(r.Context(), token); err != nil {
		if errors.Is(err, identity.ErrSessionNotFound) {
			httputil.RespondErrorWithCode(w, "session not found", httputil.CodeInvalidSession, http.StatusUnauthorized)
			return
		}
		logger.Error("logout failed", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to log out", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, map[string]string{"message": "logged out"}, http.StatusOK)
}

// Me returns the authenticated caller's user record
// @Summary      Current user
// @Description  Return the durable user record behind the session.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} user.User
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized"
// @Failure      404 {object} httputil.ErrorResponse "No committed record"
// @Router       /me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	uid, ok := GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	record, err := h.users.GetByProviderID(r.Context(), uid)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			httputil.RespondErrorWithCode(w, "account registration was not completed", httputil.CodeAccountNotCompleted, http.StatusNotFound)
			return
		}
		logger.Error("failed to load user record", "uid", uid, "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to load user record", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, record, http.StatusOK)
}

// Version reports the client version gate status
// @Summary      Version check
// @Description  Compare the published client version against the one this deployment requires.
// @Tags         version
// @Produce      json
// @Success      200 {object} version.Status
// @Router       /version [get]
func (h *Handler) Version(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, h.versions.Stat(), http.StatusOK)
}
