package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/sendhello/auth-service/internal/auth/service"
	"github.com/sendhello/auth-service/internal/auth/session"
	"github.com/sendhello/auth-service/internal/auth/tenancy"
	"github.com/sendhello/auth-service/pkg/authsdk"
	"github.com/sendhello/auth-service/pkg/httpx"
	"github.com/sendhello/auth-service/pkg/slogx"
)

// AuthHandler serves signup, login, token refresh and logout. The device a
// token pair is bound to is the request's User-Agent.
type AuthHandler struct {
	responder
	Accounts *service.AccountService
	Issuer   *session.Issuer
}

// HandleSignup registers a new account.
//
//	@Summary		Sign up
//	@Description	Creates an account. Passwords must match; phone must start with 0 and be 10 to 15 characters.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.SignupRequest	true	"New account"
//	@Success		201		{object}	authsdk.UserResponse
//	@Failure		400		{object}	authsdk.APIError	"Validation failed"
//	@Failure		409		{object}	authsdk.APIError	"Email or login already registered"
//	@Failure		429		{object}	authsdk.APIError	"Too many requests"
//	@Router			/api/v1/auth/signup [post].
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req authsdk.SignupRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	user, err := h.Accounts.Signup(r.Context(), service.SignupInput{
		Email:          req.Email,
		Login:          req.Login,
		Password:       req.Password,
		RepeatPassword: req.RepeatPassword,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Phone:          req.Phone,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, toUser(user))
}

// HandleLogin exchanges credentials for a token pair.
//
//	@Summary		Log in
//	@Description	Verifies email and password and issues an access/refresh pair bound to the User-Agent.
//	@Description	X-Organization-ID optionally selects the organization the access token is scoped to.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body				body		authsdk.LoginRequest	true	"Credentials"
//	@Param			X-Organization-ID	header		string					false	"Organization to select"
//	@Success		200					{object}	authsdk.TokenPairResponse
//	@Failure		401					{object}	authsdk.APIError	"Incorrect email or password"
//	@Failure		403					{object}	authsdk.APIError	"Not a member of the requested organization"
//	@Failure		429					{object}	authsdk.APIError	"Too many requests"
//	@Failure		503					{object}	authsdk.APIError	"Revocation store unavailable"
//	@Router			/api/v1/auth/login [post].
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authsdk.LoginRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	user, err := h.Accounts.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	device := r.UserAgent()
	pair, err := h.Issuer.Issue(ctx, user, device, strings.TrimSpace(r.Header.Get(tenancy.Header)))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.Accounts.RecordLogin(ctx, user.ID, device); err != nil {
		log.Warn("failed to record login history", "user_id", user.ID.String(), "err", err)
	}

	log.Info("user logged in", "user_id", user.ID.String())
	httpx.WriteJSON(w, http.StatusOK, toTokenPair(pair))
}

// HandleRefresh rotates a refresh token.
//
//	@Summary		Refresh tokens
//	@Description	Exchanges the live refresh token (sent as the bearer token) for a new pair. The presented
//	@Description	refresh token is consumed. X-Organization-ID switches the selected organization.
//	@Tags			Auth
//	@Produce		json
//	@Param			X-Organization-ID	header		string	false	"Organization to select"
//	@Success		200					{object}	authsdk.TokenPairResponse
//	@Failure		401					{object}	authsdk.APIError	"Invalid, expired or revoked refresh token"
//	@Failure		403					{object}	authsdk.APIError	"Not a member of the requested organization"
//	@Failure		503					{object}	authsdk.APIError	"Revocation store unavailable"
//	@Security		BearerAuth
//	@Router			/api/v1/auth/refresh [post].
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	token, ok := httpx.BearerToken(r)
	if !ok {
		h.fail(w, r, httpx.ErrMissingBearer)
		return
	}

	pair, err := h.Issuer.Rotate(r.Context(), token, r.UserAgent(), strings.TrimSpace(r.Header.Get(tenancy.Header)))
	if errors.Is(err, service.ErrUserNotFound) {
		err = session.ErrTokenRevoked
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toTokenPair(pair))
}

// HandleLogout revokes the caller's session on this device.
//
//	@Summary		Log out
//	@Description	Blacklists the access token for the rest of its lifetime and deletes the device's refresh token.
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	object	"Empty object"
//	@Failure		401	{object}	authsdk.APIError
//	@Failure		503	{object}	authsdk.APIError
//	@Security		BearerAuth
//	@Router			/api/v1/auth/logout [post].
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.Issuer.Revoke(r.Context(), httpx.TokenFromContext(r.Context()), r.UserAgent()); err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, struct{}{})
}
