package http

import (
	"net/http"
	"strconv"

	"github.com/sendhello/auth-service/internal/auth/service"
	"github.com/sendhello/auth-service/pkg/authsdk"
	"github.com/sendhello/auth-service/pkg/httpx"
)

const (
	defaultPage     = 1
	defaultPageSize = 20
)

// ProfileHandler serves the caller's own account.
type ProfileHandler struct {
	responder
	Accounts *service.AccountService
}

// HandleGet returns the caller's identity as carried in the access token.
//
//	@Summary		Current profile
//	@Tags			Profile
//	@Produce		json
//	@Success		200	{object}	authsdk.ProfileResponse
//	@Failure		401	{object}	authsdk.APIError
//	@Security		BearerAuth
//	@Router			/api/v1/profile [get].
func (h *ProfileHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	claims, _ := httpx.ClaimsFromContext(r.Context())
	httpx.WriteJSON(w, http.StatusOK, toProfile(claims))
}

// HandleHistory lists the caller's sign-ins, newest first.
//
//	@Summary		Sign-in history
//	@Tags			Profile
//	@Produce		json
//	@Param			page		query		int	false	"Page number, from 1"	default(1)
//	@Param			page_size	query		int	false	"Entries per page"		default(20)
//	@Success		200			{array}		authsdk.HistoryEntry
//	@Failure		400			{object}	authsdk.APIError
//	@Failure		401			{object}	authsdk.APIError
//	@Security		BearerAuth
//	@Router			/api/v1/profile/history [get].
func (h *ProfileHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	claims, _ := httpx.ClaimsFromContext(r.Context())
	userID, err := callerID(claims)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	page, err := queryInt(r, "page", defaultPage)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	pageSize, err := queryInt(r, "page_size", defaultPageSize)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	events, err := h.Accounts.History(r.Context(), userID, page, pageSize)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	out := make([]authsdk.HistoryEntry, len(events))
	for i, e := range events {
		out[i] = authsdk.HistoryEntry{UserAgent: e.UserAgent, CreatedAt: e.CreatedAt}
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// HandleUpdate changes profile fields after re-checking the password. The
// access token keeps the old values until the next refresh.
//
//	@Summary		Update profile
//	@Tags			Profile
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.ProfileUpdateRequest	true	"Fields to change"
//	@Success		200		{object}	authsdk.UserResponse
//	@Failure		400		{object}	authsdk.APIError
//	@Failure		401		{object}	authsdk.APIError	"Incorrect current password"
//	@Failure		409		{object}	authsdk.APIError	"Login already taken"
//	@Security		BearerAuth
//	@Router			/api/v1/profile/update [post].
func (h *ProfileHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	claims, _ := httpx.ClaimsFromContext(r.Context())
	userID, err := callerID(claims)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req authsdk.ProfileUpdateRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	user, err := h.Accounts.UpdateProfile(r.Context(), userID, service.ProfileUpdate{
		Login:           req.Login,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Phone:           req.Phone,
		CurrentPassword: req.CurrentPassword,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toUser(user))
}

// HandleChangePassword replaces the caller's password.
//
//	@Summary		Change password
//	@Tags			Profile
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.ChangePasswordRequest	true	"Current and new password"
//	@Success		200		{object}	object	"Empty object"
//	@Failure		400		{object}	authsdk.APIError
//	@Failure		401		{object}	authsdk.APIError	"Incorrect current password"
//	@Security		BearerAuth
//	@Router			/api/v1/profile/change_password [post].
func (h *ProfileHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, _ := httpx.ClaimsFromContext(r.Context())
	userID, err := callerID(claims)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req authsdk.ChangePasswordRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.Accounts.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, struct{}{})
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, invalidParam(name + " must be an integer")
	}
	return n, nil
}
