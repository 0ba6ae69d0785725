package http

import (
	"net/http"

	"github.com/sendhello/auth-service/internal/auth/service"
	"github.com/sendhello/auth-service/pkg/authsdk"
	"github.com/sendhello/auth-service/pkg/httpx"
)

// UsersHandler administers every account. Its routes only admit owners and
// admins acting in the admin organization.
type UsersHandler struct {
	responder
	Accounts *service.AccountService
}

// HandleList pages through all accounts, oldest first.
//
//	@Summary		List users
//	@Description	Owner or admin of the admin organization.
//	@Tags			Users
//	@Produce		json
//	@Param			X-Organization-ID	header		string	false	"Admin organization ID"
//	@Param			page				query		int		false	"Page number, from 1"	default(1)
//	@Param			page_size			query		int		false	"Entries per page"		default(20)
//	@Success		200					{array}		authsdk.UserResponse
//	@Failure		400					{object}	authsdk.APIError
//	@Failure		401					{object}	authsdk.APIError
//	@Failure		403					{object}	authsdk.APIError
//	@Security		BearerAuth
//	@Router			/api/v1/users [get].
func (h *UsersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
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

	users, err := h.Accounts.ListUsers(r.Context(), page, pageSize)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	out := make([]authsdk.UserResponse, len(users))
	for i, u := range users {
		out[i] = toUser(u)
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// HandleGet returns one account.
//
//	@Summary		Get user
//	@Tags			Users
//	@Produce		json
//	@Param			X-Organization-ID	header		string	false	"Admin organization ID"
//	@Param			user_id				path		string	true	"User ID"
//	@Success		200					{object}	authsdk.UserResponse
//	@Failure		403					{object}	authsdk.APIError
//	@Failure		404					{object}	authsdk.APIError
//	@Security		BearerAuth
//	@Router			/api/v1/users/{user_id} [get].
func (h *UsersHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUUID(r, "user_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	user, err := h.Accounts.GetUser(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toUser(user))
}

// HandleDelete removes an account with its memberships and sign-in history.
//
//	@Summary		Delete user
//	@Tags			Users
//	@Param			X-Organization-ID	header	string	false	"Admin organization ID"
//	@Param			user_id				path	string	true	"User ID"
//	@Success		204
//	@Failure		400	{object}	authsdk.APIError	"Own account"
//	@Failure		403	{object}	authsdk.APIError
//	@Failure		404	{object}	authsdk.APIError
//	@Security		BearerAuth
//	@Router			/api/v1/users/{user_id} [delete].
func (h *UsersHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUUID(r, "user_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	claims, _ := httpx.ClaimsFromContext(r.Context())
	actorID, err := callerID(claims)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.Accounts.DeleteUser(r.Context(), actorID, userID); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
