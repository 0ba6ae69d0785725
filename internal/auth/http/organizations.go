package http

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/sendhello/auth-service/internal/auth/domain"
	"github.com/sendhello/auth-service/internal/auth/service"
	"github.com/sendhello/auth-service/pkg/authsdk"
	"github.com/sendhello/auth-service/pkg/httpx"
)

// OrganizationsHandler serves organizations and their memberships. Role
// checks run in middleware against the organization named in the path.
// Membership changes reach a user's tokens on their next refresh.
type OrganizationsHandler struct {
	responder
	Organizations *service.OrganizationService
}

// HandleCreate creates an organization owned by the caller.
//
//	@Summary		Create organization
//	@Description	The caller becomes owner. The membership is primary when it is the caller's first.
//	@Tags			Organizations
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.OrganizationRequest	true	"Organization"
//	@Success		201		{object}	authsdk.OrganizationResponse
//	@Failure		400		{object}	authsdk.APIError
//	@Failure		409		{object}	authsdk.APIError	"Slug already taken"
//	@Security		BearerAuth
//	@Router			/api/v1/organizations [post].
func (h *OrganizationsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	claims, _ := httpx.ClaimsFromContext(r.Context())
	userID, err := callerID(claims)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req authsdk.OrganizationRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	org, _, err := h.Organizations.Create(r.Context(), userID, service.CreateOrganizationInput{
		Name:   req.Name,
		Slug:   req.Slug,
		Plan:   req.Plan,
		Status: req.Status,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, toOrganization(org))
}

// HandleList lists the organizations the caller belongs to.
//
//	@Summary		List organizations
//	@Tags			Organizations
//	@Produce		json
//	@Param			X-Organization-ID	header	string	false	"Organization context"
//	@Success		200					{array}	authsdk.OrganizationResponse
//	@Failure		401					{object}	authsdk.APIError
//	@Failure		403					{object}	authsdk.APIError	"No organization context"
//	@Security		BearerAuth
//	@Router			/api/v1/organizations [get].
func (h *OrganizationsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	claims, _ := httpx.ClaimsFromContext(r.Context())
	userID, err := callerID(claims)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	orgs, err := h.Organizations.ListForUser(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	out := make([]authsdk.OrganizationResponse, len(orgs))
	for i, o := range orgs {
		out[i] = toOrganization(o)
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// HandleGet returns one organization.
//
//	@Summary		Get organization
//	@Description	Requires organisations:read_self in the organization.
//	@Tags			Organizations
//	@Produce		json
//	@Param			org_id	path		string	true	"Organization ID"
//	@Success		200		{object}	authsdk.OrganizationResponse
//	@Failure		403		{object}	authsdk.APIError
//	@Failure		404		{object}	authsdk.APIError
//	@Security		BearerAuth
//	@Router			/api/v1/organizations/{org_id} [get].
func (h *OrganizationsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	orgID, err := pathUUID(r, "org_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	org, err := h.Organizations.Get(r.Context(), orgID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toOrganization(org))
}

// HandleUpdate changes an organization. Owner or admin only.
//
//	@Summary		Update organization
//	@Tags			Organizations
//	@Accept			json
//	@Produce		json
//	@Param			org_id	path		string								true	"Organization ID"
//	@Param			body	body		authsdk.OrganizationUpdateRequest	true	"Fields to change"
//	@Success		200		{object}	authsdk.OrganizationResponse
//	@Failure		400		{object}	authsdk.APIError
//	@Failure		403		{object}	authsdk.APIError
//	@Failure		404		{object}	authsdk.APIError
//	@Security		BearerAuth
//	@Router			/api/v1/organizations/{org_id} [put].
func (h *OrganizationsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	orgID, err := pathUUID(r, "org_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req authsdk.OrganizationUpdateRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	org, err := h.Organizations.Update(r.Context(), orgID, service.OrganizationUpdate{
		Name:   req.Name,
		Plan:   req.Plan,
		Status: req.Status,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toOrganization(org))
}

// HandleDelete removes an organization and all its memberships.
//
//	@Summary		Delete organization
//	@Tags			Organizations
//	@Param			org_id	path	string	true	"Organization ID"
//	@Success		204
//	@Failure		403	{object}	authsdk.APIError
//	@Failure		404	{object}	authsdk.APIError
//	@Security		BearerAuth
//	@Router			/api/v1/organizations/{org_id} [delete].
func (h *OrganizationsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	orgID, err := pathUUID(r, "org_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.Organizations.Delete(r.Context(), orgID); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleListMembers lists an organization's memberships.
//
//	@Summary		List memberships
//	@Description	Owner, admin or dispatcher.
//	@Tags			Memberships
//	@Produce		json
//	@Param			org_id	path	string	true	"Organization ID"
//	@Success		200		{array}	authsdk.MembershipResponse
//	@Failure		403		{object}	authsdk.APIError
//	@Security		BearerAuth
//	@Router			/api/v1/organizations/{org_id}/memberships [get].
func (h *OrganizationsHandler) HandleListMembers(w http.ResponseWriter, r *http.Request) {
	orgID, err := pathUUID(r, "org_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ms, err := h.Organizations.ListMembers(r.Context(), orgID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	out := make([]authsdk.MembershipResponse, len(ms))
	for i, m := range ms {
		out[i] = toMembership(m)
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// HandleAddMember adds a user to an organization.
//
//	@Summary		Add membership
//	@Description	Owner or admin.
//	@Tags			Memberships
//	@Accept			json
//	@Produce		json
//	@Param			org_id	path		string						true	"Organization ID"
//	@Param			body	body		authsdk.MembershipRequest	true	"Membership"
//	@Success		201		{object}	authsdk.MembershipResponse
//	@Failure		400		{object}	authsdk.APIError
//	@Failure		403		{object}	authsdk.APIError
//	@Failure		404		{object}	authsdk.APIError	"User not found"
//	@Failure		409		{object}	authsdk.APIError	"Already a member"
//	@Security		BearerAuth
//	@Router			/api/v1/organizations/{org_id}/memberships [post].
func (h *OrganizationsHandler) HandleAddMember(w http.ResponseWriter, r *http.Request) {
	orgID, err := pathUUID(r, "org_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req authsdk.MembershipRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		h.fail(w, r, invalidParam("user_id must be a UUID"))
		return
	}
	role, err := domain.ParseRole(req.Role)
	if err != nil {
		h.fail(w, r, invalidParam("unknown role"))
		return
	}

	m, err := h.Organizations.AddMember(r.Context(), orgID, service.AddMemberInput{
		UserID:    userID,
		Role:      role,
		IsPrimary: req.IsPrimary,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toMembership(m))
}

// HandleUpdateMember changes a membership's role or primary flag.
//
//	@Summary		Update membership
//	@Description	Owner or admin.
//	@Tags			Memberships
//	@Accept			json
//	@Produce		json
//	@Param			org_id			path		string							true	"Organization ID"
//	@Param			membership_id	path		string							true	"Membership ID"
//	@Param			body			body		authsdk.MembershipUpdateRequest	true	"Fields to change"
//	@Success		200				{object}	authsdk.MembershipResponse
//	@Failure		400				{object}	authsdk.APIError
//	@Failure		403				{object}	authsdk.APIError
//	@Failure		404				{object}	authsdk.APIError
//	@Security		BearerAuth
//	@Router			/api/v1/organizations/{org_id}/memberships/{membership_id} [put].
func (h *OrganizationsHandler) HandleUpdateMember(w http.ResponseWriter, r *http.Request) {
	orgID, err := pathUUID(r, "org_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	membershipID, err := pathUUID(r, "membership_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req authsdk.MembershipUpdateRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	upd := service.MembershipUpdate{IsPrimary: req.IsPrimary}
	if req.Role != nil {
		role, err := domain.ParseRole(*req.Role)
		if err != nil {
			h.fail(w, r, invalidParam("unknown role"))
			return
		}
		upd.Role = &role
	}

	m, err := h.Organizations.UpdateMember(r.Context(), orgID, membershipID, upd)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toMembership(m))
}

// HandleRemoveMember deletes a membership.
//
//	@Summary		Remove membership
//	@Description	Owner or admin.
//	@Tags			Memberships
//	@Param			org_id			path	string	true	"Organization ID"
//	@Param			membership_id	path	string	true	"Membership ID"
//	@Success		204
//	@Failure		403	{object}	authsdk.APIError
//	@Failure		404	{object}	authsdk.APIError
//	@Security		BearerAuth
//	@Router			/api/v1/organizations/{org_id}/memberships/{membership_id} [delete].
func (h *OrganizationsHandler) HandleRemoveMember(w http.ResponseWriter, r *http.Request) {
	orgID, err := pathUUID(r, "org_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	membershipID, err := pathUUID(r, "membership_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.Organizations.RemoveMember(r.Context(), orgID, membershipID); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
