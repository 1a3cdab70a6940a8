package http

import (
	"net/http"

	"github.com/aussiebroadwan/presence/pkg/httpx"
)

// MemberHandler reads the caller's teammates.
type MemberHandler struct {
	clientHandler
}

// HandleList godoc
//
//	@Summary	Teammates of the caller
//	@Tags		Members
//	@Security	BearerAuth
//	@Produce	json
//	@Success	200	{object}	MembersResponse
//	@Router		/v1/team/members [get].
func (h *MemberHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	c := h.client(w, r)
	if c == nil {
		return
	}

	members, err := c.Observer.Members(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toMembers(members))
}

// HandleGet godoc
//
//	@Summary	One member
//	@Tags		Members
//	@Security	BearerAuth
//	@Produce	json
//	@Param		id	path		string	true	"user id"
//	@Success	200	{object}	MemberResponse
//	@Failure	404	{object}	httpx.ErrorBody
//	@Router		/v1/team/members/{id} [get].
func (h *MemberHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	c := h.client(w, r)
	if c == nil {
		return
	}

	m, err := c.Observer.Member(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toMember(m))
}

// HandleStatusRequest asks a member for their current status.
//
//	@Summary	Ask a member for their status
//	@Tags		Notifications
//	@Security	BearerAuth
//	@Produce	json
//	@Param		id	path		string	true	"recipient user id"
//	@Success	201	{object}	CreatedResponse
//	@Failure	400	{object}	httpx.ErrorBody
//	@Router		/v1/members/{id}/status-request [post].
func (h *MemberHandler) HandleStatusRequest(w http.ResponseWriter, r *http.Request) {
	c := h.client(w, r)
	if c == nil {
		return
	}

	id, err := c.Notifications.RequestStatus(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, CreatedResponse{ID: id})
}
