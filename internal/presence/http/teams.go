package http

import (
	"net/http"

	"github.com/aussiebroadwan/presence/pkg/httpx"
)

// TeamHandler creates, joins and looks up teams.
type TeamHandler struct {
	clientHandler
}

// HandleCreate godoc
//
//	@Summary	Create a team and join it
//	@Tags		Teams
//	@Security	BearerAuth
//	@Accept		json
//	@Produce	json
//	@Param		request	body		CreateTeamRequest	true	"team name"
//	@Success	201		{object}	TeamResponse
//	@Failure	400		{object}	httpx.ErrorBody
//	@Router		/v1/teams [post].
func (h *TeamHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateTeamRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	c := h.client(w, r)
	if c == nil {
		return
	}

	code, err := c.Teams.CreateTeam(r.Context(), req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	team, err := c.Teams.Team(r.Context(), code)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toTeam(team))
}

// HandleJoin godoc
//
//	@Summary	Join a team by code
//	@Tags		Teams
//	@Security	BearerAuth
//	@Accept		json
//	@Param		request	body	JoinTeamRequest	true	"team code"
//	@Success	204
//	@Failure	404	{object}	httpx.ErrorBody	"unknown code"
//	@Router		/v1/teams/join [post].
func (h *TeamHandler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	var req JoinTeamRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	c := h.client(w, r)
	if c == nil {
		return
	}

	if err := c.Teams.JoinTeam(r.Context(), req.Code); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleGet godoc
//
//	@Summary	Look up a team
//	@Tags		Teams
//	@Security	BearerAuth
//	@Produce	json
//	@Param		code	path		string	true	"team code"
//	@Success	200		{object}	TeamResponse
//	@Failure	404		{object}	httpx.ErrorBody
//	@Router		/v1/teams/{code} [get].
func (h *TeamHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	c := h.client(w, r)
	if c == nil {
		return
	}

	team, err := c.Teams.Team(r.Context(), r.PathValue("code"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toTeam(team))
}
