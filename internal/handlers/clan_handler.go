package handlers

import (
	"net/http"

	"genealogy/internal/logging"
	"genealogy/internal/models"
	"genealogy/internal/service"
)

// ClanHandler handles clan HTTP requests
type ClanHandler struct {
	clanService *service.ClanService
	logger      *logging.Logger
}

// NewClanHandler creates a new clan handler
func NewClanHandler(clanService *service.ClanService, logger *logging.Logger) *ClanHandler {
	return &ClanHandler{clanService: clanService, logger: logger}
}

// List returns every clan with locations and surnames
func (h *ClanHandler) List(w http.ResponseWriter, r *http.Request) {
	clans, err := h.clanService.List(r.Context(), actorFrom(r))
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondOK(w, "", clans)
}

// ListSimple returns id/name pairs for dropdowns
func (h *ClanHandler) ListSimple(w http.ResponseWriter, r *http.Request) {
	clans, err := h.clanService.ListSimple(r.Context(), actorFrom(r))
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondOK(w, "", clans)
}

// Get returns one clan
func (h *ClanHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondFailure(w, http.StatusBadRequest, MsgInvalidID)
		return
	}

	clan, err := h.clanService.Get(r.Context(), actorFrom(r), id)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondOK(w, "", clan)
}

// Create adds a clan
func (h *ClanHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in models.ClanInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondFailure(w, http.StatusBadRequest, MsgInvalidJSON)
		return
	}

	clan, err := h.clanService.Create(r.Context(), actorFrom(r), &in)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondCreated(w, MsgClanCreated, clan)
}

// Update overwrites a clan
func (h *ClanHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondFailure(w, http.StatusBadRequest, MsgInvalidID)
		return
	}

	var in models.ClanInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondFailure(w, http.StatusBadRequest, MsgInvalidJSON)
		return
	}

	clan, err := h.clanService.Update(r.Context(), actorFrom(r), id, &in)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondOK(w, MsgClanUpdated, clan)
}

// Delete removes a clan
func (h *ClanHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondFailure(w, http.StatusBadRequest, MsgInvalidID)
		return
	}

	if err := h.clanService.Delete(r.Context(), actorFrom(r), id); err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondOK(w, MsgClanDeleted, nil)
}
