package handlers

import (
	"net/http"
	"strconv"

	"genealogy/internal/logging"
	"genealogy/internal/service"
)

// TreeHandler serves the family tree projections
type TreeHandler struct {
	treeService *service.TreeService
	logger      *logging.Logger
}

// NewTreeHandler creates a new tree handler
func NewTreeHandler(treeService *service.TreeService, logger *logging.Logger) *TreeHandler {
	return &TreeHandler{treeService: treeService, logger: logger}
}

// Forest returns the assembled tree, optionally limited to ?clan_id
func (h *TreeHandler) Forest(w http.ResponseWriter, r *http.Request) {
	var clanID *int64
	if raw := r.URL.Query().Get("clan_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			respondFailure(w, http.StatusBadRequest, MsgInvalidID)
			return
		}
		clanID = &id
	}

	forest, err := h.treeService.Forest(r.Context(), actorFrom(r), clanID)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondOK(w, "", forest)
}

// Flat returns the rows the tree is built from
func (h *TreeHandler) Flat(w http.ResponseWriter, r *http.Request) {
	rows, err := h.treeService.Flat(r.Context(), actorFrom(r))
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondOK(w, "", rows)
}

// Ancestors returns a member's ancestors, nearest first
func (h *TreeHandler) Ancestors(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondFailure(w, http.StatusBadRequest, MsgInvalidID)
		return
	}

	line, err := h.treeService.Ancestors(r.Context(), actorFrom(r), id)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondOK(w, "", line)
}

// Descendants returns a member's descendants, nearest first
func (h *TreeHandler) Descendants(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondFailure(w, http.StatusBadRequest, MsgInvalidID)
		return
	}

	line, err := h.treeService.Descendants(r.Context(), actorFrom(r), id)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondOK(w, "", line)
}
