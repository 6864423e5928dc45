package handlers

import (
	"net/http"

	"genealogy/internal/logging"
	"genealogy/internal/models"
	"genealogy/internal/service"
)

// MarriageHandler handles marriage HTTP requests
type MarriageHandler struct {
	marriageService *service.MarriageService
	logger          *logging.Logger
}

// NewMarriageHandler creates a new marriage handler
func NewMarriageHandler(marriageService *service.MarriageService, logger *logging.Logger) *MarriageHandler {
	return &MarriageHandler{marriageService: marriageService, logger: logger}
}

// ForMember returns a member's marriages. ?with_children=1 nests each couple's children.
func (h *MarriageHandler) ForMember(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondFailure(w, http.StatusBadRequest, MsgInvalidID)
		return
	}

	var (
		data interface{}
		err  error
	)
	if r.URL.Query().Get("with_children") == "1" {
		data, err = h.marriageService.History(r.Context(), actorFrom(r), id)
	} else {
		data, err = h.marriageService.ForMember(r.Context(), actorFrom(r), id)
	}
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondOK(w, "", data)
}

// Get returns one marriage
func (h *MarriageHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondFailure(w, http.StatusBadRequest, MsgInvalidID)
		return
	}

	marriage, err := h.marriageService.Get(r.Context(), actorFrom(r), id)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondOK(w, "", marriage)
}

// Children returns the children of a marriage
func (h *MarriageHandler) Children(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondFailure(w, http.StatusBadRequest, MsgInvalidID)
		return
	}

	children, err := h.marriageService.Children(r.Context(), actorFrom(r), id)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondOK(w, "", children)
}

// Create adds a marriage
func (h *MarriageHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in models.MarriageInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondFailure(w, http.StatusBadRequest, MsgInvalidJSON)
		return
	}

	marriage, err := h.marriageService.Create(r.Context(), actorFrom(r), &in)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondCreated(w, MsgMarriageCreated, marriage)
}

// Update overwrites a marriage
func (h *MarriageHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondFailure(w, http.StatusBadRequest, MsgInvalidID)
		return
	}

	var in models.MarriageInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondFailure(w, http.StatusBadRequest, MsgInvalidJSON)
		return
	}

	marriage, err := h.marriageService.Update(r.Context(), actorFrom(r), id, &in)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondOK(w, MsgMarriageUpdated, marriage)
}

// Delete removes a marriage
func (h *MarriageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondFailure(w, http.StatusBadRequest, MsgInvalidID)
		return
	}

	if err := h.marriageService.Delete(r.Context(), actorFrom(r), id); err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondOK(w, MsgMarriageDeleted, nil)
}
