package handlers

import (
	"net/http"

	"genealogy/internal/logging"
	"genealogy/internal/models"
	"genealogy/internal/service"
)

// MemberHandler handles member HTTP requests
type MemberHandler struct {
	memberService *service.MemberService
	logger        *logging.Logger
}

// NewMemberHandler creates a new member handler
func NewMemberHandler(memberService *service.MemberService, logger *logging.Logger) *MemberHandler {
	return &MemberHandler{memberService: memberService, logger: logger}
}

// List returns a page of members. ?page, ?per_page and ?include_deleted=1 are honored.
func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	perPage := queryInt(r, "per_page", service.DefaultPageSize)
	includeDeleted := r.URL.Query().Get("include_deleted") == "1"

	members, err := h.memberService.List(r.Context(), actorFrom(r), page, perPage, includeDeleted)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondOK(w, "", members)
}

// Search finds members by name with ?q and an optional ?limit
func (h *MemberHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	limit := queryInt(r, "limit", service.DefaultPageSize)

	members, err := h.memberService.Search(r.Context(), actorFrom(r), query, limit)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondOK(w, "", members)
}

// Get returns one member
func (h *MemberHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondFailure(w, http.StatusBadRequest, MsgInvalidID)
		return
	}

	member, err := h.memberService.Get(r.Context(), actorFrom(r), id)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondOK(w, "", member)
}

// Profile returns a member with parents, children and marriages
func (h *MemberHandler) Profile(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondFailure(w, http.StatusBadRequest, MsgInvalidID)
		return
	}

	profile, err := h.memberService.Profile(r.Context(), actorFrom(r), id)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondOK(w, "", profile)
}

// Create adds a member
func (h *MemberHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in models.MemberInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondFailure(w, http.StatusBadRequest, MsgInvalidJSON)
		return
	}

	member, err := h.memberService.Create(r.Context(), actorFrom(r), &in)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondCreated(w, MsgMemberCreated, member)
}

// Update overwrites a member
func (h *MemberHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondFailure(w, http.StatusBadRequest, MsgInvalidID)
		return
	}

	var in models.MemberInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondFailure(w, http.StatusBadRequest, MsgInvalidJSON)
		return
	}

	member, err := h.memberService.Update(r.Context(), actorFrom(r), id, &in)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondOK(w, MsgMemberUpdated, member)
}

// SoftDelete hides a member
func (h *MemberHandler) SoftDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondFailure(w, http.StatusBadRequest, MsgInvalidID)
		return
	}

	if err := h.memberService.SoftDelete(r.Context(), actorFrom(r), id); err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondOK(w, MsgMemberDeleted, nil)
}

// Restore brings back a soft-deleted member
func (h *MemberHandler) Restore(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondFailure(w, http.StatusBadRequest, MsgInvalidID)
		return
	}

	if err := h.memberService.Restore(r.Context(), actorFrom(r), id); err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondOK(w, MsgMemberRestored, nil)
}

// HardDelete removes a member permanently
func (h *MemberHandler) HardDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondFailure(w, http.StatusBadRequest, MsgInvalidID)
		return
	}

	if err := h.memberService.HardDelete(r.Context(), actorFrom(r), id); err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondOK(w, MsgMemberRemoved, nil)
}
