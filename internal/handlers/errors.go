package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"genealogy/internal/logging"
	"genealogy/internal/service"
)

// Response is the envelope every API call answers with
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Errors  []string    `json:"errors,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func respondOK(w http.ResponseWriter, message string, data interface{}) {
	respondJSON(w, http.StatusOK, Response{Success: true, Message: message, Data: data})
}

func respondCreated(w http.ResponseWriter, message string, data interface{}) {
	respondJSON(w, http.StatusCreated, Response{Success: true, Message: message, Data: data})
}

func respondFailure(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, Response{Success: false, Message: message})
}

// respondWithError maps a service error onto a status and a client-safe message.
// Storage failures are already logged by the service with the driver detail.
func respondWithError(w http.ResponseWriter, r *http.Request, logger *logging.Logger, err error) {
	var (
		valErr     *service.ValidationError
		authErr    *service.AuthorizationError
		refErr     *service.ReferentialIntegrityError
		storageErr *service.StorageError
	)

	switch {
	case errors.As(err, &valErr):
		respondJSON(w, http.StatusBadRequest, Response{Message: valErr.Error(), Errors: valErr.Messages})
	case errors.As(err, &authErr), errors.Is(err, service.ErrUnauthorized):
		respondFailure(w, http.StatusForbidden, service.ErrUnauthorized.Error())
	case errors.Is(err, service.ErrMemberNotFound),
		errors.Is(err, service.ErrClanNotFound),
		errors.Is(err, service.ErrMarriageNotFound):
		respondFailure(w, http.StatusNotFound, err.Error())
	case errors.As(err, &refErr):
		respondFailure(w, http.StatusConflict, referentialMessage(refErr))
	case errors.As(err, &storageErr):
		respondFailure(w, http.StatusInternalServerError, storageErr.Error())
	default:
		logger.Err(r.Context(), "unhandled error", "path", r.URL.Path, "err", err)
		respondFailure(w, http.StatusInternalServerError, MsgInternalError)
	}
}

func referentialMessage(e *service.ReferentialIntegrityError) string {
	noun := "children"
	if e.Count == 1 {
		noun = "child"
	}
	switch e.Entity {
	case "member":
		return fmt.Sprintf("Cannot delete this member: %d %s still reference them. Reassign or delete them first.", e.Count, noun)
	case "marriage":
		return fmt.Sprintf("Cannot delete this marriage: the couple has %d %s.", e.Count, noun)
	}
	return e.Error()
}

// decodeJSON reads a request body into v, rejecting unknown fields
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// pathID parses the {name} path segment as a positive id
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// queryInt reads an integer query parameter, returning def when absent or malformed
func queryInt(r *http.Request, name string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return def
	}
	return v
}
