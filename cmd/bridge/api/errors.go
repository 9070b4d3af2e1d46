package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/SanteonNL/namaste-bridge/cmd/bridge/terminology"
)

const (
	kindBadRequest          = "bad_request"
	kindQueryTooShort       = "query_too_short"
	kindNotFound            = "not_found"
	kindUpstreamUnavailable = "upstream_unavailable"
	kindUnauthorized        = "unauthorized"
	kindMethodNotAllowed    = "method_not_allowed"
	kindInternal            = "internal_error"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// classify maps a domain error to a status, an error kind and the message
// shown to the caller. Unknown errors get a generic message.
func classify(err error) (int, string, string) {
	switch {
	case errors.Is(err, terminology.ErrQueryTooShort):
		return http.StatusBadRequest, kindQueryTooShort, "query must be at least 3 characters long"
	case errors.Is(err, terminology.ErrNotFound):
		return http.StatusNotFound, kindNotFound, "no translation available for this code"
	case errors.Is(err, terminology.ErrUpstreamUnavailable):
		return http.StatusBadGateway, kindUpstreamUnavailable, "terminology server could not be reached"
	default:
		return http.StatusInternalServerError, kindInternal, "internal server error"
	}
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	respondWithJSON(w, status, errorResponse{Error: kind, Message: message})
}

func respondWithJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
