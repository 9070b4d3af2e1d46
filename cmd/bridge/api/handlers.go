package api

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/SanteonNL/namaste-bridge/cmd/bridge/audit"
	"github.com/rs/zerolog"
)

const maxBundleBytes = 10 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")

	results, err := s.search.Search(r.Context(), query)
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, results)
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	code := strings.TrimSpace(params.Get("code"))
	if code == "" {
		writeError(w, http.StatusBadRequest, kindBadRequest, "code parameter is required")
		return
	}

	all := false
	if v := params.Get("all"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, kindBadRequest, "all must be true or false")
			return
		}
		all = parsed
	}

	translation, err := s.translate.Translate(r.Context(), code, all)
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, translation)
}

type submitResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	AuditID string `json:"audit_id"`
}

func (s *Server) handleBundle(w http.ResponseWriter, r *http.Request) {
	userID, err := s.gate.Authenticate(r)
	if err != nil {
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeError(w, http.StatusUnauthorized, kindUnauthorized, err.Error())
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBundleBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, kindBadRequest, "could not read request body")
		return
	}
	submission, err := parseSubmission(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, kindBadRequest, "invalid input, body must be a valid FHIR Bundle: "+err.Error())
		return
	}

	record := s.auditor.Record(r.Context(), userID, audit.ActionBundleReceived, submission.SubjectID())
	zerolog.Ctx(r.Context()).Debug().
		Str("audit_id", record.ID).
		Int("entries", len(submission.Entries)).
		Msg("Bundle accepted")

	respondWithJSON(w, http.StatusOK, submitResponse{
		Status:  "success",
		Message: "FHIR Bundle received successfully.",
		AuditID: record.ID,
	})
}

func (s *Server) respondWithError(w http.ResponseWriter, r *http.Request, err error) {
	status, kind, message := classify(err)
	event := zerolog.Ctx(r.Context()).Debug()
	if status >= http.StatusInternalServerError {
		event = zerolog.Ctx(r.Context()).Error()
	}
	event.Err(err).Str("path", r.URL.Path).Msg("Request failed")
	writeError(w, status, kind, message)
}
