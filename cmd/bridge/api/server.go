// Package api exposes search, translate and bundle submission over HTTP.
package api

import (
	"context"
	"net/http"

	"github.com/SanteonNL/namaste-bridge/cmd/bridge/audit"
	"github.com/SanteonNL/namaste-bridge/cmd/bridge/terminology"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

type Searcher interface {
	Search(ctx context.Context, query string) (*terminology.SearchResults, error)
}

type Translator interface {
	Translate(ctx context.Context, code string, withCandidates bool) (*terminology.Translation, error)
}

type Auditor interface {
	Record(ctx context.Context, userID, action, subjectID string) audit.Record
}

type Server struct {
	search    Searcher
	translate Translator
	auditor   Auditor
	gate      *TokenGate
	origins   []string
	log       zerolog.Logger
}

func NewServer(search Searcher, translate Translator, auditor Auditor, gate *TokenGate, origins []string, log zerolog.Logger) *Server {
	return &Server{
		search:    search,
		translate: translate,
		auditor:   auditor,
		gate:      gate,
		origins:   origins,
		log:       log.With().Str("component", "api").Logger(),
	}
}

// Routes returns the complete handler, middleware included.
func (s *Server) Routes() http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, kindNotFound, "no such endpoint")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, kindMethodNotAllowed, r.Method+" is not allowed here")
	})

	// Registered on the root router: a mux subrouter answers a method
	// mismatch with the parent's 404 handler.
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/search", s.handleSearch).Methods(http.MethodGet)
	r.HandleFunc("/api/translate", s.handleTranslate).Methods(http.MethodGet)
	r.HandleFunc("/api/bundle", s.handleBundle).Methods(http.MethodPost)

	var handler http.Handler = r
	if len(s.origins) > 0 {
		// CORS wraps the router so preflight requests never reach route matching.
		handler = handlers.CORS(
			handlers.AllowedOrigins(s.origins),
			handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
			handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
			handlers.AllowCredentials(),
		)(r)
	}
	return s.withRequestLogging(s.withRecovery(handler))
}
