package api

import (
	"net/http"

	"github.com/felixge/httpsnoop"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const requestIDHeader = "X-Request-ID"

// withRequestLogging tags each request with an id, puts a request logger in
// the context and logs the outcome.
func (s *Server) withRequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)

		log := s.log.With().Str("request_id", requestID).Logger()
		r = r.WithContext(log.WithContext(r.Context()))

		m := httpsnoop.CaptureMetrics(next, w, r)

		event := log.Info()
		if m.Code >= http.StatusInternalServerError {
			event = log.Warn()
		}
		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", m.Code).
			Dur("duration", m.Duration).
			Int64("bytes", m.Written).
			Msg("Request handled")
	})
}

func (s *Server) withRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				zerolog.Ctx(r.Context()).Error().
					Interface("panic", rec).
					Str("path", r.URL.Path).
					Msg("Recovered from panic")
				writeError(w, http.StatusInternalServerError, kindInternal, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
