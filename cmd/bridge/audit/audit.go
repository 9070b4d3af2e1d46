// Package audit records who submitted what.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	ActionBundleReceived = "Received and validated FHIR Bundle"
	UnknownSubject       = "Unknown"
)

type Record struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	UserID    string    `json:"userId"`
	Action    string    `json:"action"`
	SubjectID string    `json:"subjectId"`
}

// Sink persists audit records.
type Sink interface {
	Write(ctx context.Context, record Record) error
}

// Auditor stamps records and hands them to every sink. A sink that fails is
// logged and skipped; auditing never fails the audited operation.
type Auditor struct {
	sinks []Sink
	now   func() time.Time
	log   zerolog.Logger
}

func NewAuditor(log zerolog.Logger, sinks ...Sink) *Auditor {
	return &Auditor{
		sinks: sinks,
		now:   func() time.Time { return time.Now().UTC() },
		log:   log.With().Str("component", "audit").Logger(),
	}
}

func (a *Auditor) Record(ctx context.Context, userID, action, subjectID string) Record {
	if subjectID == "" {
		subjectID = UnknownSubject
	}
	record := Record{
		ID:        uuid.NewString(),
		Timestamp: a.now(),
		UserID:    userID,
		Action:    action,
		SubjectID: subjectID,
	}
	for _, sink := range a.sinks {
		if err := sink.Write(ctx, record); err != nil {
			a.log.Error().Err(err).Str("audit_id", record.ID).Msg("Failed to write audit record")
		}
	}
	return record
}

// LogSink writes each record as one structured log line.
type LogSink struct {
	log zerolog.Logger
}

func NewLogSink(log zerolog.Logger) *LogSink {
	return &LogSink{log: log.With().Str("component", "audit_log").Logger()}
}

func (s *LogSink) Write(_ context.Context, record Record) error {
	s.log.Info().
		Str("audit_id", record.ID).
		Time("timestamp", record.Timestamp).
		Str("user_id", record.UserID).
		Str("action", record.Action).
		Str("subject_id", record.SubjectID).
		Msg("AUDIT")
	return nil
}
