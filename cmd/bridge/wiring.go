package main

import (
	"context"
	"fmt"
	"io"

	"github.com/SanteonNL/namaste-bridge/cmd/bridge/audit"
	"github.com/SanteonNL/namaste-bridge/cmd/bridge/config"
	"github.com/SanteonNL/namaste-bridge/cmd/bridge/fhirstore"
	"github.com/SanteonNL/namaste-bridge/cmd/bridge/icd"
	"github.com/SanteonNL/namaste-bridge/cmd/bridge/memstore"
	"github.com/SanteonNL/namaste-bridge/cmd/bridge/sqlstore"
	"github.com/SanteonNL/namaste-bridge/cmd/bridge/terminology"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
)

type noopCloser struct{}

func (noopCloser) Close() error { return nil }

// openStore returns the configured store and the closer releasing it. retryMax
// only applies to the fhir driver.
func openStore(ctx context.Context, cfg *config.Config, retryMax int, log zerolog.Logger) (terminology.Store, io.Closer, error) {
	switch cfg.Store.Driver {
	case config.DriverFHIR:
		client := fhirstore.NewClient(fhirstore.Config{
			BaseURL:      cfg.Store.FHIRBaseURL,
			ConceptMapID: cfg.Terminology.ConceptMapID,
			Timeout:      cfg.UpstreamTimeout.Duration,
			RetryMax:     retryMax,
		}, log)
		return client, noopCloser{}, nil
	case config.DriverPostgres, config.DriverSQLite:
		store, err := sqlstore.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL, log)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	case config.DriverMemory:
		return memstore.New(log), noopCloser{}, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// newClassifier returns nil when no WHO API credentials are configured;
// search then reports the external side as unavailable.
func newClassifier(cfg *config.Config, log zerolog.Logger) *icd.Client {
	if !cfg.ICDEnabled() {
		log.Warn().Msg("WHO API credentials not set, ICD-11 search disabled")
		return nil
	}
	credentials := icd.NewCredentialCache(icd.CredentialConfig{
		ClientID:     cfg.ICD.ClientID,
		ClientSecret: cfg.ICD.ClientSecret,
		TokenURL:     cfg.ICD.TokenURL,
		Timeout:      cfg.UpstreamTimeout.Duration,
	}, log)
	return icd.NewClient(icd.Config{
		BaseURL:           cfg.ICD.BaseURL,
		Language:          cfg.ICD.Language,
		Timeout:           cfg.UpstreamTimeout.Duration,
		RequestsPerSecond: cfg.ICD.Rate,
	}, credentials, log)
}

func newAuditor(cfg *config.Config, log zerolog.Logger) (*audit.Auditor, io.Closer) {
	sinks := []audit.Sink{audit.NewLogSink(log)}
	if cfg.Audit.RedisAddr == "" {
		return audit.NewAuditor(log, sinks...), noopCloser{}
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.Audit.RedisAddr})
	sinks = append(sinks, audit.NewRedisSink(client, cfg.Audit.Stream, 0, log))
	log.Info().Str("addr", cfg.Audit.RedisAddr).Str("stream", cfg.Audit.Stream).Msg("Audit records go to Redis")
	return audit.NewAuditor(log, sinks...), client
}
