package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/SanteonNL/namaste-bridge/cmd/bridge/api"
	"github.com/SanteonNL/namaste-bridge/cmd/bridge/config"
	"github.com/SanteonNL/namaste-bridge/cmd/bridge/search"
	"github.com/SanteonNL/namaste-bridge/cmd/bridge/terminology"
	"github.com/SanteonNL/namaste-bridge/cmd/bridge/translate"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var errMemoryNeedsSeed = errors.New("the memory store driver is empty in a new process, pass --seed with a mapping sheet")

func newServeCmd(opts *rootOptions) *cobra.Command {
	var seed string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the search, translate and bundle API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.load(cmd.OutOrStdout())
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			store, closeStore, err := openServeStore(ctx, cfg, seed, log)
			if err != nil {
				return err
			}
			defer closeStore.Close()

			auditor, closeAudit := newAuditor(cfg, log)
			defer closeAudit.Close()

			var classifier search.Classifier
			if client := newClassifier(cfg, log); client != nil {
				classifier = client
			}

			catalogs := search.NewCatalogCache(store, search.CacheConfig{
				TTL:             cfg.CatalogCacheTTL.Duration,
				CleanupInterval: cfg.CatalogCacheTTL.Duration,
			}, log)
			if cache, ok := catalogs.(*search.CatalogCache); ok {
				defer cache.Stop()
			}

			server := api.NewServer(
				search.NewEngine(catalogs, classifier, cfg.Terminology.CodeSystemID, cfg.UpstreamTimeout.Duration, log),
				translate.NewTranslator(store, cfg.Terminology.CodeSystemURL, cfg.UpstreamTimeout.Duration, log),
				auditor,
				api.NewTokenGate(cfg.Auth.Token, cfg.Auth.UserID),
				cfg.CORSOrigins,
				log,
			)
			if cfg.Auth.Token == "" {
				log.Warn().Msg("API_TOKEN not set, bundle submissions will be rejected")
			}

			httpServer := &http.Server{
				Addr:              cfg.Addr,
				Handler:           server.Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info().Str("addr", cfg.Addr).Str("store", cfg.Store.Driver).Msg("Starting bridge API")
				errCh <- httpServer.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			log.Info().Msg("Shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&seed, "seed", "", "mapping sheet to load before serving (required for the memory store driver)")
	return cmd
}

// openServeStore opens the configured store and, when seed is set, loads the
// mapping sheet into it before any request is served.
func openServeStore(ctx context.Context, cfg *config.Config, seed string, log zerolog.Logger) (terminology.Store, io.Closer, error) {
	if cfg.Store.Driver == config.DriverMemory && seed == "" {
		return nil, nil, errMemoryNeedsSeed
	}
	store, closer, err := openStore(ctx, cfg, 0, log)
	if err != nil {
		return nil, nil, err
	}
	if seed == "" {
		return store, closer, nil
	}
	summary, err := loadSheet(ctx, store, cfg, seed, log)
	if err != nil {
		closer.Close()
		return nil, nil, err
	}
	log.Info().Int("rows", summary.Rows).Str("file", seed).Msg("Seeded terminology store")
	return store, closer, nil
}
