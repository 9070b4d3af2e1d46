package main

import (
	"context"
	"errors"

	"github.com/SanteonNL/namaste-bridge/cmd/bridge/config"
	"github.com/SanteonNL/namaste-bridge/cmd/bridge/ingest"
	"github.com/SanteonNL/namaste-bridge/cmd/bridge/terminology"
	"github.com/SanteonNL/namaste-bridge/util"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Ingestion is not on a caller's request path, so the FHIR client retries.
const ingestRetryMax = 3

func newIngestCmd(opts *rootOptions) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Load the NAMASTE mapping sheet (CSV or XLSX) into the terminology store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return errors.New("--file is required")
			}
			cfg, log, err := opts.load(cmd.OutOrStdout())
			if err != nil {
				return err
			}

			store, closeStore, err := openStore(cmd.Context(), cfg, ingestRetryMax, log)
			if err != nil {
				return err
			}
			defer closeStore.Close()

			summary, err := loadSheet(cmd.Context(), store, cfg, file, log)
			if err != nil {
				return err
			}

			cmd.Printf("Loaded %d rows into %s and %s\n", summary.Rows, summary.CatalogID, summary.TableID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "mapping sheet to load (.csv, .tsv or .xlsx)")
	return cmd
}

// loadSheet builds the configured catalog and table from a mapping sheet
// and stores both.
func loadSheet(ctx context.Context, store terminology.Store, cfg *config.Config, file string, log zerolog.Logger) (*ingest.Summary, error) {
	path, err := util.AbsolutePath(file)
	if err != nil {
		return nil, err
	}

	target := ingest.DefaultTarget()
	target.CatalogID = cfg.Terminology.CodeSystemID
	target.TableID = cfg.Terminology.ConceptMapID
	target.Catalog.URL = cfg.Terminology.CodeSystemURL
	target.Table.URL = cfg.Terminology.ConceptMapURL
	target.Table.TargetURI = cfg.Terminology.TargetSystemURL

	summary, err := ingest.NewLoader(store, log).LoadFile(ctx, path, target)
	if err != nil {
		var rowErr *terminology.RowError
		if errors.As(err, &rowErr) {
			log.Error().Int("row", rowErr.Row).Err(err).Msg("Mapping sheet rejected")
		}
		return nil, err
	}
	return summary, nil
}
