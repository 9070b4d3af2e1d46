package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/SanteonNL/namaste-bridge/cmd/bridge/terminology"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildSample(t *testing.T) (*terminology.CodeCatalog, *terminology.MappingTable) {
	t.Helper()
	catalog, table, err := terminology.Build([]terminology.Row{
		{SourceCode: "ASU001", SourceTerm: "Vata imbalance", TargetCode: "TM26.0", TargetTerm: "Vata pattern"},
		{SourceCode: "ASU002", SourceTerm: "Pitta imbalance", TargetCode: "TM26.1", TargetTerm: "Pitta pattern"},
	}, terminology.DefaultCatalogInfo(), terminology.DefaultTableInfo())
	require.NoError(t, err)
	return catalog, table
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := New(zerolog.Nop())
	catalog, table := buildSample(t)

	require.NoError(t, store.PutCatalog(ctx, terminology.NamasteCodeSystemID, catalog))
	require.NoError(t, store.PutMappingTable(ctx, terminology.NamasteConceptMapID, table))

	got, err := store.GetCatalog(ctx, terminology.NamasteCodeSystemID)
	require.NoError(t, err)
	assert.Equal(t, catalog, got)

	targets, err := store.Translate(ctx, terminology.NamasteCodeSystemURL, "ASU002")
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, "TM26.1", targets[0].Code)
	assert.Equal(t, terminology.ICD11EntitySystemURL, targets[0].System)
}

func TestStore_PutIsIdempotentUpsert(t *testing.T) {
	ctx := context.Background()
	store := New(zerolog.Nop())
	catalog, table := buildSample(t)

	require.NoError(t, store.PutCatalog(ctx, "cs", catalog))
	require.NoError(t, store.PutCatalog(ctx, "cs", catalog))
	require.NoError(t, store.PutMappingTable(ctx, "cm", table))
	require.NoError(t, store.PutMappingTable(ctx, "cm", table))

	assert.Len(t, store.bySource[table.SourceURI], 1)
}

func TestStore_TablesAnswerInStoredOrder(t *testing.T) {
	ctx := context.Background()
	store := New(zerolog.Nop())
	tableFor := func(target string) *terminology.MappingTable {
		_, table, err := terminology.Build([]terminology.Row{
			{SourceCode: "ASU001", SourceTerm: "Vata imbalance", TargetCode: target, TargetTerm: target},
		}, terminology.DefaultCatalogInfo(), terminology.DefaultTableInfo())
		require.NoError(t, err)
		return table
	}

	require.NoError(t, store.PutMappingTable(ctx, "zz", tableFor("TM1")))
	require.NoError(t, store.PutMappingTable(ctx, "aa", tableFor("TM2")))

	targets, err := store.Translate(ctx, terminology.NamasteCodeSystemURL, "ASU001")
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, "TM1", targets[0].Code)

	// Storing zz again moves it behind aa.
	require.NoError(t, store.PutMappingTable(ctx, "zz", tableFor("TM3")))
	targets, err = store.Translate(ctx, terminology.NamasteCodeSystemURL, "ASU001")
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, "TM2", targets[0].Code)
}

func TestStore_CopiesOnPut(t *testing.T) {
	ctx := context.Background()
	store := New(zerolog.Nop())
	catalog, _ := buildSample(t)

	require.NoError(t, store.PutCatalog(ctx, "cs", catalog))
	catalog.Concepts[0].Display = "changed"

	got, err := store.GetCatalog(ctx, "cs")
	require.NoError(t, err)
	assert.Equal(t, "Vata imbalance", got.Concepts[0].Display)
}

func TestStore_NotFound(t *testing.T) {
	ctx := context.Background()
	store := New(zerolog.Nop())
	_, table := buildSample(t)

	_, err := store.GetCatalog(ctx, "missing")
	assert.True(t, errors.Is(err, terminology.ErrNotFound))

	_, err = store.Translate(ctx, "http://unknown", "A")
	assert.True(t, errors.Is(err, terminology.ErrNotFound))

	require.NoError(t, store.PutMappingTable(ctx, "cm", table))
	targets, err := store.Translate(ctx, table.SourceURI, "NOPE")
	require.NoError(t, err)
	assert.Empty(t, targets)
}

func TestStore_CancelledContextIsUnavailable(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(zerolog.Nop()).GetCatalog(ctx, "cs")
	assert.True(t, errors.Is(err, terminology.ErrUpstreamUnavailable))
}
