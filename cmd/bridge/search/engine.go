// Package search runs one query against the local catalog and the ICD API
// and folds both answers into a single result list.
package search

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/SanteonNL/namaste-bridge/cmd/bridge/icd"
	"github.com/SanteonNL/namaste-bridge/cmd/bridge/terminology"
	"github.com/rs/zerolog"
)

const (
	MinQueryLength         = 3
	DefaultUpstreamTimeout = 5 * time.Second
)

// CatalogReader is the part of terminology.Store the engine needs.
type CatalogReader interface {
	GetCatalog(ctx context.Context, id string) (*terminology.CodeCatalog, error)
}

// Classifier searches the remote classification.
type Classifier interface {
	Search(ctx context.Context, query string) ([]icd.Entity, error)
}

type Engine struct {
	store      CatalogReader
	classifier Classifier
	catalogID  string
	timeout    time.Duration
	log        zerolog.Logger
}

func NewEngine(store CatalogReader, classifier Classifier, catalogID string, timeout time.Duration, log zerolog.Logger) *Engine {
	if timeout <= 0 {
		timeout = DefaultUpstreamTimeout
	}
	return &Engine{
		store:      store,
		classifier: classifier,
		catalogID:  catalogID,
		timeout:    timeout,
		log:        log.With().Str("component", "search").Logger(),
	}
}

// Search returns local matches followed by external matches. A side that
// fails contributes no results and is listed in Unavailable; only an invalid
// query makes Search itself fail.
func (e *Engine) Search(ctx context.Context, query string) (*terminology.SearchResults, error) {
	if utf8.RuneCountInString(query) < MinQueryLength {
		return nil, fmt.Errorf("%w: %q needs at least %d characters", terminology.ErrQueryTooShort, query, MinQueryLength)
	}

	var (
		wg                  sync.WaitGroup
		local, external     []terminology.SearchResult
		localErr, remoteErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		local, localErr = e.searchLocal(ctx, query)
	}()
	go func() {
		defer wg.Done()
		external, remoteErr = e.searchExternal(ctx, query)
	}()
	wg.Wait()

	results := &terminology.SearchResults{
		Query:       query,
		Results:     make([]terminology.SearchResult, 0, len(local)+len(external)),
		Unavailable: []terminology.Source{},
	}
	if localErr != nil {
		e.log.Warn().Err(localErr).Str("query", query).Msg("Local catalog unavailable, continuing without it")
		results.Unavailable = append(results.Unavailable, terminology.SourceLocal)
	}
	if remoteErr != nil {
		e.log.Warn().Err(remoteErr).Str("query", query).Msg("ICD API unavailable, continuing without it")
		results.Unavailable = append(results.Unavailable, terminology.SourceExternal)
	}
	results.Results = append(results.Results, local...)
	results.Results = append(results.Results, external...)

	e.log.Debug().
		Str("query", query).
		Int("local", len(local)).
		Int("external", len(external)).
		Msg("Search completed")
	return results, nil
}

func (e *Engine) searchLocal(ctx context.Context, query string) ([]terminology.SearchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	catalog, err := e.store.GetCatalog(ctx, e.catalogID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch catalog %s: %w", e.catalogID, err)
	}

	matches := catalog.Matching(query)
	results := make([]terminology.SearchResult, 0, len(matches))
	for _, concept := range matches {
		results = append(results, terminology.SearchResult{
			Source:  terminology.SourceLocal,
			Code:    concept.Code,
			Display: concept.Display,
		})
	}
	return results, nil
}

func (e *Engine) searchExternal(ctx context.Context, query string) ([]terminology.SearchResult, error) {
	if e.classifier == nil {
		return nil, fmt.Errorf("%w: no ICD API client configured", terminology.ErrUpstreamUnavailable)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	entities, err := e.classifier.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	results := make([]terminology.SearchResult, 0, len(entities))
	for _, entity := range entities {
		results = append(results, terminology.SearchResult{
			Source:  terminology.SourceExternal,
			Code:    LastPathSegment(entity.ID),
			Display: entity.Title,
		})
	}
	return results, nil
}

// LastPathSegment returns the part of an entity URI after the final slash,
// ignoring a trailing slash.
func LastPathSegment(uri string) string {
	uri = strings.TrimRight(uri, "/")
	if i := strings.LastIndex(uri, "/"); i >= 0 {
		return uri[i+1:]
	}
	return uri
}
