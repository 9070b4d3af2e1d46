// Package translate resolves a NAMASTE code to its ICD-11 equivalent.
package translate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/SanteonNL/namaste-bridge/cmd/bridge/terminology"
	"github.com/rs/zerolog"
)

const DefaultUpstreamTimeout = 5 * time.Second

// Resolver is the part of terminology.Store the translator needs.
type Resolver interface {
	Translate(ctx context.Context, system, code string) ([]terminology.Target, error)
}

type Translator struct {
	store   Resolver
	system  string
	timeout time.Duration
	log     zerolog.Logger
}

// NewTranslator resolves codes of the given source system, normally the
// NAMASTE code system URL.
func NewTranslator(store Resolver, system string, timeout time.Duration, log zerolog.Logger) *Translator {
	if timeout <= 0 {
		timeout = DefaultUpstreamTimeout
	}
	return &Translator{
		store:   store,
		system:  system,
		timeout: timeout,
		log:     log.With().Str("component", "translate").Logger(),
	}
}

// Translate returns the first target listed for code. When several targets
// exist the first one wins; withCandidates additionally returns all of them.
//
// A code without a mapping, and a mapping whose answer holds no usable target,
// both fail with terminology.ErrNotFound. A store that cannot be reached fails
// with terminology.ErrUpstreamUnavailable.
func (t *Translator) Translate(ctx context.Context, code string, withCandidates bool) (*terminology.Translation, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("%w: empty code", terminology.ErrNotFound)
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	targets, err := t.store.Translate(ctx, t.system, code)
	if err != nil {
		t.log.Debug().Err(err).Str("code", code).Msg("Translate failed")
		return nil, fmt.Errorf("could not translate %s: %w", code, err)
	}

	usable := make([]terminology.Target, 0, len(targets))
	for _, target := range targets {
		if target.Code != "" {
			usable = append(usable, target)
		}
	}
	if len(usable) == 0 {
		if len(targets) == 0 {
			return nil, fmt.Errorf("%w: no mapping for %s", terminology.ErrNotFound, code)
		}
		return nil, fmt.Errorf("%w: mapping for %s has no resolvable target", terminology.ErrNotFound, code)
	}

	first := usable[0]
	translation := &terminology.Translation{
		SourceCode:    code,
		TargetCode:    first.Code,
		TargetDisplay: first.Display,
		TargetSystem:  first.System,
		Equivalence:   first.Equivalence,
	}
	if withCandidates {
		translation.Candidates = usable
	}

	t.log.Debug().
		Str("code", code).
		Str("target", first.Code).
		Int("candidates", len(usable)).
		Msg("Translated code")
	return translation, nil
}
