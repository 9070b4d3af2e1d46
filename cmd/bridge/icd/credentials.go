package icd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultTokenURL = "https://icdaccessmanagement.who.int/connect/token"
	DefaultScope    = "icdapi_access"
)

// TokenFetcher exchanges client credentials for a token.
// *clientcredentials.Config satisfies it.
type TokenFetcher interface {
	Token(ctx context.Context) (*oauth2.Token, error)
}

// CredentialCache is the process-wide slot for the ICD API bearer token.
// It is filled lazily; callers racing on an empty or expired slot share a
// single fetch. A token without an expiry is kept for the lifetime of the
// process.
type CredentialCache struct {
	fetcher TokenFetcher
	timeout time.Duration
	log     zerolog.Logger

	mu    sync.Mutex
	token *oauth2.Token
	group singleflight.Group
}

type CredentialConfig struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	Scopes       []string
	Timeout      time.Duration
}

// NewCredentialCache builds a cache backed by the OAuth2 client-credentials
// flow.
func NewCredentialCache(cfg CredentialConfig, log zerolog.Logger) *CredentialCache {
	if cfg.TokenURL == "" {
		cfg.TokenURL = DefaultTokenURL
	}
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = []string{DefaultScope}
	}
	fetcher := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		Scopes:       cfg.Scopes,
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	return NewCredentialCacheWithFetcher(fetcher, cfg.Timeout, log)
}

func NewCredentialCacheWithFetcher(fetcher TokenFetcher, timeout time.Duration, log zerolog.Logger) *CredentialCache {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &CredentialCache{
		fetcher: fetcher,
		timeout: timeout,
		log:     log.With().Str("component", "icd_credentials").Logger(),
	}
}

// Token returns a valid access token, fetching one if the slot is empty.
func (c *CredentialCache) Token(ctx context.Context) (string, error) {
	if tok := c.cached(); tok != nil {
		return tok.AccessToken, nil
	}

	ch := c.group.DoChan("token", func() (interface{}, error) {
		if tok := c.cached(); tok != nil {
			return tok, nil
		}
		return c.fetch(ctx)
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(*oauth2.Token).AccessToken, nil
	}
}

// Invalidate empties the slot, e.g. after the API rejected the token.
func (c *CredentialCache) Invalidate() {
	c.mu.Lock()
	c.token = nil
	c.mu.Unlock()
	c.log.Debug().Msg("Cached ICD API token dropped")
}

func (c *CredentialCache) cached() *oauth2.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token.Valid() {
		return c.token
	}
	return nil
}

// fetch runs detached from the first caller's cancellation, since its result
// is shared with every caller waiting on the same flight.
func (c *CredentialCache) fetch(ctx context.Context) (*oauth2.Token, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Timeout: c.timeout})

	c.log.Debug().Msg("Fetching new ICD API token")
	tok, err := c.fetcher.Token(ctx)
	if err != nil {
		c.log.Error().Err(err).Msg("Error fetching ICD API token")
		return nil, fmt.Errorf("failed to obtain ICD API token: %w", err)
	}
	if tok == nil || tok.AccessToken == "" {
		return nil, errors.New("token endpoint returned no access token")
	}

	c.mu.Lock()
	c.token = tok
	c.mu.Unlock()

	c.log.Info().Time("expiry", tok.Expiry).Msg("Obtained ICD API token")
	return tok, nil
}
