// Package icd is the gateway to the WHO ICD-11 API.
package icd

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/SanteonNL/namaste-bridge/cmd/bridge/terminology"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const DefaultBaseURL = "https://id.who.int"

// Entity is one hit of the ICD entity search. ID is the entity URI, e.g.
// http://id.who.int/icd/entity/1435254666.
type Entity struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type searchResponse struct {
	Error               bool     `json:"error"`
	ErrorMessage        string   `json:"errorMessage"`
	DestinationEntities []Entity `json:"destinationEntities"`
}

// Credentials supplies the bearer token for each request.
type Credentials interface {
	Token(ctx context.Context) (string, error)
	Invalidate()
}

type Config struct {
	BaseURL  string
	Language string
	Timeout  time.Duration
	// RequestsPerSecond caps outbound searches; zero or less disables the cap.
	RequestsPerSecond float64
	Burst             int
}

type Client struct {
	http        *resty.Client
	credentials Credentials
	limiter     *rate.Limiter
	log         zerolog.Logger
}

func NewClient(cfg Config, credentials Credentials, log zerolog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	client := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json").
		SetHeader("Accept-Language", cfg.Language).
		SetHeader("API-Version", "v2")

	return &Client{
		http:        client,
		credentials: credentials,
		limiter:     rate.NewLimiter(limit, burst),
		log:         log.With().Str("component", "icd_client").Logger(),
	}
}

// Search runs the ICD entity search and returns the hits in the order the
// API ranked them. Every failure wraps terminology.ErrUpstreamUnavailable.
func (c *Client) Search(ctx context.Context, query string) ([]Entity, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limit wait: %v", terminology.ErrUpstreamUnavailable, err)
	}

	token, err := c.credentials.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: could not authenticate with ICD API: %v", terminology.ErrUpstreamUnavailable, err)
	}

	c.log.Debug().Str("query", query).Msg("Searching ICD API")
	var result searchResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetQueryParams(map[string]string{
			"q":                   query,
			"highlightingEnabled": "false",
		}).
		// The API does not always label its JSON bodies.
		ForceContentType("application/json").
		SetResult(&result).
		Get("/icd/entity/search")
	if err != nil {
		if resp != nil && resp.IsSuccess() {
			return nil, fmt.Errorf("%w: unexpected response from ICD API: %v", terminology.ErrUpstreamUnavailable, err)
		}
		return nil, fmt.Errorf("%w: failed to search ICD API: %v", terminology.ErrUpstreamUnavailable, err)
	}

	if resp.StatusCode() == http.StatusUnauthorized {
		c.credentials.Invalidate()
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: ICD API returned status %d", terminology.ErrUpstreamUnavailable, resp.StatusCode())
	}

	if result.Error {
		return nil, fmt.Errorf("%w: ICD API error: %s", terminology.ErrUpstreamUnavailable, result.ErrorMessage)
	}

	c.log.Debug().
		Str("query", query).
		Int("entities", len(result.DestinationEntities)).
		Msg("ICD API search completed")
	return result.DestinationEntities, nil
}
