// Package fhirstore is the terminology store gateway for FHIR R4 servers
// such as HAPI. Catalogs live as CodeSystem resources, mapping tables as
// ConceptMap resources, and translation goes through ConceptMap/$translate.
package fhirstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/SanteonNL/namaste-bridge/cmd/bridge/terminology"
	"github.com/SanteonNL/namaste-bridge/models/fhir"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
)

const fhirJSON = "application/fhir+json"

type Config struct {
	// BaseURL of the FHIR endpoint, e.g. http://localhost:8080/fhir.
	BaseURL string
	// ConceptMapID selects the instance-level $translate. When empty the
	// type-level ConceptMap/$translate is used.
	ConceptMapID string
	Timeout      time.Duration
	// RetryMax is zero on the request path: callers see the outcome of one
	// attempt. Ingestion sets it higher.
	RetryMax int
}

// Client talks to a FHIR server and implements terminology.Store.
type Client struct {
	baseURL      string
	conceptMapID string
	httpClient   *http.Client
	log          zerolog.Logger
}

var _ terminology.Store = (*Client)(nil)

func NewClient(cfg Config, log zerolog.Logger) *Client {
	log = log.With().Str("component", "fhirstore").Logger()

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.RetryMax
	retryClient.HTTPClient = &http.Client{Timeout: timeout}
	retryClient.Logger = leveledLogger{log: log}
	// Status codes are mapped by do, so the policy only decides whether to
	// retry and the final response is handed back instead of a "giving up"
	// error.
	retryClient.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		retry, _ := retryablehttp.DefaultRetryPolicy(ctx, resp, err)
		return retry, nil
	}
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Client{
		baseURL:      strings.TrimSuffix(cfg.BaseURL, "/"),
		conceptMapID: cfg.ConceptMapID,
		httpClient:   retryClient.StandardClient(),
		log:          log,
	}
}

func (c *Client) PutCatalog(ctx context.Context, id string, catalog *terminology.CodeCatalog) error {
	cs, err := toCodeSystem(id, catalog)
	if err != nil {
		return err
	}
	return c.put(ctx, "CodeSystem", id, cs)
}

func (c *Client) PutMappingTable(ctx context.Context, id string, table *terminology.MappingTable) error {
	cm, err := toConceptMap(id, table)
	if err != nil {
		return err
	}
	return c.put(ctx, "ConceptMap", id, cm)
}

func (c *Client) GetCatalog(ctx context.Context, id string) (*terminology.CodeCatalog, error) {
	var cs fhir.CodeSystem
	if err := c.do(ctx, http.MethodGet, c.resourcePath("CodeSystem", id), nil, &cs); err != nil {
		return nil, fmt.Errorf("get CodeSystem/%s: %w", id, err)
	}
	return fromCodeSystem(&cs), nil
}

func (c *Client) Translate(ctx context.Context, system, code string) ([]terminology.Target, error) {
	endpoint := "ConceptMap/$translate"
	if c.conceptMapID != "" {
		endpoint = c.resourcePath("ConceptMap", c.conceptMapID) + "/$translate"
	}
	query := url.Values{}
	query.Set("system", system)
	query.Set("code", code)

	var params fhir.Parameters
	if err := c.do(ctx, http.MethodGet, endpoint+"?"+query.Encode(), nil, &params); err != nil {
		return nil, fmt.Errorf("translate %s|%s: %w", system, code, err)
	}

	targets := translateMatches(&params)
	c.log.Debug().
		Str("system", system).
		Str("code", code).
		Int("matches", len(targets)).
		Msg("Translated code")
	return targets, nil
}

func (c *Client) put(ctx context.Context, resourceType, id string, resource any) error {
	if id == "" {
		return fmt.Errorf("%s id is required", resourceType)
	}
	if err := c.do(ctx, http.MethodPut, c.resourcePath(resourceType, id), resource, nil); err != nil {
		return fmt.Errorf("put %s/%s: %w", resourceType, id, err)
	}
	c.log.Info().Str("resourceType", resourceType).Str("id", id).Msg("Resource uploaded")
	return nil
}

func (c *Client) resourcePath(resourceType, id string) string {
	return resourceType + "/" + url.PathEscape(id)
}

// do sends one request and decodes a 2xx body into response. Transport
// failures and 5xx answers become ErrUpstreamUnavailable, 404 and 410 become
// ErrNotFound.
func (c *Client) do(ctx context.Context, method, endpoint string, body, response any) error {
	req, err := c.prepareRequest(ctx, method, endpoint, body)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", terminology.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response body: %v", terminology.ErrUpstreamUnavailable, err)
	}

	c.log.Debug().
		Str("method", method).
		Str("endpoint", endpoint).
		Int("status", resp.StatusCode).
		Msg("FHIR server responded")

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return fmt.Errorf("%w: %s", terminology.ErrNotFound, outcomeMessage(resp.StatusCode, bodyBytes))
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: %s", terminology.ErrUpstreamUnavailable, outcomeMessage(resp.StatusCode, bodyBytes))
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return errors.New(outcomeMessage(resp.StatusCode, bodyBytes))
	}

	if response == nil || len(bodyBytes) == 0 {
		return nil
	}
	if err := json.Unmarshal(bodyBytes, response); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) prepareRequest(ctx context.Context, method, endpoint string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/"+endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", fhirJSON)
	if body != nil {
		req.Header.Set("Content-Type", fhirJSON)
	}
	return req, nil
}

// outcomeMessage prefers OperationOutcome diagnostics over the raw body.
func outcomeMessage(status int, body []byte) string {
	var outcome fhir.OperationOutcome
	if err := json.Unmarshal(body, &outcome); err == nil && outcome.ResourceType == "OperationOutcome" {
		if msg := outcome.Diagnostics(); msg != "" {
			return fmt.Sprintf("server returned status %d: %s", status, msg)
		}
	}
	text := strings.TrimSpace(string(body))
	if len(text) > 200 {
		text = text[:200] + "..."
	}
	return fmt.Sprintf("server returned status %d: %s", status, text)
}

// leveledLogger routes retryablehttp's logging into zerolog.
type leveledLogger struct {
	log zerolog.Logger
}

func (l leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.log.Error().Fields(keysAndValues).Msg(msg)
}

func (l leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.log.Trace().Fields(keysAndValues).Msg(msg)
}

func (l leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.log.Warn().Fields(keysAndValues).Msg(msg)
}
