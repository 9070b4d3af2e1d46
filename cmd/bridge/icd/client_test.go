package icd

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/SanteonNL/namaste-bridge/cmd/bridge/terminology"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticCredentials struct {
	token       string
	err         error
	invalidated int
}

func (s *staticCredentials) Token(context.Context) (string, error) { return s.token, s.err }
func (s *staticCredentials) Invalidate()                           { s.invalidated++ }

func TestClient_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/icd/entity/search", r.URL.Path)
		assert.Equal(t, "fever", r.URL.Query().Get("q"))
		assert.Equal(t, "false", r.URL.Query().Get("highlightingEnabled"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "v2", r.Header.Get("API-Version"))
		assert.Equal(t, "en", r.Header.Get("Accept-Language"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"error":false,"destinationEntities":[
			{"id":"http://id.who.int/icd/entity/1435254666","title":"Fever"},
			{"id":"http://id.who.int/icd/entity/2","title":"Fever of other origin"}]}`))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL}, &staticCredentials{token: "secret"}, zerolog.Nop())
	entities, err := client.Search(context.Background(), "fever")
	require.NoError(t, err)
	assert.Equal(t, []Entity{
		{ID: "http://id.who.int/icd/entity/1435254666", Title: "Fever"},
		{ID: "http://id.who.int/icd/entity/2", Title: "Fever of other origin"},
	}, entities)
}

func TestClient_SearchFailures(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		contentType string
		body        string
		creds   *staticCredentials
		invalid int
	}{
		{name: "api error flag", status: http.StatusOK, body: `{"error":true,"errorMessage":"bad query"}`, creds: &staticCredentials{token: "t"}},
		{name: "server error", status: http.StatusInternalServerError, body: `oops`, creds: &staticCredentials{token: "t"}},
		{name: "rejected token", status: http.StatusUnauthorized, body: ``, creds: &staticCredentials{token: "t"}, invalid: 1},
		{name: "not json", status: http.StatusOK, body: `<html>`, creds: &staticCredentials{token: "t"}},
		{name: "malformed json", status: http.StatusOK, contentType: "application/json", body: `{"destinationEntities":[`, creds: &staticCredentials{token: "t"}},
		{name: "wrong entity shape", status: http.StatusOK, contentType: "application/json", body: `{"destinationEntities":{"id":1}}`, creds: &staticCredentials{token: "t"}},
		{name: "no credentials", status: http.StatusOK, body: `{}`, creds: &staticCredentials{err: errors.New("no token")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.contentType != "" {
					w.Header().Set("Content-Type", tt.contentType)
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewClient(Config{BaseURL: srv.URL}, tt.creds, zerolog.Nop())
			_, err := client.Search(context.Background(), "fever")
			require.Error(t, err)
			assert.True(t, errors.Is(err, terminology.ErrUpstreamUnavailable))
			assert.Equal(t, tt.invalid, tt.creds.invalidated)
		})
	}
}

func TestClient_SearchUnlabelledJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(`{"destinationEntities":[{"id":"http://id.who.int/icd/entity/7","title":"Cough"}]}`))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL}, &staticCredentials{token: "t"}, zerolog.Nop())
	entities, err := client.Search(context.Background(), "cough")
	require.NoError(t, err)
	assert.Equal(t, []Entity{{ID: "http://id.who.int/icd/entity/7", Title: "Cough"}}, entities)
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	client := NewClient(Config{BaseURL: srv.URL}, &staticCredentials{token: "t"}, zerolog.Nop())
	_, err := client.Search(context.Background(), "fever")
	assert.True(t, errors.Is(err, terminology.ErrUpstreamUnavailable))
}
