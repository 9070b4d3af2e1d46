package api

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
)

var errUnauthorized = errors.New("invalid or missing bearer token")

// TokenGate accepts a single static bearer token and attributes every
// request carrying it to one user.
type TokenGate struct {
	token  []byte
	userID string
}

// NewTokenGate returns a gate for token. An empty token rejects everything.
func NewTokenGate(token, userID string) *TokenGate {
	return &TokenGate{token: []byte(token), userID: userID}
}

// Authenticate returns the user id of an authorised request.
func (g *TokenGate) Authenticate(r *http.Request) (string, error) {
	if g == nil || len(g.token) == 0 {
		return "", errUnauthorized
	}
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", errUnauthorized
	}
	if subtle.ConstantTimeCompare([]byte(strings.TrimSpace(token)), g.token) != 1 {
		return "", errUnauthorized
	}
	return g.userID, nil
}
