package auth

import (
	"errors"
	"net/http"
	"strings"
)

const (
	authorizationHeader = "Authorization"
	bearerPrefix        = "Bearer "
)

var (
	errMissingAuthorizationHeader = errors.New("missing Authorization header")
	errInvalidAuthorizationHeader = errors.New("invalid Authorization header")
)

// BearerTokenFromRequest returns the ID token from the Authorization header.
func BearerTokenFromRequest(r *http.Request) (string, error) {
	header := r.Header.Get(authorizationHeader)
	if header == "" {
		return "", errMissingAuthorizationHeader
	}
	token, ok := strings.CutPrefix(header, bearerPrefix)
	token = strings.TrimSpace(token)
	if !ok || token == "" {
		return "", errInvalidAuthorizationHeader
	}
	return token, nil
}

// Authenticate verifies the request's bearer ID token.
func Authenticate(req *http.Request, verifier Verifier) (*Identity, string, error) {
	token, err := BearerTokenFromRequest(req)
	if err != nil {
		return nil, "", err
	}
	identity, err := verifier.Verify(req.Context(), token)
	if err != nil {
		return nil, "", err
	}
	return identity, token, nil
}
