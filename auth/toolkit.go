package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	DefaultToolkitURL = "https://identitytoolkit.googleapis.com"

	signInWithPasswordPath    = "/v1/accounts:signInWithPassword"
	signUpPath                = "/v1/accounts:signUp"
	signInWithCustomTokenPath = "/v1/accounts:signInWithCustomToken"
)

type toolkitResponse struct {
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	DisplayName  string `json:"displayName"`
}

type toolkitError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Toolkit talks to the Identity Toolkit REST API, which covers the password
// flows the Admin SDK does not expose.
type Toolkit struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewToolkit(baseURL, apiKey string, httpClient *http.Client) *Toolkit {
	if baseURL == "" {
		baseURL = DefaultToolkitURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Toolkit{baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey, httpClient: httpClient}
}

func (t *Toolkit) SignInWithPassword(ctx context.Context, email, password string) (*Credentials, error) {
	return t.call(ctx, signInWithPasswordPath, map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	})
}

func (t *Toolkit) SignUp(ctx context.Context, email, password string) (*Credentials, error) {
	return t.call(ctx, signUpPath, map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	})
}

// SignInWithCustomToken exchanges an Admin SDK custom token for an ID token.
func (t *Toolkit) SignInWithCustomToken(ctx context.Context, customToken string) (*Credentials, error) {
	return t.call(ctx, signInWithCustomTokenPath, map[string]any{
		"token":             customToken,
		"returnSecureToken": true,
	})
}

func (t *Toolkit) call(ctx context.Context, path string, payload map[string]any) (*Credentials, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	endpoint := t.baseURL + path + "?key=" + url.QueryEscape(t.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payloadBytes))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, toolkitFailure(resp.StatusCode, body)
	}

	var out toolkitResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	return &Credentials{
		Identity: Identity{
			ID:          out.LocalID,
			Email:       out.Email,
			DisplayName: out.DisplayName,
		},
		IDToken:      out.IDToken,
		RefreshToken: out.RefreshToken,
	}, nil
}

func toolkitFailure(status int, body []byte) error {
	var te toolkitError
	if err := json.Unmarshal(body, &te); err != nil || te.Error.Message == "" {
		return fmt.Errorf("unexpected status code: %d", status)
	}
	// messages look like "WEAK_PASSWORD : Password should be at least 6 characters"
	code, detail, _ := strings.Cut(te.Error.Message, " : ")
	rejected := &RejectedError{Message: toolkitMessage(code, detail)}
	if code == "EMAIL_EXISTS" {
		rejected.Err = ErrEmailExists
	}
	return rejected
}

func toolkitMessage(code, detail string) string {
	switch code {
	case "EMAIL_EXISTS":
		return "The email address is already in use by another account."
	case "EMAIL_NOT_FOUND", "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS":
		return "The supplied auth credential is incorrect, malformed or has expired."
	case "USER_DISABLED":
		return "The user account has been disabled by an administrator."
	case "TOO_MANY_ATTEMPTS_TRY_LATER":
		return "We have blocked all requests from this device due to unusual activity. Try again later."
	}
	if detail != "" {
		return detail
	}
	return code
}
