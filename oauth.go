package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const (
	OuraAuthURL  = "https://cloud.ouraring.com/oauth/authorize"
	OuraTokenURL = "https://api.ouraring.com/oauth/token"

	// DefaultScope covers personal info and daily summaries.
	DefaultScope = "personal daily"
)

// OuraAuth handles the OAuth2 authorization-code flow against the Oura cloud.
type OuraAuth struct {
	conf *oauth2.Config
}

// NewOuraAuth creates an OAuth client from the configured credentials.
func NewOuraAuth(cfg *Config) (*OuraAuth, error) {
	if !cfg.HasCredentials() {
		return nil, ErrNotConfigured
	}

	return &OuraAuth{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Endpoint: oauth2.Endpoint{
				AuthURL:  OuraAuthURL,
				TokenURL: OuraTokenURL,
			},
		},
	}, nil
}

// AuthorizationURL builds the URL the user visits to authorize the app.
// Each call embeds a fresh random state token.
func (a *OuraAuth) AuthorizationURL(scope string) (string, error) {
	if scope == "" {
		scope = DefaultScope
	}

	state, err := randomState()
	if err != nil {
		return "", err
	}

	conf := *a.conf
	conf.Scopes = strings.Fields(scope)
	return conf.AuthCodeURL(state), nil
}

// Exchange trades an authorization code for a token.
func (a *OuraAuth) Exchange(ctx context.Context, code string) (*Token, error) {
	tok, err := a.conf.Exchange(ctx, code)
	if err != nil {
		return nil, wrapTokenError(err)
	}
	return fromOAuth2Token(tok), nil
}

// Refresh obtains a fresh access token using a refresh token. Oura does not
// always return a new refresh token, so the old one is carried over when the
// response omits it.
func (a *OuraAuth) Refresh(ctx context.Context, refreshToken string) (*Token, error) {
	src := a.conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, wrapTokenError(err)
	}

	out := fromOAuth2Token(tok)
	if out.RefreshToken == "" {
		out.RefreshToken = refreshToken
	}
	return out, nil
}

// randomState returns 32 bytes of entropy as URL-safe base64, used as the
// OAuth2 state parameter.
func randomState() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func wrapTokenError(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		status := 0
		if re.Response != nil {
			status = re.Response.StatusCode
		}
		return &ExchangeError{Status: status, Body: string(re.Body), Err: err}
	}
	// Covers malformed responses too, e.g. a 200 missing access_token.
	return &ExchangeError{Err: err}
}

func fromOAuth2Token(tok *oauth2.Token) *Token {
	now := time.Now()
	t := &Token{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.Type(),
		ObtainedAt:   now,
	}
	if !tok.Expiry.IsZero() {
		t.ExpiresIn = int(tok.Expiry.Sub(now).Round(time.Second).Seconds())
		t.ExpiresAt = tok.Expiry
	}
	return t
}

// parseRedirect extracts an access token (implicit-flow fragment) or an
// authorization code (query parameter) from an OAuth2 redirect URL.
func parseRedirect(raw string) (accessToken, code string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", err
	}

	if u.Fragment != "" {
		frag, err := url.ParseQuery(u.Fragment)
		if err == nil && frag.Get("access_token") != "" {
			return frag.Get("access_token"), "", nil
		}
	}

	return "", u.Query().Get("code"), nil
}
