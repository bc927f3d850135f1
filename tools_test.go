package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T, cfg *Config) *App {
	t.Helper()
	if cfg.TokenFile == "" {
		cfg.TokenFile = filepath.Join(t.TempDir(), "token.json")
	}
	return NewApp(cfg, NewTokenStore(cfg.TokenFile, testLogger()), testLogger())
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", result.Content[0])
	return text.Text
}

func TestGetAuthURLWithoutCredentials(t *testing.T) {
	app := newTestApp(t, &Config{RedirectURI: "http://localhost:8080/callback"})

	result, err := app.handleGetAuthURL(context.Background(), callRequest("get_auth_url", nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "credentials not configured")
}

func TestGetAuthURL(t *testing.T) {
	app := newTestApp(t, testConfig())

	result, err := app.handleGetAuthURL(context.Background(),
		callRequest("get_auth_url", map[string]any{"scope": "personal daily"}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	text := resultText(t, result)
	assert.Contains(t, text, OuraAuthURL)

	// Pull the URL back out and check it decodes to what we asked for.
	var authURL string
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, OuraAuthURL) {
			authURL = line
			break
		}
	}
	require.NotEmpty(t, authURL, "no authorization URL in response: %s", text)

	u, err := url.Parse(authURL)
	require.NoError(t, err)
	assert.Equal(t, "abc", u.Query().Get("client_id"))
	assert.Equal(t, "personal daily", u.Query().Get("scope"))
	assert.NotEmpty(t, u.Query().Get("state"))
}

func TestSleepToolsRequireAuth(t *testing.T) {
	app := newTestApp(t, &Config{})

	handlers := map[string]func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error){
		"get_sleep_last_night": app.handleSleepLastNight,
		"get_sleep_last_week":  app.handleSleepLastWeek,
	}

	for name, handler := range handlers {
		t.Run(name, func(t *testing.T) {
			result, err := handler(context.Background(), callRequest(name, nil))
			require.NoError(t, err)
			assert.True(t, result.IsError)
			assert.Contains(t, resultText(t, result), "No access token found")
		})
	}

	t.Run("get_sleep_by_date", func(t *testing.T) {
		result, err := app.handleSleepByDate(context.Background(),
			callRequest("get_sleep_by_date", map[string]any{"date": "2024-05-01"}))
		require.NoError(t, err)
		assert.True(t, result.IsError)
		assert.Contains(t, resultText(t, result), "No access token found")
	})
}

func TestSleepByDateRejectsBadDate(t *testing.T) {
	app := newTestApp(t, &Config{AccessToken: "tok"})

	for _, date := range []string{"01-05-2024", "2024/05/01", "yesterday", "2024-13-40"} {
		result, err := app.handleSleepByDate(context.Background(),
			callRequest("get_sleep_by_date", map[string]any{"date": date}))
		require.NoError(t, err)
		assert.True(t, result.IsError, "date %q should be rejected", date)
		assert.Contains(t, resultText(t, result), "expected YYYY-MM-DD")
	}
}

func TestParseRedirectURLNoMatch(t *testing.T) {
	app := newTestApp(t, testConfig())

	result, err := app.handleParseRedirectURL(context.Background(),
		callRequest("parse_redirect_url", map[string]any{"url": "http://localhost:8080/callback?error=access_denied"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "No access token or authorization code")
}

func TestAccessTokenResolution(t *testing.T) {
	t.Run("stored token wins", func(t *testing.T) {
		cfg := &Config{AccessToken: "env-token", TokenFile: filepath.Join(t.TempDir(), "token.json")}
		app := newTestApp(t, cfg)
		require.NoError(t, app.store.Save(&Token{AccessToken: "stored-token"}))

		got, err := app.accessToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "stored-token", got)
	})

	t.Run("falls back to configured token", func(t *testing.T) {
		app := newTestApp(t, &Config{AccessToken: "env-token"})

		got, err := app.accessToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "env-token", got)
	})

	t.Run("nothing available", func(t *testing.T) {
		app := newTestApp(t, &Config{})

		_, err := app.accessToken(context.Background())
		assert.ErrorIs(t, err, ErrAuthRequired)
	})

	t.Run("expired token without refresh token is returned as-is", func(t *testing.T) {
		cfg := &Config{TokenFile: filepath.Join(t.TempDir(), "token.json")}
		app := newTestApp(t, cfg)
		require.NoError(t, app.store.Save(&Token{
			AccessToken: "stale-token",
			ExpiresIn:   60,
			ObtainedAt:  time.Now().Add(-2 * time.Hour),
		}))

		got, err := app.accessToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "stale-token", got)
	})
}

// refreshApp builds an App with an expired stored token carrying a refresh
// token, rewired to a fake OAuth token endpoint.
func refreshApp(t *testing.T, handler http.HandlerFunc) *App {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	app := newTestApp(t, testConfig())
	app.tokenURL = ts.URL
	require.NoError(t, app.store.Save(&Token{
		AccessToken:  "stale-token",
		RefreshToken: "rt-old",
		ExpiresIn:    60,
		ObtainedAt:   time.Now().Add(-2 * time.Hour),
	}))
	return app
}

func TestAccessTokenRefreshPersistsNewToken(t *testing.T) {
	app := refreshApp(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.Form.Get("grant_type"))
		assert.Equal(t, "rt-old", r.Form.Get("refresh_token"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"at-new","refresh_token":"rt-new","token_type":"Bearer","expires_in":86400}`))
	})

	got, err := app.accessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "at-new", got)

	stored := app.store.Load()
	require.NotNil(t, stored)
	assert.Equal(t, "at-new", stored.AccessToken)
	assert.Equal(t, "rt-new", stored.RefreshToken)
	assert.False(t, stored.Expired())
}

func TestAccessTokenRefreshFailureFallsBack(t *testing.T) {
	app := refreshApp(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant"}`))
	})

	got, err := app.accessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "stale-token", got)

	// The broken refresh must not clobber the stored token.
	stored := app.store.Load()
	require.NotNil(t, stored)
	assert.Equal(t, "stale-token", stored.AccessToken)
	assert.Equal(t, "rt-old", stored.RefreshToken)
}

func TestAccessTokenRefreshWithoutCredentials(t *testing.T) {
	cfg := &Config{TokenFile: filepath.Join(t.TempDir(), "token.json")}
	app := newTestApp(t, cfg)
	require.NoError(t, app.store.Save(&Token{
		AccessToken:  "stale-token",
		RefreshToken: "rt-old",
		ExpiresIn:    60,
		ObtainedAt:   time.Now().Add(-2 * time.Hour),
	}))

	got, err := app.accessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "stale-token", got)
}

func TestTruncateToken(t *testing.T) {
	assert.Equal(t, "short-token", truncateToken("short-token"))
	assert.Equal(t, "aaaaaaaaaabbbbbbbbbb...", truncateToken("aaaaaaaaaabbbbbbbbbbcccccccccc"))
	// Exactly at the limit stays untouched.
	assert.Equal(t, strings.Repeat("x", 20), truncateToken(strings.Repeat("x", 20)))
}
