package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"
)

const (
	authRequiredText = "❌ No access token found. Complete OAuth2 authentication first: " +
		"use 'get_auth_url' and 'exchange_code', or 'setup_auth' with an existing access token."
	notConfiguredText = "❌ Error: Oura API credentials not configured. " +
		"Please set the OURA_CLIENT_ID and OURA_CLIENT_SECRET environment variables."
)

// App carries the per-process dependencies the tool handlers need. Handlers
// resolve the effective token from the store on every invocation, so there is
// no shared mutable token state between them.
type App struct {
	cfg   *Config
	store *TokenStore
	log   *logrus.Logger

	// tokenURL overrides the OAuth token endpoint when non-empty.
	tokenURL string
}

func NewApp(cfg *Config, store *TokenStore, log *logrus.Logger) *App {
	return &App{cfg: cfg, store: store, log: log}
}

func (a *App) newAuth() (*OuraAuth, error) {
	auth, err := NewOuraAuth(a.cfg)
	if err != nil {
		return nil, err
	}
	if a.tokenURL != "" {
		auth.conf.Endpoint.TokenURL = a.tokenURL
	}
	return auth, nil
}

// RegisterTools registers the OAuth and sleep tools on the MCP server.
func (a *App) RegisterTools(s *server.MCPServer) {
	s.AddTool(
		mcp.NewTool("get_auth_url",
			mcp.WithDescription("Get an OAuth2 authorization URL to connect your Oura Ring account"),
			mcp.WithString("scope",
				mcp.Description("OAuth2 scopes to request (default: 'personal daily')"),
				mcp.DefaultString(DefaultScope),
			),
		),
		a.handleGetAuthURL,
	)

	s.AddTool(
		mcp.NewTool("exchange_code",
			mcp.WithDescription("Exchange an OAuth2 authorization code for an access token and save it"),
			mcp.WithString("code",
				mcp.Required(),
				mcp.Description("Authorization code from the OAuth2 callback URL"),
			),
		),
		a.handleExchangeCode,
	)

	s.AddTool(
		mcp.NewTool("setup_auth",
			mcp.WithDescription("Validate an Oura access token against the API and save it for later calls"),
			mcp.WithString("access_token",
				mcp.Required(),
				mcp.Description("Oura API access token"),
			),
		),
		a.handleSetupAuth,
	)

	s.AddTool(
		mcp.NewTool("parse_redirect_url",
			mcp.WithDescription("Parse an OAuth2 redirect URL and automatically extract and use the token or code in it"),
			mcp.WithString("url",
				mcp.Required(),
				mcp.Description("Full redirect URL from the browser after authorization"),
			),
		),
		a.handleParseRedirectURL,
	)

	s.AddTool(
		mcp.NewTool("get_sleep_last_night",
			mcp.WithDescription("Get sleep data from last night"),
		),
		a.handleSleepLastNight,
	)

	s.AddTool(
		mcp.NewTool("get_sleep_last_week",
			mcp.WithDescription("Get sleep data from the past week, newest first, with the average sleep score"),
		),
		a.handleSleepLastWeek,
	)

	s.AddTool(
		mcp.NewTool("get_sleep_by_date",
			mcp.WithDescription("Get sleep data for a specific date"),
			mcp.WithString("date",
				mcp.Required(),
				mcp.Description("Date in YYYY-MM-DD format"),
			),
		),
		a.handleSleepByDate,
	)
}

// RegisterResources registers the OAuth configuration resource.
func (a *App) RegisterResources(s *server.MCPServer) {
	resource := mcp.NewResource(
		"oura://oauth/config",
		"Oura OAuth Configuration",
		mcp.WithResourceDescription("OAuth2 configuration for the Oura API: endpoints, redirect URI and supported scopes"),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(resource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		config := map[string]interface{}{
			"authorization_url": OuraAuthURL,
			"token_url":         OuraTokenURL,
			"redirect_uri":      a.cfg.RedirectURI,
			"scopes": map[string]string{
				"personal":  "Personal info (age, weight, biological sex)",
				"daily":     "Daily summaries (sleep, activity, readiness)",
				"heartrate": "Time-series heart rate data",
				"session":   "Guided and unguided sessions",
				"workout":   "Workout summaries",
				"email":     "Email address of the account",
			},
		}
		data, err := json.Marshal(config)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal config: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      request.Params.URI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}

func (a *App) handleGetAuthURL(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	scope := request.GetString("scope", DefaultScope)

	auth, err := a.newAuth()
	if err != nil {
		return a.toolError("generating authorization URL", err), nil
	}

	authURL, err := auth.AuthorizationURL(scope)
	if err != nil {
		return a.toolError("generating authorization URL", err), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"🔗 OAuth2 Authorization URL:\n\n%s\n\nVisit this URL to authorize the application, "+
			"then use the 'exchange_code' tool with the code from the callback URL "+
			"(or paste the whole redirect URL into 'parse_redirect_url').", authURL)), nil
}

func (a *App) handleExchangeCode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code, err := request.RequireString("code")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return a.exchangeAndSave(ctx, code)
}

func (a *App) exchangeAndSave(ctx context.Context, code string) (*mcp.CallToolResult, error) {
	auth, err := a.newAuth()
	if err != nil {
		return a.toolError("exchanging code", err), nil
	}

	token, err := auth.Exchange(ctx, code)
	if err != nil {
		return a.toolError("exchanging code for token", err), nil
	}

	if err := a.store.Save(token); err != nil {
		a.log.WithError(err).Warn("failed to persist token")
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"✅ Successfully authenticated with Oura Ring!\n\nAccess Token: %s\nExpires in: %d seconds\nToken Type: %s\n\n"+
			"The token has been saved. You can now use the sleep data tools.",
		truncateToken(token.AccessToken), token.ExpiresIn, token.TokenType)), nil
}

func (a *App) handleSetupAuth(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	accessToken, err := request.RequireString("access_token")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return a.validateAndSave(ctx, accessToken, 0)
}

func (a *App) validateAndSave(ctx context.Context, accessToken string, expiresIn int) (*mcp.CallToolResult, error) {
	client, err := NewOuraClient(accessToken)
	if err != nil {
		return a.toolError("setting up authentication", err), nil
	}

	if err := client.ValidateToken(ctx); err != nil {
		return a.toolError("validating token", err), nil
	}

	if err := a.store.Save(&Token{AccessToken: accessToken, ExpiresIn: expiresIn}); err != nil {
		return a.toolError("saving token", err), nil
	}

	return mcp.NewToolResultText("✅ Access token validated and saved. You can now use the sleep data tools."), nil
}

func (a *App) handleParseRedirectURL(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := request.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	accessToken, code, err := parseRedirect(raw)
	if err != nil {
		return a.toolError("parsing redirect URL", err), nil
	}

	switch {
	case accessToken != "":
		return a.validateAndSave(ctx, accessToken, 0)
	case code != "":
		return a.exchangeAndSave(ctx, code)
	default:
		return mcp.NewToolResultError("❌ No access token or authorization code found in URL"), nil
	}
}

func (a *App) handleSleepLastNight(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, err := a.sleepClient(ctx)
	if err != nil {
		return a.toolError("fetching sleep data", err), nil
	}

	yesterday := yesterdayDate()
	record, err := client.GetLastNight(ctx)
	if err != nil {
		return a.toolError("fetching sleep data", err), nil
	}
	if record == nil {
		return mcp.NewToolResultText(fmt.Sprintf("No sleep data found for %s.", yesterday)), nil
	}

	return mcp.NewToolResultText(formatSleepRecord(yesterday, record)), nil
}

func (a *App) handleSleepLastWeek(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, err := a.sleepClient(ctx)
	if err != nil {
		return a.toolError("fetching sleep data", err), nil
	}

	start, end := pastWeekRange()
	records, err := client.GetPastWeek(ctx)
	if err != nil {
		return a.toolError("fetching sleep data", err), nil
	}
	if len(records) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No sleep data found for the past week (%s to %s).", start, end)), nil
	}

	return mcp.NewToolResultText(formatWeekSummary(start, end, records)), nil
}

func (a *App) handleSleepByDate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date, err := request.RequireString("date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := validateDate(date); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("❌ Invalid date %q: expected YYYY-MM-DD format", date)), nil
	}

	client, err := a.sleepClient(ctx)
	if err != nil {
		return a.toolError("fetching sleep data", err), nil
	}

	records, err := client.GetSleepData(ctx, date, date)
	if err != nil {
		return a.toolError("fetching sleep data", err), nil
	}
	if len(records) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No sleep data found for %s.", date)), nil
	}

	return mcp.NewToolResultText(formatSleepRecord(date, &records[0])), nil
}

// sleepClient builds a data client from the effective token: the stored token
// first (refreshed and re-persisted when expired), then the configured
// OURA_ACCESS_TOKEN fallback.
func (a *App) sleepClient(ctx context.Context) (*OuraClient, error) {
	accessToken, err := a.accessToken(ctx)
	if err != nil {
		return nil, err
	}
	return NewOuraClient(accessToken)
}

func (a *App) accessToken(ctx context.Context) (string, error) {
	if tok := a.store.Load(); tok != nil {
		if tok.Expired() && tok.RefreshToken != "" {
			if fresh := a.tryRefresh(ctx, tok.RefreshToken); fresh != nil {
				return fresh.AccessToken, nil
			}
		}
		return tok.AccessToken, nil
	}
	if a.cfg.AccessToken != "" {
		return a.cfg.AccessToken, nil
	}
	return "", ErrAuthRequired
}

func (a *App) tryRefresh(ctx context.Context, refreshToken string) *Token {
	auth, err := a.newAuth()
	if err != nil {
		a.log.WithError(err).Warn("cannot refresh token without client credentials")
		return nil
	}

	fresh, err := auth.Refresh(ctx, refreshToken)
	if err != nil {
		a.log.WithError(err).Warn("token refresh failed, using stored token as-is")
		return nil
	}

	a.log.Info("access token refreshed")
	if err := a.store.Save(fresh); err != nil {
		a.log.WithError(err).Warn("failed to persist refreshed token")
	}
	return fresh
}

// toolError maps the error taxonomy to user-facing text. Every error becomes
// a sentence the assistant can relay; nothing propagates as a protocol error.
func (a *App) toolError(action string, err error) *mcp.CallToolResult {
	a.log.WithError(err).Warnf("error while %s", action)

	switch {
	case errors.Is(err, ErrAuthRequired):
		return mcp.NewToolResultError(authRequiredText)
	case errors.Is(err, ErrNotConfigured):
		return mcp.NewToolResultError(notConfiguredText)
	}
	return mcp.NewToolResultError(fmt.Sprintf("❌ Error %s: %v", action, err))
}

func validateDate(date string) error {
	_, err := time.Parse("2006-01-02", date)
	return err
}

// truncateToken shortens a token for display, marking the cut with an
// ellipsis. Short tokens come back unchanged.
func truncateToken(token string) string {
	if len(token) > 20 {
		return token[:20] + "..."
	}
	return token
}
