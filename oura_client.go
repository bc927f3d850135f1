package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"golang.org/x/time/rate"
)

const (
	OuraAPIBaseURL = "https://api.ouraring.com"
	OuraAPIVersion = "v2"
)

// OuraClient handles all interactions with the Oura data API
type OuraClient struct {
	client      *http.Client
	rateLimiter *rate.Limiter
	accessToken string
	baseURL     string
}

// NewOuraClient creates a new Oura API client with rate limiting. A non-empty
// access token is required; acquiring one is the caller's responsibility.
func NewOuraClient(accessToken string) (*OuraClient, error) {
	if accessToken == "" {
		return nil, ErrAuthRequired
	}

	// Oura allows 5000 requests per 5 minutes; 100/min is well under that.
	rateLimiter := rate.NewLimiter(rate.Every(time.Minute/100), 10)

	return &OuraClient{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		rateLimiter: rateLimiter,
		accessToken: accessToken,
		baseURL:     OuraAPIBaseURL + "/" + OuraAPIVersion,
	}, nil
}

// makeRequest performs an authenticated GET request against the Oura API
func (o *OuraClient) makeRequest(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	if err := o.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	requestURL := o.baseURL + endpoint
	if len(params) > 0 {
		requestURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+o.accessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Oura-MCP-Server/1.0")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &UpstreamError{Status: resp.StatusCode, Body: string(body)}
	}

	return body, nil
}

// GetSleepData retrieves sleep records for a date range (YYYY-MM-DD, both
// optional), following next_token pagination until exhausted.
func (o *OuraClient) GetSleepData(ctx context.Context, startDate, endDate string) ([]SleepRecord, error) {
	params := url.Values{}
	if startDate != "" {
		params.Set("start_date", startDate)
	}
	if endDate != "" {
		params.Set("end_date", endDate)
	}

	var allRecords []SleepRecord
	nextToken := ""

	for {
		if nextToken != "" {
			params.Set("next_token", nextToken)
		}

		body, err := o.makeRequest(ctx, "/usercollection/sleep", params)
		if err != nil {
			return nil, fmt.Errorf("failed to get sleep data: %w", err)
		}

		var response sleepResponse
		if err := json.Unmarshal(body, &response); err != nil {
			return nil, fmt.Errorf("failed to parse sleep data: %w", err)
		}

		allRecords = append(allRecords, response.Data...)

		if response.NextToken == nil || *response.NextToken == "" {
			break
		}
		nextToken = *response.NextToken
	}

	return allRecords, nil
}

// GetLastNight returns yesterday's sleep record, or nil when none exists.
func (o *OuraClient) GetLastNight(ctx context.Context) (*SleepRecord, error) {
	yesterday := yesterdayDate()

	records, err := o.GetSleepData(ctx, yesterday, yesterday)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

// GetPastWeek returns the last seven nights (8 days ago through yesterday),
// sorted by date descending. The sort is stable so same-day records keep
// their upstream order.
func (o *OuraClient) GetPastWeek(ctx context.Context) ([]SleepRecord, error) {
	start, end := pastWeekRange()

	records, err := o.GetSleepData(ctx, start, end)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Day > records[j].Day
	})

	return records, nil
}

// ValidateToken makes one lightweight authenticated request so bad tokens are
// rejected before being persisted.
func (o *OuraClient) ValidateToken(ctx context.Context) error {
	if _, err := o.makeRequest(ctx, "/usercollection/personal_info", nil); err != nil {
		return fmt.Errorf("token validation failed: %w", err)
	}
	return nil
}

func yesterdayDate() string {
	return time.Now().AddDate(0, 0, -1).Format("2006-01-02")
}

func pastWeekRange() (start, end string) {
	now := time.Now()
	return now.AddDate(0, 0, -8).Format("2006-01-02"), now.AddDate(0, 0, -1).Format("2006-01-02")
}
