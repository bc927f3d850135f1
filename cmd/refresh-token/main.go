package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
)

const tokenURL = "https://api.ouraring.com/oauth/token"

func main() {
	if len(os.Args) != 4 {
		fmt.Println("Usage: go run ./cmd/refresh-token <client_id> <client_secret> <refresh_token>")
		fmt.Println("")
		fmt.Println("This will use your refresh token to get a new access token.")
		return
	}

	clientID := os.Args[1]
	clientSecret := os.Args[2]
	refreshToken := os.Args[3]

	fmt.Println("🔄 Refreshing access token...")

	data := url.Values{}
	data.Set("grant_type", "refresh_token")
	data.Set("refresh_token", refreshToken)
	data.Set("client_id", clientID)
	data.Set("client_secret", clientSecret)

	req, err := http.NewRequest("POST", tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		fmt.Printf("❌ Error creating request: %v\n", err)
		return
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("❌ Error making token refresh request: %v\n", err)
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		fmt.Printf("❌ Error reading response: %v\n", err)
		return
	}

	if resp.StatusCode != 200 {
		fmt.Printf("❌ Token refresh failed (status %d):\n%s\n", resp.StatusCode, string(body))
		fmt.Println("")
		fmt.Println("Common issues:")
		fmt.Println("- Refresh token expired")
		fmt.Println("- Invalid client credentials")
		fmt.Println("- Refresh token already used (Oura refresh tokens are single-use)")
		return
	}

	var tokenResp struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		TokenType    string `json:"token_type"`
		ExpiresIn    int    `json:"expires_in"`
	}

	if err := json.Unmarshal(body, &tokenResp); err != nil {
		fmt.Printf("❌ Error parsing token response: %v\n", err)
		return
	}

	fmt.Println("✅ Successfully refreshed tokens!")
	fmt.Println("")
	fmt.Println("📝 Your new tokens:")
	fmt.Printf("Access Token:  %s\n", tokenResp.AccessToken)
	if tokenResp.RefreshToken != "" {
		fmt.Printf("Refresh Token: %s\n", tokenResp.RefreshToken)
	}
	fmt.Printf("Expires in:    %d seconds (%.1f hours)\n", tokenResp.ExpiresIn, float64(tokenResp.ExpiresIn)/3600)
	fmt.Println("")
	fmt.Println("Update OURA_ACCESS_TOKEN in your .env with the new access token,")
	fmt.Println("or let the MCP server refresh automatically from its stored token.")
}
