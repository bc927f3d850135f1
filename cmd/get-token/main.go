package main

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
)

const (
	authorizeURL = "https://cloud.ouraring.com/oauth/authorize"
	tokenURL     = "https://api.ouraring.com/oauth/token"
	redirectURI  = "http://localhost:8080/callback"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Println("Oura OAuth Token Helper")
		fmt.Println("=======================")
		fmt.Println("")
		fmt.Println("Usage: go run ./cmd/get-token <client_id> <client_secret> [authorization_code]")
		fmt.Println("")
		fmt.Println("Step 1: Get authorization URL")
		fmt.Println("  go run ./cmd/get-token <client_id> <client_secret>")
		fmt.Println("")
		fmt.Println("Step 2: Exchange code for token")
		fmt.Println("  go run ./cmd/get-token <client_id> <client_secret> <auth_code>")
		return
	}

	clientID := os.Args[1]
	clientSecret := os.Args[2]

	if len(os.Args) == 3 {
		generateAuthURL(clientID)
	} else {
		exchangeCodeForToken(clientID, clientSecret, os.Args[3])
	}
}

func generateAuthURL(clientID string) {
	state := make([]byte, 32)
	if _, err := rand.Read(state); err != nil {
		fmt.Printf("❌ Error generating state: %v\n", err)
		return
	}

	params := url.Values{}
	params.Set("response_type", "code")
	params.Set("client_id", clientID)
	params.Set("redirect_uri", redirectURI)
	params.Set("scope", "personal daily")
	params.Set("state", base64.RawURLEncoding.EncodeToString(state))

	authURL := authorizeURL + "?" + params.Encode()

	fmt.Println("🔗 STEP 1: Open this URL in your browser to authorize the app:")
	fmt.Println("")
	fmt.Println(authURL)
	fmt.Println("")
	fmt.Println("After authorizing, you'll be redirected to a URL like:")
	fmt.Println(redirectURI + "?code=AUTHORIZATION_CODE&state=...")
	fmt.Println("")
	fmt.Println("📋 STEP 2: Copy the 'code' parameter and run:")
	fmt.Printf("go run ./cmd/get-token %s [your_client_secret] <AUTHORIZATION_CODE>\n", clientID)
	fmt.Println("")
	fmt.Println("⚠️  Note: The redirect URL might show an error page, that's OK!")
	fmt.Println("   Just copy the 'code' parameter from the URL bar.")
}

func exchangeCodeForToken(clientID, clientSecret, authCode string) {
	fmt.Println("🔄 Exchanging authorization code for access token...")

	data := url.Values{}
	data.Set("grant_type", "authorization_code")
	data.Set("code", authCode)
	data.Set("redirect_uri", redirectURI)
	data.Set("client_id", clientID)
	data.Set("client_secret", clientSecret)

	resp, err := http.PostForm(tokenURL, data)
	if err != nil {
		fmt.Printf("❌ Error making token request: %v\n", err)
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		fmt.Printf("❌ Error reading response: %v\n", err)
		return
	}

	if resp.StatusCode != 200 {
		fmt.Printf("❌ Token request failed (status %d):\n%s\n", resp.StatusCode, string(body))
		fmt.Println("")
		fmt.Println("Common issues:")
		fmt.Println("- Authorization code already used (codes are single-use)")
		fmt.Println("- Authorization code expired (they expire quickly)")
		fmt.Println("- Wrong redirect URI (must match exactly)")
		fmt.Println("- Invalid client credentials")
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

	fmt.Println("✅ Successfully obtained tokens!")
	fmt.Println("")
	fmt.Println("📝 Your tokens:")
	fmt.Printf("Access Token:  %s\n", tokenResp.AccessToken)
	if tokenResp.RefreshToken != "" {
		fmt.Printf("Refresh Token: %s\n", tokenResp.RefreshToken)
	}
	fmt.Printf("Expires in:    %d seconds (%d hours)\n", tokenResp.ExpiresIn, tokenResp.ExpiresIn/3600)
	fmt.Println("")

	writeEnvFile(tokenResp.AccessToken)
}

func writeEnvFile(accessToken string) {
	envContent := fmt.Sprintf(`# Oura MCP Server Configuration

# Oura API access token (used when no stored token exists)
OURA_ACCESS_TOKEN=%s

# OAuth2 credentials, needed for the authorization flow and token refresh
# OURA_CLIENT_ID=
# OURA_CLIENT_SECRET=

# Optional: OAuth2 redirect URI (defaults to http://localhost:8080/callback)
# OURA_REDIRECT_URI=

# Optional: token file location (defaults to ~/.oura-mcp/token.json)
# OURA_TOKEN_FILE=

# Optional: logging level (debug, info, warn, error)
# LOG_LEVEL=info
`, accessToken)

	err := os.WriteFile(".env", []byte(envContent), 0600)
	if err != nil {
		fmt.Printf("⚠️  Could not write .env file: %v\n", err)
		fmt.Println("Please create .env manually with the token above.")
	} else {
		fmt.Println("✅ Created .env file with your token!")
		fmt.Println("")
		fmt.Println("🚀 Next steps:")
		fmt.Println("1. Build the MCP server: go build -o bin/oura-mcp .")
		fmt.Println("2. Test the server: ./bin/oura-mcp")
		fmt.Println("3. Point your MCP client at the binary (stdio transport)")
	}
}
