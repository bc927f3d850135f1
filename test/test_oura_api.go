package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"
)

// Manual end-to-end check of the Oura API endpoints the MCP server uses.
// Run with: OURA_ACCESS_TOKEN=... go run ./test
func main() {
	accessToken := os.Getenv("OURA_ACCESS_TOKEN")
	if accessToken == "" {
		fmt.Println("❌ OURA_ACCESS_TOKEN not found in environment")
		return
	}

	display := accessToken
	if len(display) > 20 {
		display = display[:20]
	}
	fmt.Printf("🔗 Testing Oura API endpoints with token: %s...\n", display)
	fmt.Println()

	fmt.Println("1️⃣ Testing Personal Info...")
	testEndpoint("https://api.ouraring.com/v2/usercollection/personal_info", accessToken, nil)

	fmt.Println("\n2️⃣ Testing Sleep Data (yesterday)...")
	yesterday := time.Now().AddDate(0, 0, -1).Format("2006-01-02")
	params := url.Values{}
	params.Set("start_date", yesterday)
	params.Set("end_date", yesterday)
	testEndpoint("https://api.ouraring.com/v2/usercollection/sleep", accessToken, params)

	fmt.Println("\n3️⃣ Testing Sleep Data (past week)...")
	params = url.Values{}
	params.Set("start_date", time.Now().AddDate(0, 0, -8).Format("2006-01-02"))
	params.Set("end_date", yesterday)
	testEndpoint("https://api.ouraring.com/v2/usercollection/sleep", accessToken, params)
}

func testEndpoint(baseURL string, accessToken string, params url.Values) {
	requestURL := baseURL
	if len(params) > 0 {
		requestURL += "?" + params.Encode()
	}

	fmt.Printf("   📡 GET %s\n", requestURL)

	req, err := http.NewRequest("GET", requestURL, nil)
	if err != nil {
		fmt.Printf("   ❌ Failed to create request: %v\n", err)
		return
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("   ❌ Request failed: %v\n", err)
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		fmt.Printf("   ❌ Failed to read response: %v\n", err)
		return
	}

	if resp.StatusCode != 200 {
		fmt.Printf("   ❌ HTTP %d: %s\n", resp.StatusCode, string(body))
		return
	}

	var result interface{}
	if err := json.Unmarshal(body, &result); err != nil {
		fmt.Printf("   ❌ Failed to parse JSON: %v\n", err)
		fmt.Printf("   Raw response: %s\n", string(body))
		return
	}

	prettyJSON, err := json.MarshalIndent(result, "   ", "  ")
	if err != nil {
		fmt.Printf("   ❌ Failed to format JSON: %v\n", err)
		return
	}

	fmt.Printf("   ✅ Success (%d bytes):\n", len(body))
	fmt.Printf("%s\n", string(prettyJSON))
}
