package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/fatih/color"
)

const baseURL = "http://localhost:3000/api"

// Pretty print JSON helper
func prettyPrint(body []byte) {
	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		fmt.Println(string(body))
		return
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

// Request helper
func sendRequest(method, url string, body interface{}) (*http.Response, []byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, baseURL+url, bodyReader)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	return resp, respBody, nil
}

func step(name string) {
	color.Cyan("\n=== %s ===", name)
}

func check(resp *http.Response, body []byte, wantStatus int) {
	if resp.StatusCode == wantStatus {
		color.Green("OK (%d)", resp.StatusCode)
	} else {
		color.Red("FAIL: got %d, want %d", resp.StatusCode, wantStatus)
	}
	prettyPrint(body)
}

func main() {
	step("Create session")
	resp, body, err := sendRequest("POST", "/chat/session", nil)
	if err != nil {
		color.Red("server unreachable: %v", err)
		os.Exit(1)
	}
	check(resp, body, http.StatusCreated)

	var created struct {
		Id string `json:"id"`
	}
	_ = json.Unmarshal(body, &created)

	step("Educational query (no adapters)")
	resp, body, _ = sendRequest("POST", "/chat/query", map[string]interface{}{
		"session_id": created.Id,
		"query":      "What is PM2.5?",
	})
	check(resp, body, http.StatusOK)

	step("Real-time query (regional city)")
	resp, body, _ = sendRequest("POST", "/chat/query", map[string]interface{}{
		"session_id": created.Id,
		"query":      "How is the air quality in Los Angeles right now?",
	})
	check(resp, body, http.StatusOK)

	step("Same query again (expect cache hit)")
	resp, body, _ = sendRequest("POST", "/chat/query", map[string]interface{}{
		"session_id": created.Id,
		"query":      "How is the air quality in Los Angeles right now?",
	})
	check(resp, body, http.StatusOK)

	step("Comparison query")
	resp, body, _ = sendRequest("POST", "/chat/query", map[string]interface{}{
		"session_id": created.Id,
		"query":      "Compare air quality in Jakarta and London",
	})
	check(resp, body, http.StatusOK)

	step("Attach documents until capacity error")
	for i := 1; i <= 4; i++ {
		want := http.StatusCreated
		if i == 4 {
			want = http.StatusConflict
		}
		resp, body, _ = sendRequest("POST", "/chat/session/"+created.Id+"/document", map[string]interface{}{
			"name":    fmt.Sprintf("report-%d.pdf", i),
			"summary": "Quarterly air quality summary",
		})
		check(resp, body, want)
	}

	step("Session history")
	resp, body, _ = sendRequest("GET", "/chat/session/"+created.Id+"/history?limit=10", nil)
	check(resp, body, http.StatusOK)

	step("Usage counters")
	resp, body, _ = sendRequest("GET", "/chat/usage", nil)
	check(resp, body, http.StatusOK)

	step("Delete session")
	resp, body, _ = sendRequest("DELETE", "/chat/session", map[string]interface{}{
		"session_id": created.Id,
	})
	check(resp, body, http.StatusNoContent)

	color.Green("\nDone.")
}
