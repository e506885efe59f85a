//go:build ignore

// Walks a running server through one workspace session:
//
//	go run scripts/smoke_workspace_api.go [base-url] [token]
package main

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/goccy/go-json"
)

var (
	baseURL = "http://localhost:3000/api"
	token   = ""
)

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
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: 2 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	return resp, respBody, err
}

func step(title, method, url string, body interface{}) []byte {
	color.Yellow("\n%s", title)
	resp, respBody, err := sendRequest(method, url, body)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	if resp.StatusCode >= 400 {
		color.Red("Status: %s", resp.Status)
	} else {
		color.Green("Status: %s", resp.Status)
	}
	prettyPrint(respBody)
	return respBody
}

func main() {
	if len(os.Args) > 1 {
		baseURL = os.Args[1]
	}
	if len(os.Args) > 2 {
		token = os.Args[2]
	}

	color.Cyan("🚀 Workspace API smoke test against %s\n", baseURL)

	step("1. Health", "GET", "/health", nil)

	created := step("2. Create workspace", "POST", "/workspaces", nil)
	var createResp struct {
		Data struct {
			Id string `json:"id"`
		} `json:"data"`
	}
	_ = json.Unmarshal(created, &createResp)
	id := createResp.Data.Id
	if id == "" {
		color.Red("No workspace id returned, aborting")
		os.Exit(1)
	}
	ws := "/workspaces/" + id

	step("3. Select node", "PUT", ws+"/selection/node", map[string]interface{}{
		"node": map[string]interface{}{
			"id": "eq-press-01", "label": "프레스 1호기", "kind": "equipment", "status": "warning",
			"position": map[string]float64{"x": 120, "y": 80},
		},
	})

	for _, rowID := range []string{"row-1", "row-2"} {
		step("4. Toggle "+rowID, "POST", ws+"/selection/rows/toggle", map[string]interface{}{
			"row": map[string]interface{}{
				"id": rowID, "process": "CMP", "equipment": "EQ-7", "status": "RUNNING", "prediction": 0.87,
			},
		})
	}

	step("5. Ask", "POST", ws+"/chat", map[string]string{"chat": "선택한 설비의 상태를 요약해줘"})
	step("6. History", "GET", ws+"/chat", nil)
	step("7. Clear selections", "DELETE", ws+"/selection", nil)
	step("8. Delete workspace", "DELETE", ws, nil)

	color.Cyan("\n✅ Done")
}
