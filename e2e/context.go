package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// TestContext carries the state of one scenario against a running gateway.
type TestContext struct {
	BaseURL    string
	AdminToken string
	HTTPClient *http.Client

	token        string
	traceID      string
	lastStatus   int
	lastHeaders  http.Header
	lastBody     []byte
	lastResponse map[string]any
}

// NewTestContext reads PEDALGATE_URL and E2E_ADMIN_TOKEN (from `tokenctl issue`).
func NewTestContext() *TestContext {
	baseURL := os.Getenv("PEDALGATE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	return &TestContext{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		AdminToken: os.Getenv("E2E_ADMIN_TOKEN"),
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Reset clears per-scenario state.
func (tc *TestContext) Reset() {
	tc.token = ""
	tc.traceID = ""
	tc.lastStatus = 0
	tc.lastHeaders = nil
	tc.lastBody = nil
	tc.lastResponse = nil
}

func (tc *TestContext) UseAdminToken() error {
	if tc.AdminToken == "" {
		return fmt.Errorf("E2E_ADMIN_TOKEN is not set")
	}
	tc.token = tc.AdminToken
	return nil
}

func (tc *TestContext) UseToken(token string) { tc.token = token }
func (tc *TestContext) SetTraceID(id string) { tc.traceID = id }

func (tc *TestContext) GET(path string) error {
	return tc.do(http.MethodGet, path, nil)
}

func (tc *TestContext) POST(path string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	return tc.do(http.MethodPost, path, payload)
}

func (tc *TestContext) POSTRaw(path, body string) error {
	return tc.do(http.MethodPost, path, []byte(body))
}

func (tc *TestContext) OPTIONS(path string) error {
	return tc.do(http.MethodOptions, path, nil)
}

func (tc *TestContext) do(method, path string, body []byte) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, tc.BaseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tc.token != "" {
		req.Header.Set("Authorization", "Bearer "+tc.token)
	}
	if tc.traceID != "" {
		req.Header.Set("X-Trace-Id", tc.traceID)
	}

	resp, err := tc.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	tc.lastStatus = resp.StatusCode
	tc.lastHeaders = resp.Header
	tc.lastBody, err = io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	tc.lastResponse = nil
	var parsed map[string]any
	if json.Unmarshal(tc.lastBody, &parsed) == nil {
		tc.lastResponse = parsed
	}
	return nil
}

func (tc *TestContext) GetLastStatusCode() int { return tc.lastStatus }
func (tc *TestContext) GetLastHeader(k string) string { return tc.lastHeaders.Get(k) }
func (tc *TestContext) GetLastBody() []byte { return tc.lastBody }

func (tc *TestContext) GetResponseField(field string) (any, error) {
	if tc.lastResponse == nil {
		return nil, fmt.Errorf("response is not a JSON object: %s", string(tc.lastBody))
	}
	v, ok := tc.lastResponse[field]
	if !ok {
		return nil, fmt.Errorf("field %q not in response", field)
	}
	return v, nil
}
