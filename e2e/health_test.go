package e2e

import (
	"net/http"
	"testing"
)

func TestHealthEndpoint(t *testing.T) {
	ta := setupApp(t)

	resp, err := doRequest(ta.app, "GET", "/health", "", nil)
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	result := parseJSON(t, resp)
	if result["status"] != "ok" {
		t.Errorf("expected status ok, got %v", result["status"])
	}
	if _, ok := result["services"].(map[string]interface{}); !ok {
		t.Errorf("health should report per-service readiness, got %v", result)
	}
}

func TestHealthEndpoint_NoAuthRequired(t *testing.T) {
	ta := setupApp(t)

	resp, err := doRequest(ta.app, "GET", "/health", "", nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode == http.StatusUnauthorized {
		t.Error("health must be reachable without a token")
	}
}
