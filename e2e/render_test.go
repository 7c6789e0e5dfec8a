package e2e

import (
	"net/http"
	"strings"
	"testing"
)

const submitBody = `{
	"compositionId": "comp-1",
	"outputFormat": "mp4",
	"codec": "h264",
	"quality": 80,
	"project": {
		"id": "proj-1",
		"name": "Launch teaser",
		"scenes": [
			{"id": "scene-1", "videos": [{"id": "v1", "url": "https://cdn.example.com/a.mp4", "duration": 5}]},
			{"id": "scene-2", "videos": [{"id": "v2", "url": "https://cdn.example.com/b.mp4", "duration": 4}]}
		]
	}
}`

func TestRenderSubmitAndStatus(t *testing.T) {
	ta := setupApp(t)

	resp, err := doAuthRequest(t, ta.app, "POST", "/api/render/submit", submitBody)
	if err != nil {
		t.Fatalf("submit request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusAccepted)

	result := parseJSON(t, resp)
	renderID, _ := result["renderId"].(string)
	if renderID == "" {
		t.Fatalf("response carries no renderId: %v", result)
	}
	if result["status"] != "pending" {
		t.Errorf("expected pending at accept time, got %v", result["status"])
	}

	// The harness runs the render inline, so the job is already terminal.
	resp, err = doAuthRequest(t, ta.app, "GET", "/api/render/status/"+renderID, "")
	if err != nil {
		t.Fatalf("status request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	status := parseJSON(t, resp)
	if status["status"] != "completed" {
		t.Fatalf("expected completed, got %v (error: %v)", status["status"], status["error"])
	}
	if status["progress"] != float64(100) {
		t.Errorf("expected progress 100, got %v", status["progress"])
	}
	outputURL, _ := status["outputUrl"].(string)
	if !strings.HasPrefix(outputURL, "simulated://renders/") {
		t.Errorf("expected simulated output url, got %q", outputURL)
	}
}

func TestRenderSubmit_MissingCompositionID(t *testing.T) {
	ta := setupApp(t)

	body := strings.Replace(submitBody, `"compositionId": "comp-1",`, "", 1)
	resp, err := doAuthRequest(t, ta.app, "POST", "/api/render/submit", body)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusBadRequest)

	result := parseJSON(t, resp)
	errObj, _ := result["error"].(map[string]interface{})
	if errObj["code"] != "VALIDATION_ERROR" {
		t.Errorf("expected VALIDATION_ERROR, got %v", errObj["code"])
	}
}

func TestRenderSubmit_NeitherTimelineNorProject(t *testing.T) {
	ta := setupApp(t)

	body := `{"compositionId": "comp-1", "outputFormat": "mp4", "codec": "h264", "quality": 80}`
	resp, err := doAuthRequest(t, ta.app, "POST", "/api/render/submit", body)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusBadRequest)
}

func TestRenderSubmit_ContinuityIssue(t *testing.T) {
	ta := setupApp(t)

	// A 2s gap between segments, well past the tolerance.
	body := `{
		"compositionId": "comp-1",
		"outputFormat": "mp4",
		"codec": "h264",
		"quality": 80,
		"timeline": {
			"id": "tl-1",
			"name": "broken",
			"duration": 10,
			"frameRate": 30,
			"width": 1920,
			"height": 1080,
			"segments": [
				{"id": "s1", "sourceUrl": "a.mp4", "startTime": 0, "duration": 4},
				{"id": "s2", "sourceUrl": "b.mp4", "startTime": 6, "duration": 4}
			]
		}
	}`
	resp, err := doAuthRequest(t, ta.app, "POST", "/api/render/submit", body)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusBadRequest)

	result := parseJSON(t, resp)
	errObj, _ := result["error"].(map[string]interface{})
	if errObj["code"] != "CONTINUITY_ERROR" {
		t.Errorf("expected CONTINUITY_ERROR, got %v", errObj["code"])
	}
	if errObj["details"] == nil {
		t.Error("continuity response should list the issues")
	}
}

func TestRenderStatus_NotFound(t *testing.T) {
	ta := setupApp(t)

	resp, err := doAuthRequest(t, ta.app, "GET", "/api/render/status/render_missing", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusNotFound)
}

func TestRenderCancel(t *testing.T) {
	ta := setupAppManual(t)

	resp, err := doAuthRequest(t, ta.app, "POST", "/api/render/submit", submitBody)
	if err != nil {
		t.Fatalf("submit request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusAccepted)
	renderID, _ := parseJSON(t, resp)["renderId"].(string)

	resp, err = doAuthRequest(t, ta.app, "POST", "/api/render/cancel/"+renderID, "")
	if err != nil {
		t.Fatalf("cancel request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	result := parseJSON(t, resp)
	if result["success"] != true {
		t.Errorf("expected success, got %v", result)
	}
	if result["status"] != "failed" {
		t.Errorf("cancelled job should read failed, got %v", result["status"])
	}

	// A second cancel hits a job that is already terminal.
	resp, err = doAuthRequest(t, ta.app, "POST", "/api/render/cancel/"+renderID, "")
	if err != nil {
		t.Fatalf("second cancel request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusBadRequest)
}

func TestRenderRoutes_RequireAuth(t *testing.T) {
	ta := setupApp(t)

	resp, err := doRequest(ta.app, "POST", "/api/render/submit", submitBody, nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusUnauthorized)
}
