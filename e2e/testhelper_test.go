package e2e

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/hibiken/asynq"

	"github.com/reelsmith/api/internal/auth"
	"github.com/reelsmith/api/internal/handler"
	"github.com/reelsmith/api/internal/middleware"
	"github.com/reelsmith/api/internal/render"
	"github.com/reelsmith/api/internal/service"
	"github.com/reelsmith/api/internal/store"
	"github.com/reelsmith/api/internal/worker"
)

const testJWTSecret = "test-secret-for-e2e"

// testApp holds all components needed for testing.
type testApp struct {
	app   *fiber.App
	store *store.MemoryStore
}

// inlineEnqueuer runs the render worker synchronously instead of handing
// the task to asynq, so a submit response is only returned once the job
// reached a terminal state.
type inlineEnqueuer struct {
	worker *worker.RenderWorker
}

func (e *inlineEnqueuer) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if err := e.worker.ProcessTask(context.Background(), task); err != nil {
		return nil, err
	}
	return &asynq.TaskInfo{ID: "inline", Queue: service.RenderQueue, Type: task.Type()}, nil
}

// noopEnqueuer accepts tasks without running them, leaving jobs pending.
// Cancellation tests use it to act on a job before any work happens.
type noopEnqueuer struct{}

func (noopEnqueuer) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	return &asynq.TaskInfo{ID: "noop", Queue: service.RenderQueue, Type: task.Type()}, nil
}

// setupApp builds a Fiber app wired like main.go, but on the in-memory job
// store and the simulated backend so no Redis or rendering service is
// required. Render tasks execute inline.
func setupApp(t *testing.T) *testApp {
	t.Helper()
	return setup(t, true)
}

// setupAppManual is setupApp with render tasks accepted but never run, so
// submitted jobs stay pending.
func setupAppManual(t *testing.T) *testApp {
	t.Helper()
	return setup(t, false)
}

func setup(t *testing.T, inline bool) *testApp {
	t.Helper()

	jobStore := store.NewMemoryStore(nil)
	backend := render.NewSimulatedBackendWithCost(time.Millisecond)
	poller := render.NewStatusPollerWithLimits(backend, time.Millisecond, 200)
	pipeline := render.NewPipeline(jobStore, backend, poller, nil)
	renderWorker := worker.NewRenderWorker(pipeline)

	var enqueuer service.TaskEnqueuer = noopEnqueuer{}
	if inline {
		enqueuer = &inlineEnqueuer{worker: renderWorker}
	}

	validate := validator.New()
	renderService := service.NewRenderService(jobStore, enqueuer)
	timelineService := service.NewTimelineService()

	renderHandler := handler.NewRenderHandler(renderService, validate)
	timelineHandler := handler.NewTimelineHandler(timelineService, validate)

	authMiddleware := middleware.NewAuthMiddleware(testJWTSecret)

	app := fiber.New(fiber.Config{
		BodyLimit: 50 * 1024 * 1024,
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"services": fiber.Map{
				"backend": false,
				"storage": false,
				"auth":    true,
			},
		})
	})

	// Rate limiting needs Redis and is left out of the harness.
	api := app.Group("/api", authMiddleware.Authenticate())

	renderGroup := api.Group("/render")
	renderGroup.Post("/submit", renderHandler.Submit)
	renderGroup.Get("/status/:renderId", renderHandler.Status)
	renderGroup.Post("/cancel/:renderId", renderHandler.Cancel)

	timelineGroup := api.Group("/timeline")
	timelineGroup.Post("/build", timelineHandler.Build)
	timelineGroup.Post("/validate", timelineHandler.Validate)

	return &testApp{app: app, store: jobStore}
}

// generateToken creates an HMAC JWT for test requests.
func generateToken(t *testing.T) string {
	t.Helper()
	claims := auth.Claims{
		UserID: "test-user-123",
		Email:  "test@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer: "reelsmith-api",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("failed to generate test token: %v", err)
	}
	return signed
}

// doRequest performs an HTTP request against the test app.
func doRequest(app *fiber.App, method, path string, body string, headers map[string]string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, path, bodyReader)
	if err != nil {
		return nil, err
	}

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return app.Test(req, -1)
}

// doAuthRequest performs an authenticated request.
func doAuthRequest(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, error) {
	t.Helper()
	token := generateToken(t)
	return doRequest(app, method, path, body, map[string]string{
		"Authorization": "Bearer " + token,
	})
}

// readBody reads and returns the response body as a string.
func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	return string(b)
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	body := readBody(t, resp)
	var result map[string]interface{}
	if err := json.Unmarshal([]byte(body), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, body)
	}
	return result
}

// assertStatus checks the HTTP status code.
func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("expected status %d, got %d", expected, resp.StatusCode)
	}
}
