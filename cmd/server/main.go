package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/reelsmith/api/internal/client"
	"github.com/reelsmith/api/internal/config"
	"github.com/reelsmith/api/internal/handler"
	"github.com/reelsmith/api/internal/middleware"
	"github.com/reelsmith/api/internal/render"
	"github.com/reelsmith/api/internal/service"
	"github.com/reelsmith/api/internal/store"
	"github.com/reelsmith/api/internal/worker"
	ws "github.com/reelsmith/api/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Redis backs the job store, the task queue and the rate limiter
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: Redis not available: %v", err)
	}

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer asynqClient.Close()

	validate := validator.New()

	hub := ws.NewHub()
	go hub.Run()

	// Output artifact storage (optional - sweep skips deletion without it)
	var storageClient client.StorageClient
	if cfg.R2.AccessKeyID != "" && cfg.R2.SecretAccessKey != "" {
		r2Client, err := client.NewR2Client(&cfg.R2)
		if err != nil {
			log.Printf("Warning: R2 client not initialized: %v", err)
		} else {
			storageClient = r2Client
		}
	} else {
		log.Println("Info: R2 storage not configured, rendered artifacts are not persisted")
	}

	jobStore := store.NewRedisStore(redisClient, storageClient)

	// Rendering backend: remote when configured, with per-job fallback to
	// local simulated rendering on the first submission/poll failure
	simulated := render.NewSimulatedBackend()
	var backend render.Backend = simulated
	remote := render.NewRemoteBackend(&cfg.Backend)
	if remote.IsConfigured() {
		backend = render.NewFailoverBackend(remote, simulated)
	} else {
		log.Println("Info: render backend not configured, using simulated rendering")
	}

	poller := render.NewStatusPoller(backend)
	pipeline := render.NewPipeline(jobStore, backend, poller, hub)

	renderService := service.NewRenderService(jobStore, asynqClient)
	timelineService := service.NewTimelineService()

	renderHandler := handler.NewRenderHandler(renderService, validate)
	timelineHandler := handler.NewTimelineHandler(timelineService, validate)

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		BodyLimit:    50 * 1024 * 1024, // 50MB: timelines can carry many segments
	})

	app.Use(recover.New())
	logFormat := "[${time}] ${status} - ${latency} ${method} ${path}\n"
	if strings.EqualFold(cfg.Server.LogLevel, "debug") {
		logFormat = "[${time}] ${status} - ${latency} ${method} ${path} ${queryParams} ${body}\n"
		log.Println("Debug logging enabled")
	}
	app.Use(logger.New(logger.Config{
		Format: logFormat,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"timestamp": time.Now().Unix(),
		})
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"services": fiber.Map{
				"backend": remote.IsConfigured(),
				"storage": storageClient != nil,
				"auth":    cfg.JWT.Secret != "",
			},
		})
	})

	api := app.Group("/api", authMiddleware.Authenticate())

	renderGroup := api.Group("/render")
	renderGroup.Post("/submit", rateLimiter.RenderLimit(cfg.RateLimit.RenderPerHour), renderHandler.Submit)
	renderGroup.Get("/status/:renderId", renderHandler.Status)
	renderGroup.Post("/cancel/:renderId", renderHandler.Cancel)

	timelineGroup := api.Group("/timeline", rateLimiter.TimelineLimit(cfg.RateLimit.TimelinePerMin))
	timelineGroup.Post("/build", timelineHandler.Build)
	timelineGroup.Post("/validate", timelineHandler.Validate)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/jobs/:renderId", websocket.New(func(c *websocket.Conn) {
		renderID := c.Params("renderId")
		hub.HandleConnection(c, renderID)
	}))

	go startWorkerServer(cfg, pipeline)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down server...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	addr := ":" + cfg.Server.Port
	log.Printf("Server starting on %s", addr)
	if err := app.Listen(addr); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func startWorkerServer(cfg *config.Config, pipeline *render.Pipeline) {
	asynqLogLevel := asynq.InfoLevel
	switch {
	case strings.EqualFold(cfg.Server.LogLevel, "debug"):
		asynqLogLevel = asynq.DebugLevel
	case strings.EqualFold(cfg.Server.LogLevel, "warn"):
		asynqLogLevel = asynq.WarnLevel
	case strings.EqualFold(cfg.Server.LogLevel, "error"):
		asynqLogLevel = asynq.ErrorLevel
	}

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				service.RenderQueue: 10,
			},
			LogLevel: asynqLogLevel,
		},
	)

	renderWorker := worker.NewRenderWorker(pipeline)

	mux := asynq.NewServeMux()
	mux.HandleFunc(service.TaskTypeRender, renderWorker.ProcessTask)

	if err := srv.Run(mux); err != nil {
		log.Printf("Asynq worker error: %v", err)
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "SERVICE_ERROR",
			"message": message,
		},
	})
}
