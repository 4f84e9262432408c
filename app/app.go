package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appsvc "highlight-service/ddd/application/app"
	"highlight-service/internal/resource"
	"highlight-service/pkg/config"
	"highlight-service/pkg/logger"
	"highlight-service/pkg/manager"
	"highlight-service/pkg/middleware"
	"highlight-service/pkg/registry"
	"highlight-service/pkg/task"

	_ "highlight-service/ddd/adapter/component"
	_ "highlight-service/ddd/adapter/http"
	_ "highlight-service/ddd/infrastructure/worker"
)

// processOptions select which surfaces a process runs. The all-in-one binary
// runs everything; cmd/worker and cmd/scheduler trim the set down.
type processOptions struct {
	name        string
	httpEnabled bool
	override    func(cfg *config.Config)
}

// Run starts the full highlight service: HTTP API, Kafka intake, pipeline
// workers and the publish scheduler in one process.
func Run() {
	runProcess(processOptions{name: "highlight-service", httpEnabled: true})
}

// RunWorker starts a pipeline worker process. It consumes submissions from
// Kafka and processes the shared queue but exposes no public HTTP API.
func RunWorker() {
	runProcess(processOptions{
		name: "highlight-worker",
		override: func(cfg *config.Config) {
			cfg.Worker.Enabled = true
		},
	})
}

// RunScheduler starts a publish scheduler process. It only drains due publish
// jobs; the pipeline workers and the Kafka intake stay off.
func RunScheduler() {
	runProcess(processOptions{
		name: "highlight-scheduler",
		override: func(cfg *config.Config) {
			cfg.Worker.Enabled = false
			cfg.Publish.Enabled = true
			cfg.Kafka.Enabled = false
		},
	})
}

func runProcess(opts processOptions) {
	fmt.Printf("[STARTUP] Starting %s...\n", opts.name)

	fmt.Println("[STARTUP] Loading config file...")
	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("[ERROR] Failed to load config (%s): %v\n", cfgPath, err)
		os.Exit(1)
	}
	if opts.override != nil {
		opts.override(cfg)
	}
	// Global config must be in place before any resource opens.
	config.SetGlobalConfig(cfg)
	fmt.Printf("[STARTUP] Config file loaded: %s\n", cfgPath)

	fmt.Println("[STARTUP] Initializing logger...")
	logService := logger.NewLogger(cfg)
	logger.SetGlobalLogger(logService)
	fmt.Println("[STARTUP] Logger initialized")

	logger.Debug("Logger initialized", map[string]interface{}{
		"level":  cfg.Log.Level,
		"format": cfg.Log.Format,
		"output": cfg.Log.Output,
	})

	logger.Infof("%s starting version=%s", opts.name, "1.0.0")

	if cfg.Worker.Enabled {
		mustCheckPipelineBinaries(cfg)
	}

	logger.Infof("Initializing resource manager...")
	manager.MustInitResources()
	defer manager.CloseResources()
	logger.Infof("Resource manager initialized")

	highlightApp := appsvc.DefaultHighlightApp()
	publishApp := appsvc.DefaultPublishApp()

	deps := &manager.Dependencies{
		DB:                  resource.DefaultMysqlResource().MainDB(),
		Config:              cfg,
		HighlightAppService: highlightApp,
		PublishAppService:   publishApp,
	}

	if opts.httpEnabled {
		logger.Infof("Initializing services...")
		manager.MustInitServices(deps)
		logger.Infof("All services initialized")
	}

	logger.Infof("Initializing components...")
	manager.MustInitComponents(deps)
	logger.Infof("All components initialized")

	logger.Infof("Starting background tasks...")
	if err := task.StartAll(context.Background()); err != nil {
		logger.Fatal(fmt.Sprintf("Failed to start background tasks error=%v", err))
	}
	logger.Infof("Background tasks started")

	var server *http.Server
	var svcRegistry *registry.ServiceRegistry
	if opts.httpEnabled {
		if cfg.Server.Mode != "" {
			gin.SetMode(cfg.Server.Mode)
		}

		logger.Infof("Creating HTTP routes...")
		engine := gin.Default()
		engine.Use(corsMiddleware())
		engine.Use(middleware.RequestContextMiddleware())
		engine.Use(middleware.JWTAuthMiddleware(cfg))

		manager.RegisterAllRoutes(engine)
		logger.Infof("Routes registered")

		port := getEnv("PORT", strconv.Itoa(cfg.Server.Port))
		server = &http.Server{
			Addr:         ":" + port,
			Handler:      engine,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		}

		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Fatal(fmt.Sprintf("Failed to start HTTP server error=%v", err))
			}
		}()
		logger.Infof("HTTP server started port=%s service=%s health_url=%s api_url=%s",
			port, opts.name,
			fmt.Sprintf("http://localhost:%s/health", port),
			fmt.Sprintf("http://localhost:%s/api/v1", port))

		svcRegistry = registerService(cfg, port)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Infof("Received shutdown signal, shutting down...")

	if svcRegistry != nil {
		if err := svcRegistry.Deregister(); err != nil {
			logger.Warnf("Service deregistration failed error=%v", err)
		}
	}

	logger.Infof("Stopping background tasks...")
	task.StopAll()
	logger.Infof("Background tasks stopped")

	logger.Infof("Shutting down components...")
	manager.Shutdown()
	logger.Infof("Components closed")

	if server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Fatal(fmt.Sprintf("Server forced to close error=%v", err))
		}
	}

	logger.Infof("Server exited safely")

	logger.Infof("Closing logger...")
	if logService != nil {
		logService.Close()
	}

	fmt.Printf("[SHUTDOWN] %s exited safely\n", opts.name)
}

// mustCheckPipelineBinaries fails fast when the render toolchain is missing.
// yt-dlp only degrades remote fetches, so a missing binary is a warning.
func mustCheckPipelineBinaries(cfg *config.Config) {
	ffmpegBin := strings.TrimSpace(cfg.Pipeline.FFmpeg.BinaryPath)
	if ffmpegBin == "" {
		ffmpegBin = "ffmpeg"
	}
	if _, err := exec.LookPath(ffmpegBin); err != nil {
		logger.Fatal(fmt.Sprintf("FFmpeg binary not found, please install or set pipeline.ffmpeg.binary_path binary=%s error=%s", ffmpegBin, err.Error()))
	}

	probeBin := strings.TrimSpace(cfg.Pipeline.FFmpeg.ProbePath)
	if probeBin == "" {
		probeBin = "ffprobe"
	}
	if _, err := exec.LookPath(probeBin); err != nil {
		logger.Fatal(fmt.Sprintf("FFprobe binary not found, please install or set pipeline.ffmpeg.probe_path binary=%s error=%s", probeBin, err.Error()))
	}

	ytdlpBin := strings.TrimSpace(cfg.Pipeline.YtDlp.BinaryPath)
	if ytdlpBin == "" {
		ytdlpBin = "yt-dlp"
	}
	if _, err := exec.LookPath(ytdlpBin); err != nil {
		logger.Warnf("yt-dlp binary not found, remote sources will fail binary=%s error=%s", ytdlpBin, err.Error())
	}
}

// registerService announces the HTTP endpoint in etcd when enabled. A failed
// registration never blocks startup, the API stays reachable directly.
func registerService(cfg *config.Config, port string) *registry.ServiceRegistry {
	if !cfg.ServiceRegistry.Enabled {
		return nil
	}

	host := cfg.ServiceRegistry.RegisterHost
	if host == "" {
		host = "localhost"
	}
	serviceID := cfg.ServiceRegistry.ServiceID
	if serviceID == "" {
		serviceID = fmt.Sprintf("%s-%s", cfg.ServiceRegistry.ServiceName, uuid.NewString()[:8])
	}

	reg, err := registry.NewServiceRegistry(
		registry.RegistryConfig{
			Endpoints:   cfg.ServiceRegistry.Endpoints,
			DialTimeout: cfg.ServiceRegistry.DialTimeout,
			Username:    cfg.ServiceRegistry.Username,
			Password:    cfg.ServiceRegistry.Password,
		},
		registry.ServiceConfig{
			ServiceName:     cfg.ServiceRegistry.ServiceName,
			ServiceID:       serviceID,
			TTL:             cfg.ServiceRegistry.TTL,
			RefreshInterval: cfg.ServiceRegistry.RefreshInterval,
		},
		fmt.Sprintf("%s:%s", host, port),
	)
	if err != nil {
		logger.Warnf("Service registry unavailable error=%v", err)
		return nil
	}
	if err := reg.Register(); err != nil {
		logger.Warnf("Service registration failed error=%v", err)
		return nil
	}
	logger.Infof("Service registered name=%s id=%s", cfg.ServiceRegistry.ServiceName, serviceID)
	return reg
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-User-UUID, X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// resolveConfigPath picks the config file for the current environment,
// CONFIG_PATH overrides everything, CONFIG_ENV switches between profiles.
func resolveConfigPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}

	env := strings.ToLower(strings.TrimSpace(os.Getenv("CONFIG_ENV")))
	if env == "" {
		env = "dev"
	}

	switch env {
	case "prod", "production":
		return "configs/config_prod.yaml"
	case "dev", "development":
		return "configs/config.dev.yaml"
	default:
		return fmt.Sprintf("configs/config.%s.yaml", env)
	}
}
