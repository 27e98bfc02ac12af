package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"droidcast/internal/core/domain"
	"droidcast/internal/core/services"
	"droidcast/internal/infrastructure/console"
	"droidcast/internal/infrastructure/middleware"
	"droidcast/internal/infrastructure/monitoring"
	"droidcast/internal/infrastructure/reliability"
	"droidcast/internal/infrastructure/render"
	"droidcast/internal/infrastructure/transport/synthetic"
	"droidcast/pkg/circuitbreaker"
	"droidcast/pkg/config"
	"droidcast/pkg/logger"
	"droidcast/pkg/retry"
	"droidcast/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Try multiple config paths
	configPaths := []string{
		"configs/config.yaml",
		"./configs/config.yaml",
		"/etc/droidcast/config.yaml",
		"config.yaml",
	}

	var cfg *config.Config
	var err error

	for _, path := range configPaths {
		cfg, err = config.Load(path)
		if err == nil {
			break
		}
	}

	if err != nil {
		// Fallback to defaults if config cannot be loaded
		cfg = config.DefaultConfig()
	}

	// Initialize logger
	zapLogger := logger.New(cfg.Logging.Level)
	defer zapLogger.Sync()

	log := zapLogger.Sugar()
	ctxLog := logger.NewContextLogger(zapLogger)

	// Initialize tracing
	tracerProvider, err := tracing.Init(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: "droidcast-console",
		JaegerURL:   cfg.Tracing.JaegerURL,
		Environment: cfg.Tracing.Environment,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		log.Fatalw("failed to initialize tracing", "error", err)
	}

	// Build the quality ladder from configuration
	presets := make([]domain.QualityPreset, 0, len(cfg.Session.Presets))
	for _, p := range cfg.Session.Presets {
		presets = append(presets, domain.QualityPreset{
			Name:         p.Name,
			MaxDimension: p.MaxDimension,
			BitRate:      p.BitRate,
			MaxFrameRate: p.MaxFrameRate,
		})
	}
	ladder, err := domain.NewLadder(presets...)
	if err != nil {
		log.Fatalw("invalid preset ladder", "error", err)
	}

	// Rendering pipeline
	surface := render.NewImageSurface(domain.Size{
		Width:  cfg.Transport.DeviceWidth,
		Height: cfg.Transport.DeviceHeight,
	})
	renderer := render.NewRenderer(surface, cfg.Render.Watermark, cfg.Render.OverlayCornerRadius, log)

	// Device transport, wrapped with provisioning retries behind a breaker
	driver := synthetic.NewDriver(domain.Size{
		Width:  cfg.Transport.DeviceWidth,
		Height: cfg.Transport.DeviceHeight,
	}, log)

	retryCfg := retry.DefaultConfig()
	retryCfg.Enabled = cfg.Transport.Provision.RetryEnabled
	retryCfg.MaxAttempts = cfg.Transport.Provision.RetryAttempts
	retryCfg.InitialDelay = cfg.Transport.Provision.RetryInitialDelay
	retryCfg.MaxDelay = cfg.Transport.Provision.RetryMaxDelay

	breakerCfg := circuitbreaker.DefaultConfig()
	breakerCfg.FailureThreshold = cfg.Transport.Provision.BreakerFailures
	breakerCfg.OpenTimeout = cfg.Transport.Provision.BreakerResetAfter

	transport := reliability.NewResilientTransport(driver, retryCfg, breakerCfg, log)

	// Event sinks: metrics and the console bridge see the same stream
	collector := monitoring.NewPrometheusCollector(nil)

	controller := services.NewSessionController(
		transport,
		renderer,
		surface,
		ladder,
		nil, // sinks attached below, the bridge needs the controller first
		services.SessionSettings{
			DefaultPreset:     cfg.Session.DefaultPreset,
			AutoAdapt:         cfg.Session.AutoAdapt,
			ResizeThresholdPx: cfg.Session.ResizeThresholdPx,
			ResizeDebounce:    cfg.Session.ResizeDebounce,
			TransitionBitRate: cfg.Session.TransitionBitRate,
			Desktop: domain.DesktopGeometry{
				ReferenceSize: cfg.Desktop.ReferenceSize,
				ReferenceDPI:  cfg.Desktop.ReferenceDPI,
				MinDPI:        cfg.Desktop.MinDPI,
			},
			MonitorInterval:  cfg.Monitor.SampleInterval,
			MonitorThreshold: cfg.Monitor.FPSThreshold,
			MonitorStreak:    cfg.Monitor.SlowStreak,
		},
		log,
	)
	input := services.NewInputBridge(controller, log)
	bridge := console.NewBridge(controller, input, cfg, log)
	controller.AttachSinks(collector, bridge)

	// Health probes
	healthChecker := monitoring.NewHealthChecker()
	healthChecker.AddSessionCheck(controller, 10*time.Second, 2*time.Second)
	healthChecker.AddPipelineCheck(controller, surface, 10*time.Second, 10*time.Second, 2*time.Second)

	// Configure Gin
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.ErrorHandlerMiddleware(ctxLog))
	if cfg.Tracing.Enabled {
		router.Use(middleware.TracingMiddleware())
	}
	router.Use(middleware.RequestLogMiddleware(ctxLog))
	router.Use(middleware.NewHTTPRateLimitMiddleware(cfg))

	sessionHandler := console.NewSessionHandler(controller, renderer, surface, log)
	sessionHandler.SetOverlaySource(synthetic.NewCamera(domain.Size{}))
	sessionHandler.SetupRoutes(router)

	router.GET("/ws", middleware.NewWSConnectionLimitMiddleware(cfg), bridge.HandleWebSocket)

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		status := healthChecker.CheckAll(c.Request.Context())
		code := http.StatusOK
		if status.Status != "healthy" {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, status)
	})

	// Readiness endpoint
	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if !healthChecker.IsReady(ctx) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "timestamp": time.Now()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "timestamp": time.Now()})
	})

	// Prometheus metrics endpoint
	if cfg.Monitoring.PrometheusEnabled {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
		log.Info("Prometheus metrics enabled")
	}

	// Background uptime refresh and periodic health probes
	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()
	go collector.Run(bgCtx, controller, cfg.Monitoring.MetricsInterval)
	healthChecker.StartBackgroundChecks(bgCtx)

	// Create HTTP server with timeouts
	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		log.Infof("Starting droidcast console on %s", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Wait for shutdown signals or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Fatalw("Server failed", "error", err)
	case sig := <-sigChan:
		log.Infow("Received shutdown signal", "signal", sig)
	}

	log.Info("Shutting down droidcast console...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	// Stop the mirroring session before the server so console tabs see the
	// final stopped status.
	if err := controller.Stop(shutdownCtx); err != nil {
		log.Errorw("Error stopping session", "error", err)
	}
	bridge.Close()
	bgCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Error during server shutdown", "error", err)
		if closeErr := srv.Close(); closeErr != nil {
			log.Errorw("Error force closing server", "error", closeErr)
		}
	} else {
		log.Info("Server shutdown gracefully")
	}

	if err := tracerProvider.Shutdown(context.Background()); err != nil {
		log.Errorw("Error shutting down tracer provider", "error", err)
	}

	log.Info("droidcast console stopped")
}
