package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bettyarega/Flash-CDC/internal/handlers"
	"github.com/bettyarega/Flash-CDC/internal/listener"
	"github.com/bettyarega/Flash-CDC/internal/notify"
	"github.com/bettyarega/Flash-CDC/internal/store"
	"github.com/bettyarega/Flash-CDC/internal/webhook"
	"github.com/bettyarega/Flash-CDC/pkg/config"
	"github.com/bettyarega/Flash-CDC/pkg/database"
	"github.com/bettyarega/Flash-CDC/pkg/logging"
	"github.com/bettyarega/Flash-CDC/pkg/monitoring"
	"github.com/bettyarega/Flash-CDC/pkg/server"
	"github.com/bettyarega/Flash-CDC/pkg/version"
)

func main() {
	// Setup logger
	logger := logging.NewLoggerWithService("flashcdc")

	// Load environment variables
	config.LoadEnv(logger)

	logger.Info("Starting Flash CDC (Salesforce change-event listener service)")

	dbURL := config.RequireEnv("DATABASE_URL")

	// === Database Connection ===
	dbConfig := database.DefaultConfig()
	dbConfig.URL = dbURL
	db := database.MustConnect(dbConfig, logger)
	defer db.Close()

	clientStore := store.NewClientStore(db, logger)
	offsetStore := store.NewOffsetStore(db, logger)

	// Offsets table is normally provisioned by the admin API migrations;
	// RUN_DDL covers standalone deployments.
	if config.GetEnvBool("RUN_DDL", false) {
		ddlCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := offsetStore.EnsureSchema(ddlCtx); err != nil {
			logger.WithError(err).Warn("Offsets DDL failed; continuing with existing schema")
		}
		cancel()
	}

	// === Listener Wiring ===
	settings := listener.SettingsFromEnv()
	notifier := notify.FromEnv(logger)
	dispatcher := webhook.NewDispatcher(webhook.DefaultConfig(), logger)

	// Setup monitoring
	healthChecker := monitoring.NewHealthChecker("flashcdc", version.Version)
	metricsCollector := monitoring.NewMetricsCollector("flashcdc", version.Version, version.GitCommit)

	streamMetrics := &listener.Metrics{
		EventsReceived: metricsCollector.NewCounter("events_received_total", "Change events received from the broker", []string{"client_id"}),
		WebhookPosts:   metricsCollector.NewCounter("webhook_posts_total", "Webhook deliveries by final status", []string{"client_id", "status"}),
		Connects:       metricsCollector.NewCounter("stream_connects_total", "Subscription (re)connection attempts", []string{"client_id"}),
	}

	runner := listener.NewStreamRunner(offsetStore, dispatcher, settings, streamMetrics, logger)
	manager := listener.NewManager(clientStore, offsetStore, notifier, runner, logger)
	defer manager.StopAll(10 * time.Second)

	healthChecker.AddCheck("database", monitoring.DatabaseHealthCheck(db))
	healthChecker.AddCheck("configuration", monitoring.ConfigurationHealthCheck(map[string]string{
		"DATABASE_URL": dbURL,
	}))
	healthChecker.AddCheck("listeners", monitoring.ListenersHealthCheck(manager.ErroredCount))

	// === Autostart ===
	if config.GetEnvBool("AUTOSTART", true) {
		startCtx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		if _, err := manager.AutostartActive(startCtx); err != nil {
			logger.WithError(err).Error("Autostart failed")
		}
		cancel()
	}

	// === HTTP Server ===
	serverConfig := server.DefaultConfig("flashcdc", "8080")

	app := server.SetupServiceRouter(logger, "flashcdc", healthChecker, metricsCollector)
	app.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "running", "version": version.Version})
	})

	probe := listener.NewConnectionProbe(clientStore, settings, logger)
	handlers.NewHandlers(manager, probe, logger).RegisterRoutes(app)

	if err := server.Start(serverConfig, app, logger); err != nil {
		logger.WithError(err).Fatal("Flash CDC HTTP server failed")
	}
}
