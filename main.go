package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/etag"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/sirupsen/logrus"

	"hostelfee_backend/internals/configs"
	database "hostelfee_backend/internals/databases"
	helper "hostelfee_backend/internals/helpers"
	"hostelfee_backend/internals/helpers/logger"
	middlewares "hostelfee_backend/internals/middlewares"
	routes "hostelfee_backend/internals/route"
)

func main() {
	configs.LoadEnv()
	settings := configs.LoadSettings()
	logger.Setup(settings.LogLevel, settings.LogJSON)

	app := fiber.New(fiber.Config{
		// 🚀 JSON super cepat
		JSONEncoder:             sonic.Marshal,
		JSONDecoder:             sonic.Unmarshal,
		DisableStartupMessage:   true,
		ProxyHeader:             fiber.HeaderXForwardedFor,
		EnableTrustedProxyCheck: true,
		TrustedProxies:          []string{"0.0.0.0/0"},
		ErrorHandler:            helper.FromFiberError,
	})

	// ⚙️ middleware dasar + performa
	app.Use(compress.New(compress.Config{Level: compress.LevelDefault}))
	app.Use(etag.New())

	// 🔎 Request-ID + timing
	app.Use(func(c *fiber.Ctx) error {
		id := c.Get("X-Request-ID")
		if id == "" {
			id = utils.UUID()
		}
		c.Set("X-Request-ID", id)
		c.Locals("reqid", id)
		start := time.Now()
		// HTTP timeout guard, in line with statement_timeout on the DB side
		ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
		defer cancel()
		c.SetUserContext(ctx)
		err := c.Next()
		logger.Log.WithFields(logrus.Fields{
			"id":     id,
			"method": c.Method(),
			"url":    c.OriginalURL(),
			"status": c.Response().StatusCode(),
			"dur":    time.Since(start).String(),
		}).Debug("[REQ]")
		return err
	})

	middlewares.SetupMiddlewares(app, settings)

	// 🔌 DB connect + pool + schema + warm-up
	database.ConnectDB()
	database.TunePool()
	if err := database.Migrate(database.DB); err != nil {
		logger.Log.Fatalf("❌ migrate failed: %v", err)
	}
	database.WarmUpQueries()

	// ✅ Routes
	finance, err := routes.SetupRoutes(app, database.DB, settings)
	if err != nil {
		logger.Log.Fatalf("❌ route setup failed: %v", err)
	}

	// 🔒 Keep-Alive & connection timeouts
	app.Server().ReadTimeout = 15 * time.Second
	app.Server().WriteTimeout = 30 * time.Second
	app.Server().IdleTimeout = 90 * time.Second

	// Start server non-blocking
	go func() {
		logger.Log.Infof("✅ Listening on :%s", settings.Port)
		if err := app.Listen("0.0.0.0:" + settings.Port); err != nil {
			logger.Log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown: HTTP first, then background jobs, then the DB pool
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = app.ShutdownWithContext(ctx)

	finance.Stop()
	database.Close()
	logger.Log.Info("👋 shutdown complete")
}
