package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/benbjohnson/clock"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/campfire-chat/campfire/internal/config"
	"github.com/campfire-chat/campfire/internal/hub"
	"github.com/campfire-chat/campfire/internal/logger"
	"github.com/campfire-chat/campfire/internal/model"
	"github.com/campfire-chat/campfire/internal/store"
	"github.com/campfire-chat/campfire/internal/transport"
)

func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("CAMPFIRE_CONFIG")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Init("")
		logger.Error("config_load_failed", "path", cfgPath, "error", err)
		os.Exit(1)
	}
	logger.Init(cfg.Logging.Level)

	st, err := store.Open(cfg.Storage.Path)
	if err != nil {
		logger.Error("store_open_failed", "path", cfg.Storage.Path, "error", err)
		os.Exit(1)
	}
	channels, social := st.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tr := transport.New()
	h := hub.New(cfg, tr, st, clock.New())
	h.Restore(channels, social)
	tr.SetSink(h)
	go h.Run(ctx)

	stopRetention, err := h.StartRetention(ctx, cfg.Retention)
	if err != nil {
		logger.Error("retention_start_failed", "error", err)
		os.Exit(1)
	}

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Static("/", cfg.Server.StaticDir)
	app.Static("/uploads", cfg.Server.UploadDir)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(tr.Handle))

	app.Post("/api/upload", uploadHandler(cfg.Server.UploadDir))
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.SendString("ok") })

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		logger.Info("shutting_down")
		_ = app.Shutdown()
	}()

	logger.Info("listening", "addr", cfg.ListenAddr())
	if err := app.Listen(cfg.ListenAddr()); err != nil {
		logger.Error("listen_failed", "error", err)
	}

	stopRetention()
	cancel()
	if err := st.Close(); err != nil {
		logger.Error("store_close_failed", "error", err)
	}
}

// uploadHandler stores one multipart file and returns the opaque
// attachment reference the hub passes through untouched.
func uploadHandler(dir string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing file"})
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		stored := uuid.NewString() + filepath.Ext(fh.Filename)
		if err := c.SaveFile(fh, filepath.Join(dir, stored)); err != nil {
			logger.Error("upload_failed", "error", err)
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.JSON(model.Attachment{Stored: stored, Original: fh.Filename})
	}
}
