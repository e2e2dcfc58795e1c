package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/eringen/devlog"
	"github.com/eringen/devlog/views"
)

func runServe(configPath string, logger *slog.Logger) error {
	cfg, err := devlog.LoadConfig(configPath)
	if err != nil {
		return err
	}
	images := devlog.NewImageRegistry(cfg.StaticDir, cfg.Features.LightAndDarkMode)
	theme, err := views.New(cfg, images)
	if err != nil {
		return err
	}
	app := devlog.New(cfg, theme.Funcs(), devlog.WithLogger(logger), devlog.WithImages(images))
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Start(ctx); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
