package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/GoogleCloudPlatform/functions-framework-go/funcframework"
	"github.com/klipach/justchat"
	"github.com/klipach/justchat/config"
	"github.com/klipach/justchat/log"
)

func main() {
	ctx := context.Background()
	bootLogger := slog.New(log.NewCloudLoggingHandler(os.Stdout, slog.LevelInfo))

	cfg, err := config.Load(ctx)
	if err != nil {
		bootLogger.Error("error while loading config", slog.String(log.ErrorMsgLogField, err.Error()))
		os.Exit(1)
	}
	srv, err := justchat.Build(ctx, cfg)
	if err != nil {
		bootLogger.Error("error while building server", slog.String(log.ErrorMsgLogField, err.Error()))
		os.Exit(1)
	}
	justchat.Use(srv)
	defer srv.Close()

	logger := srv.Logger()
	logger.Info("started", slog.String("port", cfg.Port), slog.String("store", cfg.Store))
	if err := funcframework.Start(cfg.Port); err != nil {
		logger.Error("funcframework.Start", slog.String(log.ErrorMsgLogField, err.Error()))
	}
	logger.Info("done")
}
