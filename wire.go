package justchat

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"
	_ "time/tzdata"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/logging"
	firebase "firebase.google.com/go/v4"
	"github.com/klipach/justchat/auth"
	"github.com/klipach/justchat/config"
	"github.com/klipach/justchat/log"
	"github.com/klipach/justchat/store"
)

const toolkitTimeout = 15 * time.Second

// Build assembles a Server for cfg. Memory configs need no Google services.
func Build(ctx context.Context, cfg config.Config) (*Server, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	logger, flush, err := newLogger(ctx, cfg)
	if err != nil {
		return nil, err
	}
	settings := Settings{ProjectID: cfg.ProjectID, Location: loc, SplashDelay: cfg.SplashDelay}

	if cfg.Local() {
		logger.Warn("running with in-memory auth and store")
		srv := NewServer(auth.NewMemory(), store.NewMemory(), logger, settings)
		srv.closers = append(srv.closers, flush)
		return srv, nil
	}

	opts := cfg.ClientOptions()
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}
	toolkit := auth.NewToolkit(cfg.IdentityToolkitURL, cfg.FirebaseAPIKey, &http.Client{Timeout: toolkitTimeout})
	provider, err := auth.NewFirebase(ctx, app, toolkit)
	if err != nil {
		return nil, err
	}

	var st store.Store
	switch cfg.Store {
	case config.StorePostgres:
		st, err = store.OpenPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
	default:
		client, err := firestore.NewClient(ctx, cfg.ProjectID, opts...)
		if err != nil {
			return nil, fmt.Errorf("error creating firestore client: %w", err)
		}
		st = store.NewFirestore(client)
	}

	srv := NewServer(provider, st, logger, settings)
	srv.closers = append(srv.closers, flush)
	logger.Info("server ready", slog.String("store", cfg.Store), slog.String("logSink", cfg.LogSink))
	return srv, nil
}

func newLogger(ctx context.Context, cfg config.Config) (*slog.Logger, func() error, error) {
	if cfg.LogSink != config.LogSinkAPI {
		return slog.New(log.NewCloudLoggingHandler(os.Stdout, cfg.LogLevel)), func() error { return nil }, nil
	}
	client, err := logging.NewClient(ctx, cfg.ProjectID, cfg.ClientOptions()...)
	if err != nil {
		return nil, nil, fmt.Errorf("error creating logging client: %w", err)
	}
	handler := log.NewAPIHandler(client, cfg.LogName, cfg.LogLevel)
	return slog.New(handler), func() error {
		if err := handler.Flush(); err != nil {
			return err
		}
		return client.Close()
	}, nil
}
