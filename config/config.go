// Package config reads the JUSTCHAT_* environment, with an optional .env file
// in the working directory.
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"cloud.google.com/go/compute/metadata"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"google.golang.org/api/option"
)

const prefix = "JUSTCHAT"

const (
	StoreFirestore = "firestore"
	StorePostgres  = "postgres"
	StoreMemory    = "memory"

	LogSinkStdout = "stdout"
	LogSinkAPI    = "api"
)

var (
	ErrUnknownStore   = errors.New("unknown store")
	ErrUnknownLogSink = errors.New("unknown log sink")
	ErrMissingDSN     = errors.New("postgres store needs a DSN")
	ErrMissingAPIKey  = errors.New("firebase API key is required")
)

type Config struct {
	ProjectID          string        `envconfig:"PROJECT_ID"`
	FirebaseAPIKey     string        `envconfig:"FIREBASE_API_KEY"`
	IdentityToolkitURL string        `envconfig:"IDENTITY_TOOLKIT_URL"`
	CredentialsFile    string        `envconfig:"CREDENTIALS_FILE"`
	Store              string        `envconfig:"STORE" default:"firestore"`
	PostgresDSN        string        `envconfig:"POSTGRES_DSN"`
	Port               string        `envconfig:"PORT" default:"8082"`
	LogSink            string        `envconfig:"LOG_SINK" default:"stdout"`
	LogName            string        `envconfig:"LOG_NAME" default:"justchat"`
	LogLevel           slog.Level    `envconfig:"LOG_LEVEL" default:"INFO"`
	SplashDelay        time.Duration `envconfig:"SPLASH_DELAY" default:"2s"`
	Timezone           string        `envconfig:"TIMEZONE" default:"UTC"`
}

func Load(ctx context.Context) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("error loading .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return Config{}, err
	}

	switch cfg.Store {
	case StoreFirestore, StoreMemory:
	case StorePostgres:
		if cfg.PostgresDSN == "" {
			return Config{}, ErrMissingDSN
		}
	default:
		return Config{}, fmt.Errorf("%w: %q", ErrUnknownStore, cfg.Store)
	}
	if cfg.LogSink != LogSinkStdout && cfg.LogSink != LogSinkAPI {
		return Config{}, fmt.Errorf("%w: %q", ErrUnknownLogSink, cfg.LogSink)
	}
	if !cfg.Local() && cfg.FirebaseAPIKey == "" {
		return Config{}, ErrMissingAPIKey
	}
	if _, err := cfg.Location(); err != nil {
		return Config{}, err
	}

	if cfg.ProjectID == "" && !cfg.Local() && metadata.OnGCE() {
		projectID, err := metadata.ProjectIDWithContext(ctx)
		if err != nil {
			return Config{}, fmt.Errorf("error getting project ID: %w", err)
		}
		cfg.ProjectID = projectID
	}
	return cfg, nil
}

// Local reports whether everything runs in process, with no Google services.
func (c Config) Local() bool {
	return c.Store == StoreMemory
}

func (c Config) ClientOptions() []option.ClientOption {
	if c.CredentialsFile == "" {
		return nil
	}
	return []option.ClientOption{option.WithCredentialsFile(c.CredentialsFile)}
}

// Location is the zone message times are shown in.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("error loading location %q: %w", c.Timezone, err)
	}
	return loc, nil
}
