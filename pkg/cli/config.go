package cli

import (
	"context"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/lumina/pkg/adapter"
	"github.com/m-mizutani/lumina/pkg/repository"
	"github.com/m-mizutani/lumina/pkg/usecase/generate"
	"github.com/m-mizutani/lumina/pkg/usecase/session"
	"github.com/m-mizutani/lumina/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// config holds configuration values
type config struct {
	logLevel string

	// History store
	historyDir string
	capacity   int64
	floor      int64
	quota      int64

	// Gemini
	apiKey string
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("LUMINA_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
		&cli.StringFlag{
			Name:        "history-dir",
			Usage:       "Directory for the persisted history (default: ~/.lumina)",
			Sources:     cli.EnvVars("LUMINA_HISTORY_DIR"),
			Destination: &cfg.historyDir,
		},
		&cli.IntFlag{
			Name:        "history-capacity",
			Usage:       "Maximum number of history entries",
			Value:       repository.DefaultCapacity,
			Sources:     cli.EnvVars("LUMINA_HISTORY_CAPACITY"),
			Destination: &cfg.capacity,
		},
		&cli.IntFlag{
			Name:        "history-floor",
			Usage:       "History length after a storage-quota trim",
			Value:       repository.DefaultFloor,
			Sources:     cli.EnvVars("LUMINA_HISTORY_FLOOR"),
			Destination: &cfg.floor,
		},
		&cli.IntFlag{
			Name:        "storage-quota",
			Usage:       "Byte limit for the serialized history (0 = unlimited)",
			Value:       5 << 20,
			Sources:     cli.EnvVars("LUMINA_STORAGE_QUOTA"),
			Destination: &cfg.quota,
		},
	}
}

// geminiFlags returns flags for the generation backend with destination config
func geminiFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "api-key",
			Usage:       "Gemini API key",
			Sources:     cli.EnvVars("GEMINI_API_KEY"),
			Destination: &cfg.apiKey,
		},
	}
}

// loggedContext attaches a configured logger to the context
func (cfg *config) loggedContext(ctx context.Context) context.Context {
	return logging.With(ctx, logging.New(cfg.logLevel, os.Stderr))
}

// newGemini creates a new Gemini adapter instance
func (cfg *config) newGemini(ctx context.Context) (adapter.Gemini, error) {
	if cfg.apiKey == "" {
		return nil, goerr.New("api-key is required")
	}
	return adapter.NewGemini(ctx, cfg.apiKey)
}

// newStore creates the file-backed history store
func (cfg *config) newStore(ctx context.Context) (*repository.HistoryStore, error) {
	dir := cfg.historyDir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, goerr.Wrap(err, "failed to resolve home directory")
		}
		dir = filepath.Join(home, ".lumina")
	}

	kv, err := repository.NewFileKV(dir, repository.WithQuota(int(cfg.quota)))
	if err != nil {
		return nil, err
	}

	store := repository.NewHistoryStore(kv,
		repository.WithCapacity(int(cfg.capacity)),
		repository.WithFloor(int(cfg.floor)),
	)
	if _, err := store.Load(ctx); err != nil {
		return nil, goerr.Wrap(err, "failed to load history")
	}

	return store, nil
}

// newSession wires the full session state controller
func (cfg *config) newSession(ctx context.Context, notifier session.Notifier) (*session.Session, error) {
	gemini, err := cfg.newGemini(ctx)
	if err != nil {
		return nil, err
	}

	store, err := cfg.newStore(ctx)
	if err != nil {
		return nil, err
	}

	return session.New(session.NewInput{
		Store:     store,
		Generator: generate.New(gemini),
		Enhancer:  generate.NewEnhancer(gemini),
		Auth:      &adapter.EnvAuthorizer{APIKey: cfg.apiKey, Out: os.Stderr},
		Notifier:  notifier,
	}), nil
}
