package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/nhle/taskflow/internal/ai"
	"github.com/nhle/taskflow/internal/credential"
	"github.com/nhle/taskflow/internal/logging"
	"github.com/nhle/taskflow/internal/model"
	"github.com/nhle/taskflow/internal/netmon"
	"github.com/nhle/taskflow/internal/notify"
	"github.com/nhle/taskflow/internal/notify/desktop"
	"github.com/nhle/taskflow/internal/source/backend"
	"github.com/nhle/taskflow/internal/store"
	appsync "github.com/nhle/taskflow/internal/sync"
	"github.com/nhle/taskflow/internal/tasks"
)

const requestTimeout = 30 * time.Second

// runtime holds the services one command invocation works with.
type runtime struct {
	cfg    *model.AppConfig
	logger *zap.Logger
	loc    *time.Location
	clock  clockwork.Clock

	store   *store.SQLiteStore
	vault   *credential.Vault
	monitor *netmon.Monitor

	// backend is nil when no backend is configured.
	backend *backend.Adapter

	platform  *desktop.Platform
	engine    *notify.Engine
	tasks     *tasks.Service
	heuristic *ai.Heuristic
	suggester ai.Suggester
}

type runtimeOptions struct {
	// logFile sends logs to a file instead of stderr.
	logFile bool

	// prompter answers desktop permission requests.
	prompter desktop.Prompter
}

// openRuntime loads the config and wires every service. Close must be
// called when the command finishes.
func openRuntime(opts runtimeOptions) (*runtime, error) {
	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger, err := buildLogger(cfg, opts.logFile)
	if err != nil {
		return nil, err
	}

	st, err := store.NewSQLiteStore(cfg.Storage.Path)
	if err != nil {
		return nil, err
	}

	rt := &runtime{
		cfg:    cfg,
		logger: logger,
		loc:    cfg.Notifications.Location(),
		clock:  clockwork.NewRealClock(),
		store:  st,
		monitor: netmon.New(logger,
			netmon.WithSlowThreshold(time.Duration(cfg.Backend.SlowRequestMs)*time.Millisecond),
		),
	}
	rt.monitor.Init()

	vault, err := credential.Open(model.ConfigDir())
	if err != nil {
		logger.Warn("credential store unavailable; running offline", zap.Error(err))
	} else {
		rt.vault = vault
		rt.backend = rt.openBackend()
	}

	engineOpts := notify.Options{
		KV:         st.KV(),
		Clock:      rt.clock,
		Location:   rt.loc,
		Logger:     logger.Named("notify"),
		Expiry:     cfg.Notifications.Expiry(),
		MountDelay: cfg.Notifications.MountDelay(),
		Icon:       cfg.Notifications.Icon,
	}
	if cfg.Notifications.Desktop {
		prompter := opts.prompter
		if prompter == nil {
			prompter = desktop.HuhPrompter{}
		}
		rt.platform = desktop.New(st.KV(),
			desktop.WithPrompter(prompter),
			desktop.WithLogger(logger.Named("desktop")),
		)
		engineOpts.Platform = rt.platform
	}
	rt.engine = notify.New(engineOpts)

	taskOpts := []tasks.Option{
		tasks.WithListener(rt.engine),
		tasks.WithLocation(rt.loc),
		tasks.WithLogger(logger.Named("tasks")),
	}
	if rt.backend != nil {
		taskOpts = append(taskOpts, tasks.WithSource(rt.backend))
	}
	rt.tasks = tasks.NewService(st, taskOpts...)

	rt.heuristic = ai.NewHeuristic(rt.clock, rt.loc)
	rt.suggester = rt.openSuggester()

	return rt, nil
}

func buildLogger(cfg *model.AppConfig, toFile bool) (*zap.Logger, error) {
	level := cfg.Logging.Level
	dev := cfg.Logging.Development
	if debug {
		level, dev = "debug", true
	}
	if !toFile {
		return logging.New(dev, level)
	}
	if err := os.MkdirAll(model.ConfigDir(), 0o755); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}
	return logging.New(dev, level, filepath.Join(model.ConfigDir(), "taskflow.log"))
}

// openBackend returns the backend adapter, or nil when the backend URL or
// API key is missing.
func (rt *runtime) openBackend() *backend.Adapter {
	if rt.cfg.Backend.URL == "" {
		return nil
	}
	apiKey, token, err := rt.vault.Backend()
	if err != nil {
		if !errors.Is(err, credential.ErrNotFound) {
			rt.logger.Warn("reading backend credentials", zap.Error(err))
		}
		return nil
	}
	client := backend.NewClient(rt.cfg.Backend.URL, apiKey, token,
		backend.WithHTTPClient(rt.monitor.Client(requestTimeout)),
	)
	return backend.NewAdapter(client, rt.cfg.Backend.Table, rt.cfg.Backend.UserID)
}

// openSuggester picks Claude when configured with a key, else the heuristic.
func (rt *runtime) openSuggester() ai.Suggester {
	if rt.cfg.AI.Provider != "claude" {
		return rt.heuristic
	}
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" && rt.vault != nil {
		apiKey, _ = rt.vault.Get(credential.KeyClaudeAPIKey)
	}
	if apiKey == "" {
		rt.logger.Info("no Claude API key; using heuristic suggestions")
		return rt.heuristic
	}
	return ai.NewClaude(apiKey, rt.cfg.AI.Model, rt.cfg.AI.MaxTokens,
		ai.WithHTTPClient(rt.monitor.Client(requestTimeout)),
		ai.WithFallback(rt.heuristic),
		ai.WithLogger(rt.logger.Named("ai")),
	)
}

// poller returns a poller over the backend, or an error when offline.
func (rt *runtime) poller() (*appsync.Poller, error) {
	if rt.backend == nil {
		return nil, errOffline
	}
	return appsync.New(rt.store, rt.backend,
		appsync.WithInterval(time.Duration(rt.cfg.Backend.PollIntervalSec)*time.Second),
		appsync.WithListener(rt.engine),
		appsync.WithLogger(rt.logger.Named("sync")),
	), nil
}

var errOffline = errors.New("no backend configured; set backend.url and run `taskflow auth login`")

func (rt *runtime) Close() {
	rt.engine.Close()
	rt.monitor.Shutdown()
	if err := rt.store.Close(); err != nil {
		rt.logger.Warn("closing store", zap.Error(err))
	}
	_ = rt.logger.Sync()
}
