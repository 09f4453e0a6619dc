package main

import (
	"fmt"
	"log/slog"

	"github.com/pario-ai/recap/pkg/cache"
	sqlitecache "github.com/pario-ai/recap/pkg/cache/sqlite"
	"github.com/pario-ai/recap/pkg/config"
	"github.com/pario-ai/recap/pkg/llm"
	"github.com/pario-ai/recap/pkg/logging"
	"github.com/pario-ai/recap/pkg/summarizer"
	"github.com/pario-ai/recap/pkg/telemetry"
	"github.com/pario-ai/recap/pkg/transcript"
	"github.com/pario-ai/recap/pkg/youtube"
)

// app holds the wired pipeline and everything that must be closed with it.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	service *summarizer.Service
	store   *sqlitecache.Store
	events  *telemetry.SQLiteWriter
	closers []func() error
}

func loadConfig(path string) (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func newApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	yt := youtube.NewClient(youtube.Config{
		BaseURL:    cfg.YouTube.BaseURL,
		DataAPIURL: cfg.YouTube.DataAPIURL,
		APIKey:     cfg.YouTube.APIKey,
		Timeout:    cfg.YouTube.Timeout,
	})

	strategies := make([]transcript.Strategy, 0, len(cfg.Transcript.Strategies))
	for _, name := range cfg.Transcript.Strategies {
		switch name {
		case youtube.StrategyTimedText:
			strategies = append(strategies, yt.TimedText())
		case youtube.StrategyDataAPI:
			strategies = append(strategies, yt.DataAPI())
		default:
			return nil, fmt.Errorf("unknown transcript strategy %q", name)
		}
	}
	chain := transcript.NewChain(strategies,
		transcript.WithTimeout(cfg.Transcript.StrategyTimeout),
		transcript.WithLogger(logger),
	)

	backend, err := llm.NewBackend(cfg.Generation.Provider.Type, cfg.Generation.Provider.URL, cfg.Generation.Provider.APIKey)
	if err != nil {
		return nil, err
	}
	invoker := llm.NewInvoker(backend,
		llm.WithTimeout(cfg.Generation.Timeout),
		llm.WithMaxTranscriptChars(cfg.Generation.MaxTranscriptChars),
		llm.WithMaxChapters(cfg.Generation.MaxChapters),
		llm.WithLogger(logger),
	)

	var summaries summarizer.Cache
	if cfg.Cache.Enabled {
		store, err := sqlitecache.New(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("init cache: %w", err)
		}
		a.store = store
		a.closers = append(a.closers, store.Close)
		summaries = cache.New(store,
			cache.WithLocal(cfg.Cache.LocalSize, cfg.Cache.LocalTTL),
			cache.WithLogger(logger),
		)
	}

	var writer telemetry.Writer = telemetry.NewLogWriter(logger)
	if cfg.Telemetry.Enabled {
		events, err := telemetry.NewSQLiteWriter(cfg.DBPath, cfg.Telemetry.RetentionDays)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("init telemetry: %w", err)
		}
		a.events = events
		a.closers = append(a.closers, events.Close)
		writer = events
	}
	sink := telemetry.NewSink(writer,
		telemetry.WithQueueSize(cfg.Telemetry.QueueSize),
		telemetry.WithLogger(logger),
	)
	// The sink must drain before its writer closes.
	a.closers = append(a.closers, sink.Close)

	ttl := cfg.Cache.TTL
	if !cfg.Cache.Enabled {
		ttl = 0
	}
	a.service = summarizer.New(yt, chain, invoker, summaries, sink, summarizer.Options{
		DefaultModel:      cfg.Generation.DefaultModel,
		DefaultLanguage:   cfg.Summary.DefaultLanguage,
		FallbackLanguages: cfg.Transcript.FallbackLanguages,
		TTL:               ttl,
		Dedupe:            cfg.Summary.Dedupe,
		MetadataTimeout:   cfg.YouTube.Timeout,
	}, summarizer.WithLogger(logger))

	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
