package main

import (
	"log/slog"
	"strings"
	"sync"

	"flowmind/internal/config"
	"flowmind/internal/extract"
	"flowmind/internal/llm"
	"flowmind/internal/logging"
	"flowmind/internal/pipeline"
	"flowmind/internal/review"
	"flowmind/internal/store"
	"flowmind/internal/syncer"
	"flowmind/internal/testgen"
	"flowmind/internal/tracker"
	"flowmind/internal/transcript"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

// withStore opens the store for one command invocation and closes it after.
func (c *commandContext) withStore(fn func(cfg *config.Config, st *store.Store, logger *slog.Logger) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return err
	}
	st, err := store.Open(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()
	return fn(cfg, st, logger)
}

// buildSyncer wires the tracker client, or nil when the tracker is disabled.
func buildSyncer(cfg *config.Config, st *store.Store, logger *slog.Logger) *syncer.Syncer {
	if !cfg.Tracker.Enabled {
		return nil
	}
	client := tracker.NewClient(cfg.Tracker, logger)
	return syncer.New(st, client, cfg.Tracker, logger)
}

// buildRunner assembles the full pipeline from configuration.
func buildRunner(cfg *config.Config, st *store.Store, logger *slog.Logger) *pipeline.Runner {
	client := llm.NewClient(cfg.LLM)
	var classifier transcript.Classifier
	if cfg.SmallTalk.LLMClassifier {
		classifier = transcript.NewLLMClassifier(llm.NewClient(cfg.ClassifierLLM()))
	}
	parts := pipeline.Components{
		Filter:    transcript.NewFilter(classifier, logger),
		Extractor: extract.New(client, cfg.Pipeline.ChunkChars, logger),
		Reviewer:  review.New(cfg.Review.SimilarityThreshold, logger),
		Generator: testgen.New(client, logger),
	}
	if s := buildSyncer(cfg, st, logger); s != nil {
		parts.Syncer = s
	}
	return pipeline.NewRunner(cfg, st, parts, logger)
}
