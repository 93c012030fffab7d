package config

import (
	"fmt"
	"os"
	"strings"
)

// Environment fallbacks for secrets that should stay out of config files.
const (
	EnvLLMAPIKey    = "FLOWMIND_LLM_API_KEY"
	EnvTrackerToken = "FLOWMIND_TRACKER_TOKEN"
)

func (c *Config) normalize() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return err
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}
	c.Paths.WebBind = strings.TrimSpace(c.Paths.WebBind)

	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = strings.TrimSpace(os.Getenv(EnvLLMAPIKey))
	}
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}

	c.SmallTalk.ClassifierModel = strings.TrimSpace(c.SmallTalk.ClassifierModel)

	c.Pipeline.Mode = strings.ToLower(strings.TrimSpace(c.Pipeline.Mode))
	if c.Pipeline.Mode == "" {
		c.Pipeline.Mode = defaultPipelineMode
	}
	c.Pipeline.ProjectID = strings.TrimSpace(c.Pipeline.ProjectID)
	if c.Pipeline.ProjectID == "" {
		c.Pipeline.ProjectID = defaultProjectID
	}
	if c.Pipeline.ChunkChars <= 0 {
		c.Pipeline.ChunkChars = defaultChunkChars
	}

	c.Tracker.URL = strings.TrimRight(strings.TrimSpace(c.Tracker.URL), "/")
	c.Tracker.Email = strings.TrimSpace(c.Tracker.Email)
	c.Tracker.APIToken = strings.TrimSpace(c.Tracker.APIToken)
	if c.Tracker.APIToken == "" {
		c.Tracker.APIToken = strings.TrimSpace(os.Getenv(EnvTrackerToken))
	}
	c.Tracker.ProjectKey = strings.TrimSpace(c.Tracker.ProjectKey)
	if c.Tracker.TimeoutSeconds <= 0 {
		c.Tracker.TimeoutSeconds = defaultTrackerTimeout
	}

	if c.Review.SimilarityThreshold <= 0 || c.Review.SimilarityThreshold > 1 {
		c.Review.SimilarityThreshold = defaultReviewThreshold
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	return nil
}

// Validate checks configuration coherence beyond simple defaults.
func (c *Config) Validate() error {
	if c.Paths.DataDir == "" {
		return fmt.Errorf("config: paths.data_dir is required")
	}
	switch c.Pipeline.Mode {
	case ModeSinglePass, ModeStaged:
	default:
		return fmt.Errorf("config: pipeline.mode must be %q or %q, got %q", ModeSinglePass, ModeStaged, c.Pipeline.Mode)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("config: logging.format must be console or json, got %q", c.Logging.Format)
	}
	if c.Tracker.Enabled {
		if c.Tracker.URL == "" {
			return fmt.Errorf("config: tracker.url is required when tracker.enabled is true")
		}
		if c.Tracker.Email == "" {
			return fmt.Errorf("config: tracker.email is required when tracker.enabled is true")
		}
		if c.Tracker.APIToken == "" {
			return fmt.Errorf("config: tracker.api_token (or %s) is required when tracker.enabled is true", EnvTrackerToken)
		}
		if c.Tracker.ProjectKey == "" {
			return fmt.Errorf("config: tracker.project_key is required when tracker.enabled is true")
		}
	}
	if c.Pipeline.SyncOnRun && !c.Tracker.Enabled {
		return fmt.Errorf("config: pipeline.sync_on_run requires tracker.enabled")
	}
	return nil
}
