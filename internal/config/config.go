package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Pipeline modes supported by the orchestrator.
const (
	ModeSinglePass = "single"
	ModeStaged     = "staged"
)

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir   string `toml:"data_dir"`
	OutputDir string `toml:"output_dir"`
	LogDir    string `toml:"log_dir"`
	WebBind   string `toml:"web_bind"`
}

// LLM contains connection settings for the chat completion API.
type LLM struct {
	APIKey         string  `toml:"api_key"`
	BaseURL        string  `toml:"base_url"`
	Model          string  `toml:"model"`
	Temperature    float64 `toml:"temperature"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
}

// SmallTalk contains configuration for transcript noise filtering.
type SmallTalk struct {
	Filter          bool   `toml:"filter"`
	LLMClassifier   bool   `toml:"llm_classifier"`
	ClassifierModel string `toml:"classifier_model"`
}

// Pipeline contains configuration for a pipeline run.
type Pipeline struct {
	Mode       string `toml:"mode"`
	ProjectID  string `toml:"project_id"`
	ChunkChars int    `toml:"chunk_chars"`
	SyncOnRun  bool   `toml:"sync_on_run"`
}

// Tracker contains configuration for the issue tracker integration.
type Tracker struct {
	Enabled        bool   `toml:"enabled"`
	URL            string `toml:"url"`
	Email          string `toml:"email"`
	APIToken       string `toml:"api_token"`
	ProjectKey     string `toml:"project_key"`
	ApprovedOnly   bool   `toml:"approved_only"`
	CreateLinks    bool   `toml:"create_links"`
	SkipSearch     bool   `toml:"skip_search"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Review contains configuration for the dedup/classification stage.
type Review struct {
	SimilarityThreshold float64 `toml:"similarity_threshold"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for FlowMind.
//
// Configuration sections by subsystem:
//   - Paths: data/output/log directories and the approval UI bind address
//   - LLM: chat completion connection settings
//   - SmallTalk: transcript noise-filter behaviour
//   - Pipeline: run mode, project identity, chunking, sync-on-run toggle
//   - Review: near-duplicate detection threshold
//   - Tracker: issue tracker URL, credentials, and sync policy
//   - Logging: log format and level
type Config struct {
	Paths     Paths     `toml:"paths"`
	LLM       LLM       `toml:"llm"`
	SmallTalk SmallTalk `toml:"smalltalk"`
	Pipeline  Pipeline  `toml:"pipeline"`
	Review    Review    `toml:"review"`
	Tracker   Tracker   `toml:"tracker"`
	Logging   Logging   `toml:"logging"`
}

// SampleConfig returns the embedded annotated sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/flowmind/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("flowmind.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// DatabasePath returns the location of the embedded SQLite store.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "flowmind.db")
}

// ArtifactPath returns the location of the mirrored JSON artifact.
func (c *Config) ArtifactPath() string {
	return filepath.Join(c.Paths.DataDir, "output.json")
}

// LockPath returns the location of the pipeline run lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "flowmind.lock")
}

// EnsureDirectories creates the directories the pipeline needs.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.OutputDir, c.Paths.LogDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// ClassifierLLM returns the LLM settings for the small-talk classifier,
// falling back to the primary model when no classifier model is configured.
func (c *Config) ClassifierLLM() LLM {
	llm := c.LLM
	if model := strings.TrimSpace(c.SmallTalk.ClassifierModel); model != "" {
		llm.Model = model
	}
	llm.Temperature = 0
	return llm
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if trimmed == "~" {
			return home, nil
		}
		return filepath.Join(home, trimmed[2:]), nil
	}
	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return "", fmt.Errorf("absolutize %s: %w", trimmed, err)
	}
	return abs, nil
}
