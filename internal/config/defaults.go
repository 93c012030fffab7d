package config

const (
	defaultDataDir           = "~/.local/share/flowmind"
	defaultOutputDir         = "~/.local/share/flowmind/output"
	defaultLogDir            = "~/.local/share/flowmind/logs"
	defaultWebBind           = "127.0.0.1:7910"
	defaultLLMBaseURL        = "https://api.openai.com/v1/chat/completions"
	defaultLLMModel          = "gpt-4o"
	defaultLLMTemperature    = 0.2
	defaultLLMTimeoutSeconds = 60
	defaultClassifierModel   = "gpt-4o-mini"
	defaultPipelineMode      = ModeStaged
	defaultProjectID         = "default"
	defaultChunkChars        = 24000
	defaultTrackerProjectKey = "SCRUM"
	defaultTrackerTimeout    = 30
	defaultReviewThreshold   = 0.82
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:   defaultDataDir,
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
			WebBind:   defaultWebBind,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Temperature:    defaultLLMTemperature,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		SmallTalk: SmallTalk{
			Filter:          true,
			ClassifierModel: defaultClassifierModel,
		},
		Pipeline: Pipeline{
			Mode:       defaultPipelineMode,
			ProjectID:  defaultProjectID,
			ChunkChars: defaultChunkChars,
		},
		Review: Review{
			SimilarityThreshold: defaultReviewThreshold,
		},
		Tracker: Tracker{
			ProjectKey:     defaultTrackerProjectKey,
			ApprovedOnly:   true,
			CreateLinks:    true,
			TimeoutSeconds: defaultTrackerTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
