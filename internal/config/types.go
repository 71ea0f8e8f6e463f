package config

import "time"

// ProviderType identifies an LLM provider.
type ProviderType string

const (
	ProviderDeepSeek ProviderType = "deepseek"
	ProviderOpenAI   ProviderType = "openai"
)

// Config is the top-level soupmaster configuration, corresponding to
// .soupmaster.yml.
type Config struct {
	Provider ProviderType `yaml:"provider" koanf:"provider"`
	Model    string       `yaml:"model" koanf:"model"`
	// APIKey overrides the provider's conventional environment variable.
	APIKey string `yaml:"api_key,omitempty" koanf:"api_key"`
	// APIURL overrides the provider's default endpoint.
	APIURL  string `yaml:"api_url,omitempty" koanf:"api_url"`
	Port    int    `yaml:"port" koanf:"port"`
	DataDir string `yaml:"data_dir" koanf:"data_dir"`
	// RequestsPerMinute caps calls to the generation service. Zero
	// disables the limiter.
	RequestsPerMinute int  `yaml:"requests_per_minute" koanf:"requests_per_minute"`
	Game              Game `yaml:"game" koanf:"game"`
}

// Game carries the engine thresholds. They are explicit configuration,
// passed into the engine at construction, so tests never touch the
// process environment.
type Game struct {
	// MaxHistoryTurns bounds how many recent exchanges feed the prompt
	// and the conversation analysis.
	MaxHistoryTurns int `yaml:"max_history_turns" koanf:"max_history_turns"`
	// NoStreakThreshold is how many consecutive negative judgments
	// trigger the streak hint.
	NoStreakThreshold int `yaml:"no_streak_threshold" koanf:"no_streak_threshold"`
	// HintVolumeThreshold is the question count past which the breadth
	// hint fires.
	HintVolumeThreshold int `yaml:"hint_volume_threshold" koanf:"hint_volume_threshold"`
	// SolvedProgressThreshold is the progress value at which a session
	// counts as solved even without an explicit solved reply.
	SolvedProgressThreshold int `yaml:"solved_progress_threshold" koanf:"solved_progress_threshold"`
	// GenerationTimeout is the ceiling for one generation call.
	GenerationTimeout time.Duration `yaml:"generation_timeout" koanf:"generation_timeout"`
	// MaxTokens bounds the host reply length.
	MaxTokens int `yaml:"max_tokens" koanf:"max_tokens"`
	// Temperature for the host model. Judging wants it low.
	Temperature float64 `yaml:"temperature" koanf:"temperature"`
}
