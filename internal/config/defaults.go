package config

import "time"

// DefaultConfig returns a Config with sensible defaults. The game
// thresholds mirror how the hosted game has been tuned: a hint after
// five straight rejections, a breadth nudge after ten questions, solved
// at 90% understood.
func DefaultConfig() *Config {
	return &Config{
		Provider:          ProviderDeepSeek,
		Model:             "deepseek-chat",
		Port:              3001,
		DataDir:           "data",
		RequestsPerMinute: 0,
		Game: Game{
			MaxHistoryTurns:         20,
			NoStreakThreshold:       5,
			HintVolumeThreshold:     10,
			SolvedProgressThreshold: 90,
			GenerationTimeout:       30 * time.Second,
			MaxTokens:               200,
			Temperature:             0.1,
		},
	}
}
