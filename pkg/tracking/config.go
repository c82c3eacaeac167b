package tracking

import "time"

// Config holds tunables for the live landmark source.
type Config struct {
	// MinVisibility is the landmark visibility below which a joint is
	// not measured.
	MinVisibility float64

	// MaxAge is how old the latest frame may be before Next reports
	// ErrNoReading.
	MaxAge time.Duration
}

// DefaultConfig returns the recommended configuration.
func DefaultConfig() Config {
	return Config{
		MinVisibility: 0.5,
		MaxAge:        2 * time.Second,
	}
}

// StrictConfig demands clearer landmarks and fresher frames.
func StrictConfig() Config {
	cfg := DefaultConfig()
	cfg.MinVisibility = 0.8
	cfg.MaxAge = 500 * time.Millisecond
	return cfg
}

// LenientConfig tolerates occlusion and slow estimators.
func LenientConfig() Config {
	cfg := DefaultConfig()
	cfg.MinVisibility = 0.3
	cfg.MaxAge = 5 * time.Second
	return cfg
}
