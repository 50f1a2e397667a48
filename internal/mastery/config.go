package mastery

// Config holds tracker defaults.
type Config struct {
	Prior     float64 `yaml:"prior"`     // mastery assumed for a concept on first reference
	Threshold float64 `yaml:"threshold"` // mastery at or above which a concept counts as mastered
	Params    Params  `yaml:"params"`    // BKT parameters for new concepts
}

// DefaultConfig returns the standard tracker configuration.
func DefaultConfig() Config {
	return Config{
		Prior:     0.3,
		Threshold: 0.8,
		Params:    DefaultParams(),
	}
}
