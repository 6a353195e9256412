package retrieval

import "fmt"

// Config holds tunable parameters for the probe fan-out.
type Config struct {
	// ScoreThreshold is the strict lower bound on similarity scores.
	// Deliberately permissive: false positives are filtered by the
	// generation grounding instructions, while candidates dropped here
	// cannot be recovered downstream.
	ScoreThreshold float64

	// ProbeBreadth is the number of passages requested per probe.
	ProbeBreadth int

	// WideProbeBreadth replaces ProbeBreadth when the comprehensive flag
	// is set (query names both a product and a feature).
	WideProbeBreadth int

	// MaxPassages is the final truncation count of the merged set.
	MaxPassages int

	// WideMaxPassages is the truncation count for comprehensive queries.
	WideMaxPassages int

	// PartialResults switches the failure policy: when false (default)
	// the first probe error aborts the whole retrieval; when true, failed
	// probes are skipped as long as at least one probe succeeds.
	PartialResults bool
}

// DefaultConfig returns the reference retrieval policy.
func DefaultConfig() Config {
	return Config{
		ScoreThreshold:   0.45,
		ProbeBreadth:     15,
		WideProbeBreadth: 30,
		MaxPassages:      20,
		WideMaxPassages:  35,
		PartialResults:   false,
	}
}

// Validate checks that the configuration values are usable.
func (c Config) Validate() error {
	if c.ScoreThreshold < 0 || c.ScoreThreshold >= 1 {
		return fmt.Errorf("scoreThreshold must be in [0, 1), got %f", c.ScoreThreshold)
	}
	if c.ProbeBreadth <= 0 {
		return fmt.Errorf("probeBreadth must be positive, got %d", c.ProbeBreadth)
	}
	if c.WideProbeBreadth < c.ProbeBreadth {
		return fmt.Errorf("wideProbeBreadth (%d) must be >= probeBreadth (%d)", c.WideProbeBreadth, c.ProbeBreadth)
	}
	if c.MaxPassages <= 0 {
		return fmt.Errorf("maxPassages must be positive, got %d", c.MaxPassages)
	}
	if c.WideMaxPassages < c.MaxPassages {
		return fmt.Errorf("wideMaxPassages (%d) must be >= maxPassages (%d)", c.WideMaxPassages, c.MaxPassages)
	}
	return nil
}
