package pool

import "fmt"

// ValidateConfig checks a pool configuration and returns ErrInvalidConfig
// (wrapped with the offending field) on the first violation found.
func ValidateConfig(cfg Config) error {
	if cfg.EntryFee == 0 {
		return fmt.Errorf("%w: entry fee must be positive", ErrInvalidConfig)
	}
	if cfg.FloorAmount == 0 {
		return fmt.Errorf("%w: floor amount must be positive", ErrInvalidConfig)
	}
	if len(cfg.Authority) != AuthorityKeySize {
		return fmt.Errorf("%w: authority key must be %d bytes, got %d",
			ErrInvalidConfig, AuthorityKeySize, len(cfg.Authority))
	}
	if len(cfg.OraclePub) != 0 && len(cfg.OraclePub) != AuthorityKeySize {
		return fmt.Errorf("%w: oracle key must be %d bytes, got %d",
			ErrInvalidConfig, AuthorityKeySize, len(cfg.OraclePub))
	}
	return ValidateSplit(cfg.FeeSplit)
}

// ValidateSplit checks that a fee split is non-empty, has no zero shares,
// and that its percentages sum to exactly 100.
func ValidateSplit(split []SplitShare) error {
	if len(split) == 0 {
		return fmt.Errorf("%w: fee split is empty", ErrInvalidConfig)
	}
	var sum uint64
	for i, s := range split {
		if s.Percent == 0 {
			return fmt.Errorf("%w: split[%d] has zero percent", ErrInvalidConfig, i)
		}
		sum += uint64(s.Percent)
	}
	if sum != 100 {
		return fmt.Errorf("%w: split percentages sum to %d, want 100", ErrInvalidConfig, sum)
	}
	return nil
}
