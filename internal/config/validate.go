package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

var (
	// ErrInvalidWindow indicates an anchor window outside 0..MaxAnchorWindow
	ErrInvalidWindow = errors.New("invalid anchor window")

	// ErrInvalidCapacity indicates a non-positive cache capacity
	ErrInvalidCapacity = errors.New("invalid cache capacity")

	// ErrInvalidWorkers indicates a non-positive sweep worker count
	ErrInvalidWorkers = errors.New("invalid sweep workers")

	// ErrEmptyInclude indicates missing include patterns
	ErrEmptyInclude = errors.New("empty include patterns")

	// ErrInvalidPattern indicates a glob pattern that does not compile
	ErrInvalidPattern = errors.New("invalid glob pattern")
)

// Validate checks that the configuration is valid and complete.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Scan.AnchorWindow < 0 || cfg.Scan.AnchorWindow > MaxAnchorWindow {
		errs = append(errs, fmt.Errorf("%w: anchor_window must be between 0 and %d, got %d", ErrInvalidWindow, MaxAnchorWindow, cfg.Scan.AnchorWindow))
	}

	if cfg.Cache.Capacity <= 0 {
		errs = append(errs, fmt.Errorf("%w: capacity must be positive, got %d", ErrInvalidCapacity, cfg.Cache.Capacity))
	}

	if cfg.Sweep.Workers <= 0 {
		errs = append(errs, fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidWorkers, cfg.Sweep.Workers))
	}

	if err := validatePaths(&cfg.Paths); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validatePaths(cfg *PathsConfig) error {
	var errs []error

	if len(cfg.Include) == 0 {
		errs = append(errs, fmt.Errorf("%w: at least one include pattern is required", ErrEmptyInclude))
	}

	for _, pattern := range append(append([]string{}, cfg.Include...), cfg.Ignore...) {
		if _, err := glob.Compile(pattern, '/'); err != nil {
			errs = append(errs, fmt.Errorf("%w: %q: %v", ErrInvalidPattern, pattern, err))
		}
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

// joinErrors combines multiple errors into a single error with clear formatting.
func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	if len(errs) == 1 {
		return errs[0]
	}

	var msgs []string
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}

	return fmt.Errorf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}
