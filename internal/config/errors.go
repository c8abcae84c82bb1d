package config

import "errors"

// Configuration errors returned by Validate and the file loader.
var (
	// ErrConfigNotFound is returned when the configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")

	ErrInvalidPort              = errors.New("invalid port: must be between 1 and 65535")
	ErrInvalidEngine            = errors.New("invalid scan engine: must be chrome or static")
	ErrInvalidPoolSize          = errors.New("invalid browser pool size: must be positive")
	ErrInvalidQueueSize         = errors.New("invalid scan queue size: must be non-negative")
	ErrInvalidNavigationTimeout = errors.New("invalid navigation timeout: must be positive")
	ErrInvalidDelay             = errors.New("invalid settle delay or response window: must be non-negative")

	// ErrInvalidTrackerEntry is returned when a registry override entry has no domain.
	ErrInvalidTrackerEntry = errors.New("invalid tracker entry: domain is required")
)
