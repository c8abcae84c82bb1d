package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Scan engines
const (
	EngineChrome = "chrome"
	EngineStatic = "static"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port           int    // HTTP server port
	ServiceVersion string // Reported by /health

	// Browser configuration
	Engine            string        // "chrome" or "static"
	ChromePath        string        // Optional Chrome binary override
	BrowserPoolSize   int           // Maximum concurrent browsers
	ScanQueueSize     int           // Pending scans waiting for a browser
	NavigationTimeout time.Duration // Upper bound for page navigation
	SettleDelay       time.Duration // Pause after navigation before extraction
	ResponseWindow    time.Duration // How long network responses are collected after extraction
	UserAgent         string        // User-Agent for browser and static fetches

	// Registry configuration
	RegistryFile string         // Optional YAML file replacing the tracker registry
	Trackers     []TrackerEntry // Loaded registry override, empty means built-in defaults

	// Logging configuration
	LogLevel  string
	LogFormat string
}

// Load reads configuration from environment variables
// and returns a Config struct with defaults applied
func Load() *Config {
	return &Config{
		Port:              getEnvAsInt("PORT", 8000),
		ServiceVersion:    getEnv("SERVICE_VERSION", "1.0.0"),
		Engine:            strings.ToLower(getEnv("SCAN_ENGINE", EngineChrome)),
		ChromePath:        getEnv("CHROME_PATH", ""),
		BrowserPoolSize:   getEnvAsInt("BROWSER_POOL_SIZE", 4),
		ScanQueueSize:     getEnvAsInt("SCAN_QUEUE_SIZE", 32),
		NavigationTimeout: getEnvAsDuration("NAVIGATION_TIMEOUT", 30000*time.Millisecond),
		SettleDelay:       getEnvAsDuration("SETTLE_DELAY", 2000*time.Millisecond),
		ResponseWindow:    getEnvAsDuration("RESPONSE_WINDOW", 1000*time.Millisecond),
		UserAgent:         getEnv("USER_AGENT", "sitescan/1.0"),
		RegistryFile:      getEnv("REGISTRY_FILE", ""),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "json"),
	}
}

// Validate reports the first invalid setting
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return ErrInvalidPort
	}
	if c.Engine != EngineChrome && c.Engine != EngineStatic {
		return ErrInvalidEngine
	}
	if c.BrowserPoolSize <= 0 {
		return ErrInvalidPoolSize
	}
	if c.ScanQueueSize < 0 {
		return ErrInvalidQueueSize
	}
	if c.NavigationTimeout <= 0 {
		return ErrInvalidNavigationTimeout
	}
	if c.SettleDelay < 0 || c.ResponseWindow < 0 {
		return ErrInvalidDelay
	}
	for _, entry := range c.Trackers {
		if entry.Domain == "" {
			return ErrInvalidTrackerEntry
		}
	}
	return nil
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt reads an environment variable as an integer
// If the variable doesn't exist or can't be parsed, returns the default
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsDuration reads an environment variable as milliseconds and converts to time.Duration
// If the variable doesn't exist or can't be parsed, returns the default
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	ms, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return time.Duration(ms) * time.Millisecond
}
