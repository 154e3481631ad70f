package cli

import (
	"fmt"
	"os"
	"time"
)

// Config holds CLI configuration
type Config struct {
	ServerURL string
	Output    string
	Timeout   time.Duration
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		ServerURL: getEnvOrDefault("SCOUT_SERVER", "http://localhost:8080"),
		Output:    getEnvOrDefault("SCOUT_OUTPUT", "text"),
		// Sign-in waits out the server's simulated network delay
		Timeout: 30 * time.Second,
	}
}

// Validate checks flag values after parsing
func (c *Config) Validate() error {
	switch c.Output {
	case "text", "json":
	default:
		return fmt.Errorf("unknown output format %q (want text or json)", c.Output)
	}
	if c.ServerURL == "" {
		return fmt.Errorf("--server is required")
	}
	return nil
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
