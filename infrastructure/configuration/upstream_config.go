package configuration

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const defaultUpstreamBaseURL = "http://localhost:8080/api/provide/vod/"

// UpstreamConfig is the resolved connection setting for the content API
type UpstreamConfig struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// GetUpstreamConfig returns the content API configuration with environment variable fallback
func GetUpstreamConfig() *UpstreamConfig {
	timeout := C.Upstream.TimeoutSeconds
	if v := os.Getenv("UPSTREAM_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			timeout = n
		}
	}
	if timeout <= 0 {
		timeout = 15
	}
	return &UpstreamConfig{
		BaseURL:   getConfigValue(C.Upstream.BaseURL, "UPSTREAM_BASE_URL", defaultUpstreamBaseURL),
		Timeout:   time.Duration(timeout) * time.Second,
		UserAgent: getConfigValue(C.Upstream.UserAgent, "UPSTREAM_USER_AGENT", "vod-catalog/1.0"),
	}
}

// getConfigValue gets value from environment first, then config, then default
func getConfigValue(configValue, envKey, defaultValue string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	// Placeholders such as YOUR_HOST count as unset
	if configValue != "" && !strings.HasPrefix(configValue, "YOUR_") {
		return configValue
	}
	return defaultValue
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
