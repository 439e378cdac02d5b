// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const defaultSystemPrompt = "Bạn là trợ lý tư vấn bất động sản thân thiện của một sàn giao dịch tại Việt Nam. " +
	"Trả lời ngắn gọn bằng tiếng Việt, hỏi lại khi thiếu thông tin, và dùng công cụ capture_lead " +
	"khi khách hàng đồng ý để lại tên và số điện thoại."

// Config is the flat runtime configuration for both demo commands.
type Config struct {
	// APIKey authenticates to the model service. It is the single
	// credential the system needs.
	APIKey string

	Model   string
	BaseURL string
	LiveURL string
	System  string

	// Fallback is the offline reply served on quota exhaustion when
	// retries are disabled. Empty disables the degrade path.
	Fallback string

	RetryMaxAttempts int
	RetryBaseDelay   time.Duration

	FrameDuration time.Duration
	MetricsAddr   string
}

// FromEnv reads configuration from the environment. GEMINI_API_KEY is
// required; everything else has a sensible default.
func FromEnv() (*Config, error) {
	cfg := &Config{
		APIKey:           os.Getenv("GEMINI_API_KEY"),
		Model:            getenv("ADVISOR_MODEL", "gemini-2.0-flash"),
		BaseURL:          os.Getenv("ADVISOR_BASE_URL"),
		LiveURL:          os.Getenv("ADVISOR_LIVE_URL"),
		System:           getenv("ADVISOR_SYSTEM_PROMPT", defaultSystemPrompt),
		Fallback:         os.Getenv("ADVISOR_OFFLINE_REPLY"),
		RetryMaxAttempts: getenvInt("ADVISOR_RETRY_ATTEMPTS", 3),
		RetryBaseDelay:   getenvDuration("ADVISOR_RETRY_BASE_DELAY", 2*time.Second),
		FrameDuration:    getenvDuration("ADVISOR_FRAME_DURATION", 20*time.Millisecond),
		MetricsAddr:      os.Getenv("ADVISOR_METRICS_ADDR"),
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	return cfg, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func getenvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
