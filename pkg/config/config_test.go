package config

import (
	"os"
	"testing"
	"time"
)

func clearAdvisorEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"GEMINI_API_KEY", "ADVISOR_MODEL", "ADVISOR_BASE_URL", "ADVISOR_LIVE_URL",
		"ADVISOR_SYSTEM_PROMPT", "ADVISOR_OFFLINE_REPLY", "ADVISOR_RETRY_ATTEMPTS",
		"ADVISOR_RETRY_BASE_DELAY", "ADVISOR_FRAME_DURATION", "ADVISOR_METRICS_ADDR",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestFromEnvRequiresAPIKey(t *testing.T) {
	clearAdvisorEnv(t)
	if _, err := FromEnv(); err == nil {
		t.Fatalf("FromEnv() = nil error, want missing credential error")
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearAdvisorEnv(t)
	t.Setenv("GEMINI_API_KEY", "k")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv() error = %v", err)
	}
	if cfg.Model != "gemini-2.0-flash" {
		t.Fatalf("Model = %q", cfg.Model)
	}
	if cfg.RetryMaxAttempts != 3 || cfg.RetryBaseDelay != 2*time.Second {
		t.Fatalf("retry defaults = %d/%v, want 3/2s", cfg.RetryMaxAttempts, cfg.RetryBaseDelay)
	}
	if cfg.FrameDuration != 20*time.Millisecond {
		t.Fatalf("FrameDuration = %v, want 20ms", cfg.FrameDuration)
	}
	if cfg.System == "" {
		t.Fatalf("System prompt default missing")
	}
}

func TestFromEnvOverrides(t *testing.T) {
	clearAdvisorEnv(t)
	t.Setenv("GEMINI_API_KEY", "k")
	t.Setenv("ADVISOR_MODEL", "gemini-test")
	t.Setenv("ADVISOR_RETRY_ATTEMPTS", "5")
	t.Setenv("ADVISOR_RETRY_BASE_DELAY", "500ms")
	t.Setenv("ADVISOR_OFFLINE_REPLY", "để lại số điện thoại nhé")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv() error = %v", err)
	}
	if cfg.Model != "gemini-test" {
		t.Fatalf("Model = %q", cfg.Model)
	}
	if cfg.RetryMaxAttempts != 5 || cfg.RetryBaseDelay != 500*time.Millisecond {
		t.Fatalf("retry = %d/%v", cfg.RetryMaxAttempts, cfg.RetryBaseDelay)
	}
	if cfg.Fallback == "" {
		t.Fatalf("Fallback not read")
	}
}

func TestFromEnvIgnoresBadNumbers(t *testing.T) {
	clearAdvisorEnv(t)
	t.Setenv("GEMINI_API_KEY", "k")
	t.Setenv("ADVISOR_RETRY_ATTEMPTS", "not-a-number")
	t.Setenv("ADVISOR_RETRY_BASE_DELAY", "-3s")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv() error = %v", err)
	}
	if cfg.RetryMaxAttempts != 3 || cfg.RetryBaseDelay != 2*time.Second {
		t.Fatalf("bad values should fall back to defaults, got %d/%v",
			cfg.RetryMaxAttempts, cfg.RetryBaseDelay)
	}
}
