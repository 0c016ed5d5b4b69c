package config

import (
	"os"
	"testing"
)

func TestGetEnvOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal string
		expected   string
	}{
		{"uses env value", "TEST_VAR_1", "hello", "default", "hello"},
		{"uses default when empty", "TEST_VAR_2", "", "default", "default"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.envValue != "" {
				os.Setenv(tc.key, tc.envValue)
				defer os.Unsetenv(tc.key)
			}

			result := getEnvOrDefault(tc.key, tc.defaultVal)
			if result != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, result)
			}
		})
	}
}

func TestGetEnvAsIntOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal int
		expected   int
	}{
		{"parses integer", "TEST_INT_1", "42", 10, 42},
		{"uses default for empty", "TEST_INT_2", "", 10, 10},
		{"uses default for non-numeric", "TEST_INT_3", "abc", 10, 10},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.envValue != "" {
				os.Setenv(tc.key, tc.envValue)
				defer os.Unsetenv(tc.key)
			}

			result := getEnvAsIntOrDefault(tc.key, tc.defaultVal)
			if result != tc.expected {
				t.Errorf("Expected %d, got %d", tc.expected, result)
			}
		})
	}
}

func TestLoadThresholds(t *testing.T) {
	os.Setenv("BOT_TOKEN", "123:test")
	os.Setenv("DATABASE_URL", "postgres://localhost/grabberbot_test")
	os.Setenv("MAX_DURATION_SECONDS", "600")
	os.Setenv("MAX_FILESIZE_MB", "50")
	defer func() {
		os.Unsetenv("BOT_TOKEN")
		os.Unsetenv("DATABASE_URL")
		os.Unsetenv("MAX_DURATION_SECONDS")
		os.Unsetenv("MAX_FILESIZE_MB")
	}()

	cfg := Load()

	if cfg.MaxDurationSeconds != 600 {
		t.Errorf("Expected MaxDurationSeconds 600, got %v", cfg.MaxDurationSeconds)
	}
	if cfg.MaxFilesizeBytes != 50*1024*1024 {
		t.Errorf("Expected MaxFilesizeBytes %d, got %d", int64(50*1024*1024), cfg.MaxFilesizeBytes)
	}
	if cfg.MaxVideoPlaylistItems != 5 {
		t.Errorf("Expected default MaxVideoPlaylistItems 5, got %d", cfg.MaxVideoPlaylistItems)
	}
	if cfg.MaxImagePlaylistItems != 10 {
		t.Errorf("Expected default MaxImagePlaylistItems 10, got %d", cfg.MaxImagePlaylistItems)
	}
}
