package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Join(dir, ConfigDir), 0755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ConfigPath), []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"OMBOT_MENTION_NAME", "GITHUB_TOKEN", "OMBOT_API_BASE_URL", "OMBOT_PORT", "OMBOT_STATE_DIR", "OMBOT_LOG_LEVEL"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.MentionName != DefaultMentionName {
		t.Errorf("MentionName = %q, want %q", cfg.MentionName, DefaultMentionName)
	}
	if cfg.Port != DefaultPort {
		t.Errorf("Port = %d, want %d", cfg.Port, DefaultPort)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if cfg.StateDir == "" {
		t.Error("StateDir default is empty")
	}
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeConfig(t, dir, "mention_name: helper-bot\nport: 9000\nlog_level: debug\n")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.MentionName != "helper-bot" {
		t.Errorf("MentionName = %q, want helper-bot", cfg.MentionName)
	}
	if cfg.Port != 9000 {
		t.Errorf("Port = %d, want 9000", cfg.Port)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
}

func TestLoadFindsConfigInParent(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeConfig(t, dir, "mention_name: parent-bot\n")

	nested := filepath.Join(dir, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatalf("failed to create nested dir: %v", err)
	}

	cfg, err := Load(nested)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.MentionName != "parent-bot" {
		t.Errorf("MentionName = %q, want parent-bot", cfg.MentionName)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeConfig(t, dir, "mention_name: file-bot\nport: 9000\n")

	t.Setenv("OMBOT_MENTION_NAME", "env-bot")
	t.Setenv("GITHUB_TOKEN", "tok")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.MentionName != "env-bot" {
		t.Errorf("MentionName = %q, want env override", cfg.MentionName)
	}
	if cfg.Token != "tok" {
		t.Errorf("Token = %q, want tok", cfg.Token)
	}
	// Values without env overrides keep the file values
	if cfg.Port != 9000 {
		t.Errorf("Port = %d, want 9000", cfg.Port)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeConfig(t, dir, "mention_name: [unclosed\n")

	if _, err := Load(dir); err == nil {
		t.Fatal("expected error for invalid yaml")
	}
}
