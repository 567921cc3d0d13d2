package log

import (
	"testing"
)

func TestMapLevelToZapLevel(t *testing.T) {
	tests := []struct {
		name     string
		level    LogLevel
		expected string
	}{
		{"debug level", LevelDebug, "debug"},
		{"info level", LevelInfo, "info"},
		{"warn level", LevelWarn, "warn"},
		{"error level", LevelError, "error"},
		{"unknown level defaults to info", LogLevel("unknown"), "info"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			zapLevel := mapLevelToZapLevel(tt.level)
			if zapLevel.String() != tt.expected {
				t.Errorf("mapLevelToZapLevel() = %v, want %v", zapLevel.String(), tt.expected)
			}
		})
	}
}

func TestInitWithConfig(t *testing.T) {
	Reset()
	defer Reset()

	levels := []LogLevel{LevelDebug, LevelInfo, LevelWarn, LevelError}

	for _, level := range levels {
		t.Run(string(level), func(t *testing.T) {
			Reset()
			cfg := Config{
				Level:  level,
				Format: "console",
			}
			if err := Init(cfg); err != nil {
				t.Errorf("Init() error = %v", err)
			}

			if Get() == nil {
				t.Error("Get() returned nil logger")
			}
		})
	}
}

func TestGetInitializesDefault(t *testing.T) {
	Reset()
	defer Reset()

	if Get() == nil {
		t.Fatal("Get() returned nil logger without explicit Init")
	}
}
