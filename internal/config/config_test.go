package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFileMissingReturnsEmptyConfig(t *testing.T) {
	cfg, err := loadFile(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if cfg.Slack.Token != "" || cfg.Sync.FanOut != 0 {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[database]
path = "/tmp/taskwatch.db"

[sync]
fan-out = 8

[slack]
token = "xoxb-test"

[lineworks]
token = "lw-token"
bot-id = "bot-1"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := loadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Database.Path != "/tmp/taskwatch.db" {
		t.Fatalf("unexpected db path: %q", cfg.Database.Path)
	}
	if cfg.Sync.FanOut != 8 {
		t.Fatalf("unexpected fan-out: %d", cfg.Sync.FanOut)
	}
	if cfg.Slack.Token != "xoxb-test" {
		t.Fatalf("unexpected slack token: %q", cfg.Slack.Token)
	}
	if cfg.LineWorks.BotID != "bot-1" {
		t.Fatalf("unexpected bot id: %q", cfg.LineWorks.BotID)
	}
}

func TestLoadFileRejectsBadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[slack\ntoken="), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := loadFile(path); err == nil {
		t.Fatal("expected parse error")
	}
}
