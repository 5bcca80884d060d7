package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
loda_programs_repository = "/home/miner/loda/programs"
oeis_stripped_file = "/home/miner/loda/oeis/stripped"
oeis_names_file = "/home/miner/loda/oeis/names"
loda_submitted_by = "tester"
mine_event_dir = "/home/miner/loda/mine-event"
cache_dir = "/home/miner/.seqmine/cache"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LodaSubmittedBy != "tester" {
		t.Errorf("submitted by: got %q", cfg.LodaSubmittedBy)
	}
	if got := cfg.OeisProgramsDir(); got != "/home/miner/loda/programs/oeis" {
		t.Errorf("programs dir: got %q", got)
	}
	if got := cfg.DenyFile(); got != "/home/miner/loda/programs/oeis/deny.txt" {
		t.Errorf("deny file: got %q", got)
	}
	if got := cfg.IndexFile(40); !strings.HasSuffix(got, "fixed_length_sequence_40terms.json") {
		t.Errorf("index file: got %q", got)
	}
	if got := cfg.AnalyticsDir(); got != "/home/miner/.seqmine/cache/analytics" {
		t.Errorf("analytics dir: got %q", got)
	}
}

func TestLoadConfigRejectsRelativePaths(t *testing.T) {
	path := writeConfig(t, `cache_dir = "relative/cache"`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "absolute") {
		t.Errorf("got %v", err)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.toml"); err == nil {
		t.Error("expected an error")
	}
}
