// Package config loads the miner's TOML configuration file. The
// configuration is read once at startup and treated as immutable.
package config

import (
	"fmt"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds every recognised key. All paths are absolute.
type Config struct {
	LodaProgramsRepository string `toml:"loda_programs_repository"`
	OeisStrippedFile       string `toml:"oeis_stripped_file"`
	OeisNamesFile          string `toml:"oeis_names_file"`
	LodaSubmittedBy        string `toml:"loda_submitted_by"`
	MineEventDir           string `toml:"mine_event_dir"`
	CacheDir               string `toml:"cache_dir"`
}

// Load reads and validates a configuration file.
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	paths := map[string]string{
		"loda_programs_repository": c.LodaProgramsRepository,
		"oeis_stripped_file":       c.OeisStrippedFile,
		"oeis_names_file":          c.OeisNamesFile,
		"mine_event_dir":           c.MineEventDir,
		"cache_dir":                c.CacheDir,
	}
	for key, p := range paths {
		if p == "" {
			continue
		}
		if !filepath.IsAbs(p) {
			return fmt.Errorf("%s must be an absolute path, got %q", key, p)
		}
	}
	return nil
}

// OeisProgramsDir returns the directory holding `###/A######.asm`.
func (c *Config) OeisProgramsDir() string {
	return filepath.Join(c.LodaProgramsRepository, "oeis")
}

// DenyFile returns the `deny.txt` path next to the program tree.
func (c *Config) DenyFile() string {
	return filepath.Join(c.LodaProgramsRepository, "oeis", "deny.txt")
}

// AnalyticsDir returns where the histogram CSVs live.
func (c *Config) AnalyticsDir() string {
	return filepath.Join(c.CacheDir, "analytics")
}

// IndexFile returns the serialised bloom-filter snapshot for a term count.
func (c *Config) IndexFile(termCount int) string {
	return filepath.Join(c.CacheDir, fmt.Sprintf("fixed_length_sequence_%dterms.json", termCount))
}
