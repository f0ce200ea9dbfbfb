// Package config loads and persists application configuration.
// Priority: environment variables > config file > defaults. The analysis
// schedule lives in a separate schedule.yaml so dashboard edits to either
// file never clobber the other.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Version is the application version, overridable at build time.
var Version = "0.0.1-dev"

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig       `mapstructure:"server" yaml:"server" json:"server"`
	Database   DatabaseConfig     `mapstructure:"database" yaml:"database" json:"database"`
	Logging    LoggingConfig      `mapstructure:"logging" yaml:"logging" json:"logging"`
	Plex       PlexConfig         `mapstructure:"plex" yaml:"plex" json:"plex"`
	Sonarr     ArrConfig          `mapstructure:"sonarr" yaml:"sonarr" json:"sonarr"`
	Radarr     ArrConfig          `mapstructure:"radarr" yaml:"radarr" json:"radarr"`
	Libraries  []LibraryConfig    `mapstructure:"libraries" yaml:"libraries" json:"libraries"`
	Rules      map[string]RuleSet `mapstructure:"rules" yaml:"rules" json:"rules"`
	Duplicates DuplicatesConfig   `mapstructure:"duplicates" yaml:"duplicates" json:"duplicates"`
	Execution  ExecutionConfig    `mapstructure:"execution" yaml:"execution" json:"execution"`
	Safety     SafetyConfig       `mapstructure:"safety" yaml:"safety" json:"safety"`
	Reporting  ReportingConfig    `mapstructure:"reporting" yaml:"reporting" json:"reporting"`

	// path is where Load found (or would create) the config file.
	path string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host" yaml:"host" json:"host"`
	Port int    `mapstructure:"port" yaml:"port" json:"port"`
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Path string `mapstructure:"path" yaml:"path" json:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level" json:"level"`
	Format     string `mapstructure:"format" yaml:"format" json:"format"`
	Path       string `mapstructure:"path" yaml:"path" json:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb" json:"maxSizeMb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups" json:"maxBackups"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days" json:"maxAgeDays"`
	Compress   bool   `mapstructure:"compress" yaml:"compress" json:"compress"`
}

// PlexConfig holds the Plex Media Server connection settings.
type PlexConfig struct {
	URL     string `mapstructure:"url" yaml:"url" json:"url"`
	Token   string `mapstructure:"token" yaml:"token" json:"token"`
	Timeout int    `mapstructure:"timeout" yaml:"timeout" json:"timeout"` // seconds
}

// ArrConfig holds connection settings for Sonarr or Radarr.
type ArrConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	URL     string `mapstructure:"url" yaml:"url" json:"url"`
	APIKey  string `mapstructure:"api_key" yaml:"api_key" json:"apiKey"`
	Timeout int    `mapstructure:"timeout" yaml:"timeout" json:"timeout"` // seconds
}

// LibraryConfig binds one Plex library section to a named rule set.
type LibraryConfig struct {
	ID    string `mapstructure:"id" yaml:"id" json:"id"`
	Name  string `mapstructure:"name" yaml:"name" json:"name"`
	Type  string `mapstructure:"type" yaml:"type" json:"type"` // "movie" or "show"
	Rules string `mapstructure:"rules" yaml:"rules" json:"rules"`
}

// DuplicatesConfig controls duplicate detection.
type DuplicatesConfig struct {
	Enabled         bool `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	NLAudioPriority bool `mapstructure:"nl_audio_priority" yaml:"nl_audio_priority" json:"nlAudioPriority"`
}

// ExecutionConfig controls how confirmed deletions are carried out.
type ExecutionConfig struct {
	DryRun            bool   `mapstructure:"dry_run" yaml:"dry_run" json:"dryRun"`
	CreateBackupList  bool   `mapstructure:"create_backup_list" yaml:"create_backup_list" json:"createBackupList"`
	MoveToTrash       bool   `mapstructure:"move_to_trash" yaml:"move_to_trash" json:"moveToTrash"`
	TrashFolder       string `mapstructure:"trash_folder" yaml:"trash_folder" json:"trashFolder"`
	UnmonitorInSonarr bool   `mapstructure:"unmonitor_in_sonarr" yaml:"unmonitor_in_sonarr" json:"unmonitorInSonarr"`
	UnmonitorInRadarr bool   `mapstructure:"unmonitor_in_radarr" yaml:"unmonitor_in_radarr" json:"unmonitorInRadarr"`
}

// SafetyConfig bounds a single execution pass.
type SafetyConfig struct {
	MaxDeletePercentage int `mapstructure:"max_delete_percentage" yaml:"max_delete_percentage" json:"maxDeletePercentage"`
}

// ReportingConfig controls deletion plan report output.
type ReportingConfig struct {
	OutputDir    string `mapstructure:"output_dir" yaml:"output_dir" json:"outputDir"`
	GenerateJSON bool   `mapstructure:"generate_json" yaml:"generate_json" json:"generateJson"`
	GenerateCSV  bool   `mapstructure:"generate_csv" yaml:"generate_csv" json:"generateCsv"`
	GenerateHTML bool   `mapstructure:"generate_html" yaml:"generate_html" json:"generateHtml"`
	KeepReports  int    `mapstructure:"keep_reports" yaml:"keep_reports" json:"keepReports"`
}

// Load reads configuration from file and environment variables, normalizes
// rule sets and validates library bindings.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/.plexsweep")
	}

	v.SetEnvPrefix("PLEXSWEEP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !notFound && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults + env vars.
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.path = v.ConfigFileUsed()
	if cfg.path == "" {
		if configPath != "" {
			cfg.path = configPath
		} else {
			cfg.path = "config.yaml"
		}
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// normalize fills rule-set defaults once so downstream code never defaults
// ad hoc at each access.
func (c *Config) normalize() {
	if c.Rules == nil {
		c.Rules = DefaultRules()
	}
	for name, rs := range c.Rules {
		c.Rules[name] = rs.Normalize()
	}
	if c.Reporting.KeepReports <= 0 {
		c.Reporting.KeepReports = 5
	}
	if c.Safety.MaxDeletePercentage <= 0 || c.Safety.MaxDeletePercentage > 100 {
		c.Safety.MaxDeletePercentage = 50
	}
}

// Validate checks the library bindings against the named rule sets.
func (c *Config) Validate() error {
	for _, lib := range c.Libraries {
		if lib.Type != "movie" && lib.Type != "show" {
			return fmt.Errorf("library %q: invalid type %q", lib.Name, lib.Type)
		}
		if lib.Rules == "" {
			continue
		}
		if _, ok := c.Rules[lib.Rules]; !ok {
			return fmt.Errorf("library %q references unknown rule set %q", lib.Name, lib.Rules)
		}
	}
	return nil
}

// RulesForLibrary returns the normalized rule set bound to a library, or
// false when the library is not configured for cleanup.
func (c *Config) RulesForLibrary(libraryID string) (RuleSet, bool) {
	for _, lib := range c.Libraries {
		if lib.ID == libraryID && lib.Rules != "" {
			rs, ok := c.Rules[lib.Rules]
			return rs, ok
		}
	}
	return RuleSet{}, false
}

// Library returns the configured library entry for an ID.
func (c *Config) Library(libraryID string) (LibraryConfig, bool) {
	for _, lib := range c.Libraries {
		if lib.ID == libraryID {
			return lib, true
		}
	}
	return LibraryConfig{}, false
}

// Path returns the location of the config file on disk.
func (c *Config) Path() string {
	return c.path
}

// Save writes the configuration back to its file as YAML.
func (c *Config) Save() error {
	if c.path == "" {
		return fmt.Errorf("config has no file path")
	}
	if dir := filepath.Dir(c.path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// DefaultRules returns the built-in rule sets mirroring a typical setup:
// regular and kids movie libraries, TV shows and anime.
func DefaultRules() map[string]RuleSet {
	return map[string]RuleSet{
		"movies":      DefaultRuleSet(),
		"kids_movies": DefaultRuleSet(),
		"tv_shows":    DefaultRuleSet(),
		"anime":       DefaultRuleSet(),
	}
}

// setDefaults sets default values in viper.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8765)

	v.SetDefault("database.path", "./data/plexsweep.db")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.path", "./logs")

	v.SetDefault("plex.url", "http://localhost:32400")
	v.SetDefault("plex.timeout", 120)

	v.SetDefault("sonarr.enabled", false)
	v.SetDefault("sonarr.url", "http://localhost:8989")
	v.SetDefault("sonarr.timeout", 30)

	v.SetDefault("radarr.enabled", false)
	v.SetDefault("radarr.url", "http://localhost:7878")
	v.SetDefault("radarr.timeout", 30)

	v.SetDefault("duplicates.enabled", true)
	v.SetDefault("duplicates.nl_audio_priority", true)

	v.SetDefault("execution.dry_run", true)
	v.SetDefault("execution.create_backup_list", true)
	v.SetDefault("execution.move_to_trash", false)
	v.SetDefault("execution.trash_folder", "./trash")
	v.SetDefault("execution.unmonitor_in_sonarr", true)
	v.SetDefault("execution.unmonitor_in_radarr", true)

	v.SetDefault("safety.max_delete_percentage", 50)

	v.SetDefault("reporting.output_dir", "./reports")
	v.SetDefault("reporting.generate_json", true)
	v.SetDefault("reporting.generate_csv", true)
	v.SetDefault("reporting.generate_html", true)
	v.SetDefault("reporting.keep_reports", 5)
}

// Address returns the server address string.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
