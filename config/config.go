package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Provider names.
const (
	ProviderLocal  = "local"
	ProviderGitHub = "github"
	ProviderAzure  = "azure"
)

// Transport names.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

const appName = "gitwho2blame"

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the root configuration structure.
type Config struct {
	Provider  string         `json:"provider"  yaml:"provider"  validate:"oneof=local github azure"`
	Transport string         `json:"transport" yaml:"transport" validate:"oneof=stdio http"`
	HTTP      HTTPConfig     `json:"http"      yaml:"http"`
	GitHub    GitHubConfig   `json:"github"    yaml:"github"`
	Azure     AzureConfig    `json:"azure"     yaml:"azure"`
	Local     LocalConfig    `json:"local"     yaml:"local"`
	Cache     CacheConfig    `json:"cache"     yaml:"cache"`
	Log       LogConfig      `json:"log"       yaml:"log"`
	Filters   FilterConfig   `json:"filters"   yaml:"filters"`
	Bugfix    BugfixConfig   `json:"bugfix"    yaml:"bugfix"`
	Defaults  DefaultsConfig `json:"defaults"  yaml:"defaults"`
}

// HTTPConfig configures the streamable HTTP transport.
type HTTPConfig struct {
	Addr string `json:"addr" yaml:"addr"`
}

// GitHubConfig holds GitHub REST API access.
type GitHubConfig struct {
	Token             string  `json:"token"             yaml:"token"`
	BaseURL           string  `json:"baseUrl"           yaml:"baseUrl"           validate:"omitempty,url"`
	RequestsPerSecond float64 `json:"requestsPerSecond" yaml:"requestsPerSecond" validate:"gte=0"`
}

// AzureConfig holds Azure DevOps access.
type AzureConfig struct {
	OrgURL            string  `json:"orgUrl"            yaml:"orgUrl"            validate:"omitempty,url"`
	Token             string  `json:"token"             yaml:"token"`
	Project           string  `json:"project"           yaml:"project"`
	RequestsPerSecond float64 `json:"requestsPerSecond" yaml:"requestsPerSecond" validate:"gte=0"`
}

// LocalConfig selects the local git engine.
type LocalConfig struct {
	Engine string `json:"engine" yaml:"engine" validate:"oneof=gogit gitcli"`
}

// CacheConfig sizes the read-through cache.
type CacheConfig struct {
	Store      string   `json:"store"      yaml:"store"      validate:"oneof=memory badger"`
	Dir        string   `json:"dir"        yaml:"dir"`
	MaxEntries int      `json:"maxEntries" yaml:"maxEntries" validate:"gte=0"`
	ShortTTL   Duration `json:"shortTtl"   yaml:"shortTtl"`
	MediumTTL  Duration `json:"mediumTtl"  yaml:"mediumTtl"`
	LongTTL    Duration `json:"longTtl"    yaml:"longTtl"`
}

// LogConfig configures the log sink. Path "-" logs to stderr.
type LogConfig struct {
	Path   string `json:"path"   yaml:"path"`
	Level  string `json:"level"  yaml:"level"  validate:"oneof=debug info warn error"`
	Format string `json:"format" yaml:"format" validate:"oneof=text json"`
}

// FilterConfig holds file path filtering options.
type FilterConfig struct {
	Exclude []string `json:"exclude" yaml:"exclude"`
}

// BugfixConfig holds bugfix detection configuration.
type BugfixConfig struct {
	Patterns []string `json:"patterns" yaml:"patterns"` // Regex patterns for bugfix commit detection
}

// DefaultsConfig holds request defaults.
type DefaultsConfig struct {
	SinceDays int `json:"sinceDays" yaml:"sinceDays" validate:"gte=1"`
}

// Duration is a time.Duration that reads and writes as "90s", "5m" and so on.
type Duration time.Duration

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Provider:  ProviderGitHub,
		Transport: TransportStdio,
		HTTP:      HTTPConfig{Addr: "127.0.0.1:8080"},
		GitHub:    GitHubConfig{RequestsPerSecond: 10},
		Azure:     AzureConfig{RequestsPerSecond: 10},
		Local:     LocalConfig{Engine: "gogit"},
		Cache: CacheConfig{
			Store:      "memory",
			MaxEntries: 10000,
			ShortTTL:   Duration(5 * time.Minute),
			MediumTTL:  Duration(time.Hour),
			LongTTL:    Duration(6 * time.Hour),
		},
		Log: LogConfig{
			Path:   DefaultLogPath(),
			Level:  "info",
			Format: "text",
		},
		Filters: FilterConfig{
			Exclude: []string{},
		},
		Bugfix: BugfixConfig{
			Patterns: []string{
				`\bfix(ed|es)?\b`,
				`\bbug\b`,
				`\bhotfix\b`,
				`\bpatch\b`,
			},
		},
		Defaults: DefaultsConfig{SinceDays: 30},
	}
}

// DefaultLogPath returns the platform log file location. Stdio MCP uses
// stdout as its protocol channel, so logs default to a file.
func DefaultLogPath() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, appName, appName+".log")
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(os.TempDir(), appName, appName+".log")
	}
	if runtime.GOOS == "darwin" {
		return filepath.Join(home, "Library", "Logs", appName, appName+".log")
	}
	return filepath.Join(home, ".local", "state", appName, appName+".log")
}

// LoadConfig loads configuration from a file, merging with defaults, then
// applies environment overrides.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = findConfigFile()
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, err
		default:
			if err := decode(path, data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}

	cfg.ApplyEnv(os.Getenv)
	return cfg, nil
}

func findConfigFile() string {
	names := []string{"." + appName + ".json", "." + appName + ".yaml", "." + appName + ".yml"}
	candidates := append([]string{}, names...)
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		for _, n := range names {
			candidates = append(candidates, filepath.Join(home, n))
		}
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	default:
		return json.Unmarshal(data, cfg)
	}
}

// ApplyEnv overrides credentials from the environment. Each setting takes
// the first non-empty variable of its list.
func (c *Config) ApplyEnv(getenv func(string) string) {
	first := func(names ...string) string {
		for _, n := range names {
			if v := getenv(n); v != "" {
				return v
			}
		}
		return ""
	}

	if v := first("GITHUB_TOKEN", "TOKEN"); v != "" {
		c.GitHub.Token = v
	}
	if v := first("AZURE_DEVOPS_TOKEN", "TOKEN"); v != "" {
		c.Azure.Token = v
	}
	if v := first("AZURE_DEVOPS_ORG_URL", "AZURE_GIT_ORG_URI"); v != "" {
		c.Azure.OrgURL = v
	}
	if v := first("AZURE_DEVOPS_PROJECT", "AZURE_GIT_PROJECT_ID"); v != "" {
		c.Azure.Project = v
	}
}

// Validate checks field values and the credentials the selected provider
// needs.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if c.Transport == TransportHTTP && c.HTTP.Addr == "" {
		return fmt.Errorf("%w: http transport needs an address", ErrInvalidConfig)
	}

	switch c.Provider {
	case ProviderGitHub:
		if c.GitHub.Token == "" {
			return fmt.Errorf("%w: github provider needs a token (GITHUB_TOKEN)", ErrInvalidConfig)
		}
	case ProviderAzure:
		var missing []string
		if c.Azure.OrgURL == "" {
			missing = append(missing, "organisation url (AZURE_DEVOPS_ORG_URL)")
		}
		if c.Azure.Token == "" {
			missing = append(missing, "token (AZURE_DEVOPS_TOKEN)")
		}
		if c.Azure.Project == "" {
			missing = append(missing, "project (AZURE_DEVOPS_PROJECT)")
		}
		if len(missing) > 0 {
			return fmt.Errorf("%w: azure provider needs %s", ErrInvalidConfig, strings.Join(missing, ", "))
		}
	}

	for _, pattern := range c.Filters.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("%w: bad exclude pattern %q", ErrInvalidConfig, pattern)
		}
	}
	return nil
}

// SaveConfig saves configuration to a file as JSON.
func SaveConfig(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
