// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Source  SourceConfig  `mapstructure:"source"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Streams StreamsConfig `mapstructure:"streams"`
	Logos   LogosConfig   `mapstructure:"logos"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Store   StoreConfig   `mapstructure:"store"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// AuthConfig defines API authentication toggles. Keys is a
// comma-separated list of accepted bearer tokens.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Keys    string `mapstructure:"keys"`
}

// BearerKeys returns the accepted tokens, trimmed, empties dropped.
func (a AuthConfig) BearerKeys() []string {
	var keys []string
	for _, k := range strings.Split(a.Keys, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// SourceConfig identifies the scraped site.
type SourceConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	UserAgent string `mapstructure:"user_agent"`
}

// HTTPConfig configures outbound fetch behavior.
type HTTPConfig struct {
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
	RequestsPerSec float64 `mapstructure:"requests_per_sec"`
}

// StreamsConfig governs stream URL filtering and decoration.
type StreamsConfig struct {
	ManifestMarker string `mapstructure:"manifest_marker"`
	Referer        string `mapstructure:"referer"`
}

// LogosConfig holds the logo feeds and the matching-cascade tuning data.
// Aliases and SuffixTokens are data, not code, so operators can extend
// them without a rebuild.
type LogosConfig struct {
	CatalogURL          string            `mapstructure:"catalog_url"`
	OverridesURL        string            `mapstructure:"overrides_url"`
	SimilarityThreshold float64           `mapstructure:"similarity_threshold"`
	Aliases             map[string]string `mapstructure:"aliases"`
	SuffixTokens        []string          `mapstructure:"suffix_tokens"`
}

// CacheConfig controls snapshot freshness.
type CacheConfig struct {
	TTLMinutes           int `mapstructure:"ttl_minutes"`
	CheckIntervalSeconds int `mapstructure:"check_interval_seconds"`
}

// StoreConfig selects the snapshot persistence provider.
type StoreConfig struct {
	Provider string `mapstructure:"provider"`
	FilePath string `mapstructure:"file_path"`
	DSN      string `mapstructure:"dsn"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// TTL returns the cache time-to-live as a duration.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLMinutes) * time.Minute
}

// CheckInterval returns the scheduler tick as a duration.
func (c CacheConfig) CheckInterval() time.Duration {
	return time.Duration(c.CheckIntervalSeconds) * time.Second
}

// FetchTimeout returns the outbound request timeout as a duration.
func (c HTTPConfig) FetchTimeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("MATCHFEED")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("auth.enabled", true)
	v.SetDefault("auth.keys", "default-secret-key")
	v.SetDefault("source.base_url", "https://hoofoot.com/")
	v.SetDefault("source.user_agent",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/128.0.0.0 Safari/537.36")
	v.SetDefault("http.timeout_seconds", 30)
	v.SetDefault("http.requests_per_sec", 1.0)
	v.SetDefault("streams.manifest_marker", "/manifest/")
	v.SetDefault("streams.referer", "https://hoofootay4.spotlightmoment.com/")
	v.SetDefault("logos.catalog_url",
		"https://raw.githubusercontent.com/lyfe05/foot_logo/refs/heads/main/logos.txt")
	v.SetDefault("logos.overrides_url", "")
	v.SetDefault("logos.similarity_threshold", 0.80)
	v.SetDefault("logos.aliases", defaultAliases)
	v.SetDefault("logos.suffix_tokens", defaultSuffixTokens)
	v.SetDefault("cache.ttl_minutes", 20)
	v.SetDefault("cache.check_interval_seconds", 60)
	v.SetDefault("store.provider", "file")
	v.SetDefault("store.file_path", "matches_cache.json")
	v.SetDefault("logging.development", true)
}

// defaultAliases maps curated short club names to the display names the
// logo catalog keys on. Lookups happen post-normalization, so everything
// here is lowercase and unaccented.
var defaultAliases = map[string]string{
	"wolves":     "wolverhampton wanderers",
	"spurs":      "tottenham hotspur",
	"man utd":    "manchester united",
	"man united": "manchester united",
	"man city":   "manchester city",
	"psg":        "paris saint-germain",
	"inter":      "inter milan",
	"atletico":   "atletico madrid",
	"atleti":     "atletico madrid",
	"barca":      "barcelona",
	"leeds":      "leeds united",
	"newcastle":  "newcastle united",
	"west ham":   "west ham united",
	"forest":     "nottingham forest",
	"sociedad":   "real sociedad",
	"gladbach":   "borussia monchengladbach",
	"dortmund":   "borussia dortmund",
	"leverkusen": "bayer leverkusen",
	"bayern":     "bayern munich",
	"sporting":   "sporting cp",
}

// defaultSuffixTokens are short legal-form club tokens stripped when
// deriving a core name ("arsenal fc" -> "arsenal", "fc porto" -> "porto").
var defaultSuffixTokens = []string{
	"fc", "cf", "afc", "cfc", "sc", "ac", "cd", "ca", "sk", "fk",
	"bk", "if", "sv", "us", "ud", "rcd", "rc", "club",
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Source.BaseURL == "" {
		return fmt.Errorf("source.base_url must be set")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.HTTP.RequestsPerSec <= 0 {
		return fmt.Errorf("http.requests_per_sec must be > 0")
	}
	if c.Logos.SimilarityThreshold <= 0 || c.Logos.SimilarityThreshold > 1 {
		return fmt.Errorf("logos.similarity_threshold must be in (0, 1]")
	}
	if c.Cache.TTLMinutes <= 0 {
		return fmt.Errorf("cache.ttl_minutes must be > 0")
	}
	if c.Auth.Enabled && len(c.Auth.BearerKeys()) == 0 {
		return fmt.Errorf("auth.keys must be set when auth is enabled")
	}
	switch c.Store.Provider {
	case "file":
		if c.Store.FilePath == "" {
			return fmt.Errorf("store.file_path must be set for the file provider")
		}
	case "postgres":
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn must be set for the postgres provider")
		}
	case "noop":
	default:
		return fmt.Errorf("unknown store provider: %s", c.Store.Provider)
	}
	return nil
}
