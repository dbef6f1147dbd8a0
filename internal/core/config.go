package core

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"amlinks/internal/i18n"
	"amlinks/pkg/musiclink"
)

const (
	// DefaultServerHost is the address the HTTP server binds to by default.
	DefaultServerHost = "0.0.0.0"
	// DefaultServerPort is the HTTP server port used when none is configured.
	DefaultServerPort = 8000
	// DefaultReadTimeout is the HTTP server read timeout.
	DefaultReadTimeout = 10 * time.Second
	// DefaultWriteTimeout is the HTTP server write timeout.
	DefaultWriteTimeout = 15 * time.Second
	// DefaultRequestTimeout bounds the handling of a single request.
	DefaultRequestTimeout = 10 * time.Second
	// DefaultFloodLimitPerMinute is the default number of task requests per client per minute.
	DefaultFloodLimitPerMinute = 60
	// DefaultGlobalRateLimit is the server-wide task request rate in requests per second.
	DefaultGlobalRateLimit = 50.0
	// DefaultGlobalRateBurst is the burst size of the server-wide rate limiter.
	DefaultGlobalRateBurst = 100
	// DefaultCacheSize is the default number of extraction results kept in memory.
	DefaultCacheSize = 1000
	// DefaultCacheFalsePositiveRate is the Bloom filter false positive rate of the result cache.
	DefaultCacheFalsePositiveRate = 0.001
	// MinPatternCount is the minimum number of link patterns a configuration must provide.
	MinPatternCount = 5
)

// ErrInvalidConfig is returned when the configuration cannot be used to start the service.
var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	API        APIConfig        `mapstructure:"api"`
	CORS       CORSConfig       `mapstructure:"cors"`
	AppleMusic AppleMusicConfig `mapstructure:"apple_music"`
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	App        AppConfig        `mapstructure:"app"`
}

type APIConfig struct {
	Title       string `mapstructure:"title" validate:"required"`
	Version     string `mapstructure:"version" validate:"required"`
	Description string `mapstructure:"description"`
}

type CORSConfig struct {
	AllowOrigins     []string `mapstructure:"allow_origins"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	AllowMethods     []string `mapstructure:"allow_methods"`
	AllowHeaders     []string `mapstructure:"allow_headers"`
}

// AppleMusicConfig holds the link patterns in precedence order.
type AppleMusicConfig struct {
	RootPattern string          `mapstructure:"root_pattern" validate:"required"`
	Patterns    []PatternConfig `mapstructure:"patterns" validate:"min=5,dive"`
	// Separators are reported but not used for segmentation.
	Separators []string `mapstructure:"separators"`
}

type PatternConfig struct {
	Name    string `mapstructure:"name" validate:"required"`
	Type    string `mapstructure:"type" validate:"required,oneof=album song playlist artist music_video"`
	Pattern string `mapstructure:"pattern" validate:"required"`
}

type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port" validate:"min=1,max=65535"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	// TrustProxyHeaders takes the client address from X-Forwarded-For, X-Real-IP or
	// True-Client-IP. Enable only behind a proxy that overwrites these headers.
	TrustProxyHeaders bool `mapstructure:"trust_proxy_headers"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"omitempty,oneof=json console"`
}

type AppConfig struct {
	Language               string  `mapstructure:"language"`
	FloodLimitPerMinute    int     `mapstructure:"flood_limit_per_minute" validate:"min=0"`
	GlobalRateLimit        float64 `mapstructure:"global_rate_limit" validate:"min=0"`
	GlobalRateBurst        int     `mapstructure:"global_rate_burst" validate:"min=0"`
	CacheSize              int     `mapstructure:"cache_size" validate:"min=0"`
	CacheFalsePositiveRate float64 `mapstructure:"cache_false_positive_rate" validate:"gt=0,lt=1"`
}

func DefaultConfig() *Config {
	defs := musiclink.DefaultAppleMusicPatterns()
	patterns := make([]PatternConfig, len(defs))
	for i, def := range defs {
		patterns[i] = PatternConfig{
			Name:    def.Name,
			Type:    string(def.Type),
			Pattern: def.Pattern,
		}
	}

	return &Config{
		API: APIConfig{
			Title:       "Apple Music Link Parser API",
			Version:     "1.0.0",
			Description: "Extracts and classifies Apple Music links from free-form text",
		},
		CORS: CORSConfig{
			AllowOrigins:     []string{"*"},
			AllowCredentials: false,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Content-Type", "Authorization", "Accept-Language"},
		},
		AppleMusic: AppleMusicConfig{
			RootPattern: musiclink.AppleMusicRootPattern,
			Patterns:    patterns,
			Separators:  musiclink.DefaultSeparators(),
		},
		Server: ServerConfig{
			Host:           DefaultServerHost,
			Port:           DefaultServerPort,
			ReadTimeout:    DefaultReadTimeout,
			WriteTimeout:   DefaultWriteTimeout,
			RequestTimeout: DefaultRequestTimeout,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		App: AppConfig{
			Language:               i18n.DefaultLanguage,
			FloodLimitPerMinute:    DefaultFloodLimitPerMinute,
			GlobalRateLimit:        DefaultGlobalRateLimit,
			GlobalRateBurst:        DefaultGlobalRateBurst,
			CacheSize:              DefaultCacheSize,
			CacheFalsePositiveRate: DefaultCacheFalsePositiveRate,
		},
	}
}

// SetDefaults registers the scalar defaults with v so that environment variables can override them.
// Pattern and separator lists are left out: they are only replaced when configured explicitly.
func SetDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("api.title", d.API.Title)
	v.SetDefault("api.version", d.API.Version)
	v.SetDefault("api.description", d.API.Description)
	v.SetDefault("cors.allow_origins", d.CORS.AllowOrigins)
	v.SetDefault("cors.allow_credentials", d.CORS.AllowCredentials)
	v.SetDefault("cors.allow_methods", d.CORS.AllowMethods)
	v.SetDefault("cors.allow_headers", d.CORS.AllowHeaders)
	v.SetDefault("apple_music.root_pattern", d.AppleMusic.RootPattern)
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.request_timeout", d.Server.RequestTimeout)
	v.SetDefault("server.trust_proxy_headers", d.Server.TrustProxyHeaders)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("app.language", d.App.Language)
	v.SetDefault("app.flood_limit_per_minute", d.App.FloodLimitPerMinute)
	v.SetDefault("app.global_rate_limit", d.App.GlobalRateLimit)
	v.SetDefault("app.global_rate_burst", d.App.GlobalRateBurst)
	v.SetDefault("app.cache_size", d.App.CacheSize)
	v.SetDefault("app.cache_false_positive_rate", d.App.CacheFalsePositiveRate)
}

// LoadConfig overlays the values known to v on top of DefaultConfig and validates the result.
// A pattern list in v replaces the default list as a whole.
func LoadConfig(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()

	if v.IsSet("apple_music.patterns") {
		cfg.AppleMusic.Patterns = nil
	}
	if v.IsSet("apple_music.separators") {
		cfg.AppleMusic.Separators = nil
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks field constraints and that the pattern configuration compiles.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if !i18n.IsSupported(c.App.Language) {
		return fmt.Errorf("%w: unsupported language %q (supported: %v)",
			ErrInvalidConfig, c.App.Language, i18n.GetSupportedLanguages())
	}

	if _, err := c.AppleMusic.BuildExtractor(); err != nil {
		return err
	}

	return nil
}

// PatternDefinitions converts the configured patterns for the extraction engine.
func (c *AppleMusicConfig) PatternDefinitions() []musiclink.PatternDefinition {
	defs := make([]musiclink.PatternDefinition, len(c.Patterns))
	for i, p := range c.Patterns {
		defs[i] = musiclink.PatternDefinition{
			Name:    p.Name,
			Type:    musiclink.ResourceType(p.Type),
			Pattern: p.Pattern,
		}
	}
	return defs
}

// BuildExtractor compiles the configured patterns into an extractor.
func (c *AppleMusicConfig) BuildExtractor() (*musiclink.Extractor, error) {
	if len(c.Patterns) < MinPatternCount {
		return nil, fmt.Errorf("%w: %d link patterns configured, at least %d required",
			ErrInvalidConfig, len(c.Patterns), MinPatternCount)
	}

	specs, err := musiclink.CompilePatterns(c.PatternDefinitions())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	extractor, err := musiclink.NewExtractor(c.RootPattern, specs, c.Separators)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return extractor, nil
}

// Addr returns the host:port the HTTP server listens on.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
