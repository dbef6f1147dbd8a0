// Package main provides the amlinks CLI application entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"amlinks/internal/core"
	"amlinks/internal/flood"
	httpserver "amlinks/internal/http"
	"amlinks/internal/i18n"
	"amlinks/internal/store"
)

const (
	envPrefix           = "AMLINKS"
	defaultEnvFile      = ".env"
	statsReportInterval = 5 * time.Minute
)

var (
	cfgFile string
	envFile string
	config  *core.Config
	logger  *zap.Logger
)

// flagKeys maps CLI flags to their configuration keys.
var flagKeys = []struct {
	flag string
	key  string
}{
	{"log-level", "log.level"},
	{"log-format", "log.format"},
	{"server-host", "server.host"},
	{"server-port", "server.port"},
	{"language", "app.language"},
	{"flood-limit-per-minute", "app.flood_limit_per_minute"},
	{"cache-size", "app.cache_size"},
}

var rootCmd = &cobra.Command{
	Use:   "amlinks",
	Short: "amlinks - Apple Music link extraction service",
	Long: `amlinks extracts Apple Music links from free-form text, classifies each link
(album, song, playlist, artist, music video) and serves the result over an HTTP API.`,
	PersistentPreRunE: loadConfiguration,
	RunE:              runServe,
	SilenceUsage:      true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml or ./config/config.yaml)")
	flags.StringVar(&envFile, "env-file", defaultEnvFile, "environment file to load before reading configuration")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "json", "log format (json, console)")
	flags.String("server-host", core.DefaultServerHost, "HTTP server host")
	flags.Int("server-port", core.DefaultServerPort, "HTTP server port")
	supportedLangs := strings.Join(i18n.GetSupportedLanguages(), ", ")
	flags.String("language", i18n.DefaultLanguage, fmt.Sprintf("Default response language (%s)", supportedLangs))
	flags.Int("flood-limit-per-minute", core.DefaultFloodLimitPerMinute,
		"Maximum task requests per client per minute (0 disables flood protection)")
	flags.Int("cache-size", core.DefaultCacheSize, "Maximum cached extraction results (0 disables the cache)")

	for _, fk := range flagKeys {
		if err := viper.BindPFlag(fk.key, flags.Lookup(fk.flag)); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to bind flag %s: %v\n", fk.flag, err)
			os.Exit(1)
		}
	}

	rootCmd.AddCommand(serveCmd, extractCmd, envExampleCmd)
}

func initConfig() {
	// Load the env file explicitly using gotenv
	if err := gotenv.Load(envFile); err != nil {
		// Don't exit if the env file doesn't exist, just warn
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Error loading %s: %v\n", envFile, err)
		}
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	core.SetDefaults(viper.GetViper())
}

func loadConfiguration(_ *cobra.Command, _ []string) error {
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg, err := core.LoadConfig(viper.GetViper())
	if err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	config = cfg

	builtLogger, err := buildLogger(config.Log.Level, config.Log.Format)
	if err != nil {
		return err
	}
	logger = builtLogger

	if used := viper.ConfigFileUsed(); used != "" {
		logger.Debug("Loaded configuration file", zap.String("path", used))
	}
	return nil
}

func buildLogger(level, format string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	switch strings.ToLower(level) {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	if format == "console" {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)

	builtLogger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return builtLogger, nil
}

type services struct {
	tasks      *core.TaskService
	cache      *store.ResultCache
	floodgate  *flood.Floodgate
	httpServer *httpserver.Server
}

func initializeServices() (*services, error) {
	extractor, err := config.AppleMusic.BuildExtractor()
	if err != nil {
		return nil, err
	}

	logger.Debug("Loaded link patterns",
		zap.String("root", extractor.Root().Pattern()),
		zap.Int("separators", len(extractor.Separators())))
	for i, spec := range extractor.Specs() {
		logger.Debug("Link pattern",
			zap.Int("precedence", i+1),
			zap.String("type", spec.Type.String()),
			zap.String("pattern", spec.Pattern()))
	}

	svcs := &services{}

	// Keep the interface nil when caching is disabled.
	var resultCache core.ResultCache
	if config.App.CacheSize > 0 {
		svcs.cache, err = store.NewResultCache(config.App.CacheSize, config.App.CacheFalsePositiveRate)
		if err != nil {
			return nil, fmt.Errorf("failed to create result cache: %w", err)
		}
		resultCache = svcs.cache
	}

	if config.App.FloodLimitPerMinute > 0 {
		svcs.floodgate = flood.New(config.App.FloodLimitPerMinute)
	}

	svcs.tasks = core.NewTaskService(extractor, resultCache, config.App.Language, logger.Named("tasks"))
	svcs.httpServer = httpserver.NewServer(config, svcs.tasks, svcs.floodgate, logger.Named("http"))

	return svcs, nil
}

func runServe(_ *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("Starting amlinks",
		zap.String("version", config.API.Version),
		zap.String("language", config.App.Language),
		zap.Int("patterns", len(config.AppleMusic.Patterns)),
		zap.Int("cache_size", config.App.CacheSize),
		zap.Int("flood_limit_per_minute", config.App.FloodLimitPerMinute))

	svcs, err := initializeServices()
	if err != nil {
		return err
	}

	return runServices(ctx, svcs)
}

func runServices(ctx context.Context, svcs *services) error {
	if svcs.floodgate != nil {
		defer svcs.floodgate.Stop()
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return svcs.httpServer.Start(gCtx)
	})

	g.Go(func() error {
		reportStats(gCtx, svcs, statsReportInterval)
		return nil
	})

	logger.Info("amlinks started successfully",
		zap.String("http_addr", config.Server.Addr()))

	if err := g.Wait(); err != nil {
		logger.Error("amlinks stopped with error", zap.Error(err))
		return err
	}

	logger.Info("amlinks stopped")
	return nil
}

// reportStats logs cache and floodgate statistics every interval until ctx is done.
func reportStats(ctx context.Context, svcs *services, interval time.Duration) {
	if svcs.cache == nil && svcs.floodgate == nil {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fields := make([]zap.Field, 0, 4)
			if svcs.cache != nil {
				stats := svcs.cache.GetStats()
				fields = append(fields,
					zap.Int("cache_entries", stats.Entries),
					zap.Uint64("cache_hits", stats.Hits),
					zap.Uint64("cache_misses", stats.Misses))
			}
			if svcs.floodgate != nil {
				fields = append(fields, zap.Int("flood_active_clients", svcs.floodgate.GetStats().ActiveClients))
			}
			logger.Info("Service statistics", fields...)
		}
	}
}
