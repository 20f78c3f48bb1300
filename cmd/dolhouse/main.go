package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/jchantrell/dolhouse/internal/archive"
	"github.com/jchantrell/dolhouse/internal/cache"
	"github.com/jchantrell/dolhouse/internal/config"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
)

var (
	cfg     *config.Config
	cfgFile string

	dbPath     string
	cacheDir   string
	noCache    bool
	logLevel   string
	logFormat  string
	noProgress bool
)

var rootCmd = &cobra.Command{
	Use:   "dolhouse",
	Short: "RARC archive and Yay0 toolkit",
	Long: `dolhouse reads and writes the RARC archives and Yay0 compressed images
used by GameCube and Wii games.

Archives can be listed, extracted, packed from a directory and catalogued
into a SQLite database that can then be queried.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		if cmd.Flags().Changed("database") {
			cfg.Database = dbPath
		}
		if cmd.Flags().Changed("cache-dir") {
			cfg.CacheDir = cacheDir
		}
		if cmd.Flags().Changed("no-cache") {
			cfg.NoCache = noCache
		}
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = logLevel
		}
		if cmd.Flags().Changed("log-format") {
			cfg.LogFormat = logFormat
		}

		if err := cfg.Validate(); err != nil {
			return err
		}

		var handler slog.Handler
		if cfg.LogFormat == config.LogFormatJSON {
			handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
				Level: cfg.Level(),
			})
		} else {
			handler = tint.NewHandler(os.Stderr, &tint.Options{
				Level: cfg.Level(),
			})
		}

		logger := slog.New(handler)
		slog.SetDefault(logger)

		slog.Debug("Configuration",
			"output", cfg.Output,
			"database", cfg.Database,
			"cache_dir", cfg.CacheDir,
			"no_cache", cfg.NoCache,
			"decompress_nested", cfg.DecompressNested,
			"log_level", cfg.LogLevel,
			"log_format", cfg.LogFormat)

		return nil
	},
}

// newManager creates an archive manager using the configured cache
func newManager() *archive.Manager {
	opts := &archive.ManagerOptions{}
	if !cfg.NoCache {
		opts.Cache = cache.CacheManager(cfg.CacheDir)
	}
	return archive.NewManager(opts)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is dolhouse.yaml in home or pwd)")
	rootCmd.PersistentFlags().StringVarP(&dbPath, "database", "d", "", "catalog database file path")
	rootCmd.PersistentFlags().StringVar(&cacheDir, "cache-dir", "", "directory for decompressed images (default ~/.dolhouse/cache)")
	rootCmd.PersistentFlags().BoolVar(&noCache, "no-cache", false, "do not cache decompressed images")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (text, json)")
	rootCmd.PersistentFlags().BoolVar(&noProgress, "no-progress", false, "disable progress bar")
}
