package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jamesainslie/intact/pkg/intact/config"
	"github.com/jamesainslie/intact/pkg/intact/hasher"
	"github.com/jamesainslie/intact/pkg/intact/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "intact",
		Short: "Audit a directory tree against a persisted file manifest",
		Long: `Intact maintains a manifest of files (path, size, content digest) for a
directory tree and reconciles it against the live filesystem, classifying
every file as unchanged, new, missing, modified, or renamed.

Examples:
  intact index ~/photos             # Reconcile and update the manifest
  intact index --fast --dry-run .   # Size-only check, no writes
  intact find -m /media/.intact .   # Files whose content is not in the reference
  intact dedup -m ~/photos/.intact  # Report redundant copies`,
		SilenceUsage:      true,
		PersistentPreRunE: bootstrap,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/intact/config.yaml)")
	rootCmd.PersistentFlags().StringP("manifest", "m", "", "manifest file path (default: <root>/.intact)")
	rootCmd.PersistentFlags().StringSliceP("exclude", "e", nil, "exclude patterns (can be specified multiple times)")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "minimal output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug output")
	rootCmd.PersistentFlags().Bool("no-cache", false, "bypass the digest cache, hash every file")

	// Bind flags to viper
	_ = viper.BindPFlag("manifest", rootCmd.PersistentFlags().Lookup("manifest"))
	_ = viper.BindPFlag("exclude", rootCmd.PersistentFlags().Lookup("exclude"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("no_cache", rootCmd.PersistentFlags().Lookup("no-cache"))
}

// initConfig reads in config file and environment variables.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")

		if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
			viper.AddConfigPath(filepath.Join(xdgConfigHome, "intact"))
		}

		homeDir, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(homeDir, ".config", "intact"))
		}
	}

	viper.SetEnvPrefix("INTACT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("default_path", config.DefaultPath)
	viper.SetDefault("manifest_name", config.DefaultManifestName)
	viper.SetDefault("verify_mode", config.DefaultVerifyMode)
	viper.SetDefault("exclude", config.DefaultExclusions)
	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.path", "")
	viper.SetDefault("logs.dir", "")
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.path", "")

	// Read config file (ignore if not found)
	_ = viper.ReadInConfig()
}

// bootstrap initializes logging before any command runs.
func bootstrap(_ *cobra.Command, _ []string) error {
	consoleLevel := ""
	if getVerbose() {
		consoleLevel = "debug"
	}

	return logging.Init(logging.Config{
		Level:        viper.GetString("logging.level"),
		Path:         viper.GetString("logging.path"),
		ConsoleLevel: consoleLevel,
		Components:   viper.GetStringMapString("logging.components"),
	})
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// resolveRoot turns the optional positional argument into an absolute,
// verified directory path.
func resolveRoot(args []string) (string, error) {
	scanPath := viper.GetString("default_path")
	if len(args) > 0 {
		scanPath = args[0]
	}

	expanded, err := config.ExpandPath(scanPath)
	if err != nil {
		return "", fmt.Errorf("failed to expand path: %w", err)
	}

	absPath, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("path does not exist: %s", absPath)
		}
		return "", fmt.Errorf("cannot access path: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("path is not a directory: %s", absPath)
	}

	return absPath, nil
}

// resolveManifestPath returns the manifest path for a root: the --manifest
// flag when set, otherwise <root>/<manifest_name>.
func resolveManifestPath(root string) (string, error) {
	if p := viper.GetString("manifest"); p != "" {
		expanded, err := config.ExpandPath(p)
		if err != nil {
			return "", err
		}
		return filepath.Abs(expanded)
	}
	return filepath.Join(root, viper.GetString("manifest_name")), nil
}

// buildHasher constructs the digest provider, wrapping it with the
// persistent cache unless disabled. The returned closer is nil when no
// cache is open.
func buildHasher() (hasher.Hasher, func() error, error) {
	base := hasher.NewXXHash()

	if viper.GetBool("no_cache") || !viper.GetBool("cache.enabled") {
		return base, nil, nil
	}

	cachePath := viper.GetString("cache.path")
	if cachePath == "" {
		cachePath = config.DefaultCachePath()
	}
	if err := os.MkdirAll(cachePath, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create cache directory: %w", err)
	}

	cache, err := hasher.OpenCache(cachePath, base)
	if err != nil {
		// A broken cache should not block an audit.
		logging.Get("cli").Warn("digest cache unavailable, hashing directly", "error", err)
		return base, nil, nil
	}
	return cache, cache.Close, nil
}

// changeLogDir returns the directory for emitted change logs.
func changeLogDir() string {
	if dir := viper.GetString("logs.dir"); dir != "" {
		return dir
	}
	return config.DefaultChangeLogDir()
}

// getVerbose returns true if verbose mode is enabled.
func getVerbose() bool {
	return viper.GetBool("verbose")
}

// getQuiet returns true if quiet mode is enabled.
func getQuiet() bool {
	return viper.GetBool("quiet")
}

// printInfo prints a diagnostic message to stderr unless quiet mode is on.
// Standard output is reserved for machine-consumable path lists.
func printInfo(format string, args ...interface{}) {
	if !getQuiet() {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}
