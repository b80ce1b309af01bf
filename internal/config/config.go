// Package config provides configuration management for heimdex-annotate.
// Values are layered: defaults < config file < ANNOTATE_* environment
// variables < command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Default values
	DefaultPort               = 8787
	DefaultLogLevel           = "info"
	DefaultLogFormat          = "json"
	DefaultDataDir            = ".heimdex-annotate"
	DefaultMarkerBaseInterval = 10.0
	DefaultCommitPollInterval = 500 * time.Millisecond
	DefaultFFprobePath        = "ffprobe"

	// EnvPrefix is the prefix of every environment override, e.g.
	// ANNOTATE_PORT or ANNOTATE_LOG_LEVEL.
	EnvPrefix = "ANNOTATE"

	// Database filename
	DBFilename = "annotate.db"

	// Config file name without extension
	configName = "config"
)

// Keys understood by the loader. Flag names use the same spelling with
// dashes instead of underscores.
const (
	KeyPort               = "port"
	KeyLogLevel           = "log_level"
	KeyLogFormat          = "log_format"
	KeyLogFile            = "log_file"
	KeyDataDir            = "data_dir"
	KeyHeadless           = "headless"
	KeyLabelsFile         = "labels_file"
	KeyAuth               = "auth"
	KeyMarkerBaseInterval = "marker_base_interval"
	KeyCommitPollInterval = "commit_poll_interval"
	KeyFFprobePath        = "ffprobe_path"
)

var keys = []string{
	KeyPort, KeyLogLevel, KeyLogFormat, KeyLogFile, KeyDataDir, KeyHeadless,
	KeyLabelsFile, KeyAuth, KeyMarkerBaseInterval, KeyCommitPollInterval, KeyFFprobePath,
}

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	LogFormat() string
	LogFile() string
	DataDir() string
	DBPath() string
	Headless() bool
	LabelsFile() string
	AuthEnabled() bool
	MarkerBaseInterval() float64
	CommitPollInterval() time.Duration
	FFprobePath() string
	ConfigFileUsed() string
}

// ViperConfig is the Config backed by a viper instance.
type ViperConfig struct {
	port               int
	logLevel           string
	logFormat          string
	logFile            string
	dataDir            string
	headless           bool
	labelsFile         string
	auth               bool
	markerBaseInterval float64
	commitPollInterval time.Duration
	ffprobePath        string
	configFile         string
}

// Loader assembles a ViperConfig from its sources.
type Loader struct {
	v          *viper.Viper
	configFile string
}

func NewLoader() *Loader {
	return &Loader{v: viper.New()}
}

// SetConfigFile sets an explicit config file path. A missing explicit file
// is an error; a missing file on the search path is not.
func (l *Loader) SetConfigFile(path string) {
	l.configFile = path
}

// BindFlags lets command-line flags override every other source. Only flags
// that were actually set take precedence over lower layers.
func (l *Loader) BindFlags(fs *pflag.FlagSet) error {
	for _, key := range keys {
		f := fs.Lookup(strings.ReplaceAll(key, "_", "-"))
		if f == nil {
			continue
		}
		if err := l.v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", f.Name, err)
		}
	}
	return nil
}

// Load resolves the configuration.
func (l *Loader) Load() (*ViperConfig, error) {
	v := l.v
	v.SetConfigName(configName)
	v.SetConfigType("yaml")
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		v.AddConfigPath(filepath.Join(xdg, "heimdex-annotate"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "heimdex-annotate"))
	}
	v.AddConfigPath(".")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	setDefaults(v)
	for _, key := range keys {
		_ = v.BindEnv(key)
	}

	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if l.configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	cfg := &ViperConfig{
		port:               v.GetInt(KeyPort),
		logLevel:           v.GetString(KeyLogLevel),
		logFormat:          v.GetString(KeyLogFormat),
		logFile:            expandTilde(v.GetString(KeyLogFile)),
		dataDir:            expandTilde(v.GetString(KeyDataDir)),
		headless:           v.GetBool(KeyHeadless),
		labelsFile:         expandTilde(v.GetString(KeyLabelsFile)),
		auth:               v.GetBool(KeyAuth),
		markerBaseInterval: v.GetFloat64(KeyMarkerBaseInterval),
		commitPollInterval: v.GetDuration(KeyCommitPollInterval),
		ffprobePath:        v.GetString(KeyFFprobePath),
		configFile:         v.ConfigFileUsed(),
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Load resolves the configuration from the default search path and the
// environment.
func Load() (*ViperConfig, error) {
	return NewLoader().Load()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyPort, DefaultPort)
	v.SetDefault(KeyLogLevel, DefaultLogLevel)
	v.SetDefault(KeyLogFormat, DefaultLogFormat)
	v.SetDefault(KeyLogFile, "")
	v.SetDefault(KeyDataDir, defaultDataDir())
	v.SetDefault(KeyHeadless, false)
	v.SetDefault(KeyLabelsFile, "")
	v.SetDefault(KeyAuth, false)
	v.SetDefault(KeyMarkerBaseInterval, DefaultMarkerBaseInterval)
	v.SetDefault(KeyCommitPollInterval, DefaultCommitPollInterval)
	v.SetDefault(KeyFFprobePath, DefaultFFprobePath)
}

// Validate checks value ranges.
func (c *ViperConfig) Validate() error {
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid %s %d: port must be between 1 and 65535", KeyPort, c.port)
	}
	if c.markerBaseInterval <= 0 {
		return fmt.Errorf("invalid %s %v: must be positive", KeyMarkerBaseInterval, c.markerBaseInterval)
	}
	if c.commitPollInterval <= 0 {
		return fmt.Errorf("invalid %s %v: must be positive", KeyCommitPollInterval, c.commitPollInterval)
	}
	switch c.logFormat {
	case "json", "text":
	default:
		return fmt.Errorf("invalid %s %q: want json or text", KeyLogFormat, c.logFormat)
	}
	if c.dataDir == "" {
		return fmt.Errorf("%s must not be empty", KeyDataDir)
	}
	return nil
}

// Port returns the HTTP server port
func (c *ViperConfig) Port() int { return c.port }

// LogLevel returns the log level (debug, info, warn, error)
func (c *ViperConfig) LogLevel() string { return c.logLevel }

func (c *ViperConfig) LogFormat() string { return c.logFormat }

// LogFile is where logs go when set. The terminal editor always logs to a
// file since stdout belongs to the screen.
func (c *ViperConfig) LogFile() string { return c.logFile }

// DataDir returns the data directory path
func (c *ViperConfig) DataDir() string { return c.dataDir }

// DBPath returns the full path to the SQLite database file
func (c *ViperConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

// Headless disables the system tray.
func (c *ViperConfig) Headless() bool { return c.headless }

// LabelsFile is the optional YAML label palette.
func (c *ViperConfig) LabelsFile() string { return c.labelsFile }

// AuthEnabled turns on bearer-token auth for the HTTP API.
func (c *ViperConfig) AuthEnabled() bool { return c.auth }

func (c *ViperConfig) MarkerBaseInterval() float64 { return c.markerBaseInterval }

func (c *ViperConfig) CommitPollInterval() time.Duration { return c.commitPollInterval }

func (c *ViperConfig) FFprobePath() string { return c.ffprobePath }

// ConfigFileUsed is the file that was read, or "" when none was found.
func (c *ViperConfig) ConfigFileUsed() string { return c.configFile }

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

func expandTilde(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
