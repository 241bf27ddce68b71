package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"go.uber.org/zap/zapcore"
)

const (
	defaultHistoryDir  = ".config/focusgov"
	defaultHistoryName = "history.db"
)

// Config holds all application configuration
type Config struct {
	// Target configuration
	Target TargetConfig

	// Throttle configuration
	Throttle ThrottleConfig

	// Transport configuration
	Transport TransportConfig

	// Logging configuration
	Logging LogConfig

	// History configuration
	History HistoryConfig

	// Daemon configuration
	Daemon DaemonConfig
}

// TargetConfig names the application whose focus lifts throttling and the
// process that gets throttled otherwise.
type TargetConfig struct {
	WindowClass string `envconfig:"FOCUSGOV_TARGET_CLASS" default:"roon.exe"`
	ProcessName string `envconfig:"FOCUSGOV_TARGET_PROCESS" default:"Roon.exe"`
}

// ThrottleConfig holds the throttling helper invocation
type ThrottleConfig struct {
	Tool        string        `envconfig:"FOCUSGOV_THROTTLE_TOOL" default:"cpulimit"`
	Limit       int           `envconfig:"FOCUSGOV_THROTTLE_LIMIT" default:"15"`        // CPU percent
	StopTimeout time.Duration `envconfig:"FOCUSGOV_THROTTLE_STOP_TIMEOUT" default:"5s"` // Wait after SIGTERM
}

// TransportConfig selects the window-manager transport
type TransportConfig struct {
	Kind string `envconfig:"FOCUSGOV_TRANSPORT" default:"auto"` // "auto", "i3" or "x11"
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level       string `envconfig:"FOCUSGOV_LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"FOCUSGOV_LOG_DEV" default:"false"`
}

// HistoryConfig holds the session journal configuration
type HistoryConfig struct {
	Enabled bool   `envconfig:"FOCUSGOV_HISTORY_ENABLED" default:"false"`
	Path    string `envconfig:"FOCUSGOV_HISTORY_DB"` // Empty means ~/.config/focusgov/history.db
}

// DaemonConfig holds single-instance configuration
type DaemonConfig struct {
	PIDFile string `envconfig:"FOCUSGOV_PID_FILE"` // Empty means /tmp/focusgov-<uid>.pid
}

// Default returns a Config with default values
func Default() *Config {
	return &Config{
		Target: TargetConfig{
			WindowClass: "roon.exe",
			ProcessName: "Roon.exe",
		},
		Throttle: ThrottleConfig{
			Tool:        "cpulimit",
			Limit:       15,
			StopTimeout: 5 * time.Second,
		},
		Transport: TransportConfig{
			Kind: "auto",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		History: HistoryConfig{
			Enabled: false,
		},
		Daemon: DaemonConfig{
			PIDFile: defaultPIDFile(),
		},
	}
}

// Load reads configuration from environment variables. Unset variables keep
// their defaults.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}

	if cfg.Daemon.PIDFile == "" {
		cfg.Daemon.PIDFile = defaultPIDFile()
	}

	return &cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Target.WindowClass == "" {
		return errors.New("target window class cannot be empty")
	}

	if c.Target.ProcessName == "" {
		return errors.New("target process name cannot be empty")
	}

	if c.Throttle.Tool == "" {
		return errors.New("throttle tool cannot be empty")
	}

	// cpulimit accepts up to 100% per CPU
	maxLimit := 100 * runtime.NumCPU()
	if c.Throttle.Limit < 1 || c.Throttle.Limit > maxLimit {
		return errors.Errorf("throttle limit must be between 1 and %d, got %d", maxLimit, c.Throttle.Limit)
	}

	if c.Throttle.StopTimeout <= 0 {
		return errors.Errorf("throttle stop timeout must be positive, got %v", c.Throttle.StopTimeout)
	}

	switch c.Transport.Kind {
	case "auto", "i3", "x11":
	default:
		return errors.Errorf("transport must be one of auto, i3, x11, got %q", c.Transport.Kind)
	}

	var level zapcore.Level
	if err := level.UnmarshalText([]byte(c.Logging.Level)); err != nil {
		return errors.Errorf("invalid log level %q", c.Logging.Level)
	}

	if c.Daemon.PIDFile == "" {
		return errors.New("PID file path cannot be empty")
	}

	return nil
}

// HistoryPath returns the journal path, creating the default directory when
// no explicit path is configured.
func (c *Config) HistoryPath() (string, error) {
	if c.History.Path != "" {
		return c.History.Path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get home directory")
	}

	dir := filepath.Join(homeDir, defaultHistoryDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.Wrap(err, "failed to create history directory")
	}

	return filepath.Join(dir, defaultHistoryName), nil
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf(`Configuration:
  Target:
    Window Class: %s
    Process Name: %s
  Throttle:
    Tool: %s
    Limit: %d%%
    Stop Timeout: %v
  Transport: %s
  Logging:
    Level: %s
    Development: %v
  History:
    Enabled: %v
    Path: %s
  Daemon:
    PID File: %s`,
		c.Target.WindowClass,
		c.Target.ProcessName,
		c.Throttle.Tool,
		c.Throttle.Limit,
		c.Throttle.StopTimeout,
		c.Transport.Kind,
		c.Logging.Level,
		c.Logging.Development,
		c.History.Enabled,
		c.History.Path,
		c.Daemon.PIDFile,
	)
}

func defaultPIDFile() string {
	return fmt.Sprintf("/tmp/focusgov-%d.pid", os.Getuid())
}
