package config

import (
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/mosaicnetworks/stdionode/src/common"
	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

// DefaultConfigFile is the base name, without extension, of the optional
// configuration file read from the data directory.
const DefaultConfigFile = "node"

// Default configuration values.
const (
	DefaultLogLevel = "info"
	DefaultLogFile  = ""
	DefaultBehavior = "echo"
)

// Config contains all the configuration properties of a node.
type Config struct {
	// DataDir is the directory searched for the optional configuration file.
	DataDir string `mapstructure:"datadir"`

	// LogLevel determines the chattiness of the log output. Logs are written
	// to stderr because stdout carries the protocol.
	LogLevel string `mapstructure:"log"`

	// LogFile, when not empty, is a file receiving a copy of every log entry
	// in JSON format. Useful because the harness usually owns stderr.
	LogFile string `mapstructure:"log-file"`

	// Behavior is the name of the behavior the node runs after the handshake.
	Behavior string `mapstructure:"behavior"`

	logger *logrus.Logger
}

// NewDefaultConfig returns a config object with default values.
func NewDefaultConfig() *Config {
	config := &Config{
		DataDir:  DefaultDataDir(),
		LogLevel: DefaultLogLevel,
		LogFile:  DefaultLogFile,
		Behavior: DefaultBehavior,
	}

	return config
}

// NewTestConfig returns a config object with default values and a special
// logger for debugging tests.
func NewTestConfig(t testing.TB, level logrus.Level) *Config {
	config := NewDefaultConfig()
	config.logger = common.NewTestLogger(t, level)
	return config
}

// Logger returns a formatted logrus Entry, with prefix set to "node".
func (c *Config) Logger() *logrus.Entry {
	if c.logger == nil {
		c.logger = logrus.New()
		c.logger.Out = os.Stderr
		c.logger.Level = LogLevel(c.LogLevel)
		c.logger.Formatter = new(prefixed.TextFormatter)

		if c.LogFile != "" {
			c.logger.Hooks.Add(lfshook.NewHook(
				fileMap(c.LogFile),
				&logrus.JSONFormatter{},
			))
		}
	}
	return c.logger.WithField("prefix", "node")
}

// ConfigFile returns the full path, without extension, of the configuration
// file.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, DefaultConfigFile)
}

func fileMap(path string) lfshook.PathMap {
	pathMap := lfshook.PathMap{}
	for _, level := range logrus.AllLevels {
		pathMap[level] = path
	}
	return pathMap
}

// DefaultDataDir return the default directory name for the node
// configuration based on the underlying OS, attempting to respect conventions.
func DefaultDataDir() string {
	// Try to place the data folder in the user's home dir
	home := HomeDir()
	if home != "" {
		if runtime.GOOS == "darwin" {
			return filepath.Join(home, ".StdioNode")
		} else if runtime.GOOS == "windows" {
			return filepath.Join(home, "AppData", "Roaming", "StdioNode")
		} else {
			return filepath.Join(home, ".stdionode")
		}
	}
	// As we cannot guess a stable location, return empty and handle later
	return ""
}

// HomeDir returns the user's home directory.
func HomeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

// LogLevel parses a string into a Logrus log level.
func LogLevel(l string) logrus.Level {
	switch l {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return logrus.DebugLevel
	}
}
