package logging

import (
	"fmt"
	"strings"
)

// LogFormat represents the output format for logs
type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

// LogOutput represents the destination for logs
type LogOutput string

const (
	LogOutputStdout LogOutput = "stdout"
	LogOutputStderr LogOutput = "stderr"
	LogOutputFile   LogOutput = "file"
)

// LogLevel represents the logging level
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// Config represents the complete logging configuration
type Config struct {
	Level  LogLevel  `yaml:"level" json:"level"`
	Format LogFormat `yaml:"format" json:"format"`
	Output LogOutput `yaml:"output" json:"output"`

	// FilePath is the destination when Output is "file"
	FilePath string `yaml:"filePath,omitempty" json:"filePath,omitempty"`

	// JSONFilePath additionally fans every record out to a JSON file
	JSONFilePath string `yaml:"jsonFilePath,omitempty" json:"jsonFilePath,omitempty"`

	// Component-specific log levels, e.g. {"naming.renamer": "debug"}
	ComponentLevels map[string]LogLevel `yaml:"componentLevels,omitempty" json:"componentLevels,omitempty"`

	EnableCaller bool `yaml:"enableCaller" json:"enableCaller"`
}

// DefaultConfig returns a default logging configuration. Logs go to stderr so
// they never interleave with the interactive menu on stdout.
func DefaultConfig() *Config {
	return &Config{
		Level:  LogLevelWarn,
		Format: LogFormatText,
		Output: LogOutputStderr,
	}
}

// DevelopmentConfig returns a configuration suitable for development
func DevelopmentConfig() *Config {
	config := DefaultConfig()
	config.Level = LogLevelDebug
	config.EnableCaller = true
	return config
}

// Normalize lower-cases the enumerated fields and fills empty ones with defaults
func (c *Config) Normalize() {
	defaults := DefaultConfig()
	c.Level = LogLevel(strings.ToLower(strings.TrimSpace(string(c.Level))))
	if c.Level == "" {
		c.Level = defaults.Level
	}
	c.Format = LogFormat(strings.ToLower(strings.TrimSpace(string(c.Format))))
	if c.Format == "" {
		c.Format = defaults.Format
	}
	c.Output = LogOutput(strings.ToLower(strings.TrimSpace(string(c.Output))))
	if c.Output == "" {
		c.Output = defaults.Output
	}
	for component, level := range c.ComponentLevels {
		c.ComponentLevels[component] = LogLevel(strings.ToLower(string(level)))
	}
}

// Validate validates the logging configuration
func (c *Config) Validate() error {
	validLevels := map[LogLevel]bool{
		LogLevelDebug: true,
		LogLevelInfo:  true,
		LogLevelWarn:  true,
		LogLevelError: true,
	}
	if !validLevels[c.Level] {
		return fmt.Errorf("invalid log level: %s", c.Level)
	}

	for component, level := range c.ComponentLevels {
		if !validLevels[level] {
			return fmt.Errorf("invalid log level for component %s: %s", component, level)
		}
	}

	validFormats := map[LogFormat]bool{
		LogFormatJSON: true,
		LogFormatText: true,
	}
	if !validFormats[c.Format] {
		return fmt.Errorf("invalid log format: %s", c.Format)
	}

	validOutputs := map[LogOutput]bool{
		LogOutputStdout: true,
		LogOutputStderr: true,
		LogOutputFile:   true,
	}
	if !validOutputs[c.Output] {
		return fmt.Errorf("invalid log output: %s", c.Output)
	}

	if c.Output == LogOutputFile && strings.TrimSpace(c.FilePath) == "" {
		return fmt.Errorf("filePath required when output is 'file'")
	}

	return nil
}

// GetLevelForComponent returns the log level for a specific component
func (c *Config) GetLevelForComponent(component string) LogLevel {
	if level, ok := c.ComponentLevels[component]; ok {
		return level
	}
	return c.Level
}
