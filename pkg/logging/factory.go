package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	slogmulti "github.com/samber/slog-multi"
)

// Factory creates and manages loggers for different components
type Factory struct {
	config  *Config
	loggers map[string]*slog.Logger
	mu      sync.RWMutex

	handler slog.Handler
	closers []io.Closer
}

// NewFactory creates a new logger factory writing to the configured output
func NewFactory(config *Config) (*Factory, error) {
	return newFactory(config, nil)
}

// NewFactoryWithWriter creates a factory whose primary handler writes to w,
// ignoring the configured output. JSONFilePath is still honoured.
func NewFactoryWithWriter(config *Config, w io.Writer) (*Factory, error) {
	if w == nil {
		return nil, fmt.Errorf("writer cannot be nil")
	}
	return newFactory(config, w)
}

func newFactory(config *Config, w io.Writer) (*Factory, error) {
	if config == nil {
		config = DefaultConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid logging config: %w", err)
	}

	f := &Factory{
		config:  config,
		loggers: make(map[string]*slog.Logger),
	}

	if err := f.initializeHandler(w); err != nil {
		f.closeFiles()
		return nil, fmt.Errorf("failed to initialize handler: %w", err)
	}

	return f, nil
}

// initializeHandler creates the base slog handler. The base handler accepts
// every level; per-component filtering happens in GetLogger.
func (f *Factory) initializeHandler(writer io.Writer) error {
	if writer == nil {
		switch f.config.Output {
		case LogOutputStdout:
			writer = os.Stdout
		case LogOutputStderr:
			writer = os.Stderr
		case LogOutputFile:
			file, err := os.OpenFile(f.config.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
			if err != nil {
				return fmt.Errorf("failed to open log file: %w", err)
			}
			f.closers = append(f.closers, file)
			writer = file
		default:
			writer = os.Stderr
		}
	}

	opts := &slog.HandlerOptions{
		Level:     slog.LevelDebug,
		AddSource: f.config.EnableCaller,
	}

	var primary slog.Handler
	switch f.config.Format {
	case LogFormatJSON:
		primary = slog.NewJSONHandler(writer, opts)
	default:
		primary = slog.NewTextHandler(writer, opts)
	}

	if f.config.JSONFilePath == "" {
		f.handler = primary
		return nil
	}

	file, err := os.OpenFile(f.config.JSONFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open JSON log file: %w", err)
	}
	f.closers = append(f.closers, file)

	f.handler = slogmulti.Fanout(primary, slog.NewJSONHandler(file, opts))
	return nil
}

// GetLogger returns a logger for a specific component
func (f *Factory) GetLogger(component string) *slog.Logger {
	f.mu.RLock()
	if logger, exists := f.loggers[component]; exists {
		f.mu.RUnlock()
		return logger
	}
	f.mu.RUnlock()

	f.mu.Lock()
	defer f.mu.Unlock()

	// Double-check after acquiring write lock
	if logger, exists := f.loggers[component]; exists {
		return logger
	}

	level := ToSlogLevel(f.config.GetLevelForComponent(component))
	logger := slog.New(NewLevelHandler(f.handler, level)).With(
		slog.String("component", component),
	)

	f.loggers[component] = logger
	return logger
}

// WithContext returns logger enriched with the operation metadata carried by ctx
func (f *Factory) WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = f.GetLogger("default")
	}
	return WithContextAttrs(ctx, logger)
}

// UpdateLevel dynamically updates the log level for a component
func (f *Factory) UpdateLevel(component string, level LogLevel) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.config.ComponentLevels == nil {
		f.config.ComponentLevels = make(map[string]LogLevel)
	}
	f.config.ComponentLevels[component] = level

	// Remove cached logger to force recreation with new level
	delete(f.loggers, component)
}

// Close closes any log files opened by the factory
func (f *Factory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closeFiles()
}

func (f *Factory) closeFiles() error {
	var errs []error
	for _, c := range f.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	f.closers = nil
	if len(errs) > 0 {
		return fmt.Errorf("errors closing logger factory: %v", errs)
	}
	return nil
}

// Global factory instance
var (
	globalFactory *Factory
	globalMu      sync.RWMutex
)

// Initialize sets up the global logger factory
func Initialize(config *Config) error {
	factory, err := NewFactory(config)
	if err != nil {
		return err
	}
	return setGlobal(factory)
}

// InitializeWithWriter sets up the global logger factory writing to w
func InitializeWithWriter(config *Config, w io.Writer) error {
	factory, err := NewFactoryWithWriter(config, w)
	if err != nil {
		return err
	}
	return setGlobal(factory)
}

func setGlobal(factory *Factory) error {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalFactory != nil {
		if err := globalFactory.Close(); err != nil {
			return fmt.Errorf("failed to close existing factory: %w", err)
		}
	}

	globalFactory = factory
	return nil
}

// GetGlobalLogger returns a logger from the global factory
func GetGlobalLogger(component string) *slog.Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()

	if globalFactory == nil {
		// Return default logger if not initialized
		return slog.Default().With(slog.String("component", component))
	}

	return globalFactory.GetLogger(component)
}

// Shutdown closes the global logging factory
func Shutdown() error {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalFactory == nil {
		return nil
	}

	err := globalFactory.Close()
	globalFactory = nil
	return err
}

// UpdateGlobalLevel dynamically updates the log level for a component
func UpdateGlobalLevel(component string, level LogLevel) {
	globalMu.RLock()
	defer globalMu.RUnlock()

	if globalFactory == nil {
		return
	}

	globalFactory.UpdateLevel(component, level)
}
