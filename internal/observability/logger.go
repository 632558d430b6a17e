// File: internal/observability/logger.go
package observability

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zapio"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/xkilldash9x/drivermatch/internal/config"
)

var (
	// globalLogger stores the global logger instance safely across goroutines.
	globalLogger atomic.Pointer[zap.Logger]
	// once ensures that initialization happens exactly once.
	once sync.Once
)

// ANSI color codes for the terminal.
const (
	colorRed     = "\x1b[31m"
	colorGreen   = "\x1b[32m"
	colorYellow  = "\x1b[33m"
	colorBlue    = "\x1b[34m"
	colorMagenta = "\x1b[35m"
	colorCyan    = "\x1b[36m"
	colorWhite   = "\x1b[37m"
	colorReset   = "\x1b[0m"
)

// colorMap translates friendly names to ANSI codes.
var colorMap = map[string]string{
	"red":     colorRed,
	"green":   colorGreen,
	"yellow":  colorYellow,
	"blue":    colorBlue,
	"magenta": colorMagenta,
	"cyan":    colorCyan,
	"white":   colorWhite,
}

// Initialize sets up the global Zap logger based on configuration and a specified output writer.
// This is the core, flexible initializer.
func Initialize(cfg config.LoggerConfig, consoleWriter zapcore.WriteSyncer) {
	// Ensures initialization logic runs only once.
	once.Do(func() {
		levels := newComponentLevels(cfg)

		consoleEncoder := getEncoder(cfg)
		consoleCore := zapcore.NewCore(consoleEncoder, consoleWriter, levels.floor())
		cores := []zapcore.Core{consoleCore}

		if cfg.LogFile != "" {
			// File encoder is always JSON for structured logging.
			fileEncoder := getEncoder(config.LoggerConfig{Format: "json"})
			// lumberjack handles file rotation and thread-safe writes.
			fileWriter := zapcore.AddSync(&lumberjack.Logger{
				Filename:   cfg.LogFile,
				MaxSize:    cfg.MaxSize,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAge,
				Compress:   cfg.Compress,
			})
			fileCore := zapcore.NewCore(fileEncoder, fileWriter, levels.floor())
			cores = append(cores, fileCore)
		}

		core := &componentCore{Core: zapcore.NewTee(cores...), levels: levels}
		options := []zap.Option{zap.AddStacktrace(zap.ErrorLevel)}
		if cfg.AddSource {
			options = append(options, zap.AddCaller())
		}

		logger := zap.New(core, options...)
		if cfg.ServiceName != "" {
			logger = logger.Named(cfg.ServiceName)
		}
		globalLogger.Store(logger) // Atomically store the initialized logger.

		// Replace the standard library logger and Zap's global loggers.
		zap.ReplaceGlobals(logger)
		zap.RedirectStdLog(logger)
	})
}

// InitializeLogger initializes the global logger with console output on a
// locked Stderr. Stdout carries command results only.
func InitializeLogger(cfg config.LoggerConfig) {
	Initialize(cfg, zapcore.Lock(os.Stderr))
}

// ResetForTest resets the sync.Once and clears the global logger.
// This function should ONLY be used in tests to ensure isolation.
func ResetForTest() {
	globalLogger.Store(nil)
	once = sync.Once{}
}

// -- Component Levels --

// componentLevels resolves the minimum level for a logger name such as
// "drivermatch.webdriver.driver_output". The most specific configured
// component in the name wins; names with no override use the base level.
type componentLevels struct {
	base      zapcore.Level
	overrides map[string]zapcore.Level
}

func newComponentLevels(cfg config.LoggerConfig) componentLevels {
	l := componentLevels{base: zapcore.InfoLevel, overrides: make(map[string]zapcore.Level, len(cfg.Components))}
	if parsed, err := zapcore.ParseLevel(cfg.Level); err == nil {
		l.base = parsed
	}
	for name, level := range cfg.Components {
		// Unparseable overrides fall back to the base level.
		if parsed, err := zapcore.ParseLevel(level); err == nil {
			l.overrides[strings.ToLower(name)] = parsed
		}
	}
	return l
}

// floor is the lowest level any component may log at. The underlying cores
// are built with it; componentCore applies the per-name threshold.
func (l componentLevels) floor() zapcore.Level {
	lowest := l.base
	for _, lvl := range l.overrides {
		if lvl < lowest {
			lowest = lvl
		}
	}
	return lowest
}

func (l componentLevels) enabled(loggerName string, lvl zapcore.Level) bool {
	if len(l.overrides) > 0 && loggerName != "" {
		segments := strings.Split(strings.ToLower(loggerName), ".")
		for i := len(segments) - 1; i >= 0; i-- {
			if threshold, ok := l.overrides[segments[i]]; ok {
				return lvl >= threshold
			}
		}
	}
	return lvl >= l.base
}

// componentCore filters entries by the threshold of the component that wrote them.
type componentCore struct {
	zapcore.Core
	levels componentLevels
}

func (c *componentCore) With(fields []zapcore.Field) zapcore.Core {
	return &componentCore{Core: c.Core.With(fields), levels: c.levels}
}

func (c *componentCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.levels.enabled(ent.LoggerName, ent.Level) {
		return ce
	}
	return c.Core.Check(ent, ce)
}

// -- Probe Logging --

// ForProbe returns a child of logger tagged with a fresh probe_id and the
// driver version under test, so every line of one launch attempt correlates.
func ForProbe(logger *zap.Logger, driverVersion string) *zap.Logger {
	return logger.With(
		zap.String("probe_id", uuid.NewString()),
		zap.String("driver_version", driverVersion),
	)
}

// DriverOutput returns a writer that turns a driver process's stdout and
// stderr into debug lines on the "driver_output" component. The caller closes
// it once the process has exited to flush a trailing partial line.
func DriverOutput(logger *zap.Logger) *zapio.Writer {
	return &zapio.Writer{Log: logger.Named("driver_output"), Level: zap.DebugLevel}
}

// -- Encoders --

// newColorizedLevelEncoder creates a zapcore.LevelEncoder that colorizes the log level.
func newColorizedLevelEncoder(colors config.ColorConfig) zapcore.LevelEncoder {
	return func(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
		var color string
		levelStr := strings.ToUpper(level.String())

		switch level {
		case zapcore.DebugLevel:
			color = colorMap[colors.Debug]
		case zapcore.InfoLevel:
			color = colorMap[colors.Info]
		case zapcore.WarnLevel:
			color = colorMap[colors.Warn]
		case zapcore.ErrorLevel:
			color = colorMap[colors.Error]
		case zapcore.DPanicLevel:
			color = colorMap[colors.DPanic]
		case zapcore.PanicLevel:
			color = colorMap[colors.Panic]
		case zapcore.FatalLevel:
			color = colorMap[colors.Fatal]
		}

		if color != "" {
			enc.AppendString(color + levelStr + colorReset)
		} else {
			enc.AppendString(levelStr)
		}
	}
}

// getEncoder selects and configures the appropriate log encoder based on the
// provided configuration. It supports "json" for structured logging and a custom
// "console" format for human-readable, colorized terminal output.
func getEncoder(cfg config.LoggerConfig) zapcore.Encoder {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02T15:04:05.000Z07:00")

	if cfg.Format == "console" {
		encoderConfig.EncodeLevel = newColorizedLevelEncoder(cfg.Colors)
		// Component names end with a dot, e.g. "drivermatch.resolver.".
		encoderConfig.EncodeName = func(loggerName string, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(loggerName + ".")
		}
		return zapcore.NewConsoleEncoder(encoderConfig)
	}

	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder // e.g., "INFO", "ERROR"
	return zapcore.NewJSONEncoder(encoderConfig)
}

// GetLogger returns the initialized global logger instance.
func GetLogger() *zap.Logger {
	logger := globalLogger.Load() // Atomically load the logger pointer.
	if logger == nil {
		// Fallback mechanism if InitializeLogger hasn't been called.
		l, err := zap.NewDevelopment()
		if err != nil {
			return zap.NewNop()
		}
		l.Warn("Global logger requested before initialization; using fallback.")
		return l.Named("fallback")
	}
	return logger
}

// Sync flushes any buffered log entries. Applications should call this before exiting.
func Sync() {
	logger := globalLogger.Load()
	if logger == nil {
		return
	}
	if err := logger.Sync(); err != nil {
		// Handle common sync errors gracefully (e.g., writing to closed stdout/stderr on some OSes).
		errMsg := err.Error()
		if !strings.Contains(errMsg, "sync /dev/stdout") &&
			!strings.Contains(errMsg, "sync /dev/stderr") &&
			!strings.Contains(errMsg, "invalid argument") &&
			!strings.Contains(errMsg, "inappropriate ioctl") &&
			!strings.Contains(errMsg, "operation not supported") {
			fmt.Fprintln(os.Stderr, "Error: failed to sync logger:", err)
		}
	}
}
