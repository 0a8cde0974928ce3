package logging

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger *zap.Logger

// LogLevelEnvVar is the environment variable that controls logging verbosity.
// When unset or empty, logging is silent (no zap output).
// Valid values: "debug", "info", "warn", "error"
const LogLevelEnvVar = "VOIDPWN_LOG_LEVEL"

// LogFileEnvVar redirects log output to a file instead of stderr.
const LogFileEnvVar = "VOIDPWN_LOG_FILE"

// Initialize creates a new logger with the specified level writing to path.
// If level is empty, it checks VOIDPWN_LOG_LEVEL environment variable.
// If neither is set, logging is disabled (silent mode).
// An empty path means stderr, so stdout stays clean for command output.
func Initialize(level, path string) error {
	if level == "" {
		level = os.Getenv(LogLevelEnvVar)
	}
	if path == "" {
		path = os.Getenv(LogFileEnvVar)
	}

	if level == "" {
		logger = zap.NewNop()
		return nil
	}

	output := "stderr"
	encodeLevel := zapcore.CapitalColorLevelEncoder
	if path != "" {
		output = path
		// No ANSI sequences in files
		encodeLevel = zapcore.CapitalLevelEncoder
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(ParseLevel(level)),
		Development:      false,
		Encoding:         "console",
		EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
		OutputPaths:      []string{output},
		ErrorOutputPaths: []string{"stderr"},
	}

	config.EncoderConfig.EncodeLevel = encodeLevel
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	var err error
	logger, err = config.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	return nil
}

// InitializeFromEnv initializes the logger from the VOIDPWN_LOG_LEVEL and
// VOIDPWN_LOG_FILE environment variables.
func InitializeFromEnv() error {
	return Initialize("", "")
}

// ParseLevel maps a level name to a zap level.
// Unknown names fall back to info, since setting any level means "log something".
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// SetLogger replaces the global logger (used by tests to capture output)
func SetLogger(l *zap.Logger) {
	logger = l
}

// GetLogger returns the global logger instance
func GetLogger() *zap.Logger {
	if logger == nil {
		// Silent until initialized, so commands never print unexpected output
		logger = zap.NewNop()
	}
	return logger
}

// Info logs an info message
func Info(msg string, fields ...zap.Field) {
	GetLogger().Info(msg, fields...)
}

// Debug logs a debug message
func Debug(msg string, fields ...zap.Field) {
	GetLogger().Debug(msg, fields...)
}

// Warn logs a warning message
func Warn(msg string, fields ...zap.Field) {
	GetLogger().Warn(msg, fields...)
}

// Error logs an error message
func Error(msg string, fields ...zap.Field) {
	GetLogger().Error(msg, fields...)
}

// Fatal logs a fatal message and exits
func Fatal(msg string, fields ...zap.Field) {
	GetLogger().Fatal(msg, fields...)
}

// LogRequest logs a completed backend request
func LogRequest(method, path string, status int, duration time.Duration, err error) {
	fields := []zap.Field{
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", status),
		zap.Duration("duration", duration),
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
		Warn("Backend request failed", fields...)
		return
	}
	Debug("Backend request", fields...)
}

// LogSelection logs a change of the operator's current target
func LogSelection(kind, label string) {
	Info("Selection changed",
		zap.String("kind", kind),
		zap.String("label", label),
	)
}

// LogAction logs a dispatched action with its resolved target
func LogAction(action, mode, target string) {
	Info("Action dispatched",
		zap.String("action", action),
		zap.String("mode", mode),
		zap.String("target", target),
	)
}

// LogPoll logs the outcome of one poll cycle. Unchanged polls are debug-only.
func LogPoll(name string, changed bool, err error) {
	switch {
	case err != nil:
		Warn("Poll failed", zap.String("poller", name), zap.Error(err))
	case changed:
		Debug("Poll observed change", zap.String("poller", name))
	default:
		Debug("Poll unchanged", zap.String("poller", name))
	}
}

// LogScanState logs a scan lifecycle transition
func LogScanState(from, to string, remaining int) {
	Info("Scan state",
		zap.String("from", from),
		zap.String("to", to),
		zap.Int("remaining", remaining),
	)
}

// Sync flushes any buffered log entries
func Sync() {
	if logger != nil {
		_ = logger.Sync()
	}
}
