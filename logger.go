package krb5keep

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var log *logrus.Logger

// InitLogger initializes the logger with file rotation using default config.
// Logs are written to ~/.config/krb5keep/krb5keep.log
func InitLogger() error {
	return InitLoggerWithConfig(DefaultLogConfig())
}

// InitLoggerWithConfig initializes the logger with the provided configuration
func InitLoggerWithConfig(cfg LogConfig) error {
	log = logrus.New()

	// Create log directory if needed
	logDir := ConfigDir()
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	logPath := filepath.Join(logDir, "krb5keep.log")

	// Configure lumberjack for log rotation
	lj := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    cfg.MaxSizeMB,  // MB - rotate when file reaches this size
		MaxBackups: cfg.MaxBackups, // Number of backup files to keep
		MaxAge:     cfg.MaxAgeDays, // Days to keep old files
		Compress:   cfg.Compress,   // Compress rotated files
		LocalTime:  true,           // Use local time for rotation
	}

	// Write to file, and optionally to stdout
	if cfg.ToStdout {
		multiWriter := io.MultiWriter(lj, os.Stdout)
		log.SetOutput(multiWriter)
	} else {
		log.SetOutput(lj)
	}

	// Set formatter - use text format with timestamps
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
		DisableColors:   true, // No colors in log file
	})

	// Default to Info level, Debug mode will change this
	log.SetLevel(logrus.InfoLevel)

	log.WithFields(logrus.Fields{
		"max_size_mb":  cfg.MaxSizeMB,
		"max_backups":  cfg.MaxBackups,
		"max_age_days": cfg.MaxAgeDays,
		"compress":     cfg.Compress,
		"to_stdout":    cfg.ToStdout,
	}).Info("Logger initialized")
	return nil
}

// SetLogLevel sets the logging level based on debug mode
func SetLogLevel(debug bool) {
	if log == nil {
		return
	}
	if debug {
		log.SetLevel(logrus.DebugLevel)
		log.Debug("Debug logging enabled")
	} else {
		log.SetLevel(logrus.InfoLevel)
	}
}

// LogInfo logs an info level message (always logged)
func LogInfo(format string, args ...interface{}) {
	if log != nil {
		log.Infof(format, args...)
	}
}

// LogDebug logs a debug level message (only when debug mode is on)
func LogDebug(format string, args ...interface{}) {
	if log != nil {
		log.Debugf(format, args...)
	}
}

// LogWarn logs a warning level message
func LogWarn(format string, args ...interface{}) {
	if log != nil {
		log.Warnf(format, args...)
	}
}

// LogError logs an error level message
func LogError(format string, args ...interface{}) {
	if log != nil {
		log.Errorf(format, args...)
	}
}

// LogAction logs a lifecycle action (always logged at info level)
// Used for tracking credential events like issue, renewal, fallback.
func LogAction(action string, details string) {
	if log != nil {
		log.WithFields(logrus.Fields{
			"action": action,
		}).Info(details)
	}
}

// LogStartup logs daemon startup information
func LogStartup() {
	if log == nil {
		return
	}
	log.WithFields(logrus.Fields{
		"version": Version,
		"pid":     os.Getpid(),
	}).Info("krb5keep starting")
}

// LogShutdown logs daemon shutdown
func LogShutdown() {
	if log != nil {
		log.Info("krb5keep shutting down")
	}
}

// LogTicketCreated logs a successful initial credential issue
func LogTicketCreated(principal string) {
	LogAction("ticket_created", fmt.Sprintf("Issued new ticket for %s", principal))
}

// LogTicketRenewed logs a successful credential renewal
func LogTicketRenewed(principal string) {
	LogAction("ticket_renewed", fmt.Sprintf("Renewed ticket for %s", principal))
}

// LogRenewalFallback logs a renewal failure that triggered a full reissue
func LogRenewalFallback() {
	LogAction("renewal_fallback", "Renewal failed, reissuing from key table")
}

// GetLogPath returns the path to the log file
func GetLogPath() string {
	return filepath.Join(ConfigDir(), "krb5keep.log")
}
