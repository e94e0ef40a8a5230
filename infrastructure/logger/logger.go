package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	log "github.com/sirupsen/logrus"
)

var (
	logger  = log.New()
	logFile *os.File
)

func init() {
	logger.Out = os.Stdout
	logger.Formatter = &log.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
	}
	Configure()
}

// Configure applies LOG_TO_FILE and LOG_LEVEL from the environment.
// It runs again once env files have been loaded.
func Configure() {
	// LOG_TO_FILE=true writes logs/<date><env>.log instead of stdout
	if os.Getenv("LOG_TO_FILE") == "true" {
		if logFile == nil {
			f, err := openLogFile(os.Getenv("ENV"))
			if err != nil {
				log.Warnf("Failed to open log file: %v, falling back to stdout", err)
			} else {
				logFile = f
			}
		}
		if logFile != nil {
			logger.Out = logFile
		}
	} else {
		logger.Out = os.Stdout
	}

	logger.SetLevel(log.DebugLevel)
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		if parsed, err := log.ParseLevel(lvl); err == nil {
			logger.SetLevel(parsed)
		}
	}
}

func openLogFile(env string) (*os.File, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	logsDir := filepath.Join(cwd, "logs")
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return nil, err
	}
	filePath := filepath.Join(logsDir, fmt.Sprintf("%s%s.log", time.Now().Format("2006-01-02"), env))
	return os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
}

// SetFormat switches between the default JSON output and "text".
func SetFormat(format string) {
	switch format {
	case "text":
		logger.Formatter = &log.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339Nano,
		}
	case "", "json":
		logger.Formatter = &log.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
		}
	default:
		logger.WithField("format", format).Warn("Unknown log format, keeping current formatter")
	}
}

func GetLogger() *log.Entry {
	function, file, line, _ := runtime.Caller(1)

	functionObject := runtime.FuncForPC(function)
	entry := logger.WithFields(log.Fields{
		"requestId": time.Now().UnixNano() / int64(time.Millisecond),
		"function":  functionObject.Name(),
		"file":      file,
		"line":      line,
	})

	return entry
}
