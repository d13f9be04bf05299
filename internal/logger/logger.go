package logger

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"

	defaultLogFormat LogFormat    = LogFormatText
	defaultLogLevel  logrus.Level = logrus.InfoLevel
)

// DefaultLogger is the base logger. It is not the logrus standard logger so
// that importers configuring logrus globally are not affected.
var DefaultLogger = InitializeDefaultLogger()

// InitializeDefaultLogger returns a logrus Logger with a text formatter.
func InitializeDefaultLogger() *logrus.Logger {
	logger := logrus.New()
	f, _ := getFormatter(defaultLogFormat)
	logger.SetFormatter(f)
	logger.SetLevel(defaultLogLevel)
	return logger
}

func getFormatter(format LogFormat) (logrus.Formatter, error) {
	switch format {
	case LogFormatText:
		return &logrus.TextFormatter{
			DisableColors: true,
		}, nil
	case LogFormatJSON:
		return &logrus.JSONFormatter{}, nil
	default:
		return &logrus.TextFormatter{}, fmt.Errorf("invalid log format '%s'", string(format))
	}
}

// GetLogger returns the package logger.
func GetLogger() logrus.FieldLogger {
	return DefaultLogger
}

// SetupLogging applies level and format to DefaultLogger. Empty values keep
// the defaults.
func SetupLogging(level string, format string) error {
	if level != "" {
		l, err := logrus.ParseLevel(level)
		if err != nil {
			return err
		}
		DefaultLogger.SetLevel(l)
	}
	if format != "" {
		f, err := getFormatter(LogFormat(format))
		if err != nil {
			return err
		}
		DefaultLogger.SetFormatter(f)
	}
	return nil
}

// SetDebug switches DefaultLogger between debug and info level.
func SetDebug(debug bool) {
	if debug {
		DefaultLogger.SetLevel(logrus.DebugLevel)
	} else {
		DefaultLogger.SetLevel(defaultLogLevel)
	}
}
