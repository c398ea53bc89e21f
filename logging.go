package qs

import (
	"os"

	"github.com/op/go-logging"
)

var DefaultLogger = logging.MustGetLogger("qs")

var syslogFormat = logging.MustStringFormatter(
	`%{time:15:04:05.000} %{level:.6s} ▶ %{message}`,
)
var stderrFormat = logging.MustStringFormatter(
	`%{color}%{time:15:04:05.000} %{module} ▶ %{level:.4s}%{color:reset} %{message}`,
)

//	SetupLogging installs a leveled backend for prefix and returns its logger.
//	QS_LOG_LEVEL overrides defaultLogLevel.
func SetupLogging(prefix string, defaultLogLevel logging.Level, trySyslog bool) *logging.Logger {
	var backend logging.Backend
	if trySyslog {
		var err error
		if backend, err = SyslogBackend(prefix); err != nil {
			backend = nil
		}
	}
	if backend == nil {
		backend = logging.NewBackendFormatter(logging.NewLogBackend(os.Stderr, "", 0), stderrFormat)
	}
	leveled := logging.AddModuleLevel(backend)
	leveled.SetLevel(levelFromEnv(defaultLogLevel), "")

	logging.SetBackend(leveled)
	return logging.MustGetLogger(prefix)
}

func levelFromEnv(defaultLogLevel logging.Level) logging.Level {
	switch os.Getenv("QS_LOG_LEVEL") {
	case "CRITICAL":
		return logging.CRITICAL
	case "ERROR":
		return logging.ERROR
	case "WARNING":
		return logging.WARNING
	case "NOTICE":
		return logging.NOTICE
	case "INFO":
		return logging.INFO
	case "DEBUG":
		return logging.DEBUG
	}
	return defaultLogLevel
}

//	LoggerOrDefault returns log unless it is nil.
func LoggerOrDefault(log *logging.Logger) *logging.Logger {
	if log == nil {
		return DefaultLogger
	}
	return log
}
