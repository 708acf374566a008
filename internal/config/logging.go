package config

import (
	"os"

	log "github.com/sirupsen/logrus"
)

// ConfigureLogging applies the log level to logger. Debug settings get the
// human-readable text formatter, everything else logs JSON.
func (s Settings) ConfigureLogging(logger *log.Logger) {
	logger.SetOutput(os.Stderr)
	logger.SetLevel(s.LogLevel)
	if s.Debug {
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
		return
	}
	logger.SetFormatter(&log.JSONFormatter{})
}
