// Package logging configures the process wide logrus logger.
package logging

import (
	"os"
	"strings"

	logger "github.com/sirupsen/logrus"
)

// Setup reads LOG_LEVEL (default debug) and LOG_FORMAT (text or json).
func Setup() {
	levelStr := strings.ToLower(os.Getenv("LOG_LEVEL"))

	level, err := logger.ParseLevel(levelStr)
	if err != nil {
		level = logger.DebugLevel
	}
	logger.SetLevel(level)

	if strings.EqualFold(os.Getenv("LOG_FORMAT"), "json") {
		logger.SetFormatter(&logger.JSONFormatter{})
		return
	}
	logger.SetFormatter(&logger.TextFormatter{
		FullTimestamp: true,
	})
}
