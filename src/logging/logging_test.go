package logging

import (
	"testing"

	logger "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestSetup(t *testing.T) {
	t.Setenv("LOG_LEVEL", "WARN")
	t.Setenv("LOG_FORMAT", "json")
	Setup()
	assert.Equal(t, logger.WarnLevel, logger.GetLevel())
	assert.IsType(t, &logger.JSONFormatter{}, logger.StandardLogger().Formatter)

	t.Setenv("LOG_LEVEL", "nonsense")
	t.Setenv("LOG_FORMAT", "")
	Setup()
	assert.Equal(t, logger.DebugLevel, logger.GetLevel())
	assert.IsType(t, &logger.TextFormatter{}, logger.StandardLogger().Formatter)
}
