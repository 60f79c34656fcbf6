package logging

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestSetupLevel(t *testing.T) {
	defer logrus.SetLevel(logrus.InfoLevel)

	Setup("debug", false)
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())

	Setup("nonsense", true)
	assert.Equal(t, logrus.InfoLevel, logrus.GetLevel())
	_, isJSON := logrus.StandardLogger().Formatter.(*logrus.JSONFormatter)
	assert.True(t, isJSON)
}

func TestGormLoggerNotNil(t *testing.T) {
	assert.NotNil(t, GormLogger())
}
