// Package logging configures the process wide logrus logger and adapts it for gorm.
package logging

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm/logger"
)

// Setup sets the level and formatter of the standard logrus logger.
// Unknown levels fall back to info.
func Setup(level string, json bool) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)
	logrus.SetOutput(os.Stdout)
	if json {
		logrus.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

// GormLogger returns a gorm logger that writes through logrus.
func GormLogger() logger.Interface {
	gormLevel := logger.Warn
	if logrus.IsLevelEnabled(logrus.DebugLevel) {
		gormLevel = logger.Info
	}
	return logger.New(
		logrus.StandardLogger(),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormLevel,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}
