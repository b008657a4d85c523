// Package logging configures the process logger. The configured logger is
// handed to components explicitly; nothing else in the codebase reaches
// for a package-level logger of its own.
package logging

import (
	"fmt"
	"io"
	"os"

	formatter "github.com/antonfisher/nested-logrus-formatter"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config controls log level and optional rotating file output.
type Config struct {
	Level string
	File  string
}

// New builds the configured logger. It configures the logrus standard
// logger and returns it, so components that default to
// logrus.StandardLogger() share the same output and level.
func New(cfg Config) (*logrus.Logger, error) {
	log := logrus.StandardLogger()

	level := logrus.InfoLevel
	if cfg.Level != "" {
		parsed, err := logrus.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("parsing log level %q: %w", cfg.Level, err)
		}
		level = parsed
	}
	log.SetLevel(level)

	log.SetFormatter(&formatter.Formatter{
		NoColors:        cfg.File != "",
		TimestampFormat: "02 Jan 06 - 15:04:05",
		HideKeys:        false,
	})

	writers := []io.Writer{os.Stderr}
	if cfg.File != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   cfg.File,
			LocalTime:  true,
			Compress:   true,
			MaxSize:    100,
			MaxAge:     7,
			MaxBackups: 3,
		})
	}
	log.SetOutput(io.MultiWriter(writers...))

	return log, nil
}
