package config

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var Log *logrus.Logger

// InitLogger builds the JSON logger used everywhere in the service. Output always goes
// to stdout and, when file is set, also to a rotated log file.
func InitLogger(level, file string) *logrus.Logger {
	Log = logrus.New()

	// Set formatter to JSON
	Log.SetFormatter(&logrus.JSONFormatter{})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)

	var out io.Writer = os.Stdout
	if file != "" {
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   file,
			MaxSize:    100, // MB
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		})
	}
	Log.SetOutput(out)

	if err != nil && level != "" {
		Log.WithField("level", level).Warn("Unknown LOG_LEVEL, using info")
	}
	return Log
}
