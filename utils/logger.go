package utils

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the application-wide structured logger
var Logger = logrus.New()

// LogOptions mirrors the logging section of the production config
type LogOptions struct {
	Level      string // debug, info, warn, error
	Format     string // json, text
	Output     string // stdout, file, both
	FilePath   string
	MaxSize    int // MB
	MaxBackups int
	MaxAge     int // days
	Compress   bool
	Caller     bool
}

type appNameHook struct {
	appName string
}

// Levels implements logrus.Hook interface.
func (h *appNameHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire implements logrus.Hook interface.
func (h *appNameHook) Fire(entry *logrus.Entry) error {
	entry.Data["app"] = h.appName
	return nil
}

// InitLogger configures Logger from options. A file sink is rotated by lumberjack.
func InitLogger(appName string, opts LogOptions) {
	level, err := logrus.ParseLevel(strings.ToLower(opts.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	Logger.SetLevel(level)

	if strings.ToLower(opts.Format) == "text" {
		Logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		Logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05Z07:00"})
	}
	Logger.SetReportCaller(opts.Caller)

	var out io.Writer = os.Stdout
	switch strings.ToLower(opts.Output) {
	case "file":
		out = newRotatingFile(opts)
	case "both":
		out = io.MultiWriter(os.Stdout, newRotatingFile(opts))
	}
	Logger.SetOutput(out)

	Logger.AddHook(&appNameHook{appName: appName})

	if err != nil && opts.Level != "" {
		Logger.Warnf("Invalid LOG_LEVEL '%s', defaulting to INFO", opts.Level)
	}
}

func newRotatingFile(opts LogOptions) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   opts.FilePath,
		MaxSize:    opts.MaxSize,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAge,
		Compress:   opts.Compress,
	}
}
