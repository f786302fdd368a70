package logger

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/julianstephens/habitquest/internal/constants"
)

// Logger is the process-wide logger. It stays nil until Init runs, and every
// helper in this package is a no-op while it is nil.
var Logger *log.Logger

type Config struct {
	Debug     bool
	ConfigDir string
	// Level overrides the default level ("warn", or "debug" with Debug set).
	Level string
	// Stderr mirrors log output to stderr regardless of Debug.
	Stderr bool
}

// Init points the global logger at <ConfigDir>/logs/habitquest.log.
func Init(cfg Config) error {
	logDir := filepath.Join(cfg.ConfigDir, "logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return err
	}

	fileWriter := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, constants.AppName+".log"),
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}

	level := log.WarnLevel
	if cfg.Debug {
		level = log.DebugLevel
	}
	if cfg.Level != "" {
		parsed, err := log.ParseLevel(cfg.Level)
		if err != nil {
			return err
		}
		level = parsed
	}

	var writer io.Writer = fileWriter
	if cfg.Debug || cfg.Stderr {
		writer = io.MultiWriter(os.Stderr, fileWriter)
	}

	Logger = log.NewWithOptions(writer, log.Options{
		ReportCaller:    cfg.Debug,
		ReportTimestamp: true,
		Level:           level,
		Prefix:          constants.AppName,
	})

	return nil
}

func Debug(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Debug(msg, keyvals...)
	}
}

func Info(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Info(msg, keyvals...)
	}
}

func Warn(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Warn(msg, keyvals...)
	}
}

func Error(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Error(msg, keyvals...)
	}
}

// Component tags every entry with a component name. It resolves the global
// logger at call time, so it can be created before Init.
type Component struct {
	name string
}

func With(name string) Component {
	return Component{name: name}
}

func (c Component) logger() *log.Logger {
	if Logger == nil {
		return nil
	}
	return Logger.With("component", c.name)
}

func (c Component) Debug(msg string, keyvals ...interface{}) {
	if l := c.logger(); l != nil {
		l.Debug(msg, keyvals...)
	}
}

func (c Component) Info(msg string, keyvals ...interface{}) {
	if l := c.logger(); l != nil {
		l.Info(msg, keyvals...)
	}
}

func (c Component) Warn(msg string, keyvals ...interface{}) {
	if l := c.logger(); l != nil {
		l.Warn(msg, keyvals...)
	}
}

func (c Component) Error(msg string, keyvals ...interface{}) {
	if l := c.logger(); l != nil {
		l.Error(msg, keyvals...)
	}
}
