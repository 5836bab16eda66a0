// Package logger builds the zerolog logger used by the command-line tool.
package logger

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-colorable"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	LogLevelFlag = "loglevel"
	LogFileFlag  = "logfile"

	dirPermMode = 0700

	consoleTimeFormat = time.RFC3339

	rollingMaxSize    = 1 // megabytes
	rollingMaxBackups = 5
	rollingMaxAge     = 0 // keep forever
)

func init() {
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.TimestampFunc = utcNow
}

func utcNow() time.Time {
	return time.Now().UTC()
}

// Config selects the log sinks.
type Config struct {
	MinLevel string // trace | debug | info | warn | error

	// Console receives human-readable output. Nil disables console logging.
	Console *os.File
	// File, when set, receives JSON lines through a rolling writer.
	File string
}

// multiWriter keeps writing to the remaining sinks when one of them fails.
type multiWriter struct {
	level   zerolog.Level
	writers []io.Writer
}

func (m multiWriter) Write(p []byte) (int, error) {
	for _, w := range m.writers {
		_, _ = w.Write(p)
	}
	return len(p), nil
}

func (m multiWriter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if m.level <= level {
		return m.Write(p)
	}
	return len(p), nil
}

// Create builds a logger from cfg. An unparsable level falls back to info
// and is reported through the new logger.
func Create(cfg Config) (zerolog.Logger, error) {
	var writers []io.Writer
	if cfg.Console != nil {
		writers = append(writers, consoleWriter(cfg.Console))
	}
	if cfg.File != "" {
		w, err := rollingWriter(cfg.File)
		if err != nil {
			return zerolog.Nop(), err
		}
		writers = append(writers, w)
	}

	level, levelErr := zerolog.ParseLevel(cfg.MinLevel)
	if levelErr != nil || cfg.MinLevel == "" {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(multiWriter{level, writers}).Level(level).With().Timestamp().Logger()
	if levelErr != nil {
		log.Error().Msgf("Failed to parse log level %q, using %q instead", cfg.MinLevel, level)
	}
	return log, nil
}

// CreateLoggerFromContext reads --loglevel and --logfile. fallbackLevel
// applies when --loglevel is empty.
func CreateLoggerFromContext(c *cli.Context, fallbackLevel string) (zerolog.Logger, error) {
	level := c.String(LogLevelFlag)
	if level == "" {
		level = fallbackLevel
	}
	return Create(Config{
		MinLevel: level,
		Console:  os.Stderr,
		File:     c.String(LogFileFlag),
	})
}

func consoleWriter(out *os.File) io.Writer {
	return zerolog.ConsoleWriter{
		Out:        colorable.NewColorable(out),
		NoColor:    !term.IsTerminal(int(out.Fd())),
		TimeFormat: consoleTimeFormat,
	}
}

func rollingWriter(path string) (io.Writer, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, dirPermMode); err != nil {
			return nil, errors.Wrap(err, "unable to create directories for logfile")
		}
	}
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    rollingMaxSize,
		MaxBackups: rollingMaxBackups,
		MaxAge:     rollingMaxAge,
	}, nil
}
