package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/giftlink/backend/internal/config"
)

const (
	DefaultLogFilePath = "giftlink.log"
	DefaultMaxSizeMB   = 50
	DefaultMaxBackups  = 5
	DefaultMaxAgeDays  = 30
	DefaultCompress    = true

	timeFormat = "2006-01-02 15:04:05"
)

// Options controls where and how verbosely the process logs.
type Options struct {
	Level      string
	FilePath   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
	// Console is the human-readable sink, stdout when nil
	Console io.Writer
}

// OptionsFromLoader builds Options from settings, keeping defaults for anything unset.
func OptionsFromLoader(loader *config.Loader) Options {
	opts := Options{
		Level:      "info",
		FilePath:   DefaultLogFilePath,
		MaxSizeMB:  DefaultMaxSizeMB,
		MaxBackups: DefaultMaxBackups,
		MaxAgeDays: DefaultMaxAgeDays,
		Compress:   DefaultCompress,
	}
	if loader == nil {
		return opts
	}

	opts.Level = loader.String("log.level", opts.Level)
	opts.FilePath = loader.String("log.file", opts.FilePath)
	if val := loader.Int("log.max_size_mb", DefaultMaxSizeMB); val > 0 {
		opts.MaxSizeMB = val
	}
	if val := loader.Int("log.max_backups", DefaultMaxBackups); val >= 0 {
		opts.MaxBackups = val
	}
	if val := loader.Int("log.max_age_days", DefaultMaxAgeDays); val >= 0 {
		opts.MaxAgeDays = val
	}
	opts.Compress = loader.Bool("log.compress", DefaultCompress)
	return opts
}

// LevelFromVerbosity maps a -v count onto a level name. Zero keeps fallback.
func LevelFromVerbosity(verbosity int, fallback string) string {
	switch {
	case verbosity == 1:
		return "debug"
	case verbosity >= 2:
		return "trace"
	default:
		return fallback
	}
}

// Apply sets the global log level and output writers (console + rotating file).
func Apply(opts Options) {
	applyLevel(opts.Level)
	applyOutputs(opts)
}

func applyLevel(level string) {
	switch level {
	case "trace":
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

func applyOutputs(opts Options) {
	out := opts.Console
	if out == nil {
		out = os.Stdout
	}

	consoleOutput := zerolog.ConsoleWriter{Out: out, TimeFormat: timeFormat}
	log.Logger = zerolog.New(consoleOutput).With().Timestamp().Logger()

	// "-" disables the file sink
	if opts.FilePath == "-" {
		return
	}

	filePath := opts.FilePath
	if filePath == "" {
		filePath = DefaultLogFilePath
	}

	if err := ensureLogDir(filePath); err != nil {
		log.Error().Err(err).Str("path", filePath).Msg("Failed to prepare log directory; logging to console only")
		return
	}

	fileWriter := &lumberjack.Logger{
		Filename:   filePath,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   opts.Compress,
	}

	fileConsole := zerolog.ConsoleWriter{
		Out:        fileWriter,
		TimeFormat: timeFormat,
		NoColor:    true,
	}

	multi := zerolog.MultiLevelWriter(consoleOutput, fileConsole)
	log.Logger = zerolog.New(multi).With().Timestamp().Logger()
}

func ensureLogDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
