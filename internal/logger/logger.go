package logger

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/Brownie44l1/biryani-api/internal/config"
)

// Init configures the global zerolog logger. When cfg.File is set, output is
// also written to a rotating file.
func Init(cfg config.LogConfig) error {
	return initWith(cfg, os.Stdout)
}

func initWith(cfg config.LogConfig, stdout io.Writer) error {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	if level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var out io.Writer = stdout
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{
			Out:        stdout,
			TimeFormat: "02-01-2006 15:04:05.000",
		}
	}

	writers := []io.Writer{out}
	if cfg.File != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		})
	}

	zerolog.CallerMarshalFunc = func(_ uintptr, file string, line int) string {
		parts := strings.Split(file, "/")
		return parts[len(parts)-1] + ":" + strconv.Itoa(line)
	}

	log.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).
		With().
		Timestamp().
		Caller().
		Logger()
	return nil
}
