package launch

import (
	"io"
	"os"
	"path/filepath"

	"apptime/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// InitLogging écrit les logs dans un fichier tournant, plus la console
func InitLogging(cfg *config.Instance, writers []io.Writer) error {
	logDir := config.LogDir()
	if err := os.MkdirAll(logDir, 0o750); err != nil {
		return err
	}

	logWriters := []io.Writer{
		&lumberjack.Logger{
			Filename:   filepath.Join(logDir, config.LogFile),
			MaxSize:    1,
			MaxBackups: 2,
		},
		zerolog.ConsoleWriter{Out: os.Stderr},
	}
	if len(writers) > 0 {
		logWriters = append(logWriters, writers...)
	}

	level := zerolog.InfoLevel
	if cfg.DebugLogging() {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Logger = log.Output(io.MultiWriter(logWriters...)).
		With().Timestamp().Caller().Logger()

	return nil
}
