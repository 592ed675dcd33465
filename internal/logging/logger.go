// Package logging adapts the teacher repo's logrus setup: same
// level-from-string idiom, extended with the spec's -l/--log flag
// (file output instead of stderr) and a dry-run override that forces
// debug level so per-record "would write" lines are visible.
package logging

import (
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/vasyanch/memcload/internal/config"
)

// Init sets the log level, format, and output destination from cfg. A
// dry run always logs at debug level regardless of cfg.LogLevel,
// mirroring the source's "--dry forces verbose logging" behavior.
func Init(cfg *config.Config) error {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
	})

	if cfg.Dry {
		log.SetLevel(log.DebugLevel)
	} else {
		setLogLevel(cfg.LogLevel)
	}

	if cfg.LogPath != "" {
		f, err := os.OpenFile(cfg.LogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		log.SetOutput(f)
	} else {
		log.SetOutput(os.Stderr)
	}

	return nil
}

func setLogLevel(logLevel string) {
	switch logLevel {
	case "trace":
		log.SetLevel(log.TraceLevel)
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "info":
		log.SetLevel(log.InfoLevel)
	case "warn":
		log.SetLevel(log.WarnLevel)
	default:
		log.SetLevel(log.ErrorLevel)
	}
}
