// Package config loads the pipeline's configuration from CLI flags, an
// optional YAML file, and environment variables, binding all three
// through viper. The teacher repo's go.mod pulls in viper but never
// wires it up; this is that wiring, generalized from cloud-storage
// bucket config to memcached endpoint config.
package config

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vasyanch/memcload/internal/domain"
)

// Config holds the fully-resolved configuration for one pipeline run.
type Config struct {
	Pattern string

	Idfa string
	Gaid string
	Adid string
	Dvid string

	Dry   bool
	Test  bool
	Quiet bool

	LogPath  string
	LogLevel string
}

// Routing builds the DeviceRouting table spec.md §3 treats as a
// process-wide constant (DEVICE_MEMC in the source).
func (c Config) Routing() domain.DeviceRouting {
	return domain.DeviceRouting{
		"idfa": c.Idfa,
		"gaid": c.Gaid,
		"adid": c.Adid,
		"dvid": c.Dvid,
	}
}

// BindFlags registers the spec.md §6 CLI surface on cmd and binds every
// flag into v, so a value can come from an explicitly set flag, an
// environment variable (MEMCLOAD_ prefix), or a config file, in that order
// of precedence (viper's own ordering), with the flag default last.
func BindFlags(cmd *cobra.Command, v *viper.Viper) {
	flags := cmd.PersistentFlags()
	flags.String("pattern", "data/appsinstalled/*.tsv.gz", "glob pattern for input files")
	flags.String("idfa", "127.0.0.1:33013", "idfa memcached address")
	flags.String("gaid", "127.0.0.1:33014", "gaid memcached address")
	flags.String("adid", "127.0.0.1:33015", "adid memcached address")
	flags.String("dvid", "127.0.0.1:33016", "dvid memcached address")
	flags.Bool("dry", false, "log records instead of writing them")
	flags.BoolP("test", "t", false, "run the payload codec self-test and exit")
	flags.StringP("log", "l", "", "log file path (default stderr)")
	flags.Bool("quiet", false, "suppress the progress bar")
	flags.String("log-level", "info", "log level (trace, debug, info, warn, error)")

	v.BindPFlags(flags)
	v.SetEnvPrefix("memcload")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
}

// Load reads a config file (if configPath is non-empty) and assembles a
// Config from v's bound values.
func Load(v *viper.Viper, configPath string) (*Config, error) {
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	cfg := &Config{
		Pattern:  v.GetString("pattern"),
		Idfa:     v.GetString("idfa"),
		Gaid:     v.GetString("gaid"),
		Adid:     v.GetString("adid"),
		Dvid:     v.GetString("dvid"),
		Dry:      v.GetBool("dry"),
		Test:     v.GetBool("test"),
		Quiet:    v.GetBool("quiet"),
		LogPath:  v.GetString("log"),
		LogLevel: v.GetString("log-level"),
	}
	return cfg, nil
}
