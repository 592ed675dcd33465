// Command memcload shards gzip-compressed appsinstalled TSV files by
// device type and bulk-loads them into memcached. The source's
// @timer-decorated main() becomes a deferred elapsed-time log line
// around rootCmd.Execute(); its -t self-test flag short-circuits before
// any file is touched.
package main

import (
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vasyanch/memcload/internal/codec"
	"github.com/vasyanch/memcload/internal/config"
	"github.com/vasyanch/memcload/internal/ingest"
	"github.com/vasyanch/memcload/internal/logging"
	"github.com/vasyanch/memcload/internal/routing"
)

var (
	v          = viper.New()
	cfg        *config.Config
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "memcload",
	Short: "Bulk-load appsinstalled files into sharded memcached instances",
	RunE:  run,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (optional)")
	config.BindFlags(rootCmd, v)
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	var err error
	cfg, err = config.Load(v, configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading configuration: %v\n", err)
		os.Exit(1)
	}
	if err := logging.Init(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "error initializing logging: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	start := time.Now()
	defer func() {
		log.Infof("finished in %s", time.Since(start))
	}()

	if cfg.Test {
		if err := codec.SelfTest(); err != nil {
			log.Errorf("self-test failed: %v", err)
			return err
		}
		fmt.Println("ok")
		return nil
	}

	log.Infof("Memc loader started with options: %+v", *cfg)

	router := routing.NewStaticRouter(cfg.Routing())
	processor := ingest.NewProcessor(router, cfg.Dry)
	dispatcher := ingest.NewDispatcher(cfg.Pattern, processor, cfg.Quiet)

	outcomes, err := dispatcher.Run(cmd.Context())
	if err != nil {
		log.Errorf("unexpected failure: %v", err)
		return err
	}

	var rejected int
	for _, o := range outcomes {
		if !o.Accepted {
			rejected++
		}
	}
	if rejected > 0 {
		log.Warnf("%d of %d files rejected on error rate", rejected, len(outcomes))
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
