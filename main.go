package main

import (
	"fmt"
	"os"

	"apptime/config"
	"apptime/launch"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

func main() {
	cfgPath := pflag.StringP("config", "c", "", "path to the config file (default "+config.DefaultPath()+")")
	pflag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "apptime:", err)
		os.Exit(1)
	}

	if err := launch.InitLogging(cfg, nil); err != nil {
		fmt.Fprintln(os.Stderr, "apptime: logging:", err)
		os.Exit(1)
	}
	log.Info().Str("config", cfg.Path()).Msg("config loaded")

	if err := launch.StartProgramme(cfg); err != nil {
		log.Fatal().Err(err).Msg("could not start time tracking")
	}
}
