package main

import (
	"flag"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"fibprove/pkg/core"
	"fibprove/pkg/crypto"
	"fibprove/pkg/driver"
)

var (
	n         = flag.Uint64("n", 10, "Fibonacci iteration count")
	out       = flag.String("out", "", "Fixture output path (defaults to the configured fixture path)")
	verbosity = flag.String("verbosity", "info", "Log level (trace, debug, info, warn, error)")
)

func main() {
	// Configure logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	flag.Parse()

	level, err := zerolog.ParseLevel(*verbosity)
	if err != nil {
		log.Fatal().Str("verbosity", *verbosity).Msg("Invalid log level")
	}
	zerolog.SetGlobalLevel(level)

	config := core.FromEnv()
	pipeline := driver.NewPipeline(crypto.NewProver(config), config)

	if _, err := pipeline.Run(*n, string(crypto.ModeCompressed), *out); err != nil {
		log.Fatal().Err(err).Msg("Compressed proof pipeline failed")
	}
}
