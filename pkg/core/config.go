package core

import (
	"os"
	"strconv"
)

type Config struct {
	// Fixture output configuration
	FixturePath string

	// Development mode relaxes proof-soundness settings (in-memory KZG
	// setup for the plonk wrap, no RAM precheck). Never the default;
	// fixtures produced under it are marked.
	DevMode bool

	// Plonk wrap configuration
	SRSFile         string
	SRSLagrangeFile string
	MinPlonkRAMGB   uint64
}

func DefaultConfig() *Config {
	return &Config{
		FixturePath:     "fixtures/fibonacci-fixture.json",
		DevMode:         false,
		SRSFile:         "trusted-setup/srs.bin",
		SRSLagrangeFile: "trusted-setup/srs_lagrange.bin",
		MinPlonkRAMGB:   16,
	}
}

// FromEnv returns the default configuration with environment overrides
// applied (FIBPROVE_DEV, FIBPROVE_SRS, FIBPROVE_SRS_LAGRANGE,
// FIBPROVE_MIN_RAM_GB).
func FromEnv() *Config {
	config := DefaultConfig()

	if os.Getenv("FIBPROVE_DEV") == "true" {
		config.DevMode = true
	}
	if srs := os.Getenv("FIBPROVE_SRS"); srs != "" {
		config.SRSFile = srs
	}
	if srs := os.Getenv("FIBPROVE_SRS_LAGRANGE"); srs != "" {
		config.SRSLagrangeFile = srs
	}
	if gb := os.Getenv("FIBPROVE_MIN_RAM_GB"); gb != "" {
		if parsed, err := strconv.ParseUint(gb, 10, 64); err == nil {
			config.MinPlonkRAMGB = parsed
		}
	}

	return config
}
