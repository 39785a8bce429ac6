// Package driver orchestrates one guest input through proving,
// independent verification and fixture export.
package driver

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"fibprove/pkg/core"
	"fibprove/pkg/crypto"
	"fibprove/pkg/fixture"
	"fibprove/pkg/guest"
	"fibprove/pkg/report"
)

var (
	// ErrUnknownMode is returned for an unrecognized mode string, before
	// any proving work begins.
	ErrUnknownMode = errors.New("unknown proof mode")
	// ErrVerification means the proof failed its independent re-check.
	// Fixture export is aborted; this is a hard gate, not a warning.
	ErrVerification = errors.New("proof verification failed")
)

// Client is the capability surface of the proving backend. The pipeline
// only talks to this interface so it can be exercised against a stub.
type Client interface {
	Execute(input []byte) (guest.ExecutionReport, error)
	Prove(input []byte, mode crypto.ProofMode) (crypto.Proof, guest.PublicValues, crypto.VerifyingKey, error)
	Verify(proof crypto.Proof, publicValues guest.PublicValues, vk crypto.VerifyingKey) (bool, error)
}

// ParseMode maps a CLI mode string to a proof mode. Selection is total:
// anything unrecognized fails here, before the client is touched.
func ParseMode(mode string) (crypto.ProofMode, error) {
	switch mode {
	case string(crypto.ModeCore):
		return crypto.ModeCore, nil
	case string(crypto.ModeCompressed):
		return crypto.ModeCompressed, nil
	case string(crypto.ModePlonk):
		return crypto.ModePlonk, nil
	default:
		return "", fmt.Errorf("%w: %q (expected core, compressed or plonk)", ErrUnknownMode, mode)
	}
}

// Pipeline is the single-flow proof pipeline: one input, at most one
// proof per invocation.
type Pipeline struct {
	client Client
	config *core.Config
}

func NewPipeline(client Client, config *core.Config) *Pipeline {
	return &Pipeline{client: client, config: config}
}

// Execute runs the guest without proving, for fast feedback.
func (p *Pipeline) Execute(n uint64) (guest.ExecutionReport, error) {
	input, err := guest.BuildInput(n)
	if err != nil {
		return guest.ExecutionReport{}, err
	}
	execReport, err := p.client.Execute(input)
	if err != nil {
		return guest.ExecutionReport{}, err
	}
	log.Info().
		Uint32("n", execReport.PublicValues.N).
		Uint32("a", execReport.PublicValues.A).
		Uint32("b", execReport.PublicValues.B).
		Uint64("cycles", execReport.Cycles).
		Msg("Guest executed")
	return execReport, nil
}

// Run proves the guest for n under the given mode string, verifies the
// proof and writes the fixture to outPath. Prove is called exactly once;
// a failed verification aborts export before anything touches disk.
func (p *Pipeline) Run(n uint64, mode string, outPath string) (*fixture.Fixture, error) {
	proofMode, err := ParseMode(mode)
	if err != nil {
		return nil, err
	}
	input, err := guest.BuildInput(n)
	if err != nil {
		return nil, err
	}
	if outPath == "" {
		outPath = p.config.FixturePath
	}

	var (
		proof        crypto.Proof
		publicValues guest.PublicValues
		vk           crypto.VerifyingKey
	)
	err = report.Measure("prove", func() error {
		var proveErr error
		proof, publicValues, vk, proveErr = p.client.Prove(input, proofMode)
		return proveErr
	})
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("mode", string(proofMode)).
		Str("vkey", vk.Hex()).
		Int("proof_bytes", len(proof.Bytes)).
		Msg("Proof generated")

	ok, err := p.client.Verify(proof, publicValues, vk)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVerification, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: proof rejected for n=%d mode=%s", ErrVerification, n, proofMode)
	}

	fx, err := fixture.New(proof, publicValues, vk, p.config.DevMode)
	if err != nil {
		return nil, err
	}
	if err := fixture.Write(fx, outPath); err != nil {
		return nil, err
	}
	log.Info().Str("path", outPath).Msg("Fixture written")
	return fx, nil
}
