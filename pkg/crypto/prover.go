package crypto

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/kzg"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/plonk"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/consensys/gnark/frontend/cs/scs"
	"github.com/consensys/gnark/test/unsafekzg"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/rs/zerolog/log"

	"fibprove/pkg/core"
	"fibprove/pkg/guest"
	"fibprove/pkg/report"
)

var (
	// ErrExecution indicates the guest trapped or its input was malformed
	// at the guest boundary.
	ErrExecution = errors.New("guest execution failed")
	// ErrProving indicates a core/compressed proving error.
	ErrProving = errors.New("proving failed")
	// ErrWrapping indicates the plonk wrapping stage failed, distinct
	// from the inner proving error.
	ErrWrapping = errors.New("plonk wrapping failed")
	// ErrResourceExhausted indicates a configured memory budget was
	// exceeded before the work was attempted.
	ErrResourceExhausted = errors.New("resource budget exceeded")
)

// Prover drives the gnark backend for the Fibonacci guest. Circuit
// compilation and key generation happen on first proving use so that
// execute-only runs stay cheap; the plonk wrap artifacts are built
// separately, the first time a plonk proof is requested.
type Prover struct {
	config *core.Config

	cs           constraint.ConstraintSystem
	provingKey   groth16.ProvingKey
	verifyingKey groth16.VerifyingKey
	vkDigest     VerifyingKey

	plonkCS           constraint.ConstraintSystem
	plonkProvingKey   plonk.ProvingKey
	plonkVerifyingKey plonk.VerifyingKey
}

// NewProver creates a prover for the Fibonacci guest.
func NewProver(config *core.Config) *Prover {
	return &Prover{config: config}
}

// Execute runs the guest without producing a proof.
func (p *Prover) Execute(input []byte) (guest.ExecutionReport, error) {
	execReport, err := guest.Run(input)
	if err != nil {
		return guest.ExecutionReport{}, fmt.Errorf("%w: %v", ErrExecution, err)
	}
	return execReport, nil
}

// Prove runs the guest and produces a proof in the requested mode. The
// returned verifying key digest identifies the compiled guest program
// and is the same for every mode.
func (p *Prover) Prove(input []byte, mode ProofMode) (Proof, guest.PublicValues, VerifyingKey, error) {
	execReport, err := guest.Run(input)
	if err != nil {
		return Proof{}, guest.PublicValues{}, VerifyingKey{}, fmt.Errorf("%w: %v", ErrExecution, err)
	}
	publicValues := execReport.PublicValues

	if err := p.ensureKeys(); err != nil {
		return Proof{}, guest.PublicValues{}, VerifyingKey{}, err
	}

	assignment := &FibonacciCircuit{
		N: publicValues.N,
		A: publicValues.A,
		B: publicValues.B,
	}
	witness, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField())
	if err != nil {
		return Proof{}, guest.PublicValues{}, VerifyingKey{}, fmt.Errorf("%w: failed to create witness: %v", ErrProving, err)
	}

	proof, err := groth16.Prove(p.cs, p.provingKey, witness)
	if err != nil {
		return Proof{}, guest.PublicValues{}, VerifyingKey{}, fmt.Errorf("%w: %v", ErrProving, err)
	}

	var proofBytes []byte
	switch mode {
	case ModeCore:
		var buf bytes.Buffer
		if _, err := proof.WriteRawTo(&buf); err != nil {
			return Proof{}, guest.PublicValues{}, VerifyingKey{}, fmt.Errorf("%w: failed to serialize proof: %v", ErrProving, err)
		}
		proofBytes = buf.Bytes()
	case ModeCompressed:
		var buf bytes.Buffer
		if _, err := proof.WriteTo(&buf); err != nil {
			return Proof{}, guest.PublicValues{}, VerifyingKey{}, fmt.Errorf("%w: failed to serialize proof: %v", ErrProving, err)
		}
		proofBytes = buf.Bytes()
	case ModePlonk:
		// The inner proof above is the compressed-class proof the wrap
		// builds on; re-check it before spending time on the wrap.
		publicWitness, err := witness.Public()
		if err != nil {
			return Proof{}, guest.PublicValues{}, VerifyingKey{}, fmt.Errorf("%w: failed to get public witness: %v", ErrProving, err)
		}
		if err := groth16.Verify(proof, p.verifyingKey, publicWitness); err != nil {
			return Proof{}, guest.PublicValues{}, VerifyingKey{}, fmt.Errorf("%w: inner proof rejected: %v", ErrProving, err)
		}
		proofBytes, err = p.wrapPlonk(assignment)
		if err != nil {
			return Proof{}, guest.PublicValues{}, VerifyingKey{}, err
		}
	default:
		return Proof{}, guest.PublicValues{}, VerifyingKey{}, fmt.Errorf("%w: unsupported mode %q", ErrProving, mode)
	}

	return Proof{Mode: mode, Bytes: proofBytes}, publicValues, p.vkDigest, nil
}

// Verify independently re-checks a proof. It is deterministic and
// side-effect-free: a false result means the proof does not verify for
// the given public values under the declared mode.
func (p *Prover) Verify(proof Proof, publicValues guest.PublicValues, vk VerifyingKey) (bool, error) {
	if err := p.ensureKeys(); err != nil {
		return false, err
	}
	if vk != p.vkDigest {
		// Proof for a different guest build.
		return false, nil
	}

	assignment := &FibonacciCircuit{
		N: publicValues.N,
		A: publicValues.A,
		B: publicValues.B,
	}
	publicWitness, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return false, fmt.Errorf("failed to create public witness: %v", err)
	}

	switch proof.Mode {
	case ModeCore, ModeCompressed:
		groth16Proof := groth16.NewProof(ecc.BN254)
		if _, err := groth16Proof.ReadFrom(bytes.NewReader(proof.Bytes)); err != nil {
			return false, nil
		}
		if err := groth16.Verify(groth16Proof, p.verifyingKey, publicWitness); err != nil {
			return false, nil
		}
	case ModePlonk:
		if p.plonkVerifyingKey == nil {
			return false, fmt.Errorf("plonk verifying key not available: no plonk proof was produced in this invocation")
		}
		plonkProof := plonk.NewProof(ecc.BN254)
		if _, err := plonkProof.ReadFrom(bytes.NewReader(proof.Bytes)); err != nil {
			return false, nil
		}
		if err := plonk.Verify(plonkProof, p.plonkVerifyingKey, publicWitness); err != nil {
			return false, nil
		}
	default:
		return false, fmt.Errorf("unsupported proof mode %q", proof.Mode)
	}

	return true, nil
}

// ensureKeys compiles the circuit and generates the groth16 keys on first
// use, and derives the guest's verifying key digest.
func (p *Prover) ensureKeys() error {
	if p.cs != nil {
		return nil
	}

	var circuit FibonacciCircuit
	cs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, &circuit)
	if err != nil {
		return fmt.Errorf("%w: failed to compile circuit: %v", ErrProving, err)
	}

	pk, vk, err := groth16.Setup(cs)
	if err != nil {
		return fmt.Errorf("%w: failed to setup keys: %v", ErrProving, err)
	}

	var buf bytes.Buffer
	if _, err := vk.WriteTo(&buf); err != nil {
		return fmt.Errorf("%w: failed to serialize verifying key: %v", ErrProving, err)
	}

	p.cs = cs
	p.provingKey = pk
	p.verifyingKey = vk
	copy(p.vkDigest[:], ethcrypto.Keccak256(buf.Bytes()))

	log.Debug().Str("vkey", p.vkDigest.Hex()).Msg("Guest circuit compiled")
	return nil
}

// wrapPlonk folds the assignment into a constant-size BN254 PLONK proof
// and re-checks it before handing it back.
func (p *Prover) wrapPlonk(assignment *FibonacciCircuit) ([]byte, error) {
	if err := p.setupPlonk(); err != nil {
		return nil, err
	}

	witness, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField())
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create witness: %v", ErrWrapping, err)
	}
	publicWitness, err := witness.Public()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get public witness: %v", ErrWrapping, err)
	}

	proof, err := plonk.Prove(p.plonkCS, p.plonkProvingKey, witness)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWrapping, err)
	}
	if err := plonk.Verify(proof, p.plonkVerifyingKey, publicWitness); err != nil {
		return nil, fmt.Errorf("%w: wrapped proof rejected: %v", ErrWrapping, err)
	}

	var buf bytes.Buffer
	if _, err := proof.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("%w: failed to serialize proof: %v", ErrWrapping, err)
	}
	return buf.Bytes(), nil
}

// setupPlonk builds the plonk constraint system and keys on first use.
// The RAM precheck runs before any compilation work.
func (p *Prover) setupPlonk() error {
	if p.plonkCS != nil {
		return nil
	}

	if !p.config.DevMode {
		totalGB, err := report.TotalRAMGB()
		if err != nil {
			log.Warn().Err(err).Msg("Could not determine total memory, skipping plonk RAM precheck")
		} else if totalGB < p.config.MinPlonkRAMGB {
			return fmt.Errorf("%w: plonk wrap requires at least %dGB of memory, have %dGB",
				ErrResourceExhausted, p.config.MinPlonkRAMGB, totalGB)
		}
	}

	var circuit FibonacciCircuit
	cs, err := frontend.Compile(ecc.BN254.ScalarField(), scs.NewBuilder, &circuit)
	if err != nil {
		return fmt.Errorf("%w: failed to compile circuit: %v", ErrWrapping, err)
	}

	canonical, lagrange, err := p.loadSRS(cs)
	if err != nil {
		return err
	}

	pk, vk, err := plonk.Setup(cs, canonical, lagrange)
	if err != nil {
		return fmt.Errorf("%w: failed to setup keys: %v", ErrWrapping, err)
	}

	p.plonkCS = cs
	p.plonkProvingKey = pk
	p.plonkVerifyingKey = vk
	return nil
}

// loadSRS returns the KZG structured reference strings for the plonk
// setup. In development mode an in-memory unsafe SRS is generated; in
// production the ceremony SRS is read from disk.
func (p *Prover) loadSRS(cs constraint.ConstraintSystem) (kzg.SRS, kzg.SRS, error) {
	if p.config.DevMode {
		log.Warn().Msg("Development mode: using unsafe in-memory KZG setup, proofs are not sound for production")
		canonical, lagrange, err := unsafekzg.NewSRS(cs)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: failed to generate test SRS: %v", ErrWrapping, err)
		}
		return canonical, lagrange, nil
	}

	canonical, err := readSRSFile(p.config.SRSFile)
	if err != nil {
		return nil, nil, err
	}
	lagrange, err := readSRSFile(p.config.SRSLagrangeFile)
	if err != nil {
		return nil, nil, err
	}
	return canonical, lagrange, nil
}

func readSRSFile(path string) (kzg.SRS, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open SRS file %s: %v", ErrWrapping, path, err)
	}
	defer f.Close()

	srs := kzg.NewSRS(ecc.BN254)
	if _, err := srs.ReadFrom(f); err != nil {
		return nil, fmt.Errorf("%w: failed to read SRS file %s: %v", ErrWrapping, path, err)
	}
	return srs, nil
}
