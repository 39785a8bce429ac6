package crypto

import (
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ProofMode selects the proving strategy.
type ProofMode string

const (
	// ModeCore is a single proof with uncompressed point serialization.
	ModeCore ProofMode = "core"
	// ModeCompressed is the same proof with compressed point
	// serialization: more encode work, smaller artifact.
	ModeCompressed ProofMode = "compressed"
	// ModePlonk wraps a compressed-class proof into a constant-size BN254
	// PLONK proof suitable for an EVM verifier.
	ModePlonk ProofMode = "plonk"
)

// Proof is an opaque proof blob tagged with the mode it was produced
// under. Proofs are write-once; the bytes are never mutated after
// creation.
type Proof struct {
	Mode  ProofMode
	Bytes []byte
}

// VerifyingKey is the mode-independent digest identifying the compiled
// guest program: keccak256 of the serialized verifying key.
type VerifyingKey [32]byte

// Hex returns the digest as a 0x-prefixed hex string.
func (vk VerifyingKey) Hex() string {
	return hexutil.Encode(vk[:])
}
