// Package fixture encodes proof pipeline results into the versioned JSON
// artifact consumed by off-chain tests and on-chain verifier harnesses.
package fixture

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"fibprove/pkg/crypto"
	"fibprove/pkg/guest"
)

// Version of the on-disk fixture format.
const Version = 1

var (
	// ErrEncoding indicates the public values violate the expected
	// ABI shape.
	ErrEncoding = errors.New("public values encoding failed")
	// ErrIO indicates a fixture persistence error.
	ErrIO = errors.New("fixture write failed")
)

// publicValuesArgs is the ABI layout the on-chain verifier decodes:
// (uint32 n, uint32 a, uint32 b). Field order is an external contract.
var publicValuesArgs = func() abi.Arguments {
	uint32Type, err := abi.NewType("uint32", "", nil)
	if err != nil {
		panic(err)
	}
	return abi.Arguments{
		{Name: "n", Type: uint32Type},
		{Name: "a", Type: uint32Type},
		{Name: "b", Type: uint32Type},
	}
}()

// Fixture is the persisted artifact: the verifying key digest, the
// ABI-encoded public values and the raw proof bytes, all hex-encoded.
type Fixture struct {
	Version      int    `json:"version"`
	Mode         string `json:"mode"`
	Vkey         string `json:"vkey"`
	PublicValues string `json:"publicValues"`
	Proof        string `json:"proof"`
	// DevMode marks fixtures produced with relaxed soundness settings so
	// they can be excluded from production use.
	DevMode bool `json:"devMode,omitempty"`
}

// EncodePublicValues applies the verifier contract's ABI layout to the
// guest's public output.
func EncodePublicValues(publicValues guest.PublicValues) ([]byte, error) {
	encoded, err := publicValuesArgs.Pack(publicValues.N, publicValues.A, publicValues.B)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	return encoded, nil
}

// DecodePublicValues is the inverse of EncodePublicValues.
func DecodePublicValues(encoded []byte) (guest.PublicValues, error) {
	values, err := publicValuesArgs.Unpack(encoded)
	if err != nil {
		return guest.PublicValues{}, fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	if len(values) != 3 {
		return guest.PublicValues{}, fmt.Errorf("%w: expected 3 fields, got %d", ErrEncoding, len(values))
	}
	n, okN := values[0].(uint32)
	a, okA := values[1].(uint32)
	b, okB := values[2].(uint32)
	if !okN || !okA || !okB {
		return guest.PublicValues{}, fmt.Errorf("%w: unexpected field types", ErrEncoding)
	}
	return guest.PublicValues{N: n, A: a, B: b}, nil
}

// New builds a fixture from a verified prove result.
func New(proof crypto.Proof, publicValues guest.PublicValues, vk crypto.VerifyingKey, devMode bool) (*Fixture, error) {
	if len(proof.Bytes) == 0 {
		return nil, fmt.Errorf("%w: empty proof", ErrEncoding)
	}
	encodedValues, err := EncodePublicValues(publicValues)
	if err != nil {
		return nil, err
	}
	return &Fixture{
		Version:      Version,
		Mode:         string(proof.Mode),
		Vkey:         vk.Hex(),
		PublicValues: hexutil.Encode(encodedValues),
		Proof:        hexutil.Encode(proof.Bytes),
		DevMode:      devMode,
	}, nil
}

// renameFile is swapped out in tests to simulate a crash between the
// temp write and the atomic rename.
var renameFile = os.Rename

// Write persists the fixture at path. The file is written to a uniquely
// named temporary location in the destination directory and moved into
// place atomically, so a crash mid-write never leaves a partial fixture
// at the destination.
func Write(fx *Fixture, path string) error {
	data, err := json.MarshalIndent(fx, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}

	tmp, err := os.CreateTemp(dir, ".fixture-*.json")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	if err := renameFile(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	return nil
}

// Read loads a fixture from disk.
func Read(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	var fx Fixture
	if err := json.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	return &fx, nil
}
