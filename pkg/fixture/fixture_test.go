package fixture

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/require"

	"fibprove/pkg/crypto"
	"fibprove/pkg/guest"
)

func TestPublicValuesRoundTrip(t *testing.T) {
	cases := []guest.PublicValues{
		{N: 0, A: 0, B: 1},
		{N: 1, A: 1, B: 1},
		{N: 10, A: 55, B: 89},
		{N: 47, A: 2971215073, B: 512559680},
	}

	for _, publicValues := range cases {
		encoded, err := EncodePublicValues(publicValues)
		require.NoError(t, err)
		require.Len(t, encoded, 96, "three head-encoded 32-byte words")

		decoded, err := DecodePublicValues(encoded)
		require.NoError(t, err)
		require.Equal(t, publicValues, decoded)
	}
}

func TestDecodePublicValuesRejectsBadShape(t *testing.T) {
	_, err := DecodePublicValues([]byte{1, 2, 3})
	require.ErrorIs(t, err, ErrEncoding)

	_, err = DecodePublicValues(make([]byte, 64))
	require.ErrorIs(t, err, ErrEncoding)
}

func TestNewFixtureHexRoundTrip(t *testing.T) {
	publicValues := guest.PublicValues{N: 10, A: 55, B: 89}
	proof := crypto.Proof{Mode: crypto.ModeCore, Bytes: []byte{0xde, 0xad, 0xbe, 0xef}}
	var vk crypto.VerifyingKey
	vk[0] = 0xab
	vk[31] = 0xcd

	fx, err := New(proof, publicValues, vk, false)
	require.NoError(t, err)
	require.Equal(t, Version, fx.Version)
	require.Equal(t, "core", fx.Mode)
	require.False(t, fx.DevMode)

	proofBytes, err := hexutil.Decode(fx.Proof)
	require.NoError(t, err)
	require.Equal(t, proof.Bytes, proofBytes)

	vkBytes, err := hexutil.Decode(fx.Vkey)
	require.NoError(t, err)
	require.Equal(t, vk[:], vkBytes)

	encodedValues, err := hexutil.Decode(fx.PublicValues)
	require.NoError(t, err)
	decoded, err := DecodePublicValues(encodedValues)
	require.NoError(t, err)
	require.Equal(t, publicValues, decoded)
}

func TestNewFixtureRejectsEmptyProof(t *testing.T) {
	_, err := New(crypto.Proof{Mode: crypto.ModeCore}, guest.PublicValues{}, crypto.VerifyingKey{}, false)
	require.ErrorIs(t, err, ErrEncoding)
}

func TestWriteAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixtures", "fib.json")
	fx := &Fixture{
		Version:      Version,
		Mode:         "core",
		Vkey:         "0x01",
		PublicValues: "0x02",
		Proof:        "0x03",
		DevMode:      true,
	}

	require.NoError(t, Write(fx, path))

	got, err := Read(path)
	require.NoError(t, err)
	require.Equal(t, fx, got)
}

func TestWriteCrashBeforeRenameLeavesDestinationUntouched(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fib.json")

	previous := &Fixture{Version: Version, Mode: "core", Vkey: "0xaa", PublicValues: "0xbb", Proof: "0xcc"}
	require.NoError(t, Write(previous, path))

	// Simulate a crash between the temp write and the rename.
	renameFile = func(oldpath, newpath string) error {
		return errors.New("simulated crash")
	}
	defer func() { renameFile = os.Rename }()

	next := &Fixture{Version: Version, Mode: "plonk", Vkey: "0x11", PublicValues: "0x22", Proof: "0x33"}
	err := Write(next, path)
	require.ErrorIs(t, err, ErrIO)

	// The destination still holds the previous valid content.
	got, err := Read(path)
	require.NoError(t, err)
	require.Equal(t, previous, got)

	// No stray temp files left behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestWriteToMissingParentCreatesIt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "fib.json")
	fx := &Fixture{Version: Version, Mode: "compressed", Vkey: "0x01", PublicValues: "0x02", Proof: "0x03"}

	require.NoError(t, Write(fx, path))
	_, err := os.Stat(path)
	require.NoError(t, err)
}
