package guest

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

const (
	// InputWidth is the byte width of the guest's stdin encoding: a single
	// u32 iteration count, little-endian.
	InputWidth = 4

	// MaxN is the guest's supported iteration bound. The proving circuit
	// unrolls the Fibonacci loop to exactly this many rounds, so inputs
	// beyond it cannot be proven and are rejected up front.
	MaxN = 1024
)

// Notional cycle accounting for the execute-only path. The guest runtime
// charges a fixed setup/commit cost plus a per-iteration cost.
const (
	baseCycles     = 74
	cyclesPerRound = 12
)

// ErrInvalidInput is returned when a requested input cannot be represented
// in the guest's input contract.
var ErrInvalidInput = errors.New("invalid guest input")

// PublicValues is the guest's committed public output: the iteration count
// and the two resulting Fibonacci values.
type PublicValues struct {
	N uint32
	A uint32
	B uint32
}

// ExecutionReport is the result of running the guest without proving.
type ExecutionReport struct {
	PublicValues PublicValues
	Cycles       uint64
}

// BuildInput serializes n into the guest's canonical stdin layout.
// The encoding is byte-stable: identical n always yields identical bytes.
func BuildInput(n uint64) ([]byte, error) {
	if n > math.MaxUint32 {
		return nil, fmt.Errorf("%w: n=%d does not fit the guest's u32 input width", ErrInvalidInput, n)
	}
	if n > MaxN {
		return nil, fmt.Errorf("%w: n=%d exceeds the guest iteration bound %d", ErrInvalidInput, n, MaxN)
	}
	buf := make([]byte, InputWidth)
	binary.LittleEndian.PutUint32(buf, uint32(n))
	return buf, nil
}

// ParseInput decodes a canonical guest input back into the iteration count.
func ParseInput(input []byte) (uint32, error) {
	if len(input) != InputWidth {
		return 0, fmt.Errorf("%w: expected %d input bytes, got %d", ErrInvalidInput, InputWidth, len(input))
	}
	n := binary.LittleEndian.Uint32(input)
	if n > MaxN {
		return 0, fmt.Errorf("%w: n=%d exceeds the guest iteration bound %d", ErrInvalidInput, n, MaxN)
	}
	return n, nil
}

// Run executes the guest natively: n Fibonacci steps from the seed (0, 1)
// with wrapping u32 arithmetic, matching the in-circuit semantics.
func Run(input []byte) (ExecutionReport, error) {
	n, err := ParseInput(input)
	if err != nil {
		return ExecutionReport{}, err
	}

	var a, b uint32 = 0, 1
	for i := uint32(0); i < n; i++ {
		a, b = b, a+b
	}

	return ExecutionReport{
		PublicValues: PublicValues{N: n, A: a, B: b},
		Cycles:       baseCycles + uint64(n)*cyclesPerRound,
	}, nil
}
