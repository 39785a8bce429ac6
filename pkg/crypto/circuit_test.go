package crypto

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend"
	"github.com/consensys/gnark/test"
)

func TestCircuitConstraints(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping circuit check in short mode")
	}

	assert := test.NewAssert(t)
	assert.CheckCircuit(&FibonacciCircuit{},
		test.WithCurves(ecc.BN254),
		test.WithBackends(backend.GROTH16),
		test.WithValidAssignment(&FibonacciCircuit{N: 0, A: 0, B: 1}),
		test.WithValidAssignment(&FibonacciCircuit{N: 10, A: 55, B: 89}),
		// fib(48) wraps around u32.
		test.WithValidAssignment(&FibonacciCircuit{N: 47, A: 2971215073, B: 512559680}),
		test.WithInvalidAssignment(&FibonacciCircuit{N: 10, A: 56, B: 89}),
		test.WithInvalidAssignment(&FibonacciCircuit{N: 10, A: 55, B: 90}),
		// unwrapped fib(48)
		test.WithInvalidAssignment(&FibonacciCircuit{N: 47, A: 2971215073, B: 4807526976}),
	)
}
