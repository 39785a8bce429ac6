package crypto

import (
	"github.com/consensys/gnark/frontend"

	"fibprove/pkg/guest"
)

// FibonacciCircuit proves that (A, B) is the state reached after N
// Fibonacci steps from the seed (0, 1), with wrapping u32 arithmetic.
// The loop is unrolled to guest.MaxN rounds; rounds past N are no-ops.
type FibonacciCircuit struct {
	// Public inputs
	N frontend.Variable `gnark:",public"`
	A frontend.Variable `gnark:",public"`
	B frontend.Variable `gnark:",public"`
}

// Define implements the circuit logic for the Fibonacci guest.
func (c *FibonacciCircuit) Define(api frontend.API) error {
	api.AssertIsLessOrEqual(c.N, guest.MaxN)

	a := frontend.Variable(0)
	b := frontend.Variable(1)
	done := frontend.Variable(0)

	for i := 0; i < guest.MaxN; i++ {
		reached := api.IsZero(api.Sub(c.N, i))
		done = api.Or(done, reached)

		// Wrap the sum to 32 bits to match the guest's u32 arithmetic.
		sum := api.Add(a, b)
		bits := api.ToBinary(sum, 33)
		wrapped := api.FromBinary(bits[:32]...)

		a = api.Select(done, a, b)
		b = api.Select(done, b, wrapped)
	}

	api.AssertIsEqual(a, c.A)
	api.AssertIsEqual(b, c.B)
	return nil
}
