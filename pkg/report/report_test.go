package report

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMeasurePassesResultThrough(t *testing.T) {
	require.NoError(t, Measure("noop", func() error { return nil }))

	wantErr := errors.New("stage failed")
	require.ErrorIs(t, Measure("failing", func() error { return wantErr }), wantErr)
}

func TestMeasureRunsFnExactlyOnce(t *testing.T) {
	calls := 0
	require.NoError(t, Measure("counted", func() error {
		calls++
		return nil
	}))
	require.Equal(t, 1, calls)
}

func TestTotalRAMGB(t *testing.T) {
	total, err := TotalRAMGB()
	if err != nil {
		t.Skipf("memory sampling unavailable on this host: %v", err)
	}
	require.NotZero(t, total)
}
