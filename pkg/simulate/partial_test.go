package simulate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/MoleSir/reda/pkg/analysis"
	"github.com/MoleSir/reda/pkg/probe"
	"github.com/MoleSir/reda/pkg/unit"
)

// A run cut short still hands back everything produced before the stop.

func TestEmbeddedHaltedRunKeepsPartialResult(t *testing.T) {
	backend := NewEmbedded()
	defer backend.Close()

	require.NoError(t, backend.Load("t\nV1 a 0 DC 1\nR1 a 0 1k\n.end\n"))

	// Far too many steps to finish; the halt lands mid-run.
	cmd, err := analysis.NewTran(unit.Sec(1e-9), unit.Sec(100))
	require.NoError(t, err)

	type outcome struct {
		res *probe.Result
		err error
	}
	got := make(chan outcome, 1)
	go func() {
		res, err := backend.Run(context.Background(), cmd)
		got <- outcome{res: res, err: err}
	}()

	time.Sleep(100 * time.Millisecond)
	backend.mu.Lock()
	eng := backend.eng
	backend.mu.Unlock()
	eng.Halt()

	out := <-got
	require.Nil(t, out.res)
	var rerr *RunError
	require.ErrorAs(t, out.err, &rerr)
	require.Contains(t, rerr.Message, "halted")

	require.NotNil(t, rerr.Partial)
	require.Greater(t, rerr.Partial.Len(), 0)
	require.Equal(t, "time", rerr.Partial.AxisName())

	vals, err := rerr.Partial.Node("a")
	require.NoError(t, err)
	require.Len(t, vals, rerr.Partial.Len())
	require.InDelta(t, 1.0, vals[0], 1e-9)
}
