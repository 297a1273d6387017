package simulate_test

import (
	"context"
	"math"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/MoleSir/reda/internal/engine"
	"github.com/MoleSir/reda/internal/wire"
	"github.com/MoleSir/reda/pkg/analysis"
	"github.com/MoleSir/reda/pkg/circuit"
	"github.com/MoleSir/reda/pkg/probe"
	"github.com/MoleSir/reda/pkg/simulate"
	"github.com/MoleSir/reda/pkg/unit"
)

// sineDivider is the reference scenario: a 1V 100Hz source over a 3k/1k
// divider, so V(out) swings at a quarter of V(in).
func sineDivider(t *testing.T) *circuit.Circuit {
	t.Helper()
	ckt := circuit.New("sine divider")
	require.NoError(t, ckt.AddVoltageSine("1", "in", "0",
		circuit.NewSine(unit.V(1), unit.Hz(100))))
	require.NoError(t, ckt.AddResistor("1", "in", "out", unit.Ohm(3000)))
	require.NoError(t, ckt.AddResistor("2", "out", "0", unit.Ohm(1000)))
	return ckt
}

func checkDividerResult(t *testing.T, res *probe.Result) {
	t.Helper()
	require.Equal(t, "time", res.AxisName())
	require.Equal(t, unit.Time, res.AxisDim())
	require.Equal(t, 20001, res.Len())

	axis := res.Axis()
	in, err := res.Node("in")
	require.NoError(t, err)
	out, err := res.Node("out")
	require.NoError(t, err)

	var inMax, outMax float64
	for i := range axis {
		inMax = math.Max(inMax, math.Abs(in[i]))
		outMax = math.Max(outMax, math.Abs(out[i]))
		require.InDelta(t, 0.25*in[i], out[i], 1e-9)
	}
	require.InDelta(t, 1.0, inMax, 1e-6)
	require.InDelta(t, 0.25, outMax, 1e-6)

	// Typed interpolating lookup at a crest, t = 2.5ms.
	v, err := res.VoltageAt("out", unit.Sec(2.5e-3))
	require.NoError(t, err)
	require.Equal(t, unit.Voltage, v.Dim())
	require.InDelta(t, 0.25, v.Value(), 1e-6)
}

func tranCommand(t *testing.T) analysis.Tran {
	t.Helper()
	tr, err := analysis.NewTran(unit.Sec(1e-6), unit.Sec(20e-3))
	require.NoError(t, err)
	return tr
}

func TestEmbeddedEndToEnd(t *testing.T) {
	backend := simulate.NewEmbedded()
	defer backend.Close()

	require.NoError(t, backend.Load(sineDivider(t).Netlist()))
	res, err := backend.Run(context.Background(), tranCommand(t))
	require.NoError(t, err)
	checkDividerResult(t, res)
}

func TestEmbeddedRunBeforeLoad(t *testing.T) {
	backend := simulate.NewEmbedded()
	defer backend.Close()

	_, err := backend.Run(context.Background(), analysis.Op{})
	require.ErrorIs(t, err, simulate.ErrNotLoaded)
}

func TestEmbeddedNetlistRejected(t *testing.T) {
	backend := simulate.NewEmbedded()
	defer backend.Close()

	err := backend.Load("broken\nR1 a 0 1k\n")
	var nerr *simulate.NetlistError
	require.ErrorAs(t, err, &nerr)
	require.Contains(t, nerr.Message, ".end")
}

func TestEmbeddedReload(t *testing.T) {
	backend := simulate.NewEmbedded()
	defer backend.Close()

	require.NoError(t, backend.Load(sineDivider(t).Netlist()))

	ckt := circuit.New("plain divider")
	require.NoError(t, ckt.AddVoltageDC("1", "in", "0", unit.V(2)))
	require.NoError(t, ckt.AddResistor("1", "in", "out", unit.Ohm(1000)))
	require.NoError(t, ckt.AddResistor("2", "out", "0", unit.Ohm(1000)))
	require.NoError(t, backend.Load(ckt.Netlist()))

	res, err := backend.Run(context.Background(), analysis.Op{})
	require.NoError(t, err)
	out, err := res.Node("out")
	require.NoError(t, err)
	require.InDelta(t, 1.0, out[0], 1e-9)
}

func TestEmbeddedRunError(t *testing.T) {
	backend := simulate.NewEmbedded()
	defer backend.Close()

	require.NoError(t, backend.Load(sineDivider(t).Netlist()))

	dc, err := analysis.NewDC("V9", unit.V(0), unit.V(1), unit.V(0.1))
	require.NoError(t, err)
	_, err = backend.Run(context.Background(), dc)

	var rerr *simulate.RunError
	require.ErrorAs(t, err, &rerr)
	require.Contains(t, rerr.Message, "V9")
}

func TestEmbeddedTimeout(t *testing.T) {
	backend := simulate.NewEmbedded()
	defer backend.Close()

	require.NoError(t, backend.Load(sineDivider(t).Netlist()))

	long, err := analysis.NewTran(unit.Sec(1e-9), unit.Sec(100))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err = backend.Run(ctx, long)
	require.ErrorIs(t, err, simulate.ErrTimeout)
	require.Less(t, time.Since(start), 10*time.Second)
}

func TestEmbeddedClosed(t *testing.T) {
	backend := simulate.NewEmbedded()
	require.NoError(t, backend.Close())

	require.ErrorIs(t, backend.Load("x\n.end\n"), simulate.ErrEngineUnavailable)
	_, err := backend.Run(context.Background(), analysis.Op{})
	require.ErrorIs(t, err, simulate.ErrEngineUnavailable)
}

func newPipeServer(t *testing.T) *simulate.Server {
	t.Helper()
	client, server := net.Pipe()
	go wire.Serve(server, engine.New())
	backend := simulate.NewServerConn(client)
	t.Cleanup(func() { backend.Close() })
	return backend
}

func TestServerEndToEnd(t *testing.T) {
	backend := newPipeServer(t)

	require.NoError(t, backend.Load(sineDivider(t).Netlist()))
	res, err := backend.Run(context.Background(), tranCommand(t))
	require.NoError(t, err)
	checkDividerResult(t, res)

	// Connection is reused for further runs.
	res, err = backend.Run(context.Background(), analysis.Op{})
	require.NoError(t, err)
	require.Equal(t, 1, res.Len())
}

func TestServerRunBeforeLoad(t *testing.T) {
	backend := newPipeServer(t)
	_, err := backend.Run(context.Background(), analysis.Op{})
	require.ErrorIs(t, err, simulate.ErrNotLoaded)
}

func TestServerNetlistRejected(t *testing.T) {
	backend := newPipeServer(t)

	err := backend.Load("broken\nR1 a 0 1k\n")
	var nerr *simulate.NetlistError
	require.ErrorAs(t, err, &nerr)
	require.Contains(t, nerr.Message, ".end")

	// The session survives a rejected load.
	require.NoError(t, backend.Load(sineDivider(t).Netlist()))
}

func TestServerRunError(t *testing.T) {
	backend := newPipeServer(t)
	require.NoError(t, backend.Load(sineDivider(t).Netlist()))

	dc, err := analysis.NewDC("V9", unit.V(0), unit.V(1), unit.V(0.1))
	require.NoError(t, err)
	_, err = backend.Run(context.Background(), dc)

	var rerr *simulate.RunError
	require.ErrorAs(t, err, &rerr)
	require.Contains(t, rerr.Message, "V9")
}

func TestServerPeerGone(t *testing.T) {
	client, server := net.Pipe()
	server.Close()
	backend := simulate.NewServerConn(client)
	defer backend.Close()

	err := backend.Load(sineDivider(t).Netlist())
	require.ErrorIs(t, err, simulate.ErrEngineUnavailable)
}

func TestServerTimeout(t *testing.T) {
	backend := newPipeServer(t)
	require.NoError(t, backend.Load(sineDivider(t).Netlist()))

	long, err := analysis.NewTran(unit.Sec(1e-9), unit.Sec(100))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err = backend.Run(ctx, long)
	require.ErrorIs(t, err, simulate.ErrTimeout)

	// The transport was torn down; the backend is unusable afterwards.
	_, err = backend.Run(context.Background(), analysis.Op{})
	require.ErrorIs(t, err, simulate.ErrEngineUnavailable)
}
