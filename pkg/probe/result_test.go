package probe_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MoleSir/reda/pkg/probe"
	"github.com/MoleSir/reda/pkg/unit"
)

func newTranResult(t *testing.T) *probe.Result {
	t.Helper()
	res := probe.NewResult("time", unit.Time, []float64{0, 1e-3, 2e-3, 3e-3})
	require.NoError(t, res.Add("V(out)", []float64{0, 1, 2, 3}))
	require.NoError(t, res.Add("I(V1)", []float64{0, -1e-3, -2e-3, -3e-3}))
	return res
}

func TestAddLengthMismatch(t *testing.T) {
	res := probe.NewResult("time", unit.Time, []float64{0, 1, 2})
	err := res.Add("V(out)", []float64{0, 1})
	require.ErrorIs(t, err, probe.ErrLengthMismatch)
}

func TestDimOf(t *testing.T) {
	require.Equal(t, unit.Voltage, probe.DimOf("V(out)"))
	require.Equal(t, unit.Voltage, probe.DimOf("v(out)"))
	require.Equal(t, unit.Current, probe.DimOf("I(V1)"))
	require.Equal(t, unit.Current, probe.DimOf("v1#branch"))
	require.Equal(t, unit.Dimensionless, probe.DimOf("time"))
}

func TestVectorsOrdered(t *testing.T) {
	res := newTranResult(t)
	vecs := res.Vectors()
	require.Len(t, vecs, 2)
	require.Equal(t, "V(out)", vecs[0].Name)
	require.Equal(t, "I(V1)", vecs[1].Name)
	require.Equal(t, unit.Voltage, vecs[0].Dim)
	require.Equal(t, unit.Current, vecs[1].Dim)
}

func TestNodeAndBranchAccessors(t *testing.T) {
	res := newTranResult(t)

	out, err := res.Node("out")
	require.NoError(t, err)
	require.Equal(t, []float64{0, 1, 2, 3}, out)

	i, err := res.Branch("V1")
	require.NoError(t, err)
	require.Equal(t, -3e-3, i[3])

	_, err = res.Node("missing")
	require.ErrorIs(t, err, probe.ErrNoVector)
}

func TestVoltageAtInterpolates(t *testing.T) {
	res := newTranResult(t)

	// On a sample.
	v, err := res.VoltageAt("out", unit.Sec(1e-3))
	require.NoError(t, err)
	require.Equal(t, unit.Voltage, v.Dim())
	require.InDelta(t, 1.0, v.Value(), 1e-12)

	// Halfway between samples.
	v, err = res.VoltageAt("out", unit.Sec(1.5e-3))
	require.NoError(t, err)
	require.InDelta(t, 1.5, v.Value(), 1e-12)
}

func TestCurrentAtInterpolates(t *testing.T) {
	res := newTranResult(t)
	i, err := res.CurrentAt("V1", unit.Sec(2.5e-3))
	require.NoError(t, err)
	require.Equal(t, unit.Current, i.Dim())
	require.InDelta(t, -2.5e-3, i.Value(), 1e-12)
}

func TestInterpolateOutOfRange(t *testing.T) {
	res := newTranResult(t)
	_, err := res.VoltageAt("out", unit.Sec(5e-3))
	require.ErrorIs(t, err, probe.ErrOutOfRange)

	_, err = res.VoltageAt("out", unit.Sec(-1e-3))
	require.ErrorIs(t, err, probe.ErrOutOfRange)
}

func TestInterpolateDimensionChecked(t *testing.T) {
	res := newTranResult(t)
	_, err := res.VoltageAt("out", unit.V(1))
	require.ErrorIs(t, err, unit.ErrDimensionMismatch)
}
