package draw_test

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MoleSir/reda/pkg/probe"
	"github.com/MoleSir/reda/pkg/probe/draw"
	"github.com/MoleSir/reda/pkg/unit"
)

func sineResult(t *testing.T) *probe.Result {
	t.Helper()
	n := 200
	axis := make([]float64, n)
	in := make([]float64, n)
	out := make([]float64, n)
	cur := make([]float64, n)
	for i := range axis {
		axis[i] = float64(i) * 1e-4
		in[i] = math.Sin(2 * math.Pi * 100 * axis[i])
		out[i] = 0.25 * in[i]
		cur[i] = in[i] / 4000
	}
	res := probe.NewResult("time", unit.Time, axis)
	require.NoError(t, res.Add("V(in)", in))
	require.NoError(t, res.Add("V(out)", out))
	require.NoError(t, res.Add("I(V1)", cur))
	return res
}

func TestDrawWritesImage(t *testing.T) {
	res := sineResult(t)
	path := filepath.Join(t.TempDir(), "sine.png")

	err := draw.New(draw.WithTitle("divider")).Draw(res, []string{"V(in)", "V(out)"}, path)
	require.NoError(t, err)
	require.FileExists(t, path)
}

func TestDrawNodesSkipsCurrents(t *testing.T) {
	res := sineResult(t)
	path := filepath.Join(t.TempDir(), "nodes.svg")

	require.NoError(t, draw.New().DrawNodes(res, path))
	require.FileExists(t, path)
}

func TestDrawUnknownVector(t *testing.T) {
	res := sineResult(t)
	path := filepath.Join(t.TempDir(), "missing.png")

	err := draw.New().Draw(res, []string{"V(nope)"}, path)
	require.ErrorIs(t, err, probe.ErrNoVector)
}
