// Package simulate drives a SPICE engine with a rendered netlist and an
// analysis command, and decodes the raw output vectors into a typed
// probe.Result. Two interchangeable backends implement the contract: an
// in-process Embedded engine and a Server speaking the framed protocol
// to a reda-spice-server process or address.
package simulate

import (
	"context"

	"github.com/MoleSir/reda/pkg/analysis"
	"github.com/MoleSir/reda/pkg/probe"
	"github.com/MoleSir/reda/pkg/unit"
)

// Backend is one simulator attachment. Load may be called again to
// replace the circuit; Run is strictly sequential per backend.
type Backend interface {
	Load(netlist string) error
	Run(ctx context.Context, cmd analysis.Command) (*probe.Result, error)
	Close() error
}

// rawVector is one undecoded engine vector, in production order.
type rawVector struct {
	name   string
	values []float64
}

// assemble applies the decode convention: the first vector is the
// independent axis, the rest are samples named V(..)/I(..).
func assemble(vecs []rawVector) (*probe.Result, error) {
	if len(vecs) == 0 {
		return nil, ErrNoData
	}
	axis := vecs[0]
	res := probe.NewResult(axis.name, axisDim(axis.name), axis.values)
	for _, v := range vecs[1:] {
		if err := res.Add(v.name, v.values); err != nil {
			return nil, &RunError{Message: err.Error()}
		}
	}
	return res, nil
}

// axisDim maps an axis name to its dimension. A DC sweep axis carries
// the swept source's magnitude and stays dimensionless, as does the
// trivial operating-point index.
func axisDim(name string) unit.Dimension {
	if name == "time" {
		return unit.Time
	}
	return unit.Dimensionless
}
