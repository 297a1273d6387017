package engine

import (
	"fmt"

	"github.com/edp1096/sparse"
)

// matrix wraps the sparse MNA system: node equations 1..n followed by
// branch equations, all 1-based. Index 0 is ground and is never stamped.
type matrix struct {
	size     int
	m        *sparse.Matrix
	rhs      []float64
	solution []float64
}

func newMatrix(size int) (*matrix, error) {
	// Translate must stay on: after the first Factor reorders the
	// matrix, element lookups for the next restamp go through the
	// external-to-internal index translation.
	config := &sparse.Configuration{
		Real:           true,
		Expandable:     true,
		Translate:      true,
		ModifiedNodal:  true,
		TiesMultiplier: 5,
		PrinterWidth:   140,
	}

	m, err := sparse.Create(int64(size), config)
	if err != nil {
		return nil, fmt.Errorf("creating sparse matrix: %w", err)
	}

	return &matrix{
		size:     size,
		m:        m,
		rhs:      make([]float64, size+1), // 1-based
		solution: make([]float64, size+1),
	}, nil
}

// prime touches every element once so the sparse structure is allocated
// before the solve loop starts clearing and restamping.
func (m *matrix) prime() {
	for i := 1; i <= m.size; i++ {
		for j := 1; j <= m.size; j++ {
			m.m.GetElement(int64(i), int64(j))
		}
	}
}

func (m *matrix) addElement(i, j int, value float64) {
	if i <= 0 || j <= 0 {
		return // ground row/column
	}
	m.m.GetElement(int64(i), int64(j)).Real += value
}

func (m *matrix) addRHS(i int, value float64) {
	if i <= 0 {
		return
	}
	m.rhs[i] += value
}

func (m *matrix) loadGmin(gmin float64) {
	for i := 1; i <= m.size; i++ {
		if diag := m.m.Diags[i]; diag != nil {
			diag.Real += gmin
		}
	}
}

func (m *matrix) clear() {
	m.m.Clear()
	for i := range m.rhs {
		m.rhs[i] = 0
	}
}

func (m *matrix) solve() error {
	if err := m.m.Factor(); err != nil {
		return fmt.Errorf("matrix factorization failed: %w", err)
	}
	solution, err := m.m.Solve(m.rhs)
	if err != nil {
		return fmt.Errorf("matrix solve failed: %w", err)
	}
	m.solution = solution
	return nil
}

func (m *matrix) destroy() {
	m.m.Destroy()
}
