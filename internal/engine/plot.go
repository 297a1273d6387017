package engine

// Plot is the opaque result handle passed to the data-ready callback.
// Consumers copy it out vector by vector; the first vector is the
// independent axis ("time" for transient, "sweep" for DC, a trivial
// "index" for the operating point).
type Plot struct {
	name    string
	order   []string
	vectors map[string][]float64
}

func newPlot(name string) *Plot {
	return &Plot{name: name, vectors: make(map[string][]float64)}
}

func (p *Plot) add(name string, values []float64) {
	p.order = append(p.order, name)
	p.vectors[name] = values
}

func (p *Plot) Name() string { return p.name }

// VectorNames lists the vectors in production order, axis first.
func (p *Plot) VectorNames() []string {
	out := make([]string, len(p.order))
	copy(out, p.order)
	return out
}

// Vector copies out one vector's samples.
func (p *Plot) Vector(name string) ([]float64, bool) {
	v, ok := p.vectors[name]
	if !ok {
		return nil, false
	}
	out := make([]float64, len(v))
	copy(out, v)
	return out, true
}

// Points reports the sample count of the plot's axis.
func (p *Plot) Points() int {
	if len(p.order) == 0 {
		return 0
	}
	return len(p.vectors[p.order[0]])
}
