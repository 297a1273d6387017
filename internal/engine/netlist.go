package engine

import (
	"fmt"
	"strings"

	"github.com/MoleSir/reda/pkg/unit"
)

// circuitState is a loaded circuit: devices in netlist order with node and
// branch indices resolved. Nodes are numbered 1..n in first-reference
// order (ground is 0); branch rows for voltage sources and inductors
// follow the node rows.
type circuitState struct {
	title     string
	devices   []device
	nodeOrder []string // non-ground nodes, first-reference order
	nodeMap   map[string]int
	branches  []string // device names owning branch rows, in order
	size      int
}

// readNetlist builds a circuitState from canonical SPICE text: title line,
// one element per line, ".end" terminator. Error text is reported verbatim
// to the caller as the engine's netlist rejection message.
func readNetlist(text string) (*circuitState, error) {
	lines := strings.Split(text, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
		return nil, fmt.Errorf("netlist is missing a title line")
	}

	ckt := &circuitState{
		title:   strings.TrimSpace(strings.TrimPrefix(lines[0], "*")),
		nodeMap: map[string]int{"0": 0},
	}

	ended := false
	for lineNo, raw := range lines[1:] {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "*") {
			continue
		}
		if ended {
			return nil, fmt.Errorf("line %d: statement after .end", lineNo+2)
		}
		if strings.HasPrefix(line, ".") {
			if strings.EqualFold(line, ".end") {
				ended = true
				continue
			}
			return nil, fmt.Errorf("line %d: unsupported control statement %q", lineNo+2, line)
		}

		dev, err := ckt.parseElement(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo+2, err)
		}
		ckt.devices = append(ckt.devices, dev)
	}
	if !ended {
		return nil, fmt.Errorf("netlist is missing the .end terminator")
	}
	if len(ckt.devices) == 0 {
		return nil, fmt.Errorf("netlist has no elements")
	}

	ckt.assignBranches()
	return ckt, nil
}

// node resolves a node name to its index, allocating on first reference.
func (c *circuitState) node(name string) int {
	if name == "gnd" || name == "GND" {
		name = "0"
	}
	if idx, ok := c.nodeMap[name]; ok {
		return idx
	}
	idx := len(c.nodeOrder) + 1
	c.nodeMap[name] = idx
	c.nodeOrder = append(c.nodeOrder, name)
	return idx
}

func (c *circuitState) assignBranches() {
	b := len(c.nodeOrder) + 1
	for _, dev := range c.devices {
		if bd, ok := dev.(branchDevice); ok {
			bd.setBranch(b)
			c.branches = append(c.branches, dev.name())
			b++
		}
	}
	c.size = len(c.nodeOrder) + len(c.branches)
}

func (c *circuitState) parseElement(line string) (device, error) {
	fields := strings.Fields(line)
	if len(fields) < 4 {
		return nil, fmt.Errorf("incomplete element %q", line)
	}

	name := fields[0]
	kind := strings.ToUpper(name[:1])
	n1 := c.node(fields[1])
	n2 := c.node(fields[2])

	switch kind {
	case "R":
		v, err := parseValue(fields[3])
		if err != nil {
			return nil, fmt.Errorf("resistor %s: %w", name, err)
		}
		if v == 0 {
			return nil, fmt.Errorf("resistor %s: zero resistance", name)
		}
		return &resistor{devName: name, n1: n1, n2: n2, ohms: v}, nil

	case "C":
		v, err := parseValue(fields[3])
		if err != nil {
			return nil, fmt.Errorf("capacitor %s: %w", name, err)
		}
		return &capacitor{devName: name, n1: n1, n2: n2, farads: v}, nil

	case "L":
		v, err := parseValue(fields[3])
		if err != nil {
			return nil, fmt.Errorf("inductor %s: %w", name, err)
		}
		if v == 0 {
			return nil, fmt.Errorf("inductor %s: zero inductance", name)
		}
		return &inductor{devName: name, n1: n1, n2: n2, henries: v}, nil

	case "V":
		wave, err := parseWaveform(fields[3:])
		if err != nil {
			return nil, fmt.Errorf("voltage source %s: %w", name, err)
		}
		return &vsource{devName: name, n1: n1, n2: n2, wave: *wave}, nil

	case "I":
		wave, err := parseWaveform(fields[3:])
		if err != nil {
			return nil, fmt.Errorf("current source %s: %w", name, err)
		}
		return &isource{devName: name, n1: n1, n2: n2, wave: *wave}, nil
	}

	return nil, fmt.Errorf("unsupported element kind %q", name)
}

// parseWaveform reads the source specification after the two node names:
// "DC <v>", "SIN(vo va freq [delay damping phase])" or
// "PULSE(low high delay rise fall width period)".
func parseWaveform(fields []string) (*waveform, error) {
	spec := strings.Join(fields, " ")
	spec = strings.ReplaceAll(spec, "(", " ( ")
	spec = strings.ReplaceAll(spec, ")", " ) ")
	words := strings.Fields(spec)
	if len(words) == 0 {
		return nil, fmt.Errorf("missing source value")
	}

	switch strings.ToUpper(words[0]) {
	case "DC":
		if len(words) < 2 {
			return nil, fmt.Errorf("missing DC value")
		}
		v, err := parseValue(words[1])
		if err != nil {
			return nil, err
		}
		return &waveform{shape: shapeDC, dc: v}, nil

	case "SIN":
		args, err := parenArgs(words[1:])
		if err != nil {
			return nil, err
		}
		if len(args) < 3 {
			return nil, fmt.Errorf("SIN wants at least offset, amplitude and frequency")
		}
		w := &waveform{shape: shapeSine}
		dst := []*float64{&w.offset, &w.amplitude, &w.freq, &w.delay, &w.damping, &w.phaseDeg}
		for i, arg := range args {
			if i >= len(dst) {
				return nil, fmt.Errorf("too many SIN parameters")
			}
			if *dst[i], err = parseValue(arg); err != nil {
				return nil, err
			}
		}
		w.dc = w.offset
		return w, nil

	case "PULSE":
		args, err := parenArgs(words[1:])
		if err != nil {
			return nil, err
		}
		if len(args) != 7 {
			return nil, fmt.Errorf("PULSE wants 7 parameters, got %d", len(args))
		}
		w := &waveform{shape: shapePulse}
		dst := []*float64{&w.low, &w.high, &w.pDelay, &w.rise, &w.fall, &w.width, &w.period}
		for i, arg := range args {
			if *dst[i], err = parseValue(arg); err != nil {
				return nil, err
			}
		}
		w.dc = w.low
		return w, nil
	}

	// A bare number is shorthand for DC.
	v, err := parseValue(words[0])
	if err != nil {
		return nil, fmt.Errorf("unsupported source value %q", words[0])
	}
	return &waveform{shape: shapeDC, dc: v}, nil
}

func parenArgs(words []string) ([]string, error) {
	if len(words) < 2 || words[0] != "(" || words[len(words)-1] != ")" {
		return nil, fmt.Errorf("malformed parameter list")
	}
	return words[1 : len(words)-1], nil
}

// parseValue resolves a numeric literal with an optional SI suffix to a
// plain magnitude ("3k" -> 3000).
func parseValue(lit string) (float64, error) {
	u, err := unit.Parse(lit, unit.Dimensionless)
	if err != nil {
		return 0, fmt.Errorf("bad value %q", lit)
	}
	return u.Value(), nil
}
