package circuit

import "strings"

// Netlist renders the circuit to SPICE text: title line, one element line
// per statement in insertion order, ".end" terminator. The renderer never
// mutates the circuit and the same circuit always serializes to the same
// bytes.
func (c *Circuit) Netlist() string {
	var b strings.Builder
	b.WriteString(c.title)
	b.WriteByte('\n')
	for _, e := range c.elements {
		b.WriteString(e.Line())
		b.WriteByte('\n')
	}
	b.WriteString(".end\n")
	return b.String()
}
