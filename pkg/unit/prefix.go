package unit

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// SI prefix multipliers, yocto through yotta. The table is closed: any
// suffix not listed here fails parsing. SPICE spellings are folded in
// ("u" and the micro sign for micro, "meg" for mega since a bare "M"
// would collide with milli in traditional netlists).
var prefixes = map[string]float64{
	"y":   1e-24,
	"z":   1e-21,
	"a":   1e-18,
	"f":   1e-15,
	"p":   1e-12,
	"n":   1e-9,
	"u":   1e-6,
	"µ":   1e-6,
	"m":   1e-3,
	"":    1,
	"k":   1e3,
	"K":   1e3,
	"meg": 1e6,
	"M":   1e6,
	"G":   1e9,
	"T":   1e12,
	"P":   1e15,
	"E":   1e18,
	"Z":   1e21,
	"Y":   1e24,
}

var literalRe = regexp.MustCompile(`^([-+]?\d*\.?\d+(?:[eE][-+]?\d+)?)\s*([^\s\d]*)$`)

// PrefixValue resolves a bare SI prefix to its multiplier.
func PrefixValue(prefix string) (float64, error) {
	if m, ok := prefixes[prefix]; ok {
		return m, nil
	}
	if m, ok := prefixes[strings.ToLower(prefix)]; ok {
		return m, nil
	}
	return 0, fmt.Errorf("%q: %w", prefix, ErrUnknownPrefix)
}

// FromPrefixed builds a Unit from a magnitude and a separate SI prefix.
func FromPrefixed(value float64, prefix string, dim Dimension) (Unit, error) {
	mult, err := PrefixValue(prefix)
	if err != nil {
		return Unit{}, err
	}
	return New(value*mult, dim), nil
}

// Parse reads an SI-prefixed literal such as "3k", "1.5u" or "2 meg" and
// resolves it to a base-unit magnitude of the given dimension. A trailing
// dimension symbol ("3 kOhm", "10ms") is tolerated and stripped.
func Parse(literal string, dim Dimension) (Unit, error) {
	m := literalRe.FindStringSubmatch(strings.TrimSpace(literal))
	if m == nil {
		return Unit{}, fmt.Errorf("malformed literal %q: %w", literal, ErrUnknownPrefix)
	}

	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return Unit{}, fmt.Errorf("malformed literal %q: %w", literal, ErrUnknownPrefix)
	}

	suffix := trimSymbol(m[2], dim)
	return FromPrefixed(value, suffix, dim)
}

// trimSymbol drops a trailing unit symbol ("V", "s", "Ohm", "Ω") so that
// "3kOhm" parses the same as "3k". A suffix that is an exact prefix
// spelling is never trimmed: "5f" is 5 femto even for a capacitance,
// "1a" is 1 atto even for a current.
func trimSymbol(suffix string, dim Dimension) string {
	if _, isPrefix := prefixes[suffix]; isPrefix {
		return suffix
	}
	for _, sym := range []string{dim.Symbol(), "Ω", "ohm", "Ohm"} {
		if sym == "" {
			continue
		}
		if strings.HasSuffix(suffix, sym) {
			return strings.TrimSuffix(suffix, sym)
		}
		if strings.HasSuffix(strings.ToLower(suffix), strings.ToLower(sym)) {
			return suffix[:len(suffix)-len(sym)]
		}
	}
	return suffix
}

var engPrefixes = []struct {
	mult   float64
	symbol string
}{
	{1e12, "T"},
	{1e9, "G"},
	{1e6, "M"},
	{1e3, "k"},
	{1, ""},
	{1e-3, "m"},
	{1e-6, "u"},
	{1e-9, "n"},
	{1e-12, "p"},
	{1e-15, "f"},
}

// Engineering renders the value with the nearest engineering prefix and
// the dimension symbol, for human-facing output ("3.300 kOhm", "1.000 us").
// Netlists never use this form.
func (u Unit) Engineering() string {
	abs := math.Abs(u.value)
	if abs == 0 || math.IsInf(abs, 0) || math.IsNaN(abs) {
		return fmt.Sprintf("%g %s", u.value, u.dim.Symbol())
	}
	for _, p := range engPrefixes {
		if abs >= p.mult {
			return fmt.Sprintf("%.3f %s%s", u.value/p.mult, p.symbol, u.dim.Symbol())
		}
	}
	return fmt.Sprintf("%.3e %s", u.value, u.dim.Symbol())
}
