package unit

// Dimension is the closed set of physical quantities a Unit can carry.
type Dimension int

const (
	Dimensionless Dimension = iota
	Voltage
	Current
	Resistance
	Conductance
	Capacitance
	Inductance
	Time
	Frequency
	Charge
	Power
	Angle
	Temperature
)

var dimSymbols = map[Dimension]string{
	Dimensionless: "",
	Voltage:       "V",
	Current:       "A",
	Resistance:    "Ohm",
	Conductance:   "S",
	Capacitance:   "F",
	Inductance:    "H",
	Time:          "s",
	Frequency:     "Hz",
	Charge:        "C",
	Power:         "W",
	Angle:         "deg",
	Temperature:   "K",
}

func (d Dimension) Symbol() string {
	return dimSymbols[d]
}

func (d Dimension) String() string {
	switch d {
	case Dimensionless:
		return "dimensionless"
	case Voltage:
		return "voltage"
	case Current:
		return "current"
	case Resistance:
		return "resistance"
	case Conductance:
		return "conductance"
	case Capacitance:
		return "capacitance"
	case Inductance:
		return "inductance"
	case Time:
		return "time"
	case Frequency:
		return "frequency"
	case Charge:
		return "charge"
	case Power:
		return "power"
	case Angle:
		return "angle"
	case Temperature:
		return "temperature"
	}
	return "unknown"
}

// Composite rules for multiplication. Lookup tries both operand orders.
var mulTable = map[[2]Dimension]Dimension{
	{Current, Resistance}:     Voltage,
	{Voltage, Current}:        Power,
	{Voltage, Conductance}:    Current,
	{Current, Time}:           Charge,
	{Capacitance, Voltage}:    Charge,
	{Resistance, Capacitance}: Time,
	{Conductance, Inductance}: Time,
	{Time, Frequency}:         Dimensionless,
	{Resistance, Conductance}: Dimensionless,
	{Charge, Frequency}:       Current,
}

// Composite rules for division: numerator, denominator -> result.
var divTable = map[[2]Dimension]Dimension{
	{Voltage, Resistance}:        Current,
	{Voltage, Current}:           Resistance,
	{Current, Voltage}:           Conductance,
	{Current, Conductance}:       Voltage,
	{Charge, Time}:               Current,
	{Charge, Voltage}:            Capacitance,
	{Charge, Current}:            Time,
	{Power, Voltage}:             Current,
	{Power, Current}:             Voltage,
	{Time, Resistance}:           Capacitance,
	{Time, Capacitance}:          Resistance,
	{Inductance, Resistance}:     Time,
	{Inductance, Time}:           Resistance,
	{Dimensionless, Time}:        Frequency,
	{Dimensionless, Frequency}:   Time,
	{Dimensionless, Resistance}:  Conductance,
	{Dimensionless, Conductance}: Resistance,
}

func mulDim(a, b Dimension) (Dimension, bool) {
	if a == Dimensionless {
		return b, true
	}
	if b == Dimensionless {
		return a, true
	}
	if d, ok := mulTable[[2]Dimension{a, b}]; ok {
		return d, true
	}
	if d, ok := mulTable[[2]Dimension{b, a}]; ok {
		return d, true
	}
	return Dimensionless, false
}

func divDim(a, b Dimension) (Dimension, bool) {
	if a == b {
		return Dimensionless, true
	}
	if b == Dimensionless {
		return a, true
	}
	if d, ok := divTable[[2]Dimension{a, b}]; ok {
		return d, true
	}
	return Dimensionless, false
}
