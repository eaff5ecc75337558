package octopus

// UnitType is a unit of energy measurement. The empty UnitType means the unit
// is unspecified.
type UnitType string

const (
	KWh         UnitType = "kWh"
	CubicMeters UnitType = "m³"
)

// Description returns an english description of the unit.
func (u UnitType) Description() string {
	switch u {
	case KWh:
		return "Kilowatt Hours"
	case CubicMeters:
		return "Cubic Meters"
	}
	return ""
}

// cubicMetersToKWh is the calorific conversion used by UK gas metering.
const cubicMetersToKWh = 11.1868

type unitPair struct {
	from, to UnitType
}

var unitMultipliers = map[unitPair]float64{
	{KWh, CubicMeters}: 1 / cubicMetersToKWh,
	{CubicMeters, KWh}: cubicMetersToKWh,
}

// Convert converts value measured in from into the unit to.
//
// Pairs without a registered multiplier, including identical or unspecified
// units, are returned unchanged.
func Convert(value float64, from, to UnitType) float64 {
	m, ok := unitMultipliers[unitPair{from, to}]
	if !ok {
		return value
	}
	return value * m
}
