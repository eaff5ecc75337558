package octopus

import (
	"time"

	"github.com/shopspring/decimal"
)

// EnergyType is the kind of energy a meter measures.
type EnergyType string

const (
	Electricity EnergyType = "electricity"
	Gas         EnergyType = "gas"
)

// MeterDirection is the direction of energy flow through an electricity meter.
type MeterDirection string

const (
	Import MeterDirection = "import"
	Export MeterDirection = "export"
)

// MeterGeneration identifies the smart metering specification a meter
// conforms to. Use Unit and Description for its native unit and label.
type MeterGeneration string

const (
	SMETS1Gas         MeterGeneration = "SMETS1_GAS"
	SMETS2Gas         MeterGeneration = "SMETS2_GAS"
	SMETS1Electricity MeterGeneration = "SMETS1_ELECTRICITY"
	SMETS2Electricity MeterGeneration = "SMETS2_ELECTRICITY"
)

type generationInfo struct {
	unit        UnitType
	description string
}

var generations = map[MeterGeneration]generationInfo{
	SMETS1Gas:         {KWh, "1st Generation Smart Gas Meter"},
	SMETS2Gas:         {CubicMeters, "2nd Generation Smart Gas Meter"},
	SMETS1Electricity: {KWh, "1st Generation Smart Electricity Meter"},
	SMETS2Electricity: {KWh, "2nd Generation Smart Electricity Meter"},
}

// Unit returns the unit consumption is reported in by meters of this
// generation. Unknown generations report an unspecified unit.
func (g MeterGeneration) Unit() UnitType {
	return generations[g].unit
}

// Description returns an english description of the meter generation.
func (g MeterGeneration) Description() string {
	return generations[g].description
}

// Address is the postal address of a property on an account.
type Address struct {
	Line1      string
	Line2      string
	Line3      string
	Town       string
	County     string
	Postcode   string
	MovedInAt  *time.Time
	MovedOutAt *time.Time
	// Active is true while the account holder has not moved out.
	Active bool
}

// MeterPoint is a supply point, identified by its MPAN (electricity) or
// MPRN (gas).
type MeterPoint struct {
	ID      string
	Address Address
}

// Tariff is an agreement a meter was billed under. ValidFrom is inclusive,
// ValidTo exclusive; a nil ValidTo means the tariff is still in force.
type Tariff struct {
	Code      string
	ValidFrom time.Time
	ValidTo   *time.Time
}

// Active reports whether the tariff applies at the given instant.
func (t Tariff) Active(at time.Time) bool {
	if at.Before(t.ValidFrom) {
		return false
	}
	return t.ValidTo == nil || at.Before(*t.ValidTo)
}

// Meter is a physical meter installed at a meter point.
//
// Direction is only set on electricity meters.
type Meter struct {
	MeterPoint   MeterPoint
	SerialNumber string
	EnergyType   EnergyType
	Generation   MeterGeneration
	Direction    MeterDirection
	// Tariffs is in the order the API returned the agreements.
	Tariffs []Tariff
}

// TariffAt returns the tariff the meter was on at t.
func (m Meter) TariffAt(t time.Time) (Tariff, bool) {
	return ResolveTariff(m.Tariffs, t)
}

// IntervalConsumption is the energy consumed in [IntervalStart, IntervalEnd).
type IntervalConsumption struct {
	IntervalStart time.Time
	IntervalEnd   time.Time
	ConsumedUnits float64
}

// Consumption is a page of consumption intervals for a meter.
type Consumption struct {
	UnitType  UnitType
	Meter     Meter
	Intervals []IntervalConsumption
	Next      *PageReference
	Previous  *PageReference
}

// TariffRate is the price of a tariff rate over a period, in pence.
type TariffRate struct {
	ValueIncVAT decimal.Decimal
	ValueExcVAT decimal.Decimal
	ValidFrom   time.Time
	ValidTo     *time.Time
}

// Active reports whether the rate applies at the given instant.
func (r TariffRate) Active(at time.Time) bool {
	if at.Before(r.ValidFrom) {
		return false
	}
	return r.ValidTo == nil || at.Before(*r.ValidTo)
}
