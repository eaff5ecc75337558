// Package export writes priced consumption to CSV files, InfluxDB and Kafka.
package export

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mgazza/octopus-consumer/octopus"
)

// Record is one interval of consumption and the unit rate in force at its
// start, in pence per kWh including VAT.
type Record struct {
	Meter         octopus.Meter
	Unit          octopus.UnitType
	IntervalStart time.Time
	IntervalEnd   time.Time
	Consumption   float64
	UnitRate      *decimal.Decimal
}

// Cost is the price of the interval in pence. It is false when no rate
// was found.
func (r Record) Cost() (decimal.Decimal, bool) {
	if r.UnitRate == nil {
		return decimal.Decimal{}, false
	}
	kwh := octopus.Convert(r.Consumption, r.Unit, octopus.KWh)
	return decimal.NewFromFloat(kwh).Mul(*r.UnitRate), true
}

// Records prices every interval of c with the first of rates active at the
// interval start.
func Records(c octopus.Consumption, rates []octopus.TariffRate) []Record {
	records := make([]Record, 0, len(c.Intervals))
	for _, iv := range c.Intervals {
		record := Record{
			Meter:         c.Meter,
			Unit:          c.UnitType,
			IntervalStart: iv.IntervalStart,
			IntervalEnd:   iv.IntervalEnd,
			Consumption:   iv.ConsumedUnits,
		}
		if rate, ok := findRateForTime(iv.IntervalStart, rates); ok {
			record.UnitRate = &rate.ValueIncVAT
		}
		records = append(records, record)
	}
	return records
}

func findRateForTime(t time.Time, rates []octopus.TariffRate) (octopus.TariffRate, bool) {
	for _, r := range rates {
		if r.Active(t) {
			return r, true
		}
	}
	return octopus.TariffRate{}, false
}

// Sink receives priced consumption.
type Sink interface {
	Write(ctx context.Context, records []Record) error
	Close() error
}
