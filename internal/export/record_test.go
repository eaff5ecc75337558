package export

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/mgazza/octopus-consumer/octopus"
)

func ptrTime(t time.Time) *time.Time {
	return &t
}

func rate(v string, from time.Time, to *time.Time) octopus.TariffRate {
	d := decimal.RequireFromString(v)
	return octopus.TariffRate{ValueIncVAT: d, ValueExcVAT: d, ValidFrom: from, ValidTo: to}
}

func TestFindRateForTime(t *testing.T) {
	at := func(h, m int) time.Time { return time.Date(2025, 1, 1, h, m, 0, 0, time.UTC) }

	tests := []struct {
		name   string
		time   time.Time
		rates  []octopus.TariffRate
		expect string
	}{
		{
			name:   "Match within range",
			time:   at(12, 15),
			rates:  []octopus.TariffRate{rate("10.5", at(12, 0), ptrTime(at(12, 30)))},
			expect: "10.5",
		},
		{
			name:  "No match, before all ranges",
			time:  at(11, 45),
			rates: []octopus.TariffRate{rate("10.5", at(12, 0), ptrTime(at(12, 30)))},
		},
		{
			name:  "No match, at the end of the range",
			time:  at(12, 30),
			rates: []octopus.TariffRate{rate("10.5", at(12, 0), ptrTime(at(12, 30)))},
		},
		{
			name: "Multiple ranges, match in the middle",
			time: at(12, 15),
			rates: []octopus.TariffRate{
				rate("5", at(12, 0), ptrTime(at(12, 10))),
				rate("10.5", at(12, 10), ptrTime(at(12, 20))),
				rate("7.5", at(12, 20), ptrTime(at(12, 30))),
			},
			expect: "10.5",
		},
		{
			name:  "Empty rates list",
			time:  at(12, 15),
			rates: []octopus.TariffRate{},
		},
		{
			name:   "Open-ended rate",
			time:   at(23, 59),
			rates:  []octopus.TariffRate{rate("10.5", at(12, 0), nil)},
			expect: "10.5",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result, ok := findRateForTime(test.time, test.rates)
			if test.expect == "" {
				require.False(t, ok)
				return
			}
			require.True(t, ok)
			require.True(t, decimal.RequireFromString(test.expect).Equal(result.ValueIncVAT))
		})
	}
}

func TestRecords(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	meter := octopus.Meter{
		MeterPoint:   octopus.MeterPoint{ID: "2000024512368"},
		SerialNumber: "18L2345678",
		EnergyType:   octopus.Electricity,
		Direction:    octopus.Import,
	}
	c := octopus.Consumption{
		UnitType: octopus.KWh,
		Meter:    meter,
		Intervals: []octopus.IntervalConsumption{
			{IntervalStart: start, IntervalEnd: start.Add(30 * time.Minute), ConsumedUnits: 0.5},
			{IntervalStart: start.Add(30 * time.Minute), IntervalEnd: start.Add(time.Hour), ConsumedUnits: 0.25},
			{IntervalStart: start.Add(time.Hour), IntervalEnd: start.Add(90 * time.Minute), ConsumedUnits: 1},
		},
	}
	rates := []octopus.TariffRate{
		rate("20", start, ptrTime(start.Add(30*time.Minute))),
		rate("10.123", start.Add(30*time.Minute), ptrTime(start.Add(time.Hour))),
	}

	records := Records(c, rates)
	require.Len(t, records, 3)
	require.Equal(t, meter, records[0].Meter)
	require.Equal(t, octopus.KWh, records[0].Unit)

	cost, ok := records[0].Cost()
	require.True(t, ok)
	require.Equal(t, "10", cost.String())

	cost, ok = records[1].Cost()
	require.True(t, ok)
	require.Equal(t, "2.53075", cost.String())

	require.Nil(t, records[2].UnitRate)
	_, ok = records[2].Cost()
	require.False(t, ok)
}

func TestRecordCostConvertsVolume(t *testing.T) {
	rate := decimal.RequireFromString("10")
	r := Record{Unit: octopus.CubicMeters, Consumption: 1, UnitRate: &rate}
	cost, ok := r.Cost()
	require.True(t, ok)
	require.InDelta(t, 111.868, cost.InexactFloat64(), 1e-9)
}
