package octopus

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestTariffRatesFromResponse(t *testing.T) {
	var resp TariffRateResponse
	loadFixture(t, "tariff_rates_response.json", &resp)

	rates, err := TariffRatesFromResponse(resp)
	require.NoError(t, err)
	require.Len(t, rates, 3)

	require.Equal(t, "12.345", rates[0].ValueIncVAT.String())
	require.Equal(t, "11.757", rates[0].ValueExcVAT.String())
	require.True(t, time.Date(2021, 2, 10, 22, 30, 0, 0, time.UTC).Equal(rates[0].ValidFrom))
	require.True(t, time.Date(2021, 2, 10, 23, 0, 0, 0, time.UTC).Equal(*rates[0].ValidTo))

	require.True(t, decimal.RequireFromString("13.545").Equal(rates[1].ValueIncVAT))
	require.True(t, decimal.RequireFromString("12.9").Equal(rates[1].ValueExcVAT))

	require.Equal(t, "-1.296", rates[2].ValueIncVAT.String(), "truncates toward zero")
	require.Equal(t, "-1.234", rates[2].ValueExcVAT.String())
	require.Nil(t, rates[2].ValidTo)
}

func TestTariffRatesFromResponseNoResults(t *testing.T) {
	rates, err := TariffRatesFromResponse(TariffRateResponse{})
	require.NoError(t, err)
	require.NotNil(t, rates)
	require.Empty(t, rates)
}

func TestTariffRatesFromResponseMissingValue(t *testing.T) {
	v := decimal.RequireFromString("1")
	resp := TariffRateResponse{Results: []TariffRateResult{{ValueIncVAT: &v, ValidFrom: "2021-02-10T22:30:00Z"}}}
	_, err := TariffRatesFromResponse(resp)
	require.ErrorIs(t, err, ErrMissingField)
	require.Contains(t, err.Error(), "value_exc_vat")
}

func ptrTime(t time.Time) *time.Time {
	return &t
}

func TestResolveTariff(t *testing.T) {
	t1 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		tariffs []Tariff
		at      time.Time
		expect  string
	}{
		{
			name:    "open ended at start",
			tariffs: []Tariff{{Code: "A", ValidFrom: t1}},
			at:      t1,
			expect:  "A",
		},
		{
			name:    "open ended long after start",
			tariffs: []Tariff{{Code: "A", ValidFrom: t1}},
			at:      t1.AddDate(5, 0, 0),
			expect:  "A",
		},
		{
			name:    "before start",
			tariffs: []Tariff{{Code: "A", ValidFrom: t1}},
			at:      t1.Add(-time.Second),
		},
		{
			name:    "closed within range",
			tariffs: []Tariff{{Code: "A", ValidFrom: t1, ValidTo: ptrTime(t2)}},
			at:      t2.Add(-time.Second),
			expect:  "A",
		},
		{
			name:    "closed at end is excluded",
			tariffs: []Tariff{{Code: "A", ValidFrom: t1, ValidTo: ptrTime(t2)}},
			at:      t2,
		},
		{
			name: "handover picks the following tariff",
			tariffs: []Tariff{
				{Code: "A", ValidFrom: t1, ValidTo: ptrTime(t2)},
				{Code: "B", ValidFrom: t2},
			},
			at:     t2,
			expect: "B",
		},
		{
			name: "overlap resolves by list order",
			tariffs: []Tariff{
				{Code: "OLD", ValidFrom: t1},
				{Code: "NEW", ValidFrom: t2},
			},
			at:     t2.AddDate(0, 0, 1),
			expect: "OLD",
		},
		{
			name: "unsorted list",
			tariffs: []Tariff{
				{Code: "B", ValidFrom: t2},
				{Code: "A", ValidFrom: t1, ValidTo: ptrTime(t2)},
			},
			at:     t1.AddDate(0, 0, 1),
			expect: "A",
		},
		{
			name: "offsets compare by instant",
			tariffs: []Tariff{
				{Code: "A", ValidFrom: time.Date(2025, 1, 1, 1, 0, 0, 0, time.FixedZone("", 3600))},
			},
			at:     t1,
			expect: "A",
		},
		{
			name: "empty list",
			at:   t1,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			tariff, ok := ResolveTariff(test.tariffs, test.at)
			if test.expect == "" {
				require.False(t, ok)
				return
			}
			require.True(t, ok)
			require.Equal(t, test.expect, tariff.Code)

			m := Meter{Tariffs: test.tariffs}
			viaMeter, ok := m.TariffAt(test.at)
			require.True(t, ok)
			require.Equal(t, tariff, viaMeter)
		})
	}
}

func TestTariffRateActive(t *testing.T) {
	from := time.Date(2021, 2, 10, 22, 30, 0, 0, time.UTC)
	r := TariffRate{ValidFrom: from, ValidTo: ptrTime(from.Add(30 * time.Minute))}
	require.True(t, r.Active(from))
	require.False(t, r.Active(from.Add(30*time.Minute)))
	require.False(t, r.Active(from.Add(-time.Nanosecond)))
}

func TestProductCodeFromTariffCode(t *testing.T) {
	tests := map[string]string{
		"E-1R-AGILE-FLEX-22-11-25-C":       "AGILE-FLEX-22-11-25",
		"G-1R-VAR-19-04-12-N":              "VAR-19-04-12",
		"E-2R-VAR-22-11-01-A":              "VAR-22-11-01",
		"E-1R-OUTGOING-FIX-12M-19-05-13-C": "OUTGOING-FIX-12M-19-05-13",
		"AGILE-18-02-21":                   "AGILE-18-02-21",
		"X-1R-FOO-C":                       "X-1R-FOO-C",
	}
	for code, expect := range tests {
		t.Run(code, func(t *testing.T) {
			require.Equal(t, expect, ProductCodeFromTariffCode(code))
		})
	}
}
