package octopus

import (
	"strings"
	"time"

	"github.com/pkg/errors"
)

// pricePlaces is the number of decimal places tariff prices are kept to.
const pricePlaces = 3

// TariffRatesFromResponse maps a page of tariff rates. Prices are truncated,
// not rounded, to three decimal places.
//
// A response without results maps to an empty list.
func TariffRatesFromResponse(resp TariffRateResponse) ([]TariffRate, error) {
	if resp.Results == nil {
		return []TariffRate{}, nil
	}
	if err := checkRequired(resp); err != nil {
		return nil, errors.Wrap(err, "tariff rate response")
	}

	rates := make([]TariffRate, 0, len(resp.Results))
	for i, r := range resp.Results {
		from, err := ParseTimestamp(r.ValidFrom)
		if err != nil {
			return nil, errors.Wrapf(err, "result %d valid_from", i)
		}
		to, err := parseOptionalTimestamp(r.ValidTo)
		if err != nil {
			return nil, errors.Wrapf(err, "result %d valid_to", i)
		}
		rates = append(rates, TariffRate{
			ValueIncVAT: r.ValueIncVAT.Truncate(pricePlaces),
			ValueExcVAT: r.ValueExcVAT.Truncate(pricePlaces),
			ValidFrom:   from,
			ValidTo:     to,
		})
	}
	return rates, nil
}

// ResolveTariff returns the first tariff in tariffs that is active at t.
// Overlapping tariffs are not disambiguated: list order wins.
func ResolveTariff(tariffs []Tariff, t time.Time) (Tariff, bool) {
	for _, tariff := range tariffs {
		if tariff.Active(t) {
			return tariff, true
		}
	}
	return Tariff{}, false
}

// ProductCodeFromTariffCode strips the fuel, register and region parts of a
// tariff code, leaving the product code: E-1R-AGILE-FLEX-22-11-25-C becomes
// AGILE-FLEX-22-11-25. Codes that do not follow that shape are returned as is.
func ProductCodeFromTariffCode(tariffCode string) string {
	parts := strings.Split(tariffCode, "-")
	if len(parts) < 4 {
		return tariffCode
	}
	if parts[0] != "E" && parts[0] != "G" {
		return tariffCode
	}
	if !strings.HasSuffix(parts[1], "R") || len(parts[len(parts)-1]) != 1 {
		return tariffCode
	}
	return strings.Join(parts[2:len(parts)-1], "-")
}
