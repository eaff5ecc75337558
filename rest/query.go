package rest

import (
	"net/url"
	"strconv"
	"time"

	"github.com/mgazza/octopus-consumer/octopus"
)

// EnergyTariffType selects the electricity or gas tariffs of a product.
type EnergyTariffType string

const (
	ElectricityTariffs EnergyTariffType = "electricity-tariffs"
	GasTariffs         EnergyTariffType = "gas-tariffs"
)

// TariffTypeFor returns the tariff type matching an energy type.
func TariffTypeFor(e octopus.EnergyType) EnergyTariffType {
	if e == octopus.Gas {
		return GasTariffs
	}
	return ElectricityTariffs
}

// RateType selects which prices of a tariff to list.
type RateType string

const (
	StandardUnitRates RateType = "standard-unit-rates"
	DayUnitRates      RateType = "day-unit-rates"
	NightUnitRates    RateType = "night-unit-rates"
	StandingCharges   RateType = "standing-charges"
)

// ConsumptionQuery holds the optional parameters of the consumption
// endpoints. Zero values are left out of the request.
type ConsumptionQuery struct {
	Page       int
	PageSize   int
	PeriodFrom time.Time
	PeriodTo   time.Time
	Order      octopus.SortOrder
	GroupBy    octopus.Aggregate
}

// Values encodes the query. It can be used wherever a PageReference's Query
// is accepted.
func (q ConsumptionQuery) Values() url.Values {
	v := pageValues(q.Page, q.PageSize, q.PeriodFrom, q.PeriodTo)
	if q.Order != "" {
		v.Set("order", string(q.Order))
	}
	if q.GroupBy != "" {
		v.Set("group_by", string(q.GroupBy))
	}
	return v
}

// TariffQuery holds the optional parameters of the tariff rate endpoints.
// PeriodFrom is inclusive, PeriodTo exclusive.
type TariffQuery struct {
	Page       int
	PageSize   int
	PeriodFrom time.Time
	PeriodTo   time.Time
}

func (q TariffQuery) Values() url.Values {
	return pageValues(q.Page, q.PageSize, q.PeriodFrom, q.PeriodTo)
}

func pageValues(page, pageSize int, from, to time.Time) url.Values {
	v := url.Values{}
	if page > 0 {
		v.Set("page", strconv.Itoa(page))
	}
	if pageSize > 0 {
		v.Set("page_size", strconv.Itoa(pageSize))
	}
	if s := octopus.FormatTimestamp(from); s != "" {
		v.Set("period_from", s)
	}
	if s := octopus.FormatTimestamp(to); s != "" {
		v.Set("period_to", s)
	}
	return v
}
