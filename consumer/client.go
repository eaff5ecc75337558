// Package consumer reads an account's meters, consumption and tariff prices
// from the Octopus Energy API and returns them as octopus models.
package consumer

import (
	"context"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mgazza/octopus-consumer/octopus"
	"github.com/mgazza/octopus-consumer/rest"
)

const (
	consumptionPageSize = 336 // two weeks of 30 mins
	tariffPageSize      = 672 // two weeks of half-hour slots per page
)

// ErrNoActiveTariff is returned when no agreement of a meter covers the
// requested time.
var ErrNoActiveTariff = errors.New("no active tariff")

// API is the subset of the REST client the consumer needs.
type API interface {
	GetAccountDetails(ctx context.Context, accountNumber string) (*octopus.AccountResponse, error)
	GetElectricityConsumption(ctx context.Context, mpan, serialNumber string, query url.Values) (*octopus.ConsumptionResponse, error)
	GetGasConsumption(ctx context.Context, mprn, serialNumber string, query url.Values) (*octopus.ConsumptionResponse, error)
	GetTariffRates(ctx context.Context, productCode string, tariffType rest.EnergyTariffType, tariffCode string, rateType rest.RateType, query url.Values) (*octopus.TariffRateResponse, error)
	ProductCode(ctx context.Context, tariffCode string) (string, error)
}

// Client reads the data of one account.
type Client struct {
	api           API
	accountNumber string
	logger        *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

func New(api API, accountNumber string, opts ...Option) *Client {
	c := &Client{
		api:           api,
		accountNumber: accountNumber,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Meters returns every meter on the account, across all its properties.
func (c *Client) Meters(ctx context.Context) ([]octopus.Meter, error) {
	resp, err := c.api.GetAccountDetails(ctx, c.accountNumber)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch account details")
	}
	meters, err := octopus.MetersFromResponse(*resp)
	if err != nil {
		return nil, errors.Wrapf(err, "account %s", c.accountNumber)
	}
	c.logger.Debug("fetched meters", zap.String("account", c.accountNumber), zap.Int("count", len(meters)))
	return meters, nil
}

// ConsumptionRequest selects a page of readings. When Page is set it is
// replayed as is and the period fields are ignored.
type ConsumptionRequest struct {
	PeriodFrom time.Time
	PeriodTo   time.Time
	GroupBy    octopus.Aggregate
	PageSize   int
	Page       *octopus.PageReference

	// Order defaults to oldest first.
	Order octopus.SortOrder

	// Unit defaults to the meter's native unit.
	Unit octopus.UnitType
}

func (r ConsumptionRequest) query() url.Values {
	if r.Page != nil {
		return r.Page.Query()
	}
	pageSize := r.PageSize
	if pageSize <= 0 {
		pageSize = consumptionPageSize
	}
	order := r.Order
	if order == "" {
		order = octopus.OldestFirst
	}
	return rest.ConsumptionQuery{
		PageSize:   pageSize,
		PeriodFrom: r.PeriodFrom,
		PeriodTo:   r.PeriodTo,
		Order:      order,
		GroupBy:    r.GroupBy,
	}.Values()
}

// Consumption fetches one page of readings for a meter.
func (c *Client) Consumption(ctx context.Context, meter octopus.Meter, req ConsumptionRequest) (octopus.Consumption, error) {
	fetch := c.api.GetElectricityConsumption
	if meter.EnergyType == octopus.Gas {
		fetch = c.api.GetGasConsumption
	}

	resp, err := fetch(ctx, meter.MeterPoint.ID, meter.SerialNumber, req.query())
	if err != nil {
		return octopus.Consumption{}, errors.Wrapf(err, "error querying consumption for meter %s", meter.SerialNumber)
	}

	unit := req.Unit
	if unit == "" {
		unit = meter.Generation.Unit()
	}
	consumption, err := octopus.ConsumptionFromResponse(*resp, meter, unit)
	if err != nil {
		return octopus.Consumption{}, errors.Wrapf(err, "meter %s", meter.SerialNumber)
	}
	return consumption, nil
}

// LatestReading returns the most recent interval recorded by meter. It is
// false when the meter has no readings yet.
func (c *Client) LatestReading(ctx context.Context, meter octopus.Meter) (octopus.IntervalConsumption, bool, error) {
	page, err := c.Consumption(ctx, meter, ConsumptionRequest{PageSize: 1, Order: octopus.NewestFirst})
	if err != nil {
		return octopus.IntervalConsumption{}, false, err
	}
	if len(page.Intervals) == 0 {
		return octopus.IntervalConsumption{}, false, nil
	}
	return page.Intervals[0], true, nil
}

// AllConsumption follows the Next cursor until the last page and returns the
// readings of every page. Previous is that of the first page fetched.
func (c *Client) AllConsumption(ctx context.Context, meter octopus.Meter, req ConsumptionRequest) (octopus.Consumption, error) {
	var all octopus.Consumption
	pages := 0
	for {
		if err := ctx.Err(); err != nil {
			return octopus.Consumption{}, errors.WithStack(err)
		}

		page, err := c.Consumption(ctx, meter, req)
		if err != nil {
			return octopus.Consumption{}, err
		}
		pages++

		if pages == 1 {
			all = page
		} else {
			all.Intervals = append(all.Intervals, page.Intervals...)
			all.Next = page.Next
		}

		if page.Next == nil {
			break
		}
		req.Page = page.Next
	}

	c.logger.Info("fetched consumption",
		zap.String("meter", meter.SerialNumber),
		zap.Int("pages", pages),
		zap.Int("intervals", len(all.Intervals)))
	return all, nil
}

// TariffRates lists the prices of tariff for the period [from, to). A zero
// bound leaves that side open.
func (c *Client) TariffRates(ctx context.Context, meter octopus.Meter, tariff octopus.Tariff, rateType rest.RateType, from, to time.Time) ([]octopus.TariffRate, error) {
	productCode, err := c.api.ProductCode(ctx, tariff.Code)
	if err != nil {
		return nil, err
	}

	rates := []octopus.TariffRate{}
	query := rest.TariffQuery{
		Page:       1,
		PageSize:   tariffPageSize,
		PeriodFrom: from,
		PeriodTo:   to,
	}
	for {
		resp, err := c.api.GetTariffRates(ctx, productCode, rest.TariffTypeFor(meter.EnergyType), tariff.Code, rateType, query.Values())
		if err != nil {
			return nil, errors.Wrapf(err, "failed to fetch tariffs for %s", tariff.Code)
		}

		page, err := octopus.TariffRatesFromResponse(*resp)
		if err != nil {
			return nil, errors.Wrapf(err, "tariff %s", tariff.Code)
		}
		rates = append(rates, page...)

		if resp.Next == nil || *resp.Next == "" {
			break
		}
		query.Page++
	}

	c.logger.Debug("fetched tariff rates",
		zap.String("tariff", tariff.Code),
		zap.String("rate_type", string(rateType)),
		zap.Int("count", len(rates)))
	return rates, nil
}

// TariffRatesAt resolves the tariff of meter at the given time and returns
// the prices of that tariff in force at it.
func (c *Client) TariffRatesAt(ctx context.Context, meter octopus.Meter, at time.Time, rateType rest.RateType) ([]octopus.TariffRate, error) {
	tariff, ok := meter.TariffAt(at)
	if !ok {
		return nil, errors.Wrapf(ErrNoActiveTariff, "meter %s at %s", meter.SerialNumber, octopus.FormatTimestamp(at))
	}

	rates, err := c.TariffRates(ctx, meter, tariff, rateType, at, at.Add(time.Second))
	if err != nil {
		return nil, err
	}

	active := []octopus.TariffRate{}
	for _, r := range rates {
		if r.Active(at) {
			active = append(active, r)
		}
	}
	return active, nil
}
