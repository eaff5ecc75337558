package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mgazza/octopus-consumer/consumer"
	"github.com/mgazza/octopus-consumer/internal/config"
	"github.com/mgazza/octopus-consumer/internal/export"
	"github.com/mgazza/octopus-consumer/octopus"
	"github.com/mgazza/octopus-consumer/rest"
)

// App manages application dependencies and logic.
type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	Consumer *consumer.Client
	Out      io.Writer
}

// newTransport wraps http.DefaultTransport in the response cache unless
// caching is disabled.
func newTransport(cfg *config.Config, logger *zap.Logger) (http.RoundTripper, error) {
	if cfg.CacheDir == "disable" {
		logger.Info("HTTP caching disabled")
		return http.DefaultTransport, nil
	}

	cacheDir := cfg.CacheDir
	if cacheDir == "" {
		cacheDir = os.TempDir()
	}
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create cache dir")
	}

	logger.Info("HTTP caching enabled", zap.String("dir", cacheDir))
	return &rest.CachingRoundTripper{
		UnderlyingTransport: http.DefaultTransport,
		CacheDir:            path.Clean(cacheDir),
		Logger:              logger,
	}, nil
}

func NewApp(cfg *config.Config, logger *zap.Logger, rt http.RoundTripper, out io.Writer) *App {
	opts := []rest.Option{rest.WithLogger(logger), rest.WithTimeout(cfg.Timeout)}
	if cfg.BaseURL != "" {
		opts = append(opts, rest.WithBaseURL(cfg.BaseURL))
	}
	restClient := rest.NewClient(rt, cfg.APIKey, opts...)

	return &App{
		Config:   cfg,
		Logger:   logger,
		Consumer: consumer.New(restClient, cfg.AccountNumber, consumer.WithLogger(logger)),
		Out:      out,
	}
}

// RunMeters prints the meters of the account and their current tariff.
func (app *App) RunMeters(ctx context.Context, now time.Time) error {
	meters, err := app.Consumer.Meters(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(app.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "METER POINT\tSERIAL\tTYPE\tDIRECTION\tGENERATION\tTARIFF\tPOSTCODE")
	for _, m := range meters {
		tariff := "-"
		if t, ok := m.TariffAt(now); ok {
			tariff = t.Code
		}
		direction := string(m.Direction)
		if direction == "" {
			direction = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			m.MeterPoint.ID, m.SerialNumber, m.EnergyType, direction,
			m.Generation.Description(), tariff, m.MeterPoint.Address.Postcode)
	}
	return errors.WithStack(w.Flush())
}

// ConsumptionOptions selects what RunConsumption exports.
type ConsumptionOptions struct {
	// From defaults, per meter, to the midnight before its latest reading.
	From    time.Time
	To      time.Time
	Serial  string
	Unit    octopus.UnitType
	GroupBy octopus.Aggregate
}

// RunConsumption fetches the readings of every active meter (or only the one
// matching opts.Serial), prices half-hourly readings with the unit rates of
// the meter's tariffs and writes them to every sink.
func (app *App) RunConsumption(ctx context.Context, opts ConsumptionOptions, sinks []export.Sink) error {
	meters, err := app.Consumer.Meters(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get meter and tariff details")
	}

	exported := 0
	for _, meter := range meters {
		if opts.Serial != "" && meter.SerialNumber != opts.Serial {
			continue
		}
		if opts.Serial == "" && !meter.MeterPoint.Address.Active {
			continue
		}

		from := opts.From
		if from.IsZero() {
			if from, err = app.collectionStart(ctx, meter, opts.To); err != nil {
				return err
			}
		}
		app.Logger.Info("using date range",
			zap.String("meter", meter.SerialNumber),
			zap.String("from", from.Format(time.RFC3339)),
			zap.String("to", opts.To.Format(time.RFC3339)))

		consumption, err := app.Consumer.AllConsumption(ctx, meter, consumer.ConsumptionRequest{
			PeriodFrom: from,
			PeriodTo:   opts.To,
			GroupBy:    opts.GroupBy,
			Unit:       opts.Unit,
		})
		if err != nil {
			return errors.Wrapf(err, "failed to fetch consumption for %s", meter.SerialNumber)
		}

		var rates []octopus.TariffRate
		if opts.GroupBy == "" {
			rates, err = app.unitRates(ctx, meter, from, opts.To)
			if err != nil {
				return err
			}
		}

		records := export.Records(consumption, rates)
		for _, sink := range sinks {
			if err := sink.Write(ctx, records); err != nil {
				return errors.Wrapf(err, "failed to export consumption for %s", meter.SerialNumber)
			}
		}
		exported += len(records)
	}

	app.Logger.Info("exported consumption", zap.Int("records", exported))
	return nil
}

// collectionStart is the midnight before the latest reading of meter, or
// before the day preceding end when the meter has none.
func (app *App) collectionStart(ctx context.Context, meter octopus.Meter, end time.Time) (time.Time, error) {
	latest, ok, err := app.Consumer.LatestReading(ctx, meter)
	if err != nil {
		return time.Time{}, errors.Wrap(err, "failed to get last reading")
	}
	if !ok {
		return truncateToMidnight(end.AddDate(0, 0, -1)), nil
	}
	app.Logger.Info("latest reading",
		zap.String("meter", meter.SerialNumber),
		zap.String("at", latest.IntervalStart.Format(time.RFC3339)),
		zap.Float64("value", latest.ConsumedUnits))
	return truncateToMidnight(latest.IntervalStart.Add(-30 * time.Minute)), nil
}

// unitRates returns the standard unit rates of every tariff of meter that
// overlaps [from, to).
func (app *App) unitRates(ctx context.Context, meter octopus.Meter, from, to time.Time) ([]octopus.TariffRate, error) {
	var rates []octopus.TariffRate
	for _, tariff := range meter.Tariffs {
		if !to.IsZero() && !tariff.ValidFrom.Before(to) {
			continue
		}
		if tariff.ValidTo != nil && !tariff.ValidTo.After(from) {
			continue
		}

		tariffRates, err := app.Consumer.TariffRates(ctx, meter, tariff, rest.StandardUnitRates, from, to)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to fetch unit rates for %s", tariff.Code)
		}
		app.Logger.Info("fetched tariff records", zap.String("tariff", tariff.Code), zap.Int("count", len(tariffRates)))
		rates = append(rates, tariffRates...)
	}
	return rates, nil
}

// RunRates prints the unit rate and standing charge of every active meter
// at the given time.
func (app *App) RunRates(ctx context.Context, at time.Time) error {
	meters, err := app.Consumer.Meters(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(app.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SERIAL\tTARIFF\tRATE TYPE\tINC VAT\tEXC VAT\tVALID FROM\tVALID TO")
	for _, meter := range meters {
		if !meter.MeterPoint.Address.Active {
			continue
		}
		tariff, ok := meter.TariffAt(at)
		if !ok {
			app.Logger.Warn("no tariff in force", zap.String("meter", meter.SerialNumber))
			continue
		}

		for _, rateType := range []rest.RateType{rest.StandardUnitRates, rest.StandingCharges} {
			rates, err := app.Consumer.TariffRatesAt(ctx, meter, at, rateType)
			if err != nil {
				return errors.Wrapf(err, "failed to fetch %s for %s", rateType, meter.SerialNumber)
			}
			for _, r := range rates {
				validTo := "-"
				if r.ValidTo != nil {
					validTo = octopus.FormatTimestamp(*r.ValidTo)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					meter.SerialNumber, tariff.Code, rateType,
					r.ValueIncVAT.String(), r.ValueExcVAT.String(),
					octopus.FormatTimestamp(r.ValidFrom), validTo)
			}
		}
	}
	return errors.WithStack(w.Flush())
}

// openSinks creates the CSV sink plus InfluxDB and Kafka when configured.
func openSinks(ctx context.Context, cfg *config.Config, logger *zap.Logger) ([]export.Sink, error) {
	var sinks []export.Sink
	closeAll := func() {
		for _, s := range sinks {
			s.Close()
		}
	}

	if cfg.CSV.Path != "" {
		csvSink, err := export.NewCSVSink(cfg.CSV.Path)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, csvSink)
	}

	if cfg.Influx.URL != "" {
		influxSink, err := export.NewInfluxSink(ctx, export.InfluxConfig{
			URL:         cfg.Influx.URL,
			Token:       cfg.Influx.Token,
			Org:         cfg.Influx.Org,
			Bucket:      cfg.Influx.Bucket,
			Measurement: cfg.Influx.Measurement,
		}, logger)
		if err != nil {
			closeAll()
			return nil, err
		}
		sinks = append(sinks, influxSink)
	}

	if len(cfg.Kafka.Brokers) > 0 {
		kafkaSink, err := export.NewKafkaSink(export.KafkaConfig{
			Brokers:  cfg.Kafka.Brokers,
			Topic:    cfg.Kafka.Topic,
			ClientID: cfg.Kafka.ClientID,
		}, logger)
		if err != nil {
			closeAll()
			return nil, err
		}
		sinks = append(sinks, kafkaSink)
	}

	return sinks, nil
}

func truncateToMidnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
