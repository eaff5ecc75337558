package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mgazza/octopus-consumer/internal/config"
	"github.com/mgazza/octopus-consumer/internal/logging"
	"github.com/mgazza/octopus-consumer/octopus"
)

const usage = `Usage: %s [flags] <command>

Commands:
  meters       list the meters of the account
  consumption  export readings to CSV, InfluxDB and Kafka
  rates        show the unit rates and standing charges in force

Flags:
`

// envOrString returns the environment variable value if set, otherwise returns the default value.
func envOrString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

type command struct {
	Name        string
	Config      *config.Config
	Consumption ConsumptionOptions
	At          time.Time
}

func parseFlags(args []string, now time.Time, stderr io.Writer) (*command, error) {
	fs := flag.NewFlagSet("octopus-consumer", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, usage, fs.Name())
		fs.PrintDefaults()
	}

	configPath := fs.String("config", envOrString("OCTOPUS_CONFIG", ""), "YAML config file")
	apiKey := fs.String("apikey", "", "Octopus API key")
	account := fs.String("account", "", "Octopus account number")
	cacheDir := fs.String("cache", "", "Directory for HTTP cache ('disable' to disable, empty for temporary directory)")
	outCSV := fs.String("out", "", "Output CSV file (empty to skip)")
	logLevel := fs.String("log-level", "", "Log level")
	startTime := fs.String("start", "", "Start of the period (default: midnight before each meter's latest reading)")
	endTime := fs.String("end", "", "End of the period (default: now)")
	at := fs.String("at", "", "Time to show rates for (default: now)")
	serial := fs.String("serial", "", "Only export this meter")
	unit := fs.String("unit", "", "Unit for consumption: kWh or m3 (default: the meter's own)")
	groupBy := fs.String("group-by", "", "Aggregate readings by hour, day, week, month or quarter")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return nil, errors.New("expected exactly one command")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "apikey":
			cfg.APIKey = *apiKey
		case "account":
			cfg.AccountNumber = *account
		case "cache":
			cfg.CacheDir = *cacheDir
		case "out":
			cfg.CSV.Path = *outCSV
		case "log-level":
			cfg.Log.Level = *logLevel
		}
	})
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cmd := &command{Name: fs.Arg(0), Config: cfg, At: now}
	switch cmd.Name {
	case "meters":
	case "rates":
		if *at != "" {
			if cmd.At, err = octopus.ParseTimestamp(*at); err != nil {
				return nil, errors.Wrap(err, "invalid -at")
			}
		}
	case "consumption":
		opts := ConsumptionOptions{
			To:     now,
			Serial: *serial,
		}
		if *startTime != "" {
			if opts.From, err = octopus.ParseTimestamp(*startTime); err != nil {
				return nil, errors.Wrap(err, "invalid -start")
			}
		}
		if *endTime != "" {
			if opts.To, err = octopus.ParseTimestamp(*endTime); err != nil {
				return nil, errors.Wrap(err, "invalid -end")
			}
		}
		switch *unit {
		case "":
		case "kWh", "kwh":
			opts.Unit = octopus.KWh
		case "m3", "m³":
			opts.Unit = octopus.CubicMeters
		default:
			return nil, errors.Errorf("invalid -unit %q", *unit)
		}
		if *groupBy != "" {
			if opts.GroupBy, err = octopus.ParseAggregate(*groupBy); err != nil {
				return nil, errors.Wrap(err, "invalid -group-by")
			}
		}
		cmd.Consumption = opts
	default:
		fs.Usage()
		return nil, errors.Errorf("unknown command %q", cmd.Name)
	}

	return cmd, nil
}

func run(ctx context.Context, cmd *command, logger *zap.Logger) error {
	rt, err := newTransport(cmd.Config, logger)
	if err != nil {
		return err
	}
	app := NewApp(cmd.Config, logger, rt, os.Stdout)

	switch cmd.Name {
	case "meters":
		return app.RunMeters(ctx, cmd.At)
	case "rates":
		return app.RunRates(ctx, cmd.At)
	}

	sinks, err := openSinks(ctx, cmd.Config, logger)
	if err != nil {
		return err
	}
	defer func() {
		for _, s := range sinks {
			if err := s.Close(); err != nil {
				logger.Error("failed to close sink", zap.Error(err))
			}
		}
	}()
	return app.RunConsumption(ctx, cmd.Consumption, sinks)
}

func main() {
	cmd, err := parseFlags(os.Args[1:], time.Now(), os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatalf("%v", err)
	}

	logger, err := logging.New(logging.Config{Level: cmd.Config.Log.Level, Format: cmd.Config.Log.Format})
	if err != nil {
		log.Fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cmd, logger)
	stop()
	if err != nil {
		logger.Error("application error", zap.Error(err))
	}
	_ = logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}
