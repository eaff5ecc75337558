package export

import (
	"context"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type pointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

// InfluxConfig selects the InfluxDB v2 bucket records are written to.
type InfluxConfig struct {
	URL         string
	Token       string
	Org         string
	Bucket      string
	Measurement string
}

// InfluxSink writes one point per interval, tagged with the meter.
type InfluxSink struct {
	client      influxdb2.Client
	writer      pointWriter
	measurement string
	logger      *zap.Logger
}

// NewInfluxSink connects to InfluxDB and verifies it is reachable.
func NewInfluxSink(ctx context.Context, cfg InfluxConfig, logger *zap.Logger) (*InfluxSink, error) {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	if _, err := client.Health(ctx); err != nil {
		client.Close()
		return nil, errors.Wrap(err, "failed to connect to InfluxDB")
	}

	logger.Info("connected to InfluxDB", zap.String("url", cfg.URL), zap.String("bucket", cfg.Bucket))
	return &InfluxSink{
		client:      client,
		writer:      client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		measurement: cfg.Measurement,
		logger:      logger,
	}, nil
}

func (s *InfluxSink) Write(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	points := make([]*write.Point, 0, len(records))
	for _, r := range records {
		points = append(points, s.point(r))
	}
	if err := s.writer.WritePoint(ctx, points...); err != nil {
		return errors.Wrap(err, "write points")
	}
	s.logger.Debug("wrote points", zap.Int("count", len(points)))
	return nil
}

func (s *InfluxSink) point(r Record) *write.Point {
	tags := map[string]string{
		"meter_point":   r.Meter.MeterPoint.ID,
		"serial_number": r.Meter.SerialNumber,
		"energy_type":   string(r.Meter.EnergyType),
		"unit":          string(r.Unit),
	}
	if r.Meter.Direction != "" {
		tags["direction"] = string(r.Meter.Direction)
	}

	fields := map[string]interface{}{
		"consumption":      r.Consumption,
		"interval_seconds": int64(r.IntervalEnd.Sub(r.IntervalStart).Seconds()),
	}
	if r.UnitRate != nil {
		fields["unit_rate"] = r.UnitRate.InexactFloat64()
	}
	if cost, ok := r.Cost(); ok {
		fields["cost"] = cost.InexactFloat64()
	}

	return write.NewPoint(s.measurement, tags, fields, r.IntervalStart)
}

func (s *InfluxSink) Close() error {
	if s.client != nil {
		s.client.Close()
	}
	return nil
}
