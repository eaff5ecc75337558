package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/mgazza/octopus-consumer/octopus"
)

var csvHeader = []string{
	"Interval_Start",
	"Interval_End",
	"Meter_Point",
	"Serial_Number",
	"Energy_Type",
	"Direction",
	"Consumption",
	"Unit",
	"Unit_Rate",
	"PenceCost",
}

// CSVSink writes records to a CSV file, one row per interval.
type CSVSink struct {
	file   *os.File
	writer *csv.Writer
}

// NewCSVSink creates (or truncates) path and writes the header.
func NewCSVSink(path string) (*CSVSink, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrap(err, "create csv")
	}
	s := &CSVSink{file: file, writer: csv.NewWriter(file)}
	if err := s.writer.Write(csvHeader); err != nil {
		file.Close()
		return nil, errors.Wrap(err, "write csv header")
	}
	return s, nil
}

func (s *CSVSink) Write(_ context.Context, records []Record) error {
	if err := writeRows(s.writer, records); err != nil {
		return err
	}
	s.writer.Flush()
	return errors.Wrap(s.writer.Error(), "write csv")
}

func (s *CSVSink) Close() error {
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		s.file.Close()
		return errors.Wrap(err, "flush csv")
	}
	return errors.Wrap(s.file.Close(), "close csv")
}

// WriteCSV writes the header and records to w.
func WriteCSV(w io.Writer, records []Record) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return errors.WithStack(err)
	}
	if err := writeRows(writer, records); err != nil {
		return err
	}
	writer.Flush()
	return errors.WithStack(writer.Error())
}

func writeRows(writer *csv.Writer, records []Record) error {
	for _, r := range records {
		cost, ok := r.Cost()
		record := []string{
			octopus.FormatTimestamp(r.IntervalStart),
			octopus.FormatTimestamp(r.IntervalEnd),
			r.Meter.MeterPoint.ID,
			r.Meter.SerialNumber,
			string(r.Meter.EnergyType),
			string(r.Meter.Direction),
			formatFloat(r.Consumption, 4),
			string(r.Unit),
			formatDecimal(r.UnitRate, 3),
			formatDecimal(optional(cost, ok), 2),
		}
		if err := writer.Write(record); err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}

func formatFloat(val float64, precision int) string {
	return fmt.Sprintf("%.*f", precision, val)
}

func formatDecimal(val *decimal.Decimal, places int32) string {
	if val == nil {
		return "NaN"
	}
	return val.StringFixed(places)
}

func optional(d decimal.Decimal, ok bool) *decimal.Decimal {
	if !ok {
		return nil
	}
	return &d
}
