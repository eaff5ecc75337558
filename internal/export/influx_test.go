package export

import (
	"context"
	"errors"
	"testing"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakePointWriter struct {
	points []*write.Point
	err    error
}

func (f *fakePointWriter) WritePoint(_ context.Context, point ...*write.Point) error {
	f.points = append(f.points, point...)
	return f.err
}

func TestInfluxSink(t *testing.T) {
	writer := &fakePointWriter{}
	sink := &InfluxSink{writer: writer, measurement: "octopus_consumption", logger: zap.NewNop()}

	records := testRecords()
	require.NoError(t, sink.Write(context.Background(), records))
	require.Len(t, writer.points, 2)

	p := writer.points[0]
	require.Equal(t, "octopus_consumption", p.Name())
	require.True(t, records[0].IntervalStart.Equal(p.Time()))

	tags := map[string]string{}
	for _, tag := range p.TagList() {
		tags[tag.Key] = tag.Value
	}
	require.Equal(t, map[string]string{
		"meter_point":   "2000024512368",
		"serial_number": "18L2345678",
		"energy_type":   "electricity",
		"direction":     "import",
		"unit":          "kWh",
	}, tags)

	fields := map[string]any{}
	for _, field := range p.FieldList() {
		fields[field.Key] = field.Value
	}
	require.Equal(t, 0.5, fields["consumption"])
	require.Equal(t, int64(1800), fields["interval_seconds"])
	require.InDelta(t, 24.567, fields["unit_rate"], 1e-9)
	require.InDelta(t, 12.2835, fields["cost"], 1e-9)

	unpriced := map[string]any{}
	for _, field := range writer.points[1].FieldList() {
		unpriced[field.Key] = field.Value
	}
	require.NotContains(t, unpriced, "unit_rate")
	require.NotContains(t, unpriced, "cost")

	require.NoError(t, sink.Close())
}

func TestInfluxSinkEmpty(t *testing.T) {
	writer := &fakePointWriter{}
	sink := &InfluxSink{writer: writer, measurement: "m", logger: zap.NewNop()}
	require.NoError(t, sink.Write(context.Background(), nil))
	require.Empty(t, writer.points)
}

func TestInfluxSinkError(t *testing.T) {
	writer := &fakePointWriter{err: errors.New("bucket not found")}
	sink := &InfluxSink{writer: writer, measurement: "m", logger: zap.NewNop()}
	err := sink.Write(context.Background(), testRecords())
	require.ErrorContains(t, err, "bucket not found")
}
