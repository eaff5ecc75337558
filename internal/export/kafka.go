package export

import (
	"context"
	"encoding/json"

	"github.com/Shopify/sarama"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mgazza/octopus-consumer/octopus"
)

// KafkaConfig selects the brokers and topic records are published to.
type KafkaConfig struct {
	Brokers  []string
	Topic    string
	ClientID string
}

// KafkaSink publishes one JSON message per interval, keyed by meter so the
// readings of a meter stay on one partition.
type KafkaSink struct {
	producer sarama.SyncProducer
	topic    string
	logger   *zap.Logger
}

type kafkaMessage struct {
	MeterPoint    string  `json:"meter_point"`
	SerialNumber  string  `json:"serial_number"`
	EnergyType    string  `json:"energy_type"`
	Direction     string  `json:"direction,omitempty"`
	IntervalStart string  `json:"interval_start"`
	IntervalEnd   string  `json:"interval_end"`
	Consumption   float64 `json:"consumption"`
	Unit          string  `json:"unit"`
	UnitRate      *string `json:"unit_rate,omitempty"`
	Cost          *string `json:"cost,omitempty"`
}

func NewKafkaSink(cfg KafkaConfig, logger *zap.Logger) (*KafkaSink, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.ClientID = cfg.ClientID
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaConfig)
	if err != nil {
		return nil, errors.Wrap(err, "create kafka producer")
	}
	return NewKafkaSinkWithProducer(producer, cfg.Topic, logger), nil
}

func NewKafkaSinkWithProducer(producer sarama.SyncProducer, topic string, logger *zap.Logger) *KafkaSink {
	return &KafkaSink{producer: producer, topic: topic, logger: logger}
}

func (s *KafkaSink) Write(_ context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	msgs := make([]*sarama.ProducerMessage, 0, len(records))
	for _, r := range records {
		value, err := json.Marshal(newKafkaMessage(r))
		if err != nil {
			return errors.WithStack(err)
		}
		msgs = append(msgs, &sarama.ProducerMessage{
			Topic: s.topic,
			Key:   sarama.StringEncoder(r.Meter.MeterPoint.ID + "/" + r.Meter.SerialNumber),
			Value: sarama.ByteEncoder(value),
		})
	}

	if err := s.producer.SendMessages(msgs); err != nil {
		return errors.Wrap(err, "send messages")
	}
	s.logger.Debug("published records", zap.String("topic", s.topic), zap.Int("count", len(msgs)))
	return nil
}

func newKafkaMessage(r Record) kafkaMessage {
	msg := kafkaMessage{
		MeterPoint:    r.Meter.MeterPoint.ID,
		SerialNumber:  r.Meter.SerialNumber,
		EnergyType:    string(r.Meter.EnergyType),
		Direction:     string(r.Meter.Direction),
		IntervalStart: octopus.FormatTimestamp(r.IntervalStart),
		IntervalEnd:   octopus.FormatTimestamp(r.IntervalEnd),
		Consumption:   r.Consumption,
		Unit:          string(r.Unit),
	}
	if r.UnitRate != nil {
		rate := r.UnitRate.String()
		msg.UnitRate = &rate
	}
	if cost, ok := r.Cost(); ok {
		c := cost.String()
		msg.Cost = &c
	}
	return msg
}

func (s *KafkaSink) Close() error {
	return errors.Wrap(s.producer.Close(), "close kafka producer")
}
