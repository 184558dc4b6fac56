package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/NeuralTrust/TrustShield/pkg/common"
	"github.com/NeuralTrust/TrustShield/pkg/types"
	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/mitchellh/mapstructure"
)

type KafkaConfig struct {
	Host  string `mapstructure:"host"`
	Port  string `mapstructure:"port"`
	Topic string `mapstructure:"topic"`
}

func DecodeKafkaConfig(settings map[string]interface{}) (KafkaConfig, error) {
	var conf KafkaConfig
	if err := mapstructure.Decode(settings, &conf); err != nil {
		return conf, fmt.Errorf("invalid kafka config: %w", err)
	}
	if conf.Host == "" {
		return conf, errors.New("kafka host is required")
	}
	if conf.Port == "" {
		return conf, errors.New("kafka port is required")
	}
	if conf.Topic == "" {
		conf.Topic = common.ReportingTopic
	}
	return conf, nil
}

// KafkaReporter publishes events to a topic keyed by the agent token.
type KafkaReporter struct {
	cfg      KafkaConfig
	producer *kafka.Producer
}

func NewKafkaReporter(conf KafkaConfig) (*KafkaReporter, error) {
	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": fmt.Sprintf("%s:%s", conf.Host, conf.Port),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return &KafkaReporter{cfg: conf, producer: producer}, nil
}

func (k *KafkaReporter) Report(ctx context.Context, token Token, event types.Event) (ReportingResult, error) {
	if k.producer == nil {
		return Failed(ErrorUnknown), errors.New("kafka producer is not initialized")
	}
	data, err := json.Marshal(event)
	if err != nil {
		return Failed(ErrorUnknown), fmt.Errorf("failed to marshal event: %w", err)
	}

	deliveryChan := make(chan kafka.Event, 1)
	err = k.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &k.cfg.Topic, Partition: kafka.PartitionAny},
		Key:            []byte(token.String()),
		Value:          data,
		Headers:        []kafka.Header{{Key: "type", Value: []byte(string(event.Type()))}},
	}, deliveryChan)
	if err != nil {
		return Failed(ErrorUnknown), fmt.Errorf("failed to produce message: %w", err)
	}

	select {
	case <-ctx.Done():
		return Failed(ErrorTimeout), ctx.Err()
	case e := <-deliveryChan:
		m, ok := e.(*kafka.Message)
		if !ok {
			return Failed(ErrorUnknown), fmt.Errorf("unexpected delivery event %T", e)
		}
		if m.TopicPartition.Error != nil {
			return Failed(ErrorUnknown), fmt.Errorf("delivery failed: %w", m.TopicPartition.Error)
		}
	}
	return Succeeded(), nil
}

func (k *KafkaReporter) Close() {
	if k.producer != nil {
		k.producer.Flush(5000)
		k.producer.Close()
	}
}
