/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package journal

import (
	reqContext "context"
	"encoding/json"
	"time"

	"github.com/kawaya-ledger/fabric-api/pkg/core/config"
	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
)

const (
	kafkaWriteTimeout = 5 * time.Second
	// entries are written one at a time
	kafkaBatchSize           = 1
	defaultKafkaBatchTimeout = 10 * time.Millisecond
)

type messageWriter interface {
	WriteMessages(ctx reqContext.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaRecorder publishes entries as JSON, keyed by transaction id so that
// every entry of a transaction lands on the same partition
type KafkaRecorder struct {
	writer messageWriter
	topic  string
}

// NewKafkaRecorder returns a recorder writing to cfg.Topic
func NewKafkaRecorder(cfg config.KafkaConfig) (*KafkaRecorder, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return nil, errors.New("kafka journal configuration incomplete: both brokers and topic are required")
	}

	batchTimeout := cfg.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = defaultKafkaBatchTimeout
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    kafkaBatchSize,
		BatchTimeout: batchTimeout,
		RequiredAcks: kafka.RequireOne,
		Async:        cfg.Async,
		WriteTimeout: kafkaWriteTimeout,
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			logger.Errorf("kafka writer: "+msg, args...)
		}),
	}
	if cfg.Async {
		w.Completion = logCompletion
	}
	return &KafkaRecorder{writer: w, topic: cfg.Topic}, nil
}

func logCompletion(messages []kafka.Message, err error) {
	if err == nil {
		return
	}
	for _, m := range messages {
		logger.Warnf("publishing journal entry [%s] failed: %s", m.Key, err)
	}
}

// Record publishes the entry
func (r *KafkaRecorder) Record(ctx reqContext.Context, e *Entry) error {
	value, err := json.Marshal(e)
	if err != nil {
		return errors.Wrap(err, "marshalling journal entry failed")
	}

	key := e.TransactionID
	if key == "" {
		key = e.ID
	}

	if err := r.writer.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: value}); err != nil {
		return errors.Wrapf(err, "publishing outcome of transaction [%s] to %s failed", e.TransactionID, r.topic)
	}
	return nil
}

// Close flushes pending messages and closes the writer
func (r *KafkaRecorder) Close() error {
	return r.writer.Close()
}
