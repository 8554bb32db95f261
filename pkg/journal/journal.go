/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package journal records the outcome of every invocation.
//
// Recording is best effort: a recorder failure is logged by the caller and
// never changes the result returned to the client.
package journal

import (
	reqContext "context"
	"time"

	"github.com/google/uuid"
	"github.com/hyperledger/fabric-sdk-go/pkg/common/errors/multi"
	"github.com/hyperledger/fabric-sdk-go/pkg/common/logging"
	"github.com/kawaya-ledger/fabric-api/pkg/common/errors/status"
	"github.com/kawaya-ledger/fabric-api/pkg/common/providers/ledger"
	"github.com/kawaya-ledger/fabric-api/pkg/core/config"
	"github.com/pkg/errors"
)

var logger = logging.NewLogger("fabapi/journal")

// Entry describes one invocation
type Entry struct {
	ID            string    `json:"id"`
	TransactionID string    `json:"transactionId"`
	ChaincodeID   string    `json:"chaincodeId"`
	Fcn           string    `json:"fcn"`
	Args          []string  `json:"args"`
	OrderStatus   string    `json:"orderStatus,omitempty"`
	EventStatus   string    `json:"eventStatus,omitempty"`
	Status        int       `json:"status"`
	Error         string    `json:"error,omitempty"`
	Started       time.Time `json:"started"`
	// DurationMillis is the wall time of the invocation
	DurationMillis int64 `json:"durationMs"`
}

// NewEntry builds the entry for a finished invocation. outcome may be nil when
// the invocation failed before ordering.
func NewEntry(chaincodeID, fcn string, args []string, started time.Time, outcome *ledger.Outcome, err error) *Entry {
	e := &Entry{
		ID:             uuid.New().String(),
		ChaincodeID:    chaincodeID,
		Fcn:            fcn,
		Args:           append([]string(nil), args...),
		Started:        started.UTC(),
		DurationMillis: time.Since(started).Milliseconds(),
	}
	if outcome != nil {
		e.TransactionID = string(outcome.TransactionID)
		e.Status = outcome.Status
		if outcome.Order != nil {
			e.OrderStatus = string(outcome.Order.Status)
		}
		if outcome.Commit != nil {
			e.EventStatus = outcome.Commit.EventStatus
		}
	}
	if err != nil {
		e.Error = err.Error()
		e.Status = status.HTTPCode(err)
	}
	return e
}

// Recorder stores invocation entries
type Recorder interface {
	Record(ctx reqContext.Context, entry *Entry) error
	Close() error
}

// Multi fans entries out to every recorder
type Multi []Recorder

// Record hands the entry to every recorder, even when one fails
func (m Multi) Record(ctx reqContext.Context, entry *Entry) error {
	var errs error
	for _, r := range m {
		errs = multi.Append(errs, r.Record(ctx, entry))
	}
	return errs
}

// Close closes every recorder
func (m Multi) Close() error {
	var errs error
	for _, r := range m {
		errs = multi.Append(errs, r.Close())
	}
	return errs
}

// New opens the recorders enabled in cfg. With none enabled the returned
// Multi is empty and records nothing.
func New(ctx reqContext.Context, cfg config.JournalConfig) (Multi, error) {
	var recorders Multi

	if cfg.Postgres.DSN != "" {
		pg, err := NewPostgresRecorder(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, errors.WithMessage(err, "postgres journal")
		}
		recorders = append(recorders, pg)
		logger.Infof("recording outcomes to postgres")
	}

	if len(cfg.Kafka.Brokers) > 0 {
		k, err := NewKafkaRecorder(cfg.Kafka)
		if err != nil {
			if cerr := recorders.Close(); cerr != nil {
				logger.Warnf("closing journal failed: %s", cerr)
			}
			return nil, errors.WithMessage(err, "kafka journal")
		}
		recorders = append(recorders, k)
		logger.Infof("recording outcomes to kafka topic %s at %v", cfg.Kafka.Topic, cfg.Kafka.Brokers)
	}

	return recorders, nil
}
