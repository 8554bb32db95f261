/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package channel

import (
	"time"

	"code.cloudfoundry.org/clock"
	"github.com/kawaya-ledger/fabric-api/pkg/core/metrics"
	"github.com/kawaya-ledger/fabric-api/pkg/journal"
	"github.com/pkg/errors"
)

// Request contains the parameters of a chaincode call.
// Args are passed to the chaincode in order, unmodified.
type Request struct {
	ChaincodeID string
	Fcn         string
	Args        []string
}

func (r Request) validate() error {
	if r.ChaincodeID == "" {
		return errors.New("chaincode ID is required")
	}
	if r.Fcn == "" {
		return errors.New("function is required")
	}
	return nil
}

// requestOptions allows the caller to adjust a single request
type requestOptions struct {
	Timeout time.Duration
}

// RequestOption func for each Opts argument
type RequestOption func(opts *requestOptions) error

// WithTimeout overrides the commit wait of a single invocation
func WithTimeout(timeout time.Duration) RequestOption {
	return func(o *requestOptions) error {
		if timeout <= 0 {
			return errors.Errorf("timeout must be positive, got %s", timeout)
		}
		o.Timeout = timeout
		return nil
	}
}

// ClientOption describes a functional parameter for the New constructor
type ClientOption func(*Client) error

// WithMetrics records client metrics
func WithMetrics(m *metrics.ClientMetrics) ClientOption {
	return func(c *Client) error {
		if m == nil {
			return errors.New("metrics are nil")
		}
		c.metrics = m
		return nil
	}
}

// WithJournal records the outcome of every invocation
func WithJournal(r journal.Recorder) ClientOption {
	return func(c *Client) error {
		c.journal = r
		return nil
	}
}

// WithClock sets the clock of the commit timer
func WithClock(cl clock.Clock) ClientOption {
	return func(c *Client) error {
		c.clock = cl
		return nil
	}
}
