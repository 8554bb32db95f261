/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package invoke

import (
	reqContext "context"
	"sync"
	"sync/atomic"
	"time"

	"code.cloudfoundry.org/clock"
	"github.com/kawaya-ledger/fabric-api/pkg/common/errors/status"
	"github.com/kawaya-ledger/fabric-api/pkg/common/providers/ledger"
	"github.com/pkg/errors"
)

// CommitWaiter waits for the commit event of a transaction on the event peer
type CommitWaiter struct {
	source ledger.EventSource
	clock  clock.Clock
}

// WaiterOption describes a functional parameter for NewCommitWaiter
type WaiterOption func(*CommitWaiter)

// WithClock sets the clock used for the commit timer
func WithClock(c clock.Clock) WaiterOption {
	return func(w *CommitWaiter) {
		w.clock = c
	}
}

// NewCommitWaiter returns a waiter using the given event source
func NewCommitWaiter(source ledger.EventSource, opts ...WaiterOption) (*CommitWaiter, error) {
	if source == nil {
		return nil, errors.New("event source is required")
	}
	w := &CommitWaiter{source: source, clock: clock.NewClock()}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// WaitForCommit subscribes and waits. See Subscription.Await.
func (w *CommitWaiter) WaitForCommit(ctx reqContext.Context, id *ledger.Identity, peer string, txID ledger.TransactionID, timeout time.Duration) (*ledger.CommitResult, error) {
	sub, err := w.Subscribe(ctx, id, peer, txID)
	if err != nil {
		return nil, err
	}
	return sub.Await(ctx, timeout)
}

// Subscribe connects to the event peer and registers for the transaction.
// On success the subscription is LISTENING; the caller must call Await or Close.
func (w *CommitWaiter) Subscribe(ctx reqContext.Context, id *ledger.Identity, peer string, txID ledger.TransactionID) (*Subscription, error) {
	if txID == ledger.EmptyTransactionID {
		return nil, status.New(status.ClientStatus, status.InvalidRequest.ToInt32(), "transaction id is required", nil)
	}

	sub := &Subscription{txID: txID, peer: peer, clock: w.clock}
	sub.setState(Subscribing)

	stream, err := w.source.Connect(ctx, id, peer)
	if err != nil {
		return nil, status.NewFromGRPCError(status.EventStreamStatus, "connecting to event peer "+peer+" failed", err)
	}

	reg, notifier, err := stream.RegisterTxStatusEvent(string(txID))
	if err != nil {
		stream.Close()
		return nil, status.NewFromGRPCError(status.EventStreamStatus, "registering for transaction status failed", err)
	}

	sub.stream = stream
	sub.reg = reg
	sub.notifier = notifier
	sub.setState(Listening)

	logger.Debugf("listening for transaction [%s] on [%s]", txID, peer)
	return sub, nil
}

// Subscription is a registration for one transaction's commit event
type Subscription struct {
	txID  ledger.TransactionID
	peer  string
	clock clock.Clock

	stream   ledger.EventStream
	reg      ledger.Registration
	notifier <-chan *ledger.TxStatusEvent

	state    int32
	once     sync.Once
	teardown sync.Once
	result   *ledger.CommitResult
	err      error
}

// TransactionID returns the transaction the subscription listens for
func (s *Subscription) TransactionID() ledger.TransactionID {
	return s.txID
}

// State returns the current state
func (s *Subscription) State() State {
	return State(atomic.LoadInt32(&s.state))
}

func (s *Subscription) setState(st State) {
	atomic.StoreInt32(&s.state, int32(st))
}

// Await blocks until the commit event arrives, the timeout elapses, the
// stream fails or ctx is done, whichever happens first.
//
// An event resolves with its validation code and a timeout resolves with
// TIMEOUT; neither is an error. Stream failures and cancellation return an
// EventStreamStatus error. The subscription is torn down before Await returns.
// Await resolves only once: later calls return the first result.
func (s *Subscription) Await(ctx reqContext.Context, timeout time.Duration) (*ledger.CommitResult, error) {
	s.once.Do(func() {
		s.result, s.err = s.wait(ctx, timeout)
	})
	return s.result, s.err
}

// Close tears the subscription down without waiting
func (s *Subscription) Close() {
	s.teardown.Do(func() {
		s.stream.Unregister(s.reg)
		s.stream.Close()
	})
}

func (s *Subscription) wait(ctx reqContext.Context, timeout time.Duration) (*ledger.CommitResult, error) {
	defer s.Close()

	if timeout <= 0 {
		s.setState(Failed)
		return nil, status.New(status.ClientStatus, status.InvalidRequest.ToInt32(), "commit timeout must be positive", nil)
	}

	timer := s.clock.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case event, ok := <-s.notifier:
			if !ok {
				s.setState(Failed)
				return nil, status.New(status.EventStreamStatus, status.StreamClosed.ToInt32(),
					"event stream closed before transaction "+string(s.txID)+" was seen", nil)
			}
			if event == nil || event.TxID != string(s.txID) {
				continue
			}
			s.setState(Resolved)
			logger.Debugf("transaction [%s] committed with status %s in block %d", s.txID, event.Status, event.BlockNumber)
			return &ledger.CommitResult{EventStatus: event.Status, TransactionID: s.txID, BlockNumber: event.BlockNumber}, nil

		case <-timer.C():
			s.setState(Expired)
			logger.Warnf("no commit event for transaction [%s] from [%s] within %s", s.txID, s.peer, timeout)
			return &ledger.CommitResult{EventStatus: ledger.EventTimeout, TransactionID: s.txID}, nil

		case err, ok := <-s.stream.Errors():
			s.setState(Failed)
			if !ok {
				return nil, status.New(status.EventStreamStatus, status.StreamClosed.ToInt32(), "event stream closed", nil)
			}
			return nil, status.NewFromGRPCError(status.EventStreamStatus, "event stream failed", err)

		case <-ctx.Done():
			s.setState(Failed)
			return nil, status.NewWithCause(status.EventStreamStatus, status.Cancelled, "commit wait abandoned", ctx.Err())
		}
	}
}
