/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package channel enables access to a channel on a Fabric network.
//
// Invoke submits a state-changing chaincode call: it endorses the proposal,
// then orders the transaction while waiting for its commit event on the event
// peer. Query evaluates a read-only call on the endorsing peers.
package channel

import (
	reqContext "context"
	"sync"
	"time"

	"code.cloudfoundry.org/clock"
	"github.com/hyperledger/fabric-sdk-go/pkg/common/errors/multi"
	"github.com/hyperledger/fabric-sdk-go/pkg/common/logging"
	"github.com/kawaya-ledger/fabric-api/pkg/client/channel/invoke"
	"github.com/kawaya-ledger/fabric-api/pkg/client/identity"
	"github.com/kawaya-ledger/fabric-api/pkg/common/errors/status"
	"github.com/kawaya-ledger/fabric-api/pkg/common/providers/ledger"
	"github.com/kawaya-ledger/fabric-api/pkg/core/config"
	"github.com/kawaya-ledger/fabric-api/pkg/core/metrics"
	"github.com/kawaya-ledger/fabric-api/pkg/journal"
	"github.com/pkg/errors"
)

var logger = logging.NewLogger("fabapi/channel")

const (
	// FailedInvokeStatus is the outcome status of a transaction that was not committed VALID
	FailedInvokeStatus = 500
	// FailedInvokeMessage is the outcome message of a transaction that was not committed VALID
	FailedInvokeMessage = "Failed invoke"
	// EmptyResultMessage is reported when a query yields no responses
	EmptyResultMessage = "No payloads were returned"
)

// Providers groups the network collaborators of a client
type Providers struct {
	Credentials ledger.CredentialStore
	Proposals   ledger.ProposalSender
	Orderer     ledger.Broadcaster
	Events      ledger.EventSource
}

// Client enables access to a channel on a Fabric network.
//
// A client is bound to one channel, one user and a fixed set of peers. It is
// safe for concurrent use; every call builds its own request, transaction
// header and event subscription.
type Client struct {
	channelID string
	eventPeer string
	timeout   time.Duration

	identity  *identity.Context
	sender    ledger.ProposalSender
	endorser  *invoke.Endorser
	submitter *invoke.OrderSubmitter
	waiter    *invoke.CommitWaiter

	metrics *metrics.ClientMetrics
	journal journal.Recorder
	clock   clock.Clock
}

// New returns a Client for the channel described by cfg
func New(cfg config.FabricConfig, p Providers, opts ...ClientOption) (*Client, error) {
	if cfg.Channel == "" {
		return nil, errors.New("channel is required")
	}
	if cfg.EventPeer == "" {
		return nil, errors.New("event peer is required")
	}
	if cfg.CommitTimeout() <= 0 {
		return nil, errors.New("commit timeout must be positive")
	}

	idCtx, err := identity.New(p.Credentials, cfg.User)
	if err != nil {
		return nil, errors.WithMessage(err, "identity context creation failed")
	}
	endorser, err := invoke.NewEndorser(p.Proposals, cfg.EndorsingPeers)
	if err != nil {
		return nil, errors.WithMessage(err, "endorser creation failed")
	}
	submitter, err := invoke.NewOrderSubmitter(p.Orderer, cfg.Orderer)
	if err != nil {
		return nil, errors.WithMessage(err, "order submitter creation failed")
	}

	channelClient := Client{
		channelID: cfg.Channel,
		eventPeer: cfg.EventPeer,
		timeout:   cfg.CommitTimeout(),
		identity:  idCtx,
		sender:    p.Proposals,
		endorser:  endorser,
		submitter: submitter,
		metrics:   metrics.NewDiscardMetrics(),
		clock:     clock.NewClock(),
	}

	for _, param := range opts {
		if err := param(&channelClient); err != nil {
			return nil, errors.WithMessage(err, "failed to create channel client")
		}
	}

	channelClient.waiter, err = invoke.NewCommitWaiter(p.Events, invoke.WithClock(channelClient.clock))
	if err != nil {
		return nil, errors.WithMessage(err, "commit waiter creation failed")
	}

	return &channelClient, nil
}

// ChannelID returns the channel the client is bound to
func (cc *Client) ChannelID() string {
	return cc.channelID
}

// Invoke submits a state-changing chaincode call and waits for its commit.
//
// The outcome is successful (Status 200 with the decoded endorsement payload)
// only if the orderer accepted the transaction and it committed VALID. Any
// other ordering status or commit code, including TIMEOUT, produces a failed
// outcome (Status 500, "Failed invoke") with Order and Commit populated.
// Authentication failures, proposal rejections and transport failures are
// returned as status errors; ordering and event stream failures of the same
// invocation are joined in a multi.Errors.
func (cc *Client) Invoke(ctx reqContext.Context, request Request, options ...RequestOption) (*ledger.Outcome, error) {
	txnOpts, err := cc.prepareOpts(options...)
	if err != nil {
		return nil, err
	}
	if err := request.validate(); err != nil {
		return nil, status.NewWithCause(status.ClientStatus, status.InvalidRequest, "invalid request", err)
	}

	labels := []string{"chaincode", request.ChaincodeID, "Fcn", request.Fcn}
	cc.metrics.ExecutionsReceived.With(labels...).Add(1)
	start := time.Now()

	outcome, err := cc.invoke(ctx, request, txnOpts.Timeout)

	cc.metrics.ExecutionDuration.With(labels...).Observe(time.Since(start).Seconds())
	switch {
	case err != nil:
		cc.metrics.ExecutionsFailed.With(append(labels, "fail", failKind(err))...).Add(1)
	case outcome.Commit != nil && outcome.Commit.EventStatus == ledger.EventTimeout:
		cc.metrics.CommitTimeouts.With(labels...).Add(1)
	}
	cc.record(ctx, request, start, outcome, err)

	if err != nil {
		return nil, err
	}
	return outcome, nil
}

func (cc *Client) invoke(ctx reqContext.Context, request Request, timeout time.Duration) (*ledger.Outcome, error) {
	id, err := cc.identity.Identity(ctx)
	if err != nil {
		return nil, err
	}

	txh, err := cc.sender.CreateTransactionHeader(ctx, id)
	if err != nil {
		return nil, status.NewWithCause(status.AuthenticationStatus, status.Unknown, "creating transaction header failed", err)
	}
	txID := txh.TransactionID()

	req := &ledger.InvocationRequest{
		ChannelID:   cc.channelID,
		ChaincodeID: request.ChaincodeID,
		Fcn:         request.Fcn,
		Args:        append([]string(nil), request.Args...),
		TxnHeader:   txh,
	}

	endorsement, err := cc.endorser.Propose(ctx, id, req, ledger.Invoke)
	if err != nil {
		return &ledger.Outcome{TransactionID: txID}, err
	}

	sub, err := cc.waiter.Subscribe(ctx, id, cc.eventPeer, txID)
	if err != nil {
		return &ledger.Outcome{TransactionID: txID}, err
	}

	var (
		wg        sync.WaitGroup
		order     *ledger.OrderResult
		orderErr  error
		commit    *ledger.CommitResult
		commitErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		order, orderErr = cc.submitter.Submit(ctx, id, endorsement)
	}()
	go func() {
		defer wg.Done()
		commit, commitErr = sub.Await(ctx, timeout)
	}()
	wg.Wait()

	outcome := &ledger.Outcome{TransactionID: txID, Order: order, Commit: commit}
	if err := multi.New(orderErr, commitErr); err != nil {
		return outcome, err
	}

	if outcome.Successful() {
		outcome.Status = ledger.StatusOK
		outcome.Payload = decodePayload(endorsement.Responses[0].Payload)
		logger.Debugf("transaction [%s] committed", txID)
		return outcome, nil
	}

	outcome.Status = FailedInvokeStatus
	outcome.Message = FailedInvokeMessage
	logger.Warnf("transaction [%s] failed: order status %s, event status %s", txID, order.Status, commit.EventStatus)
	return outcome, nil
}

// Query evaluates a read-only chaincode call and returns the decoded payload
// of the first response. An empty payload decodes to nil.
func (cc *Client) Query(ctx reqContext.Context, request Request) (interface{}, error) {
	if err := request.validate(); err != nil {
		return nil, status.NewWithCause(status.ClientStatus, status.InvalidRequest, "invalid request", err)
	}

	labels := []string{"chaincode", request.ChaincodeID, "Fcn", request.Fcn}
	cc.metrics.QueriesReceived.With(labels...).Add(1)
	start := time.Now()

	payload, err := cc.query(ctx, request)

	cc.metrics.QueryDuration.With(labels...).Observe(time.Since(start).Seconds())
	if err != nil {
		cc.metrics.QueriesFailed.With(append(labels, "fail", failKind(err))...).Add(1)
		return nil, err
	}
	return payload, nil
}

func (cc *Client) query(ctx reqContext.Context, request Request) (interface{}, error) {
	id, err := cc.identity.Identity(ctx)
	if err != nil {
		return nil, err
	}

	req := &ledger.InvocationRequest{
		ChannelID:   cc.channelID,
		ChaincodeID: request.ChaincodeID,
		Fcn:         request.Fcn,
		Args:        append([]string(nil), request.Args...),
	}

	result, err := cc.endorser.Propose(ctx, id, req, ledger.Query)
	if err != nil {
		return nil, err
	}
	if len(result.Responses) == 0 {
		return nil, status.New(status.EmptyResultStatus, status.NoResponses.ToInt32(), EmptyResultMessage, nil)
	}
	return decodePayload(result.Responses[0].Payload), nil
}

func (cc *Client) prepareOpts(options ...RequestOption) (requestOptions, error) {
	txnOpts := requestOptions{Timeout: cc.timeout}
	for _, option := range options {
		if err := option(&txnOpts); err != nil {
			return txnOpts, status.NewWithCause(status.ClientStatus, status.InvalidRequest, "failed to read opts", err)
		}
	}
	return txnOpts, nil
}

func (cc *Client) record(ctx reqContext.Context, request Request, start time.Time, outcome *ledger.Outcome, err error) {
	if cc.journal == nil {
		return
	}
	entry := journal.NewEntry(request.ChaincodeID, request.Fcn, request.Args, start, outcome, err)
	if rerr := cc.journal.Record(ctx, entry); rerr != nil {
		logger.Warnf("recording outcome of transaction [%s] failed: %s", entry.TransactionID, rerr)
	}
}

func failKind(err error) string {
	if s, ok := status.FromError(err); ok {
		return s.Group.String()
	}
	return status.UnknownStatus.String()
}
