/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package ledger defines the data model of the transaction submission
// protocol and the narrow interfaces through which the core reaches the
// credential store, the endorsing peers, the ordering service and the
// event peer.
package ledger

import (
	reqContext "context"
)

// StatusOK is the proposal response status of a successful endorsement
const StatusOK = 200

// TransactionID identifies a ledger transaction
type TransactionID string

// EmptyTransactionID represents a non-existing transaction (usually due to error).
const EmptyTransactionID = TransactionID("")

// Identity is an enrolled credential bound to a configured user name.
type Identity struct {
	User     string
	MSPID    string
	Enrolled bool
	// Material is the opaque signing material understood by the network
	// implementation; the core never inspects it.
	Material interface{}
}

// TransactionHeader provides a handle to transaction metadata.
type TransactionHeader interface {
	TransactionID() TransactionID
}

// Mode selects how a proposal is used after endorsement
type Mode int

const (
	// Query proposals are read-only; the first payload is the result
	Query Mode = iota
	// Invoke proposals are ordered and committed
	Invoke
)

func (m Mode) String() string {
	if m == Invoke {
		return "invoke"
	}
	return "query"
}

// InvocationRequest is a chaincode function call with its arguments.
// TxnHeader is set only for state-changing calls.
type InvocationRequest struct {
	ChannelID   string
	ChaincodeID string
	Fcn         string
	Args        []string
	TxnHeader   TransactionHeader
}

// TransactionID returns the assigned transaction id, if any
func (r *InvocationRequest) TransactionID() TransactionID {
	if r.TxnHeader == nil {
		return EmptyTransactionID
	}
	return r.TxnHeader.TransactionID()
}

// ByteArgs returns the arguments in wire form, order preserved
func (r *InvocationRequest) ByteArgs() [][]byte {
	args := make([][]byte, len(r.Args))
	for i, a := range r.Args {
		args[i] = []byte(a)
	}
	return args
}

// ProposalResponse is the response of one endorsing peer
type ProposalResponse struct {
	Endorser string
	Status   int32
	Message  string
	// Payload is the chaincode response payload
	Payload []byte
	// Raw is the signed proposal response as returned by the network
	Raw interface{}
}

// EndorsementResult holds every proposal response together with the signed proposal
type EndorsementResult struct {
	TransactionID TransactionID
	Responses     []*ProposalResponse
	// Proposal is the signed proposal as built by the network implementation
	Proposal interface{}
}

// Successful reports whether the first response is present and OK
func (r *EndorsementResult) Successful() bool {
	return r != nil && len(r.Responses) > 0 && r.Responses[0] != nil && r.Responses[0].Status == StatusOK
}

// OrderStatus is the status returned by the ordering service
type OrderStatus string

const (
	// OrderSuccess the transaction was accepted for sequencing
	OrderSuccess OrderStatus = "SUCCESS"
	// OrderFailure the ordering service refused the transaction
	OrderFailure OrderStatus = "FAILURE"
)

// OrderResult is the ordering service acknowledgement
type OrderResult struct {
	Status  OrderStatus
	Orderer string
	// Info carries the orderer's status text for a failure
	Info string
}

// Commit event statuses. Any other Fabric validation code name is reported verbatim.
const (
	EventValid   = "VALID"
	EventInvalid = "INVALID"
	// EventTimeout is synthesized locally when no commit event arrived in time
	EventTimeout = "TIMEOUT"
)

// CommitResult is the terminal status of a commit wait
type CommitResult struct {
	EventStatus   string
	TransactionID TransactionID
	BlockNumber   uint64
}

// Outcome is the join of ordering and commit for a state-changing call
type Outcome struct {
	TransactionID TransactionID
	Order         *OrderResult
	Commit        *CommitResult
	// Payload is the decoded endorsement payload, set on success only
	Payload interface{}
	Status  int
	Message string
}

// Successful is true iff the orderer accepted the transaction and it committed VALID
func (o *Outcome) Successful() bool {
	return o != nil && o.Order != nil && o.Commit != nil &&
		o.Order.Status == OrderSuccess && o.Commit.EventStatus == EventValid
}

// CredentialStore yields identities from the external credential store.
// A missing user is reported as (nil, nil).
type CredentialStore interface {
	Lookup(ctx reqContext.Context, user string) (*Identity, error)
}

// ProposalSender creates transaction headers and sends proposals to endorsing peers
type ProposalSender interface {
	CreateTransactionHeader(ctx reqContext.Context, id *Identity) (TransactionHeader, error)
	SendProposal(ctx reqContext.Context, id *Identity, request *InvocationRequest, targets []string) (*EndorsementResult, error)
}

// Broadcaster forwards an endorsed transaction to the ordering service
type Broadcaster interface {
	Broadcast(ctx reqContext.Context, id *Identity, endorsement *EndorsementResult, orderer string) (*OrderResult, error)
}

// TxStatusEvent contains the data for a transaction status event
type TxStatusEvent struct {
	TxID        string
	Status      string
	BlockNumber uint64
	SourceURL   string
}

// Registration is a handle returned from RegisterTxStatusEvent
type Registration interface{}

// EventStream is an open connection to one peer's event service
type EventStream interface {
	// RegisterTxStatusEvent registers interest in one transaction id. The
	// returned channel is closed when Unregister is called or the stream dies.
	RegisterTxStatusEvent(txID string) (Registration, <-chan *TxStatusEvent, error)
	// Unregister removes the registration and closes its channel
	Unregister(reg Registration)
	// Errors reports transport failures of the stream
	Errors() <-chan error
	// Close releases the connection
	Close()
}

// EventSource opens event streams on a peer
type EventSource interface {
	Connect(ctx reqContext.Context, id *Identity, peer string) (EventStream, error)
}
