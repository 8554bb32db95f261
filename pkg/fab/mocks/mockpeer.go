/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package mocks

import (
	reqContext "context"
	"fmt"
	"sync"

	"github.com/kawaya-ledger/fabric-api/pkg/common/providers/ledger"
)

// MockTxnHeader is a transaction header with a fixed id
type MockTxnHeader struct {
	ID ledger.TransactionID
}

// TransactionID returns the header's id
func (h *MockTxnHeader) TransactionID() ledger.TransactionID {
	return h.ID
}

// MockPeer is a mock endorsing peer. Every target answers with the same
// Status and Payload.
type MockPeer struct {
	Status  int32
	Message string
	Payload []byte
	Error   error
	// NoResponses makes SendProposal return an empty result
	NoResponses bool

	mutex     sync.Mutex
	headers   int
	proposals []*ledger.InvocationRequest
	targets   [][]string
}

// NewMockPeer returns a peer that endorses with status 200 and the given payload
func NewMockPeer(payload []byte) *MockPeer {
	return &MockPeer{Status: ledger.StatusOK, Payload: payload}
}

// CreateTransactionHeader returns a header with a sequential id
func (p *MockPeer) CreateTransactionHeader(ctx reqContext.Context, id *ledger.Identity) (ledger.TransactionHeader, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.headers++
	return &MockTxnHeader{ID: ledger.TransactionID(fmt.Sprintf("txid-%d", p.headers))}, nil
}

// SendProposal records the request and answers for every target
func (p *MockPeer) SendProposal(ctx reqContext.Context, id *ledger.Identity, request *ledger.InvocationRequest, targets []string) (*ledger.EndorsementResult, error) {
	p.mutex.Lock()
	p.proposals = append(p.proposals, request)
	p.targets = append(p.targets, targets)
	p.mutex.Unlock()

	if p.Error != nil {
		return nil, p.Error
	}

	result := &ledger.EndorsementResult{TransactionID: request.TransactionID()}
	if p.NoResponses {
		return result, nil
	}
	for _, t := range targets {
		result.Responses = append(result.Responses, &ledger.ProposalResponse{
			Endorser: t,
			Status:   p.Status,
			Message:  p.Message,
			Payload:  p.Payload,
		})
	}
	return result, nil
}

// Proposals returns the proposals received so far
func (p *MockPeer) Proposals() []*ledger.InvocationRequest {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return append([]*ledger.InvocationRequest(nil), p.proposals...)
}

// Targets returns the targets of each proposal
func (p *MockPeer) Targets() [][]string {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return append([][]string(nil), p.targets...)
}
