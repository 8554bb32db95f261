/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package mocks

import (
	reqContext "context"
	"sync"

	"github.com/kawaya-ledger/fabric-api/pkg/common/providers/ledger"
)

// MockOrderer is a mock ordering service.
// BroadcastListener, when set, receives every broadcast endorsement before
// the mock answers, so a test can sequence ordering against commit events.
type MockOrderer struct {
	OrdererURL        string
	Status            ledger.OrderStatus
	Error             error
	BroadcastListener chan *ledger.EndorsementResult

	mutex      sync.Mutex
	broadcasts int
}

// NewMockOrderer returns an orderer that accepts every transaction
func NewMockOrderer(url string) *MockOrderer {
	return &MockOrderer{OrdererURL: url, Status: ledger.OrderSuccess}
}

// Broadcast answers with the configured status or error
func (o *MockOrderer) Broadcast(ctx reqContext.Context, id *ledger.Identity, endorsement *ledger.EndorsementResult, orderer string) (*ledger.OrderResult, error) {
	o.mutex.Lock()
	o.broadcasts++
	o.mutex.Unlock()

	if o.BroadcastListener != nil {
		o.BroadcastListener <- endorsement
	}
	if o.Error != nil {
		return nil, o.Error
	}
	return &ledger.OrderResult{Status: o.Status, Orderer: orderer}, nil
}

// Broadcasts returns the number of Broadcast calls
func (o *MockOrderer) Broadcasts() int {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	return o.broadcasts
}
