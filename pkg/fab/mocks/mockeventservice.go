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

// TxStatusReg is a transaction status registration handed out by MockEventService
type TxStatusReg struct {
	TxID    string
	Eventch chan *ledger.TxStatusEvent
}

// MockEventService implements a mock event stream
type MockEventService struct {
	TxStatusRegCh chan *TxStatusReg
	ErrCh         chan error
	RegisterErr   error

	mutex        sync.RWMutex
	unregistered []ledger.Registration
	closed       int
}

// NewMockEventService returns a new mock event service
func NewMockEventService() *MockEventService {
	return &MockEventService{
		TxStatusRegCh: make(chan *TxStatusReg, 1),
		ErrCh:         make(chan error, 1),
	}
}

// RegisterTxStatusEvent registers for transaction status events.
func (m *MockEventService) RegisterTxStatusEvent(txID string) (ledger.Registration, <-chan *ledger.TxStatusEvent, error) {
	if m.RegisterErr != nil {
		return nil, nil, m.RegisterErr
	}
	eventCh := make(chan *ledger.TxStatusEvent, 1)
	reg := &TxStatusReg{
		Eventch: eventCh,
		TxID:    txID,
	}
	m.TxStatusRegCh <- reg
	return reg, eventCh, nil
}

// Unregister records the given registration as removed. The event channel is
// left open so that late sends from a test do not panic.
func (m *MockEventService) Unregister(reg ledger.Registration) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.unregistered = append(m.unregistered, reg)
}

// Errors returns the stream error channel
func (m *MockEventService) Errors() <-chan error {
	return m.ErrCh
}

// Close records the close
func (m *MockEventService) Close() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.closed++
}

// Unregistered returns the number of Unregister calls
func (m *MockEventService) Unregistered() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.unregistered)
}

// Closed returns the number of Close calls
func (m *MockEventService) Closed() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.closed
}

// MockEventSource hands out a single MockEventService
type MockEventSource struct {
	Service    *MockEventService
	ConnectErr error

	mutex sync.Mutex
	peers []string
}

// NewMockEventSource returns an event source backed by a new MockEventService
func NewMockEventSource() *MockEventSource {
	return &MockEventSource{Service: NewMockEventService()}
}

// Connect returns the mock event service
func (m *MockEventSource) Connect(ctx reqContext.Context, id *ledger.Identity, peer string) (ledger.EventStream, error) {
	m.mutex.Lock()
	m.peers = append(m.peers, peer)
	m.mutex.Unlock()

	if m.ConnectErr != nil {
		return nil, m.ConnectErr
	}
	return m.Service, nil
}

// Peers returns the peers that were connected to, in order
func (m *MockEventSource) Peers() []string {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return append([]string(nil), m.peers...)
}
