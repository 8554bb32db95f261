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

// MockCredentialStore is an in-memory credential store
type MockCredentialStore struct {
	Error error

	mutex   sync.RWMutex
	users   map[string]*ledger.Identity
	lookups int
}

// NewMockCredentialStore returns a store holding enrolled identities for the given users
func NewMockCredentialStore(users ...string) *MockCredentialStore {
	s := &MockCredentialStore{users: make(map[string]*ledger.Identity)}
	for _, u := range users {
		s.Store(&ledger.Identity{User: u, MSPID: "Org1MSP", Enrolled: true})
	}
	return s
}

// Store adds or replaces an identity
func (s *MockCredentialStore) Store(id *ledger.Identity) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.users[id.User] = id
}

// Lookup returns the stored identity, or nil if the user is unknown
func (s *MockCredentialStore) Lookup(ctx reqContext.Context, user string) (*ledger.Identity, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.lookups++
	if s.Error != nil {
		return nil, s.Error
	}
	return s.users[user], nil
}

// Lookups returns the number of Lookup calls
func (s *MockCredentialStore) Lookups() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.lookups
}
