/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package mockledger

import (
	"github.com/golang/mock/gomock"
	"github.com/kawaya-ledger/fabric-api/pkg/common/providers/ledger"
)

// MockTxnHeader is a transaction header with a fixed id
type MockTxnHeader struct {
	ID ledger.TransactionID
}

// TransactionID returns the fixed id
func (h *MockTxnHeader) TransactionID() ledger.TransactionID {
	return h.ID
}

// NewIdentity returns an enrolled identity for testing
func NewIdentity(user string) *ledger.Identity {
	return &ledger.Identity{User: user, MSPID: "Org1MSP", Enrolled: true}
}

// DefaultCredentialStore returns a mock store that yields an enrolled identity for user
func DefaultCredentialStore(mockCtrl *gomock.Controller, user string) *MockCredentialStore {
	store := NewMockCredentialStore(mockCtrl)
	store.EXPECT().Lookup(gomock.Any(), user).Return(NewIdentity(user), nil).AnyTimes()
	return store
}

// NewEndorsement returns an endorsement result with one response per payload
func NewEndorsement(txID ledger.TransactionID, status int32, payloads ...string) *ledger.EndorsementResult {
	result := &ledger.EndorsementResult{TransactionID: txID}
	for _, p := range payloads {
		result.Responses = append(result.Responses, &ledger.ProposalResponse{
			Endorser: "peer0.org1.example.com:7051",
			Status:   status,
			Payload:  []byte(p),
		})
	}
	return result
}
