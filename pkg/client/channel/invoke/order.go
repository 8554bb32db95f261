/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package invoke

import (
	reqContext "context"

	"github.com/kawaya-ledger/fabric-api/pkg/common/errors/status"
	"github.com/kawaya-ledger/fabric-api/pkg/common/providers/ledger"
	"github.com/pkg/errors"
)

// OrderSubmitter forwards endorsed transactions to the ordering service
type OrderSubmitter struct {
	broadcaster ledger.Broadcaster
	orderer     string
}

// NewOrderSubmitter returns a submitter for the given orderer
func NewOrderSubmitter(broadcaster ledger.Broadcaster, orderer string) (*OrderSubmitter, error) {
	if broadcaster == nil {
		return nil, errors.New("broadcaster is required")
	}
	if orderer == "" {
		return nil, errors.New("orderer is required")
	}
	return &OrderSubmitter{broadcaster: broadcaster, orderer: orderer}, nil
}

// Orderer returns the configured orderer
func (o *OrderSubmitter) Orderer() string {
	return o.orderer
}

// Submit builds the transaction from the endorsement and broadcasts it.
// It returns once the orderer acknowledged; it never waits for the commit.
func (o *OrderSubmitter) Submit(ctx reqContext.Context, id *ledger.Identity, endorsement *ledger.EndorsementResult) (*ledger.OrderResult, error) {
	if !endorsement.Successful() {
		return nil, status.New(status.ClientStatus, status.InvalidRequest.ToInt32(), "transaction is not endorsed", nil)
	}

	result, err := o.broadcaster.Broadcast(ctx, id, endorsement, o.orderer)
	if err != nil {
		if status.IsGroup(err, status.OrdererStatus) {
			return nil, err
		}
		return nil, status.NewFromGRPCError(status.OrdererStatus, "broadcast to orderer failed", err)
	}
	if result == nil {
		result = &ledger.OrderResult{Status: ledger.OrderFailure, Orderer: o.orderer, Info: "empty broadcast response"}
	}

	logger.Debugf("orderer [%s] answered %s for transaction [%s]", o.orderer, result.Status, endorsement.TransactionID)
	return result, nil
}
