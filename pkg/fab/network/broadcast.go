/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package network

import (
	reqContext "context"

	sdkstatus "github.com/hyperledger/fabric-sdk-go/pkg/common/errors/status"
	"github.com/hyperledger/fabric-sdk-go/pkg/common/providers/fab"
	contextImpl "github.com/hyperledger/fabric-sdk-go/pkg/context"
	"github.com/hyperledger/fabric-sdk-go/pkg/fab/txn"
	"github.com/kawaya-ledger/fabric-api/pkg/common/providers/ledger"
	"github.com/pkg/errors"
)

// Broadcast assembles the transaction from the endorsement and sends it to
// the orderer. An orderer answering with a non-success status yields a
// FAILURE result; only transport failures are returned as errors.
func (n *Network) Broadcast(ctx reqContext.Context, id *ledger.Identity, endorsement *ledger.EndorsementResult, target string) (*ledger.OrderResult, error) {
	request, err := transactionRequest(endorsement)
	if err != nil {
		return nil, err
	}

	clientCtx, err := n.clientContext(id)
	if err != nil {
		return nil, err
	}

	tx, err := txn.New(request)
	if err != nil {
		return nil, errors.WithMessage(err, "creating transaction failed")
	}

	o, err := newOrderer(clientCtx, target)
	if err != nil {
		return nil, errors.WithMessage(err, "creating orderer "+target+" failed")
	}

	reqCtx, cancel := contextImpl.NewRequest(clientCtx, contextImpl.WithTimeoutType(fab.OrdererResponse), contextImpl.WithParent(ctx))
	defer cancel()

	resp, err := txn.Send(reqCtx, tx, []fab.Orderer{o})
	if err != nil {
		if result, ok := orderFailure(err, target); ok {
			return result, nil
		}
		return nil, err
	}
	return &ledger.OrderResult{Status: ledger.OrderSuccess, Orderer: resp.Orderer}, nil
}

// transactionRequest collects the SDK proposal and the successful responses
func transactionRequest(endorsement *ledger.EndorsementResult) (fab.TransactionRequest, error) {
	if endorsement == nil {
		return fab.TransactionRequest{}, errors.New("endorsement is required")
	}
	proposal, ok := endorsement.Proposal.(*fab.TransactionProposal)
	if !ok || proposal == nil {
		return fab.TransactionRequest{}, errors.Errorf("unexpected proposal type %T", endorsement.Proposal)
	}

	request := fab.TransactionRequest{Proposal: proposal}
	for _, r := range endorsement.Responses {
		if r == nil || r.Status != ledger.StatusOK {
			continue
		}
		raw, ok := r.Raw.(*fab.TransactionProposalResponse)
		if !ok {
			return fab.TransactionRequest{}, errors.Errorf("unexpected proposal response type %T", r.Raw)
		}
		request.ProposalResponses = append(request.ProposalResponses, raw)
	}
	if len(request.ProposalResponses) == 0 {
		return fab.TransactionRequest{}, errors.New("no successful proposal responses")
	}
	return request, nil
}

func orderFailure(err error, target string) (*ledger.OrderResult, bool) {
	s, ok := sdkstatus.FromError(err)
	if !ok || s.Group != sdkstatus.OrdererServerStatus {
		return nil, false
	}
	logger.Warnf("orderer %s rejected the transaction: %s", target, s.Message)
	return &ledger.OrderResult{Status: ledger.OrderFailure, Orderer: target, Info: s.Message}, true
}
