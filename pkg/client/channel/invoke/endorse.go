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

// Endorser sends proposals to the configured endorsing peers
type Endorser struct {
	sender  ledger.ProposalSender
	targets []string
}

// NewEndorser returns an endorser for the given peers. At least one peer is required.
func NewEndorser(sender ledger.ProposalSender, targets []string) (*Endorser, error) {
	if sender == nil {
		return nil, errors.New("proposal sender is required")
	}
	if len(targets) == 0 {
		return nil, status.New(status.ClientStatus, status.NoPeersFound.ToInt32(), "targets were not provided", nil)
	}
	return &Endorser{sender: sender, targets: append([]string(nil), targets...)}, nil
}

// Targets returns the endorsing peers
func (e *Endorser) Targets() []string {
	return append([]string(nil), e.targets...)
}

// Propose sends the request to every endorsing peer once and validates the
// first response.
//
// A query that yields no responses is returned without error; the caller
// decides how to report an empty result. For invocations an empty result is a
// rejection.
func (e *Endorser) Propose(ctx reqContext.Context, id *ledger.Identity, req *ledger.InvocationRequest, mode ledger.Mode) (*ledger.EndorsementResult, error) {
	if req == nil {
		return nil, status.New(status.ClientStatus, status.InvalidRequest.ToInt32(), "invocation request is required", nil)
	}
	if mode == ledger.Invoke && req.TxnHeader == nil {
		return nil, status.New(status.ClientStatus, status.InvalidRequest.ToInt32(), "transaction header is required for invoke", nil)
	}

	logger.Debugf("sending %s proposal %s.%s to %v", mode, req.ChaincodeID, req.Fcn, e.targets)

	result, err := e.sender.SendProposal(ctx, id, req, e.targets)
	if err != nil {
		if status.IsGroup(err, status.ProposalRejectedStatus) {
			return nil, err
		}
		return nil, status.NewFromGRPCError(status.EndorsementStatus, "sending proposal to endorsers failed", err)
	}
	if result == nil {
		result = &ledger.EndorsementResult{TransactionID: req.TransactionID()}
	}

	if len(result.Responses) == 0 {
		if mode == ledger.Query {
			return result, nil
		}
		return nil, status.New(status.ProposalRejectedStatus, status.NoResponses.ToInt32(), "no proposal responses were returned", nil)
	}

	first := result.Responses[0]
	if first == nil {
		return nil, status.New(status.ProposalRejectedStatus, status.NoResponses.ToInt32(), "first proposal response is missing", nil)
	}
	if first.Status != ledger.StatusOK {
		logger.Infof("proposal %s.%s rejected by [%s]: status %d %s", req.ChaincodeID, req.Fcn, first.Endorser, first.Status, first.Message)
		return nil, status.New(status.ProposalRejectedStatus, first.Status, first.Message, []interface{}{first.Endorser})
	}

	return result, nil
}
