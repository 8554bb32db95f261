/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package network

import (
	reqContext "context"

	"github.com/golang/protobuf/proto"
	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/hyperledger/fabric-sdk-go/pkg/common/errors/multi"
	sdkstatus "github.com/hyperledger/fabric-sdk-go/pkg/common/errors/status"
	"github.com/hyperledger/fabric-sdk-go/pkg/common/providers/fab"
	contextImpl "github.com/hyperledger/fabric-sdk-go/pkg/context"
	"github.com/hyperledger/fabric-sdk-go/pkg/fab/txn"
	"github.com/kawaya-ledger/fabric-api/pkg/common/errors/status"
	"github.com/kawaya-ledger/fabric-api/pkg/common/providers/ledger"
	"github.com/pkg/errors"
)

// txnHeader carries the SDK transaction header between proposing and ordering
type txnHeader struct {
	header fab.TransactionHeader
}

func (h *txnHeader) TransactionID() ledger.TransactionID {
	return ledger.TransactionID(h.header.TransactionID())
}

// CreateTransactionHeader computes a new transaction id for id on the channel
func (n *Network) CreateTransactionHeader(ctx reqContext.Context, id *ledger.Identity) (ledger.TransactionHeader, error) {
	clientCtx, err := n.clientContext(id)
	if err != nil {
		return nil, err
	}
	txh, err := txn.NewHeader(clientCtx, n.channelID)
	if err != nil {
		return nil, errors.WithMessage(err, "creation of transaction header failed")
	}
	return &txnHeader{header: txh}, nil
}

// SendProposal signs the proposal as id and sends it to every target
func (n *Network) SendProposal(ctx reqContext.Context, id *ledger.Identity, request *ledger.InvocationRequest, targets []string) (*ledger.EndorsementResult, error) {
	clientCtx, err := n.clientContext(id)
	if err != nil {
		return nil, err
	}

	var header fab.TransactionHeader
	if h, ok := request.TxnHeader.(*txnHeader); ok {
		header = h.header
	} else {
		// queries are never ordered, a fresh header only serves the proposal
		header, err = txn.NewHeader(clientCtx, request.ChannelID)
		if err != nil {
			return nil, errors.WithMessage(err, "creation of transaction header failed")
		}
	}

	proposal, err := txn.CreateChaincodeInvokeProposal(header, fab.ChaincodeInvokeRequest{
		ChaincodeID: request.ChaincodeID,
		Fcn:         request.Fcn,
		Args:        request.ByteArgs(),
	})
	if err != nil {
		return nil, errors.WithMessage(err, "creating transaction proposal failed")
	}

	processors, err := newPeers(clientCtx, targets)
	if err != nil {
		return nil, err
	}

	reqCtx, cancel := contextImpl.NewRequest(clientCtx, contextImpl.WithTimeoutType(fab.PeerResponse), contextImpl.WithParent(ctx))
	defer cancel()

	responses, err := txn.SendProposal(reqCtx, proposal, processors)
	if err != nil {
		if rejected, ok := rejection(err); ok {
			return nil, rejected
		}
		return nil, err
	}

	result := &ledger.EndorsementResult{TransactionID: ledger.TransactionID(proposal.TxnID), Proposal: proposal}
	for _, r := range responses {
		pr, err := toProposalResponse(r)
		if err != nil {
			return nil, status.NewFromGRPCError(status.EndorsementStatus, "reading proposal response failed", err)
		}
		result.Responses = append(result.Responses, pr)
	}
	return result, nil
}

// rejection converts a peer's refusal to endorse into a ProposalRejected
// status carrying the peer's status code and message
func rejection(err error) (*status.Status, bool) {
	if errs, ok := errors.Cause(err).(multi.Errors); ok {
		for _, e := range errs {
			if s, ok := rejection(e); ok {
				return s, true
			}
		}
		return nil, false
	}

	s, ok := sdkstatus.FromError(err)
	if !ok {
		return nil, false
	}
	switch s.Group {
	case sdkstatus.EndorserServerStatus, sdkstatus.ChaincodeStatus:
		return status.New(status.ProposalRejectedStatus, s.Code, s.Message, s.Details), true
	}
	return nil, false
}

func toProposalResponse(r *fab.TransactionProposalResponse) (*ledger.ProposalResponse, error) {
	pr := &ledger.ProposalResponse{Endorser: r.Endorser, Status: r.Status, Raw: r}
	if r.ProposalResponse == nil {
		return pr, nil
	}
	if resp := r.ProposalResponse.GetResponse(); resp != nil {
		pr.Status = resp.Status
		pr.Message = resp.Message
	}
	payload, err := responsePayload(r.ProposalResponse)
	if err != nil {
		return nil, err
	}
	pr.Payload = payload
	return pr, nil
}

// responsePayload returns the chaincode result of a proposal response. The
// peer copies it into Response.Payload; older peers only carry it in the
// chaincode action.
func responsePayload(r *pb.ProposalResponse) ([]byte, error) {
	if payload := r.GetResponse().GetPayload(); len(payload) > 0 {
		return payload, nil
	}
	if len(r.GetPayload()) == 0 {
		return nil, nil
	}

	prp := &pb.ProposalResponsePayload{}
	if err := proto.Unmarshal(r.Payload, prp); err != nil {
		return nil, errors.Wrap(err, "unmarshal of proposal response payload failed")
	}
	if len(prp.Extension) == 0 {
		return nil, nil
	}

	action := &pb.ChaincodeAction{}
	if err := proto.Unmarshal(prp.Extension, action); err != nil {
		return nil, errors.Wrap(err, "unmarshal of chaincode action failed")
	}
	return action.GetResponse().GetPayload(), nil
}
