/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package status defines metadata for errors returned by the transaction
// submission core. Each error carries a Group naming the component that
// detected it and a Code within that group. Callers use the group to decide
// how the failure is surfaced (see HTTPCode).
package status

import (
	"fmt"
	"net/http"

	"github.com/hyperledger/fabric-sdk-go/pkg/common/errors/multi"
	"github.com/pkg/errors"
	grpcstatus "google.golang.org/grpc/status"
)

// Status provides additional information about an unsuccessful operation.
type Status struct {
	// Group status group
	Group Group
	// Code status code
	Code int32
	// Message status message
	Message string
	// Details any additional status details
	Details []interface{}
}

// Group of status, one per error kind of the submission protocol
type Group int32

const (
	// UnknownStatus unknown status group
	UnknownStatus Group = iota

	// AuthenticationStatus is returned when the signing identity could not be
	// obtained or the configured user is not enrolled
	AuthenticationStatus

	// ProposalRejectedStatus is returned when an endorsing peer rejected the
	// proposal (bad arguments, chaincode error or non-OK status)
	ProposalRejectedStatus

	// EndorsementStatus is returned on transport failures while contacting
	// the endorsing peers
	EndorsementStatus

	// OrdererStatus is returned on transport failures while submitting to the
	// ordering service
	OrdererStatus

	// EventStreamStatus is returned on transport failures of the commit event
	// subscription. The transaction may still have been ordered.
	EventStreamStatus

	// EmptyResultStatus is returned when a query produced no responses
	EmptyResultStatus

	// ClientStatus is a generic client status (bad requests, programming errors)
	ClientStatus
)

// GroupName maps the groups in this packages to human-readable strings
var GroupName = map[int32]string{
	0: "Unknown",
	1: "Authentication Status",
	2: "Proposal Rejected Status",
	3: "Endorsement Status",
	4: "Orderer Status",
	5: "Event Stream Status",
	6: "Empty Result Status",
	7: "Client Status",
}

func (g Group) String() string {
	if s, ok := GroupName[int32(g)]; ok {
		return s
	}
	return UnknownStatus.String()
}

// FromError returns a Status representing err if available,
// otherwise it returns nil, false.
// For multi.Errors the status of the first recognized error is returned
// and all errors are attached as details.
func FromError(err error) (s *Status, ok bool) {
	if err == nil {
		return &Status{Code: int32(OK)}, true
	}
	if s, ok := err.(*Status); ok {
		return s, true
	}
	unwrappedErr := errors.Cause(err)
	if s, ok := unwrappedErr.(*Status); ok {
		return s, true
	}
	if m, ok := unwrappedErr.(multi.Errors); ok {
		var details []interface{}
		for _, e := range m {
			details = append(details, e)
		}
		for _, e := range m {
			if s, ok := FromError(e); ok {
				return New(s.Group, s.Code, m.Error(), details), true
			}
		}
		return New(ClientStatus, MultipleErrors.ToInt32(), m.Error(), details), true
	}

	return nil, false
}

func (s *Status) Error() string {
	return fmt.Sprintf("%s Code: (%d) %s. Description: %s", s.Group.String(), s.Code, ToSDKStatusCode(s.Code).String(), s.Message)
}

// New returns a Status with the given parameters
func New(group Group, code int32, msg string, details []interface{}) *Status {
	return &Status{Group: group, Code: code, Message: msg, Details: details}
}

// NewWithCause returns a Status whose message is taken from cause.
// The cause itself is kept as the first detail.
func NewWithCause(group Group, code Code, msg string, cause error) *Status {
	if cause == nil {
		return New(group, code.ToInt32(), msg, nil)
	}
	return New(group, code.ToInt32(), fmt.Sprintf("%s: %s", msg, cause), []interface{}{cause})
}

// NewFromGRPCError classifies a transport error returned by a gRPC call.
// Errors that do not carry a gRPC status are reported as ConnectionFailed.
func NewFromGRPCError(group Group, msg string, err error) *Status {
	code := ConnectionFailed
	if s, ok := grpcstatus.FromError(errors.Cause(err)); ok && s != nil {
		code = FromGRPCCode(s.Code())
	}
	return NewWithCause(group, code, msg, err)
}

// IsGroup reports whether err is a Status (or wraps one) of the given group
func IsGroup(err error, group Group) bool {
	s, ok := FromError(err)
	if !ok || err == nil {
		return false
	}
	return s.Group == group
}

// HTTPCode maps an error to the HTTP status used by the caller-facing surface
func HTTPCode(err error) int {
	if err == nil {
		return http.StatusOK
	}
	s, ok := FromError(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch s.Group {
	case ProposalRejectedStatus, ClientStatus:
		if s.Code == MultipleErrors.ToInt32() {
			return http.StatusInternalServerError
		}
		return http.StatusBadRequest
	case EndorsementStatus, OrdererStatus, EventStreamStatus, EmptyResultStatus:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
