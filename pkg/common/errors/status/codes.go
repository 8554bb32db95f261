/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package status

import (
	"strconv"

	grpcCodes "google.golang.org/grpc/codes"
)

// Code represents a status code
type Code uint32

const (
	// OK is returned on success.
	OK Code = 0

	// Unknown represents status codes that are uncategorized or unknown
	Unknown Code = 1

	// ConnectionFailed is returned when a network connection attempt fails
	ConnectionFailed Code = 2

	// Timeout operation timed out at the transport level
	Timeout Code = 5

	// NoPeersFound No peers were configured
	NoPeersFound Code = 6

	// MultipleErrors multiple errors occurred
	MultipleErrors Code = 7

	// NotEnrolled the user exists but holds no enrollment certificate
	NotEnrolled Code = 30

	// UserNotFound the credential store has no entry for the user
	UserNotFound Code = 31

	// ProposalRejected the first endorsement carried a non-OK status
	ProposalRejected Code = 32

	// NoResponses no proposal responses were returned
	NoResponses Code = 33

	// InvalidRequest the request is missing required fields
	InvalidRequest Code = 34

	// StreamClosed the event stream closed before the transaction was seen
	StreamClosed Code = 35

	// Cancelled the caller abandoned the operation
	Cancelled Code = 36
)

// CodeName maps the codes in this packages to human-readable strings
var CodeName = map[int32]string{
	0:  "OK",
	1:  "UNKNOWN",
	2:  "CONNECTION_FAILED",
	5:  "TIMEOUT",
	6:  "NO_PEERS_FOUND",
	7:  "MULTIPLE_ERRORS",
	30: "NOT_ENROLLED",
	31: "USER_NOT_FOUND",
	32: "PROPOSAL_REJECTED",
	33: "NO_RESPONSES",
	34: "INVALID_REQUEST",
	35: "STREAM_CLOSED",
	36: "CANCELLED",
}

// ToInt32 cast to int32
func (c Code) ToInt32() int32 {
	return int32(c)
}

// String representation of the code
func (c Code) String() string {
	if s, ok := CodeName[c.ToInt32()]; ok {
		return s
	}
	return strconv.Itoa(int(c))
}

// ToSDKStatusCode cast to status code
func ToSDKStatusCode(c int32) Code {
	return Code(c)
}

// FromGRPCCode maps the gRPC codes that matter to the submission protocol
func FromGRPCCode(c grpcCodes.Code) Code {
	switch c {
	case grpcCodes.OK:
		return OK
	case grpcCodes.DeadlineExceeded:
		return Timeout
	case grpcCodes.Canceled:
		return Cancelled
	case grpcCodes.Unavailable:
		return ConnectionFailed
	default:
		return Unknown
	}
}
