/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package invoke provides the steps of a chaincode invocation: endorsement,
// ordering and the wait for the commit event.
package invoke

import (
	"github.com/hyperledger/fabric-sdk-go/pkg/common/logging"
)

var logger = logging.NewLogger("fabapi/invoke")

// State of a commit subscription
type State int32

const (
	// Subscribing the event connection is being opened
	Subscribing State = iota
	// Listening registered for the transaction, waiting for the event or the timer
	Listening
	// Resolved a commit event was received
	Resolved
	// Expired the timer fired before any event
	Expired
	// Failed the event stream broke or the caller abandoned the wait
	Failed
)

var stateName = map[State]string{
	Subscribing: "SUBSCRIBING",
	Listening:   "LISTENING",
	Resolved:    "RESOLVED",
	Expired:     "EXPIRED",
	Failed:      "FAILED",
}

func (s State) String() string {
	if n, ok := stateName[s]; ok {
		return n
	}
	return "UNKNOWN"
}
