/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package channel

import (
	"bytes"
	"encoding/json"
)

// decodePayload decodes a chaincode payload. Chaincode answers in JSON; an
// empty payload decodes to nil and a payload that is not JSON is returned as
// a string.
func decodePayload(payload []byte) interface{} {
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}

	var v interface{}
	if err := json.Unmarshal(payload, &v); err != nil {
		logger.Debugf("chaincode payload is not JSON, returning it as text: %s", err)
		return string(payload)
	}
	return v
}
