/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package rest

import (
	"encoding/json"
	"mime"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/kawaya-ledger/fabric-api/pkg/client/channel"
	"github.com/pkg/errors"
)

const (
	paramChaincode = "chaincode"
	paramFunction  = "function"
	paramArgs      = "args"

	locationBody  = "body"
	locationQuery = "query"

	parameterErrorMessage = "Parameter Error"
)

var alphanumeric = regexp.MustCompile(`^[A-Za-z0-9]+$`)

// ParamError describes one rejected request parameter
type ParamError struct {
	Param    string      `json:"param"`
	Msg      string      `json:"msg"`
	Value    interface{} `json:"value,omitempty"`
	Location string      `json:"location"`
}

// SplitArgs splits comma separated chaincode arguments. An empty value
// yields no arguments; elements are neither trimmed nor unquoted.
func SplitArgs(value string) []string {
	if value == "" {
		return []string{}
	}
	return strings.Split(value, ",")
}

// callParams are the raw parameters of a chaincode call. A nil field was
// not supplied.
type callParams struct {
	location  string
	chaincode *string
	function  *string
	args      []string
	argsValue interface{}
	hasArgs   bool
}

func (p *callParams) validate() []ParamError {
	var errs []ParamError
	if p.chaincode == nil || !alphanumeric.MatchString(*p.chaincode) {
		errs = append(errs, ParamError{Param: paramChaincode, Msg: "chaincode is invalid", Value: value(p.chaincode), Location: p.location})
	}
	if p.function == nil || !alphanumeric.MatchString(*p.function) {
		errs = append(errs, ParamError{Param: paramFunction, Msg: "fcn is invalid", Value: value(p.function), Location: p.location})
	}
	if !p.hasArgs {
		errs = append(errs, ParamError{Param: paramArgs, Msg: "args is invalid", Location: p.location})
	}
	return errs
}

func (p *callParams) request() channel.Request {
	return channel.Request{ChaincodeID: *p.chaincode, Fcn: *p.function, Args: p.args}
}

func value(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func first(values url.Values, key string) *string {
	v, ok := values[key]
	if !ok || len(v) == 0 {
		return nil
	}
	return &v[0]
}

// valuesParams reads parameters from a query string or a form body
func valuesParams(values url.Values, location string) *callParams {
	p := &callParams{
		location:  location,
		chaincode: first(values, paramChaincode),
		function:  first(values, paramFunction),
	}
	if args := first(values, paramArgs); args != nil {
		p.hasArgs = true
		p.argsValue = *args
		p.args = SplitArgs(*args)
	}
	return p
}

type jsonCall struct {
	Chaincode *string         `json:"chaincode"`
	Function  *string         `json:"function"`
	Args      json.RawMessage `json:"args"`
}

// jsonParams reads a JSON body. args is either a comma separated string or
// an array of strings.
func jsonParams(req *http.Request) (*callParams, error) {
	call := jsonCall{}
	if err := json.NewDecoder(req.Body).Decode(&call); err != nil {
		return nil, errors.Wrap(err, "invalid JSON body")
	}

	p := &callParams{location: locationBody, chaincode: call.Chaincode, function: call.Function}
	if len(call.Args) == 0 || string(call.Args) == "null" {
		return p, nil
	}

	var csv string
	if err := json.Unmarshal(call.Args, &csv); err == nil {
		p.hasArgs = true
		p.argsValue = csv
		p.args = SplitArgs(csv)
		return p, nil
	}

	var list []string
	if err := json.Unmarshal(call.Args, &list); err == nil {
		p.hasArgs = true
		p.argsValue = list
		p.args = list
		if p.args == nil {
			p.args = []string{}
		}
	}
	return p, nil
}

// bodyParams reads the parameters of a POST, JSON or form encoded
func bodyParams(req *http.Request) (*callParams, error) {
	mediaType, _, _ := mime.ParseMediaType(req.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		return jsonParams(req)
	}
	if err := req.ParseForm(); err != nil {
		return nil, errors.Wrap(err, "invalid form body")
	}
	return valuesParams(req.PostForm, locationBody), nil
}
