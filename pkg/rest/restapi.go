/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package rest exposes the channel client over HTTP.
//
//	POST /invoke   chaincode, function, args (form or JSON body)
//	GET  /query    ?chaincode=&function=&args=
//	GET  /health
//
// args is comma separated. Every response may be wrapped for JSONP with a
// callback query parameter.
package rest

import (
	reqContext "context"
	"encoding/json"
	"net/http"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/hyperledger/fabric-sdk-go/pkg/common/logging"
	"github.com/kawaya-ledger/fabric-api/pkg/client/channel"
	"github.com/kawaya-ledger/fabric-api/pkg/common/errors/status"
	"github.com/kawaya-ledger/fabric-api/pkg/common/providers/ledger"
)

var logger = logging.NewLogger("fabapi/rest")

const (
	// URLInvoke submits a transaction
	URLInvoke = "/invoke"
	// URLQuery evaluates a query
	URLQuery = "/query"
	// URLHealth reports liveness
	URLHealth = "/health"

	requestIDHeader = "X-Request-ID"
)

var callbackName = regexp.MustCompile(`^[\w$.\[\]]+$`)

// ChannelClient invokes and queries chaincode on a channel
type ChannelClient interface {
	Invoke(ctx reqContext.Context, request channel.Request, options ...channel.RequestOption) (*ledger.Outcome, error)
	Query(ctx reqContext.Context, request channel.Request) (interface{}, error)
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Msg  string      `json:"msg"`
	Info interface{} `json:"info,omitempty"`
}

// StatusInfo details a failed invocation
type StatusInfo struct {
	Kind string `json:"kind"`
	Code int32  `json:"code"`
}

// FailedOutcome is the body of an invocation that was not committed VALID
type FailedOutcome struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// Option configures the HTTP handler
type Option func(h *HTTPHandler)

// WithMetricsHandler serves h at path
func WithMetricsHandler(path string, handler http.Handler) Option {
	return func(h *HTTPHandler) {
		h.router.Handle(path, handler).Methods(http.MethodGet)
	}
}

// HTTPHandler handles all the HTTP requests to the API
type HTTPHandler struct {
	client ChannelClient
	router *mux.Router
}

// NewHTTPHandler routes the API to client
func NewHTTPHandler(client ChannelClient, opts ...Option) *HTTPHandler {
	handler := &HTTPHandler{
		client: client,
		router: mux.NewRouter(),
	}

	handler.router.Use(requestID)
	handler.router.HandleFunc(URLInvoke, handler.serveInvoke).Methods(http.MethodPost)
	handler.router.HandleFunc(URLQuery, handler.serveQuery).Methods(http.MethodGet)
	handler.router.HandleFunc(URLHealth, handler.serveHealth).Methods(http.MethodGet)
	handler.router.NotFoundHandler = http.HandlerFunc(handler.serveNotFound)
	handler.router.MethodNotAllowedHandler = http.HandlerFunc(handler.serveNotAllowed)

	for _, opt := range opts {
		opt(handler)
	}
	return handler
}

func (h *HTTPHandler) ServeHTTP(resp http.ResponseWriter, req *http.Request) {
	h.router.ServeHTTP(resp, req)
}

// requestID tags the request and response with an X-Request-ID
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(resp http.ResponseWriter, req *http.Request) {
		id := req.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
			req.Header.Set(requestIDHeader, id)
		}
		resp.Header().Set(requestIDHeader, id)
		next.ServeHTTP(resp, req)
	})
}

func (h *HTTPHandler) serveInvoke(resp http.ResponseWriter, req *http.Request) {
	params, err := bodyParams(req)
	if err != nil {
		h.sendResponse(resp, req, http.StatusBadRequest, &ErrorResponse{Msg: err.Error()})
		return
	}
	if errs := params.validate(); len(errs) > 0 {
		h.sendResponse(resp, req, http.StatusBadRequest, &ErrorResponse{Msg: parameterErrorMessage, Info: errs})
		return
	}

	// a client disconnect must not abandon a transaction already sent
	ctx := reqContext.WithoutCancel(req.Context())
	outcome, err := h.client.Invoke(ctx, params.request())
	if err != nil {
		h.sendError(resp, req, err)
		return
	}
	if !outcome.Successful() {
		h.sendResponse(resp, req, outcome.Status, &FailedOutcome{Status: outcome.Status, Message: outcome.Message})
		return
	}
	h.sendResponse(resp, req, http.StatusOK, outcome.Payload)
}

func (h *HTTPHandler) serveQuery(resp http.ResponseWriter, req *http.Request) {
	params := valuesParams(req.URL.Query(), locationQuery)
	if errs := params.validate(); len(errs) > 0 {
		h.sendResponse(resp, req, http.StatusBadRequest, &ErrorResponse{Msg: parameterErrorMessage, Info: errs})
		return
	}

	result, err := h.client.Query(req.Context(), params.request())
	if err != nil {
		h.sendError(resp, req, err)
		return
	}
	h.sendResponse(resp, req, http.StatusOK, result)
}

func (h *HTTPHandler) serveHealth(resp http.ResponseWriter, req *http.Request) {
	h.sendResponse(resp, req, http.StatusOK, &HealthResponse{Status: "healthy", Timestamp: time.Now().UTC()})
}

func (h *HTTPHandler) serveNotFound(resp http.ResponseWriter, req *http.Request) {
	h.sendResponse(resp, req, http.StatusNotFound, &ErrorResponse{Msg: "Not Found"})
}

func (h *HTTPHandler) serveNotAllowed(resp http.ResponseWriter, req *http.Request) {
	h.sendResponse(resp, req, http.StatusMethodNotAllowed, &ErrorResponse{Msg: "Method Not Allowed"})
}

func (h *HTTPHandler) sendError(resp http.ResponseWriter, req *http.Request, err error) {
	code := status.HTTPCode(err)
	body := &ErrorResponse{Msg: err.Error()}
	if s, ok := status.FromError(err); ok {
		body.Msg = s.Message
		body.Info = &StatusInfo{Kind: s.Group.String(), Code: s.Code}
	}
	if code >= http.StatusInternalServerError {
		logger.Errorf("request %s %s [%s] failed: %s", req.Method, req.URL.Path, req.Header.Get(requestIDHeader), err)
	} else {
		logger.Debugf("request %s %s [%s] rejected: %s", req.Method, req.URL.Path, req.Header.Get(requestIDHeader), err)
	}
	h.sendResponse(resp, req, code, body)
}

// sendResponse writes content as JSON, or as a JSONP script when the
// request names a valid callback
func (h *HTTPHandler) sendResponse(resp http.ResponseWriter, req *http.Request, code int, content interface{}) {
	body, err := json.Marshal(content)
	if err != nil {
		logger.Errorf("failed to encode content, err: %s", err)
		code = http.StatusInternalServerError
		body, _ = json.Marshal(&ErrorResponse{Msg: "failed to encode response"})
	}

	if callback := req.URL.Query().Get("callback"); callbackName.MatchString(callback) {
		resp.Header().Set("Content-Type", "text/javascript; charset=utf-8")
		resp.Header().Set("X-Content-Type-Options", "nosniff")
		resp.WriteHeader(code)
		_, err = resp.Write([]byte("/**/ typeof " + callback + " === 'function' && " + callback + "(" + string(body) + ");"))
	} else {
		resp.Header().Set("Content-Type", "application/json; charset=utf-8")
		resp.WriteHeader(code)
		_, err = resp.Write(append(body, '\n'))
	}
	if err != nil {
		logger.Warnf("failed to write response, err: %s", err)
	}
}
