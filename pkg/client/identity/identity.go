/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package identity yields the signing identity used for each invocation.
//
// The identity is looked up in the credential store on every call. Nothing is
// cached, so a re-enrollment in the store is picked up by the next invocation.
package identity

import (
	reqContext "context"

	"github.com/hyperledger/fabric-sdk-go/pkg/common/logging"
	"github.com/kawaya-ledger/fabric-api/pkg/common/errors/status"
	"github.com/kawaya-ledger/fabric-api/pkg/common/providers/ledger"
	"github.com/pkg/errors"
)

var logger = logging.NewLogger("fabapi/identity")

// Context resolves the configured user to an enrolled identity
type Context struct {
	store ledger.CredentialStore
	user  string
}

// Option describes a functional parameter for the New constructor
type Option func(*Context) error

// WithUser overrides the user name to look up
func WithUser(user string) Option {
	return func(c *Context) error {
		if user == "" {
			return errors.New("user name is required")
		}
		c.user = user
		return nil
	}
}

// New creates an identity context on top of the given credential store
func New(store ledger.CredentialStore, user string, opts ...Option) (*Context, error) {
	if store == nil {
		return nil, errors.New("credential store is required")
	}

	c := &Context{store: store, user: user}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, errors.WithMessage(err, "failed to create identity context")
		}
	}

	if c.user == "" {
		return nil, errors.New("user name is required")
	}
	return c, nil
}

// User returns the configured user name
func (c *Context) User() string {
	return c.user
}

// Identity returns the enrolled identity of the configured user.
// Every failure is an AuthenticationStatus error.
func (c *Context) Identity(ctx reqContext.Context) (*ledger.Identity, error) {
	id, err := c.store.Lookup(ctx, c.user)
	if err != nil {
		logger.Warnf("credential store lookup for user [%s] failed: %s", c.user, err)
		return nil, status.NewWithCause(status.AuthenticationStatus, status.Unknown, "credential store lookup failed", err)
	}
	if id == nil {
		return nil, status.New(status.AuthenticationStatus, status.UserNotFound.ToInt32(),
			"user "+c.user+" not found in credential store", nil)
	}
	if !id.Enrolled {
		return nil, status.New(status.AuthenticationStatus, status.NotEnrolled.ToInt32(),
			"user "+c.user+" is not enrolled", nil)
	}

	logger.Debugf("resolved identity for user [%s] msp [%s]", id.User, id.MSPID)
	return id, nil
}
