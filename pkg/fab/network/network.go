/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package network connects the channel client to a Fabric network through
// fabric-sdk-go. Network implements the credential store, proposal sender,
// broadcaster and event source consumed by pkg/client/channel.
package network

import (
	reqContext "context"
	"time"

	mspclient "github.com/hyperledger/fabric-sdk-go/pkg/client/msp"
	"github.com/hyperledger/fabric-sdk-go/pkg/common/logging"
	contextApi "github.com/hyperledger/fabric-sdk-go/pkg/common/providers/context"
	"github.com/hyperledger/fabric-sdk-go/pkg/common/providers/core"
	"github.com/hyperledger/fabric-sdk-go/pkg/common/providers/fab"
	"github.com/hyperledger/fabric-sdk-go/pkg/common/providers/msp"
	sdkconfig "github.com/hyperledger/fabric-sdk-go/pkg/core/config"
	"github.com/hyperledger/fabric-sdk-go/pkg/fab/orderer"
	"github.com/hyperledger/fabric-sdk-go/pkg/fab/peer"
	"github.com/hyperledger/fabric-sdk-go/pkg/fabsdk"
	"github.com/kawaya-ledger/fabric-api/pkg/common/providers/ledger"
	"github.com/kawaya-ledger/fabric-api/pkg/core/config"
	"github.com/kawaya-ledger/fabric-api/pkg/core/config/lookup"
	"github.com/pkg/errors"
)

var logger = logging.NewLogger("fabapi/network")

type signingIdentityProvider interface {
	GetSigningIdentity(id string) (msp.SigningIdentity, error)
}

// Network is the fabric-sdk-go backed implementation of the ledger collaborators
type Network struct {
	sdk       *fabsdk.FabricSDK
	channelID string
	msp       signingIdentityProvider
}

// New loads the connection profile named in cfg and opens the SDK. The
// configured credential store path, if any, replaces the one in the profile.
func New(cfg config.FabricConfig) (*Network, error) {
	if cfg.ConnectionProfile == "" {
		return nil, errors.New("connection profile is required")
	}

	backends, err := ConfigProvider(cfg)()
	if err != nil {
		return nil, errors.WithMessage(err, "loading connection profile failed")
	}
	client, err := clientSettings(backends...)
	if err != nil {
		return nil, err
	}
	logger.Infof("client organization %s, credential store %s, crypto store %s, peer connection timeout %s",
		client.Organization, client.CredentialStore.Path, client.CredentialStore.CryptoStore.Path, client.peerConnectionTimeout)

	sdk, err := fabsdk.New(func() ([]core.ConfigBackend, error) { return backends, nil })
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create SDK")
	}

	var opts []mspclient.ClientOption
	if cfg.Organization != "" {
		opts = append(opts, mspclient.WithOrg(cfg.Organization))
	}
	mspClient, err := mspclient.New(sdk.Context(), opts...)
	if err != nil {
		sdk.Close()
		return nil, errors.WithMessage(err, "failed to create MSP client")
	}

	logger.Infof("connected to network described by %s for channel %s", cfg.ConnectionProfile, cfg.Channel)
	return &Network{sdk: sdk, channelID: cfg.Channel, msp: mspClient}, nil
}

// ConfigProvider returns the SDK configuration: the connection profile with
// the service's credential store and organization layered in front.
func ConfigProvider(cfg config.FabricConfig) core.ConfigProvider {
	profile := sdkconfig.FromFile(cfg.ConnectionProfile)
	return func() ([]core.ConfigBackend, error) {
		backends, err := profile()
		if err != nil {
			return nil, err
		}
		overlay := lookup.NewOverlay(lookup.MapBackend{
			"client.organization":                     cfg.Organization,
			"client.credentialStore.path":             cfg.CredentialStore,
			"client.credentialStore.cryptoStore.path": cfg.CredentialStore,
		}, backends...)
		return []core.ConfigBackend{overlay}, nil
	}
}

// profileClient is the client section of the effective connection profile
type profileClient struct {
	Organization    string
	CredentialStore struct {
		Path        string
		CryptoStore struct {
			Path string
		}
	}
	peerConnectionTimeout time.Duration
}

func clientSettings(backends ...core.ConfigBackend) (*profileClient, error) {
	l := lookup.New(backends...)

	client := &profileClient{}
	if err := l.UnmarshalKey("client", client); err != nil {
		return nil, errors.WithMessage(err, "invalid client section in connection profile")
	}
	if client.Organization == "" {
		client.Organization = l.GetString("client.organization")
	}
	client.peerConnectionTimeout = l.GetDuration("client.peer.timeout.connection")
	return client, nil
}

// Close releases the SDK
func (n *Network) Close() {
	n.sdk.Close()
}

// Lookup returns the identity of user from the credential store, or nil if
// the store does not know the user.
func (n *Network) Lookup(ctx reqContext.Context, user string) (*ledger.Identity, error) {
	si, err := n.msp.GetSigningIdentity(user)
	if err != nil {
		if isUserNotFound(err) {
			return nil, nil
		}
		return nil, errors.WithMessage(err, "reading signing identity failed")
	}
	return toIdentity(user, si), nil
}

func isUserNotFound(err error) bool {
	cause := errors.Cause(err)
	return cause == mspclient.ErrUserNotFound || cause == msp.ErrUserNotFound
}

func toIdentity(user string, si msp.SigningIdentity) *ledger.Identity {
	id := &ledger.Identity{User: user, Material: si}
	if ident := si.Identifier(); ident != nil {
		id.MSPID = ident.MSPID
	}
	id.Enrolled = len(si.EnrollmentCertificate()) > 0 && si.PrivateKey() != nil
	return id
}

func signingIdentity(id *ledger.Identity) (msp.SigningIdentity, error) {
	if id == nil {
		return nil, errors.New("identity is required")
	}
	si, ok := id.Material.(msp.SigningIdentity)
	if !ok || si == nil {
		return nil, errors.Errorf("identity of user %s carries no signing material", id.User)
	}
	return si, nil
}

func (n *Network) clientContext(id *ledger.Identity) (contextApi.Client, error) {
	si, err := signingIdentity(id)
	if err != nil {
		return nil, err
	}
	ctx, err := n.sdk.Context(fabsdk.WithIdentity(si))()
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create client context")
	}
	return ctx, nil
}

func (n *Network) channelContext(id *ledger.Identity) (contextApi.Channel, error) {
	si, err := signingIdentity(id)
	if err != nil {
		return nil, err
	}
	ctx, err := n.sdk.ChannelContext(n.channelID, fabsdk.WithIdentity(si))()
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create channel context")
	}
	return ctx, nil
}

// newPeer resolves target by name in the connection profile, falling back
// to treating it as a URL
func newPeer(ctx contextApi.Client, target string) (fab.Peer, error) {
	endpointConfig := ctx.EndpointConfig()
	if peerCfg, ok := endpointConfig.PeerConfig(target); ok {
		return peer.New(endpointConfig, peer.FromPeerConfig(&fab.NetworkPeer{PeerConfig: *peerCfg}))
	}
	return peer.New(endpointConfig, peer.WithURL(target))
}

func newPeers(ctx contextApi.Client, targets []string) ([]fab.ProposalProcessor, error) {
	processors := make([]fab.ProposalProcessor, 0, len(targets))
	for _, target := range targets {
		p, err := newPeer(ctx, target)
		if err != nil {
			return nil, errors.WithMessage(err, "creating peer "+target+" failed")
		}
		processors = append(processors, p)
	}
	return processors, nil
}

func newOrderer(ctx contextApi.Client, target string) (fab.Orderer, error) {
	endpointConfig := ctx.EndpointConfig()
	o, err := orderer.New(endpointConfig, orderer.FromOrdererName(target))
	if err == nil {
		return o, nil
	}
	logger.Debugf("orderer %s not in connection profile, using it as URL: %s", target, err)
	return orderer.New(endpointConfig, orderer.WithURL(target))
}
