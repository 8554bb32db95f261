/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package network

import (
	reqContext "context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang/protobuf/proto"
	pb "github.com/hyperledger/fabric-protos-go/peer"
	mspclient "github.com/hyperledger/fabric-sdk-go/pkg/client/msp"
	"github.com/hyperledger/fabric-sdk-go/pkg/common/errors/multi"
	sdkstatus "github.com/hyperledger/fabric-sdk-go/pkg/common/errors/status"
	"github.com/hyperledger/fabric-sdk-go/pkg/common/options"
	contextApi "github.com/hyperledger/fabric-sdk-go/pkg/common/providers/context"
	"github.com/hyperledger/fabric-sdk-go/pkg/common/providers/core"
	"github.com/hyperledger/fabric-sdk-go/pkg/common/providers/fab"
	"github.com/hyperledger/fabric-sdk-go/pkg/common/providers/msp"
	"github.com/kawaya-ledger/fabric-api/pkg/common/errors/status"
	"github.com/kawaya-ledger/fabric-api/pkg/common/providers/ledger"
	"github.com/kawaya-ledger/fabric-api/pkg/core/config"
	"github.com/kawaya-ledger/fabric-api/pkg/core/config/lookup"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockKey struct {
	core.Key
}

type mockSigningIdentity struct {
	msp.SigningIdentity
	mspID string
	cert  []byte
	key   core.Key
}

func (m *mockSigningIdentity) Identifier() *msp.IdentityIdentifier {
	return &msp.IdentityIdentifier{MSPID: m.mspID, ID: "user1"}
}

func (m *mockSigningIdentity) EnrollmentCertificate() []byte {
	return m.cert
}

func (m *mockSigningIdentity) PrivateKey() core.Key {
	return m.key
}

type mockMSP struct {
	identities map[string]msp.SigningIdentity
	err        error
}

func (m *mockMSP) GetSigningIdentity(id string) (msp.SigningIdentity, error) {
	if m.err != nil {
		return nil, m.err
	}
	si, ok := m.identities[id]
	if !ok {
		return nil, mspclient.ErrUserNotFound
	}
	return si, nil
}

func TestLookup(t *testing.T) {
	enrolled := &mockSigningIdentity{mspID: "Org1MSP", cert: []byte("cert"), key: &mockKey{}}
	pending := &mockSigningIdentity{mspID: "Org1MSP"}
	n := &Network{msp: &mockMSP{identities: map[string]msp.SigningIdentity{"user1": enrolled, "user2": pending}}}

	id, err := n.Lookup(reqContext.Background(), "user1")
	require.NoError(t, err)
	assert.Equal(t, "user1", id.User)
	assert.Equal(t, "Org1MSP", id.MSPID)
	assert.True(t, id.Enrolled)
	assert.Equal(t, enrolled, id.Material)

	id, err = n.Lookup(reqContext.Background(), "user2")
	require.NoError(t, err)
	assert.False(t, id.Enrolled)

	id, err = n.Lookup(reqContext.Background(), "nobody")
	assert.NoError(t, err)
	assert.Nil(t, id)

	n.msp = &mockMSP{err: errors.Wrap(msp.ErrUserNotFound, "load")}
	id, err = n.Lookup(reqContext.Background(), "user1")
	assert.NoError(t, err)
	assert.Nil(t, id)

	n.msp = &mockMSP{err: errors.New("store unreadable")}
	_, err = n.Lookup(reqContext.Background(), "user1")
	assert.Error(t, err)
}

func TestSigningIdentity(t *testing.T) {
	_, err := signingIdentity(nil)
	assert.Error(t, err)

	_, err = signingIdentity(&ledger.Identity{User: "user1", Material: "not a signer"})
	assert.Error(t, err)

	si := &mockSigningIdentity{}
	got, err := signingIdentity(&ledger.Identity{User: "user1", Material: si})
	require.NoError(t, err)
	assert.Equal(t, si, got)
}

func TestRejection(t *testing.T) {
	rejected := sdkstatus.New(sdkstatus.EndorserServerStatus, 500, "room A already exists", []interface{}{"peer0"})

	s, ok := rejection(rejected)
	require.True(t, ok)
	assert.Equal(t, status.ProposalRejectedStatus, s.Group)
	assert.Equal(t, int32(500), s.Code)
	assert.Equal(t, "room A already exists", s.Message)

	s, ok = rejection(multi.New(errors.New("connection refused"), errors.Wrap(rejected, "peer1")))
	require.True(t, ok)
	assert.Equal(t, "room A already exists", s.Message)

	s, ok = rejection(sdkstatus.New(sdkstatus.ChaincodeStatus, 404, "no such function", nil))
	require.True(t, ok)
	assert.Equal(t, int32(404), s.Code)

	_, ok = rejection(sdkstatus.New(sdkstatus.EndorserClientStatus, int32(sdkstatus.Timeout), "timeout", nil))
	assert.False(t, ok)
	_, ok = rejection(errors.New("connection refused"))
	assert.False(t, ok)
}

func marshal(t *testing.T, m proto.Message) []byte {
	b, err := proto.Marshal(m)
	require.NoError(t, err)
	return b
}

func TestResponsePayload(t *testing.T) {
	payload, err := responsePayload(nil)
	require.NoError(t, err)
	assert.Nil(t, payload)

	payload, err = responsePayload(&pb.ProposalResponse{Response: &pb.Response{Status: 200, Payload: []byte(`{"rooms":["A"]}`)}})
	require.NoError(t, err)
	assert.Equal(t, `{"rooms":["A"]}`, string(payload))

	action := &pb.ChaincodeAction{Response: &pb.Response{Status: 200, Payload: []byte(`{"room":"B"}`)}}
	prp := &pb.ProposalResponsePayload{ProposalHash: []byte("hash"), Extension: marshal(t, action)}
	payload, err = responsePayload(&pb.ProposalResponse{Response: &pb.Response{Status: 200}, Payload: marshal(t, prp)})
	require.NoError(t, err)
	assert.Equal(t, `{"room":"B"}`, string(payload))

	payload, err = responsePayload(&pb.ProposalResponse{Payload: marshal(t, &pb.ProposalResponsePayload{ProposalHash: []byte("hash")})})
	require.NoError(t, err)
	assert.Nil(t, payload)

	_, err = responsePayload(&pb.ProposalResponse{Payload: []byte{0xff, 0xff, 0xff}})
	assert.Error(t, err)
}

func TestToProposalResponse(t *testing.T) {
	raw := &fab.TransactionProposalResponse{
		Endorser: "peer0.org1.example.com:7051",
		Status:   200,
		ProposalResponse: &pb.ProposalResponse{
			Response: &pb.Response{Status: 500, Message: "room A already exists"},
		},
	}
	pr, err := toProposalResponse(raw)
	require.NoError(t, err)
	assert.Equal(t, "peer0.org1.example.com:7051", pr.Endorser)
	assert.Equal(t, int32(500), pr.Status)
	assert.Equal(t, "room A already exists", pr.Message)
	assert.Equal(t, raw, pr.Raw)

	pr, err = toProposalResponse(&fab.TransactionProposalResponse{Endorser: "peer1", Status: 200})
	require.NoError(t, err)
	assert.Equal(t, int32(200), pr.Status)
	assert.Nil(t, pr.Payload)
}

func TestTransactionRequest(t *testing.T) {
	proposal := &fab.TransactionProposal{TxnID: "txid-1"}
	ok := &fab.TransactionProposalResponse{Endorser: "peer0"}
	failed := &fab.TransactionProposalResponse{Endorser: "peer1"}

	request, err := transactionRequest(&ledger.EndorsementResult{
		Proposal: proposal,
		Responses: []*ledger.ProposalResponse{
			{Status: 200, Raw: ok},
			{Status: 500, Raw: failed},
			nil,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, proposal, request.Proposal)
	assert.Equal(t, []*fab.TransactionProposalResponse{ok}, request.ProposalResponses)

	_, err = transactionRequest(nil)
	assert.Error(t, err)
	_, err = transactionRequest(&ledger.EndorsementResult{Proposal: "proposal"})
	assert.Error(t, err)
	_, err = transactionRequest(&ledger.EndorsementResult{Proposal: proposal, Responses: []*ledger.ProposalResponse{{Status: 500, Raw: failed}}})
	assert.Error(t, err)
	_, err = transactionRequest(&ledger.EndorsementResult{Proposal: proposal, Responses: []*ledger.ProposalResponse{{Status: 200, Raw: "raw"}}})
	assert.Error(t, err)
}

func TestOrderFailure(t *testing.T) {
	result, ok := orderFailure(sdkstatus.New(sdkstatus.OrdererServerStatus, 400, "BAD_REQUEST", nil), "orderer.example.com")
	require.True(t, ok)
	assert.Equal(t, ledger.OrderFailure, result.Status)
	assert.Equal(t, "orderer.example.com", result.Orderer)
	assert.Equal(t, "BAD_REQUEST", result.Info)

	_, ok = orderFailure(errors.New("connection refused"), "orderer.example.com")
	assert.False(t, ok)
	_, ok = orderFailure(sdkstatus.New(sdkstatus.OrdererClientStatus, 1, "no connection", nil), "orderer.example.com")
	assert.False(t, ok)
}

type mockEventClient struct {
	eventch      chan *fab.TxStatusEvent
	registerErr  error
	unregistered int
	closed       int
}

func (m *mockEventClient) RegisterTxStatusEvent(txID string) (fab.Registration, <-chan *fab.TxStatusEvent, error) {
	if m.registerErr != nil {
		return nil, nil, m.registerErr
	}
	return txID, m.eventch, nil
}

func (m *mockEventClient) Unregister(reg fab.Registration) {
	m.unregistered++
}

func (m *mockEventClient) Close() {
	m.closed++
}

func TestDeliverStream(t *testing.T) {
	client := &mockEventClient{eventch: make(chan *fab.TxStatusEvent, 1)}
	s := newDeliverStream(client)

	reg, eventch, err := s.RegisterTxStatusEvent("txid-1")
	require.NoError(t, err)

	client.eventch <- &fab.TxStatusEvent{TxID: "txid-1", TxValidationCode: pb.TxValidationCode_MVCC_READ_CONFLICT, BlockNumber: 7, SourceURL: "peer0"}
	select {
	case e := <-eventch:
		assert.Equal(t, &ledger.TxStatusEvent{TxID: "txid-1", Status: "MVCC_READ_CONFLICT", BlockNumber: 7, SourceURL: "peer0"}, e)
	case <-time.After(5 * time.Second):
		t.Fatal("event was not forwarded")
	}

	s.Unregister(reg)
	s.Unregister(reg)
	assert.Equal(t, 1, client.unregistered)

	select {
	case _, ok := <-eventch:
		assert.False(t, ok, "notifier must be closed after unregister")
	case <-time.After(5 * time.Second):
		t.Fatal("notifier was not closed")
	}

	s.Close()
	assert.Equal(t, 1, client.closed)
}

func TestDeliverStreamSourceClosed(t *testing.T) {
	client := &mockEventClient{eventch: make(chan *fab.TxStatusEvent)}
	s := newDeliverStream(client)

	_, eventch, err := s.RegisterTxStatusEvent("txid-1")
	require.NoError(t, err)
	close(client.eventch)

	select {
	case _, ok := <-eventch:
		assert.False(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("notifier was not closed")
	}
}

func TestDeliverStreamErrors(t *testing.T) {
	client := &mockEventClient{registerErr: errors.New("registration exists")}
	s := newDeliverStream(client)

	_, _, err := s.RegisterTxStatusEvent("txid-1")
	assert.Error(t, err)

	s.Unregister("foreign registration")
	select {
	case err := <-s.Errors():
		assert.Contains(t, err.Error(), "unexpected registration type")
	default:
		t.Fatal("expected a stream error")
	}
	assert.Equal(t, 0, client.unregistered)
}

func TestToTxStatusEvent(t *testing.T) {
	assert.Nil(t, toTxStatusEvent(nil))
	e := toTxStatusEvent(&fab.TxStatusEvent{TxID: "txid-1", TxValidationCode: pb.TxValidationCode_VALID})
	assert.Equal(t, ledger.EventValid, e.Status)
}

type mockChannelCfg struct {
	fab.ChannelCfg
	id string
}

func (c *mockChannelCfg) ID() string {
	return c.id
}

type mockChannelService struct {
	fab.ChannelService
	cfg fab.ChannelCfg
	err error
}

func (s *mockChannelService) ChannelConfig() (fab.ChannelCfg, error) {
	return s.cfg, s.err
}

type mockChannelContext struct {
	contextApi.Channel
	service *mockChannelService
}

func (c *mockChannelContext) ChannelService() fab.ChannelService {
	return c.service
}

type mockEventPeer struct {
	fab.Peer
	url string
}

func (p *mockEventPeer) URL() string {
	return p.url
}

func TestConnectEvents(t *testing.T) {
	chCfg := &mockChannelCfg{id: "mychannel"}
	chCtx := &mockChannelContext{service: &mockChannelService{cfg: chCfg}}
	p := &mockEventPeer{url: "grpcs://peer0:7051"}
	client := &mockEventClient{}

	var (
		gotCtx       contextApi.Client
		gotCfg       fab.ChannelCfg
		gotDiscovery fab.DiscoveryService
		gotOpts      []options.Opt
	)
	open := func(ctx contextApi.Client, chConfig fab.ChannelCfg, discovery fab.DiscoveryService, opts ...options.Opt) (eventClient, error) {
		gotCtx, gotCfg, gotDiscovery, gotOpts = ctx, chConfig, discovery, opts
		return client, nil
	}

	s, err := connectEvents(chCtx, p, open)
	require.NoError(t, err)
	assert.Equal(t, client, s.client)
	assert.Equal(t, chCtx, gotCtx)
	assert.Equal(t, "mychannel", gotCfg.ID())
	assert.Len(t, gotOpts, 1)

	peers, err := gotDiscovery.GetPeers()
	require.NoError(t, err)
	require.Len(t, peers, 1)
	assert.Equal(t, "grpcs://peer0:7051", peers[0].URL())
}

func TestConnectEventsErrors(t *testing.T) {
	open := func(ctx contextApi.Client, chConfig fab.ChannelCfg, discovery fab.DiscoveryService, opts ...options.Opt) (eventClient, error) {
		return nil, errors.New("connection refused")
	}

	chCtx := &mockChannelContext{service: &mockChannelService{err: errors.New("no channel config")}}
	_, err := connectEvents(chCtx, &mockEventPeer{}, open)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading channel config failed")

	chCtx = &mockChannelContext{service: &mockChannelService{cfg: &mockChannelCfg{}}}
	_, err = connectEvents(chCtx, &mockEventPeer{}, open)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connecting deliver client failed")
}

func TestConfigProvider(t *testing.T) {
	profile := filepath.Join(t.TempDir(), "connection-profile.yaml")
	require.NoError(t, os.WriteFile(profile, []byte(`
client:
  organization: org1
  credentialStore:
    path: /tmp/state-store
    cryptoStore:
      path: /tmp/msp
`), 0600))

	backends, err := ConfigProvider(config.FabricConfig{
		ConnectionProfile: profile,
		CredentialStore:   "/var/fabric/hfc-key-store",
	})()
	require.NoError(t, err)

	l := lookup.New(backends...)
	assert.Equal(t, "org1", l.GetString("client.organization"))

	client := struct {
		Organization    string
		CredentialStore struct {
			Path        string
			CryptoStore struct {
				Path string
			}
		}
	}{}
	require.NoError(t, l.UnmarshalKey("client", &client))
	assert.Equal(t, "/var/fabric/hfc-key-store", client.CredentialStore.Path)
	assert.Equal(t, "/var/fabric/hfc-key-store", client.CredentialStore.CryptoStore.Path)

	_, err = ConfigProvider(config.FabricConfig{ConnectionProfile: filepath.Join(t.TempDir(), "missing.yaml")})()
	assert.Error(t, err)
}

func TestClientSettings(t *testing.T) {
	profile := filepath.Join(t.TempDir(), "connection-profile.yaml")
	require.NoError(t, os.WriteFile(profile, []byte(`
client:
  organization: org1
  peer:
    timeout:
      connection: 10s
  credentialStore:
    path: /tmp/state-store
    cryptoStore:
      path: /tmp/msp
`), 0600))

	backends, err := ConfigProvider(config.FabricConfig{
		ConnectionProfile: profile,
		Organization:      "org2",
		CredentialStore:   "/var/fabric/hfc-key-store",
	})()
	require.NoError(t, err)

	client, err := clientSettings(backends...)
	require.NoError(t, err)
	assert.Equal(t, "org2", client.Organization)
	assert.Equal(t, "/var/fabric/hfc-key-store", client.CredentialStore.Path)
	assert.Equal(t, "/var/fabric/hfc-key-store", client.CredentialStore.CryptoStore.Path)
	assert.Equal(t, 10*time.Second, client.peerConnectionTimeout)

	client, err = clientSettings(lookup.MapBackend{})
	require.NoError(t, err)
	assert.Empty(t, client.Organization)
	assert.Zero(t, client.peerConnectionTimeout)
}

func TestNewRequiresProfile(t *testing.T) {
	_, err := New(config.FabricConfig{Channel: "mychannel"})
	assert.Error(t, err)

	_, err = New(config.FabricConfig{Channel: "mychannel", ConnectionProfile: filepath.Join(t.TempDir(), "missing.yaml")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading connection profile failed")
}
