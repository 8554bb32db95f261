/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package channel

import (
	reqContext "context"
	"net/http"
	"sync"
	"testing"
	"time"

	"code.cloudfoundry.org/clock/fakeclock"
	"github.com/hyperledger/fabric-sdk-go/pkg/common/errors/multi"
	"github.com/kawaya-ledger/fabric-api/pkg/common/errors/status"
	"github.com/kawaya-ledger/fabric-api/pkg/common/providers/ledger"
	"github.com/kawaya-ledger/fabric-api/pkg/core/config"
	"github.com/kawaya-ledger/fabric-api/pkg/core/metrics"
	"github.com/kawaya-ledger/fabric-api/pkg/journal"
	fcmocks "github.com/kawaya-ledger/fabric-api/pkg/fab/mocks"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testChannel   = "mychannel"
	testUser      = "user1"
	testEventPeer = "grpc://peer0.org1.example.com:7053"
	testOrderer   = "grpc://orderer.example.com:7050"
	testTimeout   = 30 * time.Second
)

var testEndorsers = []string{"grpc://peer0.org1.example.com:7051"}

type testNetwork struct {
	store   *fcmocks.MockCredentialStore
	peer    *fcmocks.MockPeer
	orderer *fcmocks.MockOrderer
	events  *fcmocks.MockEventSource
	clock   *fakeclock.FakeClock
	journal *mockJournal
	metrics *metrics.ClientMetrics
}

type mockJournal struct {
	mutex   sync.Mutex
	entries []*journal.Entry
	err     error
}

func (j *mockJournal) Record(ctx reqContext.Context, e *journal.Entry) error {
	j.mutex.Lock()
	defer j.mutex.Unlock()
	j.entries = append(j.entries, e)
	return j.err
}

func (j *mockJournal) Close() error { return nil }

func (j *mockJournal) Entries() []*journal.Entry {
	j.mutex.Lock()
	defer j.mutex.Unlock()
	return append([]*journal.Entry(nil), j.entries...)
}

func testConfig() config.FabricConfig {
	return config.FabricConfig{
		Channel:        testChannel,
		EndorsingPeers: testEndorsers,
		EventPeer:      testEventPeer,
		Orderer:        testOrderer,
		User:           testUser,
		Timeout:        int(testTimeout / time.Millisecond),
	}
}

func newTestNetwork(payload string) *testNetwork {
	return &testNetwork{
		store:   fcmocks.NewMockCredentialStore(testUser),
		peer:    fcmocks.NewMockPeer([]byte(payload)),
		orderer: fcmocks.NewMockOrderer(testOrderer),
		events:  fcmocks.NewMockEventSource(),
		clock:   fakeclock.NewFakeClock(time.Now()),
		journal: &mockJournal{},
		metrics: metrics.NewClientMetrics("test"),
	}
}

func (n *testNetwork) providers() Providers {
	return Providers{Credentials: n.store, Proposals: n.peer, Orderer: n.orderer, Events: n.events}
}

func setupTestClient(t *testing.T, n *testNetwork) *Client {
	c, err := New(testConfig(), n.providers(), WithClock(n.clock), WithJournal(n.journal), WithMetrics(n.metrics))
	require.NoError(t, err)
	return c
}

// commitWith answers the next registration with the given validation code
func (n *testNetwork) commitWith(code string) {
	go func() {
		select {
		case reg := <-n.events.Service.TxStatusRegCh:
			reg.Eventch <- &ledger.TxStatusEvent{TxID: reg.TxID, Status: code}
		case <-time.After(5 * time.Second):
			panic("no registration for commit event")
		}
	}()
}

// expire lets the commit timer of the next registration fire
func (n *testNetwork) expire(d time.Duration) {
	go func() {
		<-n.events.Service.TxStatusRegCh
		n.clock.WaitForWatcherAndIncrement(d)
	}()
}

func TestNew(t *testing.T) {
	n := newTestNetwork("")

	c, err := New(testConfig(), n.providers())
	require.NoError(t, err)
	assert.Equal(t, testChannel, c.ChannelID())

	tests := []struct {
		name   string
		mutate func(cfg *config.FabricConfig, p *Providers)
	}{
		{"channel", func(cfg *config.FabricConfig, p *Providers) { cfg.Channel = "" }},
		{"event peer", func(cfg *config.FabricConfig, p *Providers) { cfg.EventPeer = "" }},
		{"timeout", func(cfg *config.FabricConfig, p *Providers) { cfg.Timeout = 0 }},
		{"endorsers", func(cfg *config.FabricConfig, p *Providers) { cfg.EndorsingPeers = nil }},
		{"orderer", func(cfg *config.FabricConfig, p *Providers) { cfg.Orderer = "" }},
		{"user", func(cfg *config.FabricConfig, p *Providers) { cfg.User = "" }},
		{"credential store", func(cfg *config.FabricConfig, p *Providers) { p.Credentials = nil }},
		{"event source", func(cfg *config.FabricConfig, p *Providers) { p.Events = nil }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			p := n.providers()
			tc.mutate(&cfg, &p)
			_, err := New(cfg, p)
			assert.Error(t, err)
		})
	}

	_, err = New(testConfig(), n.providers(), WithMetrics(nil))
	assert.Error(t, err)
}

func TestInvokeSuccess(t *testing.T) {
	n := newTestNetwork(`{"room":"A","status":"open"}`)
	c := setupTestClient(t, n)
	n.commitWith(ledger.EventValid)

	args := []string{"A", "open", "2018-01-01"}
	outcome, err := c.Invoke(reqContext.Background(), Request{ChaincodeID: "kawaya", Fcn: "putRoom", Args: args})
	require.NoError(t, err)

	assert.True(t, outcome.Successful())
	assert.Equal(t, http.StatusOK, outcome.Status)
	assert.Equal(t, map[string]interface{}{"room": "A", "status": "open"}, outcome.Payload)
	assert.Equal(t, ledger.TransactionID("txid-1"), outcome.TransactionID)
	assert.Equal(t, ledger.OrderSuccess, outcome.Order.Status)
	assert.Equal(t, ledger.EventValid, outcome.Commit.EventStatus)

	// arguments arrive in order on the configured peers
	proposals := n.peer.Proposals()
	require.Len(t, proposals, 1)
	assert.Equal(t, args, proposals[0].Args)
	assert.Equal(t, testChannel, proposals[0].ChannelID)
	assert.Equal(t, [][]string{testEndorsers}, n.peer.Targets())
	assert.Equal(t, []string{testEventPeer}, n.events.Peers())
	assert.Equal(t, 1, n.orderer.Broadcasts())

	// identity fetched for the invocation, subscription torn down
	assert.Equal(t, 1, n.store.Lookups())
	assert.Equal(t, 1, n.events.Service.Unregistered())
	assert.Equal(t, 1, n.events.Service.Closed())

	entries := n.journal.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "txid-1", entries[0].TransactionID)
	assert.Equal(t, "VALID", entries[0].EventStatus)
	assert.Equal(t, http.StatusOK, entries[0].Status)
}

func TestInvokeRejected(t *testing.T) {
	n := newTestNetwork("")
	n.peer.Status = http.StatusInternalServerError
	n.peer.Message = "room A already exists"
	c := setupTestClient(t, n)

	outcome, err := c.Invoke(reqContext.Background(), Request{ChaincodeID: "kawaya", Fcn: "putRoom", Args: []string{"A"}})
	require.Error(t, err)
	assert.Nil(t, outcome)

	s, ok := status.FromError(err)
	require.True(t, ok)
	assert.Equal(t, status.ProposalRejectedStatus, s.Group)
	assert.Equal(t, "room A already exists", s.Message)

	// no ordering and no subscription
	assert.Equal(t, 0, n.orderer.Broadcasts())
	assert.Empty(t, n.events.Peers())

	entries := n.journal.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "txid-1", entries[0].TransactionID)
	assert.Equal(t, http.StatusBadRequest, entries[0].Status)

	count, err := testutil.GatherAndCount(n.metrics.Registry(), "test_channel_executions_failed")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestInvokeTimeout(t *testing.T) {
	n := newTestNetwork(`{"ok":true}`)
	c := setupTestClient(t, n)
	n.expire(testTimeout)

	outcome, err := c.Invoke(reqContext.Background(), Request{ChaincodeID: "kawaya", Fcn: "putRoom", Args: []string{"A"}})
	require.NoError(t, err)

	assert.False(t, outcome.Successful())
	assert.Equal(t, FailedInvokeStatus, outcome.Status)
	assert.Equal(t, FailedInvokeMessage, outcome.Message)
	assert.Nil(t, outcome.Payload)
	assert.Equal(t, ledger.OrderSuccess, outcome.Order.Status)
	assert.Equal(t, ledger.EventTimeout, outcome.Commit.EventStatus)
	assert.Equal(t, 1, n.events.Service.Closed())

	count, err := testutil.GatherAndCount(n.metrics.Registry(), "test_channel_commit_timeouts")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestInvokeWithTimeoutOption(t *testing.T) {
	n := newTestNetwork(`{}`)
	c := setupTestClient(t, n)
	n.expire(time.Second)

	outcome, err := c.Invoke(reqContext.Background(), Request{ChaincodeID: "kawaya", Fcn: "putRoom"}, WithTimeout(time.Second))
	require.NoError(t, err)
	assert.Equal(t, ledger.EventTimeout, outcome.Commit.EventStatus)

	_, err = c.Invoke(reqContext.Background(), Request{ChaincodeID: "kawaya", Fcn: "putRoom"}, WithTimeout(0))
	assert.True(t, status.IsGroup(err, status.ClientStatus))
}

func TestInvokeNotCommittedValid(t *testing.T) {
	tests := []struct {
		name        string
		orderStatus ledger.OrderStatus
		eventStatus string
	}{
		{"order failure", ledger.OrderFailure, ledger.EventValid},
		{"mvcc conflict", ledger.OrderSuccess, "MVCC_READ_CONFLICT"},
		{"endorsement policy", ledger.OrderSuccess, "ENDORSEMENT_POLICY_FAILURE"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			n := newTestNetwork(`{"ok":true}`)
			n.orderer.Status = tc.orderStatus
			c := setupTestClient(t, n)
			n.commitWith(tc.eventStatus)

			outcome, err := c.Invoke(reqContext.Background(), Request{ChaincodeID: "kawaya", Fcn: "putRoom"})
			require.NoError(t, err)
			assert.Equal(t, FailedInvokeStatus, outcome.Status)
			assert.Equal(t, FailedInvokeMessage, outcome.Message)
			assert.Equal(t, tc.orderStatus, outcome.Order.Status)
			assert.Equal(t, tc.eventStatus, outcome.Commit.EventStatus)
		})
	}
}

func TestInvokeOrdererTransportError(t *testing.T) {
	n := newTestNetwork(`{"ok":true}`)
	n.orderer.Error = errors.New("connection refused")
	c := setupTestClient(t, n)
	n.commitWith(ledger.EventValid)

	outcome, err := c.Invoke(reqContext.Background(), Request{ChaincodeID: "kawaya", Fcn: "putRoom"})
	require.Error(t, err)
	assert.Nil(t, outcome)
	assert.True(t, status.IsGroup(err, status.OrdererStatus))
	assert.Equal(t, http.StatusBadGateway, status.HTTPCode(err))

	// the commit wait ran to its end regardless
	entries := n.journal.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "VALID", entries[0].EventStatus)
	assert.Empty(t, entries[0].OrderStatus)
}

func TestInvokeOrdererAndEventErrors(t *testing.T) {
	n := newTestNetwork(`{"ok":true}`)
	n.orderer.Error = errors.New("connection refused")
	n.events.Service.ErrCh <- errors.New("stream reset")
	c := setupTestClient(t, n)
	go func() { <-n.events.Service.TxStatusRegCh }()

	_, err := c.Invoke(reqContext.Background(), Request{ChaincodeID: "kawaya", Fcn: "putRoom"})
	require.Error(t, err)

	errs, ok := errors.Cause(err).(multi.Errors)
	require.True(t, ok)
	require.Len(t, errs, 2)
	assert.True(t, status.IsGroup(errs[0], status.OrdererStatus))
	assert.True(t, status.IsGroup(errs[1], status.EventStreamStatus))
	assert.Equal(t, http.StatusBadGateway, status.HTTPCode(err))
}

func TestInvokeEventConnectError(t *testing.T) {
	n := newTestNetwork(`{"ok":true}`)
	n.events.ConnectErr = errors.New("no route to host")
	c := setupTestClient(t, n)

	_, err := c.Invoke(reqContext.Background(), Request{ChaincodeID: "kawaya", Fcn: "putRoom"})
	assert.True(t, status.IsGroup(err, status.EventStreamStatus))
	assert.Equal(t, 0, n.orderer.Broadcasts())
}

func TestInvokeAuthenticationFailure(t *testing.T) {
	n := newTestNetwork(`{}`)
	n.store = fcmocks.NewMockCredentialStore()
	c := setupTestClient(t, n)

	_, err := c.Invoke(reqContext.Background(), Request{ChaincodeID: "kawaya", Fcn: "putRoom"})
	assert.True(t, status.IsGroup(err, status.AuthenticationStatus))
	assert.Equal(t, http.StatusInternalServerError, status.HTTPCode(err))
	assert.Empty(t, n.peer.Proposals())

	n.store.Store(&ledger.Identity{User: testUser})
	_, err = c.Invoke(reqContext.Background(), Request{ChaincodeID: "kawaya", Fcn: "putRoom"})
	assert.True(t, status.IsGroup(err, status.AuthenticationStatus))
}

func TestInvokeInvalidRequest(t *testing.T) {
	n := newTestNetwork(`{}`)
	c := setupTestClient(t, n)

	_, err := c.Invoke(reqContext.Background(), Request{Fcn: "putRoom"})
	assert.True(t, status.IsGroup(err, status.ClientStatus))
	_, err = c.Invoke(reqContext.Background(), Request{ChaincodeID: "kawaya"})
	assert.True(t, status.IsGroup(err, status.ClientStatus))
	assert.Empty(t, n.peer.Proposals())
}

func TestInvokeJournalFailureIgnored(t *testing.T) {
	n := newTestNetwork(`{"ok":true}`)
	n.journal.err = errors.New("journal unavailable")
	c := setupTestClient(t, n)
	n.commitWith(ledger.EventValid)

	outcome, err := c.Invoke(reqContext.Background(), Request{ChaincodeID: "kawaya", Fcn: "putRoom"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, outcome.Status)
}

func TestConcurrentInvocations(t *testing.T) {
	n := newTestNetwork(`{"ok":true}`)
	c := setupTestClient(t, n)

	const count = 5
	go func() {
		for i := 0; i < count; i++ {
			reg := <-n.events.Service.TxStatusRegCh
			reg.Eventch <- &ledger.TxStatusEvent{TxID: reg.TxID, Status: ledger.EventValid}
		}
	}()

	var wg sync.WaitGroup
	ids := make(chan ledger.TransactionID, count)
	for i := 0; i < count; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcome, err := c.Invoke(reqContext.Background(), Request{ChaincodeID: "kawaya", Fcn: "putRoom"})
			if assert.NoError(t, err) {
				assert.Equal(t, http.StatusOK, outcome.Status)
				ids <- outcome.TransactionID
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[ledger.TransactionID]bool)
	for id := range ids {
		assert.False(t, seen[id], "transaction id %s reused", id)
		seen[id] = true
	}
	assert.Len(t, seen, count)
	assert.Equal(t, count, n.store.Lookups())
}

func TestQuery(t *testing.T) {
	n := newTestNetwork(`{"rooms":["A","B"]}`)
	c := setupTestClient(t, n)

	result, err := c.Query(reqContext.Background(), Request{ChaincodeID: "kawaya", Fcn: "getRooms", Args: []string{}})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"rooms": []interface{}{"A", "B"}}, result)

	proposals := n.peer.Proposals()
	require.Len(t, proposals, 1)
	assert.Nil(t, proposals[0].TxnHeader)
	assert.Equal(t, 0, n.orderer.Broadcasts())
	assert.Empty(t, n.events.Peers())
	// queries are not journaled
	assert.Empty(t, n.journal.Entries())
}

func TestQueryEmpty(t *testing.T) {
	n := newTestNetwork("")
	c := setupTestClient(t, n)

	result, err := c.Query(reqContext.Background(), Request{ChaincodeID: "kawaya", Fcn: "getRoom", Args: []string{"Z"}})
	require.NoError(t, err)
	assert.Nil(t, result)

	n.peer.NoResponses = true
	_, err = c.Query(reqContext.Background(), Request{ChaincodeID: "kawaya", Fcn: "getRoom"})
	require.Error(t, err)

	s, ok := status.FromError(err)
	require.True(t, ok)
	assert.Equal(t, status.EmptyResultStatus, s.Group)
	assert.Equal(t, EmptyResultMessage, s.Message)
	assert.Equal(t, http.StatusBadGateway, status.HTTPCode(err))
}

func TestQueryErrors(t *testing.T) {
	n := newTestNetwork("")
	n.peer.Status = http.StatusInternalServerError
	n.peer.Message = "no such room"
	c := setupTestClient(t, n)

	_, err := c.Query(reqContext.Background(), Request{ChaincodeID: "kawaya", Fcn: "getRoom"})
	assert.True(t, status.IsGroup(err, status.ProposalRejectedStatus))

	n.peer.Error = errors.New("deadline exceeded")
	_, err = c.Query(reqContext.Background(), Request{ChaincodeID: "kawaya", Fcn: "getRoom"})
	assert.True(t, status.IsGroup(err, status.EndorsementStatus))

	_, err = c.Query(reqContext.Background(), Request{ChaincodeID: "kawaya"})
	assert.True(t, status.IsGroup(err, status.ClientStatus))

	count, err := testutil.GatherAndCount(n.metrics.Registry(), "test_channel_queries_failed")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestDecodePayload(t *testing.T) {
	assert.Nil(t, decodePayload(nil))
	assert.Nil(t, decodePayload([]byte("  ")))
	assert.Equal(t, "plain text", decodePayload([]byte("plain text")))
	assert.Equal(t, float64(3), decodePayload([]byte("3")))
	assert.Equal(t, []interface{}{"A", "B"}, decodePayload([]byte(`["A","B"]`)))
}
