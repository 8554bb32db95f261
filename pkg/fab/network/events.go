/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package network

import (
	reqContext "context"
	"sync"

	"github.com/hyperledger/fabric-sdk-go/pkg/common/options"
	contextApi "github.com/hyperledger/fabric-sdk-go/pkg/common/providers/context"
	"github.com/hyperledger/fabric-sdk-go/pkg/common/providers/fab"
	"github.com/hyperledger/fabric-sdk-go/pkg/fab/events/deliverclient"
	"github.com/hyperledger/fabric-sdk-go/pkg/fab/events/deliverclient/seek"
	"github.com/kawaya-ledger/fabric-api/pkg/common/providers/ledger"
	"github.com/pkg/errors"
)

type staticDiscovery struct {
	peers []fab.Peer
}

func (d *staticDiscovery) GetPeers() ([]fab.Peer, error) {
	return d.peers, nil
}

// deliverClientFactory opens an event client on the channel
type deliverClientFactory func(ctx contextApi.Client, chConfig fab.ChannelCfg, discovery fab.DiscoveryService, opts ...options.Opt) (eventClient, error)

func newDeliverClient(ctx contextApi.Client, chConfig fab.ChannelCfg, discovery fab.DiscoveryService, opts ...options.Opt) (eventClient, error) {
	client, err := deliverclient.New(ctx, chConfig, discovery, opts...)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// Connect opens a deliver stream on the event peer, seeking from the newest
// block so that only transactions committed from now on are reported
func (n *Network) Connect(ctx reqContext.Context, id *ledger.Identity, target string) (ledger.EventStream, error) {
	chCtx, err := n.channelContext(id)
	if err != nil {
		return nil, err
	}

	p, err := newPeer(chCtx, target)
	if err != nil {
		return nil, errors.WithMessage(err, "creating event peer "+target+" failed")
	}
	stream, err := connectEvents(chCtx, p, newDeliverClient)
	if err != nil {
		return nil, err
	}
	return stream, nil
}

// connectEvents limits the deliver client to the single event peer p
func connectEvents(chCtx contextApi.Channel, p fab.Peer, open deliverClientFactory) (*deliverStream, error) {
	chConfig, err := chCtx.ChannelService().ChannelConfig()
	if err != nil {
		return nil, errors.WithMessage(err, "loading channel config failed")
	}

	client, err := open(chCtx, chConfig, &staticDiscovery{peers: []fab.Peer{p}}, deliverclient.WithSeekType(seek.Newest))
	if err != nil {
		return nil, errors.WithMessage(err, "connecting deliver client failed")
	}
	return newDeliverStream(client), nil
}

type eventClient interface {
	RegisterTxStatusEvent(txID string) (fab.Registration, <-chan *fab.TxStatusEvent, error)
	Unregister(reg fab.Registration)
	Close()
}

// deliverStream adapts an SDK event client to ledger.EventStream. The SDK
// reports a lost connection by closing registrations, which the commit
// waiter sees as a closed notifier; errs only carries adapter failures.
type deliverStream struct {
	client eventClient
	errs   chan error
}

func newDeliverStream(client eventClient) *deliverStream {
	return &deliverStream{client: client, errs: make(chan error, 1)}
}

type registration struct {
	reg  fab.Registration
	done chan struct{}
	once sync.Once
}

// RegisterTxStatusEvent registers for the status of txID. Events are
// forwarded with their validation code name as status.
func (s *deliverStream) RegisterTxStatusEvent(txID string) (ledger.Registration, <-chan *ledger.TxStatusEvent, error) {
	reg, eventch, err := s.client.RegisterTxStatusEvent(txID)
	if err != nil {
		return nil, nil, err
	}

	r := &registration{reg: reg, done: make(chan struct{})}
	out := make(chan *ledger.TxStatusEvent, 1)
	go func() {
		defer close(out)
		for {
			select {
			case event, ok := <-eventch:
				if !ok {
					return
				}
				select {
				case out <- toTxStatusEvent(event):
				case <-r.done:
					return
				}
			case <-r.done:
				return
			}
		}
	}()
	return r, out, nil
}

// Unregister removes the registration. Repeated calls are ignored.
func (s *deliverStream) Unregister(reg ledger.Registration) {
	r, ok := reg.(*registration)
	if !ok {
		s.fail(errors.Errorf("unexpected registration type %T", reg))
		return
	}
	r.once.Do(func() {
		close(r.done)
		s.client.Unregister(r.reg)
	})
}

func (s *deliverStream) fail(err error) {
	logger.Warnf("event stream: %s", err)
	select {
	case s.errs <- err:
	default:
	}
}

// Errors returns the stream error channel
func (s *deliverStream) Errors() <-chan error {
	return s.errs
}

// Close disconnects from the event peer
func (s *deliverStream) Close() {
	s.client.Close()
}

func toTxStatusEvent(e *fab.TxStatusEvent) *ledger.TxStatusEvent {
	if e == nil {
		return nil
	}
	return &ledger.TxStatusEvent{
		TxID:        e.TxID,
		Status:      e.TxValidationCode.String(),
		BlockNumber: e.BlockNumber,
		SourceURL:   e.SourceURL,
	}
}
