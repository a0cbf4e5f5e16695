// Package eventstream broadcasts the venue's observable event stream
// (spec §6) to websocket subscribers in real time. Grounded on the
// teacher's internal/rpc/websocket.go (the per-connection upgrade,
// send channel, and read/write pump shape) and publisher.go (a
// Publisher interface callers depend on instead of the transport).
// Broadcaster is read-only: it never drives a core mutation, it only
// observes what internal/venue's event sinks are handed after a
// mutation already committed.
package eventstream

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/LeJamon/sekex/internal/events"
)

// Message is the wire envelope every broadcast event is wrapped in: a
// kind tag plus its JSON-encoded payload, so a subscriber can dispatch
// without a priori knowledge of every event type's shape.
type Message struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

const clientSendBuffer = 256

// client is one connected websocket subscriber.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Broadcaster fans every venue event out to connected websocket
// clients. It implements events.Publisher, so it composes with
// internal/audit's SQL sink through events.Multi.
type Broadcaster struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
}

// New returns a Broadcaster ready to accept connections at ServeHTTP.
func New() *Broadcaster {
	return &Broadcaster{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// ServeHTTP upgrades the request to a websocket connection and
// registers it as a broadcast target until it disconnects.
func (b *Broadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("eventstream: upgrade failed: %v", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, clientSendBuffer)}
	b.mu.Lock()
	b.clients[c] = struct{}{}
	b.mu.Unlock()

	go b.writePump(c)
	go b.readPump(c)
}

// readPump drains (and discards) inbound frames so the connection's
// read deadline and control frames are serviced; it exists to detect
// disconnects, not to accept subscriber commands.
func (b *Broadcaster) readPump(c *client) {
	defer b.remove(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (b *Broadcaster) writePump(c *client) {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

func (b *Broadcaster) remove(c *client) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.clients[c]; ok {
		delete(b.clients, c)
		close(c.send)
	}
}

// ClientCount reports the number of currently connected subscribers.
func (b *Broadcaster) ClientCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

// Close disconnects every subscriber, for use during server shutdown.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for c := range b.clients {
		delete(b.clients, c)
		close(c.send)
	}
}

func (b *Broadcaster) broadcast(kind string, payload any) {
	blob, err := json.Marshal(payload)
	if err != nil {
		log.Printf("eventstream: marshalling %s payload: %v", kind, err)
		return
	}
	msg, err := json.Marshal(Message{Kind: kind, Payload: blob})
	if err != nil {
		log.Printf("eventstream: marshalling %s envelope: %v", kind, err)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for c := range b.clients {
		select {
		case c.send <- msg:
		default:
			log.Printf("eventstream: dropping %s for a slow subscriber", kind)
		}
	}
}

func (b *Broadcaster) PublishExchangeDeployed(e events.ExchangeDeployed) {
	b.broadcast("ExchangeDeployed", e)
}

func (b *Broadcaster) PublishTokenCreated(e events.TokenCreated) {
	b.broadcast("TokenCreated", e)
}

func (b *Broadcaster) PublishShareholderWhitelisted(e events.ShareholderWhitelisted) {
	b.broadcast("ShareholderWhitelisted", e)
}

func (b *Broadcaster) PublishDividendsDistributed(e events.DividendsDistributed) {
	b.broadcast("DividendsDistributed", e)
}

func (b *Broadcaster) PublishDividendClaimed(e events.DividendClaimed) {
	b.broadcast("DividendClaimed", e)
}

func (b *Broadcaster) PublishGovernanceVoteCasted(e events.GovernanceVoteCasted) {
	b.broadcast("GovernanceVoteCasted", e)
}

func (b *Broadcaster) PublishTokensTransferred(e events.TokensTransferred) {
	b.broadcast("TokensTransferred", e)
}

func (b *Broadcaster) PublishOrderCreated(e events.OrderCreated) {
	b.broadcast("OrderCreated", e)
}

func (b *Broadcaster) PublishOrderFilled(e events.OrderFilled) {
	b.broadcast("OrderFilled", e)
}

func (b *Broadcaster) PublishOrderCancelled(e events.OrderCancelled) {
	b.broadcast("OrderCancelled", e)
}

func (b *Broadcaster) PublishFeesCollected(e events.FeesCollected) {
	b.broadcast("FeesCollected", e)
}

func (b *Broadcaster) PublishLiquidityProviderRegistered(e events.LiquidityProviderRegistered) {
	b.broadcast("LiquidityProviderRegistered", e)
}

func (b *Broadcaster) PublishLiquidityProviderDeactivated(e events.LiquidityProviderDeactivated) {
	b.broadcast("LiquidityProviderDeactivated", e)
}

func (b *Broadcaster) PublishIncentiveProgramCreated(e events.IncentiveProgramCreated) {
	b.broadcast("IncentiveProgramCreated", e)
}

func (b *Broadcaster) PublishIncentiveProgramUpdated(e events.IncentiveProgramUpdated) {
	b.broadcast("IncentiveProgramUpdated", e)
}

func (b *Broadcaster) PublishCollateralLocked(e events.CollateralLocked) {
	b.broadcast("CollateralLocked", e)
}

func (b *Broadcaster) PublishCollateralReleased(e events.CollateralReleased) {
	b.broadcast("CollateralReleased", e)
}

func (b *Broadcaster) PublishRewardsPaid(e events.RewardsPaid) {
	b.broadcast("RewardsPaid", e)
}

var _ events.Publisher = (*Broadcaster)(nil)
