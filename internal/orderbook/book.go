// Package orderbook is the core of the venue: per security-token
// price-ordered bid/ask books, a price-time matching engine with
// self-trade prevention and fee routing, and the read-only views the
// incentive module queries. Grounded on the teacher's OfferCreate /
// OfferCancel transaction pair (internal/core/tx/offer) for the
// submit/cancel/match shape, and on
// internal/core/ledger/service/offer_query.go for the best-bid/ask
// view contract.
package orderbook

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/LeJamon/sekex/internal/clock"
	"github.com/LeJamon/sekex/internal/events"
	"github.com/LeJamon/sekex/internal/ledger"
	"github.com/LeJamon/sekex/internal/money"
	"github.com/LeJamon/sekex/internal/registry"
)

// MaxOrderAge is the resting-order timeout: 30 days in seconds.
const MaxOrderAge int64 = 30 * 24 * 60 * 60

var (
	ErrOwnerOnly     = errors.New("orderbook: restricted to orderbook owner")
	ErrInvalidAmount = errors.New("orderbook: amount and price must be positive")
	ErrUnknownToken  = errors.New("orderbook: unknown security token")
	ErrNotWhitelisted = errors.New("orderbook: caller is not whitelisted for this issuer")
	ErrUnknownOrder  = errors.New("orderbook: unknown order")
	ErrNotOwner      = errors.New("orderbook: caller does not own this order")
	ErrNotOpen       = errors.New("orderbook: order is not open")
	ErrNotExpired    = errors.New("orderbook: order has not yet expired")
	ErrFeeTooHigh    = errors.New("orderbook: trading fee exceeds 100 bps")
	ErrZeroAccount   = errors.New("orderbook: account must be non-zero")
)

// market holds one security token's book plus a version counter used
// to invalidate the has-active-order cache below.
type market struct {
	bids    *bookSide
	asks    *bookSide
	version uint64
}

type activeOrderKey struct {
	maker ledger.AccountID
	token ledger.AssetID
	price int64
	isBid bool
}

type activeOrderEntry struct {
	version uint64
	result  bool
}

// OrderBook is the per-venue matching engine, shared across every
// security token deployed by internal/registry.
type OrderBook struct {
	mu sync.Mutex

	owner    ledger.AccountID
	ledger   *ledger.Ledger
	registry *registry.Registry
	pub      events.Publisher
	clock    clock.Clock

	escrow       ledger.AccountID
	feeCollector ledger.AccountID
	feeBps       int64

	nextOrderID uint64

	markets      map[ledger.AssetID]*market
	ordersByID   map[uint64]*Order
	ordersByUser map[ledger.AccountID][]*Order

	activeCache *lru.Cache[activeOrderKey, activeOrderEntry]
}

// New constructs an OrderBook. escrow is the logical account value is
// held in between submission and fill/cancel/refund; feeCollector
// receives the trading fee cut.
func New(owner ledger.AccountID, l *ledger.Ledger, reg *registry.Registry, escrow, feeCollector ledger.AccountID, c clock.Clock, pub events.Publisher) *OrderBook {
	cache, err := lru.New[activeOrderKey, activeOrderEntry](4096)
	if err != nil {
		panic(err)
	}
	return &OrderBook{
		owner:        owner,
		ledger:       l,
		registry:     reg,
		pub:          pub,
		clock:        c,
		escrow:       escrow,
		feeCollector: feeCollector,
		markets:      make(map[ledger.AssetID]*market),
		ordersByID:   make(map[uint64]*Order),
		ordersByUser: make(map[ledger.AccountID][]*Order),
		activeCache:  cache,
	}
}

func (ob *OrderBook) marketFor(token ledger.AssetID) *market {
	m, ok := ob.markets[token]
	if !ok {
		m = &market{bids: newBookSide(true), asks: newBookSide(false)}
		ob.markets[token] = m
	}
	return m
}

func (ob *OrderBook) sideFor(m *market, side Side) *bookSide {
	if side == Buy {
		return m.bids
	}
	return m.asks
}

// SetOwner reassigns the order book's restricted-operation owner,
// guarded by the current owner. The mutator behind
// internal/venue.Owner's capability-handle transfer (spec §9).
func (ob *OrderBook) SetOwner(caller, next ledger.AccountID) error {
	ob.mu.Lock()
	defer ob.mu.Unlock()
	if caller != ob.owner {
		return ErrOwnerOnly
	}
	ob.owner = next
	return nil
}

// SetTradingFeeBps sets the trading fee, at most 100 bps (1%).
// Restricted to the order book's owner.
func (ob *OrderBook) SetTradingFeeBps(caller ledger.AccountID, bps int64) error {
	if caller != ob.owner {
		return ErrOwnerOnly
	}
	if bps < 0 || bps > 100 {
		return ErrFeeTooHigh
	}
	ob.mu.Lock()
	ob.feeBps = bps
	ob.mu.Unlock()
	return nil
}

// SetFeeCollector changes the fee collector account. Restricted to the
// order book's owner.
func (ob *OrderBook) SetFeeCollector(caller ledger.AccountID, account ledger.AccountID) error {
	if caller != ob.owner {
		return ErrOwnerOnly
	}
	if account == "" {
		return ErrZeroAccount
	}
	ob.mu.Lock()
	ob.feeCollector = account
	ob.mu.Unlock()
	return nil
}

// SubmitBuy escrows USDT from caller, inserts a BUY order on token's
// book, and runs the matcher against resting asks.
func (ob *OrderBook) SubmitBuy(caller ledger.AccountID, token ledger.AssetID, amount, price int64) (*Order, error) {
	return ob.submit(caller, token, amount, price, Buy)
}

// SubmitSell escrows security tokens from caller, inserts a SELL order
// on token's book, and runs the matcher against resting bids.
func (ob *OrderBook) SubmitSell(caller ledger.AccountID, token ledger.AssetID, amount, price int64) (*Order, error) {
	return ob.submit(caller, token, amount, price, Sell)
}

func (ob *OrderBook) submit(caller ledger.AccountID, token ledger.AssetID, amount, price int64, side Side) (*Order, error) {
	if amount <= 0 || price <= 0 {
		return nil, ErrInvalidAmount
	}
	if amount > money.MaxAmount || price > money.MaxAmount {
		return nil, money.ErrTooLarge
	}

	iss := ob.registry.LookupBySecurityToken(token)
	if iss == nil {
		return nil, ErrUnknownToken
	}
	if !iss.IsWhitelisted(caller) {
		return nil, ErrNotWhitelisted
	}

	ob.mu.Lock()
	defer ob.mu.Unlock()

	var escrowAsset ledger.AssetID
	var escrowAmount int64
	if side == Buy {
		cost, err := money.MulDivFloor(amount, price, money.PriceScale)
		if err != nil {
			return nil, err
		}
		escrowAsset, escrowAmount = iss.USDT(), cost
	} else {
		escrowAsset, escrowAmount = token, amount
	}

	if err := ob.ledger.Transfer(escrowAsset, caller, ob.escrow, escrowAmount); err != nil {
		return nil, fmt.Errorf("orderbook: escrow transfer failed: %w", err)
	}
	ob.pub.PublishTokensTransferred(events.TokensTransferred{
		Asset: string(escrowAsset), From: string(caller), To: string(ob.escrow), Amount: escrowAmount,
	})

	id := atomic.AddUint64(&ob.nextOrderID, 1)
	o := &Order{
		ID:              id,
		Maker:           caller,
		SecurityToken:   token,
		Quantity:        amount,
		Price:           price,
		Side:            side,
		Status:          Open,
		CreatedAt:       ob.clock.Now(),
		EscrowRemaining: escrowAmount,
	}

	ob.ordersByID[id] = o
	ob.ordersByUser[caller] = append(ob.ordersByUser[caller], o)

	m := ob.marketFor(token)
	ownSide := ob.sideFor(m, side)
	ownSide.insert(o)
	m.version++

	ob.pub.PublishOrderCreated(events.OrderCreated{
		OrderID:       o.ID,
		Maker:         string(o.Maker),
		SecurityToken: string(token),
		Amount:        amount,
		Price:         price,
		Side:          toEventSide(side),
	})

	ob.match(iss, m, o)

	if o.Status != Open {
		ownSide.remove(o)
		m.version++
		ob.refund(iss, o)
	}

	return o, nil
}

func toEventSide(s Side) events.Side {
	if s == Buy {
		return events.SideBuy
	}
	return events.SideSell
}

// refund pays whatever is left in o.EscrowRemaining back to its maker
// and zeroes it. For a BUY this is USDT: both the consideration for
// any quantity that never filled and, for quantity that did fill, any
// surplus between what was escrowed at o's own limit price and what
// was actually spent at each fill's (possibly better) execution price
// — see executeTrade. For a SELL this is just the unsold security
// tokens, since a SELL's escrow is debited one-for-one with matched
// quantity regardless of price.
func (ob *OrderBook) refund(iss issuerHandle, o *Order) {
	amt := o.EscrowRemaining
	if amt <= 0 {
		return
	}

	var asset ledger.AssetID
	if o.Side == Buy {
		asset = iss.USDT()
	} else {
		asset = o.SecurityToken
	}

	if err := ob.ledger.Transfer(asset, ob.escrow, o.Maker, amt); err != nil {
		return
	}
	o.EscrowRemaining = 0
	ob.pub.PublishTokensTransferred(events.TokensTransferred{
		Asset: string(asset), From: string(ob.escrow), To: string(o.Maker), Amount: amt,
	})
}

// Cancel marks an OPEN order CANCELLED and refunds its unfilled
// escrowed remainder to its maker.
func (ob *OrderBook) Cancel(caller ledger.AccountID, orderID uint64) error {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	o, ok := ob.ordersByID[orderID]
	if !ok {
		return ErrUnknownOrder
	}
	if o.Maker != caller {
		return ErrNotOwner
	}
	if o.Status != Open {
		return ErrNotOpen
	}

	iss := ob.registry.LookupBySecurityToken(o.SecurityToken)
	if iss == nil {
		return ErrUnknownToken
	}

	o.Status = Cancelled
	m := ob.marketFor(o.SecurityToken)
	ob.sideFor(m, o.Side).remove(o)
	m.version++

	ob.refund(iss, o)
	ob.pub.PublishOrderCancelled(events.OrderCancelled{OrderID: o.ID})
	return nil
}

// CancelExpired cancels orderID if it is OPEN and older than
// MaxOrderAge. Any caller may invoke this.
func (ob *OrderBook) CancelExpired(orderID uint64) error {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	o, ok := ob.ordersByID[orderID]
	if !ok {
		return ErrUnknownOrder
	}
	if o.Status != Open {
		return ErrNotOpen
	}
	if ob.clock.Now() <= o.CreatedAt+MaxOrderAge {
		return ErrNotExpired
	}

	iss := ob.registry.LookupBySecurityToken(o.SecurityToken)
	if iss == nil {
		return ErrUnknownToken
	}

	m := ob.marketFor(o.SecurityToken)
	ob.expireOrder(iss, m, o)
	return nil
}

// expireOrder marks o CANCELLED, removes it from its side, refunds its
// remainder, and emits OrderCancelled. Shared by CancelExpired and the
// matcher's stale-counter-order handling.
func (ob *OrderBook) expireOrder(iss issuerHandle, m *market, o *Order) {
	o.Status = Cancelled
	ob.sideFor(m, o.Side).remove(o)
	m.version++
	ob.refund(iss, o)
	ob.pub.PublishOrderCancelled(events.OrderCancelled{OrderID: o.ID})
}

func (ob *OrderBook) isExpired(o *Order) bool {
	return ob.clock.Now() > o.CreatedAt+MaxOrderAge
}

// issuerHandle is the slice of *issuer.Issuer the order book actually
// needs, kept as an interface so this package doesn't have to import
// internal/issuer's concrete type in the matcher/refund helpers.
type issuerHandle interface {
	USDT() ledger.AssetID
}
