package orderbook

import "github.com/LeJamon/sekex/internal/ledger"

// BestBid returns the highest resting buy price for token and the
// remaining quantity of the order holding that price — not the total
// depth at that price level — or (0, 0) if the buy side is empty.
func (ob *OrderBook) BestBid(token ledger.AssetID) (price, available int64) {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	m, ok := ob.markets[token]
	if !ok {
		return 0, 0
	}
	price, o := m.bids.best()
	if o == nil {
		return 0, 0
	}
	return price, o.Remaining()
}

// BestAsk returns the lowest resting sell price for token and the
// remaining quantity of the order holding that price, or (0, 0) if the
// sell side is empty.
func (ob *OrderBook) BestAsk(token ledger.AssetID) (price, available int64) {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	m, ok := ob.markets[token]
	if !ok {
		return 0, 0
	}
	price, o := m.asks.best()
	if o == nil {
		return 0, 0
	}
	return price, o.Remaining()
}

// ActiveBuyOrders returns every OPEN buy order on token's book, best
// price first, FIFO within a price level.
func (ob *OrderBook) ActiveBuyOrders(token ledger.AssetID) []*Order {
	return ob.activeSide(token, Buy)
}

// ActiveSellOrders returns every OPEN sell order on token's book, best
// price first, FIFO within a price level.
func (ob *OrderBook) ActiveSellOrders(token ledger.AssetID) []*Order {
	return ob.activeSide(token, Sell)
}

func (ob *OrderBook) activeSide(token ledger.AssetID, side Side) []*Order {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	m, ok := ob.markets[token]
	if !ok {
		return nil
	}
	var out []*Order
	ob.sideFor(m, side).forEach(func(o *Order) bool {
		if o.Status == Open {
			out = append(out, o)
		}
		return true
	})
	return out
}

// UserActiveOrders returns every OPEN order belonging to account,
// across all security tokens, in submission order.
func (ob *OrderBook) UserActiveOrders(account ledger.AccountID) []*Order {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	var out []*Order
	for _, o := range ob.ordersByUser[account] {
		if o.Status == Open {
			out = append(out, o)
		}
	}
	return out
}

// Order looks up a single order by id.
func (ob *OrderBook) Order(id uint64) (*Order, bool) {
	ob.mu.Lock()
	defer ob.mu.Unlock()
	o, ok := ob.ordersByID[id]
	return o, ok
}

// HasActiveOrder reports whether maker has at least one OPEN order on
// token's book at exactly price on the given side — the obligation
// predicate internal/incentive evaluates on every MeetsSpread call. The
// result is cached per (maker, token, price, side) and invalidated by
// the market's version counter, which bumps on every insert, cancel,
// and expiry in that market, and when a submitted order leaves the
// book; fills only happen inside a submission, after its insert has
// already bumped it. The teacher's LedgerCache applies the same
// version-stamped invalidation to balance snapshots.
func (ob *OrderBook) HasActiveOrder(maker ledger.AccountID, token ledger.AssetID, price int64, side Side) bool {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	m, ok := ob.markets[token]
	if !ok {
		return false
	}

	key := activeOrderKey{maker: maker, token: token, price: price, isBid: side == Buy}
	if entry, ok := ob.activeCache.Get(key); ok && entry.version == m.version {
		return entry.result
	}

	found := false
	ob.sideFor(m, side).forEach(func(o *Order) bool {
		if o.Status == Open && o.Maker == maker && o.Price == price {
			found = true
			return false
		}
		return true
	})

	ob.activeCache.Add(key, activeOrderEntry{version: m.version, result: found})
	return found
}
