package orderbook

import (
	"github.com/LeJamon/sekex/internal/events"
	"github.com/LeJamon/sekex/internal/ledger"
	"github.com/LeJamon/sekex/internal/money"
)

// match runs the price-time matching loop for a freshly submitted
// order T against the opposite side of m, mutating T and the resting
// counter-orders it crosses. T is already resting in its own side
// when this is called; the caller removes it afterward if it is no
// longer OPEN.
//
// Price-time priority: the best (extreme) resting price always trades
// first, FIFO within a level. A counter-order found stale
// (now > created_at + MaxOrderAge) is expired and refunded in place
// instead of traded against, per spec.md §9. A counter-order owned by
// T's own maker is skipped (self-trade prevention) without being
// removed from the book.
func (ob *OrderBook) match(iss issuerHandle, m *market, T *Order) {
	counter := ob.sideFor(m, oppositeSide(T.Side))

	li := 0
	for li < len(counter.levels) {
		lvl := counter.levels[li]
		oi := 0

		for oi < len(lvl.orders) {
			c := lvl.orders[oi]

			if c.Status != Open {
				lvl.orders = append(lvl.orders[:oi], lvl.orders[oi+1:]...)
				continue
			}

			if ob.isExpired(c) {
				ob.expireOrder(iss, m, c)
				// expireOrder removed c from lvl.orders (and possibly
				// the level itself, guarded below); don't advance oi.
				continue
			}

			if !crosses(T, c) {
				// This price, and every worse level beyond it, cannot
				// cross T: matching is done.
				return
			}

			if c.Maker == T.Maker {
				oi++
				continue
			}

			ob.executeTrade(iss, T, c)

			if c.Status != Open {
				lvl.orders = append(lvl.orders[:oi], lvl.orders[oi+1:]...)
			} else {
				oi++
			}

			if T.Status != Open {
				return
			}
		}

		if len(lvl.orders) == 0 {
			// Guard against expireOrder's own removal already having
			// spliced this level out of counter.levels.
			if li < len(counter.levels) && counter.levels[li] == lvl {
				counter.levels = append(counter.levels[:li], counter.levels[li+1:]...)
			}
			continue
		}

		li++
	}
}

func oppositeSide(s Side) Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// crosses reports whether taker T can trade against resting order c at
// c's price.
func crosses(T, c *Order) bool {
	if T.Side == Buy {
		return T.Price >= c.Price
	}
	return T.Price <= c.Price
}

// executeTrade fills T and c against each other at c's (the resting
// order's) price, up to whichever has less remaining quantity, moving
// already-escrowed value between them and routing the trading fee.
func (ob *OrderBook) executeTrade(iss issuerHandle, T, c *Order) {
	qty := T.Remaining()
	if c.Remaining() < qty {
		qty = c.Remaining()
	}
	if qty <= 0 {
		return
	}

	execPrice := c.Price

	gross, err := money.MulDivFloor(qty, execPrice, money.PriceScale)
	if err != nil {
		return
	}
	fee, err := money.MulDivBps(gross, ob.feeBps)
	if err != nil {
		return
	}
	sellerNet := gross - fee

	var buyer, seller ledger.AccountID
	var buyOrder, sellOrder *Order
	if T.Side == Buy {
		buyer, seller = T.Maker, c.Maker
		buyOrder, sellOrder = T, c
	} else {
		buyer, seller = c.Maker, T.Maker
		buyOrder, sellOrder = c, T
	}

	if err := ob.ledger.Transfer(T.SecurityToken, ob.escrow, buyer, qty); err != nil {
		return
	}
	ob.pub.PublishTokensTransferred(events.TokensTransferred{
		Asset: string(T.SecurityToken), From: string(ob.escrow), To: string(buyer), Amount: qty,
	})
	if sellerNet > 0 {
		if err := ob.ledger.Transfer(iss.USDT(), ob.escrow, seller, sellerNet); err != nil {
			return
		}
		ob.pub.PublishTokensTransferred(events.TokensTransferred{
			Asset: string(iss.USDT()), From: string(ob.escrow), To: string(seller), Amount: sellerNet,
		})
	}
	if fee > 0 {
		if err := ob.ledger.Transfer(iss.USDT(), ob.escrow, ob.feeCollector, fee); err == nil {
			ob.pub.PublishFeesCollected(events.FeesCollected{
				Asset:     string(iss.USDT()),
				Collector: string(ob.feeCollector),
				Amount:    fee,
			})
		}
	}

	T.Filled += qty
	c.Filled += qty
	if T.Filled >= T.Quantity {
		T.Status = Filled
	}
	if c.Filled >= c.Quantity {
		c.Status = Filled
	}

	// The buy side's escrow is debited by what this fill actually
	// cost at exec price, not by qty*buyOrder.Price/PriceScale: when
	// the buy order is the taker and exec price (the resting order's,
	// better for the taker) undercuts its own limit, the difference
	// stays in EscrowRemaining to be refunded once the order leaves
	// the book. The sell side's escrow is always qty of the security
	// token, one-for-one, regardless of price.
	buyOrder.EscrowRemaining -= gross
	sellOrder.EscrowRemaining -= qty

	ob.pub.PublishOrderFilled(events.OrderFilled{
		RestingOrderID: c.ID,
		RestingMaker:   string(c.Maker),
		Taker:          string(T.Maker),
		Amount:         qty,
		ExecPrice:      execPrice,
	})
}
