package orderbook

import "sort"

// level is a FIFO queue of orders resting at a single price. Within a
// level, priority is strict insertion order: spec.md §9 accepts this
// as a deviation from a global strict time-priority FIFO, since the
// teacher's own flat-array-with-insertion-scan order book gives the
// same observable guarantee at a price level.
type level struct {
	price  int64
	orders []*Order
}

// bookSide is one direction (bids or asks) of a single security
// token's book: levels kept sorted best-to-worst so the best_bid/
// best_ask views only look at levels[0] and the matcher walks levels
// from the best outward, stopping at the first that cannot cross.
//
// This is the price-indexed-map implementation spec.md §9 recommends
// over the source's flat array: O(log L) to find a level, O(L) worst
// case to insert a brand new price (acceptable per §9, L being the
// number of distinct price levels, not the number of orders).
type bookSide struct {
	descending bool // true for bids, false for asks
	levels     []*level
}

func newBookSide(descending bool) *bookSide {
	return &bookSide{descending: descending}
}

// better reports whether price a should sort ahead of price b on this
// side.
func (s *bookSide) better(a, b int64) bool {
	if s.descending {
		return a > b
	}
	return a < b
}

// insert appends o to the FIFO queue at its price, creating the level
// if necessary, keeping levels sorted best-to-worst.
func (s *bookSide) insert(o *Order) {
	idx := sort.Search(len(s.levels), func(i int) bool {
		return !s.better(s.levels[i].price, o.Price) // first level not strictly better than o.Price
	})
	if idx < len(s.levels) && s.levels[idx].price == o.Price {
		s.levels[idx].orders = append(s.levels[idx].orders, o)
		return
	}
	lvl := &level{price: o.Price, orders: []*Order{o}}
	s.levels = append(s.levels, nil)
	copy(s.levels[idx+1:], s.levels[idx:])
	s.levels[idx] = lvl
}

// remove drops o from its price level, pruning the level if it empties.
func (s *bookSide) remove(o *Order) {
	for li, lvl := range s.levels {
		for oi, other := range lvl.orders {
			if other == o {
				lvl.orders = append(lvl.orders[:oi], lvl.orders[oi+1:]...)
				if len(lvl.orders) == 0 {
					s.levels = append(s.levels[:li], s.levels[li+1:]...)
				}
				return
			}
		}
	}
}

// best returns the best (extreme) price and that level's first OPEN
// order, skipping over any stale CANCELLED/FILLED entries left behind
// (they are pruned as encountered).
func (s *bookSide) best() (price int64, order *Order) {
	for len(s.levels) > 0 {
		lvl := s.levels[0]
		for len(lvl.orders) > 0 {
			o := lvl.orders[0]
			if o.Status == Open {
				return lvl.price, o
			}
			lvl.orders = lvl.orders[1:]
		}
		s.levels = s.levels[1:]
	}
	return 0, nil
}

// forEach walks every order on this side, best level first, in FIFO
// order within each level. f returning false stops the walk.
func (s *bookSide) forEach(f func(*Order) bool) {
	for _, lvl := range s.levels {
		for _, o := range lvl.orders {
			if !f(o) {
				return
			}
		}
	}
}
