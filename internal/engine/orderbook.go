package engine

import (
	"github.com/tidwall/btree"
)

// priceLevel holds every resting order at a single price, in arrival
// (FIFO) order.
type priceLevel struct {
	price  Price
	orders []*Order
}

type priceLevels = btree.BTreeG[*priceLevel]

// OrderBook is the per-market set of open orders, partitioned by side and
// sorted by price-then-arrival. The best end of each side is the minimum
// of its btree; matching sweeps outward from there.
//
// bids are ordered so the highest price sorts first (best bid);
// asks are ordered so the lowest price sorts first (best ask).
type OrderBook struct {
	bids *priceLevels
	asks *priceLevels
}

// NewOrderBook constructs an empty order book.
func NewOrderBook() *OrderBook {
	bids := btree.NewBTreeG(func(a, b *priceLevel) bool {
		return a.price > b.price
	})
	asks := btree.NewBTreeG(func(a, b *priceLevel) bool {
		return a.price < b.price
	})
	return &OrderBook{bids: bids, asks: asks}
}

// BestBid returns the earliest order resting at the highest bid price.
func (book *OrderBook) BestBid() (Order, bool) {
	return bestOrder(book.bids)
}

// BestAsk returns the earliest order resting at the lowest ask price.
func (book *OrderBook) BestAsk() (Order, bool) {
	return bestOrder(book.asks)
}

func bestOrder(levels *priceLevels) (Order, bool) {
	level, ok := levels.Min()
	if !ok || len(level.orders) == 0 {
		return Order{}, false
	}
	return *level.orders[0], true
}

// IsMarketable returns true if an order of this price and side would
// cross the opposite side's top of book on arrival.
func (book *OrderBook) IsMarketable(price Price, side Side) bool {
	switch side {
	case Buy:
		ask, ok := book.BestAsk()
		return ok && price >= ask.Price
	default:
		bid, ok := book.BestBid()
		return ok && price <= bid.Price
	}
}

// Add places order on the book, sweeping the opposite side for any
// crossing liquidity, then resting any remainder. Returns the fills
// produced by the sweep, oldest first. The caller is responsible for
// removing or keeping the incoming order depending on the fills and its
// time-in-force.
func (book *OrderBook) Add(order Order) []Fill {
	switch order.Side {
	case Buy:
		return book.sweep(order, book.asks, book.bids, func(a, b Price) bool { return a <= b })
	default:
		return book.sweep(order, book.bids, book.asks, func(a, b Price) bool { return a >= b })
	}
}

// sweep consumes crossing price levels from makers (the opposite side)
// while makerCrosses(makerPrice, order.Price) holds, then rests any
// unfilled remainder of order onto resting (order's own side) at its
// original price, under its original id.
func (book *OrderBook) sweep(order Order, makers, resting *priceLevels, makerCrosses func(makerPrice, orderPrice Price) bool) []Fill {
	var fills []Fill
	remaining := order.Quantity

	for remaining > 0 {
		level, ok := makers.Min()
		if !ok || !makerCrosses(level.price, order.Price) {
			break
		}

		for remaining > 0 && len(level.orders) > 0 {
			maker := level.orders[0]
			matchQty := minQuantity(remaining, maker.Quantity)

			if remaining >= maker.Quantity {
				fills = append(fills, Fill{MakerID: maker.ID, Quantity: matchQty, Price: level.price, Done: true})
				level.orders = level.orders[1:]
			} else {
				fills = append(fills, Fill{MakerID: maker.ID, Quantity: matchQty, Price: level.price, Done: false})
				maker.Quantity -= matchQty
			}
			remaining -= matchQty
		}

		if len(level.orders) == 0 {
			makers.Delete(level)
		}
	}

	if remaining > 0 {
		setOrAppend(resting, order.Price, &Order{ID: order.ID, Quantity: remaining, Price: order.Price, Side: order.Side})
	}

	return fills
}

func minQuantity(a, b Quantity) Quantity {
	if a < b {
		return a
	}
	return b
}

func setOrAppend(levels *priceLevels, price Price, order *Order) {
	if level, ok := levels.Get(&priceLevel{price: price}); ok {
		level.orders = append(level.orders, order)
		return
	}
	levels.Set(&priceLevel{price: price, orders: []*Order{order}})
}

// Remove removes and returns the open order with the given id, if any.
// Both sides are scanned; this is O(n) in the number of open orders.
func (book *OrderBook) Remove(id OrderID) (Order, bool) {
	if order, ok := removeFrom(book.bids, id); ok {
		return order, true
	}
	return removeFrom(book.asks, id)
}

func removeFrom(levels *priceLevels, id OrderID) (Order, bool) {
	var found *Order
	var foundLevel *priceLevel
	levels.Scan(func(level *priceLevel) bool {
		for i, order := range level.orders {
			if order.ID == id {
				found = order
				foundLevel = level
				level.orders = append(level.orders[:i:i], level.orders[i+1:]...)
				return false
			}
		}
		return true
	})
	if found == nil {
		return Order{}, false
	}
	if len(foundLevel.orders) == 0 {
		levels.Delete(foundLevel)
	}
	return *found, true
}
