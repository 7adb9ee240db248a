package engine

import "github.com/rs/zerolog/log"

// OrderRequest is the caller-supplied shape of a new order.
type OrderRequest struct {
	Market   MarketID
	Quantity Quantity
	Price    Price
	Side     Side
	TIF      TimeInForce
}

type orderOwner struct {
	user   UserID
	market MarketID
}

// marketBook pairs a market's order book with its own monotonic tick
// counter: tick sequencing is per-market, not a single exchange-wide
// counter.
type marketBook struct {
	nextTick Tick
	book     *OrderBook
}

func (b *marketBook) takeTick() Tick {
	tick := b.nextTick
	b.nextTick++
	return tick
}

// Exchange is the single-threaded coordinator that sequences pre-trade
// validation, matching, trade settlement, exposure recomputation, and
// event emission for one request at a time. It owns every order book, the
// portfolio manager, the order-to-owner index, and the next-order-id
// counter; all cross-component access goes through these indices, never
// through back-references.
type Exchange struct {
	manager     *PortfolioManager
	books       map[MarketID]*marketBook
	owners      map[OrderID]orderOwner
	nextOrderID OrderID
}

// New constructs an empty exchange.
func New() *Exchange {
	return &Exchange{
		manager: NewPortfolioManager(),
		books:   make(map[MarketID]*marketBook),
		owners:  make(map[OrderID]orderOwner),
	}
}

// RestingOrder is one resting order in a bootstrap snapshot.
type RestingOrder struct {
	User   UserID
	Market MarketID
	Order  Order
}

// NewFromState constructs an exchange from an initial snapshot: balances
// are deposited and positions installed, markets are created, then
// resting orders (which must be sorted by Order.ID ascending) are
// replayed through both the portfolio manager and each order's book. The
// snapshot must be internally consistent — replaying an order must never
// produce a fill; an invariant panic signals a corrupt snapshot.
func NewFromState(
	nextOrderID OrderID,
	balances map[UserID]Balance,
	positions map[UserID]map[MarketID]Position,
	orders []RestingOrder,
	markets []MarketID,
) *Exchange {
	positionKeys := make(map[userMarket]Position)
	for user, perMarket := range positions {
		for market, position := range perMarket {
			positionKeys[userMarket{user: user, market: market}] = position
		}
	}
	manager := newPortfolioManagerFromState(balances, positionKeys)

	books := make(map[MarketID]*marketBook, len(markets))
	for _, market := range markets {
		books[market] = &marketBook{book: NewOrderBook()}
	}

	owners := make(map[OrderID]orderOwner, len(orders))
	for _, resting := range orders {
		manager.AddRestingOrder(resting.User, resting.Market, resting.Order)
		owners[resting.Order.ID] = orderOwner{user: resting.User, market: resting.Market}

		mb, ok := books[resting.Market]
		invariant(ok, "bootstrap order references unknown market")
		fills := mb.book.Add(resting.Order)
		invariant(len(fills) == 0, "bootstrap snapshot has crossing resting orders")
	}

	return &Exchange{manager: manager, books: books, owners: owners, nextOrderID: nextOrderID}
}

// AddMarket creates a fresh, empty order book for market.
func (e *Exchange) AddMarket(ts Timestamp, market MarketID) (MarketUpdate, error) {
	if _, exists := e.books[market]; exists {
		return MarketUpdate{}, MarketAlreadyExists
	}
	e.books[market] = &marketBook{book: NewOrderBook()}
	log.Debug().Uint32("market", uint32(market)).Msg("market added")
	return marketAddedUpdate(ts, market), nil
}

// Deposit credits amount to user's balance and available balance,
// creating the user if absent. Always accepted; the core does not gate
// on the sign of amount.
func (e *Exchange) Deposit(user UserID, amount Balance) {
	e.manager.Deposit(user, amount)
	log.Debug().Uint32("user", uint32(user)).Int64("amount", int64(amount)).Msg("deposit")
}

// SubmitOrder validates, matches, and (if any remainder survives and the
// time-in-force allows it) rests a new order. Exactly one of a
// MarketUpdate or a RejectReason is returned; on rejection no state is
// mutated.
func (e *Exchange) SubmitOrder(ts Timestamp, user UserID, req OrderRequest) (MarketUpdate, error) {
	mb, err := e.checkOrder(user, req)
	if err != nil {
		log.Info().Err(err).Uint32("user", uint32(user)).Uint32("market", uint32(req.Market)).Msg("order rejected")
		return MarketUpdate{}, err
	}

	id := e.nextOrderID
	e.nextOrderID++ // monotone, wraps on OrderID overflow

	order := Order{ID: id, Quantity: req.Quantity, Price: req.Price, Side: req.Side}
	fills := mb.book.Add(order)

	var filled Quantity
	for _, fill := range fills {
		owner, ok := e.owners[fill.MakerID]
		invariant(ok, "fill against an order with no owner")
		e.manager.OnTrade(user, owner.user, req.Market, fill.Quantity, fill.Price, req.Side)
		filled += fill.Quantity
		if fill.Done {
			delete(e.owners, fill.MakerID)
		}
	}
	remaining := req.Quantity - filled

	reportedQuantity := req.Quantity
	switch {
	case req.TIF == IOC:
		reportedQuantity = filled
		if remaining > 0 {
			_, ok := mb.book.Remove(id)
			invariant(ok, "IOC remainder missing from book")
		}
	case remaining > 0:
		e.manager.AddRestingOrder(user, req.Market, Order{ID: id, Quantity: remaining, Price: req.Price, Side: req.Side})
		e.owners[id] = orderOwner{user: user, market: req.Market}
	}

	tick := mb.takeTick()
	event := orderAddedUpdate(ts, tick, req.Market, user, Order{ID: id, Quantity: reportedQuantity, Price: req.Price, Side: req.Side})
	log.Debug().Stringer("event", event).Msg("order accepted")
	return event, nil
}

func (e *Exchange) checkOrder(user UserID, req OrderRequest) (*marketBook, error) {
	if req.Price == 0 || req.Price >= ResolvePrice {
		return nil, InvalidPrice
	}
	if req.Quantity == 0 {
		return nil, InvalidQuantity
	}
	mb, ok := e.books[req.Market]
	if !ok {
		return nil, MarketNotFound
	}
	if !e.manager.CanAfford(user, req.Market, req.Quantity, req.Price, req.Side) {
		return nil, InsufficientFunds
	}
	marketable := mb.book.IsMarketable(req.Price, req.Side)
	if (req.TIF == IOC && !marketable) || (req.TIF == POST && marketable) {
		return nil, NotMarketable
	}
	return mb, nil
}

// CancelOrder removes a resting order owned by user and releases its
// exposure back to available.
func (e *Exchange) CancelOrder(ts Timestamp, user UserID, id OrderID) (MarketUpdate, error) {
	owner, ok := e.owners[id]
	if !ok || owner.user != user {
		return MarketUpdate{}, OrderNotFound
	}
	delete(e.owners, id)

	mb, ok := e.books[owner.market]
	invariant(ok, "owned order references unknown market")
	order, ok := mb.book.Remove(id)
	invariant(ok, "owned order missing from its book")

	e.manager.RemoveOrder(user, owner.market, order)
	tick := mb.takeTick()
	event := orderRemovedUpdate(ts, tick, owner.market, user, id)
	log.Debug().Stringer("event", event).Msg("order cancelled")
	return event, nil
}

// Resolve settles market at price: the order book and ownership entries
// for market are dropped before the portfolio manager releases exposure
// and credits positions, so no resting order can be matched against a
// book that is mid-resolution.
func (e *Exchange) Resolve(ts Timestamp, market MarketID, price Price) (MarketUpdate, error) {
	if price > ResolvePrice {
		return MarketUpdate{}, InvalidPrice
	}
	mb, ok := e.books[market]
	if !ok {
		return MarketUpdate{}, MarketNotFound
	}
	delete(e.books, market)
	for id, owner := range e.owners {
		if owner.market == market {
			delete(e.owners, id)
		}
	}

	e.manager.Resolve(market, price)
	tick := mb.takeTick()
	event := marketResolvedUpdate(ts, tick, market, price)
	log.Debug().Stringer("event", event).Msg("market resolved")
	return event, nil
}

// Balance returns user's cash balance.
func (e *Exchange) Balance(user UserID) Balance { return e.manager.GetBalance(user) }

// Available returns user's available (unencumbered) balance.
func (e *Exchange) Available(user UserID) Balance { return e.manager.GetAvailable(user) }

// Position returns user's position in market.
func (e *Exchange) Position(user UserID, market MarketID) Position {
	return e.manager.GetPosition(user, market)
}
