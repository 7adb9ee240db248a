package engine

import "fmt"

// MarketUpdateKind discriminates the variants of MarketUpdate.
type MarketUpdateKind int

const (
	OrderAddedUpdate MarketUpdateKind = iota
	OrderRemovedUpdate
	MarketResolvedUpdate
	MarketAddedUpdate
	DepositUpdate
)

func (k MarketUpdateKind) String() string {
	switch k {
	case OrderAddedUpdate:
		return "OrderAdded"
	case OrderRemovedUpdate:
		return "OrderRemoved"
	case MarketResolvedUpdate:
		return "MarketResolved"
	case MarketAddedUpdate:
		return "MarketAdded"
	case DepositUpdate:
		return "Deposit"
	default:
		return "Unknown"
	}
}

// MarketUpdate is the single event type emitted for every accepted
// request, carrying only the fields relevant to its Kind. A discriminated
// union expressed as one flat struct, tagged by Kind, rather than an
// interface-based hierarchy.
type MarketUpdate struct {
	Kind      MarketUpdateKind
	Timestamp Timestamp
	Tick      Tick
	Market    MarketID
	User      UserID

	// Order is set for OrderAddedUpdate. Its Quantity is the request's
	// original quantity for GTC/POST, and the filled quantity for IOC.
	Order Order
	// OrderID is set for OrderRemovedUpdate.
	OrderID OrderID
	// Price is set for MarketResolvedUpdate, the resolution price.
	Price Price
	// Amount is set for DepositUpdate.
	Amount Balance
}

func orderAddedUpdate(ts Timestamp, tick Tick, market MarketID, user UserID, order Order) MarketUpdate {
	return MarketUpdate{Kind: OrderAddedUpdate, Timestamp: ts, Tick: tick, Market: market, User: user, Order: order}
}

func orderRemovedUpdate(ts Timestamp, tick Tick, market MarketID, user UserID, id OrderID) MarketUpdate {
	return MarketUpdate{Kind: OrderRemovedUpdate, Timestamp: ts, Tick: tick, Market: market, User: user, OrderID: id}
}

func marketResolvedUpdate(ts Timestamp, tick Tick, market MarketID, price Price) MarketUpdate {
	return MarketUpdate{Kind: MarketResolvedUpdate, Timestamp: ts, Tick: tick, Market: market, Price: price}
}

func marketAddedUpdate(ts Timestamp, market MarketID) MarketUpdate {
	return MarketUpdate{Kind: MarketAddedUpdate, Timestamp: ts, Market: market}
}

func (u MarketUpdate) String() string {
	switch u.Kind {
	case OrderAddedUpdate:
		return fmt.Sprintf("OrderAdded{market=%d user=%d id=%d qty=%d price=%d side=%s tick=%d}",
			u.Market, u.User, u.Order.ID, u.Order.Quantity, u.Order.Price, u.Order.Side, u.Tick)
	case OrderRemovedUpdate:
		return fmt.Sprintf("OrderRemoved{market=%d user=%d id=%d tick=%d}", u.Market, u.User, u.OrderID, u.Tick)
	case MarketResolvedUpdate:
		return fmt.Sprintf("MarketResolved{market=%d price=%d tick=%d}", u.Market, u.Price, u.Tick)
	case MarketAddedUpdate:
		return fmt.Sprintf("MarketAdded{market=%d}", u.Market)
	case DepositUpdate:
		return fmt.Sprintf("Deposit{user=%d amount=%d}", u.User, u.Amount)
	default:
		return "MarketUpdate{unknown}"
	}
}

// RejectReason is a request-level rejection: the request is refused, no
// state is mutated, and no MarketUpdate is emitted. It implements error
// directly so callers can compare or switch on it without unwrapping.
type RejectReason int

const (
	OrderNotFound RejectReason = iota
	InvalidPrice
	InvalidQuantity
	MarketNotFound
	MarketAlreadyExists
	InsufficientFunds
	NotMarketable
)

func (r RejectReason) Error() string {
	switch r {
	case OrderNotFound:
		return "order not found"
	case InvalidPrice:
		return "invalid price"
	case InvalidQuantity:
		return "invalid quantity"
	case MarketNotFound:
		return "market not found"
	case MarketAlreadyExists:
		return "market already exists"
	case InsufficientFunds:
		return "insufficient funds"
	case NotMarketable:
		return "order not marketable for its time-in-force"
	default:
		return "unknown reject reason"
	}
}
