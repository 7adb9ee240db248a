package engine

// Order is a resting or incoming limit order. Identity is ID. Quantity is
// the remaining (unfilled) quantity while the order rests on the book;
// a fill either removes a resting order entirely or decrements its
// Quantity in place.
type Order struct {
	ID       OrderID
	Quantity Quantity
	Price    Price
	Side     Side
}

func newBuyOrder(id OrderID, quantity Quantity, price Price) Order {
	return Order{ID: id, Quantity: quantity, Price: price, Side: Buy}
}

func newSellOrder(id OrderID, quantity Quantity, price Price) Order {
	return Order{ID: id, Quantity: quantity, Price: price, Side: Sell}
}

// Fill is an ephemeral record produced by matching a single maker order
// against the taker's incoming order.
type Fill struct {
	// MakerID is the order id of the resting order that was matched.
	MakerID OrderID
	// Quantity is the number of contracts matched.
	Quantity Quantity
	// Price is the price the match executed at (the maker's price).
	Price Price
	// Done is true iff the maker order was fully consumed by this fill.
	Done bool
}
