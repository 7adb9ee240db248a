package engine

import "math"

// relu clamps a signed position to a non-negative quantity. Named for the
// rectified linear unit it mirrors: max(0, x).
func relu(x int32) uint32 {
	if x < 0 {
		return 0
	}
	return uint32(x)
}

// contractsCreated returns the number of short-opening contracts in a
// sell of the given quantity against the given position: the portion of
// the sell that goes beyond any existing long position. Safe for every
// input; saturates at 0 rather than wrapping.
func contractsCreated(position Position, quantity Quantity) Quantity {
	held := relu(int32(position))
	q := uint32(quantity)
	if q <= held {
		return 0
	}
	return Quantity(q - held)
}

// contractsCombined returns the number of position-closing contracts in
// a buy of the given quantity against the given position: the portion of
// the buy that offsets an existing short position. Safe for every input,
// including Position's minimum value, whose negation would otherwise
// overflow.
func contractsCombined(position Position, quantity Quantity) Quantity {
	p := int32(position)
	var short uint32
	if p == math.MinInt32 {
		short = 1 << 31
	} else {
		short = relu(-p)
	}
	q := uint32(quantity)
	if q < short {
		return Quantity(q)
	}
	return Quantity(short)
}

// buyerCost returns the change in balance required to fully buy quantity
// contracts at price against the given starting position. Closing an
// existing short refunds ResolvePrice per contract closed.
func buyerCost(position Position, quantity Quantity, price Price) Balance {
	combined := contractsCombined(position, quantity)
	cost := Balance(quantity) * Balance(price)
	return cost - Balance(combined)*Balance(ResolvePrice)
}

// sellerCost returns the change in balance required to fully sell
// quantity contracts at price against the given starting position. It may
// be negative, i.e. a credit. Opening a new short costs ResolvePrice per
// contract created.
func sellerCost(position Position, quantity Quantity, price Price) Balance {
	created := contractsCreated(position, quantity)
	cost := Balance(quantity) * Balance(price)
	return Balance(created)*Balance(ResolvePrice) - cost
}

// tradeCost returns the change in available balance needed to
// collateralise an order of the given shape at the given position.
func tradeCost(position Position, quantity Quantity, price Price, side Side) Balance {
	if side == Buy {
		return buyerCost(position, quantity, price)
	}
	return sellerCost(position, quantity, price)
}
