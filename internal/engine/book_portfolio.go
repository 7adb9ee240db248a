package engine

// BookPortfolio tracks one user's exposure in one market: the resting
// buy/sell notionals, the signed position, and the most recently
// committed margin withdrawal (lastExposure), which anchors the
// incremental, idempotent available-balance updates in PortfolioManager.
type BookPortfolio struct {
	Position     Position
	bidQuantity  Quantity
	bidValue     Balance
	askQuantity  Quantity
	askValue     Balance
	lastExposure Balance
}

func newBookPortfolioWithPosition(position Position) *BookPortfolio {
	return &BookPortfolio{Position: position}
}

// addExposure folds a newly-resting order into the side's quantity and
// notional value.
func (b *BookPortfolio) addExposure(order Order) {
	switch order.Side {
	case Buy:
		b.bidQuantity += order.Quantity
		b.bidValue += Balance(order.Quantity) * Balance(order.Price)
	default:
		b.askQuantity += order.Quantity
		b.askValue += Balance(order.Quantity) * Balance(order.Price)
	}
}

// removeExposure unwinds a cancelled or consumed resting contribution
// from the side's quantity and notional value.
func (b *BookPortfolio) removeExposure(quantity Quantity, price Price, side Side) {
	switch side {
	case Buy:
		invariant(b.bidQuantity >= quantity, "bid quantity underflow")
		b.bidQuantity -= quantity
		b.bidValue -= Balance(quantity) * Balance(price)
	default:
		invariant(b.askQuantity >= quantity, "ask quantity underflow")
		b.askQuantity -= quantity
		b.askValue -= Balance(quantity) * Balance(price)
	}
}

// computeExposure returns the margin this book currently requires: the
// worse of (a) every resting ask filling and the market resolving to
// ResolvePrice, or (b) every resting bid filling and the market
// resolving to 0. Folding the position in via contractsCreated /
// contractsCombined accounts for a long and a short offsetting instead
// of double-counting.
func (b *BookPortfolio) computeExposure() Balance {
	created := contractsCreated(b.Position, b.askQuantity)
	askExposure := Balance(created)*Balance(ResolvePrice) - b.askValue

	combined := contractsCombined(b.Position, b.bidQuantity)
	bidExposure := b.bidValue - Balance(combined)*Balance(ResolvePrice)

	if askExposure > bidExposure {
		return askExposure
	}
	return bidExposure
}

// computeChange recomputes exposure, returns the delta from the last
// committed exposure, and commits the new value as lastExposure. The
// caller subtracts the returned delta from the user's available balance,
// keeping balance - available = sum(lastExposure) invariant after every
// mutation.
func (b *BookPortfolio) computeChange() Balance {
	exposure := b.computeExposure()
	change := exposure - b.lastExposure
	b.lastExposure = exposure
	return change
}
