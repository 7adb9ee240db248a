package engine

// PortfolioManager owns every user's cash balance, available balance,
// and per-market positions. It is the sole mutator of all balances,
// positions, and exposures in the exchange.
type PortfolioManager struct {
	users map[UserID]*UserPortfolio
}

// NewPortfolioManager constructs an empty manager.
func NewPortfolioManager() *PortfolioManager {
	return &PortfolioManager{users: make(map[UserID]*UserPortfolio)}
}

// newPortfolioManagerFromState builds a manager from a bootstrap
// snapshot's balances and positions, for use by Exchange.NewFromState.
func newPortfolioManagerFromState(balances map[UserID]Balance, positions map[userMarket]Position) *PortfolioManager {
	m := NewPortfolioManager()
	for userID, balance := range balances {
		user := m.user(userID)
		user.addBalance(balance)
	}
	for key, position := range positions {
		user := m.user(key.user)
		user.books[key.market] = newBookPortfolioWithPosition(position)
	}
	return m
}

type userMarket struct {
	user   UserID
	market MarketID
}

func (m *PortfolioManager) user(id UserID) *UserPortfolio {
	user, ok := m.users[id]
	if !ok {
		user = newUserPortfolio()
		m.users[id] = user
	}
	return user
}

// Deposit adds amount to a user's balance and available balance,
// creating the user if absent.
func (m *PortfolioManager) Deposit(user UserID, amount Balance) {
	m.user(user).addBalance(amount)
}

// CanAfford reports whether user can collateralise an order of this
// shape. An unknown user can never afford anything.
func (m *PortfolioManager) CanAfford(user UserID, market MarketID, quantity Quantity, price Price, side Side) bool {
	u, ok := m.users[user]
	if !ok {
		return false
	}
	return u.canAfford(market, quantity, price, side)
}

// AddRestingOrder folds a newly-resting order's exposure into the user's
// book portfolio and debits the resulting margin change from available.
//
// Preconditions (violations panic): the user exists and can afford the
// order.
func (m *PortfolioManager) AddRestingOrder(user UserID, market MarketID, order Order) {
	u, ok := m.users[user]
	invariant(ok, "add resting order for unknown user")
	invariant(u.canAfford(market, order.Quantity, order.Price, order.Side), "add resting order user cannot afford")

	book := u.book(market)
	book.addExposure(order)
	u.Available -= book.computeChange()
	invariant(u.Available >= 0, "available balance went negative after resting order")
}

// RemoveOrder unwinds a cancelled or fully-consumed resting order's
// exposure and credits the resulting margin change back to available.
//
// Precondition (violation panics): a book portfolio for (user, market)
// exists.
func (m *PortfolioManager) RemoveOrder(user UserID, market MarketID, order Order) {
	u, ok := m.users[user]
	invariant(ok, "remove order for unknown user")
	book, ok := u.books[market]
	invariant(ok, "remove order for unknown book")

	book.removeExposure(order.Quantity, order.Price, order.Side)
	u.Available -= book.computeChange()
}

// OnTrade settles a single match between a taker and a maker order:
// updates both sides' positions and balances, and recomputes the maker's
// margin requirement now that their resting contribution has shrunk.
//
// Maker exposure is reduced before recomputing the change, so the new
// exposure reflects the post-trade resting book — reordering this would
// double-count the consumed liquidity.
func (m *PortfolioManager) OnTrade(taker, maker UserID, market MarketID, quantity Quantity, price Price, takerSide Side) {
	signedQuantity := Position(quantity)
	if takerSide == Sell {
		signedQuantity = -signedQuantity
	}

	takerUser, ok := m.users[taker]
	invariant(ok, "trade for unknown taker")
	takerBook := takerUser.book(market)
	takerCost := tradeCost(takerBook.Position, quantity, price, takerSide)
	takerBook.Position += signedQuantity
	takerUser.addBalance(-takerCost)

	makerUser, ok := m.users[maker]
	invariant(ok, "trade for unknown maker")
	makerBook := makerUser.book(market)
	makerCost := tradeCost(makerBook.Position, quantity, price, takerSide.Not())
	makerBook.Position -= signedQuantity
	makerBook.removeExposure(quantity, price, takerSide.Not())

	makerUser.Available -= makerBook.computeChange()
	makerUser.addBalance(-makerCost)
}

// Resolve settles market at the given resolution price: every user
// holding a book portfolio in market has lastExposure released back to
// available, any non-zero position is credited to balance and
// available, and the book portfolio is dropped. Returns the ids of
// users credited for a non-zero position. The caller must have already
// removed any still-resting orders for market from the order book and
// the ownership index before calling Resolve.
func (m *PortfolioManager) Resolve(market MarketID, price Price) []UserID {
	var credited []UserID
	for userID, user := range m.users {
		book, ok := user.books[market]
		if !ok {
			continue
		}
		delete(user.books, market)
		user.Available += book.lastExposure

		if book.Position == 0 {
			continue
		}
		var positionValue Balance
		if book.Position > 0 {
			positionValue = Balance(price) * Balance(book.Position)
		} else {
			positionValue = Balance(ResolvePrice-price) * Balance(-book.Position)
		}
		user.addBalance(positionValue)
		credited = append(credited, userID)
	}
	return credited
}

// GetBalance returns user's cash balance, or 0 if the user is unknown.
func (m *PortfolioManager) GetBalance(user UserID) Balance {
	if u, ok := m.users[user]; ok {
		return u.Balance
	}
	return 0
}

// GetAvailable returns user's available balance, or 0 if the user is
// unknown.
func (m *PortfolioManager) GetAvailable(user UserID) Balance {
	if u, ok := m.users[user]; ok {
		return u.Available
	}
	return 0
}

// GetPosition returns user's position in market, or 0 if either is
// unknown.
func (m *PortfolioManager) GetPosition(user UserID, market MarketID) Position {
	u, ok := m.users[user]
	if !ok {
		return 0
	}
	book, ok := u.books[market]
	if !ok {
		return 0
	}
	return book.Position
}
