package engine_test

import (
	"testing"

	"binarymkt/internal/engine"

	"github.com/stretchr/testify/assert"
)

const (
	askPrice engine.Price    = 7000
	bidPrice engine.Price    = 6000
	book     engine.MarketID = 1
	maker    engine.UserID   = 1
	taker    engine.UserID   = 2
)

func sellOrder(id engine.OrderID, quantity engine.Quantity, price engine.Price) engine.Order {
	return engine.Order{ID: id, Quantity: quantity, Price: price, Side: engine.Sell}
}

func buyOrder(id engine.OrderID, quantity engine.Quantity, price engine.Price) engine.Order {
	return engine.Order{ID: id, Quantity: quantity, Price: price, Side: engine.Buy}
}

func TestDeposit(t *testing.T) {
	m := engine.NewPortfolioManager()
	m.Deposit(maker, 100000)

	assert.Equal(t, engine.Balance(100000), m.GetBalance(maker))
	assert.Equal(t, engine.Balance(100000), m.GetAvailable(maker))
}

func TestQuoteBothSides(t *testing.T) {
	m := engine.NewPortfolioManager()
	m.Deposit(maker, 100000)
	m.AddRestingOrder(maker, book, sellOrder(0, 5, askPrice))
	m.AddRestingOrder(maker, book, buyOrder(0, 5, bidPrice))

	assert.Equal(t, engine.Balance(70000), m.GetAvailable(maker))
}

func TestQuoteBuySellEvenMore(t *testing.T) {
	m := engine.NewPortfolioManager()
	m.Deposit(taker, 100000)
	m.Deposit(maker, 100000)

	m.AddRestingOrder(maker, book, sellOrder(0, 5, askPrice))
	m.AddRestingOrder(maker, book, buyOrder(0, 5, bidPrice))
	assert.Equal(t, engine.Balance(70000), m.GetAvailable(maker))

	m.OnTrade(taker, maker, book, 1, askPrice, engine.Buy)
	assert.Equal(t, engine.Balance(97000), m.GetBalance(maker))
	assert.Equal(t, engine.Balance(77000), m.GetAvailable(maker))

	m.OnTrade(taker, maker, book, 3, bidPrice, engine.Sell)
	assert.Equal(t, engine.Balance(89000), m.GetBalance(maker))
	assert.Equal(t, engine.Balance(77000), m.GetAvailable(maker))

	m.RemoveOrder(maker, book, sellOrder(0, 4, askPrice))
	m.RemoveOrder(maker, book, buyOrder(0, 2, bidPrice))
	assert.Equal(t, engine.Balance(89000), m.GetBalance(maker))
	assert.Equal(t, engine.Balance(89000), m.GetAvailable(maker))
}

func TestQuoteSellBuyEvenMore(t *testing.T) {
	m := engine.NewPortfolioManager()
	m.Deposit(taker, 100000)
	m.Deposit(maker, 100000)

	m.AddRestingOrder(maker, book, sellOrder(0, 5, askPrice))
	m.AddRestingOrder(maker, book, buyOrder(0, 5, bidPrice))
	assert.Equal(t, engine.Balance(70000), m.GetAvailable(maker))

	m.OnTrade(taker, maker, book, 1, bidPrice, engine.Sell)
	assert.Equal(t, engine.Balance(94000), m.GetBalance(maker))
	assert.Equal(t, engine.Balance(70000), m.GetAvailable(maker))

	m.OnTrade(taker, maker, book, 3, askPrice, engine.Buy)
	assert.Equal(t, engine.Balance(95000), m.GetBalance(maker))
	assert.Equal(t, engine.Balance(89000), m.GetAvailable(maker))

	m.RemoveOrder(maker, book, sellOrder(0, 2, askPrice))
	m.RemoveOrder(maker, book, buyOrder(0, 4, bidPrice))
	assert.Equal(t, engine.Balance(95000), m.GetAvailable(maker))
}

func TestRemovingAMiddleRestingOrderLeavesTheOthersExposed(t *testing.T) {
	m := engine.NewPortfolioManager()
	m.Deposit(maker, 100000)

	m.AddRestingOrder(maker, book, sellOrder(0, 2, 100))
	m.AddRestingOrder(maker, book, sellOrder(0, 2, 200))
	m.AddRestingOrder(maker, book, sellOrder(0, 2, 500))
	m.AddRestingOrder(maker, book, sellOrder(0, 2, 600))

	m.RemoveOrder(maker, book, sellOrder(0, 2, 200))

	assert.Equal(t, engine.Balance(100000-(6*10000-2*100-2*500-2*600)), m.GetAvailable(maker))
}

func TestResolveCreditsWinnerAndDebtor(t *testing.T) {
	m := engine.NewPortfolioManager()
	m.Deposit(taker, 100000)
	m.Deposit(maker, 100000)

	m.AddRestingOrder(maker, book, sellOrder(0, 5, askPrice))
	assert.Equal(t, engine.Balance(85000), m.GetAvailable(maker))

	m.OnTrade(taker, maker, book, 2, askPrice, engine.Buy)
	m.Resolve(book, engine.ResolvePrice)

	assert.Equal(t, engine.Balance(94000), m.GetBalance(maker))
	assert.Equal(t, engine.Balance(94000), m.GetAvailable(maker))
	assert.Equal(t, engine.Position(0), m.GetPosition(maker, book))

	assert.Equal(t, engine.Balance(106000), m.GetBalance(taker))
	assert.Equal(t, engine.Balance(106000), m.GetAvailable(taker))
	assert.Equal(t, engine.Position(0), m.GetPosition(taker, book))
}
