package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddRestsAnUncrossedOrder(t *testing.T) {
	book := NewOrderBook()
	fills := book.Add(newBuyOrder(1, 10, 500))
	assert.Empty(t, fills)

	best, ok := book.BestBid()
	assert.True(t, ok)
	assert.Equal(t, OrderID(1), best.ID)
	assert.Equal(t, Quantity(10), best.Quantity)
}

func TestAddThenRemove(t *testing.T) {
	book := NewOrderBook()
	book.Add(newBuyOrder(1, 10, 500))

	order, ok := book.Remove(1)
	assert.True(t, ok)
	assert.Equal(t, Quantity(10), order.Quantity)

	_, ok = book.BestBid()
	assert.False(t, ok)
}

func TestRemoveUnknownOrderFails(t *testing.T) {
	book := NewOrderBook()
	_, ok := book.Remove(99)
	assert.False(t, ok)
}

func TestExactFill(t *testing.T) {
	book := NewOrderBook()
	book.Add(newSellOrder(1, 10, 500))

	fills := book.Add(newBuyOrder(2, 10, 500))
	assert.Equal(t, []Fill{{MakerID: 1, Quantity: 10, Price: 500, Done: true}}, fills)

	_, ok := book.BestAsk()
	assert.False(t, ok)
}

func TestPartialFillLeavesMakerResting(t *testing.T) {
	book := NewOrderBook()
	book.Add(newSellOrder(1, 10, 500))

	fills := book.Add(newBuyOrder(2, 4, 500))
	assert.Equal(t, []Fill{{MakerID: 1, Quantity: 4, Price: 500, Done: false}}, fills)

	best, ok := book.BestAsk()
	assert.True(t, ok)
	assert.Equal(t, Quantity(6), best.Quantity)
}

func TestTakerRemainderRestsUnderOriginalID(t *testing.T) {
	book := NewOrderBook()
	book.Add(newSellOrder(1, 4, 500))

	fills := book.Add(newBuyOrder(2, 10, 500))
	assert.Equal(t, []Fill{{MakerID: 1, Quantity: 4, Price: 500, Done: true}}, fills)

	best, ok := book.BestBid()
	assert.True(t, ok)
	assert.Equal(t, OrderID(2), best.ID)
	assert.Equal(t, Quantity(6), best.Quantity)
}

func TestMultipleFillsAcrossLevels(t *testing.T) {
	book := NewOrderBook()
	book.Add(newSellOrder(1, 5, 100))
	book.Add(newSellOrder(2, 5, 101))
	book.Add(newSellOrder(3, 5, 102))

	fills := book.Add(newBuyOrder(4, 12, 102))
	assert.Equal(t, []Fill{
		{MakerID: 1, Quantity: 5, Price: 100, Done: true},
		{MakerID: 2, Quantity: 5, Price: 101, Done: true},
		{MakerID: 3, Quantity: 2, Price: 102, Done: false},
	}, fills)
}

func TestQueuePriorityIsFIFOWithinAPriceLevel(t *testing.T) {
	book := NewOrderBook()
	book.Add(newSellOrder(1, 5, 500))
	book.Add(newSellOrder(2, 5, 500))

	fills := book.Add(newBuyOrder(3, 7, 500))
	assert.Equal(t, []Fill{
		{MakerID: 1, Quantity: 5, Price: 500, Done: true},
		{MakerID: 2, Quantity: 2, Price: 500, Done: false},
	}, fills)
}

func TestSelfTradeIsPermitted(t *testing.T) {
	book := NewOrderBook()
	book.Add(newSellOrder(1, 10, 500))

	fills := book.Add(newBuyOrder(1, 10, 500))
	assert.Equal(t, []Fill{{MakerID: 1, Quantity: 10, Price: 500, Done: true}}, fills)
}

func TestNonCrossingOrderNeverMatches(t *testing.T) {
	book := NewOrderBook()
	book.Add(newSellOrder(1, 10, 500))

	fills := book.Add(newBuyOrder(2, 10, 499))
	assert.Empty(t, fills)

	bestAsk, ok := book.BestAsk()
	assert.True(t, ok)
	assert.Equal(t, OrderID(1), bestAsk.ID)
	bestBid, ok := book.BestBid()
	assert.True(t, ok)
	assert.Equal(t, OrderID(2), bestBid.ID)
}

func TestIsMarketable(t *testing.T) {
	book := NewOrderBook()
	assert.False(t, book.IsMarketable(500, Buy))
	assert.False(t, book.IsMarketable(500, Sell))

	book.Add(newSellOrder(1, 10, 500))
	assert.True(t, book.IsMarketable(500, Buy))
	assert.True(t, book.IsMarketable(600, Buy))
	assert.False(t, book.IsMarketable(499, Buy))

	book.Add(newBuyOrder(2, 10, 400))
	assert.True(t, book.IsMarketable(400, Sell))
	assert.False(t, book.IsMarketable(401, Sell))
}

func TestBestBidOrdersHighestPriceFirst(t *testing.T) {
	book := NewOrderBook()
	book.Add(newBuyOrder(1, 10, 400))
	book.Add(newBuyOrder(2, 10, 450))
	book.Add(newBuyOrder(3, 10, 420))

	best, ok := book.BestBid()
	assert.True(t, ok)
	assert.Equal(t, Price(450), best.Price)
}

func TestBestAskOrdersLowestPriceFirst(t *testing.T) {
	book := NewOrderBook()
	book.Add(newSellOrder(1, 10, 600))
	book.Add(newSellOrder(2, 10, 550))
	book.Add(newSellOrder(3, 10, 580))

	best, ok := book.BestAsk()
	assert.True(t, ok)
	assert.Equal(t, Price(550), best.Price)
}
