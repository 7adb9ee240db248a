package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContractsCreated(t *testing.T) {
	cases := []struct {
		name     string
		position Position
		quantity Quantity
		want     Quantity
	}{
		{"flat sell opens short entirely", 0, 10, 10},
		{"long fully covers the sell", 5, 3, 0},
		{"long partially covers the sell", 5, 8, 3},
		{"short sell adds to the existing short", -5, 10, 10},
		{"zero quantity creates nothing", 5, 0, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, contractsCreated(c.position, c.quantity))
		})
	}
}

func TestContractsCombined(t *testing.T) {
	cases := []struct {
		name     string
		position Position
		quantity Quantity
		want     Quantity
	}{
		{"flat buy combines nothing", 0, 10, 0},
		{"short fully combines with the buy", -5, 8, 5},
		{"short partially combines with the buy", -5, 3, 3},
		{"long buy adds to the existing long", 5, 10, 0},
		{"minimum position never overflows", math.MinInt32, 10, 10},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, contractsCombined(c.position, c.quantity))
		})
	}
}

func TestTradeCostBuyer(t *testing.T) {
	// Flat buyer pays the full notional.
	assert.Equal(t, Balance(5_000), tradeCost(0, 10, 500, Buy))
	// Closing a short of 10 at price 500 refunds ResolvePrice per contract closed.
	assert.Equal(t, Balance(10)*Balance(500)-Balance(10)*Balance(ResolvePrice), tradeCost(-10, 10, 500, Buy))
}

func TestTradeCostSeller(t *testing.T) {
	// Selling out of a long of 10 creates no contracts and receives a credit for the full notional.
	assert.Equal(t, Balance(-5_000), tradeCost(10, 10, 500, Sell))
	// Opening a new short of 10 at price 500 costs ResolvePrice per contract created.
	assert.Equal(t, Balance(10)*Balance(ResolvePrice)-Balance(10)*Balance(500), tradeCost(0, 10, 500, Sell))
}

func TestReluSaturatesAtZero(t *testing.T) {
	assert.Equal(t, uint32(0), relu(math.MinInt32))
	assert.Equal(t, uint32(0), relu(-1))
	assert.Equal(t, uint32(7), relu(7))
}
