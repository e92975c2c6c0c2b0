package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddCapturesPriceOnce(t *testing.T) {
	c := New()
	c.Add(1, 2, decimal.NewFromInt(100))
	// Second add at a different price must not touch the snapshot.
	c.Add(1, 1, decimal.NewFromInt(150))

	require.Len(t, c.Items, 1)
	assert.Equal(t, 3, c.Items[0].Quantity)
	assert.True(t, c.Items[0].Price.Equal(decimal.NewFromInt(100)))
}

func TestAddKeepsInsertionOrder(t *testing.T) {
	c := New()
	c.Add(3, 1, decimal.NewFromInt(10))
	c.Add(1, 1, decimal.NewFromInt(20))
	c.Add(2, 1, decimal.NewFromInt(30))

	require.Len(t, c.Items, 3)
	assert.Equal(t, uint(3), c.Items[0].ProductID)
	assert.Equal(t, uint(1), c.Items[1].ProductID)
	assert.Equal(t, uint(2), c.Items[2].ProductID)
}

func TestRemove(t *testing.T) {
	c := New()
	c.Add(1, 3, decimal.NewFromInt(10))
	c.Add(2, 1, decimal.NewFromInt(20))

	c.Remove(1, 2)
	require.Len(t, c.Items, 2)
	assert.Equal(t, 1, c.Items[0].Quantity)

	c.Remove(1, 1)
	require.Len(t, c.Items, 1)
	assert.Equal(t, uint(2), c.Items[0].ProductID)

	// Removing an absent product is a no-op.
	c.Remove(99, 1)
	assert.Len(t, c.Items, 1)
}

func TestTotalPrice(t *testing.T) {
	c := New()
	assert.True(t, c.TotalPrice().IsZero())

	c.Add(1, 2, decimal.NewFromInt(100))
	c.Add(2, 1, decimal.NewFromInt(50))

	assert.True(t, c.TotalPrice().Equal(decimal.NewFromInt(250)))
}

func TestClear(t *testing.T) {
	c := New()
	c.Add(1, 1, decimal.NewFromInt(10))
	c.Clear()
	assert.True(t, c.IsEmpty())
	assert.True(t, c.TotalPrice().IsZero())
}
