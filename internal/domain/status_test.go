package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextStatus(t *testing.T) {
	tests := []struct {
		name     string
		current  OrderStatus
		expected OrderStatus
		ok       bool
	}{
		{name: "pending moves to processing", current: StatusPending, expected: StatusProcessing, ok: true},
		{name: "processing moves to done", current: StatusProcessing, expected: StatusDone, ok: true},
		{name: "done is terminal", current: StatusDone, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, ok, err := NextStatus(tt.current)
			require.NoError(t, err)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, next)

			// asking again gives the same answer
			again, okAgain, err := NextStatus(tt.current)
			require.NoError(t, err)
			assert.Equal(t, next, again)
			assert.Equal(t, ok, okAgain)
		})
	}
}

func TestNextStatus_Unknown(t *testing.T) {
	for _, s := range []OrderStatus{"", "pending", "CANCELLED"} {
		next, ok, err := NextStatus(s)
		assert.False(t, ok)
		assert.Empty(t, next)

		var stateErr *InvalidStateError
		require.True(t, errors.As(err, &stateErr), "status %q", s)
		assert.Equal(t, s, stateErr.Status)
	}
}

func TestLifecycleIsLinear(t *testing.T) {
	var walked []OrderStatus
	s := StatusPending
	for {
		walked = append(walked, s)
		next, ok, err := NextStatus(s)
		require.NoError(t, err)
		if !ok {
			break
		}
		s = next
	}

	assert.Equal(t, []OrderStatus{StatusPending, StatusProcessing, StatusDone}, walked)
	assert.True(t, StatusDone.Terminal())
	assert.False(t, StatusPending.Terminal())
	assert.False(t, OrderStatus("nope").Valid())
	assert.ElementsMatch(t, []OrderStatus{StatusPending, StatusProcessing}, Unfinished())
}

func TestOrder_ProductIDs(t *testing.T) {
	o := &Order{Items: []OrderItem{
		{ProductID: "b", Quantity: 1},
		{ProductID: "a", Quantity: 2},
		{ProductID: "b", Quantity: 3},
	}}

	assert.Equal(t, []string{"b", "a"}, o.ProductIDs())
}

func TestOrder_CloneDoesNotShareItems(t *testing.T) {
	o := Order{ID: "o1", Items: []OrderItem{{ID: "i1", Quantity: 1}}}
	c := o.Clone()
	c.Items[0].Quantity = 99

	assert.Equal(t, int64(1), o.Items[0].Quantity)
}
