package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestView_Empty(t *testing.T) {
	view := NewView()

	assert.False(t, view.Loaded())
	assert.Empty(t, view.Items())
	assert.Equal(t, 0, view.Total())
}

func TestView_MarkRemovedHidesLine(t *testing.T) {
	view := NewView()
	view.Reconcile([]LineItem{{ProductID: "a", Price: 1, Quantity: 1}, {ProductID: "b", Price: 2, Quantity: 1}})

	view.MarkRemoved("a")

	assert.Equal(t, 1, view.Pending())
	assert.Equal(t, []LineItem{{ProductID: "b", Price: 2, Quantity: 1}}, view.Items())
	assert.Equal(t, 2, view.Total())
}

func TestView_SnapshotWins(t *testing.T) {
	view := NewView()
	view.Reconcile([]LineItem{{ProductID: "a", Quantity: 1}})
	view.MarkRemoved("a")

	// The store still has the line: the snapshot brings it back
	view.Reconcile([]LineItem{{ProductID: "a", Quantity: 1}})

	assert.Equal(t, 0, view.Pending())
	assert.Len(t, view.Items(), 1)
}

func TestView_ReconcileCopiesSnapshot(t *testing.T) {
	snapshot := []LineItem{{ProductID: "a", Quantity: 1}}
	view := NewView()
	view.Reconcile(snapshot)

	snapshot[0].Quantity = 5

	assert.Equal(t, 1, view.Items()[0].Quantity)
}
