package listeners

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type testEvent int

const (
	eventA testEvent = iota
	eventB
)

func TestNotifyInRegistrationOrder(t *testing.T) {
	manager := New[testEvent, int]()
	var calls []string
	manager.AddListener(eventA, func(value int) { calls = append(calls, "first") })
	manager.AddListener(eventA, func(value int) { calls = append(calls, "second") })
	manager.AddListener(eventB, func(value int) { calls = append(calls, "other") })

	manager.Notify(eventA, 1)
	require.Equal(t, []string{"first", "second"}, calls)
}

func TestRemoveListener(t *testing.T) {
	manager := New[testEvent, int]()
	sum := 0
	id := manager.AddListener(eventA, func(value int) { sum += value })
	manager.AddListener(eventA, func(value int) { sum += 10 * value })

	manager.Notify(eventA, 1)
	require.Equal(t, 11, sum)

	require.True(t, manager.RemoveListener(id))
	require.False(t, manager.RemoveListener(id))

	manager.Notify(eventA, 1)
	require.Equal(t, 21, sum)
}

func TestRemoveDuringNotifyDoesNotSkip(t *testing.T) {
	manager := New[testEvent, int]()
	var calls []int
	var firstID ID
	firstID = manager.AddListener(eventA, func(value int) {
		calls = append(calls, 1)
		manager.RemoveListener(firstID)
	})
	manager.AddListener(eventA, func(value int) { calls = append(calls, 2) })

	manager.Notify(eventA, 0)
	manager.Notify(eventA, 0)
	require.Equal(t, []int{1, 2, 2}, calls)
}
