package observe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListNotifiesInOrder(t *testing.T) {
	var l List[int]
	var got []string

	l.Add(func(v int) { got = append(got, "a") })
	l.Add(func(v int) { got = append(got, "b") })
	l.Notify(1)

	assert.Equal(t, []string{"a", "b"}, got)
}

func TestListCancel(t *testing.T) {
	var l List[string]
	calls := 0
	cancel := l.Add(func(string) { calls++ })

	l.Notify("x")
	cancel()
	cancel()
	l.Notify("y")

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, l.Len())
}

func TestListCallbackMayUnsubscribe(t *testing.T) {
	var l List[int]
	calls := 0
	var cancel func()
	cancel = l.Add(func(int) {
		calls++
		cancel()
	})

	l.Notify(1)
	l.Notify(2)
	assert.Equal(t, 1, calls)
}
