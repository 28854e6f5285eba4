package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConn(userId uint64) *UserConn {
	return newUserConn(nil, userId, 4, 0)
}

func TestRegistryLastConnectWins(t *testing.T) {
	r := NewRegistry()
	first, second := testConn(1), testConn(1)
	r.Register(first)
	r.Register(second)

	cur, ok := r.Lookup(1)
	require.True(t, ok)
	assert.Same(t, second, cur)
	assert.Len(t, r.Group(1), 2)
	assert.Equal(t, 2, r.Len())

	// 旧连接断开不会挤掉新连接
	userId, ok := r.Unregister(first)
	require.True(t, ok)
	assert.Equal(t, uint64(1), userId)
	cur, ok = r.Lookup(1)
	require.True(t, ok)
	assert.Same(t, second, cur)
	assert.Len(t, r.Group(1), 1)

	_, ok = r.Unregister(second)
	require.True(t, ok)
	_, ok = r.Lookup(1)
	assert.False(t, ok)
	assert.Empty(t, r.Group(1))
	assert.Equal(t, 0, r.Len())
}

func TestRegistryLookupFallsBackToRemainingDevice(t *testing.T) {
	r := NewRegistry()
	phone, laptop := testConn(1), testConn(1)
	r.Register(phone)
	r.Register(laptop)

	// 最新的连接断开后，仍在线的旧设备接替
	_, ok := r.Unregister(laptop)
	require.True(t, ok)
	cur, ok := r.Lookup(1)
	require.True(t, ok)
	assert.Same(t, phone, cur)

	_, ok = r.Unregister(phone)
	require.True(t, ok)
	_, ok = r.Lookup(1)
	assert.False(t, ok)
}

func TestRegistryUnregisterUnknown(t *testing.T) {
	r := NewRegistry()
	c := testConn(7)
	_, ok := r.Unregister(c)
	assert.False(t, ok)

	r.Register(c)
	_, ok = r.Unregister(c)
	assert.True(t, ok)
	_, ok = r.Unregister(c)
	assert.False(t, ok, "second unregister is a no-op")
}

func TestRegistryAll(t *testing.T) {
	r := NewRegistry()
	a, b := testConn(1), testConn(2)
	r.Register(a)
	r.Register(b)
	assert.Len(t, r.all(), 2)
}

func TestUserConnSendDropsWhenFull(t *testing.T) {
	c := newUserConn(nil, 1, 1, 0)
	assert.True(t, c.Send([]byte("a")))
	assert.False(t, c.Send([]byte("b")), "queue of one is full")

	c.Close()
	c.Close()
	assert.False(t, c.Send([]byte("c")))
	select {
	case <-c.Done():
	case <-time.After(time.Second):
		t.Fatal("done not closed")
	}
}

func TestTypingDebouncer(t *testing.T) {
	d := newTypingDebouncer(300 * time.Millisecond)
	now := time.Now()

	assert.True(t, d.allow(2, true, now))
	assert.False(t, d.allow(2, true, now.Add(100*time.Millisecond)), "repeat inside window")
	assert.True(t, d.allow(3, true, now.Add(100*time.Millisecond)), "other receiver is independent")
	assert.True(t, d.allow(2, false, now.Add(150*time.Millisecond)), "state change always passes")
	assert.True(t, d.allow(2, false, now.Add(500*time.Millisecond)), "window elapsed")

	off := newTypingDebouncer(0)
	assert.True(t, off.allow(2, true, now))
	assert.True(t, off.allow(2, true, now))
}
