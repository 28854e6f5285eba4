package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChatPair(t *testing.T) {
	a, b := ChatPair(9, 2)
	assert.Equal(t, uint64(2), a)
	assert.Equal(t, uint64(9), b)

	a, b = ChatPair(2, 9)
	assert.Equal(t, uint64(2), a)
	assert.Equal(t, uint64(9), b)

	// 数值比较，不是字典序
	a, b = ChatPair(10, 9)
	assert.Equal(t, uint64(9), a)
	assert.Equal(t, uint64(10), b)
}

func TestChatUnreadFor(t *testing.T) {
	c := &Chat{User1Id: 1, User2Id: 2, UnreadUser1: 3, UnreadUser2: 5}
	assert.Equal(t, int64(3), c.UnreadFor(1))
	assert.Equal(t, int64(5), c.UnreadFor(2))
	assert.Equal(t, int64(0), c.UnreadFor(7))

	id, _ := c.Companion(1)
	assert.Equal(t, uint64(2), id)
	id, _ = c.Companion(2)
	assert.Equal(t, uint64(1), id)

	assert.Equal(t, "unread_user1", UnreadColumn(1, 1))
	assert.Equal(t, "unread_user2", UnreadColumn(1, 2))
}

func TestUserPassword(t *testing.T) {
	u := &UserInfo{RawPassword: "secret123"}
	assert.NoError(t, u.BeforeSave(nil))
	assert.Empty(t, u.RawPassword)
	assert.NotEqual(t, "secret123", u.Password)
	assert.True(t, u.CheckPassword("secret123"))
	assert.False(t, u.CheckPassword("wrong"))
}
