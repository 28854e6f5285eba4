package repository_test

import (
	"context"
	"sync"
	"testing"

	"market_chat_server/internal/dao/mysql/repository"
	"market_chat_server/internal/dao/mysql/testdb"
	"market_chat_server/internal/model"
	"market_chat_server/pkg/errorx"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	_, repos := testdb.New(t)

	alice := testdb.CreateUser(t, repos, "alice")
	assert.NotZero(t, alice.ID)

	got, err := repos.User.FindById(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.True(t, got.IsActive)
	assert.True(t, got.CheckPassword("password"))

	_, err = repos.User.FindByUsername(ctx, "nobody")
	assert.Equal(t, errorx.CodeNotFound, errorx.GetCode(err))
}

func TestChatRecordMessageCreatesOneRowPerPair(t *testing.T) {
	ctx := context.Background()
	_, repos := testdb.New(t)
	alice := testdb.CreateUser(t, repos, "alice")
	bob := testdb.CreateUser(t, repos, "bob")

	chat, err := repos.Chat.RecordMessage(ctx, bob.ID, alice.ID, "hello")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, chat.User1Id)
	assert.Equal(t, bob.ID, chat.User2Id)
	assert.Equal(t, int64(1), chat.UnreadFor(alice.ID))
	assert.Equal(t, int64(0), chat.UnreadFor(bob.ID))

	chat, err = repos.Chat.RecordMessage(ctx, alice.ID, bob.ID, "hi back")
	require.NoError(t, err)
	assert.Equal(t, "hi back", chat.LastMessageContent)
	assert.Equal(t, int64(1), chat.UnreadFor(alice.ID))
	assert.Equal(t, int64(1), chat.UnreadFor(bob.ID))

	chats, err := repos.Chat.ListByUser(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, chats, 1)
	require.NotNil(t, chats[0].User2)
	assert.Equal(t, "bob", chats[0].User2.Username)
}

func TestChatRecordMessageConcurrentIncrements(t *testing.T) {
	ctx := context.Background()
	_, repos := testdb.New(t)
	alice := testdb.CreateUser(t, repos, "alice")
	bob := testdb.CreateUser(t, repos, "bob")

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repos.Chat.RecordMessage(ctx, alice.ID, bob.ID, "x")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	chat, err := repos.Chat.FindByPair(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(n), chat.UnreadFor(bob.ID))
}

func TestChatSetUnreadAndPreview(t *testing.T) {
	ctx := context.Background()
	_, repos := testdb.New(t)
	alice := testdb.CreateUser(t, repos, "alice")
	bob := testdb.CreateUser(t, repos, "bob")

	_, err := repos.Chat.RecordMessage(ctx, alice.ID, bob.ID, "one")
	require.NoError(t, err)
	require.NoError(t, repos.Chat.SetUnread(ctx, bob.ID, alice.ID, bob.ID, 0))
	require.NoError(t, repos.Chat.UpdatePreview(ctx, alice.ID, bob.ID, "edited"))

	chat, err := repos.Chat.FindByPair(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), chat.UnreadFor(bob.ID))
	assert.Equal(t, "edited", chat.LastMessageContent)

	_, err = repos.Chat.FindByPair(ctx, alice.ID, 999)
	assert.Equal(t, errorx.CodeNotFound, errorx.GetCode(err))
}

func TestMessageRepository(t *testing.T) {
	ctx := context.Background()
	_, repos := testdb.New(t)
	alice := testdb.CreateUser(t, repos, "alice")
	bob := testdb.CreateUser(t, repos, "bob")
	carol := testdb.CreateUser(t, repos, "carol")

	send := func(from, to uint64, content string) *model.Message {
		m := &model.Message{SenderId: from, ReceiverId: to, Content: content}
		require.NoError(t, repos.Message.Create(ctx, m))
		return m
	}
	send(alice.ID, bob.ID, "a1")
	send(bob.ID, alice.ID, "b1")
	send(alice.ID, bob.ID, "a2")
	last := send(carol.ID, bob.ID, "c1")

	all, err := repos.Message.List(ctx, repository.MessageQuery{UserId: bob.ID, Limit: 20})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, last.ID, all[0].ID)
	require.NotNil(t, all[0].Sender)
	assert.Equal(t, "carol", all[0].Sender.Username)

	pair, err := repos.Message.List(ctx, repository.MessageQuery{UserId: bob.ID, PeerId: alice.ID, Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, pair, 2)
	assert.Equal(t, "b1", pair[0].Content)
	assert.Equal(t, "a1", pair[1].Content)

	latest, err := repos.Message.FindLatestBetween(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "a2", latest.Content)

	none, err := repos.Message.FindLatestBetween(ctx, alice.ID, carol.ID)
	require.NoError(t, err)
	assert.Nil(t, none)

	n, err := repos.Message.CountUnread(ctx, bob.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	affected, err := repos.Message.MarkRead(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)

	n, err = repos.Message.CountUnread(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
	n, err = repos.Message.CountUnread(ctx, bob.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, repos.Message.UpdateContent(ctx, last.ID, "edited"))
	got, err := repos.Message.FindById(ctx, last.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Content)

	require.NoError(t, repos.Message.Delete(ctx, last.ID))
	_, err = repos.Message.FindById(ctx, last.ID)
	assert.Equal(t, errorx.CodeNotFound, errorx.GetCode(err))
}

func TestTransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	_, repos := testdb.New(t)
	alice := testdb.CreateUser(t, repos, "alice")
	bob := testdb.CreateUser(t, repos, "bob")

	err := repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.Message.Create(ctx, &model.Message{SenderId: alice.ID, ReceiverId: bob.ID, Content: "x"}); err != nil {
			return err
		}
		return errorx.New(errorx.CodeServerBusy, "boom")
	})
	require.Error(t, err)

	n, err := repos.Message.CountUnread(ctx, bob.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}
