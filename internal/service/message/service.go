// Package message 实现私信的发送、查询、已读与会话摘要维护
package message

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"go.uber.org/zap"

	"market_chat_server/internal/dao/mysql/repository"
	myredis "market_chat_server/internal/dao/redis"
	"market_chat_server/internal/dto/request"
	"market_chat_server/internal/dto/respond"
	"market_chat_server/internal/infrastructure/metrics"
	"market_chat_server/internal/model"
	"market_chat_server/pkg/constants"
	"market_chat_server/pkg/errorx"
)

// messageService 消息业务逻辑实现
type messageService struct {
	repos   *repository.Repositories
	cache   myredis.CacheService // 可为 nil，此时不缓存会话列表
	fileDir string               // 附件存储目录
}

// NewMessageService 构造函数
func NewMessageService(repos *repository.Repositories, cache myredis.CacheService, fileDir string) *messageService {
	return &messageService{repos: repos, cache: cache, fileDir: fileDir}
}

// SendMessage 发送消息
// 消息写入与会话摘要更新在同一事务内完成
func (s *messageService) SendMessage(ctx context.Context, senderId uint64, req request.SendMessageRequest) (*respond.MessageRespond, error) {
	if req.ReceiverId == 0 {
		return nil, errorx.New(errorx.CodeInvalidParam, "receiverId is required")
	}
	if senderId == req.ReceiverId {
		return nil, errorx.New(errorx.CodeForbidden, "cannot send message to yourself")
	}
	if req.Content == "" && req.AttachmentUrl == "" {
		return nil, errorx.New(errorx.CodeInvalidParam, "message content is empty")
	}

	sender, err := s.activeUser(ctx, senderId, "sender")
	if err != nil {
		return nil, err
	}
	receiver, err := s.activeUser(ctx, req.ReceiverId, "receiver")
	if err != nil {
		return nil, err
	}

	msg := &model.Message{
		Content:       req.Content,
		AttachmentUrl: req.AttachmentUrl,
		SenderId:      senderId,
		ReceiverId:    req.ReceiverId,
		IsRead:        false,
	}
	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.Message.Create(ctx, msg); err != nil {
			return err
		}
		_, err := tx.Chat.RecordMessage(ctx, senderId, req.ReceiverId, Preview(msg.Content, msg.AttachmentUrl))
		return err
	})
	if err != nil {
		zap.L().Error("record message failed",
			zap.Uint64("sender", senderId), zap.Uint64("receiver", req.ReceiverId), zap.Error(err))
		return nil, err
	}

	kind := "text"
	if msg.HasAttachment() {
		kind = "attachment"
	}
	metrics.MessagesPersisted.WithLabelValues(kind).Inc()
	s.invalidateChats(ctx, senderId, req.ReceiverId)

	msg.Sender, msg.Receiver = sender, receiver
	rsp := toMessageRespond(msg)
	return &rsp, nil
}

// activeUser 查找存在且可用的用户，否则返回 NotFound
func (s *messageService) activeUser(ctx context.Context, id uint64, role string) (*model.UserInfo, error) {
	user, err := s.repos.User.FindById(ctx, id)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.Newf(errorx.CodeNotFound, "%s %d not found", role, id)
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, errorx.Newf(errorx.CodeNotFound, "%s %d not found", role, id)
	}
	return user, nil
}

// GetMessages 分页查询消息
func (s *messageService) GetMessages(ctx context.Context, userId uint64, req request.GetMessagesRequest) ([]respond.MessageRespond, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = constants.DEFAULT_PAGESIZE
	}
	if limit > constants.MAX_PAGESIZE {
		limit = constants.MAX_PAGESIZE
	}
	offset := req.Offset
	if offset < 0 {
		offset = 0
	}

	messages, err := s.repos.Message.List(ctx, repository.MessageQuery{
		UserId: userId,
		PeerId: req.UserId,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return nil, err
	}

	rsp := make([]respond.MessageRespond, 0, len(messages))
	for i := range messages {
		rsp = append(rsp, toMessageRespond(&messages[i]))
	}
	return rsp, nil
}

// cachedChats 缓存的会话列表，Version 为写入时读到的版本号
type cachedChats struct {
	Version string                `json:"version"`
	Chats   []respond.ChatRespond `json:"chats"`
}

// GetChats 会话列表，命中缓存且版本号未变时直接返回
// 版本号在查库前读取，查库期间发生的失效会让这次写入的缓存作废
func (s *messageService) GetChats(ctx context.Context, userId uint64) ([]respond.ChatRespond, error) {
	key := chatListKey(userId)
	useCache := s.cache != nil
	var version string
	if useCache {
		v, err := s.cache.Get(ctx, chatListVersionKey(userId))
		if err != nil {
			zap.L().Warn("get chat list version failed", zap.Uint64("user_id", userId), zap.Error(err))
			useCache = false
		}
		version = v
	}
	if useCache {
		if cached, err := s.cache.Get(ctx, key); err != nil {
			zap.L().Warn("get chat list cache failed", zap.String("key", key), zap.Error(err))
		} else if cached != "" {
			var entry cachedChats
			if err := json.Unmarshal([]byte(cached), &entry); err != nil {
				zap.L().Warn("chat list cache corrupted", zap.String("key", key))
			} else if entry.Version == version {
				return entry.Chats, nil
			}
		}
	}

	chats, err := s.repos.Chat.ListByUser(ctx, userId)
	if err != nil {
		return nil, err
	}
	rsp := make([]respond.ChatRespond, 0, len(chats))
	for i := range chats {
		rsp = append(rsp, toChatRespond(&chats[i], userId))
	}

	if useCache {
		if data, err := json.Marshal(cachedChats{Version: version, Chats: rsp}); err == nil {
			if err := s.cache.Set(ctx, key, string(data), time.Duration(constants.REDIS_TIMEOUT)*time.Minute); err != nil {
				zap.L().Warn("set chat list cache failed", zap.String("key", key), zap.Error(err))
			}
		}
	}
	return rsp, nil
}

// MarkAsRead 标记已读，可重复调用
func (s *messageService) MarkAsRead(ctx context.Context, readerId, otherId uint64) (int64, error) {
	if otherId == 0 {
		return 0, errorx.New(errorx.CodeInvalidParam, "userId is required")
	}

	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if _, err := tx.Message.MarkRead(ctx, otherId, readerId); err != nil {
			return err
		}
		// 以消息表为准重算，避免计数漂移
		left, err := tx.Message.CountUnread(ctx, readerId, otherId)
		if err != nil {
			return err
		}
		return tx.Chat.SetUnread(ctx, readerId, otherId, readerId, left)
	})
	if err != nil {
		return 0, err
	}
	s.invalidateChats(ctx, readerId)

	return s.repos.Message.CountUnread(ctx, readerId, 0)
}

// GetUnreadCount 未读数
func (s *messageService) GetUnreadCount(ctx context.Context, userId, fromId uint64) (int64, error) {
	return s.repos.Message.CountUnread(ctx, userId, fromId)
}

// GetMessage 只有消息双方可以查看
func (s *messageService) GetMessage(ctx context.Context, userId, messageId uint64) (*respond.MessageRespond, error) {
	msg, err := s.repos.Message.FindById(ctx, messageId)
	if err != nil {
		return nil, err
	}
	if msg.SenderId != userId && msg.ReceiverId != userId {
		return nil, errorx.New(errorx.CodeForbidden, "you can only view your own messages")
	}
	rsp := toMessageRespond(msg)
	return &rsp, nil
}

// UpdateMessage 修改正文，若是最新一条同步更新会话预览
func (s *messageService) UpdateMessage(ctx context.Context, userId, messageId uint64, req request.UpdateMessageRequest) (*respond.MessageRespond, error) {
	if req.Content == "" {
		return nil, errorx.New(errorx.CodeInvalidParam, "content is required")
	}
	msg, err := s.repos.Message.FindById(ctx, messageId)
	if err != nil {
		return nil, err
	}
	if msg.SenderId != userId {
		return nil, errorx.New(errorx.CodeForbidden, "you can only update your own messages")
	}

	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.Message.UpdateContent(ctx, messageId, req.Content); err != nil {
			return err
		}
		latest, err := tx.Message.FindLatestBetween(ctx, msg.SenderId, msg.ReceiverId)
		if err != nil {
			return err
		}
		if latest != nil && latest.ID == messageId {
			return tx.Chat.UpdatePreview(ctx, msg.SenderId, msg.ReceiverId, previewOf(latest))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidateChats(ctx, msg.SenderId, msg.ReceiverId)

	msg.Content = req.Content
	rsp := toMessageRespond(msg)
	return &rsp, nil
}

// DeleteMessage 删除消息，会话预览回退到剩余的最新一条
func (s *messageService) DeleteMessage(ctx context.Context, userId, messageId uint64) error {
	msg, err := s.repos.Message.FindById(ctx, messageId)
	if err != nil {
		return err
	}
	if msg.SenderId != userId {
		return errorx.New(errorx.CodeForbidden, "you can only delete your own messages")
	}

	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.Message.Delete(ctx, messageId); err != nil {
			return err
		}
		latest, err := tx.Message.FindLatestBetween(ctx, msg.SenderId, msg.ReceiverId)
		if err != nil {
			return err
		}
		if err := tx.Chat.UpdatePreview(ctx, msg.SenderId, msg.ReceiverId, previewOf(latest)); err != nil {
			return err
		}
		if msg.IsRead {
			return nil
		}
		left, err := tx.Message.CountUnread(ctx, msg.ReceiverId, msg.SenderId)
		if err != nil {
			return err
		}
		return tx.Chat.SetUnread(ctx, msg.SenderId, msg.ReceiverId, msg.ReceiverId, left)
	})
	if err != nil {
		return err
	}
	s.invalidateChats(ctx, msg.SenderId, msg.ReceiverId)
	return nil
}

func chatListKey(userId uint64) string {
	return constants.CHAT_LIST_CACHE_PREFIX + strconv.FormatUint(userId, 10)
}

func chatListVersionKey(userId uint64) string {
	return constants.CHAT_LIST_VERSION_PREFIX + strconv.FormatUint(userId, 10)
}

// invalidateChats 先递增版本号再删除会话列表缓存，失败只记日志
func (s *messageService) invalidateChats(ctx context.Context, userIds ...uint64) {
	if s.cache == nil {
		return
	}
	keys := make([]string, 0, len(userIds))
	for _, id := range userIds {
		if _, err := s.cache.Incr(ctx, chatListVersionKey(id)); err != nil {
			zap.L().Warn("bump chat list version failed", zap.Uint64("user_id", id), zap.Error(err))
		}
		keys = append(keys, chatListKey(id))
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		zap.L().Warn("invalidate chat list cache failed", zap.Strings("keys", keys), zap.Error(err))
	}
}
