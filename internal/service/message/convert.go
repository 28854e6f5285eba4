package message

import (
	"market_chat_server/internal/dto/respond"
	"market_chat_server/internal/model"
)

func toUserBrief(u *model.UserInfo) *respond.UserBrief {
	if u == nil {
		return nil
	}
	return &respond.UserBrief{Id: u.ID, Username: u.Username, AvatarUrl: u.AvatarUrl}
}

func toMessageRespond(m *model.Message) respond.MessageRespond {
	return respond.MessageRespond{
		Id:            m.ID,
		Content:       m.Content,
		AttachmentUrl: m.AttachmentUrl,
		SenderId:      m.SenderId,
		ReceiverId:    m.ReceiverId,
		IsRead:        m.IsRead,
		CreatedAt:     m.CreatedAt,
		Sender:        toUserBrief(m.Sender),
		Receiver:      toUserBrief(m.Receiver),
	}
}

func toChatRespond(c *model.Chat, userId uint64) respond.ChatRespond {
	companionId, companion := c.Companion(userId)
	return respond.ChatRespond{
		Id:                 c.ID,
		CompanionId:        companionId,
		Companion:          toUserBrief(companion),
		LastMessageContent: c.LastMessageContent,
		UnreadCount:        c.UnreadFor(userId),
		UpdatedAt:          c.UpdatedAt,
	}
}
