package message

import (
	"unicode/utf8"

	"market_chat_server/internal/model"
	"market_chat_server/pkg/constants"
)

// Preview 生成会话列表中的最近消息预览
// 纯附件消息显示占位符，超长文本按字符截断并追加 "..."
func Preview(content, attachmentUrl string) string {
	if content == "" {
		if attachmentUrl != "" {
			return constants.IMAGE_PREVIEW
		}
		return ""
	}
	if utf8.RuneCountInString(content) <= constants.PREVIEW_MAX_LEN {
		return content
	}
	runes := []rune(content)
	return string(runes[:constants.PREVIEW_MAX_LEN]) + "..."
}

func previewOf(m *model.Message) string {
	if m == nil {
		return constants.EMPTY_PREVIEW
	}
	return Preview(m.Content, m.AttachmentUrl)
}
