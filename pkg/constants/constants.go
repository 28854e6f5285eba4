package constants

const (
	CHANNEL_SIZE     = 100     // 通道大小
	FILE_MAX_SIZE    = 5 << 20 // 附件最大大小 (5MB)
	REDIS_TIMEOUT    = 1       // redis timeout (分钟)
	PREVIEW_MAX_LEN  = 30      // 会话预览最大字符数
	DEFAULT_PAGESIZE = 20
	MAX_PAGESIZE     = 100

	IMAGE_PREVIEW = "📷 Image"
	EMPTY_PREVIEW = "No messages"

	CHAT_LIST_CACHE_PREFIX   = "chat_list_"
	CHAT_LIST_VERSION_PREFIX = "chat_list_ver_" // 会话列表缓存版本号，不过期
	ONLINE_USER_PREFIX       = "online_user_"
	CHAT_EVENTS_CHANNEL      = "chat_events"
)
