package chat

import "time"

type typingState struct {
	at     time.Time
	typing bool
}

// typingDebouncer 限制同一接收方的重复 typing 事件
// 状态变化总是放行，相同状态在窗口期内只转发一次
type typingDebouncer struct {
	window time.Duration
	last   map[uint64]typingState
}

func newTypingDebouncer(window time.Duration) *typingDebouncer {
	return &typingDebouncer{window: window, last: make(map[uint64]typingState)}
}

func (d *typingDebouncer) allow(receiverId uint64, typing bool, now time.Time) bool {
	if d.window <= 0 {
		return true
	}
	if prev, ok := d.last[receiverId]; ok && prev.typing == typing && now.Sub(prev.at) < d.window {
		return false
	}
	d.last[receiverId] = typingState{at: now, typing: typing}
	return true
}
