package chat

import "sync"

// Registry 本实例上的在线连接表
// byUser 记录每个用户最近一次建立的连接（后连接覆盖先连接），
// groups 记录用户房间内的全部连接，用于多端同时推送
type Registry struct {
	mu     sync.RWMutex
	byUser map[uint64]*UserConn
	byConn map[string]uint64
	groups map[uint64]map[string]*UserConn
}

// NewRegistry 创建空的连接表
func NewRegistry() *Registry {
	return &Registry{
		byUser: make(map[uint64]*UserConn),
		byConn: make(map[string]uint64),
		groups: make(map[uint64]map[string]*UserConn),
	}
}

// Register 登记连接并加入用户房间
func (r *Registry) Register(c *UserConn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byUser[c.UserId] = c
	r.byConn[c.Id] = c.UserId
	g, ok := r.groups[c.UserId]
	if !ok {
		g = make(map[string]*UserConn)
		r.groups[c.UserId] = g
	}
	g[c.Id] = c
}

// Unregister 移除连接，返回连接所属用户
// 只有当 byUser 仍指向该连接时才改写，旧连接断开不会挤掉新连接；
// 若房间内还有其他设备，byUser 改指向其中一条
func (r *Registry) Unregister(c *UserConn) (uint64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	userId, ok := r.byConn[c.Id]
	if !ok {
		return 0, false
	}
	delete(r.byConn, c.Id)
	g := r.groups[userId]
	delete(g, c.Id)
	if len(g) == 0 {
		delete(r.groups, userId)
	}
	if cur, ok := r.byUser[userId]; ok && cur == c {
		delete(r.byUser, userId)
		for _, rest := range g {
			r.byUser[userId] = rest
			break
		}
	}
	return userId, true
}

// Lookup 用户当前的连接，用于判断是否在线
func (r *Registry) Lookup(userId uint64) (*UserConn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byUser[userId]
	return c, ok
}

// Group 用户房间内的全部连接（快照）
func (r *Registry) Group(userId uint64) []*UserConn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g := r.groups[userId]
	out := make([]*UserConn, 0, len(g))
	for _, c := range g {
		out = append(out, c)
	}
	return out
}

// Len 在线连接数
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byConn)
}

// all 当前全部连接（快照）
func (r *Registry) all() []*UserConn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*UserConn, 0, len(r.byConn))
	for _, g := range r.groups {
		for _, c := range g {
			out = append(out, c)
		}
	}
	return out
}
