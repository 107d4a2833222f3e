package client

// Store 本地镜像的玩家 / 头像注册表
// 只由合并操作修改，其他组件每次都重新读取，不跨合并持有引用
type Store struct {
	players map[PlayerID]Player
	avatars map[string]Avatar

	removeListeners []func(PlayerID)
}

// NewStore 创建空注册表
func NewStore() *Store {
	return &Store{
		players: make(map[PlayerID]Player),
		avatars: make(map[string]Avatar),
	}
}

// OnRemove 注册玩家离开时的级联回调（例如清理接近状态）
func (s *Store) OnRemove(fn func(PlayerID)) {
	s.removeListeners = append(s.removeListeners, fn)
}

// ApplyRoster 加入成功时的批量合并：并集写入，不在载荷中的条目保持不变
func (s *Store) ApplyRoster(players map[PlayerID]Player, avatars map[string]Avatar) {
	for id, p := range players {
		s.ApplyPlayerUpdate(id, p)
	}
	for name, a := range avatars {
		s.ApplyAvatarDefinition(name, a)
	}
}

// ApplyPlayerUpdate 整条覆盖（last-write-wins），不做字段级合并
func (s *Store) ApplyPlayerUpdate(id PlayerID, p Player) {
	p.ID = id
	s.players[id] = p
}

// ApplyAvatarDefinition 头像只增不删
func (s *Store) ApplyAvatarDefinition(name string, a Avatar) {
	if a.Name == "" {
		a.Name = name
	}
	s.avatars[name] = a
}

// RemovePlayer 删除玩家，并通知所有级联回调
func (s *Store) RemovePlayer(id PlayerID) {
	delete(s.players, id)
	for _, fn := range s.removeListeners {
		fn(id)
	}
}

// Player 按 id 查询
func (s *Store) Player(id PlayerID) (Player, bool) {
	p, ok := s.players[id]
	return p, ok
}

// Avatar 按名称查询
func (s *Store) Avatar(name string) (Avatar, bool) {
	a, ok := s.avatars[name]
	return a, ok
}

// HasAvatar 玩家引用的头像是否已注册
func (s *Store) HasAvatar(p Player) bool {
	_, ok := s.avatars[p.AvatarRef]
	return ok
}

// EachPlayer 遍历玩家，顺序不保证；fn 返回 false 时停止
func (s *Store) EachPlayer(fn func(Player) bool) {
	for _, p := range s.players {
		if !fn(p) {
			return
		}
	}
}

// PlayerCount 注册表大小
func (s *Store) PlayerCount() int { return len(s.players) }

// Players 返回玩家只读副本
func (s *Store) Players() map[PlayerID]Player {
	out := make(map[PlayerID]Player, len(s.players))
	for id, p := range s.players {
		out[id] = p
	}
	return out
}

// Avatars 返回头像只读副本
func (s *Store) Avatars() map[string]Avatar {
	out := make(map[string]Avatar, len(s.avatars))
	for name, a := range s.avatars {
		out[name] = a
	}
	return out
}
