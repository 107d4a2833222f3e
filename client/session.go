package client

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"
)

// ErrSessionStopped 会话循环已退出
var ErrSessionStopped = errors.New("session stopped")

// Renderer 渲染协作者：每帧拿到一份只读快照
type Renderer interface {
	Render(Frame)
}

// ProximityListener 接收问候 / 告别事件
type ProximityListener interface {
	OnProximity(ProximityEvent)
}

// Frame 单帧只读快照
type Frame struct {
	LocalID     PlayerID
	Players     map[PlayerID]Player
	Avatars     map[string]Avatar
	Viewport    Point
	HasViewport bool
}

// Status 供 UI 状态显示读取
type Status struct {
	Connected   bool     `json:"connected"`
	Joined      bool     `json:"joined"`
	LocalID     PlayerID `json:"localId,omitempty"`
	PlayerCount int      `json:"playerCount"`
	Position    *Point   `json:"position,omitempty"`
	Viewport    *Point   `json:"viewport,omitempty"`
}

// Session 客户端会话：单一逻辑线程串行处理入站消息、按键、定时器与渲染 Tick
// 除 Post / Do / Status / Metrics 外的方法都只能在逻辑线程（Run）中调用
type Session struct {
	cfg Config

	store *Store
	prox  *ProximityEngine
	move  *MovementController

	sender   CommandSender
	renderer Renderer
	listener ProximityListener
	metrics  *SessionMetrics

	localID     PlayerID
	viewport    Point
	hasViewport bool

	events chan func()
	done   chan struct{}
	status atomic.Pointer[Status]
}

// NewSession 创建会话；sched 为 nil 时使用投递到本会话循环的 LoopScheduler
func NewSession(cfg Config, sender CommandSender, sched Scheduler) *Session {
	s := &Session{
		cfg:     cfg,
		store:   NewStore(),
		sender:  sender,
		metrics: &SessionMetrics{},
		events:  make(chan func(), 256),
		done:    make(chan struct{}),
	}
	if sched == nil {
		sched = NewLoopScheduler(s.Post)
	}
	s.prox = NewProximityEngine(s.store, cfg.ProximityThreshold)
	s.move = NewMovementController(sched, sender, cfg.MoveResendInterval)
	s.move.onSend = s.metrics.IncCommand
	s.publishStatus()
	return s
}

// SetRenderer 设置渲染协作者（可为 nil）
func (s *Session) SetRenderer(r Renderer) { s.renderer = r }

// SetProximityListener 设置接近事件监听者（可为 nil）
func (s *Session) SetProximityListener(l ProximityListener) { s.listener = l }

// Store 注册表（只读使用）
func (s *Session) Store() *Store { return s.store }

// Proximity 接近状态引擎
func (s *Session) Proximity() *ProximityEngine { return s.prox }

// Movement 移动控制器
func (s *Session) Movement() *MovementController { return s.move }

// Metrics 运行指标
func (s *Session) Metrics() *SessionMetrics { return s.metrics }

// LocalID 本地玩家 id，未加入时为空
func (s *Session) LocalID() PlayerID { return s.localID }

// Joined 是否已获得本地身份
func (s *Session) Joined() bool { return s.localID != "" }

// Join 发送 join_game
func (s *Session) Join() {
	s.sendCommand(NewJoinGame(s.cfg.Username))
}

// Chat 发送聊天消息
func (s *Session) Chat(text string) {
	s.sendCommand(NewChat(text))
}

// HandleKey 按键事件交给移动控制器
func (s *Session) HandleKey(ev KeyEvent) {
	s.move.HandleKey(ev)
}

// HandleMessage 解析并合并一条入站消息，随后重新计算视口与接近状态
// 格式错误或未知 action 只记录日志，不修改任何状态
func (s *Session) HandleMessage(payload []byte) {
	in, err := DecodeInbound(payload)
	if err != nil {
		if errors.Is(err, ErrUnknownAction) {
			s.metrics.IncUnknown()
			Log.Infow("ignoring inbound message", "err", err)
		} else {
			s.metrics.IncMalformed()
			Log.Warnw("dropping inbound message", "err", err)
		}
		return
	}
	s.apply(in)
	s.metrics.IncApplied()
	s.recompute()
}

// HandleDisconnect 连接断开：停止移动重发，不发送任何命令
func (s *Session) HandleDisconnect() {
	s.move.Reset()
	s.publishStatus()
}

// Viewport 当前相机原点；未加入或本地玩家不存在时 ok 为 false
func (s *Session) Viewport() (Point, bool) {
	return s.viewport, s.hasViewport
}

// Frame 生成当前帧快照
func (s *Session) Frame() Frame {
	return Frame{
		LocalID:     s.localID,
		Players:     s.store.Players(),
		Avatars:     s.store.Avatars(),
		Viewport:    s.viewport,
		HasViewport: s.hasViewport,
	}
}

func (s *Session) apply(in Inbound) {
	switch m := in.(type) {
	case JoinGameResult:
		if !m.Success {
			Log.Warnw("join rejected", "error", m.Error)
			return
		}
		s.localID = m.PlayerID
		s.store.ApplyRoster(m.Players, m.Avatars)
		Log.Infow("joined game", "playerId", m.PlayerID, "players", len(m.Players), "avatars", len(m.Avatars))
	case PlayersMoved:
		for id, p := range m.Players {
			s.store.ApplyPlayerUpdate(id, p)
		}
	case PlayerJoined:
		if m.Avatar != nil {
			name := m.Avatar.Name
			if name == "" {
				name = m.Player.AvatarRef
			}
			s.store.ApplyAvatarDefinition(name, *m.Avatar)
		}
		s.store.ApplyPlayerUpdate(m.Player.ID, m.Player)
		Log.Infow("player joined", "playerId", m.Player.ID, "username", m.Player.Username)
	case PlayerLeft:
		s.store.RemovePlayer(m.PlayerID)
		Log.Infow("player left", "playerId", m.PlayerID)
	}
}

// recompute 视口 + 接近状态；合并后与每个渲染 Tick 都会调用
func (s *Session) recompute() {
	s.updateViewport()
	for _, ev := range s.prox.Evaluate(s.localID) {
		s.dispatchProximity(ev)
	}
	s.publishStatus()
}

func (s *Session) updateViewport() {
	local, ok := s.localPlayer()
	if !ok {
		s.hasViewport = false
		return
	}
	s.viewport = ComputeViewport(local.Position(), s.cfg.WorldSize(), s.cfg.ViewSize())
	s.hasViewport = true
}

func (s *Session) localPlayer() (Player, bool) {
	if s.localID == "" {
		return Player{}, false
	}
	return s.store.Player(s.localID)
}

func (s *Session) dispatchProximity(ev ProximityEvent) {
	switch ev.Kind {
	case Greet:
		s.metrics.IncGreet()
		Log.Infow("peer nearby", "playerId", ev.Peer, "name", ev.Name, "distance", ev.Distance)
		if s.cfg.AutoGreet {
			s.Chat(fmt.Sprintf(s.cfg.GreetTemplate, ev.Name))
		}
	case Farewell:
		s.metrics.IncFarewell()
		Log.Infow("peer out of range", "playerId", ev.Peer, "name", ev.Name, "distance", ev.Distance)
	}
	if s.listener != nil {
		s.listener.OnProximity(ev)
	}
}

func (s *Session) sendCommand(cmd any) {
	err := s.sender.Send(cmd)
	s.metrics.IncCommand(err == nil)
	if err != nil {
		Log.Debugw("command discarded", "err", err)
	}
}

func (s *Session) publishStatus() {
	st := &Status{
		Joined:      s.Joined(),
		LocalID:     s.localID,
		PlayerCount: s.store.PlayerCount(),
	}
	if local, ok := s.localPlayer(); ok {
		pos := local.Position()
		st.Position = &pos
	}
	if s.hasViewport {
		vp := s.viewport
		st.Viewport = &vp
	}
	s.status.Store(st)
}

// Status 任意协程可调用，返回最近一次发布的状态
func (s *Session) Status() Status {
	st := *s.status.Load()
	if c, ok := s.sender.(interface{ Connected() bool }); ok {
		st.Connected = c.Connected()
	}
	return st
}

// Post 把函数投递到逻辑线程执行；会话已停止时丢弃
func (s *Session) Post(fn func()) {
	select {
	case s.events <- fn:
	case <-s.done:
	}
}

// PostMessage 投递一条入站消息
func (s *Session) PostMessage(payload []byte) {
	s.Post(func() { s.HandleMessage(payload) })
}

// PostKey 投递一次按键事件
func (s *Session) PostKey(ev KeyEvent) {
	s.Post(func() { s.HandleKey(ev) })
}

// Do 投递并等待执行完成
func (s *Session) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	select {
	case s.events <- func() { fn(); close(finished) }:
	case <-s.done:
		return ErrSessionStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-finished:
		return nil
	case <-s.done:
		return ErrSessionStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Tick 渲染 Tick：重算视口与接近状态，并把快照交给渲染协作者
func (s *Session) Tick() {
	start := time.Now()
	s.recompute()
	if s.renderer != nil {
		s.renderer.Render(s.Frame())
	}
	s.metrics.AddTick(time.Since(start).Nanoseconds())
}
