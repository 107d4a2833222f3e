package client

import "time"

// CommandSender 出站命令的发送方（传输层）。未连接时返回 ErrNotConnected
type CommandSender interface {
	Send(cmd any) error
}

// MovementController 把按键事件折叠成单一方向意图，
// 方向变化时立即发送一次，并按固定间隔重发，直到方向再次改变
type MovementController struct {
	held     map[Direction]bool
	current  Direction // 最近一次发送的方向，DirNone 表示 Idle
	timer    Handle
	interval time.Duration

	sched  Scheduler
	sender CommandSender
	onSend func(sent bool)
}

// NewMovementController 创建控制器；interval 为持续移动时的重发间隔
func NewMovementController(sched Scheduler, sender CommandSender, interval time.Duration) *MovementController {
	return &MovementController{
		held:     make(map[Direction]bool),
		current:  DirNone,
		interval: interval,
		sched:    sched,
		sender:   sender,
	}
}

// HandleKey 处理一次按键事件
func (m *MovementController) HandleKey(ev KeyEvent) {
	if ev.Key == DirNone {
		return
	}
	if ev.Pressed {
		m.held[ev.Key] = true
		m.update()
		return
	}

	if !m.held[ev.Key] {
		return
	}
	delete(m.held, ev.Key)
	if len(m.held) == 0 {
		m.cancelTimer()
		m.current = DirNone
		m.emit(DirNone)
		return
	}
	m.update()
}

// PrimaryDirection 按优先级选出的方向，无按键时为 DirNone
func (m *MovementController) PrimaryDirection() Direction {
	for _, d := range directionPriority {
		if m.held[d] {
			return d
		}
	}
	return DirNone
}

// Current 当前已发送的方向
func (m *MovementController) Current() Direction { return m.current }

// Moving 重发定时器是否处于活动状态
func (m *MovementController) Moving() bool { return m.timer != nil }

// Reset 释放所有按键并停止定时器，不发送任何命令（用于断线）
func (m *MovementController) Reset() {
	m.cancelTimer()
	m.held = make(map[Direction]bool)
	m.current = DirNone
}

func (m *MovementController) update() {
	dir := m.PrimaryDirection()
	if dir == m.current {
		return
	}
	// 先取消旧定时器，避免两个重发任务并存
	m.cancelTimer()
	m.current = dir
	m.emit(dir)
	if dir == DirNone {
		return
	}
	m.timer = m.sched.Every(m.interval, func() { m.emit(dir) })
}

func (m *MovementController) cancelTimer() {
	if m.timer != nil {
		m.timer.Cancel()
		m.timer = nil
	}
}

func (m *MovementController) emit(dir Direction) {
	err := m.sender.Send(NewMove(dir))
	if m.onSend != nil {
		m.onSend(err == nil)
	}
	if err != nil {
		Log.Debugw("move command discarded", "direction", dir.String(), "err", err)
	}
}
