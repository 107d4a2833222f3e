package client

import (
	"sync/atomic"
)

// SessionMetrics 记录会话运行期的关键指标（用于监控与调试）
type SessionMetrics struct {
	MessagesApplied   int64 // 成功合并的入站消息数
	MalformedDropped  int64 // 因格式错误被丢弃的消息数
	UnknownIgnored    int64 // 未知 action 被忽略的消息数
	CommandsSent      int64 // 已交给传输层的出站命令数
	CommandsDiscarded int64 // 未连接时被丢弃的出站命令数
	Greets            int64
	Farewells         int64
	TickCount         int64 // 渲染 Tick 次数
	TotalTickNs       int64 // Tick 累计耗时（纳秒）
}

func (m *SessionMetrics) IncApplied() { atomic.AddInt64(&m.MessagesApplied, 1) }
func (m *SessionMetrics) IncMalformed() { atomic.AddInt64(&m.MalformedDropped, 1) }
func (m *SessionMetrics) IncUnknown() { atomic.AddInt64(&m.UnknownIgnored, 1) }
func (m *SessionMetrics) IncGreet() { atomic.AddInt64(&m.Greets, 1) }
func (m *SessionMetrics) IncFarewell() { atomic.AddInt64(&m.Farewells, 1) }
func (m *SessionMetrics) IncCommand(sent bool) {
	if sent {
		atomic.AddInt64(&m.CommandsSent, 1)
		return
	}
	atomic.AddInt64(&m.CommandsDiscarded, 1)
}
func (m *SessionMetrics) AddTick(ns int64) {
	atomic.AddInt64(&m.TickCount, 1)
	atomic.AddInt64(&m.TotalTickNs, ns)
}

// Snapshot 返回只读副本，便于 HTTP 输出
func (m *SessionMetrics) Snapshot() map[string]any {
	tick := atomic.LoadInt64(&m.TickCount)
	total := atomic.LoadInt64(&m.TotalTickNs)
	var avgMs float64
	if tick > 0 {
		avgMs = float64(total) / float64(tick) / 1e6
	}
	return map[string]any{
		"messages_applied":   atomic.LoadInt64(&m.MessagesApplied),
		"malformed_dropped":  atomic.LoadInt64(&m.MalformedDropped),
		"unknown_ignored":    atomic.LoadInt64(&m.UnknownIgnored),
		"commands_sent":      atomic.LoadInt64(&m.CommandsSent),
		"commands_discarded": atomic.LoadInt64(&m.CommandsDiscarded),
		"greets":             atomic.LoadInt64(&m.Greets),
		"farewells":          atomic.LoadInt64(&m.Farewells),
		"tick_count":         tick,
		"avg_tick_ms":        avgMs,
	}
}
