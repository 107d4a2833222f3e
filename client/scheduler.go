package client

import (
	"time"
)

// Handle 周期任务句柄
type Handle interface {
	Cancel()
}

// Scheduler 周期任务调度；fn 必须在会话的逻辑线程上执行
type Scheduler interface {
	Every(interval time.Duration, fn func()) Handle
}

// LoopScheduler 使用独立协程的 ticker 计时，但把回调投递回会话循环执行
// post 由会话提供，负责把函数排入事件队列
type LoopScheduler struct {
	post func(func())
}

// NewLoopScheduler 创建调度器
func NewLoopScheduler(post func(func())) *LoopScheduler {
	return &LoopScheduler{post: post}
}

type loopHandle struct {
	stop      chan struct{}
	cancelled bool // 仅在逻辑线程读写
}

// Cancel 停止计时协程；已排队但尚未执行的回调也不会再运行
func (h *loopHandle) Cancel() {
	if h.cancelled {
		return
	}
	h.cancelled = true
	close(h.stop)
}

// Every 启动周期任务
func (s *LoopScheduler) Every(interval time.Duration, fn func()) Handle {
	h := &loopHandle{stop: make(chan struct{})}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-h.stop:
				return
			case <-ticker.C:
				s.post(func() {
					if h.cancelled {
						return
					}
					fn()
				})
			}
		}
	}()
	return h
}
