package client

import (
	"context"
	"time"
)

// Run 会话主循环（单线程推进）：入站消息、按键、定时器回调与渲染 Tick 依次执行，互不交错
// ctx 结束时停止移动重发并返回 nil
func (s *Session) Run(ctx context.Context) error {
	defer close(s.done)

	ticker := time.NewTicker(s.cfg.RenderInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.move.Reset()
			return nil
		case fn := <-s.events:
			fn()
		case <-ticker.C:
			s.Tick()
		}
	}
}
