package client

import (
	"time"
)

type fakeTask struct {
	fn        func()
	interval  time.Duration
	cancelled bool
}

func (t *fakeTask) Cancel() { t.cancelled = true }

// fakeScheduler 手动驱动的调度器，测试中用 fire 模拟一次定时触发
type fakeScheduler struct {
	tasks []*fakeTask
}

func (s *fakeScheduler) Every(interval time.Duration, fn func()) Handle {
	t := &fakeTask{fn: fn, interval: interval}
	s.tasks = append(s.tasks, t)
	return t
}

func (s *fakeScheduler) fire() {
	for _, t := range s.tasks {
		if !t.cancelled {
			t.fn()
		}
	}
}

func (s *fakeScheduler) active() int {
	n := 0
	for _, t := range s.tasks {
		if !t.cancelled {
			n++
		}
	}
	return n
}

// fakeSender 记录发出的命令
type fakeSender struct {
	offline bool
	sent    []any
}

func (f *fakeSender) Send(cmd any) error {
	if f.offline {
		return ErrNotConnected
	}
	f.sent = append(f.sent, cmd)
	return nil
}

func (f *fakeSender) Connected() bool { return !f.offline }

func (f *fakeSender) moves() []string {
	var out []string
	for _, c := range f.sent {
		if m, ok := c.(MoveCommand); ok {
			out = append(out, m.Direction)
		}
	}
	return out
}

func (f *fakeSender) chats() []string {
	var out []string
	for _, c := range f.sent {
		if m, ok := c.(ChatMessage); ok {
			out = append(out, m.Message)
		}
	}
	return out
}

func (f *fakeSender) reset() { f.sent = nil }

func testAvatar(name string) Avatar {
	return Avatar{
		Name: name,
		Frames: map[Facing][]string{
			FacingUp:    {name + "_up_0.png", name + "_up_1.png"},
			FacingDown:  {name + "_down_0.png"},
			FacingLeft:  {name + "_left_0.png"},
			FacingRight: {name + "_right_0.png"},
		},
	}
}

func testPlayer(id string, x, y float64) Player {
	return Player{ID: PlayerID(id), X: x, Y: y, Facing: FacingDown, Username: id, AvatarRef: "knight"}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
