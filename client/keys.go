package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Control 控制流中的一行：按键事件或聊天
type Control struct {
	Key  *KeyEvent
	Chat string
}

// ParseControlLine 解析一行控制指令
//
//	down <key>   按下方向键
//	up <key>     抬起方向键
//	chat <text>  发送聊天
//
// 方向键支持 up/down/left/right 与 w/s/a/d
func ParseControlLine(line string) (Control, error) {
	line = strings.TrimSpace(line)
	verb, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(verb) {
	case "down", "up":
		dir, ok := ParseDirection(rest)
		if !ok {
			return Control{}, fmt.Errorf("unknown key %q", rest)
		}
		return Control{Key: &KeyEvent{Key: dir, Pressed: strings.EqualFold(verb, "down")}}, nil
	case "chat":
		if rest == "" {
			return Control{}, errors.New("empty chat message")
		}
		return Control{Chat: rest}, nil
	default:
		return Control{}, fmt.Errorf("unknown control %q", verb)
	}
}

// ReadControls 从 r 逐行读取控制指令并投递给会话，读到 EOF 或 ctx 结束时返回
// 无法解析的行记录日志后跳过
func ReadControls(ctx context.Context, r io.Reader, s *Session) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := sc.Text()
		if strings.TrimSpace(line) == "" || strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		ctl, err := ParseControlLine(line)
		if err != nil {
			Log.Warnw("ignoring control line", "line", line, "err", err)
			continue
		}
		switch {
		case ctl.Key != nil:
			s.PostKey(*ctl.Key)
		case ctl.Chat != "":
			text := ctl.Chat
			s.Post(func() { s.Chat(text) })
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read controls: %w", err)
	}
	return nil
}
