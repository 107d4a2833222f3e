package client

import "strings"

// Direction 移动方向；DirNone 即 stop
type Direction int

const (
	DirNone Direction = iota
	DirUp
	DirDown
	DirLeft
	DirRight
)

// directionPriority 多键同时按下时的优先级：up > down > left > right
var directionPriority = [...]Direction{DirUp, DirDown, DirLeft, DirRight}

// String 返回协议中的方向字符串
func (d Direction) String() string {
	switch d {
	case DirUp:
		return "up"
	case DirDown:
		return "down"
	case DirLeft:
		return "left"
	case DirRight:
		return "right"
	default:
		return "stop"
	}
}

// ParseDirection 解析方向键名，支持 wasd
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToLower(s) {
	case "up", "w", "arrowup":
		return DirUp, true
	case "down", "s", "arrowdown":
		return DirDown, true
	case "left", "a", "arrowleft":
		return DirLeft, true
	case "right", "d", "arrowright":
		return DirRight, true
	default:
		return DirNone, false
	}
}

// KeyEvent 原始按键事件
type KeyEvent struct {
	Key     Direction
	Pressed bool // true 按下，false 抬起
}
