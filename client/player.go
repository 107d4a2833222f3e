package client

import (
	"encoding/json"
	"fmt"
	"strings"
)

// PlayerID 表示玩家唯一标识（由服务端分配，客户端视为不透明字符串）
type PlayerID string

// Facing 玩家朝向，同时作为头像帧序列的键
type Facing string

const (
	FacingUp    Facing = "up"
	FacingDown  Facing = "down"
	FacingLeft  Facing = "left"
	FacingRight Facing = "right"
)

// UnmarshalJSON 兼容 north/south/east/west 写法
func (f *Facing) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	switch strings.ToLower(s) {
	case "up", "north":
		*f = FacingUp
	case "down", "south", "":
		*f = FacingDown
	case "left", "west":
		*f = FacingLeft
	case "right", "east":
		*f = FacingRight
	default:
		return fmt.Errorf("unknown facing %q", s)
	}
	return nil
}

// Player 服务端权威状态在本地的镜像，每次合并整条覆盖
type Player struct {
	ID        PlayerID `json:"id"`
	X         float64  `json:"x"`
	Y         float64  `json:"y"`
	Facing    Facing   `json:"direction"`
	Frame     int      `json:"animationFrame"`
	Username  string   `json:"username"`
	AvatarRef string   `json:"avatar"`
}

// Avatar 头像定义：朝向 -> 有序帧图片引用。注册后不可变
type Avatar struct {
	Name   string              `json:"name"`
	Frames map[Facing][]string `json:"frames"`
}

// FrameRef 返回指定朝向、帧序号对应的图片引用（帧序号按长度取模）
func (a Avatar) FrameRef(f Facing, frame int) (string, bool) {
	seq := a.Frames[f]
	if len(seq) == 0 {
		return "", false
	}
	if frame < 0 {
		frame = -frame
	}
	return seq[frame%len(seq)], true
}

// Point 世界坐标
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Position 玩家当前位置
func (p Player) Position() Point { return Point{X: p.X, Y: p.Y} }

// DisplayName 优先使用用户名，缺失时退回 id
func (p Player) DisplayName() string {
	if p.Username != "" {
		return p.Username
	}
	return string(p.ID)
}
