package client

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// 协议中的 action 取值
const (
	ActionJoinGame     = "join_game"
	ActionMove         = "move"
	ActionChat         = "chat"
	ActionPlayersMoved = "players_moved"
	ActionPlayerJoined = "player_joined"
	ActionPlayerLeft   = "player_left"
)

var (
	ErrMalformedMessage = errors.New("malformed message")
	ErrUnknownAction    = errors.New("unknown action")
	ErrNotConnected     = errors.New("not connected")
)

// ---- 出站 ----

// JoinGameRequest 加入游戏
// 示例：{"action":"join_game","username":"alice"}
type JoinGameRequest struct {
	Action   string `json:"action"`
	Username string `json:"username"`
}

// MoveCommand 移动意图
// 示例：{"action":"move","direction":"up"}
type MoveCommand struct {
	Action    string `json:"action"`
	Direction string `json:"direction"`
}

// ChatMessage 聊天
type ChatMessage struct {
	Action  string `json:"action"`
	Message string `json:"message"`
}

func NewJoinGame(username string) JoinGameRequest {
	return JoinGameRequest{Action: ActionJoinGame, Username: username}
}

func NewMove(dir Direction) MoveCommand {
	return MoveCommand{Action: ActionMove, Direction: dir.String()}
}

func NewChat(text string) ChatMessage {
	return ChatMessage{Action: ActionChat, Message: text}
}

// ---- 入站 ----

// Inbound 已校验的入站消息，具体类型见下
type Inbound interface {
	action() string
}

// JoinGameResult 服务端对 join_game 的应答
type JoinGameResult struct {
	Success  bool
	PlayerID PlayerID
	Players  map[PlayerID]Player
	Avatars  map[string]Avatar
	Error    string
}

// PlayersMoved 移动过的玩家（部分或全量快照），每条都是整条覆盖
type PlayersMoved struct {
	Players map[PlayerID]Player
}

// PlayerJoined 有玩家加入
type PlayerJoined struct {
	Player Player
	Avatar *Avatar
}

// PlayerLeft 有玩家离开
type PlayerLeft struct {
	PlayerID PlayerID
}

func (JoinGameResult) action() string { return ActionJoinGame }
func (PlayersMoved) action() string { return ActionPlayersMoved }
func (PlayerJoined) action() string { return ActionPlayerJoined }
func (PlayerLeft) action() string { return ActionPlayerLeft }

type joinGameWire struct {
	Success  *bool               `json:"success"`
	PlayerID PlayerID            `json:"playerId"`
	Players  map[PlayerID]Player `json:"players"`
	Avatars  map[string]Avatar   `json:"avatars"`
	Error    string              `json:"error"`
}

type playersMovedWire struct {
	Players map[PlayerID]Player `json:"players"`
}

type playerJoinedWire struct {
	Player *Player `json:"player"`
	Avatar *Avatar `json:"avatar"`
}

type playerLeftWire struct {
	PlayerID PlayerID `json:"playerId"`
}

// PeekAction 不完整解码，只读取 action 字段
func PeekAction(payload []byte) (string, bool) {
	if !gjson.ValidBytes(payload) {
		return "", false
	}
	res := gjson.GetBytes(payload, "action")
	if res.Type != gjson.String {
		return "", false
	}
	return res.String(), true
}

// DecodeInbound 解析并校验一条入站消息
// 解析失败或缺少必填字段返回 ErrMalformedMessage；未知 action 返回 ErrUnknownAction
func DecodeInbound(payload []byte) (Inbound, error) {
	action, ok := PeekAction(payload)
	if !ok {
		return nil, fmt.Errorf("%w: missing action", ErrMalformedMessage)
	}

	switch action {
	case ActionJoinGame:
		var w joinGameWire
		if err := json.Unmarshal(payload, &w); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformedMessage, action, err)
		}
		if w.Success == nil {
			return nil, fmt.Errorf("%w: %s: missing success", ErrMalformedMessage, action)
		}
		if *w.Success && w.PlayerID == "" {
			return nil, fmt.Errorf("%w: %s: missing playerId", ErrMalformedMessage, action)
		}
		return JoinGameResult{
			Success:  *w.Success,
			PlayerID: w.PlayerID,
			Players:  keyedPlayers(w.Players),
			Avatars:  w.Avatars,
			Error:    w.Error,
		}, nil

	case ActionPlayersMoved:
		var w playersMovedWire
		if err := json.Unmarshal(payload, &w); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformedMessage, action, err)
		}
		if w.Players == nil {
			return nil, fmt.Errorf("%w: %s: missing players", ErrMalformedMessage, action)
		}
		return PlayersMoved{Players: keyedPlayers(w.Players)}, nil

	case ActionPlayerJoined:
		var w playerJoinedWire
		if err := json.Unmarshal(payload, &w); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformedMessage, action, err)
		}
		if w.Player == nil || w.Player.ID == "" {
			return nil, fmt.Errorf("%w: %s: missing player id", ErrMalformedMessage, action)
		}
		return PlayerJoined{Player: *w.Player, Avatar: w.Avatar}, nil

	case ActionPlayerLeft:
		var w playerLeftWire
		if err := json.Unmarshal(payload, &w); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformedMessage, action, err)
		}
		if w.PlayerID == "" {
			return nil, fmt.Errorf("%w: %s: missing playerId", ErrMalformedMessage, action)
		}
		return PlayerLeft{PlayerID: w.PlayerID}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
}

// keyedPlayers map 的键即玩家 id，记录里的 id 以键为准
func keyedPlayers(in map[PlayerID]Player) map[PlayerID]Player {
	if in == nil {
		return nil
	}
	out := make(map[PlayerID]Player, len(in))
	for id, p := range in {
		p.ID = id
		out[id] = p
	}
	return out
}
