package client

import "math"

// Proximity 单个对端的远近状态
type Proximity int

const (
	Far Proximity = iota
	Near
)

func (p Proximity) String() string {
	if p == Near {
		return "near"
	}
	return "far"
}

// ProximityEventKind 接近事件类型
type ProximityEventKind int

const (
	Greet ProximityEventKind = iota + 1
	Farewell
)

func (k ProximityEventKind) String() string {
	switch k {
	case Greet:
		return "greet"
	case Farewell:
		return "farewell"
	default:
		return "unknown"
	}
}

// ProximityEvent 状态迁移时产生的事件
type ProximityEvent struct {
	Kind     ProximityEventKind
	Peer     PlayerID
	Name     string
	Distance float64
}

// peerState 每个对端一条记录：远近状态 + 是否已问候
// greeted 仅在对端离开（RemovePlayer）时清除
type peerState struct {
	proximity Proximity
	greeted   bool
}

// ProximityEngine 每次评估遍历所有对端，按滞回状态机产生问候 / 告别事件
type ProximityEngine struct {
	store     *Store
	threshold float64
	peers     map[PlayerID]*peerState
}

// NewProximityEngine 创建引擎，并挂到 store 的离开级联上
func NewProximityEngine(store *Store, threshold float64) *ProximityEngine {
	e := &ProximityEngine{
		store:     store,
		threshold: threshold,
		peers:     make(map[PlayerID]*peerState),
	}
	store.OnRemove(e.Forget)
	return e
}

// Threshold 当前阈值
func (e *ProximityEngine) Threshold() float64 { return e.threshold }

// SetThreshold 运行期调整阈值，已有的远近状态保留，下次评估时按新阈值迁移
func (e *ProximityEngine) SetThreshold(v float64) { e.threshold = v }

// Forget 丢弃某个对端的全部状态，重新加入后从头开始
func (e *ProximityEngine) Forget(id PlayerID) {
	delete(e.peers, id)
}

// State 查询对端状态（测试与状态页使用）
func (e *ProximityEngine) State(id PlayerID) (prox Proximity, greeted bool, ok bool) {
	st, ok := e.peers[id]
	if !ok {
		return Far, false, false
	}
	return st.proximity, st.greeted, true
}

// Evaluate 以 localID 为中心评估一次；未加入（localID 为空或本地玩家不存在）时不产生事件
func (e *ProximityEngine) Evaluate(localID PlayerID) []ProximityEvent {
	if localID == "" {
		return nil
	}
	local, ok := e.store.Player(localID)
	if !ok {
		return nil
	}

	var events []ProximityEvent
	e.store.EachPlayer(func(peer Player) bool {
		if peer.ID == localID {
			return true
		}
		// 头像未到达的玩家本帧跳过，等头像注册后自愈
		if !e.store.HasAvatar(peer) {
			return true
		}
		dist := math.Hypot(peer.X-local.X, peer.Y-local.Y)
		if ev, ok := e.step(peer, dist); ok {
			events = append(events, ev)
		}
		return true
	})
	return events
}

func (e *ProximityEngine) step(peer Player, dist float64) (ProximityEvent, bool) {
	st, ok := e.peers[peer.ID]
	if !ok {
		st = &peerState{proximity: Far}
		e.peers[peer.ID] = st
	}
	isNear := dist <= e.threshold
	ev := ProximityEvent{Peer: peer.ID, Name: peer.DisplayName(), Distance: dist}

	switch {
	case st.proximity == Far && isNear:
		st.proximity = Near
		if st.greeted {
			return ProximityEvent{}, false
		}
		st.greeted = true
		ev.Kind = Greet
		return ev, true
	case st.proximity == Near && !isNear:
		st.proximity = Far
		ev.Kind = Farewell
		return ev, true
	default:
		return ProximityEvent{}, false
	}
}
