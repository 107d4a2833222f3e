package client

import (
	"context"
	"fmt"
	"testing"
	"time"
)

type recordingListener struct {
	events []ProximityEvent
}

func (r *recordingListener) OnProximity(ev ProximityEvent) { r.events = append(r.events, ev) }

type recordingRenderer struct {
	frames []Frame
}

func (r *recordingRenderer) Render(f Frame) { r.frames = append(r.frames, f) }

func newTestSession(t *testing.T) (*Session, *fakeSender, *fakeScheduler, *recordingListener) {
	t.Helper()
	sender := &fakeSender{}
	sched := &fakeScheduler{}
	s := NewSession(DefaultConfig(), sender, sched)
	l := &recordingListener{}
	s.SetProximityListener(l)
	return s, sender, sched, l
}

const joinPayload = `{
	"action": "join_game",
	"success": true,
	"playerId": "me",
	"players": {
		"me":  {"x": 1024, "y": 1024, "direction": "down", "username": "alice", "avatar": "knight"},
		"bob": {"x": 1174, "y": 1024, "direction": "left", "username": "bob", "avatar": "knight"}
	},
	"avatars": {"knight": {"name": "knight", "frames": {"down": ["k.png"]}}}
}`

func movedPayload(id string, x, y float64) []byte {
	return []byte(fmt.Sprintf(`{"action":"players_moved","players":{%q:{"x":%v,"y":%v,"username":%q,"avatar":"knight"}}}`, id, x, y, id))
}

func TestSessionUnjoinedSuppressesDerivedState(t *testing.T) {
	s, _, _, l := newTestSession(t)
	s.HandleMessage(movedPayload("bob", 10, 10))
	s.Tick()

	if _, ok := s.Viewport(); ok {
		t.Fatal("viewport computed before join")
	}
	if len(l.events) != 0 {
		t.Fatalf("proximity events before join: %v", l.events)
	}
	if st := s.Status(); st.Joined || st.PlayerCount != 1 || st.Position != nil {
		t.Fatalf("status = %+v", st)
	}
}

func TestSessionJoinComputesViewport(t *testing.T) {
	s, _, _, _ := newTestSession(t)
	s.HandleMessage([]byte(joinPayload))

	vp, ok := s.Viewport()
	if !ok || vp != (Point{624, 724}) {
		t.Fatalf("viewport = %v,%v want (624,724)", vp, ok)
	}

	s.HandleMessage(movedPayload("me", 2048, 2048))
	if vp, _ := s.Viewport(); vp != (Point{1248, 1448}) {
		t.Fatalf("viewport after move = %v", vp)
	}

	st := s.Status()
	if !st.Joined || !st.Connected || st.LocalID != "me" || st.PlayerCount != 2 {
		t.Fatalf("status = %+v", st)
	}
	if st.Position == nil || *st.Position != (Point{2048, 2048}) {
		t.Fatalf("status position = %v", st.Position)
	}
}

func TestSessionProximityScenario(t *testing.T) {
	s, _, _, l := newTestSession(t)
	s.HandleMessage([]byte(joinPayload)) // bob at 150

	s.HandleMessage(movedPayload("bob", 1114, 1024)) // 90
	s.Tick()
	s.HandleMessage(movedPayload("bob", 1144, 1024)) // 120
	s.Tick()
	s.HandleMessage(movedPayload("bob", 1104, 1024)) // 80
	s.Tick()
	s.HandleMessage([]byte(`{"action":"player_left","playerId":"bob"}`))
	s.HandleMessage([]byte(`{"action":"player_joined","player":{"id":"bob","x":1050,"y":1024,"username":"bob","avatar":"knight"}}`))

	var got []string
	for _, ev := range l.events {
		got = append(got, ev.Kind.String())
	}
	want := []string{"greet", "farewell", "greet"}
	if !equalStrings(got, want) {
		t.Fatalf("events = %v, want %v", got, want)
	}

	snap := s.Metrics().Snapshot()
	if snap["greets"].(int64) != 2 || snap["farewells"].(int64) != 1 {
		t.Fatalf("metrics = %v", snap)
	}
}

func TestSessionDepartureLeavesNoTrace(t *testing.T) {
	s, _, _, _ := newTestSession(t)
	s.HandleMessage([]byte(joinPayload))
	s.HandleMessage(movedPayload("bob", 1050, 1024))
	s.HandleMessage([]byte(`{"action":"player_left","playerId":"bob"}`))

	if _, ok := s.Store().Player("bob"); ok {
		t.Fatal("bob still in registry")
	}
	if _, _, ok := s.Proximity().State("bob"); ok {
		t.Fatal("bob still has proximity state")
	}

	s.HandleMessage(movedPayload("bob", 2000, 2000))
	prox, greeted, ok := s.Proximity().State("bob")
	if !ok || prox != Far || greeted {
		t.Fatalf("fresh entry state = %v greeted=%v ok=%v", prox, greeted, ok)
	}
}

func TestSessionBadInputIsDroppedWithoutMutation(t *testing.T) {
	s, _, _, _ := newTestSession(t)
	s.HandleMessage([]byte(joinPayload))
	before := s.Store().Players()

	s.HandleMessage([]byte(`{"action":"players_moved"}`))
	s.HandleMessage([]byte(`{{{`))
	s.HandleMessage([]byte(`{"action":"emote","kind":"wave"}`))

	if after := s.Store().Players(); len(after) != len(before) || after["me"] != before["me"] {
		t.Fatalf("registry mutated by bad input")
	}
	snap := s.Metrics().Snapshot()
	if snap["malformed_dropped"].(int64) != 2 || snap["unknown_ignored"].(int64) != 1 || snap["messages_applied"].(int64) != 1 {
		t.Fatalf("metrics = %v", snap)
	}
}

func TestSessionJoinRejectedStaysUnjoined(t *testing.T) {
	s, _, _, _ := newTestSession(t)
	s.HandleMessage([]byte(`{"action":"join_game","success":false,"error":"server full"}`))
	if s.Joined() {
		t.Fatal("joined after rejection")
	}
}

func TestSessionAutoGreetSendsChat(t *testing.T) {
	s, sender, _, _ := newTestSession(t)
	s.cfg.AutoGreet = true
	s.HandleMessage([]byte(joinPayload))
	s.HandleMessage(movedPayload("bob", 1100, 1024))
	s.Tick()

	if got := sender.chats(); !equalStrings(got, []string{"Hi bob!"}) {
		t.Fatalf("chats = %v", got)
	}
}

func TestSessionOutboundCommands(t *testing.T) {
	s, sender, sched, _ := newTestSession(t)
	s.Join()
	s.HandleKey(KeyEvent{Key: DirUp, Pressed: true})
	sched.fire()
	s.HandleKey(KeyEvent{Key: DirUp, Pressed: false})
	s.Chat("hello")

	if _, ok := sender.sent[0].(JoinGameRequest); !ok {
		t.Fatalf("first command = %#v, want join", sender.sent[0])
	}
	if got := sender.moves(); !equalStrings(got, []string{"up", "up", "stop"}) {
		t.Fatalf("moves = %v", got)
	}
	if got := sender.chats(); !equalStrings(got, []string{"hello"}) {
		t.Fatalf("chats = %v", got)
	}

	sender.offline = true
	s.Chat("lost")
	snap := s.Metrics().Snapshot()
	if snap["commands_sent"].(int64) != 5 || snap["commands_discarded"].(int64) != 1 {
		t.Fatalf("metrics = %v", snap)
	}
}

func TestSessionTickRendersFrame(t *testing.T) {
	s, _, _, _ := newTestSession(t)
	r := &recordingRenderer{}
	s.SetRenderer(r)
	s.HandleMessage([]byte(joinPayload))
	s.Tick()

	if len(r.frames) != 1 {
		t.Fatalf("frames = %d", len(r.frames))
	}
	f := r.frames[0]
	if f.LocalID != "me" || len(f.Players) != 2 || len(f.Avatars) != 1 || !f.HasViewport {
		t.Fatalf("frame = %+v", f)
	}
}

func TestSessionRunLoopRetransmits(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MoveResendInterval = 5 * time.Millisecond
	sender := &fakeSender{}
	s := NewSession(cfg, sender, nil)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- s.Run(ctx) }()

	s.PostKey(KeyEvent{Key: DirRight, Pressed: true})

	deadline := time.Now().Add(2 * time.Second)
	for {
		var n int
		if err := s.Do(ctx, func() { n = len(sender.moves()) }); err != nil {
			t.Fatalf("do: %v", err)
		}
		if n >= 3 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("only %d move commands after 2s", n)
		}
		time.Sleep(5 * time.Millisecond)
	}

	s.PostKey(KeyEvent{Key: DirRight, Pressed: false})
	var moves []string
	if err := s.Do(ctx, func() { moves = sender.moves() }); err != nil {
		t.Fatalf("do: %v", err)
	}
	if moves[len(moves)-1] != "stop" {
		t.Fatalf("last move = %q, want stop", moves[len(moves)-1])
	}

	time.Sleep(30 * time.Millisecond)
	var after []string
	if err := s.Do(ctx, func() { after = sender.moves() }); err != nil {
		t.Fatalf("do: %v", err)
	}
	if len(after) != len(moves) {
		t.Fatalf("commands sent after stop: %v", after[len(moves):])
	}

	cancel()
	if err := <-errc; err != nil {
		t.Fatalf("run: %v", err)
	}
	if err := s.Do(context.Background(), func() {}); err != ErrSessionStopped {
		t.Fatalf("Do after stop = %v, want ErrSessionStopped", err)
	}
}
