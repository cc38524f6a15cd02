package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/goccy/go-json"
	"github.com/kingball/kingball/pkg/config"
	"github.com/kingball/kingball/pkg/game"
	"github.com/kingball/kingball/pkg/king"
	"github.com/kingball/kingball/pkg/logger"
	"github.com/kingball/kingball/pkg/mesh"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

const dt = 1.0 / 60

type frame struct {
	peer    string
	t       string
	payload any
}

// testNet joins rooms at once with the given number of users.
type testNet struct {
	h      mesh.Handlers
	users  int
	frames []frame
}

func (n *testNet) Connect(context.Context) error { n.h.OnConnected("me"); return nil }
func (n *testNet) Disconnect()                   { _ = n.LeaveRoom() }
func (n *testNet) JoinRoom(room string) error    { n.h.OnRoomJoined(room, n.users); return nil }
func (n *testNet) LeaveRoom() error              { n.h.OnRoomLeft("lobby"); return nil }

func (n *testNet) Broadcast(t string, payload any) int {
	n.frames = append(n.frames, frame{t: t, payload: payload})
	return 1
}

func (n *testNet) Send(peer string, t string, payload any) error {
	n.frames = append(n.frames, frame{peer: peer, t: t, payload: payload})
	return nil
}

func (n *testNet) count(t string) (c int) {
	for _, f := range n.frames {
		if f.t == t {
			c++
		}
	}
	return
}

func testGame() config.Game {
	return config.Game{TickRate: 60, WinningScore: 60, PushCooldown: 4 * time.Second, JumpCooldown: time.Second}
}

func newTestSession(t *testing.T, in Input, users int) (*Session, *testNet) {
	t.Helper()
	return newTestSessionWith(t, testGame(), in, users)
}

func newTestSessionWith(t *testing.T, conf config.Game, in Input, users int) (*Session, *testNet) {
	t.Helper()
	net := &testNet{users: users}
	s := New(conf, func(h mesh.Handlers) Network { net.h = h; return net }, in, nil, nil, logger.Nop())
	clock := time.Unix(1700000000, 0)
	s.now = func() time.Time { return clock }
	if err := s.Connect(context.Background(), "lobby", "neo"); err != nil {
		t.Fatal(err)
	}
	s.Frame(dt)
	return s, net
}

func peerFrame(t *testing.T, m game.Message) mesh.Frame {
	t.Helper()
	typ, payload := game.Encode(m)
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	return mesh.Frame{Type: typ, Payload: raw}
}

func TestEnterRoom(t *testing.T) {
	s, net := newTestSession(t, Still, 1)

	st := s.Status()
	if st.State != Playing || st.Id != "me" || st.Room != "lobby" || st.Users != 1 {
		t.Errorf("status %+v", st)
	}
	players := s.Players()
	if len(players) != 1 || players[0].Id != "me" || players[0].Nickname != "neo" || !players[0].IsHost {
		t.Errorf("players %+v", players)
	}
	if net.count(game.TypePlayerState) != 1 {
		t.Errorf("no snapshot on join: %+v", net.frames)
	}
}

func TestNotHostWithOthers(t *testing.T) {
	s, _ := newTestSession(t, Still, 3)
	if s.Players()[0].IsHost {
		t.Errorf("host in a room of 3")
	}
}

func TestKingScores(t *testing.T) {
	s, net := newTestSession(t, Still, 1)
	for i := 0; i < 60; i++ {
		s.Frame(dt)
	}
	me := s.Players()[0]
	if !me.IsKing {
		t.Fatalf("alone in the zone should be the king")
	}
	if me.Score < 0.9 || me.Score > 1.1 {
		t.Errorf("score %v after a second", me.Score)
	}
	if net.count(game.TypePlayerStateUpdate) == 0 {
		t.Errorf("no updates sent")
	}

	// a second ball in the zone
	b := game.NewPlayer("b", "bob")
	b.Position = mgl64.Vec3{1.5, 1.1, 0}
	net.h.OnData("b", peerFrame(t, game.PlayerStateMsg{State: b, Seq: 1}))
	s.Frame(dt)
	score := s.Players()[0].Score
	for i := 0; i < 30; i++ {
		s.Frame(dt)
	}
	me = s.Players()[0]
	if me.IsKing || me.Score != score {
		t.Errorf("contested zone: king %v score %v -> %v", me.IsKing, score, me.Score)
	}
	if !s.world.Has("b") {
		t.Errorf("no body for the remote player")
	}
}

func TestKingRuleDecidesWinner(t *testing.T) {
	conf := testGame()
	conf.WinningScore = 0.5
	s, _ := newTestSessionWith(t, conf, Still, 1)
	for i := 0; i < 45 && s.Winner() == ""; i++ {
		s.Frame(dt)
	}
	if s.Winner() != "me" {
		t.Errorf("winner %q with a goal of %v", s.Winner(), conf.WinningScore)
	}
	if s.rules.State() != king.SingleOccupant {
		t.Errorf("zone state %v", s.rules.State())
	}
}

func TestPhysicsStepsCounted(t *testing.T) {
	s, _ := newTestSession(t, Still, 1)
	before := testutil.ToFloat64(s.metrics.steps)
	s.Frame(3.5 * dt)
	if n := testutil.ToFloat64(s.metrics.steps) - before; n != 3 {
		t.Errorf("%v physics steps for three and a half ticks", n)
	}
}

func TestRemoteUpdates(t *testing.T) {
	s, net := newTestSession(t, Still, 2)
	b := game.NewPlayer("b", "bob")
	b.Position = mgl64.Vec3{8, 1, 8}
	net.h.OnData("b", peerFrame(t, game.PlayerStateMsg{State: b, Seq: 1}))
	pos := mgl64.Vec3{9, 1, 9}
	net.h.OnData("b", peerFrame(t, game.PlayerStateUpdateMsg{Id: "b", Seq: 2, Position: &pos}))
	stolen := 99.0
	net.h.OnData("b", peerFrame(t, game.PlayerStateUpdateMsg{Id: "me", Seq: 3, Score: &stolen}))
	net.h.OnData("b", mesh.Frame{Type: "chat", Payload: []byte(`{}`)})
	s.Frame(dt)

	players := s.Players()
	if len(players) != 2 || players[1].Position != pos {
		t.Fatalf("players %+v", players)
	}
	if players[0].Score == stolen {
		t.Errorf("remote wrote the local score")
	}
	got, _ := s.world.Position("b")
	if got != pos {
		t.Errorf("remote body at %v", got)
	}

	net.h.OnPeerDisconnect("b")
	s.Frame(dt)
	if len(s.Players()) != 1 || s.world.Has("b") {
		t.Errorf("peer not removed")
	}
}

func TestPeerConnectSendsSnapshot(t *testing.T) {
	s, net := newTestSession(t, Still, 2)
	net.h.OnPeerConnect("b")
	s.Frame(dt)
	for _, f := range net.frames {
		if f.peer == "b" && f.t == game.TypePlayerState {
			return
		}
	}
	t.Errorf("no snapshot for the new peer: %+v", net.frames)
}

func TestThrottledSendKeepsKingFlag(t *testing.T) {
	conf := testGame()
	conf.SendRate = 1
	s, net := newTestSessionWith(t, conf, Still, 2)
	if me := s.Players()[0]; !me.IsKing {
		t.Fatalf("should be the king at the spawn point")
	}
	// a peer connects before the next send slot
	net.h.OnPeerConnect("b")
	for i := 0; i < 65; i++ {
		s.Frame(dt)
	}

	var king bool
	for _, f := range net.frames {
		if f.peer != "" || f.t != game.TypePlayerStateUpdate {
			continue
		}
		raw, err := json.Marshal(f.payload)
		if err != nil {
			t.Fatal(err)
		}
		m, err := game.Decode(f.t, raw)
		if err != nil {
			t.Fatal(err)
		}
		if u := m.(game.PlayerStateUpdateMsg); u.IsKing != nil && *u.IsKing {
			king = true
		}
	}
	if !king {
		t.Errorf("king flag never broadcast: %+v", net.frames)
	}
}

func TestRemotePush(t *testing.T) {
	s, net := newTestSession(t, Still, 2)
	me, _ := s.world.Position("me")
	net.h.OnData("b", peerFrame(t, game.PushAbilityUsedMsg{
		PlayerId:  "b",
		Position:  me.Add(mgl64.Vec3{0, 0, 1}),
		Direction: mgl64.Vec3{0, 0, -1},
	}))
	s.Frame(dt)
	v, _ := s.world.Velocity("me")
	if v.Z() > -1 {
		t.Errorf("push did not move the ball, velocity %v", v)
	}
}

func TestLocalPush(t *testing.T) {
	push := InputFunc(func(game.PlayerState, []game.PlayerState) Intent { return Intent{Push: true} })
	s, net := newTestSession(t, push, 2)
	s.Frame(dt)
	s.Frame(dt)
	if n := net.count(game.TypePushAbilityUsed); n != 1 {
		t.Errorf("%v pushes during the cooldown", n)
	}
	clock := s.now().Add(4 * time.Second)
	s.now = func() time.Time { return clock }
	s.Frame(dt)
	if n := net.count(game.TypePushAbilityUsed); n != 2 {
		t.Errorf("%v pushes after the cooldown", n)
	}
}

func TestDisconnected(t *testing.T) {
	s, net := newTestSession(t, Still, 1)
	net.h.OnDisconnected(errors.New("socket closed"))
	s.Frame(dt)
	if st := s.Status(); st.State != Disconnected || st.Error != "socket closed" {
		t.Errorf("status %+v", st)
	}

	s.Disconnect()
	s.Frame(dt)
	if s.world != nil || len(s.Players()) != 0 {
		t.Errorf("world kept after leaving")
	}
}

func TestJump(t *testing.T) {
	s, _ := newTestSession(t, Still, 1)
	now := s.now()
	c := controller{jumpCooldown: time.Second}

	s.world.SetPosition("me", mgl64.Vec3{6, 3, 6})
	if c.move(s.world, "me", Intent{Jump: true}, dt, now) {
		t.Errorf("jumped in the air")
	}
	s.world.SetPosition("me", mgl64.Vec3{6, 0.5, 6})
	if c.move(s.world, "me", Intent{Jump: true}, dt, now.Add(time.Second/2)) {
		t.Errorf("jumped during the cooldown")
	}
	if !c.move(s.world, "me", Intent{Jump: true}, dt, now.Add(time.Second)) {
		t.Errorf("no jump from the floor")
	}
}

func TestMove(t *testing.T) {
	s, _ := newTestSession(t, Still, 1)
	c := controller{}
	before, _ := s.world.Velocity("me")
	c.move(s.world, "me", Intent{Forward: true, Right: true}, dt, s.now())
	after, _ := s.world.Velocity("me")
	dv := after.Sub(before).Mul(5)
	want := mgl64.Vec3{MovementImpulse * dt, 0, -MovementImpulse * dt}
	if dv.Sub(want).Len() > 1e-9 {
		t.Errorf("impulse %v, want %v", dv, want)
	}
}

func TestBot(t *testing.T) {
	b := NewBot(1)
	self := game.NewPlayer("me", "bot")
	self.Position = mgl64.Vec3{5, 1, -5}
	in := b.Poll(self, nil)
	if !in.Left || !in.Backward || in.Push {
		t.Errorf("intent %+v", in)
	}
	other := game.NewPlayer("b", "b")
	other.Position = mgl64.Vec3{6, 1, -5}
	if in = b.Poll(self, []game.PlayerState{other}); !in.Push {
		t.Errorf("no push at close range")
	}
}
