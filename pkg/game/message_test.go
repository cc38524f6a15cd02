package game

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/goccy/go-json"
)

func roundTrip(t *testing.T, m Message) Message {
	t.Helper()
	typ, payload := Encode(m)
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	out, err := Decode(typ, data)
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func TestPlayerStateRoundTrip(t *testing.T) {
	in := PlayerState{
		Id:           "a",
		Position:     mgl64.Vec3{1, 2, 3},
		Rotation:     mgl64.QuatRotate(0.5, mgl64.Vec3{0, 1, 0}),
		Color:        "#FF5733",
		Nickname:     "bob",
		IsHost:       true,
		Score:        12.5,
		IsKing:       true,
		LastPushTime: time.UnixMilli(1700000000000),
	}
	out, ok := roundTrip(t, PlayerStateMsg{State: in, Seq: 7}).(PlayerStateMsg)
	if !ok {
		t.Fatalf("wrong type")
	}
	got := out.State
	if got.Id != in.Id || got.Color != in.Color || got.Nickname != in.Nickname ||
		got.IsHost != in.IsHost || got.Score != in.Score || got.IsKing != in.IsKing || out.Seq != 7 {
		t.Errorf("scalars differ: %+v vs %+v", got, in)
	}
	if !got.Position.ApproxEqual(in.Position) || !got.Rotation.ApproxEqual(in.Rotation) {
		t.Errorf("vectors differ: %v %v vs %v %v", got.Position, got.Rotation, in.Position, in.Rotation)
	}
	if !got.LastPushTime.Equal(in.LastPushTime) {
		t.Errorf("push time %v != %v", got.LastPushTime, in.LastPushTime)
	}
}

func TestPlayerStateDefaults(t *testing.T) {
	m, err := Decode(TypePlayerState, []byte(`{"id":"x","position":{"x":1},"rotation":{"y":0}}`))
	if err != nil {
		t.Fatal(err)
	}
	s := m.(PlayerStateMsg).State
	if s.Position != (mgl64.Vec3{1, 0, 0}) {
		t.Errorf("position %v", s.Position)
	}
	if s.Rotation.W != 1 {
		t.Errorf("missing w should be 1, got %v", s.Rotation.W)
	}
	if s.Score != 0 || s.IsKing || !s.LastPushTime.IsZero() {
		t.Errorf("defaults are wrong: %+v", s)
	}
}

func TestUpdateOmitsAbsentFields(t *testing.T) {
	score := 3.0
	typ, payload := Encode(PlayerStateUpdateMsg{Id: "a", Seq: 1, Score: &score})
	if typ != TypePlayerStateUpdate {
		t.Errorf("type %v", typ)
	}
	data, _ := json.Marshal(payload)
	for _, field := range []string{"position", "rotation", "nickname", "isKing"} {
		if strings.Contains(string(data), field) {
			t.Errorf("%v should be omitted in %s", field, data)
		}
	}

	out := roundTrip(t, PlayerStateUpdateMsg{Id: "a", Score: &score}).(PlayerStateUpdateMsg)
	if out.Score == nil || *out.Score != 3 || out.Position != nil || out.IsKing != nil {
		t.Errorf("unexpected update %+v", out)
	}
	if out.Empty() {
		t.Errorf("update is not empty")
	}
}

func TestUpdateKeepsFalseAndZero(t *testing.T) {
	no, zero := false, 0.0
	out := roundTrip(t, PlayerStateUpdateMsg{Id: "a", IsKing: &no, Score: &zero}).(PlayerStateUpdateMsg)
	if out.IsKing == nil || *out.IsKing || out.Score == nil || *out.Score != 0 {
		t.Errorf("false and zero must survive: %+v", out)
	}
}

func TestPushRoundTrip(t *testing.T) {
	in := PushAbilityUsedMsg{PlayerId: "p", Position: mgl64.Vec3{1, 0, 2}, Direction: mgl64.Vec3{0, 0, -1}}
	if out := roundTrip(t, in).(PushAbilityUsedMsg); out != in {
		t.Errorf("%+v != %+v", out, in)
	}
}

func TestDecodeErrors(t *testing.T) {
	if _, err := Decode("chat", []byte(`{}`)); !errors.Is(err, ErrUnknownMessage) {
		t.Errorf("expected unknown message, got %v", err)
	}
	if _, err := Decode(TypePlayerState, []byte(`{"position":"x"}`)); err == nil {
		t.Errorf("expected decode error")
	}
}

func TestFacing(t *testing.T) {
	p := NewPlayer("a", "n")
	if !p.Facing().ApproxEqual(Forward) {
		t.Errorf("identity facing %v", p.Facing())
	}
	p.Rotation = mgl64.QuatRotate(mgl64.DegToRad(90), mgl64.Vec3{0, 1, 0})
	if p.Facing().Sub(mgl64.Vec3{-1, 0, 0}).Len() > 1e-9 {
		t.Errorf("rotated facing %v", p.Facing())
	}
}
