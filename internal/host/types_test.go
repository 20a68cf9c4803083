package host

import (
	"math"
	"testing"
)

func TestVec3_String(t *testing.T) {
	tests := []struct {
		v    Vec3
		want string
	}{
		{Vec3{}, "0, 0, 0"},
		{Vec3{X: 12.5, Y: 64, Z: -3.25}, "12.5, 64, -3.25"},
		{Vec3{X: 0.1, Y: 1e-7, Z: 100000000}, "0.1, 0.0000001, 100000000"},
	}
	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("%#v.String() = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestVec3_DistanceTo(t *testing.T) {
	tests := []struct {
		a, b Vec3
		want float64
	}{
		{Vec3{}, Vec3{}, 0},
		{Vec3{}, Vec3{Z: 1}, 1},
		{Vec3{X: 1, Y: 2, Z: 3}, Vec3{X: 4, Y: 6, Z: 3}, 5},
		{Vec3{X: -1}, Vec3{X: 1}, 2},
	}
	for _, tt := range tests {
		if got := tt.a.DistanceTo(tt.b); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("DistanceTo(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestWorldID_SameValueSameWorld(t *testing.T) {
	a := WorldID("minecraft:overworld")
	b := WorldID("minecraft:" + "overworld")
	if a != b {
		t.Error("WorldIDs with the same value must compare equal")
	}
}

func TestOperatorFunc(t *testing.T) {
	var got string
	var op Operator = OperatorFunc(func(msg string) { got = msg })
	op.Notify("started")
	if got != "started" {
		t.Errorf("Notify() delivered %q, want %q", got, "started")
	}
}
