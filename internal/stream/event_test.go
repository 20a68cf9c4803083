package stream

import (
	"strings"
	"testing"
)

func TestEvent_WriteSSE(t *testing.T) {
	tests := []struct {
		name string
		in   Event
		want string
	}{
		{"named", Event{Name: "position", Data: "1, 2, 3"}, "event: position\ndata: 1, 2, 3\n\n"},
		{"unnamed", Event{Data: "x"}, "data: x\n\n"},
		{"multiline", Event{Name: "changeworld", Data: "a\r\nb"}, "event: changeworld\ndata: a\ndata: b\n\n"},
		{"empty data", Event{Name: "ping"}, "event: ping\ndata: \n\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b strings.Builder
			if err := tt.in.WriteSSE(&b); err != nil {
				t.Fatalf("WriteSSE() error = %v", err)
			}
			if b.String() != tt.want {
				t.Errorf("WriteSSE() = %q, want %q", b.String(), tt.want)
			}
		})
	}
}
