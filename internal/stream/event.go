package stream

import (
	"io"
	"strings"
)

// Event names.
const (
	EventPosition    = "position"
	EventChangeWorld = "changeworld"
)

// Event is one named message delivered to every subscriber.
type Event struct {
	Name string
	Data string
}

// WriteSSE writes e in text/event-stream framing. Multi-line data is
// split across several data fields.
func (e Event) WriteSSE(w io.Writer) error {
	var b strings.Builder
	if e.Name != "" {
		b.WriteString("event: ")
		b.WriteString(e.Name)
		b.WriteByte('\n')
	}
	for _, line := range strings.Split(e.Data, "\n") {
		b.WriteString("data: ")
		b.WriteString(strings.TrimSuffix(line, "\r"))
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	_, err := io.WriteString(w, b.String())
	return err
}
