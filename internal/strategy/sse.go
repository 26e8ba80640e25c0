package strategy

import (
	"bufio"
	"io"
	"strings"
)

// Event is one dispatched server-sent event.
type Event struct {
	Type string
	Data string
	ID   string
}

const maxEventLine = 1 << 20

// readEvents parses a text/event-stream body and calls fn for every
// dispatched event. It returns the first error from fn or from the reader;
// a clean end of stream returns nil.
func readEvents(r io.Reader, fn func(Event) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxEventLine)

	var (
		typ    string
		id     string
		data   []string
		queued bool
	)
	flush := func() error {
		if !queued {
			typ = ""
			return nil
		}
		ev := Event{Type: typ, Data: strings.Join(data, "\n"), ID: id}
		if ev.Type == "" {
			ev.Type = "message"
		}
		typ, data, queued = "", data[:0], false
		return fn(ev)
	}

	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			if err := flush(); err != nil {
				return err
			}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}
		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			typ = value
		case "data":
			data = append(data, value)
			queued = true
		case "id":
			if !strings.ContainsRune(value, 0) {
				id = value
			}
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	// An unterminated trailing event is discarded, as browsers do.
	return nil
}
