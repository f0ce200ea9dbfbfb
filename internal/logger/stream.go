package logger

import (
	"encoding/json"
	"sync"
)

const defaultStreamCapacity = 1000

// Broadcaster pushes messages out to connected WebSocket clients.
type Broadcaster interface {
	Broadcast(msgType string, payload interface{})
}

// Entry is a parsed log line, kept for the dashboard log viewer.
type Entry struct {
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level"`
	Component string         `json:"component,omitempty"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// Stream implements io.Writer. It parses zerolog JSON output into entries,
// keeps the most recent ones in a fixed-size ring and broadcasts each entry
// to the hub when one is attached.
type Stream struct {
	mu       sync.RWMutex
	hub      Broadcaster
	ring     []Entry
	next     int
	filled   bool
	capacity int
}

// NewStream creates a log stream with the given buffer capacity.
// The hub can be attached later with SetHub.
func NewStream(capacity int) *Stream {
	if capacity <= 0 {
		capacity = defaultStreamCapacity
	}
	return &Stream{
		ring:     make([]Entry, capacity),
		capacity: capacity,
	}
}

// SetHub attaches the WebSocket hub for live streaming.
func (s *Stream) SetHub(hub Broadcaster) {
	s.mu.Lock()
	s.hub = hub
	s.mu.Unlock()
}

// Write receives one JSON log line from zerolog. Malformed lines are
// dropped silently so logging never fails the caller.
func (s *Stream) Write(p []byte) (int, error) {
	entry, err := parseEntry(p)
	if err != nil {
		return len(p), nil
	}

	s.mu.Lock()
	s.ring[s.next] = entry
	s.next = (s.next + 1) % s.capacity
	if s.next == 0 {
		s.filled = true
	}
	hub := s.hub
	s.mu.Unlock()

	if hub != nil {
		hub.Broadcast("logs:entry", entry)
	}
	return len(p), nil
}

// Recent returns up to limit buffered entries, oldest first. A limit of
// zero or less returns everything buffered.
func (s *Stream) Recent(limit int) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Entry
	if s.filled {
		out = make([]Entry, 0, s.capacity)
		out = append(out, s.ring[s.next:]...)
		out = append(out, s.ring[:s.next]...)
	} else {
		out = append(out, s.ring[:s.next]...)
	}

	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

func parseEntry(data []byte) (Entry, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return Entry{}, err
	}

	entry := Entry{Fields: make(map[string]any)}
	if ts, ok := raw["time"].(string); ok {
		entry.Timestamp = ts
		delete(raw, "time")
	}
	if level, ok := raw["level"].(string); ok {
		entry.Level = level
		delete(raw, "level")
	}
	if component, ok := raw["component"].(string); ok {
		entry.Component = component
		delete(raw, "component")
	}
	if msg, ok := raw["message"].(string); ok {
		entry.Message = msg
		delete(raw, "message")
	}
	for k, v := range raw {
		entry.Fields[k] = v
	}
	return entry, nil
}
