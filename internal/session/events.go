package session

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// EventType identifies the kind of session lifecycle event.
type EventType string

const (
	EventCreated   EventType = "session_created"
	EventExpired   EventType = "session_expired"
	EventEvicted   EventType = "session_evicted"
	EventDeleted   EventType = "session_deleted"
	EventNotebook  EventType = "notebook_generated"
	EventDownload  EventType = "notebook_downloaded"
	EventTokenFail EventType = "download_token_rejected"
)

// JournalFile is the journal's name inside the uploads directory.
const JournalFile = "sessions.jsonl"

// Event is a single timestamped entry in the session journal.
type Event struct {
	Timestamp time.Time      `json:"timestamp"`
	Type      EventType      `json:"type"`
	SessionID string         `json:"session_id"`
	Data      map[string]any `json:"data,omitempty"`
}

// NewEvent creates an event stamped with at.
func NewEvent(at time.Time, t EventType, sessionID string, data map[string]any) Event {
	return Event{
		Timestamp: at.UTC(),
		Type:      t,
		SessionID: sessionID,
		Data:      data,
	}
}

// NotebookData returns event data for a generated notebook.
func NotebookData(modelID, filename string, examples int) map[string]any {
	return map[string]any{
		"model_id": modelID,
		"filename": filename,
		"examples": examples,
	}
}

// EventSink receives lifecycle events from a Store.
type EventSink interface {
	Write(Event) error
}

// Discard is an EventSink that drops every event.
var Discard EventSink = discard{}

type discard struct{}

func (discard) Write(Event) error { return nil }

// Tally summarizes the events a Journal has written.
type Tally struct {
	Events map[EventType]int `json:"events"`
	// Notebooks counts generated notebooks per model ID.
	Notebooks map[string]int `json:"notebooks"`
}

func newTally() Tally {
	return Tally{Events: map[EventType]int{}, Notebooks: map[string]int{}}
}

func (t Tally) add(ev Event) {
	t.Events[ev.Type]++
	if ev.Type != EventNotebook {
		return
	}
	if id, ok := ev.Data["model_id"].(string); ok && id != "" {
		t.Notebooks[id]++
	}
}

// Models returns the model IDs with generated notebooks, most used first.
func (t Tally) Models() []string {
	out := make([]string, 0, len(t.Notebooks))
	for id := range t.Notebooks {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool {
		if t.Notebooks[out[i]] != t.Notebooks[out[j]] {
			return t.Notebooks[out[i]] > t.Notebooks[out[j]]
		}
		return out[i] < out[j]
	})
	return out
}

// Journal appends events to <dir>/sessions.jsonl, one JSON object per
// line, and keeps a running Tally. Restarts append to the same file.
type Journal struct {
	mu    sync.Mutex
	file  *os.File
	tally Tally
}

// OpenJournal opens the journal in dir, creating dir if needed.
func OpenJournal(dir string) (*Journal, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating journal directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, JournalFile), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening session journal: %w", err)
	}
	return &Journal{file: f, tally: newTally()}, nil
}

// Write appends ev as one line.
func (j *Journal) Write(ev Event) error {
	line, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", ev.Type, err)
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if _, err := j.file.Write(append(line, '\n')); err != nil {
		return err
	}
	j.tally.add(ev)
	return nil
}

// Tally returns a copy of the counts written since the journal was opened.
func (j *Journal) Tally() Tally {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := newTally()
	for k, v := range j.tally.Events {
		out.Events[k] = v
	}
	for k, v := range j.tally.Notebooks {
		out.Notebooks[k] = v
	}
	return out
}

// Path returns the journal file path.
func (j *Journal) Path() string { return j.file.Name() }

// Close closes the journal file.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.file.Close()
}

// ReadJournal replays a journal file. Lines for other sessions are skipped
// when sessionID is set.
func ReadJournal(path, sessionID string) ([]Event, Tally, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, Tally{}, err
	}
	tally := newTally()
	var events []Event
	dec := json.NewDecoder(bytes.NewReader(data))
	for dec.More() {
		var ev Event
		if err := dec.Decode(&ev); err != nil {
			return events, tally, fmt.Errorf("reading %s: %w", path, err)
		}
		if sessionID != "" && ev.SessionID != sessionID {
			continue
		}
		events = append(events, ev)
		tally.add(ev)
	}
	return events, tally, nil
}
