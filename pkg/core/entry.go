// Package core holds the encyclopedia domain: entries, the storage port and
// the service that applies wiki rules on top of it.
package core

import "time"

// Metadata represents the frontmatter key-value pairs stored with an entry.
type Metadata map[string]any

// Entry is a titled Markdown document.
//
// Key is the canonical storage key derived from Title (see Key). Two titles
// that differ only in case or punctuation share a key and therefore an entry.
type Entry struct {
	Key      string
	Title    string
	Content  string
	Metadata Metadata
	ModTime  time.Time
}

// EventType represents the type of change observed in the entries directory.
type EventType string

const (
	EventCreate EventType = "CREATE"
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"
)

// Event represents a change to a single entry.
type Event struct {
	Type      EventType
	Key       string
	Timestamp int64 // Unix timestamp
}

// String implements fmt.Stringer.
func (e Event) String() string {
	return string(e.Type) + " " + e.Key
}
