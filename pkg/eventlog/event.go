// Package eventlog records changes made through a task.Store in an
// append-only, hash-chained log.
package eventlog

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"
	"time"

	"task-tracker/pkg/task"
)

// Event is a single entry in the change log.
type Event struct {
	ID        string    `json:"id"`        // UUID v7 (time-ordered)
	Type      string    `json:"type"`      // e.g. "task.created", "epic.cleared"
	Timestamp time.Time `json:"timestamp"` // when the change was recorded
	Kind      task.Kind `json:"kind"`
	EntityID  int       `json:"entity_id"` // 0 for bulk deletes
	Title     string    `json:"title,omitempty"`
	Hash      string    `json:"hash"`      // SHA-256 of canonical form
	PrevHash  string    `json:"prev_hash"` // hash chain link
}

// Log is the contract for change log storage. A limit of 0 or less means
// no limit.
type Log interface {
	Append(ctx context.Context, eventType string, kind task.Kind, entityID int, title string) (*Event, error)
	// Recent returns up to limit events, newest first.
	Recent(ctx context.Context, limit int) ([]Event, error)
	// Since returns up to limit events recorded after afterID, oldest first.
	// An unknown afterID yields every retained event.
	Since(ctx context.Context, afterID string, limit int) ([]Event, error)
	Count(ctx context.Context) (int, error)
	VerifyChain(ctx context.Context) error
}

// Change actions.
const (
	Created = "created"
	Updated = "updated"
	Deleted = "deleted"
	Cleared = "cleared"
)

// TypeOf builds an event type such as "subtask.deleted".
func TypeOf(kind task.Kind, action string) string {
	return strings.ToLower(string(kind)) + "." + action
}

// computeHash computes a SHA-256 hash for chain integrity.
func computeHash(prevHash, id, eventType string, kind task.Kind, entityID int, title string, timestamp time.Time) string {
	data := fmt.Sprintf("%s|%s|%s|%s|%d|%s|%d", prevHash, id, eventType, kind, entityID, title, timestamp.UnixNano())
	h := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", h)
}

// verify checks that events, oldest first, form an unbroken chain starting
// at prevHash.
func verify(prevHash string, events []Event) error {
	for i, e := range events {
		if e.PrevHash != prevHash {
			return fmt.Errorf("event %d (%s): prev_hash mismatch: got %s, want %s", i, e.ID, e.PrevHash, prevHash)
		}
		want := computeHash(prevHash, e.ID, e.Type, e.Kind, e.EntityID, e.Title, e.Timestamp)
		if e.Hash != want {
			return fmt.Errorf("event %d (%s): hash mismatch: got %s, want %s", i, e.ID, e.Hash, want)
		}
		prevHash = e.Hash
	}
	return nil
}
