// Package history records conversation turns into an external store.
//
// Persistence is the store's concern; the client only appends opaque
// (session, role, content) records as turns are sent and completed.
package history

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Role identifies the author of a record.
type Role string

const (
	// RoleUser marks prompt text sent by the caller.
	RoleUser Role = "user"
	// RoleAssistant marks the visible response text of a completed turn.
	RoleAssistant Role = "assistant"
)

// Record is one entry in a session's history.
type Record struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewRecord creates a record with a fresh ULID and the current time.
func NewRecord(sessionID string, role Role, content string) Record {
	return Record{
		ID:        ulid.Make().String(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

// Store accepts history records. Implementations must be safe for concurrent use.
type Store interface {
	Append(ctx context.Context, rec Record) error
}

// MemoryStore keeps records in memory, grouped by session.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string][]Record
}

// Compile-time verification that MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string][]Record, 4)}
}

// Append implements Store.
func (s *MemoryStore) Append(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[rec.SessionID] = append(s.records[rec.SessionID], rec)

	return nil
}

// Session returns a copy of the records for sessionID in append order.
func (s *MemoryStore) Session(sessionID string) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.records[sessionID])
}
