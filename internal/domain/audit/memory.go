package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	_ Recorder = (*Service)(nil)
	_ Recorder = (*Memory)(nil)
)

// Memory keeps events in process for the memory and sqlite store drivers.
type Memory struct {
	mu     sync.RWMutex
	events []Event
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Record(_ context.Context, actorID, action, entityType, entityID, requestID, ip string, before, after any) error {
	beforeJSON, afterJSON, err := marshalPair(before, after)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, Event{
		ID:         uuid.NewString(),
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		RequestID:  requestID,
		IP:         ip,
		CreatedAt:  time.Now().UTC(),
		Before:     beforeJSON,
		After:      afterJSON,
	})
	return nil
}

func (m *Memory) matching(filter Filter) []Event {
	out := make([]Event, 0)
	for i := len(m.events) - 1; i >= 0; i-- {
		evt := m.events[i]
		if filter.Action != "" && evt.Action != filter.Action {
			continue
		}
		if filter.EntityType != "" && evt.EntityType != filter.EntityType {
			continue
		}
		if filter.ActorUser != "" && evt.ActorID != filter.ActorUser {
			continue
		}
		out = append(out, evt)
	}
	return out
}

func (m *Memory) Count(_ context.Context, filter Filter) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.matching(filter)), nil
}

// List returns newest first, like the Postgres implementation.
func (m *Memory) List(_ context.Context, filter Filter, includeDetails bool, limit, offset int) ([]Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	events := m.matching(filter)
	if offset >= len(events) {
		return []Event{}, nil
	}
	events = events[offset:]
	if limit > 0 && limit < len(events) {
		events = events[:limit]
	}
	out := make([]Event, len(events))
	copy(out, events)
	if !includeDetails {
		for i := range out {
			out[i].Before = nil
			out[i].After = nil
		}
	}
	return out, nil
}
