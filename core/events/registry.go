package events

import (
	"context"
	"fmt"
	"sync"

	"go-meeting-sync/core/logger"

	"github.com/google/uuid"
)

type Name string

// Lifecycle events fired by the meeting, transcript and file modules.
const (
	MeetingCreated     Name = "meeting_created"
	MeetingUpdated     Name = "meeting_updated"
	MeetingDeleted     Name = "meeting_deleted"
	TranscriptCreated  Name = "transcript_created"
	TranscriptUpdated  Name = "transcript_updated"
	MeetingFileCreated Name = "meeting_file_created"
	MeetingFileUpdated Name = "meeting_file_updated"
)

// Payload carries the id of the entity the event is about.
type Payload struct {
	Name     Name
	EntityID uuid.UUID
}

type Handler func(ctx context.Context, p Payload) error

// Publisher is the side other modules depend on.
type Publisher interface {
	Fire(ctx context.Context, name Name, entityID uuid.UUID) int
}

type registration struct {
	key     string
	handler Handler
}

// Registry maps event names to handlers. It is built once at startup and
// passed to the modules that fire or subscribe.
type Registry struct {
	mu       sync.RWMutex
	handlers map[Name][]registration
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[Name][]registration)}
}

// Register adds h under key. A second registration with the same key for
// the same event is ignored and reports false.
func (r *Registry) Register(name Name, key string, h Handler) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, reg := range r.handlers[name] {
		if reg.key == key {
			return false
		}
	}
	r.handlers[name] = append(r.handlers[name], registration{key: key, handler: h})
	return true
}

func (r *Registry) Handlers(name Name) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers[name])
}

// Fire runs every handler for name in registration order on the calling
// goroutine. Errors and panics are logged and never reach the caller; the
// number of failed handlers is returned.
func (r *Registry) Fire(ctx context.Context, name Name, entityID uuid.UUID) int {
	r.mu.RLock()
	regs := make([]registration, len(r.handlers[name]))
	copy(regs, r.handlers[name])
	r.mu.RUnlock()

	payload := Payload{Name: name, EntityID: entityID}
	failed := 0
	for _, reg := range regs {
		if err := invoke(ctx, reg.handler, payload); err != nil {
			failed++
			logger.Error("Events:Fire:HandlerError",
				"event", name,
				"handler", reg.key,
				"entity_id", entityID,
				"error", err,
			)
		}
	}
	return failed
}

func invoke(ctx context.Context, h Handler, p Payload) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("handler panic: %v", rec)
		}
	}()
	return h(ctx, p)
}
