package services

import (
	"sync"
	"sync/atomic"
	"time"
)

const (
	EventProjectCreated     = "project.created"
	EventProjectUpdated     = "project.updated"
	EventProjectDeleted     = "project.deleted"
	EventScreenshotsChanged = "project.screenshots"
	EventReviewCreated      = "review.created"
	EventProfileColor       = "profile.color"
)

const sseClientBuffer = 64

// CatalogEvent tells connected clients that page data changed and should
// be fetched again.
type CatalogEvent struct {
	Type      string    `json:"type"`
	ProjectID string    `json:"project_id,omitempty"`
	UserID    string    `json:"user_id,omitempty"`
	At        time.Time `json:"at"`
}

type sseClient struct {
	events    chan CatalogEvent
	projectID string
}

// wants reports whether the client cares about ev. A client watching one
// project still receives events that are not tied to a project, since a
// color change repaints every page.
func (s *sseClient) wants(ev CatalogEvent) bool {
	return s.projectID == "" || ev.ProjectID == "" || ev.ProjectID == s.projectID
}

// SSEHub fans catalog events out to connected browsers.
type SSEHub struct {
	mu      sync.RWMutex
	clients map[string]*sseClient
	dropped atomic.Uint64
}

func NewSSEHub() *SSEHub {
	return &SSEHub{clients: make(map[string]*sseClient)}
}

// Subscribe registers clientID. An empty projectID follows the whole
// catalog; otherwise only that project's events are delivered.
// Subscribing an ID twice replaces the earlier channel.
func (h *SSEHub) Subscribe(clientID, projectID string) <-chan CatalogEvent {
	h.mu.Lock()
	defer h.mu.Unlock()

	if old, ok := h.clients[clientID]; ok {
		close(old.events)
	}
	c := &sseClient{events: make(chan CatalogEvent, sseClientBuffer), projectID: projectID}
	h.clients[clientID] = c
	return c.events
}

func (h *SSEHub) Unsubscribe(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c, ok := h.clients[clientID]; ok {
		close(c.events)
		delete(h.clients, clientID)
	}
}

// Publish never blocks: a client whose buffer is full misses the event.
func (h *SSEHub) Publish(ev CatalogEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.clients {
		if !c.wants(ev) {
			continue
		}
		select {
		case c.events <- ev:
		default:
			h.dropped.Add(1)
		}
	}
}

// Notify stamps and broadcasts a change.
func (h *SSEHub) Notify(eventType, projectID, userID string) {
	h.Publish(CatalogEvent{
		Type:      eventType,
		ProjectID: projectID,
		UserID:    userID,
		At:        time.Now(),
	})
}

func (h *SSEHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Dropped is the number of deliveries skipped because of full buffers.
func (h *SSEHub) Dropped() uint64 {
	return h.dropped.Load()
}

// CloseAll disconnects every client.
func (h *SSEHub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, c := range h.clients {
		close(c.events)
		delete(h.clients, id)
	}
}
