package websocket

import (
	"encoding/json"
	"sync"

	"github.com/dom/task-manager/internal/domain"
	"github.com/rs/zerolog/log"
)

const publishBuffer = 256

// Hub fans task events out to the websocket connections of the task owner.
type Hub struct {
	clients    map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	publish    chan domain.TaskEvent
	stop       chan struct{}
	done       chan struct{} // closed when Run() exits
	stopped    bool
	stopOnce   sync.Once
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		publish:    make(chan domain.TaskEvent, publishBuffer),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.stop:
			h.mu.Lock()
			h.stopped = true
			for _, set := range h.clients {
				for client := range set {
					client.Close()
				}
			}
			h.clients = make(map[string]map[*Client]bool)
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if !h.stopped {
				set, ok := h.clients[client.userID]
				if !ok {
					set = make(map[*Client]bool)
					h.clients[client.userID] = set
				}
				set[client] = true
			}
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()

		case event := <-h.publish:
			h.deliver(event)
		}
	}
}

// remove must be called with h.mu held.
func (h *Hub) remove(client *Client) {
	set, ok := h.clients[client.userID]
	if !ok || !set[client] {
		return
	}
	delete(set, client)
	if len(set) == 0 {
		delete(h.clients, client.userID)
	}
	client.Close()
}

func (h *Hub) deliver(event domain.TaskEvent) {
	msg, err := NewMessage(MessageType(event.Type), event.Task)
	if err != nil {
		log.Error().Err(err).Str("task_id", event.Task.ID).Msg("Failed to build task event")
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("task_id", event.Task.ID).Msg("Failed to marshal task event")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients[event.Task.UserID] {
		if !client.trySend(data) {
			log.Warn().Str("user_id", client.userID).Msg("Dropping slow websocket client")
			h.remove(client)
		}
	}
}

// PublishTaskEvent queues an event for delivery. It never blocks the caller;
// when the queue is full the event is dropped.
func (h *Hub) PublishTaskEvent(event domain.TaskEvent) {
	h.mu.RLock()
	stopped := h.stopped
	h.mu.RUnlock()
	if stopped {
		return
	}

	select {
	case h.publish <- event:
	default:
		log.Warn().Str("task_id", event.Task.ID).Str("type", string(event.Type)).Msg("Task event queue full, dropping event")
	}
}

// Stop closes every connection and blocks until Run has returned.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
	<-h.done
}

// Register adds client to its user's set. A client registered after the hub
// has stopped is closed instead.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.Close()
	}
}

// Unregister safely unregisters a client, handling the case where the hub may be stopped.
func (h *Hub) Unregister(client *Client) {
	h.mu.RLock()
	stopped := h.stopped
	h.mu.RUnlock()

	if stopped {
		return
	}

	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// ClientCount reports how many connections userID currently holds.
func (h *Hub) ClientCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}
