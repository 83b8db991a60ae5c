// Package hub fans progress lines out to connected viewers.
//
// The set of viewers is owned by the goroutine running Hub.Run. Every other
// goroutine talks to it through channels: Register, Unregister, Broadcast and
// Count are requests handled one at a time on that goroutine, so the set
// needs no lock. Lines sent by one producer are delivered in the order they
// were sent; lines from different producers may interleave.
//
// Delivery is best-effort and at-most-once. When a viewer's queue is full the
// line is dropped for that viewer only and the viewer stays registered.
// Viewers leave only through Unregister.
package hub

import (
	"context"
	"fmt"
	"log"
)

const (
	DefaultViewerBuffer    = 64
	DefaultBroadcastBuffer = 256
)

// Viewer is the hub-side handle of one connected client.
type Viewer struct {
	ID      string
	Channel chan string
}

// Messages is closed once the viewer is unregistered.
func (v *Viewer) Messages() <-chan string {
	return v.Channel
}

// BroadcastError reports a line that could not be queued for a viewer.
type BroadcastError struct {
	ViewerID string
}

func (e *BroadcastError) Error() string {
	return fmt.Sprintf("viewer %s is not keeping up, message dropped", e.ViewerID)
}

type Hub struct {
	viewers      map[*Viewer]struct{}
	viewerBuffer int

	register   chan *Viewer
	unregister chan *Viewer
	broadcast  chan string
	count      chan chan int
	done       chan struct{}
}

func New() *Hub {
	return NewWithBuffers(DefaultViewerBuffer, DefaultBroadcastBuffer)
}

func NewWithBuffers(viewerBuffer, broadcastBuffer int) *Hub {
	if viewerBuffer < 1 {
		viewerBuffer = 1
	}
	if broadcastBuffer < 0 {
		broadcastBuffer = 0
	}
	return &Hub{
		viewers:      make(map[*Viewer]struct{}),
		viewerBuffer: viewerBuffer,
		register:     make(chan *Viewer),
		unregister:   make(chan *Viewer),
		broadcast:    make(chan string, broadcastBuffer),
		count:        make(chan chan int),
		done:         make(chan struct{}),
	}
}

// NewViewer builds a viewer with the hub's queue size. It is not registered.
func (h *Hub) NewViewer(id string) *Viewer {
	return &Viewer{ID: id, Channel: make(chan string, h.viewerBuffer)}
}

// Run owns the viewer set until ctx is done. On exit every remaining viewer
// channel is closed.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		for v := range h.viewers {
			close(v.Channel)
			delete(h.viewers, v)
		}
		close(h.done)
		log.Println("[Hub] stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case v := <-h.register:
			h.viewers[v] = struct{}{}
			log.Printf("[Hub] registered viewer %s (%d active)", v.ID, len(h.viewers))
		case v := <-h.unregister:
			if _, ok := h.viewers[v]; ok {
				close(v.Channel)
				delete(h.viewers, v)
				log.Printf("[Hub] unregistered viewer %s (%d active)", v.ID, len(h.viewers))
			}
		case msg := <-h.broadcast:
			h.fanOut(msg)
		case reply := <-h.count:
			reply <- len(h.viewers)
		}
	}
}

func (h *Hub) fanOut(msg string) {
	for v := range h.viewers {
		select {
		case v.Channel <- msg:
		default:
			log.Printf("[Hub] %v", &BroadcastError{ViewerID: v.ID})
		}
	}
}

// Register adds v to the viewer set. It returns false if the hub stopped.
func (h *Hub) Register(v *Viewer) bool {
	select {
	case h.register <- v:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes v and closes its channel. Unknown viewers are ignored.
func (h *Hub) Unregister(v *Viewer) {
	select {
	case h.unregister <- v:
	case <-h.done:
	}
}

// Broadcast queues msg for every registered viewer. Safe from any goroutine;
// returns immediately once the hub has stopped.
func (h *Hub) Broadcast(msg string) {
	select {
	case h.broadcast <- msg:
	case <-h.done:
	}
}

// Count returns the number of registered viewers, 0 once the hub stopped.
func (h *Hub) Count() int {
	reply := make(chan int, 1)
	select {
	case h.count <- reply:
	case <-h.done:
		return 0
	}
	select {
	case n := <-reply:
		return n
	case <-h.done:
		return 0
	}
}
