// Package sse pushes server-sent events to connected issuedb dashboards.
// The web UI subscribes to /events and refreshes whenever a mutation or a
// database file change is announced.
package sse

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// WriteTimeout bounds a single client write so one stale connection
// cannot stall a broadcast.
const WriteTimeout = 2 * time.Second

// Event is the payload pushed to dashboard clients.
type Event struct {
	Type    string `json:"type"`
	IssueID int64  `json:"issue_id,omitempty"`
}

// Client is one subscribed dashboard connection.
type Client struct {
	Writer  http.ResponseWriter
	Flusher http.Flusher
	Done    chan struct{}
	ID      string

	closeOnce sync.Once
}

// Broadcaster fans events out to every connected client.
type Broadcaster struct {
	clients map[string]*Client
	mu      sync.RWMutex
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{clients: make(map[string]*Client)}
}

// AddClient registers a subscriber. The writer must support flushing.
func (b *Broadcaster) AddClient(w http.ResponseWriter) (*Client, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	c := &Client{
		ID:      uuid.NewString(),
		Writer:  w,
		Flusher: flusher,
		Done:    make(chan struct{}),
	}

	b.mu.Lock()
	b.clients[c.ID] = c
	n := len(b.clients)
	b.mu.Unlock()

	log.Debug().Str("client", c.ID).Int("clients", n).Msg("Dashboard connected")
	return c, nil
}

// RemoveClient drops a subscriber and closes its Done channel. Calling
// it for an already removed client is harmless.
func (b *Broadcaster) RemoveClient(c *Client) {
	b.mu.Lock()
	delete(b.clients, c.ID)
	n := len(b.clients)
	b.mu.Unlock()

	closeDone(c)
	log.Debug().Str("client", c.ID).Int("clients", n).Msg("Dashboard disconnected")
}

// drop removes a client found dead during a broadcast.
func (b *Broadcaster) drop(id string) {
	b.mu.Lock()
	c, ok := b.clients[id]
	if ok {
		delete(b.clients, id)
	}
	b.mu.Unlock()

	if ok {
		closeDone(c)
	}
}

func closeDone(c *Client) {
	c.closeOnce.Do(func() { close(c.Done) })
}

// ClientCount returns the number of connected clients.
func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// Broadcast pushes an event to every client. Each write runs in its own
// goroutine with a deadline; clients that fail or time out are dropped.
func (b *Broadcaster) Broadcast(event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("type", event.Type).Msg("Failed to marshal event")
		return
	}
	frame := "data: " + string(payload) + "\n\n"

	b.mu.RLock()
	targets := make([]*Client, 0, len(b.clients))
	for _, c := range b.clients {
		targets = append(targets, c)
	}
	b.mu.RUnlock()

	if len(targets) == 0 {
		return
	}

	dead := make(chan string, len(targets))
	var wg sync.WaitGroup
	for _, c := range targets {
		select {
		case <-c.Done:
			continue
		default:
		}
		wg.Add(1)
		go func(c *Client) {
			defer wg.Done()
			if !b.push(c, frame) {
				dead <- c.ID
			}
		}(c)
	}
	wg.Wait()
	close(dead)

	for id := range dead {
		b.drop(id)
	}
}

// push writes one frame to one client, bounded by WriteTimeout. Returns
// false when the client should be dropped.
func (b *Broadcaster) push(c *Client, frame string) bool {
	result := make(chan bool, 1)
	go func() {
		if _, err := c.Writer.Write([]byte(frame)); err != nil {
			log.Debug().Str("client", c.ID).Err(err).Msg("SSE write failed")
			result <- false
			return
		}
		c.Flusher.Flush()
		result <- true
	}()

	select {
	case ok := <-result:
		return ok
	case <-time.After(WriteTimeout):
		log.Warn().Str("client", c.ID).Msg("SSE write timed out")
		return false
	case <-c.Done:
		return true
	}
}

// HandleSSE serves one subscription until the request context ends.
func (b *Broadcaster) HandleSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	c, err := b.AddClient(w)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer b.RemoveClient(c)

	fmt.Fprintf(w, "data: {\"type\":\"connected\",\"clientId\":%q}\n\n", c.ID)
	c.Flusher.Flush()

	// Done also closes when a broadcast drops the client after a failed
	// or timed-out write, so the handler does not linger until the
	// connection itself dies.
	select {
	case <-r.Context().Done():
	case <-c.Done:
	}
}
