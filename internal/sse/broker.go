// Package sse streams live-reload notifications to preview pages.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// Event names sent to the browser.
const (
	TypeRebuilt = "site.rebuilt"
	TypeFailed  = "site.failed"
)

// retryMillis is how soon EventSource reconnects after the preview server
// restarts.
const retryMillis = 1000

type rebuilt struct {
	Snapshot string `json:"snapshot"`
	Pages    int    `json:"pages"`
}

type failed struct {
	Error string `json:"error"`
}

// Broker fans rebuild notifications out to connected pages.
//
// The client set is owned by the run loop. A failed rebuild is remembered
// until the next successful one so that a page opened in between still
// shows the error.
type Broker struct {
	keepAlive time.Duration

	memberCh chan membership
	frameCh  chan frame
	clients  atomic.Int64

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// membership adds or removes a client. done is closed once the loop has
// applied the change.
type membership struct {
	ch   chan []byte
	join bool
	done chan struct{}
}

type frame struct {
	data   []byte
	failed bool
}

// NewBroker creates a broker. Connected clients receive a comment line every
// keepAlive so idle proxies keep the stream open.
func NewBroker(keepAlive time.Duration) *Broker {
	if keepAlive <= 0 {
		keepAlive = 15 * time.Second
	}

	b := &Broker{
		keepAlive: keepAlive,
		memberCh:  make(chan membership),
		frameCh:   make(chan frame, 16),
		stopCh:    make(chan struct{}),
		stopped:   make(chan struct{}),
	}

	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	var lastFailure []byte

	send := func(ch chan []byte, raw []byte) {
		select {
		case ch <- raw:
		default:
			// Slow page; it reloads on the next event anyway.
		}
	}

	ticker := time.NewTicker(b.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			b.clients.Store(0)
			return

		case m := <-b.memberCh:
			switch _, known := clients[m.ch]; {
			case m.join:
				clients[m.ch] = struct{}{}
				if lastFailure != nil {
					send(m.ch, lastFailure)
				}
			case known:
				delete(clients, m.ch)
				close(m.ch)
			}
			b.clients.Store(int64(len(clients)))
			close(m.done)

		case f := <-b.frameCh:
			if f.failed {
				lastFailure = f.data
			} else {
				lastFailure = nil
			}
			for ch := range clients {
				send(ch, f.data)
			}

		case <-ticker.C:
			for ch := range clients {
				send(ch, []byte(": ping\n\n"))
			}
		}
	}
}

func encode(event string, v any) []byte {
	payload, err := json.Marshal(v)
	if err != nil {
		payload = []byte("{}")
	}
	return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event, payload))
}

// Close stops the broker loop and closes all client channels. It is safe to
// call more than once.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a new client and returns its channel.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 8)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	if !b.member(ch, true) {
		close(ch)
	}
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	b.member(ch, false)
}

// member hands a membership change to the loop and waits until it is
// applied. It returns false when the broker stopped first.
func (b *Broker) member(ch chan []byte, join bool) bool {
	m := membership{ch: ch, join: join, done: make(chan struct{})}
	select {
	case b.memberCh <- m:
	case <-b.stopped:
		return false
	}
	<-m.done
	return true
}

// ClientCount returns the number of connected pages.
func (b *Broker) ClientCount() int {
	return int(b.clients.Load())
}

func (b *Broker) publish(f frame) {
	if b.closed.Load() {
		return
	}
	select {
	case b.frameCh <- f:
	case <-b.stopped:
	}
}

// PublishRebuilt tells pages that a new site is on disk and clears any
// remembered failure.
func (b *Broker) PublishRebuilt(snapshot string, pages int) {
	b.publish(frame{data: encode(TypeRebuilt, rebuilt{Snapshot: snapshot, Pages: pages})})
}

// PublishFailed tells pages that the last rebuild failed. The previous site
// stays in place.
func (b *Broker) PublishFailed(err error) {
	b.publish(frame{data: encode(TypeFailed, failed{Error: err.Error()}), failed: true})
}

// ServeHTTP is the event stream handler (GET /_events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "retry: %d\n\n", retryMillis)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
