package realtime

import (
	"encoding/json"
	"sync"

	"vod-catalog/domain/model"

	"github.com/gin-gonic/gin"
)

// SnapshotEvent is the SSE payload sent whenever the homepage snapshot changes.
type SnapshotEvent struct {
	Type        string `json:"type"`
	PagesLoaded int    `json:"pagesLoaded"`
	TotalCount  int    `json:"totalCount"`
	HasMore     bool   `json:"hasMore"`
}

// Hub fans snapshot events out to every connected stream.
type Hub struct {
	mu   sync.RWMutex
	subs map[chan SnapshotEvent]struct{}
}

func NewSnapshotHub() *Hub {
	return &Hub{subs: make(map[chan SnapshotEvent]struct{})}
}

// Serve streams snapshot events until the client disconnects.
func (h *Hub) Serve(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ch := h.Subscribe()
	defer h.Unsubscribe(ch)

	_, _ = c.Writer.Write([]byte(":ok\n\n"))
	c.Writer.Flush()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			data, _ := json.Marshal(evt)
			_, _ = c.Writer.Write([]byte("event: " + evt.Type + "\n"))
			_, _ = c.Writer.Write([]byte("data: "))
			_, _ = c.Writer.Write(data)
			_, _ = c.Writer.Write([]byte("\n\n"))
			c.Writer.Flush()
		}
	}
}

func (h *Hub) Subscribe() chan SnapshotEvent {
	ch := make(chan SnapshotEvent, 8)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *Hub) Unsubscribe(ch chan SnapshotEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[ch]; ok {
		delete(h.subs, ch)
		close(ch)
	}
}

func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// BroadcastSnapshot notifies every subscriber. Slow subscribers miss events instead of blocking.
func (h *Hub) BroadcastSnapshot(snap *model.PageResult) {
	if snap == nil {
		return
	}
	evt := SnapshotEvent{
		Type:        "snapshot_extended",
		PagesLoaded: snap.PagesLoaded,
		TotalCount:  snap.TotalCount,
		HasMore:     snap.HasMore,
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs {
		select {
		case ch <- evt:
		default:
		}
	}
}
