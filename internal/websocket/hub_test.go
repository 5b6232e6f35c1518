package websocket

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

func testHubConfig() *HubConfig {
	return &HubConfig{
		BroadcastDetections:  true,
		BroadcastRequests:    true,
		BroadcastSystem:      true,
		BroadcastConnections: true,
	}
}

// addClient inserts a client directly, bypassing the connection upgrade.
func addClient(h *Hub, id string, buffer int) *Client {
	client := &Client{
		ID:          id,
		Send:        make(chan Event, buffer),
		ConnectedAt: time.Now(),
	}
	h.mu.Lock()
	h.clients[client] = true
	h.mu.Unlock()
	return client
}

func detectionEvent() Event {
	return Event{
		Type:      EventTypeDetection,
		Timestamp: time.Now(),
		Data:      DetectionEvent{Language: "pl", Confidence: 0.9, Method: "statistical"},
	}
}

func TestBroadcastConcurrentWithFullBuffers(t *testing.T) {
	h := NewHub(testHubConfig(), zap.NewNop())

	// Unbuffered send channels are full from the start, so every broadcast
	// path takes the removal branch while others are still iterating.
	var keep *Client
	for i := 0; i < 32; i++ {
		c := addClient(h, fmt.Sprintf("client-%d", i), 0)
		if keep == nil {
			keep = c
		}
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				h.broadcastEvent(detectionEvent())
			}
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				h.broadcastToOthers(detectionEvent(), keep)
			}
		}()
	}
	wg.Wait()

	stats := h.GetStats()
	if stats.ActiveConnections != 0 {
		t.Errorf("ActiveConnections = %d, want 0 after all buffers overflowed", stats.ActiveConnections)
	}
}

func TestBroadcastDeliversToSubscribers(t *testing.T) {
	h := NewHub(testHubConfig(), zap.NewNop())

	all := addClient(h, "all", 8)
	filtered := addClient(h, "filtered", 8)
	filtered.Subscription = &SubscriptionRequest{
		Events: []EventType{EventTypeDetection},
		Filter: &EventFilter{Languages: []string{"de"}},
	}

	h.broadcastEvent(detectionEvent())

	if len(all.Send) != 1 {
		t.Errorf("unfiltered client received %d events, want 1", len(all.Send))
	}
	if len(filtered.Send) != 0 {
		t.Errorf("language-filtered client received %d events, want 0", len(filtered.Send))
	}
}

func TestBroadcastEventRespectsConfig(t *testing.T) {
	cfg := testHubConfig()
	cfg.BroadcastRequests = false
	h := NewHub(cfg, zap.NewNop())

	h.BroadcastEvent(Event{Type: EventTypeRequestLog, Timestamp: time.Now()})
	if len(h.broadcast) != 0 {
		t.Error("request_log event queued despite broadcast_requests disabled")
	}

	h.BroadcastEvent(detectionEvent())
	if len(h.broadcast) != 1 {
		t.Error("detection event not queued with broadcast_detections enabled")
	}
}
