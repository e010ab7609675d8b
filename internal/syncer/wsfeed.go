package syncer

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"taxtrack/internal/service"

	"github.com/gorilla/websocket"
)

// pushEvent is the broadcast payload emitted by the server hub.
type pushEvent struct {
	Type   string                    `json:"type"`
	Record service.TaxRecordResponse `json:"record"`
}

// Feed consumes the server's websocket broadcast and forwards record-updated
// events into the coordinator, reconnecting with a fixed delay on failure.
// The coordinator treats pushed updates exactly like local writes, which is
// how edits from other actors converge into this client's caches.
type Feed struct {
	url         string
	token       string
	coordinator *Coordinator
	redial      time.Duration
}

func NewFeed(wsURL, token string, coordinator *Coordinator) *Feed {
	return &Feed{
		url:         wsURL,
		token:       token,
		coordinator: coordinator,
		redial:      5 * time.Second,
	}
}

// Run blocks until ctx is canceled, reading events and redialing as needed.
func (f *Feed) Run(ctx context.Context) error {
	for {
		if err := f.readLoop(ctx); err != nil {
			log.Printf("syncer: websocket feed: %v", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(f.redial):
		}
	}
}

func (f *Feed) readLoop(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, f.url+"?token="+f.token, nil)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	// Close the connection when ctx ends so ReadMessage unblocks.
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var event pushEvent
		if err := json.Unmarshal(message, &event); err != nil {
			log.Printf("syncer: discarding malformed push event: %v", err)
			continue
		}
		if event.Type != "record-updated" {
			continue
		}
		f.coordinator.OnRecordUpdated(event.Record)
	}
}
