package websocket

import (
	"context"
	"testing"
	"time"
)

func TestHubDeliversEventsToWatchingClients(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	c := &Client{hub: h, send: make(chan []byte, 4)}
	h.register <- c

	deadline := time.After(time.Second)
	for h.ClientCount() != 1 {
		select {
		case <-deadline:
			t.Fatal("client never registered")
		case <-time.After(time.Millisecond):
		}
	}

	h.Publish(NewEvent(EventRunStarted, RunEventData{RunID: "ab12", Message: "run started"}))

	select {
	case msg := <-c.send:
		if len(msg) == 0 {
			t.Error("delivered event is empty")
		}
	case <-time.After(time.Second):
		t.Fatal("event never reached the client")
	}
}

func TestHubClosesClientsOnShutdown(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)

	c := &Client{hub: h, send: make(chan []byte, 4)}
	h.register <- c
	cancel()

	select {
	case _, ok := <-c.send:
		if ok {
			t.Error("expected the send channel closed, got a message")
		}
	case <-time.After(time.Second):
		t.Fatal("send channel never closed")
	}
}
