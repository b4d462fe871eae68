// Package admin exposes the HTTP operational surface: health, stats, and a
// websocket feed of registry events for monitoring clients.
package admin

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/gabriel-milan/card-game-server/domain"
)

// Feed fans registry events out to websocket subscribers. Publish never
// blocks: a subscriber that cannot keep up has events dropped.
type Feed struct {
	mu   sync.Mutex
	subs map[*subscriber]bool
}

type subscriber struct {
	send chan []byte
}

func NewFeed() *Feed {
	return &Feed{subs: make(map[*subscriber]bool)}
}

// Publish implements domain.EventSink.
func (f *Feed) Publish(evt domain.Event) {
	data, err := json.Marshal(evt)
	if err != nil {
		slog.Error("encode event", "error", err)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for sub := range f.subs {
		select {
		case sub.send <- data:
		default:
		}
	}
}

func (f *Feed) register(sub *subscriber) {
	f.mu.Lock()
	f.subs[sub] = true
	count := len(f.subs)
	f.mu.Unlock()
	slog.Info("event subscriber connected", "subscribers", count)
}

func (f *Feed) unregister(sub *subscriber) {
	f.mu.Lock()
	if _, ok := f.subs[sub]; ok {
		delete(f.subs, sub)
		close(sub.send)
	}
	count := len(f.subs)
	f.mu.Unlock()
	slog.Info("event subscriber disconnected", "subscribers", count)
}

// Subscribers returns the current subscriber count.
func (f *Feed) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}
