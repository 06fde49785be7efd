package main

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The API is already wide open via CORS; the socket follows suit.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// liveHub pushes the global best program to every connected websocket client
// whenever it changes. One polling goroutine serves all clients.
type liveHub struct {
	cache *DBCache
	poll  time.Duration

	mu      sync.Mutex
	clients map[*websocket.Conn]bool
	last    BestUpdate
	hasLast bool
}

func newLiveHub(cache *DBCache, poll time.Duration) *liveHub {
	if poll <= 0 {
		poll = 2 * time.Second
	}
	return &liveHub{
		cache:   cache,
		poll:    poll,
		clients: make(map[*websocket.Conn]bool),
	}
}

// Run polls for best-score changes until the process exits.
func (h *liveHub) Run() {
	ticker := time.NewTicker(h.poll)
	defer ticker.Stop()

	for range ticker.C {
		h.mu.Lock()
		idle := len(h.clients) == 0
		h.mu.Unlock()
		if idle {
			continue
		}

		db, err := h.cache.Get()
		if err != nil {
			log.Printf("live: db unavailable: %v", err)
			continue
		}
		best, ok, err := queryGlobalBest(context.Background(), db)
		if err != nil {
			log.Printf("live: best query failed: %v", err)
			continue
		}
		if !ok {
			continue
		}

		h.mu.Lock()
		changed := !h.hasLast || best.BestScore > h.last.BestScore ||
			(best.BestScore == h.last.BestScore && best.Program != h.last.Program)
		if changed {
			h.last = best
			h.hasLast = true
			for conn := range h.clients {
				if err := conn.WriteJSON(best); err != nil {
					_ = conn.Close()
					delete(h.clients, conn)
				}
			}
		}
		h.mu.Unlock()
	}
}

// ServeHTTP upgrades the connection and registers it with the hub. The
// client receives the current best immediately, then every improvement.
func (h *liveHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("live: upgrade failed: %v", err)
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	if h.hasLast {
		if err := conn.WriteJSON(h.last); err != nil {
			_ = conn.Close()
			delete(h.clients, conn)
			h.mu.Unlock()
			return
		}
	}
	h.mu.Unlock()

	// Drain reads so pings and close frames get processed.
	go func() {
		defer func() {
			h.mu.Lock()
			delete(h.clients, conn)
			h.mu.Unlock()
			_ = conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
