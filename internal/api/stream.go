package api

import (
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/example/ec-pickup-shop/internal/session"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// StreamChat upgrades to a websocket and writes the order's full transcript
// as a JSON array each time it changes
func (h *Handlers) StreamChat(w http.ResponseWriter, r *http.Request) {
	orderID := param(r, "id")

	// Resolve the order before upgrading so a missing order is a plain 404
	feed, err := h.queryHandler.SubscribeTranscript(r.Context(), session.FromContext(r.Context()), orderID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	defer feed.Close()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[API] Websocket upgrade failed for order %s: %v", orderID, err)
		return
	}
	defer conn.Close()

	// The client sends nothing; reading only detects close and handles pongs
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return
		case messages, ok := <-feed.C():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteJSON(messages); err != nil {
				log.Printf("[API] Websocket write failed for order %s: %v", orderID, err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, origin := range allowed {
		if origin == "*" {
			return func(*http.Request) bool { return true }
		}
		set[origin] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if set[origin] {
			return true
		}
		// Same-origin requests are always allowed
		u, err := url.Parse(origin)
		return err == nil && u.Host == r.Host
	}
}
