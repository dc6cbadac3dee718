package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(_ *http.Request) bool { return true }}

// StreamHandler handles GET /v1/solve/stream?solutionId=... and forwards
// solve events for that solution over a websocket until the client hangs
// up.
func (s *Server) StreamHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := s.getPrincipal(r); err != nil {
		writeProblem(w, http.StatusUnauthorized, "Unauthorized", "valid API key required", r.URL.Path)
		return
	}
	solveID := r.URL.Query().Get("solutionId")
	if solveID == "" {
		writeProblem(w, http.StatusBadRequest, "Missing solutionId", "", r.URL.Path)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()

	ch := s.Broker.Subscribe(solveID)
	defer s.Broker.Unsubscribe(solveID, ch)

	conn.SetReadLimit(1 << 16)
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	// Drain client frames so pongs and closes are processed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(20 * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-done:
			return
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		case evt, ok := <-ch:
			if !ok {
				return
			}
			if err := conn.WriteJSON(evt); err != nil {
				return
			}
		}
	}
}
