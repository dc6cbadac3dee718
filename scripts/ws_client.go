// Package main runs a demo client: it submits a solve, then tails the
// solve event stream for the returned solution.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	base := fmt.Sprintf("http://localhost:%s", port)

	body := []byte(`{
		"mode": "compare",
		"locations": [
			{"id": "depot", "name": "Warehouse", "latitude": 22.7196, "longitude": 75.8577, "isDepot": true},
			{"id": "c1", "name": "Rajwada", "latitude": 22.7180, "longitude": 75.8550, "demand": 4},
			{"id": "c2", "name": "Palasia", "latitude": 22.7244, "longitude": 75.8839, "demand": 6},
			{"id": "c3", "name": "Vijay Nagar", "latitude": 22.7533, "longitude": 75.8937, "demand": 3}
		],
		"vehicles": [{"id": "tata-ace", "name": "Tata Ace", "capacity": 10, "count": 2}]
	}`)
	req, _ := http.NewRequest(http.MethodPost, base+"/v1/solve", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()
	var solveResp struct {
		ID                string `json:"id"`
		SelectedAlgorithm string `json:"selectedAlgorithm"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&solveResp); err != nil {
		log.Fatal(err)
	}
	log.Printf("Solution %s won by %s", solveResp.ID, solveResp.SelectedAlgorithm)

	u := url.URL{Scheme: "ws", Host: "localhost:" + port, Path: "/v1/solve/stream",
		RawQuery: "solutionId=" + solveResp.ID}
	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = c.Close() }()

	deadline := time.Now().Add(30 * time.Second)
	_ = c.SetReadDeadline(deadline)
	for time.Now().Before(deadline) {
		var evt map[string]any
		if err := c.ReadJSON(&evt); err != nil {
			log.Printf("stream closed: %v", err)
			return
		}
		log.Printf("event: %+v", evt)
	}
}
