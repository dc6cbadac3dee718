package api

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestRedisBrokerRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)

	b, err := NewRedisBroker("redis://" + mr.Addr())
	if err != nil {
		t.Fatalf("broker: %v", err)
	}

	ch := b.Subscribe("sol_42")
	defer b.Unsubscribe("sol_42", ch)

	evt := SolveEvent{Type: "solve.completed", Data: map[string]any{"solutionId": "sol_42"}}
	b.Publish("sol_42", evt)

	select {
	case got := <-ch:
		if got.Type != "solve.completed" {
			t.Fatalf("got type %q", got.Type)
		}
		if got.Data["solutionId"] != "sol_42" {
			t.Fatalf("bad payload: %+v", got.Data)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for pub/sub delivery")
	}
}

func TestRedisBrokerBadURL(t *testing.T) {
	if _, err := NewRedisBroker("not-a-url"); err == nil {
		t.Fatal("expected parse error")
	}
}
