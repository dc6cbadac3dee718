package webhooks

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"routesolve/internal/store"
)

func TestWorkerProcessOnceSuccessAndSignature(t *testing.T) {
	var gotSig, gotType string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get("X-Signature")
		gotType = r.Header.Get("X-Event-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(200)
	}))
	defer srv.Close()

	mem := store.NewMemory()
	w := &Worker{Store: mem, HTTP: srv.Client(), Stop: make(chan struct{}), MaxAttempts: 3}
	body := []byte(`{"id":"evt1"}`)
	id, err := mem.EnqueueWebhook(context.Background(), "sub_1", "solve.completed", srv.URL, "secret", body)
	if err != nil || id == "" {
		t.Fatalf("enqueue failed: %v", err)
	}

	w.processOnce()

	if gotType != "solve.completed" {
		t.Fatalf("event type header = %q", gotType)
	}
	if !VerifyHMAC("secret", gotBody, gotSig) {
		t.Fatalf("signature %q does not verify", gotSig)
	}
	// Delivered items leave the due queue.
	due, _ := mem.FetchDueWebhookDeliveries(context.Background(), 10)
	if len(due) != 0 {
		t.Fatalf("expected empty queue after success, got %d", len(due))
	}
}

func TestWorkerRetriesWithBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	mem := store.NewMemory()
	w := &Worker{Store: mem, HTTP: srv.Client(), Stop: make(chan struct{}), MaxAttempts: 3}
	_, err := mem.EnqueueWebhook(context.Background(), "sub_1", "solve.completed", srv.URL, "", []byte(`{}`))
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	w.processOnce()

	// First failure schedules a retry in the future.
	due, _ := mem.FetchDueWebhookDeliveries(context.Background(), 10)
	if len(due) != 0 {
		t.Fatalf("failed delivery should be backed off, got %d due", len(due))
	}
}

func TestSignHMACRoundTrip(t *testing.T) {
	body := []byte(`{"hello":"world"}`)
	sig := SignHMAC("s3cret", body)
	if !VerifyHMAC("s3cret", body, sig) {
		t.Fatal("signature should verify with the same secret")
	}
	if VerifyHMAC("other", body, sig) {
		t.Fatal("signature must not verify with a different secret")
	}
	if VerifyHMAC("s3cret", body, "zz-not-hex") {
		t.Fatal("non-hex signatures must not verify")
	}
}

func TestNextBackoffGrowsAndCaps(t *testing.T) {
	if nextBackoff(0) != time.Second {
		t.Fatalf("attempt 0 backoff = %v", nextBackoff(0))
	}
	if nextBackoff(3) != 8*time.Second {
		t.Fatalf("attempt 3 backoff = %v", nextBackoff(3))
	}
	if nextBackoff(100) > time.Hour {
		t.Fatalf("backoff must cap at an hour, got %v", nextBackoff(100))
	}
}
