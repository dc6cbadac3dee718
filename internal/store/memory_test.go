package store

import (
	"context"
	"testing"
	"time"

	"routesolve/internal/model"
)

func TestMemorySolutionRoundTrip(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	saved, err := m.SaveSolution(ctx, model.SolveResult{SelectedAlgorithm: "clarke-wright"})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.ID == "" || saved.CreatedAt == "" {
		t.Fatalf("expected generated id and timestamp, got %+v", saved)
	}

	got, err := m.GetSolution(ctx, saved.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.SelectedAlgorithm != "clarke-wright" {
		t.Fatalf("got %q", got.SelectedAlgorithm)
	}

	if _, err := m.GetSolution(ctx, "missing"); err != ErrNotFound {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestMemoryListSolutionsPagination(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if _, err := m.SaveSolution(ctx, model.SolveResult{SelectedAlgorithm: "x"}); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	page1, next, err := m.ListSolutions(ctx, "", 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page1) != 2 || next == "" {
		t.Fatalf("page1 len=%d next=%q", len(page1), next)
	}

	page2, next2, err := m.ListSolutions(ctx, next, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page2) != 3 || next2 != "" {
		t.Fatalf("page2 len=%d next=%q", len(page2), next2)
	}
}

func TestMemorySubscriptionsAndEventMatch(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_, err := m.CreateSubscription(ctx, model.SubscriptionRequest{URL: "http://a", Events: []string{"solve.completed"}, Secret: "s"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	wildcard, err := m.CreateSubscription(ctx, model.SubscriptionRequest{URL: "http://b", Events: []string{"*"}, Secret: "s"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	subs, err := m.GetSubscriptionsForEvent(ctx, "solve.completed")
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if len(subs) != 2 {
		t.Fatalf("want 2 subscriptions, got %d", len(subs))
	}

	subs, _ = m.GetSubscriptionsForEvent(ctx, "solve.started")
	if len(subs) != 1 || subs[0].ID != wildcard.ID {
		t.Fatalf("wildcard only, got %+v", subs)
	}

	if err := m.DeleteSubscription(ctx, wildcard.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := m.DeleteSubscription(ctx, wildcard.ID); err != ErrNotFound {
		t.Fatalf("double delete: want ErrNotFound, got %v", err)
	}
}

func TestMemoryWebhookQueueLifecycle(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	id, err := m.EnqueueWebhook(ctx, "sub_1", "solve.completed", "http://x", "secret", []byte(`{}`))
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	due, err := m.FetchDueWebhookDeliveries(ctx, 10)
	if err != nil || len(due) != 1 {
		t.Fatalf("due=%v err=%v", due, err)
	}

	// Retry pushes the delivery into the future, out of the due set.
	later := time.Now().Add(time.Hour)
	if err := m.MarkWebhookDelivery(ctx, id, false, &later, "timeout", 0); err != nil {
		t.Fatalf("mark retry: %v", err)
	}
	due, _ = m.FetchDueWebhookDeliveries(ctx, 10)
	if len(due) != 0 {
		t.Fatalf("retried delivery should not be due, got %d", len(due))
	}

	if err := m.MarkWebhookDelivery(ctx, id, true, nil, "", 200); err != nil {
		t.Fatalf("mark success: %v", err)
	}
	if err := m.MarkWebhookDelivery(ctx, "missing", true, nil, "", 200); err != ErrNotFound {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}
