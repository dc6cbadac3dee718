package store

import (
	"context"
	"errors"
	"time"

	"routesolve/internal/model"
)

// Store is the persistence interface used by the API server.
type Store interface {
	// Solutions
	SaveSolution(ctx context.Context, result model.SolveResult) (model.SolveResult, error)
	GetSolution(ctx context.Context, id string) (model.SolveResult, error)
	ListSolutions(ctx context.Context, cursor string, limit int) (items []model.SolveResult, nextCursor string, err error)

	// Webhook subscriptions
	CreateSubscription(ctx context.Context, req model.SubscriptionRequest) (model.Subscription, error)
	GetSubscriptionsForEvent(ctx context.Context, eventType string) ([]model.Subscription, error)
	DeleteSubscription(ctx context.Context, id string) error

	// Webhook delivery queue
	EnqueueWebhook(ctx context.Context, subscriptionID, eventType, url, secret string, payload []byte) (string, error)
	FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error)
	MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode int) error
}

// WebhookDelivery is one queued outbound notification.
type WebhookDelivery struct {
	ID             string
	SubscriptionID string
	EventType      string
	URL            string
	Secret         string
	Payload        []byte
	Attempts       int
}

var ErrNotFound = errors.New("not found")

// stampIDs fills generated ids on a result and its routes before persisting.
func stampIDs(result *model.SolveResult, newID func() string) {
	if result.ID == "" {
		result.ID = "sol_" + newID()
	}
	if result.CreatedAt == "" {
		result.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	for i := range result.Routes {
		if result.Routes[i].ID == "" {
			result.Routes[i].ID = "rt_" + newID()
		}
	}
	for ai := range result.AlgorithmResults {
		for i := range result.AlgorithmResults[ai].Routes {
			if result.AlgorithmResults[ai].Routes[i].ID == "" {
				result.AlgorithmResults[ai].Routes[i].ID = "rt_" + newID()
			}
		}
	}
}
