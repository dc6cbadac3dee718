package store

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"routesolve/internal/model"
)

// Memory is a simple in-memory store used when no DATABASE_URL is set.
type Memory struct {
	mu         sync.Mutex
	solutions  map[string]model.SolveResult
	order      []string // solution ids, insertion order
	subs       map[string]model.Subscription
	deliveries map[string]*memDelivery
}

// memDelivery augments WebhookDelivery with scheduling state.
type memDelivery struct {
	WebhookDelivery
	NextAttemptAt time.Time
	Delivered     bool
	Failed        bool
	LastError     string
	ResponseCode  int
}

func NewMemory() *Memory {
	return &Memory{
		solutions:  map[string]model.SolveResult{},
		subs:       map[string]model.Subscription{},
		deliveries: map[string]*memDelivery{},
	}
}

func (m *Memory) SaveSolution(_ context.Context, result model.SolveResult) (model.SolveResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stampIDs(&result, uuid.NewString)
	if _, exists := m.solutions[result.ID]; !exists {
		m.order = append(m.order, result.ID)
	}
	m.solutions[result.ID] = result
	return result, nil
}

func (m *Memory) GetSolution(_ context.Context, id string) (model.SolveResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res, ok := m.solutions[id]
	if !ok {
		return model.SolveResult{}, ErrNotFound
	}
	return res, nil
}

func (m *Memory) ListSolutions(_ context.Context, cursor string, limit int) ([]model.SolveResult, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	start := 0
	if cursor != "" {
		if n, err := strconv.Atoi(cursor); err == nil && n > 0 {
			start = n
		}
	}
	if start >= len(m.order) {
		return nil, "", nil
	}
	end := start + limit
	if end > len(m.order) {
		end = len(m.order)
	}
	items := make([]model.SolveResult, 0, end-start)
	for _, id := range m.order[start:end] {
		items = append(items, m.solutions[id])
	}
	next := ""
	if end < len(m.order) {
		next = strconv.Itoa(end)
	}
	return items, next, nil
}

func (m *Memory) CreateSubscription(_ context.Context, req model.SubscriptionRequest) (model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub := model.Subscription{
		ID:     "sub_" + uuid.NewString(),
		URL:    req.URL,
		Events: append([]string(nil), req.Events...),
		Secret: req.Secret,
	}
	m.subs[sub.ID] = sub
	return sub, nil
}

func (m *Memory) GetSubscriptionsForEvent(_ context.Context, eventType string) ([]model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Subscription
	for _, sub := range m.subs {
		for _, evt := range sub.Events {
			if evt == eventType || evt == "*" {
				out = append(out, sub)
				break
			}
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out, nil
}

func (m *Memory) DeleteSubscription(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subs[id]; !ok {
		return ErrNotFound
	}
	delete(m.subs, id)
	return nil
}

func (m *Memory) EnqueueWebhook(_ context.Context, subscriptionID, eventType, url, secret string, payload []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := "whd_" + uuid.NewString()
	m.deliveries[id] = &memDelivery{
		WebhookDelivery: WebhookDelivery{
			ID:             id,
			SubscriptionID: subscriptionID,
			EventType:      eventType,
			URL:            url,
			Secret:         secret,
			Payload:        append([]byte(nil), payload...),
		},
		NextAttemptAt: time.Now(),
	}
	return id, nil
}

func (m *Memory) FetchDueWebhookDeliveries(_ context.Context, limit int) ([]WebhookDelivery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 {
		limit = 10
	}
	now := time.Now()
	var due []WebhookDelivery
	for _, d := range m.deliveries {
		if d.Delivered || d.Failed || d.NextAttemptAt.After(now) {
			continue
		}
		due = append(due, d.WebhookDelivery)
		if len(due) >= limit {
			break
		}
	}
	return due, nil
}

func (m *Memory) MarkWebhookDelivery(_ context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.deliveries[id]
	if !ok {
		return ErrNotFound
	}
	d.Attempts++
	d.LastError = lastError
	d.ResponseCode = responseCode
	switch {
	case success:
		d.Delivered = true
	case nextAttemptAt != nil:
		d.NextAttemptAt = *nextAttemptAt
	default:
		d.Failed = true
	}
	return nil
}
