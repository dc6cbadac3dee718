package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"routesolve/internal/model"
)

type Postgres struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &Postgres{db: db}, nil
}

// Migrate creates the schema. Dev helper; production runs real migrations.
func (p *Postgres) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS solutions (
			id TEXT PRIMARY KEY,
			selected_algorithm TEXT NOT NULL,
			comparison_run BOOLEAN NOT NULL,
			body JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS subscriptions (
			id TEXT PRIMARY KEY,
			url TEXT NOT NULL,
			events TEXT NOT NULL,
			secret TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS webhook_deliveries (
			id TEXT PRIMARY KEY,
			subscription_id TEXT NOT NULL,
			event_type TEXT NOT NULL,
			url TEXT NOT NULL,
			secret TEXT NOT NULL,
			payload BYTEA NOT NULL,
			attempts INT NOT NULL DEFAULT 0,
			delivered BOOLEAN NOT NULL DEFAULT false,
			failed BOOLEAN NOT NULL DEFAULT false,
			last_error TEXT,
			response_code INT,
			next_attempt_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	}
	for _, s := range stmts {
		if _, err := p.db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

func (p *Postgres) SaveSolution(ctx context.Context, result model.SolveResult) (model.SolveResult, error) {
	stampIDs(&result, uuid.NewString)
	body, err := json.Marshal(result)
	if err != nil {
		return model.SolveResult{}, err
	}
	_, err = p.db.ExecContext(ctx,
		`INSERT INTO solutions (id, selected_algorithm, comparison_run, body)
		 VALUES ($1,$2,$3,$4)
		 ON CONFLICT (id) DO UPDATE SET selected_algorithm=$2, comparison_run=$3, body=$4`,
		result.ID, result.SelectedAlgorithm, result.ComparisonRun, body)
	if err != nil {
		return model.SolveResult{}, err
	}
	return result, nil
}

func (p *Postgres) GetSolution(ctx context.Context, id string) (model.SolveResult, error) {
	var body []byte
	err := p.db.QueryRowContext(ctx, `SELECT body FROM solutions WHERE id=$1`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return model.SolveResult{}, ErrNotFound
	}
	if err != nil {
		return model.SolveResult{}, err
	}
	var out model.SolveResult
	if err := json.Unmarshal(body, &out); err != nil {
		return model.SolveResult{}, err
	}
	return out, nil
}

func (p *Postgres) ListSolutions(ctx context.Context, cursor string, limit int) ([]model.SolveResult, string, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	q := `SELECT id, body FROM solutions`
	args := []any{}
	if cursor != "" {
		q += ` WHERE id > $1`
		args = append(args, cursor)
	}
	q += ` ORDER BY id LIMIT ` + strconv.Itoa(limit+1)

	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, "", err
	}
	defer func() { _ = rows.Close() }()

	var items []model.SolveResult
	var lastID string
	for rows.Next() {
		var id string
		var body []byte
		if err := rows.Scan(&id, &body); err != nil {
			return nil, "", err
		}
		var item model.SolveResult
		if err := json.Unmarshal(body, &item); err != nil {
			return nil, "", err
		}
		items = append(items, item)
		lastID = id
	}
	next := ""
	if len(items) > limit {
		items = items[:limit]
		next = lastID
	}
	return items, next, rows.Err()
}

func (p *Postgres) CreateSubscription(ctx context.Context, req model.SubscriptionRequest) (model.Subscription, error) {
	sub := model.Subscription{ID: "sub_" + uuid.NewString(), URL: req.URL, Events: req.Events, Secret: req.Secret}
	_, err := p.db.ExecContext(ctx, `INSERT INTO subscriptions (id, url, events, secret) VALUES ($1,$2,$3,$4)`,
		sub.ID, sub.URL, strings.Join(sub.Events, ","), sub.Secret)
	if err != nil {
		return model.Subscription{}, err
	}
	return sub, nil
}

func (p *Postgres) GetSubscriptionsForEvent(ctx context.Context, eventType string) ([]model.Subscription, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id, url, events, secret FROM subscriptions ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []model.Subscription
	for rows.Next() {
		var sub model.Subscription
		var events string
		if err := rows.Scan(&sub.ID, &sub.URL, &events, &sub.Secret); err != nil {
			return nil, err
		}
		sub.Events = strings.Split(events, ",")
		for _, evt := range sub.Events {
			if evt == eventType || evt == "*" {
				out = append(out, sub)
				break
			}
		}
	}
	return out, rows.Err()
}

func (p *Postgres) DeleteSubscription(ctx context.Context, id string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) EnqueueWebhook(ctx context.Context, subscriptionID, eventType, url, secret string, payload []byte) (string, error) {
	id := "whd_" + uuid.NewString()
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO webhook_deliveries (id, subscription_id, event_type, url, secret, payload) VALUES ($1,$2,$3,$4,$5,$6)`,
		id, subscriptionID, eventType, url, secret, payload)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (p *Postgres) FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, subscription_id, event_type, url, secret, payload, attempts
		 FROM webhook_deliveries
		 WHERE NOT delivered AND NOT failed AND next_attempt_at <= now()
		 ORDER BY next_attempt_at LIMIT `+strconv.Itoa(limit))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []WebhookDelivery
	for rows.Next() {
		var d WebhookDelivery
		if err := rows.Scan(&d.ID, &d.SubscriptionID, &d.EventType, &d.URL, &d.Secret, &d.Payload, &d.Attempts); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (p *Postgres) MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode int) error {
	if success {
		_, err := p.db.ExecContext(ctx,
			`UPDATE webhook_deliveries SET delivered=true, attempts=attempts+1, last_error=$2, response_code=$3 WHERE id=$1`,
			id, lastError, responseCode)
		return err
	}
	if nextAttemptAt != nil {
		_, err := p.db.ExecContext(ctx,
			`UPDATE webhook_deliveries SET attempts=attempts+1, last_error=$2, response_code=$3, next_attempt_at=$4 WHERE id=$1`,
			id, lastError, responseCode, *nextAttemptAt)
		return err
	}
	_, err := p.db.ExecContext(ctx,
		`UPDATE webhook_deliveries SET failed=true, attempts=attempts+1, last_error=$2, response_code=$3 WHERE id=$1`,
		id, lastError, responseCode)
	return err
}
