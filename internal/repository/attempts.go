package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_cart/sponsor-checkout/domain"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type AttemptStatus string

const (
	AttemptStatusSucceeded  AttemptStatus = "succeeded"
	AttemptStatusRedirected AttemptStatus = "redirected"
	AttemptStatusFailed     AttemptStatus = "failed"
)

const (
	EventCheckoutSucceeded  = "sponsorship.checkout.succeeded"
	EventCheckoutRedirected = "sponsorship.checkout.redirected"
)

// Attempt is one dispatch of a checkout session to a payment gateway.
type Attempt struct {
	ID                string
	CheckoutSessionID string
	OrganizerID       string
	PaymentMethod     domain.PaymentMethod
	Status            AttemptStatus
	SponsorshipIDs    []string
	Total             decimal.Decimal
	PaymentID         string
	Error             string
	IsTest            bool
	CreatedAt         time.Time
}

// CheckoutEvent is the outbox payload published for succeeded and redirected attempts.
type CheckoutEvent struct {
	AttemptID         string               `json:"attempt_id"`
	CheckoutSessionID string               `json:"checkout_session_id"`
	OrganizerID       string               `json:"organizer_id"`
	PaymentMethod     domain.PaymentMethod `json:"payment_method"`
	Status            AttemptStatus        `json:"status"`
	SponsorshipIDs    []string             `json:"sponsorship_ids"`
	Total             decimal.Decimal      `json:"total"`
	PaymentID         string               `json:"payment_id,omitempty"`
	IsTest            bool                 `json:"is_test"`
	OccurredAt        time.Time            `json:"occurred_at"`
}

func eventTypeFor(status AttemptStatus) (string, bool) {
	switch status {
	case AttemptStatusSucceeded:
		return EventCheckoutSucceeded, true
	case AttemptStatusRedirected:
		return EventCheckoutRedirected, true
	}
	return "", false
}

// RecordAttempt stores the attempt and, for succeeded or redirected ones, its outbox event in
// the same transaction.
func (r *Repository) RecordAttempt(ctx context.Context, attempt *Attempt) error {
	if attempt.ID == "" {
		attempt.ID = uuid.NewString()
	}
	if attempt.CreatedAt.IsZero() {
		attempt.CreatedAt = time.Now().UTC()
	}
	if attempt.SponsorshipIDs == nil {
		attempt.SponsorshipIDs = []string{}
	}
	idsJSON, err := json.Marshal(attempt.SponsorshipIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal sponsorship ids: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `INSERT INTO checkout_attempts (id, checkout_session_id, organizer_id, payment_method, status,
	          sponsorship_ids, total, payment_id, error, is_test, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err = tx.ExecContext(ctx, query,
		attempt.ID,
		attempt.CheckoutSessionID,
		attempt.OrganizerID,
		attempt.PaymentMethod,
		attempt.Status,
		idsJSON,
		attempt.Total,
		attempt.PaymentID,
		attempt.Error,
		attempt.IsTest,
		attempt.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateAttempt
		}
		return fmt.Errorf("insert checkout attempt: %w", err)
	}

	if eventType, ok := eventTypeFor(attempt.Status); ok {
		payload, err := json.Marshal(CheckoutEvent{
			AttemptID:         attempt.ID,
			CheckoutSessionID: attempt.CheckoutSessionID,
			OrganizerID:       attempt.OrganizerID,
			PaymentMethod:     attempt.PaymentMethod,
			Status:            attempt.Status,
			SponsorshipIDs:    attempt.SponsorshipIDs,
			Total:             attempt.Total,
			PaymentID:         attempt.PaymentID,
			IsTest:            attempt.IsTest,
			OccurredAt:        attempt.CreatedAt,
		})
		if err != nil {
			return fmt.Errorf("failed to marshal checkout event: %w", err)
		}
		outbox := `INSERT INTO outbox_events (aggregate_id, event_type, payload, created_at)
		           VALUES ($1, $2, $3, NOW())`
		if _, err := tx.ExecContext(ctx, outbox, attempt.CheckoutSessionID, eventType, payload); err != nil {
			return fmt.Errorf("insert outbox event: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit checkout attempt: %w", err)
	}
	return nil
}

const attemptColumns = `id, checkout_session_id, organizer_id, payment_method, status, sponsorship_ids,
	          total, payment_id, error, is_test, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAttempt(row rowScanner) (*Attempt, error) {
	var a Attempt
	var idsJSON []byte
	if err := row.Scan(
		&a.ID,
		&a.CheckoutSessionID,
		&a.OrganizerID,
		&a.PaymentMethod,
		&a.Status,
		&idsJSON,
		&a.Total,
		&a.PaymentID,
		&a.Error,
		&a.IsTest,
		&a.CreatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(idsJSON, &a.SponsorshipIDs); err != nil {
		return nil, fmt.Errorf("unmarshal sponsorship ids: %w", err)
	}
	return &a, nil
}

func (r *Repository) GetAttempt(ctx context.Context, id string) (*Attempt, error) {
	query := `SELECT ` + attemptColumns + ` FROM checkout_attempts WHERE id = $1`
	a, err := scanAttempt(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAttemptNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query checkout attempt: %w", err)
	}
	return a, nil
}

func (r *Repository) ListAttemptsBySession(ctx context.Context, checkoutSessionID string) ([]*Attempt, error) {
	query := `SELECT ` + attemptColumns + ` FROM checkout_attempts
	          WHERE checkout_session_id = $1 ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, query, checkoutSessionID)
	if err != nil {
		return nil, fmt.Errorf("query checkout attempts: %w", err)
	}
	defer rows.Close()

	var attempts []*Attempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan checkout attempt row: %w", err)
		}
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return attempts, nil
}
