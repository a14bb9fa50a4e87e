package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/cenkalti/backoff/v4"

	"github.com/fyrsmithlabs/reviewd/internal/config"
)

// RetryPolicy bounds oracle retries for one phase. Zero MaxRetries
// means a single attempt.
type RetryPolicy struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// PolicyFromConfig builds the per-phase retry policy from config.
func PolicyFromConfig(cfg config.OracleConfig) RetryPolicy {
	return RetryPolicy{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff.Duration(),
		MaxBackoff:     cfg.MaxBackoff.Duration(),
	}
}

// SingleAttempt is the policy for per-todo delegation decisions: a
// failed oracle call there degrades to a failed SubagentResult, so no
// retries are spent on it.
func SingleAttempt() RetryPolicy {
	return RetryPolicy{MaxRetries: 0, InitialBackoff: time.Second, MaxBackoff: time.Second}
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialBackoff
	b.MaxInterval = p.MaxBackoff
	b.MaxElapsedTime = 0 // bounded by retry count, not wall clock
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(p.MaxRetries)), ctx)
}

// decide calls the oracle and decodes into a freshly validated decision
// via decode. Transport errors and malformed payloads are both retried
// up to the policy bound; context cancellation stops retries immediately.
func decide(ctx context.Context, c Client, req Request, policy RetryPolicy, decode func(json.RawMessage) error) error {
	op := func() error {
		raw, err := c.Decide(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			var apiErr *anthropic.Error
			if errors.As(err, &apiErr) && !IsRetryableTransport(err) {
				return backoff.Permanent(fmt.Errorf("%w: %v", ErrUnavailable, err))
			}
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return decode(raw)
	}
	if err := backoff.Retry(op, policy.backOff(ctx)); err != nil {
		return fmt.Errorf("oracle decision for phase %s: %w", req.Phase, err)
	}
	return nil
}

// PlanTodos asks the oracle for the initial todo set.
func PlanTodos(ctx context.Context, c Client, req Request, policy RetryPolicy) (*PlanDecision, error) {
	var result *PlanDecision
	err := decide(ctx, c, req, policy, func(raw json.RawMessage) error {
		var d PlanDecision
		if err := json.Unmarshal(raw, &d); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedDecision, err)
		}
		if err := d.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedDecision, err)
		}
		result = &d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// PlanDelegation asks the oracle how to dispatch one todo.
func PlanDelegation(ctx context.Context, c Client, req Request, policy RetryPolicy) (*DelegationDecision, error) {
	var result *DelegationDecision
	err := decide(ctx, c, req, policy, func(raw json.RawMessage) error {
		var d DelegationDecision
		if err := json.Unmarshal(raw, &d); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedDecision, err)
		}
		if err := d.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedDecision, err)
		}
		result = &d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Evaluate asks the oracle for final triage and the terminal verdict.
func Evaluate(ctx context.Context, c Client, req Request, policy RetryPolicy) (*EvaluationDecision, error) {
	var result *EvaluationDecision
	err := decide(ctx, c, req, policy, func(raw json.RawMessage) error {
		var d EvaluationDecision
		if err := json.Unmarshal(raw, &d); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedDecision, err)
		}
		if err := d.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedDecision, err)
		}
		result = &d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// IsRecoverable reports whether the error is a recoverable oracle
// failure (unavailable backend or malformed decision) as opposed to a
// cancellation.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrUnavailable) || errors.Is(err, ErrMalformedDecision)
}
