package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/reviewd/internal/review"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) Decide(ctx context.Context, req Request) (json.RawMessage, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func fastPolicy(retries int) RetryPolicy {
	return RetryPolicy{
		MaxRetries:     retries,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
	}
}

func TestPlanTodos(t *testing.T) {
	payload := json.RawMessage(`{
		"todos": [
			{"id": "td-1", "description": "audit auth middleware", "priority": "high", "risk": "auth"},
			{"id": "td-2", "description": "scan for hardcoded secrets", "priority": "medium", "risk": "secrets"}
		]
	}`)

	client := &mockClient{}
	client.On("Decide", mock.Anything, mock.Anything).Return(payload, nil).Once()

	got, err := PlanTodos(context.Background(), client, Request{Phase: "plan_todos"}, fastPolicy(0))
	require.NoError(t, err)
	require.Len(t, got.Todos, 2)
	assert.Equal(t, "td-1", got.Todos[0].ID)
	assert.Equal(t, review.PriorityHigh, got.Todos[0].Priority)
	client.AssertExpectations(t)
}

func TestPlanTodosRetriesMalformedDecision(t *testing.T) {
	client := &mockClient{}
	client.On("Decide", mock.Anything, mock.Anything).
		Return(json.RawMessage(`{"todos": []}`), nil).Once()
	client.On("Decide", mock.Anything, mock.Anything).
		Return(json.RawMessage(`{"todos": [{"id": "td-1", "description": "check tls config", "priority": "low", "risk": "config"}]}`), nil).Once()

	got, err := PlanTodos(context.Background(), client, Request{Phase: "plan_todos"}, fastPolicy(2))
	require.NoError(t, err)
	require.Len(t, got.Todos, 1)
	client.AssertExpectations(t)
}

func TestPlanTodosExhaustsRetries(t *testing.T) {
	client := &mockClient{}
	client.On("Decide", mock.Anything, mock.Anything).
		Return(nil, errors.New("connection refused")).Times(3)

	_, err := PlanTodos(context.Background(), client, Request{Phase: "plan_todos"}, fastPolicy(2))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.True(t, IsRecoverable(err))
	client.AssertExpectations(t)
}

func TestPlanTodosStopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	client := &mockClient{}
	client.On("Decide", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { cancel() }).
		Return(nil, context.Canceled).Once()

	_, err := PlanTodos(ctx, client, Request{Phase: "plan_todos"}, fastPolicy(5))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnavailable)
	client.AssertExpectations(t)
}

func TestPlanDelegation(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantErr bool
		check   func(t *testing.T, d *DelegationDecision)
	}{
		{
			name:    "delegated",
			payload: `{"delegate": true, "capability": "semgrep", "task": "scan handlers for injection"}`,
			check: func(t *testing.T, d *DelegationDecision) {
				assert.True(t, d.Delegate)
				assert.Equal(t, "semgrep", d.Capability)
			},
		},
		{
			name:    "inline resolution",
			payload: `{"delegate": false, "resolution": {"status": "deferred", "explanation": "out of scope"}}`,
			check: func(t *testing.T, d *DelegationDecision) {
				assert.False(t, d.Delegate)
				require.NotNil(t, d.Resolution)
				assert.Equal(t, review.StatusDeferred, d.Resolution.Status)
			},
		},
		{
			name:    "delegated without capability",
			payload: `{"delegate": true}`,
			wantErr: true,
		},
		{
			name:    "inline without resolution",
			payload: `{"delegate": false}`,
			wantErr: true,
		},
		{
			name:    "invalid resolution status",
			payload: `{"delegate": false, "resolution": {"status": "maybe"}}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &mockClient{}
			client.On("Decide", mock.Anything, mock.Anything).
				Return(json.RawMessage(tt.payload), nil).Once()

			got, err := PlanDelegation(context.Background(), client, Request{Phase: "act"}, fastPolicy(0))
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrMalformedDecision)
				return
			}
			require.NoError(t, err)
			tt.check(t, got)
		})
	}
}

func TestEvaluate(t *testing.T) {
	payload := json.RawMessage(`{
		"accept": true,
		"summary": "no critical issues remain",
		"severity_overrides": [
			{"location": "internal/auth/token.go:42", "category": "auth", "severity": "low"}
		]
	}`)

	client := &mockClient{}
	client.On("Decide", mock.Anything, mock.Anything).Return(payload, nil).Once()

	got, err := Evaluate(context.Background(), client, Request{Phase: "evaluate"}, fastPolicy(0))
	require.NoError(t, err)
	assert.True(t, got.Accept)
	require.Len(t, got.SeverityOverrides, 1)
	assert.Equal(t, review.SeverityLow, got.SeverityOverrides[0].Severity)
}

func TestEvaluateRejectsMissingSummary(t *testing.T) {
	client := &mockClient{}
	client.On("Decide", mock.Anything, mock.Anything).
		Return(json.RawMessage(`{"accept": false}`), nil).Once()

	_, err := Evaluate(context.Background(), client, Request{Phase: "evaluate"}, fastPolicy(0))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedDecision)
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare json", `{"a": 1}`, `{"a": 1}`},
		{"fenced json", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"fenced plain", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"surrounding whitespace", "  {\"a\": 1}\n", `{"a": 1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractJSON(tt.in))
		})
	}
}

func TestIsRecoverable(t *testing.T) {
	assert.True(t, IsRecoverable(ErrMalformedDecision))
	assert.True(t, IsRecoverable(ErrUnavailable))
	assert.False(t, IsRecoverable(context.Canceled))
	assert.False(t, IsRecoverable(nil))
}
