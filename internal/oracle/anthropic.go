package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/reviewd/internal/config"
)

// ErrAPIKeyRequired is returned when no Anthropic API key is configured.
var ErrAPIKeyRequired = errors.New("anthropic API key required")

const tracerName = "github.com/fyrsmithlabs/reviewd/internal/oracle"

// AnthropicClient implements Client against the Anthropic Messages API.
// Responses are returned as raw JSON; schema validation happens in the
// typed decision helpers, not here.
type AnthropicClient struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
	limiter   *rate.Limiter
}

// NewAnthropicClient builds a client from oracle config. The configured
// key takes precedence; config loading already falls back to the
// ANTHROPIC_API_KEY environment variable.
func NewAnthropicClient(cfg config.OracleConfig) (*AnthropicClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: set oracle.api_key or ANTHROPIC_API_KEY", ErrAPIKeyRequired)
	}

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}

	return &AnthropicClient{
		client:    anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:     anthropic.Model(cfg.Model),
		maxTokens: int64(cfg.MaxTokens),
		limiter:   rate.NewLimiter(rate.Limit(rps), 1),
	}, nil
}

// Decide sends one phase decision request and returns the model's JSON
// payload. Transport and API failures come back as errors for the retry
// layer; no retrying happens here.
func (a *AnthropicClient) Decide(ctx context.Context, req Request) (json.RawMessage, error) {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "oracle.decide")
	defer span.End()
	span.SetAttributes(
		attribute.String("oracle.model", string(a.model)),
		attribute.String("oracle.phase", req.Phase),
	)

	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	prompt := buildPrompt(req)
	message, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: a.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.Int64("oracle.input_tokens", message.Usage.InputTokens),
		attribute.Int64("oracle.output_tokens", message.Usage.OutputTokens),
	)

	if len(message.Content) == 0 {
		return nil, fmt.Errorf("%w: empty response", ErrMalformedDecision)
	}
	content := message.Content[0]
	if content.Type != "text" {
		return nil, fmt.Errorf("%w: response is not a text block (type=%s)", ErrMalformedDecision, content.Type)
	}

	return json.RawMessage(extractJSON(content.Text)), nil
}

// extractJSON strips markdown code fences the model sometimes wraps
// around its JSON output.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	if after, ok := strings.CutPrefix(text, "```json"); ok {
		text = after
	} else if after, ok := strings.CutPrefix(text, "```"); ok {
		text = after
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

func buildPrompt(req Request) string {
	var b strings.Builder
	b.WriteString("You are the decision engine for an automated security review. ")
	b.WriteString("Respond with a single JSON object and nothing else.\n\n")
	fmt.Fprintf(&b, "Current phase: %s\n\n", req.Phase)
	if len(req.Context) > 0 {
		b.WriteString("Context:\n")
		b.Write(req.Context)
		b.WriteString("\n\n")
	}
	if req.Instructions != "" {
		b.WriteString(req.Instructions)
		b.WriteString("\n")
	}
	return b.String()
}

// IsRetryableTransport reports whether a transport-level error is worth
// retrying: timeouts, rate limits, and server-side failures.
func IsRetryableTransport(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}
	return false
}
