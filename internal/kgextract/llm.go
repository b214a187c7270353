package kgextract

import (
	"context"
	"errors"
	"net"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/tidwall/gjson"
)

// CompletionRequest is one call to the text-completion capability.
type CompletionRequest struct {
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int64
}

// Completion is the capability's reply, including token usage and timing for
// the run metrics.
type Completion struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
	Elapsed          time.Duration
}

// Completer is the text-completion capability boundary. Implementations fail
// with a generic error on network, quota, or malformed-response issues;
// stages catch that and substitute a deterministic heuristic.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (Completion, error)
}

type failureClass int

const (
	failureTimeout failureClass = iota
	failureRateLimit
	failureServer
	failureClient
)

const defaultMaxTokens = 4096

// AnthropicMessager is the slice of the Anthropic client the completer needs,
// kept narrow so tests can substitute a fake.
type AnthropicMessager interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// AnthropicCompleter implements Completer against the Anthropic Messages API.
type AnthropicCompleter struct {
	messages AnthropicMessager
}

type AnthropicClientCreator func(apiKey string) AnthropicMessager

func defaultAnthropicCreator(apiKey string) AnthropicMessager {
	c := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &c.Messages
}

var newAnthropicClient AnthropicClientCreator = defaultAnthropicCreator

func NewAnthropicCompleterFromEnv() (*AnthropicCompleter, error) {
	apiKey := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY"))
	if apiKey == "" {
		return nil, errors.New("ANTHROPIC_API_KEY not configured")
	}
	return &AnthropicCompleter{messages: newAnthropicClient(apiKey)}, nil
}

func (a *AnthropicCompleter) Complete(ctx context.Context, req CompletionRequest) (Completion, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	started := time.Now()
	resp, err := a.messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.ModelClaudeSonnet4_20250514,
		MaxTokens:   maxTokens,
		System:      []anthropic.TextBlockParam{{Text: req.System}},
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt))},
		Temperature: anthropic.Float(req.Temperature),
	})
	if err != nil {
		return Completion{Elapsed: time.Since(started)}, err
	}
	var sb strings.Builder
	for _, b := range resp.Content {
		if b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}
	return Completion{
		Text:             sb.String(),
		PromptTokens:     int(resp.Usage.InputTokens),
		CompletionTokens: int(resp.Usage.OutputTokens),
		Elapsed:          time.Since(started),
	}, nil
}

// CapabilityClient wraps a Completer with per-call retry, usage accounting,
// and a fixed system prompt. Each stage runner shares one client; the
// orchestrator drains accumulated usage into the run metrics after every
// stage. Calls are issued sequentially; the client is not safe for
// concurrent use and does not need to be.
type CapabilityClient struct {
	completer Completer
	system    string
	usage     StageUsage
}

func NewCapabilityClient(completer Completer, system string) *CapabilityClient {
	return &CapabilityClient{completer: completer, system: system}
}

// Complete issues one completion call, retrying transient transport failures
// up to two extra times with a short backoff. Usage counters accumulate
// across retries; a final failure increments the error counter.
func (c *CapabilityClient) Complete(ctx context.Context, prompt string, temperature float64) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		c.usage.Calls++
		comp, err := c.completer.Complete(ctx, CompletionRequest{
			System:      c.system,
			Prompt:      prompt,
			Temperature: temperature,
		})
		c.usage.PromptTokens += comp.PromptTokens
		c.usage.CompletionTokens += comp.CompletionTokens
		if err == nil {
			return strings.TrimSpace(comp.Text), nil
		}
		lastErr = err
		switch classifyTransportError(err) {
		case failureTimeout, failureRateLimit, failureServer:
			if attempt < 3 {
				time.Sleep(backoffDelay(attempt))
				continue
			}
		}
		break
	}
	c.usage.Errors++
	return "", lastErr
}

// Drain returns the usage accumulated since the last drain and resets the
// client-side counters. Run-level metrics only ever grow.
func (c *CapabilityClient) Drain() StageUsage {
	u := c.usage
	c.usage = StageUsage{}
	return u
}

func classifyTransportError(err error) failureClass {
	if errors.Is(err, context.DeadlineExceeded) {
		return failureTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return failureTimeout
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429"):
		return failureRateLimit
	case strings.Contains(msg, " 5") || strings.Contains(msg, "status code: 5") || strings.Contains(msg, "server error"):
		return failureServer
	case strings.Contains(msg, " 4") || strings.Contains(msg, "status code: 4"):
		return failureClient
	default:
		return failureServer
	}
}

func backoffDelay(attempt int) time.Duration {
	if attempt <= 1 {
		return 1 * time.Second
	}
	return 2 * time.Second
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		parts := strings.SplitN(s, "\n", 2)
		if len(parts) == 2 {
			s = parts[1]
		}
		s = strings.TrimPrefix(s, "json")
		s = strings.TrimSpace(strings.TrimSuffix(s, "```"))
	}
	return s
}

// ParseJSONArray extracts the first JSON array from raw completion text.
// Unparsable input yields an empty slice, never an error: callers treat empty
// as "no results".
func ParseJSONArray(raw string) []gjson.Result {
	raw = stripCodeFences(raw)
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start < 0 || end <= start {
		return nil
	}
	candidate := raw[start : end+1]
	if !gjson.Valid(candidate) {
		return nil
	}
	parsed := gjson.Parse(candidate)
	if !parsed.IsArray() {
		return nil
	}
	return parsed.Array()
}

var floatPattern = regexp.MustCompile(`[-+]?\d*\.\d+|\d+`)

// extractFloat pulls the first numeric value out of free-form text, clamped
// to [0,1]. Scoring replies are requested as one bare float per line but
// models occasionally decorate them.
func extractFloat(text string, fallback float64) float64 {
	m := floatPattern.FindString(text)
	if m == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return fallback
	}
	return clamp01(v)
}
