// Package anthropic wraps the official SDK behind the small client surface
// the analysis pipeline needs, translating provider errors into the
// pipeline's retry taxonomy.
package anthropic

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"

	"github.com/stridescan/stridescan/internal/resilience"
)

// Client defines the remote analysis operations used by the pipeline.
type Client interface {
	CreateMessage(ctx context.Context, req MessageRequest) (*MessageResponse, error)
}

// MessageRequest is our own request type for CreateMessage.
type MessageRequest struct {
	Model     string
	MaxTokens int64
	System    string
	Messages  []Message
}

// Message represents a single conversational message.
type Message struct {
	Role    string // "user" or "assistant"
	Content string
}

// MessageResponse is our own response type from CreateMessage.
type MessageResponse struct {
	ID         string
	Model      string
	Content    []ContentBlock
	StopReason string
	Usage      TokenUsage
}

// ContentBlock represents a block of content in a response.
type ContentBlock struct {
	Type string
	Text string
}

// TokenUsage tracks token consumption.
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
}

// Text concatenates all text content blocks of a response.
func (r *MessageResponse) Text() string {
	if r == nil {
		return ""
	}
	var parts []string
	for _, block := range r.Content {
		if block.Text != "" {
			parts = append(parts, block.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// sdkClient implements Client using the official anthropic-sdk-go.
type sdkClient struct {
	client sdk.Client
}

// NewClient creates a new Anthropic client backed by the SDK.
func NewClient(apiKey string) Client {
	return &sdkClient{
		client: sdk.NewClient(
			option.WithAPIKey(apiKey),
			// The pipeline owns retry policy; the SDK must not add its own.
			option.WithMaxRetries(0),
		),
	}
}

func (c *sdkClient) CreateMessage(ctx context.Context, req MessageRequest) (*MessageResponse, error) {
	params := sdk.MessageNewParams{
		Model:     sdk.Model(req.Model),
		MaxTokens: req.MaxTokens,
		Messages:  toSDKMessages(req.Messages),
	}
	if req.System != "" {
		params.System = []sdk.TextBlockParam{{Text: req.System}}
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, classifyError(err)
	}

	return fromSDKMessage(msg), nil
}

// classifyError maps SDK failures onto the pipeline taxonomy: HTTP 429
// becomes a retryable RateLimitError carrying the server's wait hint, and
// everything else propagates with its original status and detail.
func classifyError(err error) error {
	var apierr *sdk.Error
	if !errors.As(err, &apierr) {
		return eris.Wrap(err, "anthropic: create message")
	}

	if apierr.StatusCode == 429 {
		rle := resilience.NewRateLimitError(err, apierr.StatusCode)
		if rle.RetryAfter == 0 && apierr.Response != nil {
			if secs, parseErr := strconv.Atoi(apierr.Response.Header.Get("Retry-After")); parseErr == nil && secs > 0 {
				rle.RetryAfter = time.Duration(secs) * time.Second
			}
		}
		return rle
	}

	return eris.Wrapf(err, "anthropic: create message (status %d)", apierr.StatusCode)
}

func toSDKMessages(msgs []Message) []sdk.MessageParam {
	out := make([]sdk.MessageParam, len(msgs))
	for i, m := range msgs {
		block := sdk.NewTextBlock(m.Content)
		switch m.Role {
		case "assistant":
			out[i] = sdk.NewAssistantMessage(block)
		default:
			out[i] = sdk.NewUserMessage(block)
		}
	}
	return out
}

func fromSDKMessage(msg *sdk.Message) *MessageResponse {
	blocks := make([]ContentBlock, 0, len(msg.Content))
	for _, b := range msg.Content {
		blocks = append(blocks, ContentBlock{
			Type: b.Type,
			Text: b.Text,
		})
	}

	return &MessageResponse{
		ID:         msg.ID,
		Model:      string(msg.Model),
		Content:    blocks,
		StopReason: string(msg.StopReason),
		Usage: TokenUsage{
			InputTokens:  msg.Usage.InputTokens,
			OutputTokens: msg.Usage.OutputTokens,
		},
	}
}
