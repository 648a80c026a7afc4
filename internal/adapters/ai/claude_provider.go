package ai

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"stockagents/pkg/errors"
)

// Ensure ClaudeProvider implements ChatProvider
var _ ChatProvider = (*ClaudeProvider)(nil)

// ClaudeProvider talks to the Anthropic Messages API.
type ClaudeProvider struct {
	baseProvider
	client anthropic.Client
}

// NewClaudeProvider creates a Claude provider.
func NewClaudeProvider(opts ProviderOptions) *ClaudeProvider {
	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(2),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}

	return &ClaudeProvider{
		baseProvider: newBaseProvider(ProviderNameAnthropic, claudeModels(), opts),
		client:       anthropic.NewClient(reqOpts...),
	}
}

// Chat sends one Messages API round.
func (p *ClaudeProvider) Chat(ctx context.Context, req ChatRequest) (resp *ChatResponse, err error) {
	callCtx, cancel, err := p.begin(ctx, req.Model)
	if err != nil {
		return nil, err
	}
	defer cancel()

	started := time.Now()
	defer func() {
		var usage Usage
		if resp != nil {
			usage = resp.Usage
		}
		p.finish(req.Model, usage, started, err)
	}()

	msg, err := p.client.Messages.New(callCtx, toAnthropicParams(req))
	if err != nil {
		return nil, errors.Wrapf(errors.ErrExternal, "anthropic messages: %v", err)
	}

	return fromAnthropicMessage(msg), nil
}

func toAnthropicParams(req ChatRequest) anthropic.MessageNewParams {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(req.Model),
		MaxTokens:   int64(maxTokens),
		Temperature: anthropic.Float(req.Temperature),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	// Consecutive tool results travel together in one user turn.
	var pendingResults []anthropic.ContentBlockParamUnion
	flush := func() {
		if len(pendingResults) > 0 {
			params.Messages = append(params.Messages, anthropic.NewUserMessage(pendingResults...))
			pendingResults = nil
		}
	}

	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleTool:
			pendingResults = append(pendingResults, anthropic.NewToolResultBlock(msg.ToolCallID, msg.Content, msg.IsError))
		case RoleUser:
			flush()
			params.Messages = append(params.Messages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		case RoleAssistant:
			flush()
			var blocks []anthropic.ContentBlockParamUnion
			if msg.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				input := json.RawMessage(tc.Arguments)
				if strings.TrimSpace(tc.Arguments) == "" {
					input = json.RawMessage("{}")
				}
				blocks = append(blocks, anthropic.NewToolUseBlock(tc.ID, input, tc.Name))
			}
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(blocks...))
		}
	}
	flush()

	for _, tool := range req.Tools {
		params.Tools = append(params.Tools, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        tool.Name,
				Description: anthropic.String(tool.Description),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: tool.Parameters["properties"],
					Required:   schemaRequired(tool.Parameters),
				},
			},
		})
	}

	return params
}

func fromAnthropicMessage(msg *anthropic.Message) *ChatResponse {
	out := Message{Role: RoleAssistant}
	var text strings.Builder

	for _, block := range msg.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			text.WriteString(variant.Text)
		case anthropic.ToolUseBlock:
			out.ToolCalls = append(out.ToolCalls, ToolCall{
				ID:        variant.ID,
				Name:      variant.Name,
				Arguments: string(variant.Input),
			})
		}
	}
	out.Content = text.String()

	finish := FinishReasonStop
	switch msg.StopReason {
	case anthropic.StopReasonToolUse:
		finish = FinishReasonToolCalls
	case anthropic.StopReasonMaxTokens:
		finish = FinishReasonLength
	}

	return &ChatResponse{
		ID:           msg.ID,
		Model:        string(msg.Model),
		Message:      out,
		FinishReason: finish,
		Usage: Usage{
			PromptTokens:     int(msg.Usage.InputTokens),
			CompletionTokens: int(msg.Usage.OutputTokens),
			TotalTokens:      int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
		},
	}
}

// schemaRequired reads the "required" list of a JSON schema map.
func schemaRequired(schema map[string]interface{}) []string {
	switch v := schema["required"].(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func claudeModels() []ModelInfo {
	return []ModelInfo{
		{Provider: ProviderNameAnthropic, Name: ModelClaude45, Family: "claude-4.5", MaxTokens: 200000, InputCostPer1K: 0.003, OutputCostPer1K: 0.015},
		{Provider: ProviderNameAnthropic, Name: "claude-haiku-4-5", Family: "claude-4.5", MaxTokens: 200000, InputCostPer1K: 0.001, OutputCostPer1K: 0.005},
	}
}
