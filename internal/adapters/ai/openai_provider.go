package ai

import (
	"context"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"stockagents/pkg/errors"
)

const deepSeekBaseURL = "https://api.deepseek.com/v1"

// Ensure OpenAIProvider implements ChatProvider
var _ ChatProvider = (*OpenAIProvider)(nil)

// OpenAIProvider talks to the OpenAI chat completions API, or to any
// OpenAI-compatible endpoint such as DeepSeek.
type OpenAIProvider struct {
	baseProvider
	client openai.Client
}

// NewOpenAIProvider creates a new OpenAI provider instance.
func NewOpenAIProvider(opts ProviderOptions) *OpenAIProvider {
	return newOpenAICompatible(ProviderNameOpenAI, openAIModels(), opts)
}

// NewDeepSeekProvider creates a provider for DeepSeek's OpenAI-compatible API.
func NewDeepSeekProvider(opts ProviderOptions) *OpenAIProvider {
	if opts.BaseURL == "" {
		opts.BaseURL = deepSeekBaseURL
	}
	return newOpenAICompatible(ProviderNameDeepSeek, deepSeekModels(), opts)
}

func newOpenAICompatible(name ProviderName, models []ModelInfo, opts ProviderOptions) *OpenAIProvider {
	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(2),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}

	return &OpenAIProvider{
		baseProvider: newBaseProvider(name, models, opts),
		client:       openai.NewClient(reqOpts...),
	}
}

// Chat sends one chat completion round.
func (p *OpenAIProvider) Chat(ctx context.Context, req ChatRequest) (resp *ChatResponse, err error) {
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

	completion, err := p.client.Chat.Completions.New(callCtx, toOpenAIParams(req))
	if err != nil {
		return nil, errors.Wrapf(errors.ErrExternal, "%s chat completion: %v", p.name, err)
	}

	return fromOpenAICompletion(completion)
}

func toOpenAIParams(req ChatRequest) openai.ChatCompletionNewParams {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}

	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleUser:
			messages = append(messages, openai.UserMessage(msg.Content))
		case RoleTool:
			messages = append(messages, openai.ToolMessage(msg.Content, msg.ToolCallID))
		case RoleAssistant:
			assistant := openai.ChatCompletionAssistantMessageParam{}
			if msg.Content != "" {
				assistant.Content.OfString = openai.String(msg.Content)
			}
			for _, tc := range msg.ToolCalls {
				assistant.ToolCalls = append(assistant.ToolCalls, openai.ChatCompletionMessageToolCallUnionParam{
					OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
						ID: tc.ID,
						Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
							Name:      tc.Name,
							Arguments: tc.Arguments,
						},
					},
				})
			}
			messages = append(messages, openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant})
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:       req.Model,
		Messages:    messages,
		Temperature: openai.Float(req.Temperature),
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(req.MaxTokens))
	}

	for _, tool := range req.Tools {
		params.Tools = append(params.Tools, openai.ChatCompletionFunctionTool(shared.FunctionDefinitionParam{
			Name:        tool.Name,
			Description: openai.String(tool.Description),
			Parameters:  shared.FunctionParameters(tool.Parameters),
		}))
	}

	return params
}

func fromOpenAICompletion(completion *openai.ChatCompletion) (*ChatResponse, error) {
	if completion == nil || len(completion.Choices) == 0 {
		return nil, errors.ErrEmptyResponse
	}

	choice := completion.Choices[0]
	msg := Message{
		Role:    RoleAssistant,
		Content: choice.Message.Content,
	}
	for _, tc := range choice.Message.ToolCalls {
		if tc.Function.Name == "" {
			continue
		}
		msg.ToolCalls = append(msg.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}

	finish := FinishReasonStop
	switch choice.FinishReason {
	case "length":
		finish = FinishReasonLength
	case "tool_calls", "function_call":
		finish = FinishReasonToolCalls
	}
	if len(msg.ToolCalls) > 0 {
		finish = FinishReasonToolCalls
	}

	return &ChatResponse{
		ID:           completion.ID,
		Model:        completion.Model,
		Message:      msg,
		FinishReason: finish,
		Usage: Usage{
			PromptTokens:     int(completion.Usage.PromptTokens),
			CompletionTokens: int(completion.Usage.CompletionTokens),
			TotalTokens:      int(completion.Usage.TotalTokens),
		},
	}, nil
}

func openAIModels() []ModelInfo {
	return []ModelInfo{
		{Provider: ProviderNameOpenAI, Name: ModelGPT4, Family: "gpt-4", MaxTokens: 8192, InputCostPer1K: 0.03, OutputCostPer1K: 0.06},
		{Provider: ProviderNameOpenAI, Name: ModelGPT4o, Family: "gpt-4o", MaxTokens: 128000, InputCostPer1K: 0.0025, OutputCostPer1K: 0.01},
		{Provider: ProviderNameOpenAI, Name: ModelGPT4oMini, Family: "gpt-4o", MaxTokens: 128000, InputCostPer1K: 0.00015, OutputCostPer1K: 0.0006},
	}
}

func deepSeekModels() []ModelInfo {
	return []ModelInfo{
		{Provider: ProviderNameDeepSeek, Name: ModelDeepSeekV3, Family: "deepseek-v3", MaxTokens: 64000, InputCostPer1K: 0.00027, OutputCostPer1K: 0.0011},
	}
}
