package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"stockagents/pkg/errors"
)

// Ensure GeminiProvider implements ChatProvider
var _ ChatProvider = (*GeminiProvider)(nil)

// GeminiProvider talks to the Gemini API through google.golang.org/genai.
type GeminiProvider struct {
	baseProvider
	client *genai.Client
}

// NewGeminiProvider creates a Gemini provider.
func NewGeminiProvider(ctx context.Context, opts ProviderOptions) (*GeminiProvider, error) {
	cc := &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if opts.BaseURL != "" {
		cc.HTTPOptions.BaseURL = opts.BaseURL
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, errors.Wrap(err, "create gemini client")
	}

	return &GeminiProvider{
		baseProvider: newBaseProvider(ProviderNameGoogle, geminiModels(), opts),
		client:       client,
	}, nil
}

// Chat sends one GenerateContent round.
func (p *GeminiProvider) Chat(ctx context.Context, req ChatRequest) (resp *ChatResponse, err error) {
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

	contents, config := toGeminiRequest(req)
	result, err := p.client.Models.GenerateContent(callCtx, req.Model, contents, config)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrExternal, "gemini generate content: %v", err)
	}

	return fromGeminiResponse(req.Model, result)
}

func toGeminiRequest(req ChatRequest) ([]*genai.Content, *genai.GenerateContentConfig) {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Temperature)),
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if len(req.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(req.Tools))
		for _, tool := range req.Tools {
			decls = append(decls, &genai.FunctionDeclaration{
				Name:                 tool.Name,
				Description:          tool.Description,
				ParametersJsonSchema: tool.Parameters,
			})
		}
		config.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}

	var contents []*genai.Content
	var pendingResponses []*genai.Part
	flush := func() {
		if len(pendingResponses) > 0 {
			contents = append(contents, genai.NewContentFromParts(pendingResponses, genai.RoleUser))
			pendingResponses = nil
		}
	}

	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleTool:
			key := "output"
			if msg.IsError {
				key = "error"
			}
			pendingResponses = append(pendingResponses, &genai.Part{
				FunctionResponse: &genai.FunctionResponse{
					ID:       msg.ToolCallID,
					Name:     msg.Name,
					Response: map[string]any{key: msg.Content},
				},
			})
		case RoleUser:
			flush()
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		case RoleAssistant:
			flush()
			var parts []*genai.Part
			if msg.Content != "" {
				parts = append(parts, genai.NewPartFromText(msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				args, err := tc.DecodeArguments()
				if err != nil {
					args = map[string]any{}
				}
				parts = append(parts, &genai.Part{
					FunctionCall: &genai.FunctionCall{ID: tc.ID, Name: tc.Name, Args: args},
				})
			}
			contents = append(contents, genai.NewContentFromParts(parts, genai.RoleModel))
		}
	}
	flush()

	return contents, config
}

func fromGeminiResponse(model string, result *genai.GenerateContentResponse) (*ChatResponse, error) {
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return nil, errors.ErrEmptyResponse
	}

	candidate := result.Candidates[0]
	out := Message{Role: RoleAssistant}
	var text strings.Builder

	for i, part := range candidate.Content.Parts {
		if part == nil {
			continue
		}
		if part.Text != "" && !part.Thought {
			text.WriteString(part.Text)
		}
		if fc := part.FunctionCall; fc != nil {
			args, err := json.Marshal(fc.Args)
			if err != nil {
				return nil, errors.Wrap(err, "encode gemini function args")
			}
			id := fc.ID
			if id == "" {
				// Gemini API calls may omit IDs; results are matched by name.
				id = fmt.Sprintf("call_%d", i)
			}
			out.ToolCalls = append(out.ToolCalls, ToolCall{ID: id, Name: fc.Name, Arguments: string(args)})
		}
	}
	out.Content = text.String()

	finish := FinishReasonStop
	if candidate.FinishReason == genai.FinishReasonMaxTokens {
		finish = FinishReasonLength
	}
	if len(out.ToolCalls) > 0 {
		finish = FinishReasonToolCalls
	}

	resp := &ChatResponse{
		ID:           result.ResponseID,
		Model:        model,
		Message:      out,
		FinishReason: finish,
	}
	if u := result.UsageMetadata; u != nil {
		resp.Usage = Usage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
		}
	}

	return resp, nil
}

func geminiModels() []ModelInfo {
	return []ModelInfo{
		{Provider: ProviderNameGoogle, Name: ModelGemini25, Family: "gemini-2.5", MaxTokens: 1048576, InputCostPer1K: 0.0003, OutputCostPer1K: 0.0025},
		{Provider: ProviderNameGoogle, Name: "gemini-2.5-pro", Family: "gemini-2.5", MaxTokens: 1048576, InputCostPer1K: 0.00125, OutputCostPer1K: 0.01},
	}
}
