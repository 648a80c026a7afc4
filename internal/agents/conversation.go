package agents

import (
	"stockagents/internal/adapters/ai"
)

// ConversationManager keeps the message transcript of one agent run and a
// rough token estimate of it.
type ConversationManager struct {
	history       []ai.Message
	systemPrompt  string
	currentTokens int
	turnCount     int
	toolCalls     int
}

// NewConversationManager creates a new conversation manager
func NewConversationManager(systemPrompt string) *ConversationManager {
	return &ConversationManager{
		history:       make([]ai.Message, 0, 8),
		systemPrompt:  systemPrompt,
		currentTokens: estimateTokens(systemPrompt),
	}
}

// AddUserMessage adds a user message to the conversation
func (cm *ConversationManager) AddUserMessage(content string) {
	cm.history = append(cm.history, ai.UserMessage(content))
	cm.currentTokens += estimateTokens(content)
	cm.turnCount++
}

// AddAssistantMessage adds an assistant message to the conversation
func (cm *ConversationManager) AddAssistantMessage(content string, toolCalls []ai.ToolCall) {
	cm.history = append(cm.history, ai.Message{
		Role:      ai.RoleAssistant,
		Content:   content,
		ToolCalls: toolCalls,
	})
	cm.currentTokens += estimateTokens(content) + estimateToolCallsTokens(toolCalls)
	cm.toolCalls += len(toolCalls)
}

// AddToolResult adds a tool execution result to the conversation
func (cm *ConversationManager) AddToolResult(call ai.ToolCall, content string, isError bool) {
	cm.history = append(cm.history, ai.ToolResultMessage(call, content, isError))
	cm.currentTokens += estimateTokens(content)
}

// Messages returns the transcript to send with the next request.
func (cm *ConversationManager) Messages() []ai.Message {
	return cm.history
}

// SystemPrompt returns the system prompt of the run.
func (cm *ConversationManager) SystemPrompt() string {
	return cm.systemPrompt
}

// GetTurnCount returns the number of user turns.
func (cm *ConversationManager) GetTurnCount() int {
	return cm.turnCount
}

// ToolCallCount returns how many tool calls the model requested.
func (cm *ConversationManager) ToolCallCount() int {
	return cm.toolCalls
}

// EstimatedTokens returns the approximate size of the transcript.
func (cm *ConversationManager) EstimatedTokens() int {
	return cm.currentTokens
}

// estimateTokens uses the usual four characters per token approximation.
func estimateTokens(text string) int {
	return (len(text) + 3) / 4
}

func estimateToolCallsTokens(calls []ai.ToolCall) int {
	total := 0
	for _, c := range calls {
		total += estimateTokens(c.Name) + estimateTokens(c.Arguments)
	}
	return total
}
