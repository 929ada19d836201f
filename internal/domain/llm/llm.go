// Package llm holds provider-neutral chat completion types.
package llm

// Role is the author of a chat message.
type Role string

// Message roles understood by chat completion providers.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one entry of a chat transcript.
type Message struct {
	Role       Role
	Content    string
	ToolCalls  []ToolCall // set on assistant messages that request tools
	ToolCallID string     // set on tool messages
}

// ToolCall is a model request to invoke a function.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string // raw JSON
}

// ToolSpec describes a function offered to the model.
type ToolSpec struct {
	Name        string
	Description string
}

// Usage is the token accounting reported for one completion.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Completion is a model reply: either text, tool calls, or both.
type Completion struct {
	Content   string
	ToolCalls []ToolCall
	Usage     Usage
}

// System builds a system message.
func System(content string) Message { return Message{Role: RoleSystem, Content: content} }

// User builds a user message.
func User(content string) Message { return Message{Role: RoleUser, Content: content} }

// ToolResult builds a tool message answering the call with the given id.
func ToolResult(callID, content string) Message {
	return Message{Role: RoleTool, Content: content, ToolCallID: callID}
}
