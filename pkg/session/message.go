package session

import "fmt"

// Role identifies the author of a message. Roles are fixed at construction;
// a message is never re-roled, only replaced.
type Role string

const (
	RoleSystem     Role = "system"
	RoleUser       Role = "user"
	RoleAssistant  Role = "assistant"
	RoleToolResult Role = "tool_result"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant, RoleToolResult:
		return true
	}
	return false
}

// ToolCall is an opaque record of a tool invocation requested by the model.
// The engine passes these through without interpreting them.
type ToolCall struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
	ID        string         `json:"id,omitempty"`
}

// Message is a single conversational turn. Messages are value types and are
// never mutated in place; transformations produce replacements.
type Message struct {
	Role       Role           `json:"role"`
	Content    string         `json:"content"`
	Attrs      Attrs          `json:"attrs,omitzero"`
	Structured map[string]any `json:"structured,omitempty"`
	ToolCalls  []ToolCall     `json:"tool_calls,omitempty"`
}

// NewMessage creates a message with the given role and content.
func NewMessage(role Role, content string) Message {
	return Message{Role: role, Content: content}
}

func (m Message) String() string {
	return fmt.Sprintf("%s: %s", m.Role, m.Content)
}
