package domain

// Message roles. The system role exists only on the wire to the model
// gateway; clients may not send it.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// ChatMessage is a single conversation turn. Order within a conversation is
// chronological and immutable once sent.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
