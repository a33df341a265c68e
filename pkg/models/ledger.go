package models

import "time"

// LogLevel classifies an append-only log entry.
type LogLevel string

const (
	LogInfo    LogLevel = "INFO"
	LogWarning LogLevel = "WARNING"
	LogError   LogLevel = "ERROR"
)

// ConversationEntry is one turn in the shared conversation ledger.
type ConversationEntry struct {
	ID        int64     `json:"id"`
	AgentID   string    `json:"agent_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// DecisionEntry records an arbitration outcome in the decision ledger.
type DecisionEntry struct {
	ID        int64     `json:"id"`
	AgentID   string    `json:"agent_id"`
	Decision  string    `json:"decision"`
	Reasoning string    `json:"reasoning"`
	CreatedAt time.Time `json:"created_at"`
}

// BugEntry records an encountered bug. Resolved flips when a solution
// referencing this entry's ID is recorded.
type BugEntry struct {
	ID          int64     `json:"id"`
	AgentID     string    `json:"agent_id"`
	Description string    `json:"description"`
	Context     string    `json:"context,omitempty"`
	Resolved    bool      `json:"resolved"`
	CreatedAt   time.Time `json:"created_at"`
}

// SolutionEntry records a fix for a bug, referenced by bug id.
type SolutionEntry struct {
	ID        int64     `json:"id"`
	BugID     int64     `json:"bug_id"`
	AgentID   string    `json:"agent_id"`
	Solution  string    `json:"solution"`
	CreatedAt time.Time `json:"created_at"`
}

// LogEntry is one line of the append-only workspace log.
type LogEntry struct {
	ID        int64     `json:"id"`
	AgentID   string    `json:"agent_id"`
	Level     LogLevel  `json:"level"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// UserContextKind distinguishes the user-context buffers.
type UserContextKind string

const (
	// ContextUserInput holds free-text input from the user.
	ContextUserInput UserContextKind = "user_input"
	// ContextUserDocs holds supporting documentation from the user.
	ContextUserDocs UserContextKind = "user_docs"
	// ContextCodebase holds notes about the codebase under work.
	ContextCodebase UserContextKind = "codebase"
)

// UserContextEntry is one buffered piece of user-provided context.
type UserContextEntry struct {
	ID        int64           `json:"id"`
	Kind      UserContextKind `json:"kind"`
	Content   string          `json:"content"`
	CreatedAt time.Time       `json:"created_at"`
}
