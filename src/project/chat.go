package project

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is one transcript entry of a project conversation.
type ChatMessage struct {
	ID            string       `json:"id"`
	Role          Role         `json:"role"`
	Content       string       `json:"content"`
	Thought       string       `json:"thought,omitempty"`
	Attachments   []Attachment `json:"attachments,omitempty"`
	ModifiedFiles []AuditEntry `json:"modifiedFiles,omitempty"`
	CreatedAt     time.Time    `json:"createdAt"`
}

const UntitledProject = "Untitled Project"

// Metadata describes a stored project.
type Metadata struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Stack        Stack     `json:"stack"`
	LastModified time.Time `json:"lastModified"`
}

// CustomModel is a user-registered OpenAI-compatible endpoint.
type CustomModel struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Provider string `json:"provider"`
	APIKey   string `json:"apiKey"`
	BaseURL  string `json:"baseUrl"`
	ModelID  string `json:"modelId"`
}
