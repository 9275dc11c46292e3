// Package models defines the core data structures shared by the client and the
// development backend: users, chat sessions, transcript messages and documents.
package models

// Role is the access level attached to an account.
type Role string

const (
	// RoleUser is a regular chat user.
	RoleUser Role = "user"
	// RoleAdmin may additionally manage indexes and documents.
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User represents an application account.
type User struct {
	// ID is the unique identifier for the user.
	ID string
	// Username is the login name chosen by the user.
	Username string
	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash []byte
	// Role is the account's access level.
	Role Role
}

// Session is a named conversation thread owned by one user.
type Session struct {
	// ID is the opaque session identifier.
	ID string `json:"session_id"`
	// Title is the display name of the session.
	Title string `json:"session_title"`
}

// MessageRole identifies the author of a transcript entry.
type MessageRole string

const (
	// MessageUser marks an entry typed by the user.
	MessageUser MessageRole = "user"
	// MessageBot marks a reply from the assistant.
	MessageBot MessageRole = "bot"
	// MessageAssistant is the role the backend stores for replies.
	MessageAssistant MessageRole = "assistant"
	// MessageSystem is the role of the seeded instruction entry.
	MessageSystem MessageRole = "system"
)

// Message is a single transcript entry.
type Message struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
}

// Document is one row of an index listing. The backend returns one row per
// ingested chunk, so the same FileName may appear several times.
type Document struct {
	FileName string `json:"file_name"`
}

// Chunk is a stored slice of an ingested document.
type Chunk struct {
	IndexName string
	FileName  string
	Content   string
}
