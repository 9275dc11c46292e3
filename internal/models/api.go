package models

// LoginRequest is the JSON payload of the login endpoint.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is returned on successful login.
type LoginResponse struct {
	UserID   string `json:"userId"`
	UserType Role   `json:"userType"`
}

// SessionsResponse lists the sessions of a user, newest first.
type SessionsResponse struct {
	Sessions []Session `json:"sessions"`
}

// CreateSessionRequest asks the backend to open a new session.
type CreateSessionRequest struct {
	UserID string `json:"user_id" validate:"required"`
	Title  string `json:"session_title"`
}

// SessionRequest identifies one session of a user.
type SessionRequest struct {
	UserID    string `json:"user_id" validate:"required"`
	SessionID string `json:"session_id" validate:"required"`
}

// MessagesResponse carries the stored history of a session.
type MessagesResponse struct {
	Messages []Message `json:"messages"`
}

// SendMessageRequest submits a user query to a session.
type SendMessageRequest struct {
	UserID    string `json:"user_id" validate:"required"`
	SessionID string `json:"session_id" validate:"required"`
	Query     string `json:"query"`
	RAG       bool   `json:"rag"`
}

// SendMessageResponse carries the assistant reply.
type SendMessageResponse struct {
	Reply string `json:"reply"`
}

// TextToSpeechRequest asks for a spoken rendition of Text.
type TextToSpeechRequest struct {
	Text string `json:"text"`
}

// IndexesResponse lists index names.
type IndexesResponse struct {
	Indexes []string `json:"indexes"`
}

// IndexRequest identifies one index of a user.
type IndexRequest struct {
	UserID    string `json:"user_id" validate:"required"`
	IndexName string `json:"index_name"`
}

// DocumentsResponse lists document rows of an index.
type DocumentsResponse struct {
	Documents []Document `json:"documents"`
}

// DeleteDocumentRequest removes every chunk of one file from an index.
type DeleteDocumentRequest struct {
	UserID    string `json:"user_id" validate:"required"`
	IndexName string `json:"index_name"`
	FileName  string `json:"file_name"`
}

// AddDocumentsResponse reports the outcome of one upload batch.
type AddDocumentsResponse struct {
	Added  []string `json:"added"`
	Chunks int      `json:"chunks"`
}

// ErrorResponse is the JSON error body used by the backend.
type ErrorResponse struct {
	Error string `json:"error"`
}
