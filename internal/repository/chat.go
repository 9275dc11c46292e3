package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/atinyakov/GophChat/internal/models"
)

// PostgresChatRepository stores sessions and their messages.
type PostgresChatRepository struct {
	DB *sql.DB
}

// NewPostgresChatRepository creates a new PostgresChatRepository using the provided *sql.DB.
func NewPostgresChatRepository(db *sql.DB) *PostgresChatRepository {
	return &PostgresChatRepository{DB: db}
}

// CreateSession inserts a session owned by userID.
func (r *PostgresChatRepository) CreateSession(ctx context.Context, userID string, s models.Session) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, title) VALUES ($1, $2, $3)`,
		s.ID, userID, s.Title,
	)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// ListSessions returns the live sessions of userID, newest first.
func (r *PostgresChatRepository) ListSessions(ctx context.Context, userID string) ([]models.Session, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, title FROM sessions
		 WHERE user_id = $1 AND deleted_at IS NULL
		 ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]models.Session, 0)
	for rows.Next() {
		var s models.Session
		if err := rows.Scan(&s.ID, &s.Title); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// SessionExists reports whether userID owns a live session sessionID.
func (r *PostgresChatRepository) SessionExists(ctx context.Context, userID, sessionID string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM sessions WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL)`,
		sessionID, userID,
	).Scan(&exists)
	return exists, err
}

// DeleteSession marks a session deleted. The cleaner purges it later.
// It returns ErrNotFound if userID owns no such live session.
func (r *PostgresChatRepository) DeleteSession(ctx context.Context, userID, sessionID string) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE sessions SET deleted_at = now() WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`,
		sessionID, userID,
	)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// AddMessages appends msgs to a session in one transaction.
func (r *PostgresChatRepository) AddMessages(ctx context.Context, sessionID string, msgs ...models.Message) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, m := range msgs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO messages (session_id, role, content) VALUES ($1, $2, $3)`,
			sessionID, m.Role, m.Content,
		); err != nil {
			return fmt.Errorf("add message: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// GetMessages returns the history of a session, oldest first.
func (r *PostgresChatRepository) GetMessages(ctx context.Context, sessionID string) ([]models.Message, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT role, content FROM messages WHERE session_id = $1 ORDER BY id ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("get messages: %w", err)
	}
	defer rows.Close()

	msgs := make([]models.Message, 0)
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.Role, &m.Content); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// ClearMessages removes the whole history of a session.
func (r *PostgresChatRepository) ClearMessages(ctx context.Context, sessionID string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM messages WHERE session_id = $1`, sessionID)
	if err != nil {
		return fmt.Errorf("clear messages: %w", err)
	}
	return nil
}
