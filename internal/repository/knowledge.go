package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/atinyakov/GophChat/internal/models"
)

// PostgresKnowledgeRepository stores indexes and their document chunks.
type PostgresKnowledgeRepository struct {
	DB *sql.DB
}

// NewPostgresKnowledgeRepository creates a new PostgresKnowledgeRepository using the provided *sql.DB.
func NewPostgresKnowledgeRepository(db *sql.DB) *PostgresKnowledgeRepository {
	return &PostgresKnowledgeRepository{DB: db}
}

// ListIndexes returns every index name in creation order.
func (r *PostgresKnowledgeRepository) ListIndexes(ctx context.Context) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT name FROM indexes ORDER BY created_at ASC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list indexes: %w", err)
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// IndexExists reports whether an index called name exists.
func (r *PostgresKnowledgeRepository) IndexExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM indexes WHERE name = $1)`, name).Scan(&exists)
	return exists, err
}

// CreateIndex inserts an index. A taken name yields ErrAlreadyExists.
func (r *PostgresKnowledgeRepository) CreateIndex(ctx context.Context, name, createdBy string) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO indexes (name, created_by) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`,
		name, createdBy,
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAlreadyExists
	}
	return nil
}

// DeleteIndex drops an index together with its chunks.
func (r *PostgresKnowledgeRepository) DeleteIndex(ctx context.Context, name string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM indexes WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("delete index: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListDocuments returns one row per stored chunk of the index.
func (r *PostgresKnowledgeRepository) ListDocuments(ctx context.Context, index string) ([]models.Document, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT file_name FROM documents WHERE index_name = $1 ORDER BY file_name, chunk_no`,
		index,
	)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	docs := make([]models.Document, 0)
	for rows.Next() {
		var d models.Document
		if err := rows.Scan(&d.FileName); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// ReplaceChunks stores the chunks of one file, dropping any earlier upload
// of the same file name.
func (r *PostgresKnowledgeRepository) ReplaceChunks(ctx context.Context, index, fileName string, chunks []string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM documents WHERE index_name = $1 AND file_name = $2`,
		index, fileName,
	); err != nil {
		return fmt.Errorf("drop previous chunks: %w", err)
	}
	for i, c := range chunks {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO documents (id, index_name, file_name, chunk_no, content) VALUES ($1, $2, $3, $4, $5)`,
			fmt.Sprintf("%s/%s/%d", index, fileName, i), index, fileName, i, c,
		); err != nil {
			return fmt.Errorf("insert chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// DeleteDocuments removes every chunk of the named files from an index.
// It returns ErrNotFound if nothing matched.
func (r *PostgresKnowledgeRepository) DeleteDocuments(ctx context.Context, index string, fileNames []string) error {
	res, err := r.DB.ExecContext(ctx,
		`DELETE FROM documents WHERE index_name = $1 AND file_name = ANY($2)`,
		index, pq.Array(fileNames),
	)
	if err != nil {
		return fmt.Errorf("delete documents: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SearchChunks returns up to limit chunks ranked by full-text relevance to query.
func (r *PostgresKnowledgeRepository) SearchChunks(ctx context.Context, query string, limit int) ([]models.Chunk, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT index_name, file_name, content FROM documents
		 WHERE to_tsvector('english', content) @@ plainto_tsquery('english', $1)
		 ORDER BY ts_rank(to_tsvector('english', content), plainto_tsquery('english', $1)) DESC
		 LIMIT $2
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}
	defer rows.Close()

	var chunks []models.Chunk
	for rows.Next() {
		var c models.Chunk
		if err := rows.Scan(&c.IndexName, &c.FileName, &c.Content); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}
