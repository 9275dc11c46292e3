package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/atinyakov/GophChat/internal/models"
	"github.com/atinyakov/GophChat/internal/repository"
)

// DefaultChunkWords is the number of words per stored chunk.
const DefaultChunkWords = 500

var (
	// ErrIndexExists is returned when creating an index whose name is taken.
	ErrIndexExists = errors.New("index already exists")
	// ErrIndexNotFound is returned for an unknown index.
	ErrIndexNotFound = errors.New("index not found")
	// ErrDocumentNotFound is returned when deleting a file the index lacks.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrInvalidName is returned for a blank index name.
	ErrInvalidName = errors.New("invalid name")
	// ErrUnsupportedDocument is returned for files that are not UTF-8 text.
	ErrUnsupportedDocument = errors.New("unsupported document")
)

// KnowledgeRepository defines the persistence operations needed by the KnowledgeService.
type KnowledgeRepository interface {
	ListIndexes(ctx context.Context) ([]string, error)
	IndexExists(ctx context.Context, name string) (bool, error)
	CreateIndex(ctx context.Context, name, createdBy string) error
	DeleteIndex(ctx context.Context, name string) error
	ListDocuments(ctx context.Context, index string) ([]models.Document, error)
	ReplaceChunks(ctx context.Context, index, fileName string, chunks []string) error
	DeleteDocuments(ctx context.Context, index string, fileNames []string) error
}

// File is one uploaded document.
type File struct {
	Name string
	Data []byte
}

// KnowledgeService manages indexes and ingests documents into them.
type KnowledgeService struct {
	repo KnowledgeRepository

	// ChunkWords is the number of words per chunk.
	ChunkWords int
}

// NewKnowledgeService constructs a KnowledgeService.
func NewKnowledgeService(repo KnowledgeRepository) *KnowledgeService {
	return &KnowledgeService{repo: repo, ChunkWords: DefaultChunkWords}
}

// ListIndexes returns every index name.
func (s *KnowledgeService) ListIndexes(ctx context.Context) ([]string, error) {
	return s.repo.ListIndexes(ctx)
}

// CreateIndex adds an empty index.
func (s *KnowledgeService) CreateIndex(ctx context.Context, userID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidName
	}
	err := s.repo.CreateIndex(ctx, name, userID)
	if errors.Is(err, repository.ErrAlreadyExists) {
		return ErrIndexExists
	}
	return err
}

// DeleteIndex drops an index and its documents.
func (s *KnowledgeService) DeleteIndex(ctx context.Context, name string) error {
	err := s.repo.DeleteIndex(ctx, name)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrIndexNotFound
	}
	return err
}

// ListDocuments returns one row per chunk, so a file appears once for each
// of its chunks.
func (s *KnowledgeService) ListDocuments(ctx context.Context, index string) ([]models.Document, error) {
	if err := s.exists(ctx, index); err != nil {
		return nil, err
	}
	return s.repo.ListDocuments(ctx, index)
}

// AddDocuments chunks and stores each file. A file uploaded again replaces
// the earlier copy. Nothing is stored when any file is rejected.
func (s *KnowledgeService) AddDocuments(ctx context.Context, index string, files []File) (models.AddDocumentsResponse, error) {
	res := models.AddDocumentsResponse{Added: make([]string, 0, len(files))}
	if err := s.exists(ctx, index); err != nil {
		return res, err
	}

	chunked := make([][]string, len(files))
	for i, f := range files {
		if !utf8.Valid(f.Data) {
			return res, fmt.Errorf("%w: %s", ErrUnsupportedDocument, f.Name)
		}
		chunked[i] = ChunkText(string(f.Data), s.ChunkWords)
	}

	for i, f := range files {
		if len(chunked[i]) == 0 {
			continue
		}
		if err := s.repo.ReplaceChunks(ctx, index, f.Name, chunked[i]); err != nil {
			return res, err
		}
		res.Added = append(res.Added, f.Name)
		res.Chunks += len(chunked[i])
	}
	return res, nil
}

// DeleteDocument removes every chunk of fileName from index.
func (s *KnowledgeService) DeleteDocument(ctx context.Context, index, fileName string) error {
	err := s.repo.DeleteDocuments(ctx, index, []string{fileName})
	if errors.Is(err, repository.ErrNotFound) {
		return ErrDocumentNotFound
	}
	return err
}

func (s *KnowledgeService) exists(ctx context.Context, index string) error {
	ok, err := s.repo.IndexExists(ctx, index)
	if err != nil {
		return err
	}
	if !ok {
		return ErrIndexNotFound
	}
	return nil
}

// ChunkText splits text into chunks of at most size whitespace-separated
// words. Blank text yields no chunks.
func ChunkText(text string, size int) []string {
	if size <= 0 {
		size = DefaultChunkWords
	}
	words := strings.Fields(text)
	chunks := make([]string, 0, (len(words)+size-1)/size)
	for i := 0; i < len(words); i += size {
		end := min(i+size, len(words))
		chunks = append(chunks, strings.Join(words[i:end], " "))
	}
	return chunks
}
