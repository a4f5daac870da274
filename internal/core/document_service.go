package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AttachDocumentInput describes a file to attach to an entity. EntityKind is
// one of "plot", "task", "crop", "fertilizer", "equipment",
// "warehouse_operation".
type AttachDocumentInput struct {
	EntityKind   string
	EntityID     int
	DocumentType string
	FileName     string
	FileType     string
	FileData     []byte
}

var documentEntityKinds = map[string]bool{
	"plot":                true,
	"task":                true,
	"crop":                true,
	"fertilizer":          true,
	"equipment":           true,
	"warehouse_operation": true,
}

// DocumentService stores file attachments for domain entities. Files live in
// the database; the single-operator deployments this serves never grew past
// scan-sized PDFs and photos.
type DocumentService interface {
	Attach(ctx context.Context, in AttachDocumentInput) (*Document, error)
	// Get returns the document including its file data.
	Get(ctx context.Context, documentID int) (*Document, error)
	// List returns an entity's documents without file data, newest first.
	List(ctx context.Context, entityKind string, entityID int) ([]Document, error)
	Delete(ctx context.Context, documentID int) error
}

type documentService struct {
	pool *pgxpool.Pool
}

func NewDocumentService(pool *pgxpool.Pool) DocumentService {
	return &documentService{pool: pool}
}

func (s *documentService) Attach(ctx context.Context, in AttachDocumentInput) (*Document, error) {
	if !documentEntityKinds[in.EntityKind] {
		return nil, fmt.Errorf("unknown document entity kind %q", in.EntityKind)
	}
	if in.FileName == "" {
		return nil, fmt.Errorf("document file name is required")
	}
	if len(in.FileData) == 0 {
		return nil, fmt.Errorf("document file data is empty")
	}

	var id int
	err := s.pool.QueryRow(ctx, `
		INSERT INTO documents (entity_kind, entity_id, document_type, file_name, file_type, file_data)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, in.EntityKind, in.EntityID, in.DocumentType, in.FileName, in.FileType, in.FileData).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to insert document: %w", err)
	}
	return s.Get(ctx, id)
}

func (s *documentService) Get(ctx context.Context, documentID int) (*Document, error) {
	var d Document
	err := s.pool.QueryRow(ctx, `
		SELECT id, entity_kind, entity_id, document_type, file_name, file_type, file_data, upload_date
		FROM documents WHERE id = $1
	`, documentID).Scan(&d.ID, &d.EntityKind, &d.EntityID, &d.DocumentType,
		&d.FileName, &d.FileType, &d.FileData, &d.UploadDate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundf("document %d not found", documentID)
		}
		return nil, fmt.Errorf("failed to fetch document %d: %w", documentID, err)
	}
	return &d, nil
}

func (s *documentService) List(ctx context.Context, entityKind string, entityID int) ([]Document, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, entity_kind, entity_id, document_type, file_name, file_type, upload_date
		FROM documents
		WHERE entity_kind = $1 AND entity_id = $2
		ORDER BY upload_date DESC, id DESC
	`, entityKind, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.EntityKind, &d.EntityID, &d.DocumentType,
			&d.FileName, &d.FileType, &d.UploadDate); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read documents: %w", err)
	}
	return docs, nil
}

func (s *documentService) Delete(ctx context.Context, documentID int) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM documents WHERE id = $1", documentID)
	if err != nil {
		return fmt.Errorf("failed to delete document %d: %w", documentID, err)
	}
	if tag.RowsAffected() == 0 {
		return notFoundf("document %d not found", documentID)
	}
	return nil
}
