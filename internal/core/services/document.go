package services

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/scribe-cli/internal/core/domain"
	"github.com/custodia-labs/scribe-cli/internal/core/ports/driven"
	"github.com/custodia-labs/scribe-cli/internal/core/ports/driving"
	"github.com/custodia-labs/scribe-cli/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService imports transcripts and manages stored documents.
type DocumentService struct {
	docStore    driven.DocumentStore
	normalisers map[string]driven.Normaliser
	now         func() time.Time
}

// NewDocumentService creates a new document service. Each normaliser is
// registered for its supported extensions; later normalisers win.
func NewDocumentService(docStore driven.DocumentStore, normalisers ...driven.Normaliser) *DocumentService {
	byExt := make(map[string]driven.Normaliser)
	for _, n := range normalisers {
		for _, ext := range n.SupportedExtensions() {
			byExt[strings.ToLower(ext)] = n
		}
	}
	return &DocumentService{
		docStore:    docStore,
		normalisers: byExt,
		now:         time.Now,
	}
}

// SupportedExtensions returns the importable file extensions, sorted.
func (s *DocumentService) SupportedExtensions() []string {
	exts := make([]string, 0, len(s.normalisers))
	for ext := range s.normalisers {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Import normalises a transcript file and stores it under a new ID.
func (s *DocumentService) Import(
	ctx context.Context, filename string, data []byte, displayName string,
) (*domain.Document, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	normaliser, ok := s.normalisers[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q (supported: %s)",
			domain.ErrUnsupportedType, ext, strings.Join(s.SupportedExtensions(), ", "))
	}

	doc, err := normaliser.Normalise(ctx, filename, data)
	if err != nil {
		return nil, fmt.Errorf("normalise %s: %w", filepath.Base(filename), err)
	}

	doc.ID = uuid.NewString()
	if name := strings.TrimSpace(displayName); name != "" {
		doc.DisplayName = name
	}
	doc.CreatedAt = s.now()

	if err := s.docStore.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}
	logger.Debug("Imported %s as %s (%d characters)", filepath.Base(filename), doc.ID, len(doc.FullText))

	return doc, nil
}

// List returns all stored documents.
func (s *DocumentService) List(ctx context.Context) ([]domain.Document, error) {
	return s.docStore.ListDocuments(ctx)
}

// Get retrieves a document by ID.
func (s *DocumentService) Get(ctx context.Context, documentID string) (*domain.Document, error) {
	return s.docStore.GetDocument(ctx, documentID)
}

// Delete removes a document from the store.
func (s *DocumentService) Delete(ctx context.Context, documentID string) error {
	if _, err := s.docStore.GetDocument(ctx, documentID); err != nil {
		return err
	}
	return s.docStore.DeleteDocument(ctx, documentID)
}
