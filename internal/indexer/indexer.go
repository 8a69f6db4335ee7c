// Package indexer loads documents into a search backend: posted documents, single files and
// whole directories.
package indexer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/tansaku/internal/extract"
	"github.com/hyperjump/tansaku/internal/models"
	"github.com/hyperjump/tansaku/internal/storage"
)

// fileIDPrefix marks document IDs derived from a file path.
const fileIDPrefix = "file:"

// ErrEmptyContent is returned when a document has no text to index.
var ErrEmptyContent = errors.New("document content is empty")

// Indexer writes documents to a backend.
type Indexer struct {
	backend   storage.Backend
	extractor *extract.Extractor
	logger    *zap.Logger
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) {
		if l != nil {
			idx.logger = l
		}
	}
}

// NewIndexer creates an indexer. extractor may be nil; files are then read as plain text.
func NewIndexer(backend storage.Backend, extractor *extract.Extractor, opts ...IndexerOption) *Indexer {
	idx := &Indexer{
		backend:   backend,
		extractor: extractor,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// FileDocID returns the stable document ID for a file path: "file:" + sha256 of the cleaned path.
func FileDocID(absolutePath string) string {
	sum := sha256.Sum256([]byte(filepath.Clean(absolutePath)))
	return fileIDPrefix + hex.EncodeToString(sum[:])
}

// IndexDocument stores input, assigning a UUID when it has no ID. Content is whitespace
// normalised; an empty title becomes the first line of content.
func (idx *Indexer) IndexDocument(ctx context.Context, input *models.DocumentInput) (*models.Document, error) {
	content := Preprocess(input.Content)
	if content == "" {
		return nil, ErrEmptyContent
	}
	if input.ID == "" {
		input.ID = uuid.New().String()
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = DeriveTitle(input.Content)
	}
	doc := &models.Document{
		ID:      input.ID,
		Title:   title,
		Content: content,
		Source:  input.Source,
	}
	if err := idx.backend.Index(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to index document: %w", err)
	}
	idx.logger.Debug("document indexed", zap.String("id", doc.ID), zap.String("title", doc.Title))
	return doc, nil
}

// IndexFile extracts and indexes the file at path under FileDocID. If allowedExts is
// non-empty the extension must be listed (case-insensitive). Files already indexed from the
// same path and not modified since are skipped; skipped reports that case.
func (idx *Indexer) IndexFile(ctx context.Context, path string, allowedExts []string) (skipped bool, err error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false, fmt.Errorf("absolute path: %w", err)
	}
	ext := filepath.Ext(absPath)
	if len(allowedExts) > 0 && !extensionAllowed(ext, allowedExts) {
		return false, fmt.Errorf("extension %q not in allowed list", ext)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return false, fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return false, fmt.Errorf("not a regular file: %s", absPath)
	}

	id := FileDocID(absPath)
	if existing, err := idx.backend.Get(ctx, id); err == nil &&
		existing.Source == absPath && !info.ModTime().After(existing.IndexedAt) {
		idx.logger.Debug("skipping unchanged file", zap.String("path", absPath))
		return true, nil
	}

	text, err := idx.extractContent(absPath)
	if err != nil {
		return false, fmt.Errorf("extract content: %w", err)
	}
	_, err = idx.IndexDocument(ctx, &models.DocumentInput{
		ID:      id,
		Title:   strings.TrimSuffix(filepath.Base(absPath), ext),
		Content: text,
		Source:  absPath,
	})
	if err != nil {
		return false, err
	}
	idx.logger.Debug("file indexed", zap.String("path", absPath), zap.String("doc_id", id))
	return false, nil
}

// IndexDirectory walks dir (recursively when recursive is set) and indexes each regular
// file whose extension is allowed. Files with no extractable text are skipped. It returns
// the number of files indexed.
func (idx *Indexer) IndexDirectory(ctx context.Context, dir string, allowedExts []string, recursive bool) (int, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return 0, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return 0, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("not a directory: %s", absDir)
	}

	n := 0
	err = filepath.WalkDir(absDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if path != absDir && !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if len(allowedExts) > 0 && !extensionAllowed(filepath.Ext(path), allowedExts) {
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		skipped, err := idx.IndexFile(ctx, path, allowedExts)
		if errors.Is(err, ErrEmptyContent) {
			idx.logger.Debug("skipping file without text", zap.String("path", path))
			return nil
		}
		if err != nil {
			return err
		}
		if !skipped {
			n++
		}
		return nil
	})
	return n, err
}

// DeleteDocument removes a document by ID.
func (idx *Indexer) DeleteDocument(ctx context.Context, id string) error {
	if err := idx.backend.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	idx.logger.Debug("document deleted", zap.String("id", id))
	return nil
}

// DeleteFile removes the document indexed from path. A file that was never indexed is not
// an error.
func (idx *Indexer) DeleteFile(ctx context.Context, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("absolute path: %w", err)
	}
	err = idx.DeleteDocument(ctx, FileDocID(absPath))
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	return err
}

func (idx *Indexer) extractContent(path string) (string, error) {
	if idx.extractor != nil {
		return idx.extractor.Extract(path)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

func extensionAllowed(ext string, allowed []string) bool {
	want := strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, a := range allowed {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == want {
			return true
		}
	}
	return false
}
