package handoff

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/apidoc/internal/content"
	"git.home.luguber.info/inful/apidoc/internal/foundation/errors"
)

// FileName is the name of the page tree file inside the output directory.
const FileName = "pages.json"

// Document is the file form of a build's page tree.
type Document struct {
	BuildID string        `json:"build_id"`
	Pages   int           `json:"pages"`
	Root    *content.Page `json:"root"`
}

// FileWriter writes the page tree as indented JSON into a directory. The file
// is replaced atomically so readers never see a partial tree.
type FileWriter struct {
	dir string
}

// NewFileWriter returns a writer targeting dir, which is created on first use.
func NewFileWriter(dir string) *FileWriter {
	return &FileWriter{dir: dir}
}

// Path returns the file the writer produces.
func (w *FileWriter) Path() string { return filepath.Join(w.dir, FileName) }

func (w *FileWriter) Publish(ctx context.Context, buildID string, root *content.Page) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	pages := len(content.Pages(root))
	data, err := json.MarshalIndent(Document{BuildID: buildID, Pages: pages, Root: root}, "", "  ")
	if err != nil {
		return 0, errors.ContentError("failed to encode page tree").WithCause(err).Build()
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return 0, errors.FileSystemError("failed to create output directory").WithCause(err).
			WithContext("path", w.dir).
			Build()
	}

	tmp, err := os.CreateTemp(w.dir, ".pages-*.json")
	if err != nil {
		return 0, errors.FileSystemError("failed to create staging file").WithCause(err).
			WithContext("path", w.dir).
			Build()
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return 0, errors.FileSystemError("failed to write page tree").WithCause(err).
			WithContext("path", tmp.Name()).
			Build()
	}
	if err := tmp.Close(); err != nil {
		return 0, errors.FileSystemError("failed to write page tree").WithCause(err).
			WithContext("path", tmp.Name()).
			Build()
	}
	if err := os.Rename(tmp.Name(), w.Path()); err != nil {
		return 0, errors.FileSystemError("failed to promote page tree").WithCause(err).
			WithContext("path", w.Path()).
			Build()
	}
	return pages, nil
}

func (w *FileWriter) Close() error { return nil }

// ReadFile loads a page tree written by FileWriter.
func ReadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.FileSystemError("failed to read page tree").WithCause(err).
			WithContext("path", path).
			Build()
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.WrapError(err, errors.CategoryHandoff, "invalid page tree file").
			WithContext("path", path).
			Build()
	}
	return &doc, nil
}
