package persist

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/specialistvlad/flowcanvas/internal/ctxlog"
	"github.com/specialistvlad/flowcanvas/internal/fsutil"
	"github.com/specialistvlad/flowcanvas/internal/workflow"
)

const fileExt = ".hcl"

// FileStore keeps one HCL file per workflow in a directory.
type FileStore struct {
	dir string
}

// NewFileStore returns a store rooted at dir. The directory is created on the
// first save.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Save validates doc and writes it to <id>.hcl, using the name's slug as id
// for workflows that have none.
func (s *FileStore) Save(ctx context.Context, doc *workflow.Document) (SaveResult, error) {
	logger := ctxlog.FromContext(ctx)

	if err := doc.Validate(); err != nil {
		return SaveResult{}, fmt.Errorf("invalid workflow: %w", err)
	}
	id := doc.ID
	if id == "" {
		id = workflow.Slug(doc.Name)
	}
	if strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return SaveResult{}, fmt.Errorf("invalid workflow id %q", id)
	}

	stored := *doc
	stored.ID = id
	src, err := workflow.EncodeHCL(&stored)
	if err != nil {
		return SaveResult{}, err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return SaveResult{}, fmt.Errorf("failed to create workflow directory: %w", err)
	}
	path := filepath.Join(s.dir, id+fileExt)
	if err := fsutil.WriteFileAtomic(path, src, 0o644); err != nil {
		return SaveResult{}, fmt.Errorf("failed to write workflow file: %w", err)
	}

	logger.Info("Workflow saved to file.", "id", id, "path", path)
	return SaveResult{ID: id, NodeCount: len(doc.Nodes), Location: path}, nil
}

// List returns the ids of all stored workflows, sorted.
func (s *FileStore) List() ([]string, error) {
	files, err := fsutil.FindFilesByExtension(s.dir, fileExt, 0)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(files))
	for _, f := range files {
		ids = append(ids, strings.TrimSuffix(filepath.Base(f), fileExt))
	}
	sort.Strings(ids)
	return ids, nil
}

// Load reads the workflow stored under id.
func (s *FileStore) Load(id string) (*workflow.Document, error) {
	if strings.ContainsAny(id, `/\`) {
		return nil, fmt.Errorf("invalid workflow id %q", id)
	}
	return LoadFile(filepath.Join(s.dir, id+fileExt))
}

// LoadFile reads a workflow file from an arbitrary path.
func LoadFile(path string) (*workflow.Document, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read workflow file: %w", err)
	}
	return workflow.DecodeHCL(src, path)
}
