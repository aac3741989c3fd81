// Package persist implements the workflow editor's save collaborator: a REST
// client for the platform API and a local store of HCL workflow files.
package persist

import (
	"context"

	"github.com/specialistvlad/flowcanvas/internal/workflow"
)

// SaveResult describes a stored workflow.
type SaveResult struct {
	ID        string
	NodeCount int
	Location  string
}

// Saver persists workflow documents.
type Saver interface {
	Save(ctx context.Context, doc *workflow.Document) (SaveResult, error)
}
