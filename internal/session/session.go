// Package session binds one editor canvas to its workflow metadata, the
// open configuration form and the save collaborator. All methods are safe for
// concurrent use; events are applied one at a time in arrival order.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/specialistvlad/flowcanvas/internal/canvas"
	"github.com/specialistvlad/flowcanvas/internal/catalog"
	"github.com/specialistvlad/flowcanvas/internal/ctxlog"
	"github.com/specialistvlad/flowcanvas/internal/nodeconfig"
	"github.com/specialistvlad/flowcanvas/internal/persist"
	"github.com/specialistvlad/flowcanvas/internal/workflow"
)

// Level is the severity of a Notice.
type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Notice is a user-facing message. Retry marks a failed save that can be
// repeated with RetrySave.
type Notice struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
	Retry   bool   `json:"retry,omitempty"`
}

// FormView is the configuration panel of one node.
type FormView struct {
	NodeID    string              `json:"nodeId"`
	Category  canvas.Category     `json:"type"`
	Subtype   string              `json:"subtype"`
	Name      string              `json:"name"`
	Fields    []nodeconfig.Field  `json:"fields"`
	Values    map[string]any      `json:"values"`
	Available []canvas.DataSource `json:"availableData"`
	Meta      workflow.Meta       `json:"workflow"`
	APIPath   string              `json:"apiPath,omitempty"`
}

// Update is the result of applying one event.
type Update struct {
	Scene      canvas.Scene `json:"scene"`
	OpenConfig *FormView    `json:"openConfig,omitempty"`
	Notice     *Notice      `json:"notice,omitempty"`
}

// Session is one user's editing session.
type Session struct {
	mu      sync.Mutex
	canvas  *canvas.Canvas
	catalog *catalog.Catalog
	saver   persist.Saver
	logger  *slog.Logger

	meta       workflow.Meta
	openNodeID string
	saveFailed bool
	saving     bool
}

// Options configures a new Session.
type Options struct {
	Size    canvas.Size
	Catalog *catalog.Catalog
	Saver   persist.Saver
	Logger  *slog.Logger
	// Name is the initial workflow name.
	Name string
}

// New creates a session with an empty canvas.
func New(opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cat := opts.Catalog
	if cat == nil {
		cat = catalog.Default()
	}
	return &Session{
		canvas:  canvas.New(opts.Size, cat, canvas.WithLogger(logger)),
		catalog: cat,
		saver:   opts.Saver,
		logger:  logger,
		meta:    workflow.NewMeta(opts.Name),
	}
}

// Scene returns the current render data without changing anything.
func (s *Session) Scene() Update {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.update(nil)
}

// Meta returns the workflow metadata.
func (s *Session) Meta() workflow.Meta {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.meta
}

// Document captures the whole workflow.
func (s *Session) Document() *workflow.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return workflow.Snapshot(s.meta, s.canvas)
}

// Press starts a gesture at p: a connection on a port, a drag on a node body.
func (s *Session) Press(p canvas.Point) Update {
	s.mu.Lock()
	defer s.mu.Unlock()

	hit := s.canvas.HitTest(p)
	switch hit.Kind {
	case canvas.HitPort:
		s.canvas.BeginConnection(hit.NodeID, hit.Port, p)
	case canvas.HitNode:
		s.canvas.BeginDrag(hit.NodeID, p)
	}
	return s.update(nil)
}

// Move feeds a pointer move into whichever gesture is active.
func (s *Session) Move(p canvas.Point) Update {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.canvas.UpdateDrag(p)
	s.canvas.UpdateConnectionDrag(p)
	return s.update(nil)
}

// Release ends the gesture at p. A pending connection is committed when p is
// over a port of another node and discarded otherwise. A press without
// movement opens the node's configuration form.
func (s *Session) Release(p canvas.Point) Update {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.canvas.Mode() == "connecting" {
		hit := s.canvas.HitTest(p)
		if hit.Kind != canvas.HitPort {
			s.canvas.CancelInteraction()
			return s.update(nil)
		}
		if _, ok := s.canvas.EndConnection(hit.NodeID, hit.Port); !ok {
			s.logger.Debug("Connection discarded.", "target", hit.NodeID)
		}
		return s.update(nil)
	}

	r := s.canvas.EndDrag()
	if r.Click {
		s.openNodeID = r.NodeID
	}
	return s.update(nil)
}

// Leave abandons the gesture in progress, as when the pointer leaves the
// canvas.
func (s *Session) Leave() Update {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.canvas.CancelInteraction()
	return s.update(nil)
}

// Resize changes the canvas bounds.
func (s *Session) Resize(size canvas.Size) Update {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.canvas.Resize(size)
	return s.update(nil)
}

// AddNode places a node of a catalog type and opens its configuration form.
func (s *Session) AddNode(category canvas.Category, subtype string) Update {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.canvas.AddNode(category, subtype)
	if err != nil {
		return s.update(&Notice{Level: LevelError, Message: err.Error()})
	}
	s.openNodeID = n.ID
	return s.update(nil)
}

// SubmitConfig validates the submitted form values and merges them into the
// node's configuration. On failure the form stays open.
func (s *Session) SubmitConfig(nodeID string, values map[string]any) Update {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.canvas.Node(nodeID)
	if !ok {
		return s.update(&Notice{Level: LevelError, Message: fmt.Sprintf("node %q not found", nodeID)})
	}
	values, err := formValues(n.Subtype, values)
	if err != nil {
		s.openNodeID = nodeID
		return s.update(&Notice{Level: LevelError, Message: err.Error()})
	}
	cfg, err := nodeconfig.Decode(n.Subtype, values)
	if err != nil {
		s.openNodeID = nodeID
		return s.update(&Notice{Level: LevelError, Message: err.Error()})
	}
	s.canvas.ApplyConfig(nodeID, cfg.Values())
	s.openNodeID = ""
	return s.update(&Notice{Level: LevelInfo, Message: fmt.Sprintf("%s configured", n.Name)})
}

// CloseConfig closes the configuration form without applying anything.
func (s *Session) CloseConfig() Update {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.openNodeID = ""
	return s.update(nil)
}

// UpdateMeta replaces the workflow metadata. The stored workflow ID is kept.
// Invalid metadata is accepted for further editing and reported.
func (s *Session) UpdateMeta(meta workflow.Meta) Update {
	s.mu.Lock()
	defer s.mu.Unlock()

	meta.ID = s.meta.ID
	if meta.Triggers == nil {
		meta.Triggers = []workflow.Trigger{}
	}
	s.meta = meta
	if err := meta.Validate(); err != nil {
		return s.update(&Notice{Level: LevelError, Message: err.Error()})
	}
	return s.update(nil)
}

// Load replaces the canvas graph and metadata with a stored workflow.
func (s *Session) Load(doc *workflow.Document) Update {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.canvas.CancelInteraction()
	doc.Restore(s.canvas)
	s.meta = doc.Meta
	if s.meta.Triggers == nil {
		s.meta.Triggers = []workflow.Trigger{}
	}
	s.openNodeID = ""
	s.saveFailed = false
	return s.update(&Notice{Level: LevelInfo, Message: fmt.Sprintf("Loaded %q", doc.Name)})
}

// Save hands the current workflow to the save collaborator. A failure is
// reported as a retryable notice and leaves the canvas untouched. The lock
// is not held during the call, so pointer events keep flowing meanwhile.
func (s *Session) Save(ctx context.Context) Update {
	return s.save(ctx, false)
}

// RetrySave repeats a failed save with the current workflow state.
func (s *Session) RetrySave(ctx context.Context) Update {
	return s.save(ctx, true)
}

func (s *Session) save(ctx context.Context, retry bool) Update {
	logger := ctxlog.FromContext(ctx)

	s.mu.Lock()
	switch {
	case retry && !s.saveFailed:
		defer s.mu.Unlock()
		return s.update(&Notice{Level: LevelInfo, Message: "Nothing to retry"})
	case s.saver == nil:
		defer s.mu.Unlock()
		return s.update(&Notice{Level: LevelError, Message: "Saving is not configured"})
	case s.saving:
		defer s.mu.Unlock()
		return s.update(&Notice{Level: LevelInfo, Message: "Save already in progress"})
	}
	doc := workflow.Snapshot(s.meta, s.canvas)
	if err := doc.Validate(); err != nil {
		defer s.mu.Unlock()
		return s.update(&Notice{Level: LevelError, Message: fmt.Sprintf("Workflow is invalid: %v", err)})
	}
	saver := s.saver
	s.saving = true
	s.mu.Unlock()

	res, err := saver.Save(ctx, doc)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.saving = false
	if err != nil {
		logger.Error("Failed to save workflow.", "workflow", doc.Name, "error", err)
		s.saveFailed = true
		return s.update(&Notice{
			Level:   LevelError,
			Message: fmt.Sprintf("Failed to save workflow: %v", err),
			Retry:   true,
		})
	}
	s.saveFailed = false
	s.meta.ID = res.ID
	logger.Info("Workflow saved.", "workflow", doc.Name, "id", res.ID, "nodes", res.NodeCount)
	return s.update(&Notice{
		Level:   LevelInfo,
		Message: fmt.Sprintf("Workflow %q saved with %d nodes", doc.Name, len(doc.Nodes)),
	})
}

// update assembles the response; callers hold the lock.
func (s *Session) update(notice *Notice) Update {
	u := Update{Scene: s.canvas.Scene(), Notice: notice}
	if s.openNodeID != "" {
		if n, ok := s.canvas.Node(s.openNodeID); ok {
			u.OpenConfig = s.form(n)
		} else {
			s.openNodeID = ""
		}
	}
	return u
}

func (s *Session) form(n canvas.Node) *FormView {
	fields := nodeconfig.Form(n.Subtype)
	available := make([]canvas.DataSource, 0)
	for _, d := range s.canvas.AvailableData() {
		if d.NodeID != n.ID {
			available = append(available, d)
		}
	}
	v := &FormView{
		NodeID:    n.ID,
		Category:  n.Category,
		Subtype:   n.Subtype,
		Name:      n.Name,
		Fields:    fields,
		Values:    nodeconfig.FromNode(n.Subtype, n.Config).Values(),
		Available: available,
		Meta:      s.meta,
	}
	if s.meta.HasTrigger(workflow.TriggerAPI) {
		v.APIPath = s.meta.APIPath()
	}
	return v
}

// formValues unwraps the single JSON editor of untyped subtypes, whose value
// arrives as text holding an object.
func formValues(subtype string, values map[string]any) (map[string]any, error) {
	if _, typed := nodeconfig.Blank(subtype).(nodeconfig.FormProvider); typed || len(values) != 1 {
		return values, nil
	}
	text, ok := values["config"].(string)
	if !ok {
		return values, nil
	}
	out := map[string]any{}
	if text == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return nil, fmt.Errorf("configuration must be a JSON object: %w", err)
	}
	return out, nil
}
