// Package workflow defines the saved form of a workflow: its metadata plus the
// nodes and connections of the editor canvas.
package workflow

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/specialistvlad/flowcanvas/internal/canvas"
)

// Trigger is a way a workflow can be started.
type Trigger string

const (
	TriggerAPI  Trigger = "api"
	TriggerCron Trigger = "cron"
)

// MaxRetryCount is the upper bound accepted for RetryCount.
const MaxRetryCount = 10

// Meta is the workflow metadata edited above the canvas.
type Meta struct {
	ID           string    `json:"id,omitempty"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Team         string    `json:"team"`
	Triggers     []Trigger `json:"triggers"`
	CronSchedule string    `json:"cronSchedule,omitempty"`
	RetryCount   int       `json:"retryCount"`
}

// Document is a complete workflow as handed to the save collaborator.
type Document struct {
	Meta
	Nodes       []canvas.Node       `json:"nodes"`
	Connections []canvas.Connection `json:"connections"`
}

// NewMeta returns the metadata of a freshly created workflow.
func NewMeta(name string) Meta {
	if name == "" {
		name = "New Workflow"
	}
	return Meta{Name: name, Team: "Default", Triggers: []Trigger{}, RetryCount: 1}
}

// Snapshot captures the canvas graph together with the metadata.
func Snapshot(meta Meta, c *canvas.Canvas) *Document {
	return &Document{
		Meta:        meta,
		Nodes:       c.Nodes(),
		Connections: c.Connections(),
	}
}

// Restore loads the document's graph into the canvas.
func (d *Document) Restore(c *canvas.Canvas) {
	c.Restore(d.Nodes, d.Connections)
}

// HasTrigger reports whether t is enabled.
func (m Meta) HasTrigger(t Trigger) bool {
	return slices.Contains(m.Triggers, t)
}

// APIPath is the endpoint that starts the workflow when the API trigger is
// enabled.
func (m Meta) APIPath() string {
	return "/api/workflows/" + Slug(m.Name)
}

var (
	whitespace = regexp.MustCompile(`\s+`)
	cronField  = regexp.MustCompile(`^(\*|\d+(-\d+)?)(/\d+)?(,(\*|\d+(-\d+)?)(/\d+)?)*$`)
)

// Slug lowercases name and joins its words with dashes.
func Slug(name string) string {
	return whitespace.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
}

// Validate checks the metadata.
func (m Meta) Validate() error {
	var errs []error
	if strings.TrimSpace(m.Name) == "" {
		errs = append(errs, errors.New("name is required"))
	}
	for _, t := range m.Triggers {
		if t != TriggerAPI && t != TriggerCron {
			errs = append(errs, fmt.Errorf("unknown trigger %q", t))
		}
	}
	if m.HasTrigger(TriggerCron) {
		if err := validateCron(m.CronSchedule); err != nil {
			errs = append(errs, err)
		}
	}
	if m.RetryCount < 0 || m.RetryCount > MaxRetryCount {
		errs = append(errs, fmt.Errorf("retry count %d outside 0..%d", m.RetryCount, MaxRetryCount))
	}
	return errors.Join(errs...)
}

// Validate checks the metadata and the graph's referential integrity.
func (d *Document) Validate() error {
	errs := []error{d.Meta.Validate()}
	ids := make(map[string]struct{}, len(d.Nodes))
	for _, n := range d.Nodes {
		if n.ID == "" {
			errs = append(errs, errors.New("node without id"))
			continue
		}
		if _, dup := ids[n.ID]; dup {
			errs = append(errs, fmt.Errorf("duplicate node id %q", n.ID))
		}
		ids[n.ID] = struct{}{}
		if _, err := canvas.ParseCategory(string(n.Category)); err != nil {
			errs = append(errs, fmt.Errorf("node %q: %w", n.ID, err))
		}
	}
	for _, c := range d.Connections {
		if c.FromNode == c.ToNode {
			errs = append(errs, fmt.Errorf("connection %q connects node %q to itself", c.ID, c.FromNode))
		}
		for _, end := range []string{c.FromNode, c.ToNode} {
			if _, ok := ids[end]; !ok {
				errs = append(errs, fmt.Errorf("connection %q references unknown node %q", c.ID, end))
			}
		}
		for _, p := range []canvas.Port{c.FromPort, c.ToPort} {
			if _, err := canvas.ParsePort(string(p)); err != nil {
				errs = append(errs, fmt.Errorf("connection %q: %w", c.ID, err))
			}
		}
	}
	return errors.Join(errs...)
}

// validateCron accepts the standard five-field crontab syntax.
func validateCron(expr string) error {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return fmt.Errorf("cron schedule %q must have 5 fields", expr)
	}
	for _, f := range fields {
		if !cronField.MatchString(f) {
			return fmt.Errorf("cron schedule %q: invalid field %q", expr, f)
		}
	}
	return nil
}
