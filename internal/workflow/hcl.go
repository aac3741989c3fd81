package workflow

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/specialistvlad/flowcanvas/internal/canvas"
	"github.com/specialistvlad/flowcanvas/internal/nodeconfig"
	"github.com/zclconf/go-cty/cty"
)

// --- HCL schema ---

type workflowBlock struct {
	Name         string   `hcl:"name,label"`
	ID           string   `hcl:"id,optional"`
	Description  string   `hcl:"description,optional"`
	Team         string   `hcl:"team,optional"`
	Triggers     []string `hcl:"triggers,optional"`
	CronSchedule string   `hcl:"cron_schedule,optional"`
	RetryCount   *int     `hcl:"retry_count,optional"`
}

type nodeBlock struct {
	ID       string     `hcl:"id,label"`
	Category string     `hcl:"category"`
	Subtype  string     `hcl:"subtype"`
	Name     string     `hcl:"name,optional"`
	X        float64    `hcl:"x"`
	Y        float64    `hcl:"y"`
	Config   *cty.Value `hcl:"config,optional"`
}

type connectionBlock struct {
	ID       string `hcl:"id,label"`
	From     string `hcl:"from"`
	FromPort string `hcl:"from_port"`
	To       string `hcl:"to"`
	ToPort   string `hcl:"to_port"`
}

type fileRoot struct {
	Workflow    *workflowBlock     `hcl:"workflow,block"`
	Nodes       []*nodeBlock       `hcl:"node,block"`
	Connections []*connectionBlock `hcl:"connection,block"`
	Remain      hcl.Body           `hcl:",remain"`
}

// EncodeHCL renders the document in the workflow file format.
func EncodeHCL(d *Document) ([]byte, error) {
	f := hclwrite.NewEmptyFile()
	root := f.Body()

	wf := root.AppendNewBlock("workflow", []string{d.Name}).Body()
	if d.ID != "" {
		wf.SetAttributeValue("id", cty.StringVal(d.ID))
	}
	wf.SetAttributeValue("description", cty.StringVal(d.Description))
	wf.SetAttributeValue("team", cty.StringVal(d.Team))
	triggers := make([]cty.Value, 0, len(d.Triggers))
	for _, t := range d.Triggers {
		triggers = append(triggers, cty.StringVal(string(t)))
	}
	if len(triggers) == 0 {
		wf.SetAttributeValue("triggers", cty.ListValEmpty(cty.String))
	} else {
		wf.SetAttributeValue("triggers", cty.ListVal(triggers))
	}
	if d.CronSchedule != "" {
		wf.SetAttributeValue("cron_schedule", cty.StringVal(d.CronSchedule))
	}
	wf.SetAttributeValue("retry_count", cty.NumberIntVal(int64(d.RetryCount)))

	for _, n := range d.Nodes {
		root.AppendNewline()
		b := root.AppendNewBlock("node", []string{n.ID}).Body()
		b.SetAttributeValue("category", cty.StringVal(string(n.Category)))
		b.SetAttributeValue("subtype", cty.StringVal(n.Subtype))
		b.SetAttributeValue("name", cty.StringVal(n.Name))
		b.SetAttributeValue("x", cty.NumberFloatVal(n.Position.X))
		b.SetAttributeValue("y", cty.NumberFloatVal(n.Position.Y))
		if len(n.Config) > 0 {
			cfg, err := nodeconfig.ToCty(n.Config)
			if err != nil {
				return nil, fmt.Errorf("node %q: %w", n.ID, err)
			}
			b.SetAttributeValue("config", cfg)
		}
	}

	for _, c := range d.Connections {
		root.AppendNewline()
		b := root.AppendNewBlock("connection", []string{c.ID}).Body()
		b.SetAttributeValue("from", cty.StringVal(c.FromNode))
		b.SetAttributeValue("from_port", cty.StringVal(string(c.FromPort)))
		b.SetAttributeValue("to", cty.StringVal(c.ToNode))
		b.SetAttributeValue("to_port", cty.StringVal(string(c.ToPort)))
	}

	return f.Bytes(), nil
}

// DecodeHCL parses a workflow file. filename is used in diagnostics only.
func DecodeHCL(src []byte, filename string) (*Document, error) {
	parser := hclparse.NewParser()
	f, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse workflow file %s: %w", filename, diags)
	}

	var root fileRoot
	if diags := gohcl.DecodeBody(f.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode workflow file %s: %w", filename, diags)
	}
	if root.Workflow == nil {
		return nil, fmt.Errorf("%s: missing workflow block", filename)
	}

	w := root.Workflow
	d := &Document{Meta: Meta{
		ID:           w.ID,
		Name:         w.Name,
		Description:  w.Description,
		Team:         w.Team,
		Triggers:     make([]Trigger, 0, len(w.Triggers)),
		CronSchedule: w.CronSchedule,
		RetryCount:   1,
	}}
	if w.RetryCount != nil {
		d.RetryCount = *w.RetryCount
	}
	for _, t := range w.Triggers {
		d.Triggers = append(d.Triggers, Trigger(t))
	}

	for _, b := range root.Nodes {
		category, err := canvas.ParseCategory(b.Category)
		if err != nil {
			return nil, fmt.Errorf("%s: node %q: %w", filename, b.ID, err)
		}
		cfg := map[string]any{}
		if b.Config != nil && !b.Config.IsNull() {
			cfg, err = nodeconfig.ToNative(*b.Config)
			if err != nil {
				return nil, fmt.Errorf("%s: node %q: %w", filename, b.ID, err)
			}
		}
		d.Nodes = append(d.Nodes, canvas.Node{
			ID:       b.ID,
			Category: category,
			Subtype:  b.Subtype,
			Name:     b.Name,
			Position: canvas.Point{X: b.X, Y: b.Y},
			Config:   cfg,
		})
	}

	for _, b := range root.Connections {
		from, err := canvas.ParsePort(b.FromPort)
		if err != nil {
			return nil, fmt.Errorf("%s: connection %q: %w", filename, b.ID, err)
		}
		to, err := canvas.ParsePort(b.ToPort)
		if err != nil {
			return nil, fmt.Errorf("%s: connection %q: %w", filename, b.ID, err)
		}
		d.Connections = append(d.Connections, canvas.Connection{
			ID:       b.ID,
			FromNode: b.From,
			ToNode:   b.To,
			FromPort: from,
			ToPort:   to,
		})
	}
	return d, nil
}
