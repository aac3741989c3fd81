package workflow

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/specialistvlad/flowcanvas/internal/canvas"
	"github.com/specialistvlad/flowcanvas/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugAndAPIPath(t *testing.T) {
	m := NewMeta("Ticket  Triage Flow")
	assert.Equal(t, "ticket-triage-flow", Slug(m.Name))
	assert.Equal(t, "/api/workflows/ticket-triage-flow", m.APIPath())
}

func TestNewMeta_Defaults(t *testing.T) {
	m := NewMeta("")
	assert.Equal(t, "New Workflow", m.Name)
	assert.Equal(t, "Default", m.Team)
	assert.Equal(t, 1, m.RetryCount)
	require.NoError(t, m.Validate())
}

func TestMetaValidate(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(*Meta)
		wantErr string
	}{
		{"ok with cron", func(m *Meta) { m.Triggers = []Trigger{TriggerCron}; m.CronSchedule = "*/5 * * * 1-5" }, ""},
		{"empty name", func(m *Meta) { m.Name = "  " }, "name is required"},
		{"unknown trigger", func(m *Meta) { m.Triggers = []Trigger{"webhook"} }, "unknown trigger"},
		{"cron without schedule", func(m *Meta) { m.Triggers = []Trigger{TriggerCron} }, "must have 5 fields"},
		{"cron bad field", func(m *Meta) { m.Triggers = []Trigger{TriggerCron}; m.CronSchedule = "* * * * MON" }, "invalid field"},
		{"retry too high", func(m *Meta) { m.RetryCount = 11 }, "retry count"},
		{"retry negative", func(m *Meta) { m.RetryCount = -1 }, "retry count"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := NewMeta("Flow")
			tc.mutate(&m)
			err := m.Validate()
			if tc.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestDocumentValidate_Graph(t *testing.T) {
	d := &Document{
		Meta: NewMeta("Flow"),
		Nodes: []canvas.Node{
			{ID: "a", Category: canvas.CategoryAI, Subtype: "job"},
			{ID: "a", Category: "bogus", Subtype: "x"},
		},
		Connections: []canvas.Connection{
			{ID: "c1", FromNode: "a", ToNode: "a", FromPort: canvas.PortTop, ToPort: canvas.PortLeft},
			{ID: "c2", FromNode: "a", ToNode: "z", FromPort: "middle", ToPort: canvas.PortLeft},
		},
	}
	err := d.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, `duplicate node id "a"`)
	assert.Contains(t, msg, "unknown node category")
	assert.Contains(t, msg, "to itself")
	assert.Contains(t, msg, `unknown node "z"`)
	assert.Contains(t, msg, `unknown port "middle"`)
}

func buildCanvas(t *testing.T) *canvas.Canvas {
	t.Helper()
	c := canvas.New(canvas.Size{Width: 1000, Height: 800}, catalog.Default())
	job, err := c.AddNode(canvas.CategoryAI, "job")
	require.NoError(t, err)
	filter, err := c.AddNode(canvas.CategoryAction, "filter")
	require.NoError(t, err)
	c.ApplyConfig(job.ID, map[string]any{"prompt": "Classify", "model": "gpt-4", "limits": map[string]any{"tokens": float64(200)}})
	c.ApplyConfig(filter.ID, map[string]any{"condition": "status = 'active'"})

	c.BeginDrag(filter.ID, canvas.Point{X: 300, Y: 200})
	c.UpdateDrag(canvas.Point{X: 600, Y: 420.5})
	c.EndDrag()

	c.BeginConnection(job.ID, canvas.PortRight, canvas.Point{})
	_, ok := c.EndConnection(filter.ID, canvas.PortLeft)
	require.True(t, ok)
	return c
}

func TestHCL_EncodeDecode(t *testing.T) {
	c := buildCanvas(t)
	meta := NewMeta("Ticket Triage")
	meta.ID = "42"
	meta.Triggers = []Trigger{TriggerAPI, TriggerCron}
	meta.CronSchedule = "0 * * * *"
	meta.RetryCount = 3
	doc := Snapshot(meta, c)

	src, err := EncodeHCL(doc)
	require.NoError(t, err)
	assert.Contains(t, string(src), `workflow "Ticket Triage"`)
	assert.Contains(t, string(src), `node "node-1"`)

	got, err := DecodeHCL(src, "triage.hcl")
	require.NoError(t, err)
	require.NoError(t, got.Validate())

	opts := cmpopts.IgnoreFields(canvas.Node{}, "Connections")
	if diff := cmp.Diff(doc, got, opts); diff != "" {
		t.Errorf("document mismatch (-want +got):\n%s", diff)
	}
}

func TestRestore_RebuildsCanvas(t *testing.T) {
	doc := Snapshot(NewMeta("Flow"), buildCanvas(t))

	fresh := canvas.New(canvas.Size{Width: 1000, Height: 800}, catalog.Default())
	doc.Restore(fresh)

	assert.Equal(t, doc.Connections, fresh.Connections())
	if diff := cmp.Diff(doc.Nodes, fresh.Nodes()); diff != "" {
		t.Errorf("nodes mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeHCL_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		src     string
		wantErr string
	}{
		{"syntax", `workflow "x" {`, "failed to parse"},
		{"missing workflow", `node "a" {
  category = "ai"
  subtype = "job"
  x = 1
  y = 2
}`, "missing workflow block"},
		{"bad category", `workflow "x" {}
node "a" {
  category = "trigger"
  subtype = "job"
  x = 1
  y = 2
}`, "unknown node category"},
		{"bad port", `workflow "x" {}
connection "c" {
  from = "a"
  from_port = "up"
  to = "b"
  to_port = "left"
}`, "unknown port"},
		{"missing attribute", `workflow "x" {}
node "a" {
  category = "ai"
  x = 1
  y = 2
}`, "failed to decode"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeHCL([]byte(tc.src), "test.hcl")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestDecodeHCL_Defaults(t *testing.T) {
	d, err := DecodeHCL([]byte(`workflow "Bare" {}`), "bare.hcl")
	require.NoError(t, err)
	assert.Equal(t, 1, d.RetryCount)
	assert.Empty(t, d.Triggers)
	assert.Empty(t, d.Nodes)
}
