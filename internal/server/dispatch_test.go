package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/specialistvlad/flowcanvas/internal/canvas"
	"github.com/specialistvlad/flowcanvas/internal/catalog"
	"github.com/specialistvlad/flowcanvas/internal/persist"
	"github.com/specialistvlad/flowcanvas/internal/session"
	"github.com/specialistvlad/flowcanvas/internal/testutil"
	"github.com/specialistvlad/flowcanvas/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, opts Options) (*Server, context.Context) {
	t.Helper()
	ctx, _ := testutil.Context(t)
	if opts.Size == (canvas.Size{}) {
		opts.Size = canvas.Size{Width: 800, Height: 600}
	}
	s := New(ctx, opts)
	t.Cleanup(s.Close)
	return s, ctx
}

// point mirrors what the browser sends: JSON numbers decoded as float64.
func point(x, y float64) []any {
	return []any{map[string]any{"x": x, "y": y}}
}

func TestDispatch_GestureSequence(t *testing.T) {
	s, ctx := newTestServer(t, Options{})
	sess := s.newSession()

	steps := []struct {
		event string
		args  []any
	}{
		{EventAddNode, []any{map[string]any{"type": "ai", "subtype": "job"}}},
		{EventAddNode, []any{map[string]any{"type": "resource", "subtype": "get-api"}}},
		{EventCloseConfig, nil},
		{EventPointerDown, point(300, 200)},
		{EventPointerMove, point(500, 300)},
		{EventPointerUp, point(500, 300)},
		{EventPointerDown, point(364, 200)},
		{EventPointerMove, point(420, 260)},
		{EventPointerUp, point(436, 300)},
	}
	var u session.Update
	for _, step := range steps {
		var err error
		u, err = s.dispatch(ctx, sess, step.event, step.args)
		require.NoError(t, err, step.event)
	}

	require.Len(t, u.Scene.Nodes, 2)
	assert.Equal(t, canvas.Point{X: 500, Y: 300}, u.Scene.Nodes[1].Position)
	require.Len(t, u.Scene.Edges, 1)
	doc := sess.Document()
	assert.Equal(t, canvas.PortRight, doc.Connections[0].FromPort)
	assert.Equal(t, canvas.PortLeft, doc.Connections[0].ToPort)
}

func TestDispatch_RejectsBadPayloads(t *testing.T) {
	s, ctx := newTestServer(t, Options{})
	sess := s.newSession()

	tests := []struct {
		name  string
		event string
		args  []any
		want  string
	}{
		{"missing payload", EventPointerDown, nil, "missing payload"},
		{"wrong shape", EventPointerMove, []any{"left"}, "invalid payload"},
		{"bad category", EventAddNode, []any{map[string]any{"type": "robot", "subtype": "job"}}, "unknown node category"},
		{"zero size", EventResize, []any{map[string]any{"width": 0, "height": 10}}, "invalid canvas size"},
		{"no loader", EventLoad, []any{map[string]any{"id": "x"}}, "not configured"},
		{"unknown event", "explode", nil, "unknown event"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.dispatch(ctx, sess, tc.event, tc.args)
			require.ErrorContains(t, err, tc.want)
		})
	}
}

func TestDispatch_SaveAndLoad(t *testing.T) {
	store := persist.NewFileStore(t.TempDir())
	s, ctx := newTestServer(t, Options{Saver: store, Loader: store})
	sess := s.newSession()

	_, err := s.dispatch(ctx, sess, EventUpdateMeta, []any{map[string]any{
		"name": "Lead Scoring", "team": "Sales", "triggers": []any{"api"}, "retryCount": 3,
	}})
	require.NoError(t, err)
	_, err = s.dispatch(ctx, sess, EventAddNode, []any{map[string]any{"type": "action", "subtype": "filter"}})
	require.NoError(t, err)
	u, err := s.dispatch(ctx, sess, EventSubmitConfig, []any{map[string]any{
		"nodeId": "node-1", "values": map[string]any{"condition": "score > 50"},
	}})
	require.NoError(t, err)
	require.NotNil(t, u.Notice)
	assert.Equal(t, session.LevelInfo, u.Notice.Level)

	u, err = s.dispatch(ctx, sess, EventSave, nil)
	require.NoError(t, err)
	require.NotNil(t, u.Notice)
	require.Equal(t, session.LevelInfo, u.Notice.Level, u.Notice.Message)

	other := s.newSession()
	u, err = s.dispatch(ctx, other, EventLoad, []any{map[string]any{"id": "lead-scoring"}})
	require.NoError(t, err)
	require.Len(t, u.Scene.Nodes, 1)
	meta := other.Meta()
	assert.Equal(t, "Lead Scoring", meta.Name)
	assert.Equal(t, 3, meta.RetryCount)
	assert.Equal(t, []workflow.Trigger{workflow.TriggerAPI}, meta.Triggers)
	assert.Equal(t, "score > 50", other.Document().Nodes[0].Config["condition"])
}

func TestHTTPEndpoints(t *testing.T) {
	s, _ := newTestServer(t, Options{})
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	res, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res, err = http.Get(srv.URL + "/catalog")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	var entries []catalog.Entry
	require.NoError(t, json.NewDecoder(res.Body).Decode(&entries))
	assert.Len(t, entries, catalog.Default().Len())
	assert.Equal(t, canvas.CategoryAI, entries[0].Category)
}
