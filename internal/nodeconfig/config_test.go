package nodeconfig

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_Job(t *testing.T) {
	cfg, err := Decode("job", map[string]any{
		"prompt":       "Summarize the ticket",
		"outputSchema": `{"result": "string"}`,
		"unknown":      "dropped",
	})
	require.NoError(t, err)

	job, ok := cfg.(*JobConfig)
	require.True(t, ok)
	assert.Equal(t, "gpt-4", job.Model, "model defaults to gpt-4")
	want := map[string]any{
		"prompt":       "Summarize the ticket",
		"model":        "gpt-4",
		"outputSchema": `{"result": "string"}`,
	}
	if diff := cmp.Diff(want, cfg.Values()); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode_JobRejectsUnknownModel(t *testing.T) {
	_, err := Decode("job", map[string]any{"model": "gpt-2"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gpt-2")
}

func TestDecode_JobRejectsInvalidSchema(t *testing.T) {
	_, err := Decode("job", map[string]any{"outputSchema": "{not json"})
	require.Error(t, err)
}

func TestDecode_NestedJSONBecomesText(t *testing.T) {
	cfg, err := Decode("get-api", map[string]any{
		"url":     "https://api.example.com/items",
		"headers": map[string]any{"Authorization": "Bearer x"},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"Authorization": "Bearer x"}`, cfg.Values()["headers"].(string))
}

func TestDecode_NumbersCoercedToText(t *testing.T) {
	cfg, err := Decode("filter", map[string]any{"condition": 42})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"condition": "42"}, cfg.Values())
}

func TestDecode_API(t *testing.T) {
	testCases := []struct {
		name    string
		subtype string
		values  map[string]any
		wantErr string
	}{
		{"get ok", "get-api", map[string]any{"url": "https://example.com/a"}, ""},
		{"relative url", "get-api", map[string]any{"url": "/a"}, "absolute"},
		{"bad headers", "get-api", map[string]any{"headers": "[1,2]"}, "headers"},
		{"get with body", "get-api", map[string]any{"body": `{"a":1}`}, "only allowed for POST"},
		{"post with body", "post-api", map[string]any{"url": "http://x.io", "body": `{"a":1}`}, ""},
		{"post bad body", "post-api", map[string]any{"body": "{"}, "not valid JSON"},
		{"method cannot be overridden", "get-api", map[string]any{"method": "POST", "body": "{}"}, "only allowed for POST"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := Decode(tc.subtype, tc.values)
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.subtype, cfg.Subtype())
		})
	}
}

func TestDecode_FilterRequiresCondition(t *testing.T) {
	_, err := Decode("filter", map[string]any{})
	require.Error(t, err)
}

func TestDecode_RawKeepsEverything(t *testing.T) {
	values := map[string]any{"expression": "$.items", "limit": float64(3)}
	cfg, err := Decode("map", values)
	require.NoError(t, err)
	assert.Equal(t, "map", cfg.Subtype())
	assert.Equal(t, values, cfg.Values())
}

func TestDecode_RawRejectsUnserializable(t *testing.T) {
	_, err := Decode("merge", map[string]any{"fn": func() {}})
	require.Error(t, err)
}

func TestFromNode_IgnoresInvalid(t *testing.T) {
	cfg := FromNode("job", map[string]any{"model": "gpt-2", "prompt": "hi"})
	job := cfg.(*JobConfig)
	assert.Equal(t, "gpt-2", job.Model)
	assert.Equal(t, "hi", job.Prompt)
}

func TestForm(t *testing.T) {
	testCases := []struct {
		subtype string
		names   []string
	}{
		{"job", []string{"prompt", "model", "outputSchema"}},
		{"get-api", []string{"url", "headers"}},
		{"post-api", []string{"url", "headers", "body"}},
		{"filter", []string{"condition"}},
		{"foreach", []string{"config"}},
	}
	for _, tc := range testCases {
		t.Run(tc.subtype, func(t *testing.T) {
			var names []string
			for _, f := range Form(tc.subtype) {
				names = append(names, f.Name)
			}
			assert.Equal(t, tc.names, names)
		})
	}
}

func TestToCty_RoundTrip(t *testing.T) {
	in := map[string]any{
		"prompt": "hi",
		"limit":  float64(5),
		"nested": map[string]any{"on": true, "tags": []any{"a", "b"}},
	}
	v, err := ToCty(in)
	require.NoError(t, err)

	out, err := ToNative(v)
	require.NoError(t, err)
	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}
