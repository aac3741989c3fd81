package nodeconfig

import (
	"encoding/json"
	"fmt"
	"net/url"
	"slices"
)

// Config is the typed configuration of one node subtype.
type Config interface {
	Subtype() string
	Validate() error
	// Values returns the map merged into the node's configuration.
	Values() map[string]any
}

// FormProvider is implemented by configs that render a dedicated sub-form.
type FormProvider interface {
	Form() []Field
}

// FieldKind selects the input widget of a form field.
type FieldKind string

const (
	FieldText     FieldKind = "text"
	FieldTextArea FieldKind = "textarea"
	FieldSelect   FieldKind = "select"
	FieldJSON     FieldKind = "json"
)

// Field describes a single input of a configuration sub-form.
type Field struct {
	Name        string    `json:"name"`
	Label       string    `json:"label"`
	Kind        FieldKind `json:"kind"`
	Placeholder string    `json:"placeholder,omitempty"`
	Options     []string  `json:"options,omitempty"`
	Default     string    `json:"default,omitempty"`
	Required    bool      `json:"required,omitempty"`
}

// Models offered by the job sub-form.
var Models = []string{"gpt-4", "gpt-4-turbo", "claude-3"}

// JobConfig configures an AI prompt job.
type JobConfig struct {
	Prompt       string `cty:"prompt"`
	Model        string `cty:"model"`
	OutputSchema string `cty:"outputSchema"`
}

func (c *JobConfig) Subtype() string { return "job" }

func (c *JobConfig) Validate() error {
	if !slices.Contains(Models, c.Model) {
		return fmt.Errorf("model %q is not one of %v", c.Model, Models)
	}
	if c.OutputSchema != "" && !json.Valid([]byte(c.OutputSchema)) {
		return fmt.Errorf("outputSchema is not valid JSON")
	}
	return nil
}

func (c *JobConfig) Values() map[string]any {
	return compact(map[string]any{
		"prompt":       c.Prompt,
		"model":        c.Model,
		"outputSchema": c.OutputSchema,
	})
}

func (c *JobConfig) Form() []Field {
	return []Field{
		{Name: "prompt", Label: "Prompt", Kind: FieldTextArea, Placeholder: "Enter your AI prompt here..."},
		{Name: "model", Label: "Model", Kind: FieldSelect, Options: Models, Default: "gpt-4"},
		{Name: "outputSchema", Label: "Expected Output Schema (JSON)", Kind: FieldJSON, Placeholder: `{"result": "string", "confidence": "number"}`},
	}
}

// APIConfig configures the GET and POST API resources.
type APIConfig struct {
	Method  string `cty:"method"`
	URL     string `cty:"url"`
	Headers string `cty:"headers"`
	Body    string `cty:"body"`
}

func (c *APIConfig) Subtype() string {
	if c.Method == "POST" {
		return "post-api"
	}
	return "get-api"
}

func (c *APIConfig) Validate() error {
	if c.URL != "" {
		u, err := url.Parse(c.URL)
		if err != nil {
			return fmt.Errorf("url: %w", err)
		}
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("url %q must be an absolute http(s) URL", c.URL)
		}
	}
	if c.Headers != "" {
		var h map[string]any
		if err := json.Unmarshal([]byte(c.Headers), &h); err != nil {
			return fmt.Errorf("headers must be a JSON object: %w", err)
		}
	}
	if c.Body != "" {
		if c.Method != "POST" {
			return fmt.Errorf("body is only allowed for POST requests")
		}
		if !json.Valid([]byte(c.Body)) {
			return fmt.Errorf("body is not valid JSON")
		}
	}
	return nil
}

func (c *APIConfig) Values() map[string]any {
	return compact(map[string]any{
		"url":     c.URL,
		"headers": c.Headers,
		"body":    c.Body,
	})
}

func (c *APIConfig) Form() []Field {
	fields := []Field{
		{Name: "url", Label: "API URL", Kind: FieldText, Placeholder: "https://api.example.com/endpoint"},
		{Name: "headers", Label: "Headers (JSON)", Kind: FieldJSON, Placeholder: `{"Authorization": "Bearer {{token}}", "Content-Type": "application/json"}`},
	}
	if c.Method == "POST" {
		fields = append(fields, Field{Name: "body", Label: "Request Body (JSON)", Kind: FieldJSON, Placeholder: `{"data": "{{input.data}}"}`})
	}
	return fields
}

// FilterConfig configures the filter action.
type FilterConfig struct {
	Condition string `cty:"condition"`
}

func (c *FilterConfig) Subtype() string { return "filter" }

func (c *FilterConfig) Validate() error {
	if c.Condition == "" {
		return fmt.Errorf("condition is required")
	}
	return nil
}

func (c *FilterConfig) Values() map[string]any {
	return map[string]any{"condition": c.Condition}
}

func (c *FilterConfig) Form() []Field {
	return []Field{
		{Name: "condition", Label: "Filter Condition (JSONata)", Kind: FieldText, Placeholder: "status = 'active'", Required: true},
	}
}

// RawConfig holds the free-form JSON configuration of every other subtype.
type RawConfig struct {
	Kind string
	Data map[string]any
}

func (c *RawConfig) Subtype() string { return c.Kind }

func (c *RawConfig) Validate() error {
	if _, err := json.Marshal(c.Data); err != nil {
		return fmt.Errorf("configuration is not JSON-serializable: %w", err)
	}
	return nil
}

func (c *RawConfig) Values() map[string]any {
	out := make(map[string]any, len(c.Data))
	for k, v := range c.Data {
		out[k] = v
	}
	return out
}

// Blank returns the zero configuration of a subtype with defaults applied.
func Blank(subtype string) Config {
	switch subtype {
	case "job":
		return &JobConfig{Model: "gpt-4"}
	case "get-api":
		return &APIConfig{Method: "GET"}
	case "post-api":
		return &APIConfig{Method: "POST"}
	case "filter":
		return &FilterConfig{}
	default:
		return &RawConfig{Kind: subtype, Data: map[string]any{}}
	}
}

// Form returns the sub-form fields of a subtype. Subtypes without a dedicated
// form get a single JSON editor.
func Form(subtype string) []Field {
	if fp, ok := Blank(subtype).(FormProvider); ok {
		return fp.Form()
	}
	return []Field{{Name: "config", Label: "Configuration (JSON)", Kind: FieldJSON}}
}

func compact(m map[string]any) map[string]any {
	for k, v := range m {
		if s, ok := v.(string); ok && s == "" {
			delete(m, k)
		}
	}
	return m
}
