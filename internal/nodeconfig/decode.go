package nodeconfig

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// Decode converts submitted form values into the typed configuration of the
// subtype and validates it. Keys unknown to a typed subtype are ignored;
// untyped subtypes keep every key.
func Decode(subtype string, values map[string]any) (Config, error) {
	cfg := Blank(subtype)
	switch c := cfg.(type) {
	case *RawConfig:
		for k, v := range values {
			c.Data[k] = v
		}
	case *APIConfig:
		method := c.Method
		if err := decodeObject(values, c); err != nil {
			return nil, fmt.Errorf("%s: %w", subtype, err)
		}
		c.Method = method
	default:
		if err := decodeObject(values, cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", subtype, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", subtype, err)
	}
	return cfg, nil
}

// FromNode rebuilds the typed view of an existing node configuration without
// validating it.
func FromNode(subtype string, values map[string]any) Config {
	cfg := Blank(subtype)
	switch c := cfg.(type) {
	case *RawConfig:
		for k, v := range values {
			c.Data[k] = v
		}
	case *APIConfig:
		method := c.Method
		_ = decodeObject(values, c)
		c.Method = method
	default:
		_ = decodeObject(values, cfg)
	}
	return cfg
}

// decodeObject overlays values onto target, a pointer to a struct whose
// fields carry cty tags. Fields that are absent or null keep their current
// value.
func decodeObject(values map[string]any, target any) error {
	current, ty, err := toCty(target)
	if err != nil {
		return err
	}
	provided, err := ToCty(values)
	if err != nil {
		return err
	}

	attrs := current.AsValueMap()
	if attrs == nil {
		attrs = make(map[string]cty.Value)
	}
	for name, want := range ty.AttributeTypes() {
		if !provided.Type().IsObjectType() || !provided.Type().HasAttribute(name) {
			continue
		}
		v := provided.GetAttr(name)
		if v.IsNull() {
			continue
		}
		if want == cty.String && !v.Type().IsPrimitiveType() {
			// Nested JSON submitted where the form expects JSON text.
			buf, err := ctyjson.Marshal(v, v.Type())
			if err != nil {
				return fmt.Errorf("field %q: %w", name, err)
			}
			attrs[name] = cty.StringVal(string(buf))
			continue
		}
		converted, err := convert.Convert(v, want)
		if err != nil {
			return fmt.Errorf("field %q: cannot convert %s to %s: %w", name, v.Type().FriendlyName(), want.FriendlyName(), err)
		}
		attrs[name] = converted
	}
	return gocty.FromCtyValue(cty.ObjectVal(attrs), target)
}

func toCty(target any) (cty.Value, cty.Type, error) {
	ty, err := gocty.ImpliedType(target)
	if err != nil {
		return cty.NilVal, cty.NilType, fmt.Errorf("unable to infer cty.Type: %w", err)
	}
	v, err := gocty.ToCtyValue(reflect.ValueOf(target).Elem().Interface(), ty)
	if err != nil {
		return cty.NilVal, cty.NilType, err
	}
	return v, ty, nil
}

// ToCty converts a JSON-shaped configuration map into a cty object.
func ToCty(values map[string]any) (cty.Value, error) {
	if values == nil {
		return cty.EmptyObjectVal, nil
	}
	buf, err := json.Marshal(values)
	if err != nil {
		return cty.NilVal, fmt.Errorf("values are not JSON-serializable: %w", err)
	}
	ty, err := ctyjson.ImpliedType(buf)
	if err != nil {
		return cty.NilVal, err
	}
	return ctyjson.Unmarshal(buf, ty)
}

// ToNative converts a cty object back into a JSON-shaped configuration map.
// Numbers come back as float64, matching encoding/json.
func ToNative(v cty.Value) (map[string]any, error) {
	if v.IsNull() {
		return map[string]any{}, nil
	}
	if !v.IsWhollyKnown() {
		return nil, fmt.Errorf("configuration contains unknown values")
	}
	if !v.Type().IsObjectType() && !v.Type().IsMapType() {
		return nil, fmt.Errorf("configuration must be an object, got %s", v.Type().FriendlyName())
	}
	buf, err := ctyjson.Marshal(v, v.Type())
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := json.Unmarshal(buf, &out); err != nil {
		return nil, err
	}
	return out, nil
}
