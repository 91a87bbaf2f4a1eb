package domain

import "encoding/json"

// cloneExtensionMap deep-copies an open attribute map so callers never share
// nested state with the entity. Values are round-tripped through JSON, which
// also normalizes them to the JSON-compatible shapes the persistence layer
// stores.
func cloneExtensionMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	raw, err := json.Marshal(in)
	if err != nil {
		// Attribute values are expected to be JSON-compatible; fall back to a
		// shallow copy for anything exotic rather than dropping data.
		out := make(map[string]any, len(in))
		for k, v := range in {
			out[k] = v
		}
		return out
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

func assignExtensionMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	return cloneExtensionMap(in)
}

// SetAttributes clones the provided map into the treatment attributes field.
func (t *Treatment) SetAttributes(attrs map[string]any) {
	t.Attributes = assignExtensionMap(attrs)
}

// AttributesMap returns a deep copy of the treatment attributes map.
func (t Treatment) AttributesMap() map[string]any {
	return cloneExtensionMap(t.Attributes)
}

// SetAttribute stores a single named attribute outside the declared fields.
func (t *Treatment) SetAttribute(name string, value any) {
	if t.Attributes == nil {
		t.Attributes = make(map[string]any)
	}
	t.Attributes[name] = value
}

// Attribute retrieves a named attribute; the second return reports presence.
func (t Treatment) Attribute(name string) (any, bool) {
	v, ok := t.Attributes[name]
	return v, ok
}

// SetAttributes clones the provided map into the data file attributes field.
func (d *DataFile) SetAttributes(attrs map[string]any) {
	d.Attributes = assignExtensionMap(attrs)
}

// AttributesMap returns a deep copy of the data file attributes map.
func (d DataFile) AttributesMap() map[string]any {
	return cloneExtensionMap(d.Attributes)
}

// SetAttribute stores a single named attribute outside the declared fields.
func (d *DataFile) SetAttribute(name string, value any) {
	if d.Attributes == nil {
		d.Attributes = make(map[string]any)
	}
	d.Attributes[name] = value
}

// Attribute retrieves a named attribute; the second return reports presence.
func (d DataFile) Attribute(name string) (any, bool) {
	v, ok := d.Attributes[name]
	return v, ok
}
