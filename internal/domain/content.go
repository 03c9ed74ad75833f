package domain

import (
	"bytes"
	"encoding/json"
)

// ExportIDKey is the content key under which Export stamps the record name.
const ExportIDKey = "id"

// Content is the opaque structured payload carried by a record.
// It is stored and exported as a JSON object; the service never interprets it.
type Content map[string]any

// UnmarshalJSON decodes a JSON object into c, keeping numbers as json.Number
// so integers beyond float64 precision round-trip unchanged. A JSON null
// leaves c nil.
func (c *Content) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return err
	}
	*c = m
	return nil
}

// NewContent returns an empty, non-nil Content.
func NewContent() Content {
	return Content{}
}

// Clone returns a deep copy of c. Nested maps and slices are copied so the
// clone can be mutated without affecting c.
func (c Content) Clone() Content {
	if c == nil {
		return nil
	}
	out := make(Content, len(c))
	for k, v := range c {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return map[string]any(Content(t).Clone())
	case Content:
		return t.Clone()
	case []any:
		s := make([]any, len(t))
		for i, e := range t {
			s[i] = cloneValue(e)
		}
		return s
	default:
		return v
	}
}
