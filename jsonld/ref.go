package jsonld

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Ref is an {"@id": ...} pointer to another node in the same graph.
//
// Pages often embed the target node instead of pointing at it. Such a ref
// keeps the embedded object in Inline; its ID is the object's @id when it
// has one and empty otherwise, so Resolve reports it unresolved.
type Ref struct {
	ID     string         `json:"@id"`
	Inline map[string]any `json:"-"`
}

// RefTo returns a reference to id, or nil when id is empty.
func RefTo(id string) *Ref {
	if id == "" {
		return nil
	}
	return &Ref{ID: id}
}

// IsInline reports whether the ref was decoded from an embedded node.
func (r *Ref) IsInline() bool {
	return r != nil && r.Inline != nil
}

// MarshalJSON emits the embedded node for inline refs and {"@id": x}
// otherwise.
func (r Ref) MarshalJSON() ([]byte, error) {
	if r.Inline != nil {
		return marshal(r.Inline)
	}
	return marshal(struct {
		ID string `json:"@id"`
	}{r.ID})
}

// UnmarshalJSON accepts {"@id": x}, {"id": x}, a bare IRI string (what
// compaction produces for @id-coerced terms), an embedded node object, and
// an array of any of these, of which the first is kept.
func (r *Ref) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return fmt.Errorf("decode reference: empty value")
	}
	switch trimmed[0] {
	case '"':
		*r = Ref{}
		return json.Unmarshal(trimmed, &r.ID)
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return fmt.Errorf("decode reference: %w", err)
		}
		if len(items) == 0 {
			return fmt.Errorf("decode reference: empty array")
		}
		return r.UnmarshalJSON(items[0])
	}

	var obj map[string]any
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return fmt.Errorf("decode reference: %w", err)
	}
	canonicalizeKeywords(obj)
	id, _ := obj["@id"].(string)
	*r = Ref{ID: id}
	if len(obj) > 1 || id == "" {
		r.Inline = obj
	}
	return nil
}
