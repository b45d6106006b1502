package normalize

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Frontmatter is an ordered key/value map that only ever holds meaningful
// values: Set drops nils, empty strings, false flags, nil pointers, empty
// slices and empty nested maps, so absent source fields never surface as
// null keys.
type Frontmatter struct {
	keys   []string
	values map[string]any
}

// NewFrontmatter returns an empty builder.
func NewFrontmatter() *Frontmatter {
	return &Frontmatter{values: make(map[string]any)}
}

// Timestamp is a date-time string rendered single-quoted, so YAML readers
// keep it as text instead of resolving it to a date.
type Timestamp string

// MarshalYAML implements yaml.Marshaler.
func (t Timestamp) MarshalYAML() (any, error) {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: string(t), Style: yaml.SingleQuotedStyle}, nil
}

// Set stores value under key when it is meaningful. Pointers are
// dereferenced. Setting an existing key replaces it in place.
func (f *Frontmatter) Set(key string, value any) *Frontmatter {
	v, ok := compact(value)
	if !ok {
		return f
	}
	if _, exists := f.values[key]; !exists {
		f.keys = append(f.keys, key)
	}
	f.values[key] = v
	return f
}

// Get returns the value stored under key.
func (f *Frontmatter) Get(key string) (any, bool) {
	v, ok := f.values[key]
	return v, ok
}

// Has reports whether key is present.
func (f *Frontmatter) Has(key string) bool {
	_, ok := f.values[key]
	return ok
}

// Keys returns the keys in insertion order.
func (f *Frontmatter) Keys() []string {
	return append([]string(nil), f.keys...)
}

// Len returns the number of keys.
func (f *Frontmatter) Len() int {
	if f == nil {
		return 0
	}
	return len(f.keys)
}

func compact(value any) (any, bool) {
	switch v := value.(type) {
	case nil:
		return nil, false
	case string:
		return v, v != ""
	case Timestamp:
		return v, v != ""
	case bool:
		return v, v
	case *string:
		if v == nil {
			return nil, false
		}
		return compact(*v)
	case *float64:
		if v == nil {
			return nil, false
		}
		return *v, true
	case *int:
		if v == nil {
			return nil, false
		}
		return *v, true
	case []string:
		return v, len(v) > 0
	case *Frontmatter:
		return v, v.Len() > 0
	case []*Frontmatter:
		var out []*Frontmatter
		for _, item := range v {
			if item.Len() > 0 {
				out = append(out, item)
			}
		}
		return out, len(out) > 0
	default:
		return v, true
	}
}

// MarshalYAML renders the map as a YAML mapping node, preserving key order.
func (f *Frontmatter) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, k := range f.keys {
		vn := &yaml.Node{}
		if err := vn.Encode(f.values[k]); err != nil {
			return nil, fmt.Errorf("frontmatter: encode %s: %w", k, err)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
			vn,
		)
	}
	return node, nil
}

// Map returns a plain nested map copy, for JSON responses and assertions.
func (f *Frontmatter) Map() map[string]any {
	out := make(map[string]any, len(f.keys))
	for _, k := range f.keys {
		switch v := f.values[k].(type) {
		case *Frontmatter:
			out[k] = v.Map()
		case []*Frontmatter:
			items := make([]map[string]any, 0, len(v))
			for _, item := range v {
				items = append(items, item.Map())
			}
			out[k] = items
		case Timestamp:
			out[k] = string(v)
		default:
			out[k] = v
		}
	}
	return out
}
