// Package models contains domain types for the screens display agent.
package models

import (
	"encoding/json"
	"fmt"
)

// DisplayNode is one node of the display tree: either a Leaf rendering a
// single URL, or a Group of child nodes rendered side by side.
type DisplayNode interface {
	isDisplayNode()
}

// Leaf renders one URL with its own reload timer and startup script.
type Leaf struct {
	URL    string `json:"url"`
	Reload int    `json:"reload"` // milliseconds; 0 disables the reload timer
	OnLoad string `json:"onLoad"`
}

// Group is an ordered sequence of child nodes. Order is significant: it
// determines on-screen layout. A Group has no reload timer of its own.
type Group struct {
	Children []DisplayNode
}

func (Leaf) isDisplayNode()  {}
func (Group) isDisplayNode() {}

// MarshalJSON serializes a Group back to the wire shape: a bare JSON array.
func (g Group) MarshalJSON() ([]byte, error) {
	if g.Children == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(g.Children)
}

// MalformedConfigError reports a config document that is not a valid
// display tree.
type MalformedConfigError struct {
	Reason string
}

func (e *MalformedConfigError) Error() string {
	return "malformed config: " + e.Reason
}

func malformed(format string, args ...interface{}) error {
	return &MalformedConfigError{Reason: fmt.Sprintf(format, args...)}
}

// ParseDisplayNode parses a config document into a display tree. The wire
// format is untagged: a JSON object with string "url", numeric "reload" and
// string "onLoad" is a Leaf; a JSON array of such values (recursively) is a
// Group. Shape is sniffed once here; the tree is tagged from then on.
func ParseDisplayNode(data []byte) (DisplayNode, error) {
	var raw json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, malformed("not valid JSON: %v", err)
	}
	return parseNode(raw)
}

func parseNode(raw json.RawMessage) (DisplayNode, error) {
	tok := firstToken(raw)
	switch tok {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, malformed("invalid group: %v", err)
		}
		g := Group{Children: make([]DisplayNode, 0, len(items))}
		for i, item := range items {
			child, err := parseNode(item)
			if err != nil {
				return nil, malformed("child %d: %v", i, err)
			}
			g.Children = append(g.Children, child)
		}
		return g, nil
	case '{':
		return parseLeaf(raw)
	default:
		return nil, malformed("expected object or array, got %q", string(raw))
	}
}

func parseLeaf(raw json.RawMessage) (DisplayNode, error) {
	var aux struct {
		URL    *string  `json:"url"`
		Reload *float64 `json:"reload"`
		OnLoad *string  `json:"onLoad"`
	}
	if err := json.Unmarshal(raw, &aux); err != nil {
		return nil, malformed("invalid leaf: %v", err)
	}
	if aux.URL == nil {
		return nil, malformed("leaf missing string field %q", "url")
	}
	if aux.Reload == nil {
		return nil, malformed("leaf missing numeric field %q", "reload")
	}
	if aux.OnLoad == nil {
		return nil, malformed("leaf missing string field %q", "onLoad")
	}
	if *aux.Reload < 0 || *aux.Reload != float64(int(*aux.Reload)) {
		return nil, malformed("leaf reload must be a non-negative integer, got %v", *aux.Reload)
	}
	return Leaf{
		URL:    *aux.URL,
		Reload: int(*aux.Reload),
		OnLoad: *aux.OnLoad,
	}, nil
}

// firstToken returns the first non-whitespace byte of a JSON value.
func firstToken(raw json.RawMessage) byte {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		}
		return b
	}
	return 0
}

// EncodeDisplayNode serializes a display tree back to the wire format.
func EncodeDisplayNode(n DisplayNode) (string, error) {
	data, err := json.Marshal(n)
	if err != nil {
		return "", fmt.Errorf("encoding display tree: %w", err)
	}
	return string(data), nil
}

// WalkLeaves visits every Leaf of the tree exactly once, in document order.
func WalkLeaves(n DisplayNode, fn func(Leaf)) {
	switch node := n.(type) {
	case Leaf:
		fn(node)
	case Group:
		for _, child := range node.Children {
			WalkLeaves(child, fn)
		}
	}
}

// Leaves returns the tree's leaves in document order.
func Leaves(n DisplayNode) []Leaf {
	var out []Leaf
	WalkLeaves(n, func(l Leaf) { out = append(out, l) })
	return out
}
