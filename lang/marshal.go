package lang

import "encoding/json"

// Keys used by [Node.ToMap].
const (
	KeyTemplate = "template"
	KeyID       = "id"
	KeyChildren = "children"
)

// MarshalJSON implements json.Marshaler for Node.
func (n *Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.ToMap())
}

// ToMap converts the tree rooted at n to native Go maps and slices. The id key
// is omitted when the node has no identifier, and children is omitted for
// leaves.
func (n *Node) ToMap() map[string]any {
	if n == nil {
		return nil
	}

	result := map[string]any{
		KeyTemplate: n.template,
	}

	if id, ok := n.ID(); ok {
		result[KeyID] = id
	}

	if len(n.children) > 0 {
		children := make([]any, len(n.children))
		for i, child := range n.children {
			children[i] = child.ToMap()
		}

		result[KeyChildren] = children
	}

	return result
}
