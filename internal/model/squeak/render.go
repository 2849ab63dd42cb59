package squeak

// NodeKind tags a RenderNode as a loaded item or a synthesized stand-in.
type NodeKind string

const (
	KindItem        NodeKind = "item"
	KindPlaceholder NodeKind = "placeholder"
)

// RenderNode is the unit handed to the view layer: either a real squeak or a
// placeholder for a known-by-hash but not-yet-loaded ancestor. Key is stable
// across refreshes so the frontend can preserve element identity.
type RenderNode struct {
	Kind NodeKind `json:"kind"`
	Key  string   `json:"key"`
	Item *Squeak  `json:"item,omitempty"`
}

// ItemNode wraps a loaded squeak for rendering.
func ItemNode(s Squeak) RenderNode {
	item := s
	return RenderNode{Kind: KindItem, Key: s.Hash, Item: &item}
}

// PlaceholderNode stands in for an ancestor known only by hash. It carries
// no author or payload and is synthesized fresh on every render.
func PlaceholderNode(hash string) RenderNode {
	return RenderNode{Kind: KindPlaceholder, Key: hash}
}
