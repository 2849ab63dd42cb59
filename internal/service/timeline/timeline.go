package timeline

import (
	"github.com/squeakview/backend/internal/model/squeak"
)

// Build derives the ancestor timeline for a reply chain. The chain is
// ordered oldest ancestor first, focal squeak last. The focal squeak is
// rendered separately by the caller and never appears in the output. When
// the oldest loaded squeak itself replies to something, one placeholder
// node for that unresolved ancestor leads the timeline.
//
// Build is a pure function: it never fails, holds no state, and returns an
// identical result for an identical chain.
func Build(chain []squeak.Squeak) []squeak.RenderNode {
	if len(chain) == 0 {
		return []squeak.RenderNode{}
	}

	nodes := make([]squeak.RenderNode, 0, len(chain))
	if replyTo := chain[0].ReplyTo; replyTo != "" {
		nodes = append(nodes, squeak.PlaceholderNode(replyTo))
	}
	for _, item := range chain[:len(chain)-1] {
		nodes = append(nodes, squeak.ItemNode(item))
	}
	return nodes
}
