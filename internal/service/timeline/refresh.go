package timeline

import (
	"context"

	"github.com/squeakview/backend/internal/model/squeak"
)

// Fetcher retrieves a single squeak by hash from the backing node. A call
// yields at most one result and is safe to repeat for the same hash.
type Fetcher interface {
	SqueakByHash(ctx context.Context, hash string) (squeak.Squeak, error)
}

// Replace returns a new chain with the element whose hash matches swapped
// for item. All other elements carry over unchanged. When no element
// matches, the input chain is returned as-is: the target may have scrolled
// out of the loaded window between request and response, which is normal
// raciness, not an error. The input chain is never mutated.
func Replace(chain []squeak.Squeak, hash string, item squeak.Squeak) []squeak.Squeak {
	for i := range chain {
		if chain[i].Hash == hash {
			next := make([]squeak.Squeak, len(chain))
			copy(next, chain)
			next[i] = item
			return next
		}
	}
	return chain
}

// Refresh re-fetches the squeak identified by hash and returns a new chain
// with that single element replaced. On fetch failure the original chain is
// returned untouched alongside the error; no retry happens here.
func Refresh(ctx context.Context, chain []squeak.Squeak, hash string, fetcher Fetcher) ([]squeak.Squeak, error) {
	item, err := fetcher.SqueakByHash(ctx, hash)
	if err != nil {
		return chain, err
	}
	return Replace(chain, hash, item), nil
}
