package squeak

// Squeak is one posted content item as served by the backing node. The
// client never mutates a squeak; refreshed copies replace old ones wholesale
// and identity across refresh is the content hash alone.
type Squeak struct {
	Hash        string   `json:"hash"`
	ReplyTo     string   `json:"replyTo,omitempty"`
	Author      *Profile `json:"author,omitempty"`
	Content     string   `json:"content,omitempty"`
	BlockHeight int64    `json:"blockHeight,omitempty"`
	Timestamp   int64    `json:"timestamp,omitempty"`
	Liked       bool     `json:"liked,omitempty"`
}

// Profile identifies a squeak author. Nil on a Squeak means the author is
// unknown or not yet loaded.
type Profile struct {
	Address string `json:"address"`
	Name    string `json:"name,omitempty"`
}
