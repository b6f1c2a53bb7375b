package slideshow

import "sort"

// BuildPlaylist returns the newest items first, at most limit of them.
// Items with equal timestamps keep their input order. A limit <= 0 keeps
// every item. The input slice is never modified.
func BuildPlaylist(items []Item, limit int) []Item {
	out := make([]Item, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Cursor is a wrapping position in a playlist.
type Cursor struct {
	index  int
	length int
}

func (c Cursor) Index() int { return c.index }
func (c Cursor) Len() int   { return c.length }

// Valid reports whether the cursor points at an item.
func (c Cursor) Valid() bool { return c.length > 0 }

func (c *Cursor) Next() {
	if c.length == 0 {
		return
	}
	c.index = (c.index + 1) % c.length
}

func (c *Cursor) Prev() {
	if c.length == 0 {
		return
	}
	c.index = (c.index - 1 + c.length) % c.length
}

// Reset moves the cursor back to the newest item.
func (c *Cursor) Reset() { c.index = 0 }

// Resize adapts the cursor to a new playlist length. The index survives
// when still in range, otherwise it parks at 0.
func (c *Cursor) Resize(n int) {
	c.length = n
	if n == 0 || c.index >= n || c.index < 0 {
		c.index = 0
	}
}
