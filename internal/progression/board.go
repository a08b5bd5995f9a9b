package progression

// Token is a word tile. Slot is its position in the original shuffled list,
// which keeps repeated words distinguishable.
type Token struct {
	Text string
	Slot int
}

// WordOrderBoard holds the tiles of a word-order question: the pool still
// available and the sentence being assembled.
type WordOrderBoard struct {
	shuffled []string
	pool     []Token
	selected []Token
}

// NewWordOrderBoard puts every shuffled token in the pool.
func NewWordOrderBoard(shuffled []string) *WordOrderBoard {
	b := &WordOrderBoard{shuffled: shuffled}
	b.Clear()
	return b
}

// Pool returns the tiles not yet placed.
func (b *WordOrderBoard) Pool() []Token { return b.pool }

// Selected returns the placed tiles in order.
func (b *WordOrderBoard) Selected() []Token { return b.selected }

// Pick moves the pool tile at i to the end of the sentence.
func (b *WordOrderBoard) Pick(i int) bool {
	if i < 0 || i >= len(b.pool) {
		return false
	}
	t := b.pool[i]
	b.pool = append(b.pool[:i:i], b.pool[i+1:]...)
	b.selected = append(b.selected, t)
	return true
}

// Unpick returns the placed tile at i to the pool.
func (b *WordOrderBoard) Unpick(i int) bool {
	if i < 0 || i >= len(b.selected) {
		return false
	}
	t := b.selected[i]
	b.selected = append(b.selected[:i:i], b.selected[i+1:]...)
	b.pool = append(b.pool, t)
	return true
}

// Clear returns every tile to the pool in shuffled order.
func (b *WordOrderBoard) Clear() {
	b.pool = make([]Token, len(b.shuffled))
	for i, s := range b.shuffled {
		b.pool[i] = Token{Text: s, Slot: i}
	}
	b.selected = nil
}

// Tokens returns the assembled sentence as words.
func (b *WordOrderBoard) Tokens() []string {
	out := make([]string, len(b.selected))
	for i, t := range b.selected {
		out[i] = t.Text
	}
	return out
}

// Complete reports whether every tile has been placed.
func (b *WordOrderBoard) Complete() bool {
	return len(b.pool) == 0 && len(b.selected) > 0
}
