package vocab

// Deck walks a list of flashcards. The zero Deck is empty.
type Deck struct {
	words []Word
	index int
	back  bool
}

// NewDeck creates a deck positioned on the first word.
func NewDeck(words []Word) *Deck {
	return &Deck{words: words}
}

// Len returns the number of cards.
func (d *Deck) Len() int { return len(d.words) }

// Index returns the position of the current card.
func (d *Deck) Index() int { return d.index }

// Current returns the current card, false when the deck is empty.
func (d *Deck) Current() (Word, bool) {
	if len(d.words) == 0 {
		return Word{}, false
	}
	return d.words[d.index], true
}

// ShowingBack reports whether the card is flipped.
func (d *Deck) ShowingBack() bool { return d.back }

// Flip turns the current card over.
func (d *Deck) Flip() { d.back = !d.back }

// Next moves to the following card. It returns false on the last card.
func (d *Deck) Next() bool {
	if d.index >= len(d.words)-1 {
		return false
	}
	d.index++
	d.back = false
	return true
}

// Prev moves to the preceding card. It returns false on the first card.
func (d *Deck) Prev() bool {
	if d.index == 0 {
		return false
	}
	d.index--
	d.back = false
	return true
}

// JumpTo moves to the card with the given word id. Unknown ids leave the
// position unchanged.
func (d *Deck) JumpTo(wordID string) bool {
	for i, w := range d.words {
		if w.ID == wordID {
			d.index = i
			d.back = false
			return true
		}
	}
	return false
}

// Percent returns how far through the deck the current card is, 0..100.
func (d *Deck) Percent() int {
	if len(d.words) == 0 {
		return 0
	}
	return (d.index + 1) * 100 / len(d.words)
}
