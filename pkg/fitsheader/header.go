package fitsheader

import (
	"strings"
)

const endCard = "END"

// Header is an ordered list of cards terminated by exactly one END card.
type Header struct {
	cards []string
}

// Parse builds a Header from newline separated cards. A single line that is a
// whole number of 80-column cards (raw FITS header blocks) is split into
// cards. Anything after the first END card is dropped and a missing END card is
// appended.
func Parse(text string) Header {
	lines := strings.Split(text, "\n")
	if len(lines) == 1 && len(lines[0]) > CardWidth && len(lines[0])%CardWidth == 0 {
		raw := lines[0]
		lines = lines[:0]
		for i := 0; i < len(raw); i += CardWidth {
			lines = append(lines, raw[i:i+CardWidth])
		}
	}
	cards := make([]string, 0, len(lines))
	for _, line := range lines {
		cards = append(cards, strings.TrimRight(line, "\r"))
	}
	return FromCards(cards)
}

// FromCards builds a Header from a card list, normalizing the END card.
func FromCards(cards []string) Header {
	out := make([]string, 0, len(cards)+1)
	for _, c := range cards {
		if TypeOf(c) == TypeEnd {
			break
		}
		out = append(out, c)
	}
	// trailing blank lines from a final newline are not cards
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	out = append(out, endCard)
	return Header{cards: out}
}

// Cards returns a copy of the card list, END included.
func (h Header) Cards() []string {
	cards := h.ensure()
	out := make([]string, len(cards))
	copy(out, cards)
	return out
}

// Len is the number of cards including END.
func (h Header) Len() int { return len(h.ensure()) }

// Card returns the i-th card.
func (h Header) Card(i int) string { return h.ensure()[i] }

// String serializes the header as newline separated 80-column cards.
func (h Header) String() string {
	var b strings.Builder
	for i, c := range h.ensure() {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(padCard(c))
	}
	return b.String()
}

// FindKey returns the index of the first card with the given keyword, or -1.
// Keys are compared case-sensitively after trimming.
func (h Header) FindKey(key string) int {
	key = strings.TrimSpace(key)
	if key == "" {
		return -1
	}
	for i, c := range h.cards {
		if CardKey(c) == key {
			return i
		}
	}
	return -1
}

// Has reports whether a card with the given keyword exists.
func (h Header) Has(key string) bool { return h.FindKey(key) >= 0 }

// Set stores value under key. An existing card is replaced in place and keeps
// its comment when comment is empty; otherwise a new card is inserted before
// END.
func (h Header) Set(key string, value Value, comment string) Header {
	i := h.FindKey(key)
	if i < 0 {
		return h.insertBeforeEnd(formatCard(key, value, comment))
	}
	if comment == "" {
		comment, _ = CardComment(h.ensure()[i])
	}
	return h.replace(i, formatCard(key, value, comment))
}

// Update changes the value of key and keeps any existing comment.
func (h Header) Update(key string, value Value) Header {
	return h.Set(key, value, "")
}

// Add appends a card before END. Only commentary keywords (COMMENT, HISTORY,
// ANNOTATE) may repeat; any other keyword already present is replaced as by
// Set.
func (h Header) Add(key string, value Value, comment string) Header {
	key = strings.TrimSpace(key)
	if !repeatable(key) && h.Has(key) {
		return h.Set(key, value, comment)
	}
	return h.insertBeforeEnd(formatCard(key, value, comment))
}

func repeatable(key string) bool {
	switch key {
	case "COMMENT", "HISTORY", annotateKey:
		return true
	}
	return false
}

// AddCard appends a preformatted card before END.
func (h Header) AddCard(card string) Header {
	return h.insertBeforeEnd(card)
}

// Remove returns a header without any card matching key. COMMENT and HISTORY
// remove every card of that kind. END is never removed.
func (h Header) Remove(key string) Header {
	key = strings.TrimSpace(key)
	return h.filter(func(c string) bool {
		switch key {
		case "COMMENT":
			return TypeOf(c) == TypeComment
		case "HISTORY":
			return TypeOf(c) == TypeHistory
		}
		return CardKey(c) == key
	})
}

const wrapWidth = 68

// AddHistory appends text as HISTORY cards wrapped to 68 characters.
// Continuation cards are indented by two spaces.
func (h Header) AddHistory(text string) Header {
	return h.addWrapped("HISTORY ", text)
}

// AddComment appends text as COMMENT cards wrapped to 68 characters.
func (h Header) AddComment(text string) Header {
	return h.addWrapped("COMMENT ", text)
}

func (h Header) addWrapped(prefix, text string) Header {
	out := h
	for i, seg := range wrapText(text, wrapWidth) {
		if i > 0 {
			seg = "  " + seg
		}
		out = out.insertBeforeEnd(prefix + seg)
	}
	return out
}

func wrapText(text string, width int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return []string{""}
	}
	var segs []string
	for len(text) > width {
		cut := strings.LastIndexByte(text[:width+1], ' ')
		if cut <= 0 {
			cut = width
		}
		segs = append(segs, strings.TrimRight(text[:cut], " "))
		text = strings.TrimLeft(text[cut:], " ")
	}
	if text != "" {
		segs = append(segs, text)
	}
	return segs
}

func (h Header) ensure() []string {
	if len(h.cards) == 0 {
		return []string{endCard}
	}
	return h.cards
}

func (h Header) endIndex() int {
	cards := h.ensure()
	for i := len(cards) - 1; i >= 0; i-- {
		if TypeOf(cards[i]) == TypeEnd {
			return i
		}
	}
	return len(cards)
}

func (h Header) insertBeforeEnd(card string) Header {
	cards := h.ensure()
	end := h.endIndex()
	out := make([]string, 0, len(cards)+1)
	out = append(out, cards[:end]...)
	out = append(out, card)
	out = append(out, cards[end:]...)
	return Header{cards: out}
}

func (h Header) replace(i int, card string) Header {
	out := h.Cards()
	out[i] = card
	return Header{cards: out}
}

func (h Header) removeIndex(i int) Header {
	out := make([]string, 0, len(h.cards)-1)
	out = append(out, h.cards[:i]...)
	out = append(out, h.cards[i+1:]...)
	return Header{cards: out}
}

func (h Header) filter(drop func(string) bool) Header {
	cards := h.ensure()
	out := make([]string, 0, len(cards))
	for _, c := range cards {
		if TypeOf(c) != TypeEnd && drop(c) {
			continue
		}
		out = append(out, c)
	}
	return Header{cards: out}
}
