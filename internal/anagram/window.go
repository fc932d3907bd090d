package anagram

import "unicode/utf8"

// Window is a run of consecutive words, oldest first.
type Window struct {
	Words []Word
}

// Anchor returns the offset of the window's first word, or -1 when empty.
func (w Window) Anchor() int64 {
	if len(w.Words) == 0 {
		return -1
	}
	return w.Words[0].Offset
}

// Texts returns the word texts in order.
func (w Window) Texts() []string {
	out := make([]string, len(w.Words))
	for i, word := range w.Words {
		out[i] = word.Text
	}
	return out
}

// WindowSink receives windows as they close.
type WindowSink interface {
	OnWindow(w Window) error
}

// WindowSinkFunc adapts a function to WindowSink.
type WindowSinkFunc func(w Window) error

// OnWindow calls f(w).
func (f WindowSinkFunc) OnWindow(w Window) error { return f(w) }

// WindowBuilder slides a window of words bounded by a character budget.
//
// When a new word would push the running length past maxLen, the current
// window is emitted and exactly one word is dropped from its front before
// the new word is appended. The running length is not reduced by the
// dropped word; it only restarts from zero once the window has emptied.
// Callers rely on the exact window boundaries this produces, so do not
// change it.
//
// WindowBuilder implements WordSink and is not safe for concurrent use.
type WindowBuilder struct {
	maxLen    int
	sink      WindowSink
	words     []Word
	aggregate int
}

// NewWindowBuilder creates a builder that emits to sink.
func NewWindowBuilder(maxLen int, sink WindowSink) *WindowBuilder {
	return &WindowBuilder{maxLen: maxLen, sink: sink}
}

// OnWord adds a word to the window, emitting first if the budget overflows.
func (b *WindowBuilder) OnWord(w Word) error {
	if len(b.words) == 0 {
		b.aggregate = 0
	}
	candidate := b.aggregate + utf8.RuneCountInString(w.Text)
	if candidate > b.maxLen && len(b.words) > 0 {
		if err := b.emitAndDrop(); err != nil {
			return err
		}
	}
	b.aggregate = candidate
	b.words = append(b.words, w)
	return nil
}

// Flush drains the window at end of stream. It emits the whole window, drops
// the front word and repeats until the window is empty, so every remaining
// word anchors exactly one final window.
func (b *WindowBuilder) Flush() error {
	for len(b.words) > 0 {
		if err := b.emitAndDrop(); err != nil {
			return err
		}
	}
	return nil
}

// Reset discards all state.
func (b *WindowBuilder) Reset() {
	b.words = b.words[:0]
	b.aggregate = 0
}

func (b *WindowBuilder) emitAndDrop() error {
	// The sink may keep the window, so hand it a copy.
	win := Window{Words: append([]Word(nil), b.words...)}
	if err := b.sink.OnWindow(win); err != nil {
		return err
	}
	b.words = append(b.words[:0], b.words[1:]...)
	return nil
}
