package anagram

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// AcceptFunc reports whether a character belongs to a word.
type AcceptFunc func(r rune) bool

// Word is a maximal run of accepted characters.
type Word struct {
	// Text is the word as it appeared in the source, case preserved.
	Text string

	// Offset is the 0-based position of the word's first character,
	// counting every character read from the source, rejected ones included.
	Offset int64
}

// WordSink receives words in source order.
type WordSink interface {
	OnWord(w Word) error
}

// WordSinkFunc adapts a function to WordSink.
type WordSinkFunc func(w Word) error

// OnWord calls f(w).
func (f WordSinkFunc) OnWord(w Word) error { return f(w) }

// Tokenizer splits a character stream into words.
type Tokenizer struct {
	accept AcceptFunc
}

// NewTokenizer creates a tokenizer. A nil accept function uses Latin.Accepts.
func NewTokenizer(accept AcceptFunc) *Tokenizer {
	if accept == nil {
		accept = Latin.Accepts
	}
	return &Tokenizer{accept: accept}
}

// Tokenize reads r to the end and hands every word to sink.
//
// A rejected character ends the current word; runs of rejected characters
// produce nothing. The final word is flushed at end of stream. Read errors
// and sink errors stop tokenization and are returned.
func (t *Tokenizer) Tokenize(r io.Reader, sink WordSink) error {
	rr, ok := r.(io.RuneReader)
	if !ok {
		rr = bufio.NewReader(r)
	}

	var (
		word  strings.Builder
		start int64
		idx   int64
	)
	flush := func() error {
		if word.Len() == 0 {
			return nil
		}
		w := Word{Text: word.String(), Offset: start}
		word.Reset()
		return sink.OnWord(w)
	}

	for {
		c, _, err := rr.ReadRune()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("read source at offset %d: %w", idx, err)
		}

		if t.accept(c) {
			if word.Len() == 0 {
				start = idx
			}
			word.WriteRune(c)
		} else if err := flush(); err != nil {
			return err
		}
		idx++
	}
	return flush()
}

// TokenizeString tokenizes an in-memory string.
func (t *Tokenizer) TokenizeString(s string, sink WordSink) error {
	return t.Tokenize(strings.NewReader(s), sink)
}

// TokenizeFile streams the file at path through the tokenizer. The file is
// closed before TokenizeFile returns.
func (t *Tokenizer) TokenizeFile(path string, sink WordSink) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return t.Tokenize(bufio.NewReader(f), sink)
}
