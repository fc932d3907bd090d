package anagram

import (
	"fmt"
	"slices"
	"unicode"
)

// Alphabet is the set of characters that make up words. Membership is
// case-insensitive: letters are folded to upper case before lookup.
//
// An Alphabet is immutable once built and safe to share between goroutines.
type Alphabet struct {
	letters []rune
	pos     map[rune]int
}

// Latin is the default alphabet, A to Z.
var Latin = MustAlphabet("ABCDEFGHIJKLMNOPQRSTUVWXYZ")

// NewAlphabet builds an alphabet from the given characters. Duplicates and
// case variants collapse to a single letter. Digits are rejected because
// signatures use them as counts.
func NewAlphabet(chars string) (Alphabet, error) {
	seen := make(map[rune]struct{})
	var letters []rune
	for _, r := range chars {
		if unicode.IsDigit(r) {
			return Alphabet{}, fmt.Errorf("alphabet cannot contain digit %q", r)
		}
		if unicode.IsSpace(r) {
			continue
		}
		u := unicode.ToUpper(r)
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		letters = append(letters, u)
	}
	if len(letters) == 0 {
		return Alphabet{}, fmt.Errorf("alphabet is empty")
	}

	slices.Sort(letters)
	pos := make(map[rune]int, len(letters))
	for i, r := range letters {
		pos[r] = i
	}
	return Alphabet{letters: letters, pos: pos}, nil
}

// MustAlphabet is like NewAlphabet but panics on error.
func MustAlphabet(chars string) Alphabet {
	a, err := NewAlphabet(chars)
	if err != nil {
		panic(err)
	}
	return a
}

// Accepts reports whether r belongs to the alphabet.
func (a Alphabet) Accepts(r rune) bool {
	_, ok := a.pos[unicode.ToUpper(r)]
	return ok
}

// Index returns the sort position of r within the alphabet.
func (a Alphabet) Index(r rune) (int, bool) {
	i, ok := a.pos[unicode.ToUpper(r)]
	return i, ok
}

// Len returns the number of distinct letters.
func (a Alphabet) Len() int { return len(a.letters) }

// Letter returns the upper-case letter at sort position i.
func (a Alphabet) Letter(i int) rune { return a.letters[i] }

// String returns the letters in sort order.
func (a Alphabet) String() string { return string(a.letters) }

// orLatin returns a, or Latin for the zero Alphabet.
func (a Alphabet) orLatin() Alphabet {
	if a.Len() == 0 {
		return Latin
	}
	return a
}
