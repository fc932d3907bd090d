package anagram

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Canonicalizer computes anagram signatures.
//
// A signature lists the letters of a span in alphabet order, each followed
// by its count when the count is greater than one. "Lorem" becomes "ELMOR"
// and "Lorem ipsum dolor sit amet" becomes "ADE2I2L2M3O3PR2S2T2U".
type Canonicalizer struct {
	minLen   int
	alphabet Alphabet
}

// NewCanonicalizer creates a canonicalizer that only signs window prefixes
// of at least minLen letters. The zero Alphabet means Latin.
func NewCanonicalizer(minLen int, alphabet Alphabet) *Canonicalizer {
	return &Canonicalizer{minLen: minLen, alphabet: alphabet.orLatin()}
}

// MinLen returns the minimum prefix length that gets a signature.
func (c *Canonicalizer) MinLen() int { return c.minLen }

// Signatures returns one signature per prefix of w, shortest prefix first,
// skipping prefixes shorter than MinLen letters.
func (c *Canonicalizer) Signatures(w Window) []string {
	counts := make([]int, c.alphabet.Len())
	length := 0
	var sigs []string
	for _, word := range w.Words {
		for _, r := range word.Text {
			if i, ok := c.alphabet.Index(r); ok {
				counts[i]++
			}
		}
		length += utf8.RuneCountInString(word.Text)
		if length >= c.minLen {
			sigs = append(sigs, c.encode(counts))
		}
	}
	return sigs
}

// Canonize returns the signature of arbitrary text. Case is folded and
// characters outside the alphabet are dropped. MinLen does not apply.
func (c *Canonicalizer) Canonize(text string) string {
	counts := make([]int, c.alphabet.Len())
	for _, r := range text {
		if i, ok := c.alphabet.Index(r); ok {
			counts[i]++
		}
	}
	return c.encode(counts)
}

// Validate checks that sig is a well-formed signature over the alphabet:
// letters in strictly increasing order, each optionally followed by a count
// of two or more without leading zeros.
func (c *Canonicalizer) Validate(sig string) error {
	if sig == "" {
		return fmt.Errorf("signature is empty")
	}

	last := -1
	rest := sig
	for rest != "" {
		r, size := utf8.DecodeRuneInString(rest)
		i, ok := c.alphabet.Index(r)
		if !ok || r != unicode.ToUpper(r) {
			return fmt.Errorf("signature %q: unexpected character %q", sig, r)
		}
		if i <= last {
			return fmt.Errorf("signature %q: letter %q out of order", sig, r)
		}
		last = i
		rest = rest[size:]

		n := 0
		for n < len(rest) && rest[n] >= '0' && rest[n] <= '9' {
			n++
		}
		if n == 0 {
			continue
		}
		digits := rest[:n]
		rest = rest[n:]
		count, err := strconv.Atoi(digits)
		if err != nil || digits[0] == '0' || count < 2 {
			return fmt.Errorf("signature %q: invalid count %q after %q", sig, digits, r)
		}
	}
	return nil
}

func (c *Canonicalizer) encode(counts []int) string {
	var sb strings.Builder
	for i, n := range counts {
		if n == 0 {
			continue
		}
		sb.WriteRune(c.alphabet.Letter(i))
		if n > 1 {
			sb.WriteString(strconv.Itoa(n))
		}
	}
	return sb.String()
}
