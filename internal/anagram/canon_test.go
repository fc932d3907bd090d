package anagram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loremWindow(t *testing.T) Window {
	t.Helper()
	var words []Word
	require.NoError(t, NewTokenizer(nil).TokenizeString(lorem, WordSinkFunc(func(w Word) error {
		words = append(words, w)
		return nil
	})))
	return Window{Words: words}
}

func TestCanonicalizer_Signatures_Lorem(t *testing.T) {
	// Given: min_len 5 and the full reference window
	c := NewCanonicalizer(5, Latin)

	// When: signing every prefix
	sigs := c.Signatures(loremWindow(t))

	// Then: all five prefixes qualify
	require.Len(t, sigs, 5)
	assert.Equal(t, "ELMOR", sigs[0])
	assert.Equal(t, c.Canonize("Lorem ipsum"), sigs[1])
	assert.Equal(t, "ADE2I2L2M3O3PR2S2T2U", sigs[4])
}

func TestCanonicalizer_Signatures_MinLenFilters(t *testing.T) {
	tests := []struct {
		name   string
		minLen int
		count  int
	}{
		{name: "zero keeps all", minLen: 0, count: 5},
		{name: "exact prefix length qualifies", minLen: 10, count: 4},
		{name: "between prefixes", minLen: 16, count: 2},
		{name: "whole window only", minLen: 22, count: 1},
		{name: "longer than window", minLen: 23, count: 0},
	}

	w := loremWindow(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, NewCanonicalizer(tt.minLen, Latin).Signatures(w), tt.count)
		})
	}
}

func TestCanonicalizer_Canonize_Properties(t *testing.T) {
	c := NewCanonicalizer(0, Alphabet{})

	t.Run("permutation invariant", func(t *testing.T) {
		assert.Equal(t, c.Canonize("listen"), c.Canonize("silent"))
		assert.Equal(t, c.Canonize("Lorem ipsum dolor sit amet"), c.Canonize("tema tis rolod muspi merol"))
	})

	t.Run("case insensitive", func(t *testing.T) {
		assert.Equal(t, c.Canonize("Dormitory"), c.Canonize("dirtyROOM"))
	})

	t.Run("ignores non letters", func(t *testing.T) {
		assert.Equal(t, c.Canonize("abc"), c.Canonize("a1b2c3"))
		assert.Equal(t, "ABC", c.Canonize("a-b c!"))
	})

	t.Run("counts only above one", func(t *testing.T) {
		assert.Equal(t, "A3B", c.Canonize("baaa"))
		assert.Equal(t, "Z12", c.Canonize("zzzzzzzzzzzz"))
	})

	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, "", c.Canonize(""))
		assert.Equal(t, "", c.Canonize("123 !?"))
	})

	t.Run("different multisets differ", func(t *testing.T) {
		assert.NotEqual(t, c.Canonize("aab"), c.Canonize("abb"))
	})
}

func TestCanonicalizer_Canonize_MatchesWindowSignature(t *testing.T) {
	c := NewCanonicalizer(5, Latin)
	sigs := c.Signatures(loremWindow(t))

	assert.Equal(t, sigs[4], c.Canonize(lorem))
}

func TestCanonicalizer_Validate(t *testing.T) {
	c := NewCanonicalizer(0, Latin)

	valid := []string{"A", "ELMOR", "ADE2I2L2M3O3PR2S2T2U", "Z12"}
	for _, sig := range valid {
		assert.NoError(t, c.Validate(sig), sig)
	}

	invalid := []string{"", "BA", "AA", "A1", "A0", "A02", "a", "A-B", "2A"}
	for _, sig := range invalid {
		assert.Error(t, c.Validate(sig), sig)
	}
}

func TestAlphabet(t *testing.T) {
	t.Run("folds and dedupes", func(t *testing.T) {
		a, err := NewAlphabet("cbaCBA")
		require.NoError(t, err)
		assert.Equal(t, "ABC", a.String())
		assert.True(t, a.Accepts('b'))
		assert.False(t, a.Accepts('d'))
	})

	t.Run("rejects digits", func(t *testing.T) {
		_, err := NewAlphabet("AB1")
		assert.Error(t, err)
	})

	t.Run("rejects empty", func(t *testing.T) {
		_, err := NewAlphabet("  ")
		assert.Error(t, err)
	})

	t.Run("latin", func(t *testing.T) {
		assert.Equal(t, 26, Latin.Len())
		assert.True(t, Latin.Accepts('q'))
		assert.False(t, Latin.Accepts('é'))
	})
}
