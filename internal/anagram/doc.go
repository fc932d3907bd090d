// Package anagram implements the rolling anagram pipeline.
//
// Text flows through three push-style stages:
//
//	Tokenizer -> WindowBuilder -> Canonicalizer
//
// The Tokenizer splits a character stream into words and records each
// word's offset in characters from the start of the stream. The
// WindowBuilder slides a length-bounded window of consecutive words over
// the text. The Canonicalizer turns every qualifying prefix of a window into
// a signature: the letters of the span, sorted, each followed by its count
// when the count is greater than one.
//
// Two spans share a signature exactly when they are anagrams of each other
// under case folding, which is what makes signatures usable as index keys.
//
// All stages are synchronous and single-threaded. A stage hands each unit to
// the next stage as soon as it is recognized; the only buffer is the
// WindowBuilder's window.
package anagram
