package anagram

import (
	"io"
	"strings"
)

func stringsReader(s string) io.Reader { return strings.NewReader(s) }

const lorem = "Lorem ipsum dolor sit amet"
