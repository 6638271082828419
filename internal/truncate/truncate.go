// Package truncate bounds command output by token count before it is
// returned to the caller.
package truncate

import (
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

var (
	encoderOnce sync.Once
	encoder     *tiktoken.Tiktoken
)

func getEncoder() *tiktoken.Tiktoken {
	encoderOnce.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err == nil {
			encoder = enc
		}
	})
	return encoder
}

// TokenCount returns the token count of text. Falls back to a character
// heuristic when no encoding is available.
func TokenCount(text string) int {
	if text == "" {
		return 0
	}

	if enc := getEncoder(); enc != nil {
		return len(enc.Encode(text, nil, nil))
	}

	runes := utf8.RuneCountInString(text)
	if runes == 0 {
		return 0
	}

	// Rough heuristic: 1 token ≈ 4 characters
	return (runes + 3) / 4
}

// ToTokens truncates text to at most maxTokens tokens, keeping the tail
// since the end of command output usually carries the interesting part.
// Returns the possibly truncated text, the original token count, and
// whether truncation happened.
func ToTokens(text string, maxTokens int) (string, int, bool) {
	original := TokenCount(text)
	if maxTokens <= 0 || original <= maxTokens {
		return text, original, false
	}

	if enc := getEncoder(); enc != nil {
		tokens := enc.Encode(text, nil, nil)
		return enc.Decode(tokens[len(tokens)-maxTokens:]), original, true
	}

	// Heuristic fallback keeps the last maxTokens*4 runes.
	runes := []rune(text)
	keep := maxTokens * 4
	if keep >= len(runes) {
		return text, original, true
	}
	return string(runes[len(runes)-keep:]), original, true
}
