package emoji

import (
	"strings"
	"unicode/utf8"

	"github.com/kyokomi/emoji/v2"
)

var emojiMap = func() map[string]struct{} {
	out := map[string]struct{}{}
	for emoji := range emoji.RevCodeMap() {
		out[emoji] = struct{}{}
	}
	return out
}()

var variationSelector = func() string {
	r, _ := utf8.DecodeRuneInString("️")
	return string(r)
}()

// IsValid reports whether s is a single emoji a user may react with.
// Presentation variants (trailing variation selector) count as valid.
func IsValid(s string) bool {
	_, ok := emojiMap[s]
	if !ok && strings.Contains(s, variationSelector) {
		return IsValid(
			strings.ReplaceAll(s, variationSelector, ""),
		)
	}
	return ok
}
