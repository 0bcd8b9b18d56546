// Package slug derives deterministic token class identifiers from titles.
package slug

import "strings"

// Make converts a class title into its token_class_id: lowercase ASCII
// letters and digits with single hyphens between words. Two titles that
// differ only in case or punctuation map to the same class.
// Returns "" when the title contains no usable characters; callers must
// treat that as a validation failure before doing any network I/O.
func Make(title string) string {
	var b strings.Builder
	b.Grow(len(title))

	lastHyphen := true // suppress a leading hyphen
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	return strings.TrimRight(b.String(), "-")
}
