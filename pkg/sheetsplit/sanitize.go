package sheetsplit

import (
	"regexp"
	"strings"
)

var unsafeNameChars = regexp.MustCompile(`[\\/*?:"<>|]`)

// Sanitize turns a raw group value into a key safe for folder and file names:
// each of \ / * ? : " < > | becomes "-" and surrounding whitespace is trimmed.
func Sanitize(name string) string {
	return strings.TrimSpace(unsafeNameChars.ReplaceAllString(name, "-"))
}
