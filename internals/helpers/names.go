// file: internals/helpers/names.go
package helper

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// CleanName applies NFKC and collapses runs of whitespace to one space.
func CleanName(s string) string {
	return strings.Join(strings.Fields(norm.NFKC.String(s)), " ")
}

// FoldName makes human-entered names comparable: CleanName plus lower case.
func FoldName(s string) string {
	return strings.ToLower(CleanName(s))
}
