package textutil

import (
	"regexp"
	"strings"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// lowercases a name and collapses runs of whitespace into single
// spaces, for case-insensitive exact comparison
func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	name = whitespaceRegex.ReplaceAllString(name, " ")
	return name
}

// lowercases a name and strips all whitespace, used as the
// lookup key for the secondary normalized registry pass
func FoldName(name string) string {
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	name = whitespaceRegex.ReplaceAllString(name, "")
	return name
}

func EqualNames(a, b string) bool {
	return NormalizeName(a) == NormalizeName(b)
}
