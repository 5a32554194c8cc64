package spaces

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// slug: lowercase alphanumeric segments joined by single hyphens,
// no leading/trailing hyphen, no empty segment
var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// ValidateName reports whether name is usable as a space display name:
// 1 to 100 characters after trimming.
func ValidateName(name string) bool {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	return n >= 1 && n <= 100
}

// ValidateSlug reports whether slug is a well-formed URL slug:
// 1 to 100 characters after trimming, matching slugPattern.
func ValidateSlug(slug string) bool {
	s := strings.TrimSpace(slug)
	if len(s) < 1 || len(s) > 100 {
		return false
	}
	return slugPattern.MatchString(s)
}

// SlugFromName derives a slug from a display name: lowercase, with every
// run of non-alphanumeric characters collapsed to a single hyphen. The
// result still goes through ValidateSlug (a name of only punctuation
// derives an empty slug).
func SlugFromName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = nonSlugChars.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
