package product

import (
	"strings"

	"github.com/google/uuid"
)

// Slugify turns a product name into a URL-safe slug: lowercase, runs of
// non-alphanumerics collapsed to single hyphens, no leading/trailing hyphen.
func Slugify(name string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastHyphen = false
			continue
		}
		if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.Trim(b.String(), "-")
}

// uniqueSuffix disambiguates a taken slug.
func uniqueSuffix(slug string) string {
	return slug + "-" + uuid.NewString()[:8]
}
