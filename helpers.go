package folio

import (
	"net/url"
	"path"
	"regexp"
	"strings"
)

const maxSlugLength = 200

var slugPattern = regexp.MustCompile(`^[a-z0-9_-]+$`)

// ValidSlug reports whether s looks like a CMS uid. Anything else is a 404
// without asking the CMS.
func ValidSlug(s string) bool {
	return s != "" && len(s) <= maxSlugLength && slugPattern.MatchString(s)
}

// BuildURL joins a base URL with path segments, ensuring a trailing slash.
func BuildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	if len(pathSegments) > 0 && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}
