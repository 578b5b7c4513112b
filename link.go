package rodl

import (
	"strings"

	"github.com/tomnomnom/linkheader"
)

// Links maps a link relation to the target URIs that carry it.
type Links map[string][]string

// ParseLinks reads every value of the Link headers into a relation multimap.
// A link with several space separated relations is recorded under each of them.
func ParseLinks(headers []string) Links {
	result := make(Links)
	for _, link := range linkheader.ParseMultiple(headers) {
		if link.URL == "" {
			continue
		}
		for _, rel := range strings.Fields(link.Rel) {
			result[rel] = append(result[rel], link.URL)
		}
	}
	return result
}

// First returns the first target for any of the given relations.
func (l Links) First(rels ...string) (string, bool) {
	for _, rel := range rels {
		if uris := l[rel]; len(uris) > 0 {
			return uris[0], true
		}
	}
	return "", false
}

// FormatLink renders one Link header value.
func FormatLink(uri, rel string) string {
	return "<" + uri + `>; rel="` + rel + `"`
}
