package rodl

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

func JsonPrint(tag string, v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("%s: error marshaling: %v\n", tag, err)
		return
	}
	fmt.Printf("%s: %s\n", tag, string(b))
}

// DisplayName returns the fragment of uri if it has one, otherwise the last
// non-empty path segment. Folders keep their trailing slash.
func DisplayName(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return uri
	}
	if u.Fragment != "" {
		return u.Fragment
	}
	path := u.Path
	suffix := ""
	if strings.HasSuffix(path, "/") {
		path = strings.TrimSuffix(path, "/")
		suffix = "/"
	}
	if path == "" {
		return u.Host
	}
	idx := strings.LastIndex(path, "/")
	name, err := url.PathUnescape(path[idx+1:])
	if err != nil {
		name = path[idx+1:]
	}
	return name + suffix
}

// ResolveURI resolves ref against base. Absolute refs are returned unchanged.
func ResolveURI(base, ref string) (string, error) {
	r, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid uri %q: %w", ref, err)
	}
	if r.IsAbs() {
		return r.String(), nil
	}
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid base uri %q: %w", base, err)
	}
	return b.ResolveReference(r).String(), nil
}

// RelativePath returns the path of uri relative to the research object, e.g.
// "folder/a.txt" for "http://x/ro1/folder/a.txt" inside "http://x/ro1/".
func RelativePath(roURI, uri string) string {
	if strings.HasPrefix(uri, roURI) {
		return strings.TrimPrefix(uri, roURI)
	}
	return uri
}

// EnsureTrailingSlash makes sure a research object URI ends with a slash.
func EnsureTrailingSlash(uri string) string {
	if strings.HasSuffix(uri, "/") {
		return uri
	}
	return uri + "/"
}
