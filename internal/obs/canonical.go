package obs

import "strings"

// CanonicalPath collapses entity identifiers in request paths so metric
// labels stay low-cardinality.
func CanonicalPath(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return "/"
	}
	for _, prefix := range []string{"/v1/report/", "/v1/emergency/"} {
		rest, ok := strings.CutPrefix(path, prefix)
		if !ok {
			continue
		}
		// Named sub-resources such as /v1/report/user keep their own label.
		if rest == "user" || rest == "admin" || rest == "" || strings.Contains(rest, "/") {
			continue
		}
		return prefix + ":id"
	}
	return path
}
