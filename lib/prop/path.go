package prop

import "strings"

// Delimiter separates the segments of a property path
const Delimiter = '/'

// Split decomposes path into its segments. Leading, trailing and duplicate
// delimiters are skipped, so "//a///b/" yields ["a", "b"].
func Split(path string) []string {
	segs := make([]string, 0, 4)
	for len(path) > 0 {
		i := strings.IndexByte(path, Delimiter)
		if i < 0 {
			segs = append(segs, path)
			break
		}
		if i > 0 {
			segs = append(segs, path[:i])
		}
		path = path[i+1:]
	}
	return segs
}

// Join builds the canonical form of a path from its segments ("/" for none)
func Join(segs ...string) string {
	var b strings.Builder
	for _, s := range segs {
		for _, p := range Split(s) {
			b.WriteByte(Delimiter)
			b.WriteString(p)
		}
	}
	if b.Len() == 0 {
		return "/"
	}
	return b.String()
}

// Clean returns the canonical form of path
func Clean(path string) string {
	return Join(path)
}

// Dirname strips the final segment of path ("/a/b/c" -> "/a/b", "a" -> "/")
func Dirname(path string) string {
	segs := Split(path)
	if len(segs) <= 1 {
		return "/"
	}
	return Join(segs[:len(segs)-1]...)
}

// Basename returns the final segment of path ("" for the root)
func Basename(path string) string {
	segs := Split(path)
	if len(segs) == 0 {
		return ""
	}
	return segs[len(segs)-1]
}
