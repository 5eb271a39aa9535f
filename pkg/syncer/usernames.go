package syncer

import "strings"

// ParseUsernames splits a comma separated list, trimming blanks and dropping
// empty entries and repeats. The first occurrence keeps its position.
func ParseUsernames(raw string) []string {
	parts := strings.Split(raw, ",")
	users := make([]string, 0, len(parts))
	seen := make(map[string]bool, len(parts))
	for _, p := range parts {
		u := strings.TrimSpace(p)
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		users = append(users, u)
	}
	return users
}

// userDirName maps a username onto a single path element
func userDirName(username string) string {
	name := strings.NewReplacer("/", "_", `\`, "_").Replace(username)
	if name == "." || name == ".." {
		return "_"
	}
	return name
}
