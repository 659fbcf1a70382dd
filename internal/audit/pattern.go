package audit

import "path"

// MatchesPattern checks if a repository name matches a glob pattern.
// Supports * (any characters), ? (single character), and [...] character
// classes. Repository names never contain a path separator, so path.Match
// semantics apply cleanly. A malformed pattern matches nothing.
func MatchesPattern(name, pattern string) bool {
	if pattern == "*" {
		return true
	}
	ok, err := path.Match(pattern, name)
	if err != nil {
		return false
	}
	return ok
}

// ShouldIncludeRepo determines if a repository should be audited based on
// include and exclude patterns. Exclude patterns take precedence.
func ShouldIncludeRepo(repoName string, includePatterns, excludePatterns []string) bool {
	for _, pattern := range excludePatterns {
		if MatchesPattern(repoName, pattern) {
			return false
		}
	}

	for _, pattern := range includePatterns {
		if MatchesPattern(repoName, pattern) {
			return true
		}
	}

	// If no include patterns matched, don't include
	return false
}
