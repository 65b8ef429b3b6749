package extractor

import (
	"fmt"
	"regexp"
)

// CompilePatterns compiles a list of regex pattern strings into compiled regexps.
// If ignoreCase is true, the patterns are compiled with case-insensitive flag.
// Returns an error if any pattern is invalid.
func CompilePatterns(patterns []string, ignoreCase bool) ([]*regexp.Regexp, error) {
	if len(patterns) == 0 {
		return nil, nil
	}

	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for i, pattern := range patterns {
		if ignoreCase {
			pattern = "(?i)" + pattern
		}

		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern #%d (%q): %w", i+1, patterns[i], err)
		}
		compiled = append(compiled, re)
	}

	return compiled, nil
}

// ShouldKeep reports whether a record's content passes the match and
// exclude patterns in the config.
//
// Exclude patterns win over match patterns. With match patterns set, at
// least one must match. With no patterns every string is kept.
func ShouldKeep(content string, config Config) bool {
	for _, pattern := range config.ExcludePatterns {
		if pattern.MatchString(content) {
			return false
		}
	}

	if len(config.MatchPatterns) > 0 {
		for _, pattern := range config.MatchPatterns {
			if pattern.MatchString(content) {
				return true
			}
		}
		return false
	}

	return true
}
