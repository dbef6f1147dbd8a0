package musiclink

import (
	"errors"
	"fmt"
	"regexp"
)

// RootPrefix locates the positions in a text where a catalog link can start.
type RootPrefix struct {
	matcher *regexp.Regexp
}

// NewRootPrefix compiles the root-prefix pattern (for example the allowed Apple Music hosts).
func NewRootPrefix(pattern string) (*RootPrefix, error) {
	if pattern == "" {
		return nil, ErrNoRootPrefix
	}

	matcher, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid root prefix: %w", err)
	}
	if matcher.MatchString("") {
		return nil, errors.New("invalid root prefix: pattern matches the empty string")
	}

	return &RootPrefix{matcher: matcher}, nil
}

// Pattern returns the root-prefix pattern source.
func (r *RootPrefix) Pattern() string {
	return r.matcher.String()
}

// Anchors returns the start offsets of every non-overlapping root-prefix match, left to right.
// Scanning resumes after the end of each match.
func (r *RootPrefix) Anchors(text string) []int {
	locs := r.matcher.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}

	anchors := make([]int, len(locs))
	for i, loc := range locs {
		anchors[i] = loc[0]
	}
	return anchors
}

// Contains reports whether s contains the root prefix anywhere.
func (r *RootPrefix) Contains(s string) bool {
	return r.matcher.MatchString(s)
}
