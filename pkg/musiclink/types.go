// Package musiclink extracts and classifies Apple Music links embedded in free-form text.
package musiclink

import (
	"errors"
	"fmt"
	"regexp"
)

// ResourceType is the kind of catalog resource a link points to.
type ResourceType string

const (
	// ResourceTypeAlbum is an album link (including classical catalog albums).
	ResourceTypeAlbum ResourceType = "album"
	// ResourceTypeSong is a direct song link.
	ResourceTypeSong ResourceType = "song"
	// ResourceTypePlaylist is a playlist link.
	ResourceTypePlaylist ResourceType = "playlist"
	// ResourceTypeArtist is an artist page link.
	ResourceTypeArtist ResourceType = "artist"
	// ResourceTypeMusicVideo is a music video link.
	ResourceTypeMusicVideo ResourceType = "music_video"
	// ResourceTypeUnknown is never produced by extraction; it is kept for callers that
	// classify links outside of a successful pattern match.
	ResourceTypeUnknown ResourceType = "unknown"
)

var (
	// ErrNoPatterns is returned when an extractor is built without pattern specs.
	ErrNoPatterns = errors.New("no link patterns configured")
	// ErrNoRootPrefix is returned when an extractor is built without a root prefix.
	ErrNoRootPrefix = errors.New("no link root prefix configured")
	// ErrUnknownResourceType is returned when a pattern is tagged with an unsupported type.
	ErrUnknownResourceType = errors.New("unknown resource type")
)

// ParseResourceType converts a configuration tag into a ResourceType.
// ResourceTypeUnknown is not accepted since no pattern can produce it.
func ParseResourceType(tag string) (ResourceType, error) {
	switch ResourceType(tag) {
	case ResourceTypeAlbum, ResourceTypeSong, ResourceTypePlaylist,
		ResourceTypeArtist, ResourceTypeMusicVideo:
		return ResourceType(tag), nil
	default:
		return ResourceTypeUnknown, fmt.Errorf("%w: %q", ErrUnknownResourceType, tag)
	}
}

func (t ResourceType) String() string {
	return string(t)
}

// PatternSpec is one type-tagged link pattern. The matcher is always anchored at the
// start of the text it is applied to.
type PatternSpec struct {
	Type    ResourceType
	matcher *regexp.Regexp
	source  string
}

// NewPatternSpec compiles pattern as an anchored matcher for the given resource type.
func NewPatternSpec(resourceType ResourceType, pattern string) (PatternSpec, error) {
	if _, err := ParseResourceType(string(resourceType)); err != nil {
		return PatternSpec{}, err
	}

	matcher, err := compileAnchored(pattern)
	if err != nil {
		return PatternSpec{}, fmt.Errorf("invalid %s pattern: %w", resourceType, err)
	}

	return PatternSpec{
		Type:    resourceType,
		matcher: matcher,
		source:  pattern,
	}, nil
}

// Pattern returns the pattern source the spec was built from.
func (p PatternSpec) Pattern() string {
	return p.source
}

// matchPrefix returns the length of the non-empty match starting at the first byte of s,
// or 0 when the pattern does not match there.
func (p PatternSpec) matchPrefix(s string) int {
	loc := p.matcher.FindStringIndex(s)
	if loc == nil {
		return 0
	}
	return loc[1]
}

// Candidate is a link matched at a single anchor.
type Candidate struct {
	Text  string
	Start int
	Type  ResourceType
}

// ExtractionResult holds distinct links in first-appearance order with their types.
// Links[i] was classified as Types[i].
type ExtractionResult struct {
	Links []string
	Types []ResourceType
}

// Len returns the number of extracted links.
func (r ExtractionResult) Len() int {
	return len(r.Links)
}

// Empty reports whether no link was extracted.
func (r ExtractionResult) Empty() bool {
	return len(r.Links) == 0
}

// TypeNames returns the resource types as plain strings, co-indexed with Links.
func (r ExtractionResult) TypeNames() []string {
	names := make([]string, len(r.Types))
	for i, t := range r.Types {
		names[i] = string(t)
	}
	return names
}

func compileAnchored(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, errors.New("empty pattern")
	}
	return regexp.Compile(`^(?:` + pattern + `)`)
}
