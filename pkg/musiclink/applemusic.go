package musiclink

import (
	"fmt"
)

const (
	// AppleMusicRootPattern matches the three Apple Music web hosts a link can start with.
	AppleMusicRootPattern = `https://(?:beta\.music|music|classical\.music)\.apple\.com`

	// appleMusicStorefront is the optional two-letter storefront segment (/us, /gb, ...).
	appleMusicStorefront = `(?:/[a-z]{2})?`
	// appleMusicSlug is the optional human-readable name segment.
	appleMusicSlug = `(?:/[^/\s?#]+)?`
	// appleMusicNumericID is a catalog ID, optionally written with the legacy "id" prefix.
	appleMusicNumericID = `/(?:id)?\d+`
	// appleMusicQuery is an optional query string that never ends in a period.
	appleMusicQuery = `(?:\?[\w=&%.-]*[\w=&%-])?`
)

// PatternDefinition is the configuration form of a PatternSpec.
type PatternDefinition struct {
	Name    string
	Type    ResourceType
	Pattern string
}

// DefaultAppleMusicPatterns returns the built-in Apple Music patterns in precedence order:
// album, song, playlist, artist, music video.
func DefaultAppleMusicPatterns() []PatternDefinition {
	return []PatternDefinition{
		{
			Name:    "album",
			Type:    ResourceTypeAlbum,
			Pattern: appleMusicPath("album", appleMusicNumericID),
		},
		{
			Name:    "song",
			Type:    ResourceTypeSong,
			Pattern: appleMusicPath("song", appleMusicNumericID),
		},
		{
			Name:    "playlist",
			Type:    ResourceTypePlaylist,
			Pattern: appleMusicPath("playlist", `/pl\.[\w-]+`),
		},
		{
			Name:    "artist",
			Type:    ResourceTypeArtist,
			Pattern: appleMusicPath("artist", appleMusicNumericID),
		},
		{
			Name:    "music_video",
			Type:    ResourceTypeMusicVideo,
			Pattern: appleMusicPath("music-video", appleMusicNumericID),
		},
	}
}

// DefaultSeparators returns the separators shipped with the default configuration.
func DefaultSeparators() []string {
	return []string{" ", "\n", "\t", ",", "，", ";", "；", "|"}
}

// CompilePatterns compiles definitions into specs, keeping their order.
func CompilePatterns(defs []PatternDefinition) ([]PatternSpec, error) {
	if len(defs) == 0 {
		return nil, ErrNoPatterns
	}

	specs := make([]PatternSpec, 0, len(defs))
	for i, def := range defs {
		spec, err := NewPatternSpec(def.Type, def.Pattern)
		if err != nil {
			return nil, fmt.Errorf("pattern %d (%s): %w", i, def.Name, err)
		}
		specs = append(specs, spec)
	}

	return specs, nil
}

// NewAppleMusicExtractor builds an extractor with the built-in Apple Music configuration.
func NewAppleMusicExtractor() (*Extractor, error) {
	specs, err := CompilePatterns(DefaultAppleMusicPatterns())
	if err != nil {
		return nil, err
	}
	return NewExtractor(AppleMusicRootPattern, specs, DefaultSeparators())
}

func appleMusicPath(kind, id string) string {
	return AppleMusicRootPattern + appleMusicStorefront + "/" + kind + appleMusicSlug + id + appleMusicQuery
}
