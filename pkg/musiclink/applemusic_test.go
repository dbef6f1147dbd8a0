package musiclink

import (
	"errors"
	"testing"
)

func newTestAppleMusicExtractor(t *testing.T) *Extractor {
	t.Helper()

	extractor, err := NewAppleMusicExtractor()
	if err != nil {
		t.Fatalf("NewAppleMusicExtractor() unexpected error: %v", err)
	}
	return extractor
}

func TestDefaultAppleMusicPatterns_Order(t *testing.T) {
	defs := DefaultAppleMusicPatterns()

	expected := []ResourceType{
		ResourceTypeAlbum,
		ResourceTypeSong,
		ResourceTypePlaylist,
		ResourceTypeArtist,
		ResourceTypeMusicVideo,
	}

	if len(defs) != len(expected) {
		t.Fatalf("DefaultAppleMusicPatterns() returned %d patterns, want %d", len(defs), len(expected))
	}

	for i, def := range defs {
		if def.Type != expected[i] {
			t.Errorf("pattern %d type = %v, want %v", i, def.Type, expected[i])
		}
		if def.Name == "" {
			t.Errorf("pattern %d has no name", i)
		}
	}
}

//nolint:dupl // Classification tables intentionally mirror each other across resource types.
func TestAppleMusicExtractor_Classify(t *testing.T) {
	t.Helper()

	extractor := newTestAppleMusicExtractor(t)

	tests := []struct {
		name     string
		url      string
		expected ResourceType
	}{
		{
			name:     "Album",
			url:      "https://music.apple.com/us/album/never-gonna-give-you-up/123456",
			expected: ResourceTypeAlbum,
		},
		{
			name:     "Album track via i= parameter",
			url:      "https://music.apple.com/us/album/never-gonna-give-you-up/123456?i=789",
			expected: ResourceTypeAlbum,
		},
		{
			name:     "Album with legacy id prefix",
			url:      "https://music.apple.com/gb/album/some-album/id123",
			expected: ResourceTypeAlbum,
		},
		{
			name:     "Classical album without storefront",
			url:      "https://classical.music.apple.com/album/1234567",
			expected: ResourceTypeAlbum,
		},
		{
			name:     "Beta host album",
			url:      "https://beta.music.apple.com/us/album/test/42",
			expected: ResourceTypeAlbum,
		},
		{
			name:     "Direct song link",
			url:      "https://music.apple.com/us/song/track-name/987654321",
			expected: ResourceTypeSong,
		},
		{
			name:     "Song link without slug",
			url:      "https://music.apple.com/jp/song/987654321",
			expected: ResourceTypeSong,
		},
		{
			name:     "Playlist",
			url:      "https://music.apple.com/us/playlist/todays-hits/pl.f4d106fed2bd41149aaacabb233eb5eb",
			expected: ResourceTypePlaylist,
		},
		{
			name:     "User playlist",
			url:      "https://music.apple.com/us/playlist/my-mix/pl.u-aZb0kqXTPdKNB8",
			expected: ResourceTypePlaylist,
		},
		{
			name:     "Artist",
			url:      "https://music.apple.com/us/artist/rick-astley/669771",
			expected: ResourceTypeArtist,
		},
		{
			name:     "Music video",
			url:      "https://music.apple.com/us/music-video/never-gonna-give-you-up/1558533900",
			expected: ResourceTypeMusicVideo,
		},
		{
			name:     "Browse page is unknown",
			url:      "https://music.apple.com/us/browse",
			expected: ResourceTypeUnknown,
		},
		{
			name:     "Legacy iTunes host is unknown",
			url:      "https://itunes.apple.com/us/album/some-album/id123",
			expected: ResourceTypeUnknown,
		},
		{
			name:     "Non-Apple URL is unknown",
			url:      "https://open.spotify.com/track/123",
			expected: ResourceTypeUnknown,
		},
		{
			name:     "Empty string is unknown",
			url:      "",
			expected: ResourceTypeUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := extractor.Classify(tt.url)
			if result != tt.expected {
				t.Errorf("Classify() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestCompilePatterns(t *testing.T) {
	tests := []struct {
		name    string
		defs    []PatternDefinition
		wantErr error
	}{
		{
			name:    "Empty list",
			defs:    nil,
			wantErr: ErrNoPatterns,
		},
		{
			name: "Unknown type tag",
			defs: []PatternDefinition{
				{Name: "podcast", Type: ResourceType("podcast"), Pattern: `https://x`},
			},
			wantErr: ErrUnknownResourceType,
		},
		{
			name: "Unknown type is not configurable",
			defs: []PatternDefinition{
				{Name: "fallback", Type: ResourceTypeUnknown, Pattern: `https://x`},
			},
			wantErr: ErrUnknownResourceType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CompilePatterns(tt.defs)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("CompilePatterns() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	t.Run("Invalid regex", func(t *testing.T) {
		_, err := CompilePatterns([]PatternDefinition{
			{Name: "album", Type: ResourceTypeAlbum, Pattern: `https://(unclosed`},
		})
		if err == nil {
			t.Error("CompilePatterns() expected error for invalid regex but got none")
		}
	})

	t.Run("Keeps order", func(t *testing.T) {
		specs, err := CompilePatterns(DefaultAppleMusicPatterns())
		if err != nil {
			t.Fatalf("CompilePatterns() unexpected error: %v", err)
		}
		for i, def := range DefaultAppleMusicPatterns() {
			if specs[i].Type != def.Type || specs[i].Pattern() != def.Pattern {
				t.Errorf("spec %d = %v %q, want %v %q", i, specs[i].Type, specs[i].Pattern(), def.Type, def.Pattern)
			}
		}
	})
}
