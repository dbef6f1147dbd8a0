package core

import (
	"errors"

	"amlinks/pkg/musiclink"
)

// ErrEmptyInput is returned when a task input is empty after trimming.
var ErrEmptyInput = errors.New("input must not be empty")

// TaskRequest is the body of a link extraction request.
type TaskRequest struct {
	Input string `json:"input" yaml:"input" validate:"required"`
}

// TaskResponse is the result of a link extraction request.
type TaskResponse struct {
	AppleMusicLinks []string `json:"apple_music_links" yaml:"apple_music_links"`
	LinkTypes       []string `json:"link_types" yaml:"link_types"`
	NeedsSearch     bool     `json:"needs_search" yaml:"needs_search"`
	Message         string   `json:"message" yaml:"message"`

	// Cached is true when the result came from the result cache.
	Cached bool `json:"-" yaml:"-"`
}

// LinkExtractor extracts classified links from text.
type LinkExtractor interface {
	Extract(text string) (musiclink.ExtractionResult, bool)
}

// ResultCache stores extraction results by input text.
type ResultCache interface {
	Get(text string) (musiclink.ExtractionResult, bool)
	Add(text string, result musiclink.ExtractionResult)
}
