package core

import (
	"strings"

	"go.uber.org/zap"

	"amlinks/internal/i18n"
	"amlinks/pkg/musiclink"
)

// TaskService turns free-form input into a task response: it extracts Apple Music links,
// or flags the input for the search fallback when there are none.
type TaskService struct {
	extractor LinkExtractor
	cache     ResultCache
	language  string
	logger    *zap.Logger
}

// NewTaskService creates a task service. cache may be nil to disable result caching.
func NewTaskService(extractor LinkExtractor, cache ResultCache, language string, logger *zap.Logger) *TaskService {
	if !i18n.IsSupported(language) {
		language = i18n.DefaultLanguage
	}

	return &TaskService{
		extractor: extractor,
		cache:     cache,
		language:  language,
		logger:    logger,
	}
}

// Language returns the default response language.
func (s *TaskService) Language() string {
	return s.language
}

// CacheEnabled reports whether results are served from a result cache.
func (s *TaskService) CacheEnabled() bool {
	return s.cache != nil
}

// Process extracts links from input and builds the response message in the given language.
// An empty language selects the service default.
func (s *TaskService) Process(input, language string) (*TaskResponse, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, ErrEmptyInput
	}

	if language == "" {
		language = s.language
	}
	localizer := i18n.NewLocalizer(language)

	result, cached := s.extract(input)

	if result.Empty() {
		s.logger.Info("No Apple Music links detected, search required",
			zap.String("input", input),
			zap.Bool("cached", cached))

		return &TaskResponse{
			AppleMusicLinks: []string{},
			LinkTypes:       []string{},
			NeedsSearch:     true,
			Message:         localizer.T("task.needs_search"),
			Cached:          cached,
		}, nil
	}

	s.logger.Info("Detected Apple Music links",
		zap.Int("count", result.Len()),
		zap.Bool("cached", cached))
	for i, link := range result.Links {
		s.logger.Debug("Apple Music link",
			zap.Int("index", i+1),
			zap.String("type", result.Types[i].String()),
			zap.String("link", link))
	}

	return &TaskResponse{
		AppleMusicLinks: result.Links,
		LinkTypes:       result.TypeNames(),
		NeedsSearch:     false,
		Message:         localizer.T("task.links_found", result.Len(), summarizeTypes(localizer, result.Types)),
		Cached:          cached,
	}, nil
}

func (s *TaskService) extract(input string) (musiclink.ExtractionResult, bool) {
	if s.cache != nil {
		if result, ok := s.cache.Get(input); ok {
			return result, true
		}
	}

	result, _ := s.extractor.Extract(input)

	if s.cache != nil {
		s.cache.Add(input, result)
	}
	return result, false
}

// summarizeTypes renders per-type counts in order of first appearance, e.g. "2 album, 1 song".
func summarizeTypes(localizer *i18n.Localizer, types []musiclink.ResourceType) string {
	counts := make(map[musiclink.ResourceType]int, len(types))
	order := make([]musiclink.ResourceType, 0, len(types))
	for _, t := range types {
		if counts[t] == 0 {
			order = append(order, t)
		}
		counts[t]++
	}

	parts := make([]string, len(order))
	for i, t := range order {
		parts[i] = localizer.T("task.type_count", counts[t], t.String())
	}
	return strings.Join(parts, localizer.T("task.summary_separator"))
}
