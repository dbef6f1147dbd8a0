package musiclink

// Extractor finds, classifies and deduplicates catalog links in free-form text.
// It holds no per-call state and is safe for concurrent use.
type Extractor struct {
	root       *RootPrefix
	resolver   *PatternResolver
	separators []string
}

// NewExtractor builds an extractor from a root-prefix pattern and pattern specs in precedence order.
// Separators are kept as configuration only; segmentation is anchor based.
func NewExtractor(rootPattern string, specs []PatternSpec, separators []string) (*Extractor, error) {
	root, err := NewRootPrefix(rootPattern)
	if err != nil {
		return nil, err
	}

	resolver, err := NewPatternResolver(specs)
	if err != nil {
		return nil, err
	}

	return &Extractor{
		root:       root,
		resolver:   resolver,
		separators: append([]string(nil), separators...),
	}, nil
}

// Extract returns the distinct links in text in order of first appearance.
// needsFallback is true when no link was found.
func (e *Extractor) Extract(text string) (result ExtractionResult, needsFallback bool) {
	anchors := e.root.Anchors(text)
	if len(anchors) == 0 {
		return ExtractionResult{}, true
	}

	candidates := make([]Candidate, 0, len(anchors))
	for i, start := range anchors {
		// A link never extends into the next anchor, so back-to-back links split cleanly.
		end := len(text)
		if i+1 < len(anchors) {
			end = anchors[i+1]
		}

		c, ok := e.resolver.Resolve(text[:end], start)
		if !ok || !e.root.Contains(c.Text) {
			continue
		}
		candidates = append(candidates, c)
	}

	result = Deduplicate(candidates)
	return result, result.Empty()
}

// Classify returns the resource type of a single link by pattern precedence.
func (e *Extractor) Classify(link string) ResourceType {
	return e.resolver.Classify(link)
}

// Root returns the root prefix matcher.
func (e *Extractor) Root() *RootPrefix {
	return e.root
}

// Specs returns the pattern specs in precedence order.
func (e *Extractor) Specs() []PatternSpec {
	return e.resolver.Specs()
}

// Separators returns the configured separators.
func (e *Extractor) Separators() []string {
	return append([]string(nil), e.separators...)
}
