package musiclink

// PatternResolver classifies the link that starts at an anchor.
// Specs are tried in order and the first one that matches wins.
type PatternResolver struct {
	specs []PatternSpec
}

// NewPatternResolver creates a resolver over a copy of specs.
func NewPatternResolver(specs []PatternSpec) (*PatternResolver, error) {
	if len(specs) == 0 {
		return nil, ErrNoPatterns
	}

	owned := make([]PatternSpec, len(specs))
	copy(owned, specs)

	return &PatternResolver{specs: owned}, nil
}

// Specs returns a copy of the specs in precedence order.
func (r *PatternResolver) Specs() []PatternSpec {
	specs := make([]PatternSpec, len(r.specs))
	copy(specs, r.specs)
	return specs
}

// Resolve matches every spec anchored exactly at start and returns the first success.
// ok is false when start is out of range or no spec matches there.
func (r *PatternResolver) Resolve(text string, start int) (Candidate, bool) {
	if start < 0 || start >= len(text) {
		return Candidate{}, false
	}

	rest := text[start:]
	for _, spec := range r.specs {
		if n := spec.matchPrefix(rest); n > 0 {
			return Candidate{
				Text:  rest[:n],
				Start: start,
				Type:  spec.Type,
			}, true
		}
	}

	return Candidate{}, false
}

// Classify returns the type of the first spec that matches link from its first byte.
// Links that match nothing are ResourceTypeUnknown.
func (r *PatternResolver) Classify(link string) ResourceType {
	if c, ok := r.Resolve(link, 0); ok {
		return c.Type
	}
	return ResourceTypeUnknown
}
