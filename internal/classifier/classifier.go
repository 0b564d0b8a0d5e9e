// Package classifier assigns research theme labels to publication text.
package classifier

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/deeo-ai/publication-service/internal/domain"
)

// DefaultThemes is the fallback candidate label set used when no themes
// exist in the database yet.
var DefaultThemes = []string{
	"Artificial Intelligence",
	"Machine Learning",
	"Computer Vision",
	"Natural Language Processing",
	"Neural Networks",
	"Statistical Machine Learning",
	"Robotics",
	"Information Retrieval",
	"Human-Computer Interaction",
	"Cryptography and Security",
}

// ScoredLabel is a candidate label with its relevance score in [0, 1].
type ScoredLabel struct {
	Label string
	Score float64
}

// Classifier scores candidate labels against a text and returns the topK
// best matches, highest score first.
type Classifier interface {
	Classify(ctx context.Context, text string, labels []string, topK int) ([]ScoredLabel, error)
}

// KeywordClassifier scores labels by keyword occurrence in the text.
// Each label's score is the fraction of its keywords found; a label with
// no keyword table scores on occurrences of the label itself.
type KeywordClassifier struct {
	keywords map[string][]string
}

// Compile-time interface verification.
var _ Classifier = (*KeywordClassifier)(nil)

// NewKeywordClassifier creates a classifier from a label-to-keywords table.
// A nil table is valid; labels then score on their own name only.
func NewKeywordClassifier(keywords map[string][]string) *KeywordClassifier {
	return &KeywordClassifier{keywords: keywords}
}

// Classify scores each candidate label against the text.
func (c *KeywordClassifier) Classify(ctx context.Context, text string, labels []string, topK int) ([]ScoredLabel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, domain.NewValidationError("text", "text is required")
	}
	if topK <= 0 {
		topK = len(labels)
	}

	textLower := strings.ToLower(text)

	scored := make([]ScoredLabel, 0, len(labels))
	for _, label := range labels {
		scored = append(scored, ScoredLabel{
			Label: label,
			Score: c.score(textLower, label),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > topK {
		scored = scored[:topK]
	}
	return scored, nil
}

// score returns the fraction of the label's keywords present in the text.
func (c *KeywordClassifier) score(textLower, label string) float64 {
	keywords := c.keywords[label]
	if len(keywords) == 0 {
		keywords = []string{strings.ToLower(label)}
	}

	hits := 0
	for _, keyword := range keywords {
		if strings.Contains(textLower, strings.ToLower(keyword)) {
			hits++
		}
	}
	return float64(hits) / float64(len(keywords))
}

// LazyClassifier defers construction of an expensive classifier until first
// use. Construction runs at most once; a failed load is retried on the
// next call.
type LazyClassifier struct {
	mu      sync.Mutex
	load    func() (Classifier, error)
	wrapped Classifier
}

// Compile-time interface verification.
var _ Classifier = (*LazyClassifier)(nil)

// NewLazyClassifier creates a lazy wrapper around the given loader.
func NewLazyClassifier(load func() (Classifier, error)) *LazyClassifier {
	return &LazyClassifier{load: load}
}

// Classify loads the wrapped classifier on first use, then delegates.
func (l *LazyClassifier) Classify(ctx context.Context, text string, labels []string, topK int) ([]ScoredLabel, error) {
	c, err := l.ensureLoaded()
	if err != nil {
		return nil, err
	}
	return c.Classify(ctx, text, labels, topK)
}

func (l *LazyClassifier) ensureLoaded() (Classifier, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.wrapped != nil {
		return l.wrapped, nil
	}

	c, err := l.load()
	if err != nil {
		return nil, err
	}
	l.wrapped = c
	return c, nil
}
