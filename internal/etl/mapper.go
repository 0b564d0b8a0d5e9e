package etl

import (
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/deeo-ai/publication-service/internal/domain"
	"github.com/deeo-ai/publication-service/internal/sources/arxiv"
)

// Mapper converts collected arXiv records into domain entities.
type Mapper struct {
	logger zerolog.Logger
}

// NewMapper creates a new record mapper.
func NewMapper(logger zerolog.Logger) *Mapper {
	return &Mapper{
		logger: logger.With().Str("component", "etl_mapper").Logger(),
	}
}

// MapPublication converts an arXiv record into a publication ready for
// deduplication and persistence. A missing DOI is synthesized from the
// arXiv id; an unparseable published date is dropped with a warning
// rather than failing the record.
func (m *Mapper) MapPublication(rec *arxiv.Record) *domain.Publication {
	var pubDate *time.Time
	if rec.Published != "" {
		parsed, err := time.Parse(time.RFC3339, rec.Published)
		if err != nil {
			m.logger.Warn().
				Str("arxiv_id", rec.ArxivID).
				Str("published", rec.Published).
				Msg("failed to parse publication date, leaving unset")
		} else {
			pubDate = &parsed
		}
	}

	doi := strings.TrimSpace(rec.DOI)
	if doi == "" && rec.ArxivID != "" {
		doi = domain.SynthesizeDOI(rec.ArxivID)
	}

	var url string
	if rec.ArxivID != "" {
		url = domain.AbstractURL(rec.ArxivID)
	}

	return &domain.Publication{
		Title:           strings.TrimSpace(rec.Title),
		Abstract:        strings.TrimSpace(rec.Summary),
		DOI:             doi,
		ArxivID:         rec.ArxivID,
		URL:             url,
		Venue:           strings.TrimSpace(rec.JournalRef),
		PublicationDate: pubDate,
		Type:            domain.PublicationTypePreprint,
		Status:          domain.PublicationStatusPendingEnrichment,
		CitationCount:   0,
		AuthorCount:     len(rec.Authors),
		Source:          "arXiv",
	}
}

// MapAuthors converts author name strings into Author entities, splitting
// each full name into first and last names. Blank names are skipped.
func (m *Mapper) MapAuthors(names []string) []*domain.Author {
	authors := make([]*domain.Author, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		first, last := domain.ParseAuthorName(name)
		authors = append(authors, &domain.Author{
			FirstName: first,
			LastName:  last,
		})
	}
	return authors
}

// themeKeywords pairs a theme label with the keywords that signal it in
// free text. Kept as an ordered slice so extraction output is deterministic.
type themeKeywords struct {
	label    string
	keywords []string
}

// CategoryMapper maps arXiv category codes to research theme labels.
type CategoryMapper struct {
	categories map[string]string
	themes     []themeKeywords
}

// NewCategoryMapper creates a category mapper with the fixed arXiv
// category and keyword tables.
func NewCategoryMapper() *CategoryMapper {
	return &CategoryMapper{
		categories: map[string]string{
			"cs.AI":   "Artificial Intelligence",
			"cs.LG":   "Machine Learning",
			"cs.CV":   "Computer Vision",
			"cs.CL":   "Natural Language Processing",
			"cs.NE":   "Neural Networks",
			"stat.ML": "Statistical Machine Learning",
			"cs.RO":   "Robotics",
			"cs.IR":   "Information Retrieval",
			"cs.HC":   "Human-Computer Interaction",
			"cs.CR":   "Cryptography and Security",
		},
		themes: []themeKeywords{
			{"Artificial Intelligence", []string{"ai", "artificial intelligence", "intelligent systems"}},
			{"Machine Learning", []string{"machine learning", "ml", "supervised", "unsupervised"}},
			{"Computer Vision", []string{"vision", "image", "visual", "object detection"}},
			{"Natural Language Processing", []string{"nlp", "language", "text", "linguistic"}},
			{"Neural Networks", []string{"neural", "deep learning", "cnn", "rnn", "transformer"}},
			{"Statistical Machine Learning", []string{"statistics", "probabilistic", "bayesian"}},
			{"Robotics", []string{"robot", "robotics", "autonomous"}},
			{"Information Retrieval", []string{"search", "retrieval", "ranking"}},
			{"Human-Computer Interaction", []string{"hci", "interaction", "user interface"}},
			{"Cryptography and Security", []string{"security", "cryptography", "privacy"}},
		},
	}
}

// MapCategories maps arXiv category codes to theme labels, dropping unknown
// codes and deduplicating while preserving first-seen order.
func (cm *CategoryMapper) MapCategories(categories []string) []string {
	var themes []string
	seen := make(map[string]bool)
	for _, category := range categories {
		label, ok := cm.categories[category]
		if !ok || seen[label] {
			continue
		}
		seen[label] = true
		themes = append(themes, label)
	}
	return themes
}

// PrimaryTheme returns the first mapped theme, or "" if no category maps.
func (cm *CategoryMapper) PrimaryTheme(categories []string) string {
	themes := cm.MapCategories(categories)
	if len(themes) == 0 {
		return ""
	}
	return themes[0]
}

// ExtractThemesFromText returns every theme label with at least one keyword
// hit in the text. Useful when a record carries no usable categories.
func (cm *CategoryMapper) ExtractThemesFromText(text string) []string {
	textLower := strings.ToLower(text)
	var matches []string
	for _, tk := range cm.themes {
		for _, keyword := range tk.keywords {
			if strings.Contains(textLower, keyword) {
				matches = append(matches, tk.label)
				break
			}
		}
	}
	return matches
}
