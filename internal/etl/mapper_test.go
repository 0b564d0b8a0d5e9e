package etl

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deeo-ai/publication-service/internal/domain"
	"github.com/deeo-ai/publication-service/internal/sources/arxiv"
)

func TestMapper_MapPublication(t *testing.T) {
	t.Parallel()

	mapper := NewMapper(zerolog.Nop())

	rec := &arxiv.Record{
		ArxivID:    "1706.03762",
		Title:      "  Attention Is All You Need  ",
		Summary:    "  The dominant sequence transduction models...  ",
		Published:  "2017-06-12T17:57:34Z",
		DOI:        "",
		JournalRef: "NeurIPS 2017",
		Authors:    []string{"Ashish Vaswani", "Noam Shazeer"},
		Categories: []string{"cs.CL", "cs.LG"},
	}

	pub := mapper.MapPublication(rec)

	assert.Equal(t, "Attention Is All You Need", pub.Title)
	assert.Equal(t, "The dominant sequence transduction models...", pub.Abstract)
	assert.Equal(t, "10.48550/arXiv.1706.03762", pub.DOI)
	assert.Equal(t, "1706.03762", pub.ArxivID)
	assert.Equal(t, "https://arxiv.org/abs/1706.03762", pub.URL)
	assert.Equal(t, "NeurIPS 2017", pub.Venue)
	assert.Equal(t, domain.PublicationTypePreprint, pub.Type)
	assert.Equal(t, domain.PublicationStatusPendingEnrichment, pub.Status)
	assert.Equal(t, 0, pub.CitationCount)
	assert.Equal(t, 2, pub.AuthorCount)
	assert.Equal(t, "arXiv", pub.Source)

	require.NotNil(t, pub.PublicationDate)
	assert.Equal(t, time.Date(2017, 6, 12, 17, 57, 34, 0, time.UTC), pub.PublicationDate.UTC())
}

func TestMapper_MapPublication_KeepsExistingDOI(t *testing.T) {
	t.Parallel()

	mapper := NewMapper(zerolog.Nop())

	pub := mapper.MapPublication(&arxiv.Record{
		ArxivID: "2301.12345",
		Title:   "Some Paper",
		DOI:     "10.1000/example.42",
	})

	assert.Equal(t, "10.1000/example.42", pub.DOI)
}

func TestMapper_MapPublication_BadDateLeftUnset(t *testing.T) {
	t.Parallel()

	mapper := NewMapper(zerolog.Nop())

	pub := mapper.MapPublication(&arxiv.Record{
		ArxivID:   "2301.12345",
		Title:     "Some Paper",
		Published: "not-a-date",
	})

	assert.Nil(t, pub.PublicationDate)
}

func TestMapper_MapAuthors(t *testing.T) {
	t.Parallel()

	mapper := NewMapper(zerolog.Nop())

	authors := mapper.MapAuthors([]string{
		"Geoffrey Everest Hinton",
		"  ",
		"Cher",
	})

	require.Len(t, authors, 2)
	assert.Equal(t, "Geoffrey Everest", authors[0].FirstName)
	assert.Equal(t, "Hinton", authors[0].LastName)
	assert.Equal(t, "", authors[1].FirstName)
	assert.Equal(t, "Cher", authors[1].LastName)
}

func TestCategoryMapper_MapCategories(t *testing.T) {
	t.Parallel()

	cm := NewCategoryMapper()

	tests := []struct {
		name       string
		categories []string
		want       []string
	}{
		{
			name:       "known categories in order",
			categories: []string{"cs.CV", "cs.LG"},
			want:       []string{"Computer Vision", "Machine Learning"},
		},
		{
			name:       "unknown categories dropped",
			categories: []string{"math.CO", "cs.AI", "q-bio.NC"},
			want:       []string{"Artificial Intelligence"},
		},
		{
			name:       "duplicates collapse to first occurrence",
			categories: []string{"cs.LG", "cs.LG", "stat.ML"},
			want:       []string{"Machine Learning", "Statistical Machine Learning"},
		},
		{
			name:       "no usable categories",
			categories: []string{"math.CO"},
			want:       nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, cm.MapCategories(tt.categories))
		})
	}
}

func TestCategoryMapper_PrimaryTheme(t *testing.T) {
	t.Parallel()

	cm := NewCategoryMapper()

	assert.Equal(t, "Natural Language Processing", cm.PrimaryTheme([]string{"cs.CL", "cs.LG"}))
	assert.Equal(t, "", cm.PrimaryTheme([]string{"math.CO"}))
}

func TestCategoryMapper_ExtractThemesFromText(t *testing.T) {
	t.Parallel()

	cm := NewCategoryMapper()

	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "multiple keyword hits",
			text: "Deep learning for computer vision",
			want: []string{"Computer Vision", "Neural Networks"},
		},
		{
			name: "single hit",
			text: "A bayesian approach to inference",
			want: []string{"Statistical Machine Learning"},
		},
		{
			name: "no hits",
			text: "On the enumeration of planar graphs",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, cm.ExtractThemesFromText(tt.text))
		})
	}
}
