package classifier

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/deeo-ai/publication-service/internal/repository"
)

// ThemeResolver supplies candidate labels for classification from the theme
// repository, falling back to DefaultThemes when the database has none.
type ThemeResolver struct {
	themes repository.ThemeRepository
	logger zerolog.Logger
}

// NewThemeResolver creates a resolver backed by the theme repository.
func NewThemeResolver(themes repository.ThemeRepository, logger zerolog.Logger) *ThemeResolver {
	return &ThemeResolver{
		themes: themes,
		logger: logger.With().Str("component", "theme_resolver").Logger(),
	}
}

// Labels returns the candidate theme labels. Database errors degrade to the
// default label set rather than failing classification.
func (r *ThemeResolver) Labels(ctx context.Context) []string {
	stored, _, err := r.themes.List(ctx, 1000, 0)
	if err != nil {
		r.logger.Warn().Err(err).Msg("failed to load themes, using default labels")
		return DefaultThemes
	}
	if len(stored) == 0 {
		return DefaultThemes
	}

	labels := make([]string, 0, len(stored))
	for _, theme := range stored {
		labels = append(labels, theme.Label)
	}
	return labels
}
