// Package media composes the classifier, liveness probe and preview
// generator into the two operations exposed to callers: CheckStatus and
// GenerateThumbnail.
package media

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jonesrussell/north-cloud/media-monitor/internal/cache"
	"github.com/jonesrussell/north-cloud/media-monitor/internal/classify"
	"github.com/jonesrussell/north-cloud/media-monitor/internal/logger"
	"github.com/jonesrussell/north-cloud/media-monitor/internal/models"
	"github.com/jonesrussell/north-cloud/media-monitor/internal/preview"
)

// Prober runs the category-specific liveness check.
type Prober interface {
	Probe(ctx context.Context, rawURL string, cls classify.Classification) models.StatusRecord
}

// Generator produces cached still-image previews.
type Generator interface {
	Generate(ctx context.Context, rawURL string, category models.Category, purpose string) (string, error)
	Failures(rawURL string) int
	RetryState(rawURL string) preview.State
	Reset(rawURL string) error
}

// Service implements one check cycle: classify, probe, and, for previewable
// categories, preview generation.
type Service struct {
	prober    Prober
	generator Generator
	log       logger.Logger
}

func NewService(prober Prober, generator Generator, log logger.Logger) *Service {
	return &Service{
		prober:    prober,
		generator: generator,
		log:       log,
	}
}

// ValidateURL rejects missing or unparsable URLs before any pipeline work.
func ValidateURL(rawURL string) error {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return fmt.Errorf("%w: url is required", models.ErrInvalidInput)
	}
	if !strings.Contains(trimmed, "://") {
		return fmt.Errorf("%w: url must be absolute", models.ErrInvalidInput)
	}
	return nil
}

// CheckStatus runs one synchronous check cycle for a URL. Probe failures
// surface as error-status records; preview failures leave the record active
// but degrade it with a previewError annotation. Only malformed input
// returns an error.
func (s *Service) CheckStatus(ctx context.Context, rawURL, hint string) (models.StatusRecord, error) {
	if err := ValidateURL(rawURL); err != nil {
		return models.StatusRecord{}, err
	}

	cls := classify.Classify(rawURL, hint)
	rec := s.prober.Probe(ctx, rawURL, cls)

	if rec.Status != models.StatusActive || !cls.Category.Previewable() {
		return rec, nil
	}

	ref, err := s.generator.Generate(ctx, rawURL, cls.Category, cache.PurposePreview)
	switch {
	case err == nil:
		rec.PreviewRef = ref
	case cls.Category == models.CategoryImage:
		// Image sources render directly; the source URL stands in until a
		// transcoded preview exists.
		rec.PreviewRef = rawURL
	default:
		// Liveness and preview generation are reported independently; the
		// record stays active without a preview reference.
		if rec.Metadata == nil {
			rec.Metadata = map[string]any{}
		}
		rec.Metadata["previewError"] = previewErrorLabel(err)
	}

	return rec, nil
}

// Classify resolves the category for a URL and hint without any I/O.
func (s *Service) Classify(rawURL, hint string) classify.Classification {
	return classify.Classify(rawURL, hint)
}

// GenerateThumbnail produces a thumbnail for a previewable URL. Unsupported
// categories (text, html, document, unknown) are rejected with
// ErrUnsupportedCategory.
func (s *Service) GenerateThumbnail(ctx context.Context, rawURL, hint string) (string, error) {
	if err := ValidateURL(rawURL); err != nil {
		return "", err
	}

	cls := classify.Classify(rawURL, hint)
	if !cls.Category.Previewable() {
		return "", fmt.Errorf("%w: thumbnails are not supported for %s", models.ErrUnsupportedCategory, cls.Category)
	}

	return s.generator.Generate(ctx, rawURL, cls.Category, cache.PurposeThumbnail)
}

// PreviewFailures returns the consecutive preview failure count for a URL.
func (s *Service) PreviewFailures(rawURL string) int {
	return s.generator.Failures(rawURL)
}

// PreviewState returns the retry governor state for a URL.
func (s *Service) PreviewState(rawURL string) preview.State {
	return s.generator.RetryState(rawURL)
}

// ResetPreviews clears the retry state and cached previews for a URL.
func (s *Service) ResetPreviews(rawURL string) error {
	if err := ValidateURL(rawURL); err != nil {
		return err
	}
	return s.generator.Reset(rawURL)
}

func previewErrorLabel(err error) string {
	switch {
	case errors.Is(err, models.ErrRetriesExhausted):
		return "preview retries exhausted"
	case errors.Is(err, models.ErrSourceUnreachable):
		return "source unreachable"
	default:
		return "preview generation failed"
	}
}
