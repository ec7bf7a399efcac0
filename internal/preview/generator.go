// Package preview generates still-image previews for video, stream and image
// resources via the external ffmpeg tool, with content-addressed on-disk
// caching and a bounded retry budget per URL.
package preview

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jonesrussell/north-cloud/media-monitor/internal/cache"
	"github.com/jonesrussell/north-cloud/media-monitor/internal/ffmpeg"
	"github.com/jonesrussell/north-cloud/media-monitor/internal/logger"
	"github.com/jonesrussell/north-cloud/media-monitor/internal/models"
)

// frameOffset is where in the media the still frame is taken from.
const frameOffset = 1 * time.Second

// Reachability is the lightweight pre-check applied before the external tool
// is invoked. Unreachable sources short-circuit to a failure.
type Reachability interface {
	Reachable(ctx context.Context, rawURL string) bool
}

// ErrorSink receives structured error events for every generation failure.
type ErrorSink interface {
	ReportPreviewFailure(ctx context.Context, rawURL string, category models.Category, failures int, cause error)
}

// Options configures the generated image dimensions.
type Options struct {
	Width  int
	Height int
}

// Generator produces previews, consulting the cache before invoking the
// external tool and the governor before every attempt.
type Generator struct {
	store    *cache.Store
	media    ffmpeg.Runner
	governor *Governor
	reach    Reachability
	sink     ErrorSink
	opts     Options
	log      logger.Logger
}

// NewGenerator wires a generator. sink may be nil when no error sink is
// configured.
func NewGenerator(
	store *cache.Store,
	media ffmpeg.Runner,
	governor *Governor,
	reach Reachability,
	sink ErrorSink,
	opts Options,
	log logger.Logger,
) *Generator {
	if opts.Width <= 0 {
		opts.Width = 320
	}
	if opts.Height <= 0 {
		opts.Height = 240
	}
	return &Generator{
		store:    store,
		media:    media,
		governor: governor,
		reach:    reach,
		sink:     sink,
		opts:     opts,
		log:      log,
	}
}

// Generate returns a preview reference for the URL, generating the image if
// no cache entry exists yet. purpose namespaces the cache key (preview vs
// thumbnail). Only video, stream and image categories are supported.
//
// A cache hit returns immediately without touching the governor or the
// external tool; this is the idempotence and cost-control guarantee.
func (g *Generator) Generate(ctx context.Context, rawURL string, category models.Category, purpose string) (string, error) {
	if !category.Previewable() {
		return "", fmt.Errorf("%w: %s", models.ErrUnsupportedCategory, category)
	}

	key := cache.Key(rawURL, purpose)
	if g.store.Exists(key) {
		g.log.Debug("preview cache hit",
			logger.String("url", rawURL),
			logger.String("key", key),
		)
		return g.store.Ref(key), nil
	}

	if g.governor.Exhausted(rawURL) {
		err := fmt.Errorf("%w: %s", models.ErrRetriesExhausted, rawURL)
		g.report(ctx, rawURL, category, err)
		return "", err
	}

	if !g.reach.Reachable(ctx, rawURL) {
		return "", g.fail(ctx, rawURL, category, models.ErrSourceUnreachable)
	}

	outPath := g.store.Path(key)
	var err error
	if category == models.CategoryImage {
		err = g.media.Transcode(ctx, rawURL, outPath, g.opts.Width, g.opts.Height)
	} else {
		err = g.media.ExtractFrame(ctx, rawURL, outPath, frameOffset, g.opts.Width, g.opts.Height)
	}
	if err != nil {
		// A failed invocation may leave a partial file behind; a partial
		// entry must never count as generated.
		_ = os.Remove(outPath)
		return "", g.fail(ctx, rawURL, category, err)
	}

	g.governor.RecordSuccess(rawURL)
	g.log.Info("preview generated",
		logger.String("url", rawURL),
		logger.String("category", string(category)),
		logger.String("key", key),
	)
	return g.store.Ref(key), nil
}

// Failures returns the consecutive failure count for a URL.
func (g *Generator) Failures(rawURL string) int {
	return g.governor.Failures(rawURL)
}

// RetryState returns the governor state for a URL.
func (g *Generator) RetryState(rawURL string) State {
	return g.governor.StateOf(rawURL)
}

// Reset clears the retry state for a URL and invalidates its cached
// previews so the next cycle regenerates them.
func (g *Generator) Reset(rawURL string) error {
	g.governor.Reset(rawURL)
	var errs []error
	for _, purpose := range []string{cache.PurposePreview, cache.PurposeThumbnail} {
		if err := g.store.Remove(cache.Key(rawURL, purpose)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// fail records the failure with the governor and reports it to the error
// sink before surfacing it to the caller.
func (g *Generator) fail(ctx context.Context, rawURL string, category models.Category, cause error) error {
	count := g.governor.RecordFailure(rawURL)
	g.log.Warn("preview generation failed",
		logger.String("url", rawURL),
		logger.String("category", string(category)),
		logger.Int("consecutive_failures", count),
		logger.Error(cause),
	)
	g.report(ctx, rawURL, category, cause)
	return cause
}

func (g *Generator) report(ctx context.Context, rawURL string, category models.Category, cause error) {
	if g.sink == nil {
		return
	}
	g.sink.ReportPreviewFailure(ctx, rawURL, category, g.governor.Failures(rawURL), cause)
}
