package media_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/media-monitor/internal/cache"
	"github.com/jonesrussell/north-cloud/media-monitor/internal/classify"
	"github.com/jonesrussell/north-cloud/media-monitor/internal/media"
	"github.com/jonesrussell/north-cloud/media-monitor/internal/models"
	"github.com/jonesrussell/north-cloud/media-monitor/internal/preview"
	"github.com/jonesrussell/north-cloud/media-monitor/internal/testhelpers"
)

type stubProber struct {
	rec models.StatusRecord
}

func (s *stubProber) Probe(_ context.Context, _ string, _ classify.Classification) models.StatusRecord {
	return s.rec
}

type stubGenerator struct {
	ref      string
	err      error
	calls    int
	purposes []string
}

func (s *stubGenerator) Generate(_ context.Context, _ string, _ models.Category, purpose string) (string, error) {
	s.calls++
	s.purposes = append(s.purposes, purpose)
	return s.ref, s.err
}

func (s *stubGenerator) Failures(_ string) int             { return 0 }
func (s *stubGenerator) RetryState(_ string) preview.State { return preview.StateFresh }
func (s *stubGenerator) Reset(_ string) error              { return nil }

func activeRecord() models.StatusRecord {
	return models.StatusRecord{Status: models.StatusActive, Message: "File available"}
}

func TestValidateURL(t *testing.T) {
	assert.NoError(t, media.ValidateURL("https://example.com/clip.mp4"))
	assert.ErrorIs(t, media.ValidateURL(""), models.ErrInvalidInput)
	assert.ErrorIs(t, media.ValidateURL("   "), models.ErrInvalidInput)
	assert.ErrorIs(t, media.ValidateURL("example.com/clip.mp4"), models.ErrInvalidInput)
}

func TestCheckStatusGeneratesPreview(t *testing.T) {
	gen := &stubGenerator{ref: "/previews/abc.jpg"}
	svc := media.NewService(&stubProber{rec: activeRecord()}, gen, testhelpers.NewTestLogger())

	rec, err := svc.CheckStatus(context.Background(), "https://cdn.example.com/clip.mp4", "")
	require.NoError(t, err)

	assert.Equal(t, models.StatusActive, rec.Status)
	assert.Equal(t, "/previews/abc.jpg", rec.PreviewRef)
	assert.Equal(t, []string{cache.PurposePreview}, gen.purposes)
}

func TestCheckStatusSkipsPreviewForNonPreviewable(t *testing.T) {
	gen := &stubGenerator{ref: "/previews/abc.jpg"}
	svc := media.NewService(&stubProber{rec: activeRecord()}, gen, testhelpers.NewTestLogger())

	rec, err := svc.CheckStatus(context.Background(), "https://example.com/readme.txt", "")
	require.NoError(t, err)

	assert.Empty(t, rec.PreviewRef)
	assert.Zero(t, gen.calls)
}

func TestCheckStatusSkipsPreviewWhenProbeFailed(t *testing.T) {
	gen := &stubGenerator{}
	svc := media.NewService(&stubProber{rec: models.ErrorRecord("File unavailable")}, gen, testhelpers.NewTestLogger())

	rec, err := svc.CheckStatus(context.Background(), "https://cdn.example.com/clip.mp4", "")
	require.NoError(t, err)

	assert.Equal(t, models.StatusError, rec.Status)
	assert.Zero(t, gen.calls, "no preview work for dead sources")
}

func TestCheckStatusPreviewFailureKeepsRecordActive(t *testing.T) {
	gen := &stubGenerator{err: fmt.Errorf("%w: boom", models.ErrToolFailure)}
	svc := media.NewService(&stubProber{rec: activeRecord()}, gen, testhelpers.NewTestLogger())

	rec, err := svc.CheckStatus(context.Background(), "https://cdn.example.com/clip.mp4", "")
	require.NoError(t, err)

	assert.Equal(t, models.StatusActive, rec.Status, "preview failure must not flip liveness")
	assert.Empty(t, rec.PreviewRef)
	assert.Equal(t, "preview generation failed", rec.Metadata["previewError"])
}

func TestCheckStatusPreviewErrorLabels(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		label string
	}{
		{"exhausted", models.ErrRetriesExhausted, "preview retries exhausted"},
		{"unreachable", models.ErrSourceUnreachable, "source unreachable"},
		{"other", errors.New("disk full"), "preview generation failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &stubGenerator{err: tt.err}
			svc := media.NewService(&stubProber{rec: activeRecord()}, gen, testhelpers.NewTestLogger())

			rec, err := svc.CheckStatus(context.Background(), "https://cdn.example.com/clip.mp4", "")
			require.NoError(t, err)
			assert.Equal(t, tt.label, rec.Metadata["previewError"])
		})
	}
}

func TestCheckStatusImageFallsBackToSourceURL(t *testing.T) {
	gen := &stubGenerator{err: errors.New("boom")}
	svc := media.NewService(&stubProber{rec: activeRecord()}, gen, testhelpers.NewTestLogger())

	rec, err := svc.CheckStatus(context.Background(), "https://img.example.com/photo.png", "")
	require.NoError(t, err)

	// Images render directly in clients, so the source URL stands in.
	assert.Equal(t, "https://img.example.com/photo.png", rec.PreviewRef)
}

func TestCheckStatusInvalidURL(t *testing.T) {
	svc := media.NewService(&stubProber{rec: activeRecord()}, &stubGenerator{}, testhelpers.NewTestLogger())

	_, err := svc.CheckStatus(context.Background(), "not-a-url", "")
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestGenerateThumbnail(t *testing.T) {
	gen := &stubGenerator{ref: "/previews/thumb.jpg"}
	svc := media.NewService(&stubProber{rec: activeRecord()}, gen, testhelpers.NewTestLogger())

	ref, err := svc.GenerateThumbnail(context.Background(), "https://cdn.example.com/clip.mp4", "")
	require.NoError(t, err)

	assert.Equal(t, "/previews/thumb.jpg", ref)
	assert.Equal(t, []string{cache.PurposeThumbnail}, gen.purposes)
}

func TestGenerateThumbnailRejectsUnsupported(t *testing.T) {
	gen := &stubGenerator{}
	svc := media.NewService(&stubProber{rec: activeRecord()}, gen, testhelpers.NewTestLogger())

	for _, url := range []string{
		"https://example.com/readme.txt",
		"https://example.com/index.html",
		"https://example.com/report.pdf",
		"https://example.com/mystery",
	} {
		_, err := svc.GenerateThumbnail(context.Background(), url, "")
		assert.ErrorIs(t, err, models.ErrUnsupportedCategory, "url %s", url)
	}
	assert.Zero(t, gen.calls)
}

func TestResetPreviews(t *testing.T) {
	svc := media.NewService(&stubProber{rec: activeRecord()}, &stubGenerator{}, testhelpers.NewTestLogger())

	assert.NoError(t, svc.ResetPreviews("https://cdn.example.com/clip.mp4"))
	assert.ErrorIs(t, svc.ResetPreviews(""), models.ErrInvalidInput)
}
