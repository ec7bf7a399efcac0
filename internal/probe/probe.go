// Package probe implements category-specific liveness checks for tracked
// media URLs. Every check resolves to a StatusRecord; no error escapes the
// probe boundary.
package probe

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"

	"github.com/jonesrussell/north-cloud/media-monitor/internal/classify"
	"github.com/jonesrussell/north-cloud/media-monitor/internal/ffmpeg"
	"github.com/jonesrussell/north-cloud/media-monitor/internal/logger"
	"github.com/jonesrussell/north-cloud/media-monitor/internal/models"
)

const (
	userAgent = "Mozilla/5.0 (compatible; North-Cloud-MediaMonitor/1.0)"

	hlsMarker  = "#EXTM3U"
	dashMarker = "MPD"

	// contentUnavailable replaces the text preview when the body fetch fails
	// after reachability was already confirmed.
	contentUnavailable = "content unavailable"

	ellipsis = "..."
)

// MetadataProber is the external media-metadata probe (ffprobe).
type MetadataProber interface {
	Probe(ctx context.Context, rawURL string) (*ffmpeg.ProbeResult, error)
}

// Options bound every network call the prober makes.
type Options struct {
	RequestTimeout    time.Duration
	MaxContentBytes   int64
	TextPreviewLength int
}

// Prober performs category-specific liveness and metadata checks.
type Prober struct {
	client *http.Client
	media  MetadataProber
	opts   Options
	log    logger.Logger
	strip  *bluemonday.Policy
}

// New creates a Prober. The media prober handles stream/video metadata;
// everything else goes over plain HTTP.
func New(media MetadataProber, opts Options, log logger.Logger) *Prober {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 10 * time.Second
	}
	if opts.MaxContentBytes <= 0 {
		opts.MaxContentBytes = 1 << 20
	}
	if opts.TextPreviewLength <= 0 {
		opts.TextPreviewLength = 200
	}
	return &Prober{
		client: newClient(opts.RequestTimeout),
		media:  media,
		opts:   opts,
		log:    log,
		strip:  bluemonday.StrictPolicy(),
	}
}

// newClient builds an HTTP client with a tuned transport and hard timeout.
func newClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
			ResponseHeaderTimeout: timeout,
			TLSHandshakeTimeout:   10 * time.Second,
		},
	}
}

// Probe runs the liveness check for a classified URL. It never returns an
// error; every failure mode resolves to a StatusRecord with StatusError.
func (p *Prober) Probe(ctx context.Context, rawURL string, cls classify.Classification) models.StatusRecord {
	switch cls.Category {
	case models.CategoryStream:
		return p.probeStream(ctx, rawURL, cls.Stream)
	case models.CategoryVideo:
		return p.probeVideo(ctx, rawURL)
	case models.CategoryImage:
		return p.probeImage(ctx, rawURL)
	case models.CategoryText:
		return p.probeTextual(ctx, rawURL, false)
	case models.CategoryHTML:
		return p.probeTextual(ctx, rawURL, true)
	case models.CategoryDocument:
		return p.probeDocument(ctx, rawURL)
	default:
		return p.probeUnknown(ctx, rawURL)
	}
}

// Reachable reports whether the URL answers a metadata-only request with a
// 2xx status. Used as the lightweight pre-check before preview generation.
func (p *Prober) Reachable(ctx context.Context, rawURL string) bool {
	_, err := p.head(ctx, rawURL)
	return err == nil
}

func (p *Prober) probeStream(ctx context.Context, rawURL string, kind classify.StreamKind) models.StatusRecord {
	label := "Stream"
	switch kind {
	case classify.StreamHLS, classify.StreamDASH:
		if rec, ok := p.validateManifest(ctx, rawURL, kind); !ok {
			return rec
		}
		if kind == classify.StreamHLS {
			label = "HLS stream"
		} else {
			label = "DASH stream"
		}
	}

	result, err := p.media.Probe(ctx, rawURL)
	if err != nil {
		p.log.Debug("stream probe failed",
			logger.String("url", rawURL),
			logger.Error(err),
		)
		return models.ErrorRecord("Stream unavailable")
	}

	return models.StatusRecord{
		Status:   models.StatusActive,
		Message:  label + " active",
		Metadata: streamMetadata(result),
	}
}

// validateManifest fetches an HLS/DASH manifest and checks it contains the
// expected marker token. A reachable URL with an invalid manifest body is an
// error, not active.
func (p *Prober) validateManifest(ctx context.Context, rawURL string, kind classify.StreamKind) (models.StatusRecord, bool) {
	body, err := p.fetchBounded(ctx, rawURL)
	if err != nil {
		return models.ErrorRecord("Stream unavailable"), false
	}

	marker, name := hlsMarker, "HLS"
	if kind == classify.StreamDASH {
		marker, name = dashMarker, "DASH"
	}
	if !strings.Contains(string(body), marker) {
		return models.ErrorRecord(fmt.Sprintf("Invalid %s manifest format", name)), false
	}
	return models.StatusRecord{}, true
}

func (p *Prober) probeVideo(ctx context.Context, rawURL string) models.StatusRecord {
	// HEAD metadata is best-effort; ffprobe decides liveness for video.
	meta := map[string]any{}
	if head, err := p.head(ctx, rawURL); err == nil {
		mergeHeadMetadata(meta, head)
	}

	result, err := p.media.Probe(ctx, rawURL)
	if err != nil {
		p.log.Debug("video probe failed",
			logger.String("url", rawURL),
			logger.Error(err),
		)
		return models.ErrorRecord("File unavailable")
	}
	for k, v := range streamMetadata(result) {
		meta[k] = v
	}

	return models.StatusRecord{
		Status:   models.StatusActive,
		Message:  "File available",
		Metadata: meta,
	}
}

func (p *Prober) probeImage(ctx context.Context, rawURL string) models.StatusRecord {
	head, err := p.head(ctx, rawURL)
	if err != nil {
		return models.ErrorRecord("File unavailable")
	}

	meta := map[string]any{}
	mergeHeadMetadata(meta, head)

	mimeType := head.contentType
	if mimeType == "" {
		mimeType = classify.MimeFor(urlExtension(rawURL))
	}
	if mimeType != "" {
		meta["mimeType"] = mimeType
	}
	meta["isAnimated"] = urlExtension(rawURL) == "gif"

	return models.StatusRecord{
		Status:   models.StatusActive,
		Message:  "File available",
		Metadata: meta,
	}
}

func (p *Prober) probeDocument(ctx context.Context, rawURL string) models.StatusRecord {
	head, err := p.head(ctx, rawURL)
	if err != nil {
		return models.ErrorRecord("File unavailable")
	}

	meta := map[string]any{}
	mergeHeadMetadata(meta, head)

	return models.StatusRecord{
		Status:   models.StatusActive,
		Message:  "File available",
		Metadata: meta,
	}
}

// probeTextual confirms reachability first, then fetches a bounded body for
// the text preview. Liveness and preview extraction are reported
// independently: a failed or oversized body fetch after a successful HEAD
// still yields an active record, with a placeholder preview.
func (p *Prober) probeTextual(ctx context.Context, rawURL string, isHTML bool) models.StatusRecord {
	head, err := p.head(ctx, rawURL)
	if err != nil {
		return models.ErrorRecord("File unavailable")
	}

	meta := map[string]any{}
	mergeHeadMetadata(meta, head)

	rec := models.StatusRecord{
		Status:   models.StatusActive,
		Message:  "File available",
		Metadata: meta,
	}

	body, err := p.fetchBounded(ctx, rawURL)
	if err != nil {
		p.log.Debug("text preview fetch failed",
			logger.String("url", rawURL),
			logger.Error(err),
		)
		rec.TextPreview = contentUnavailable
		return rec
	}

	text := string(body)
	if isHTML {
		if title := htmlTitle(body); title != "" {
			meta["title"] = title
		}
		text = html.UnescapeString(p.strip.Sanitize(text))
	}
	rec.TextPreview = truncate(collapseWhitespace(text), p.opts.TextPreviewLength)
	return rec
}

func (p *Prober) probeUnknown(ctx context.Context, rawURL string) models.StatusRecord {
	head, err := p.head(ctx, rawURL)
	if err != nil {
		return models.ErrorRecord("File unavailable (type unknown)")
	}

	meta := map[string]any{}
	mergeHeadMetadata(meta, head)

	return models.StatusRecord{
		Status:   models.StatusActive,
		Message:  "File available (type unknown)",
		Metadata: meta,
	}
}

type headInfo struct {
	contentType  string
	size         int64
	lastModified string
}

var errNotOK = errors.New("non-2xx response")

func (p *Prober) head(ctx context.Context, rawURL string) (*headInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("head %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("head %s: %w: %d", rawURL, errNotOK, resp.StatusCode)
	}

	info := &headInfo{
		contentType:  resp.Header.Get("Content-Type"),
		lastModified: resp.Header.Get("Last-Modified"),
	}
	if cl := resp.Header.Get("Content-Length"); cl != "" {
		if size, parseErr := strconv.ParseInt(cl, 10, 64); parseErr == nil {
			info.size = size
		}
	}
	return info, nil
}

// fetchBounded GETs the URL with a hard size cap. Bodies exceeding the cap
// are treated as a fetch failure, never partially returned.
func (p *Prober) fetchBounded(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("get %s: %w: %d", rawURL, errNotOK, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, p.opts.MaxContentBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > p.opts.MaxContentBytes {
		return nil, fmt.Errorf("body exceeds %d byte cap", p.opts.MaxContentBytes)
	}
	return body, nil
}

func mergeHeadMetadata(meta map[string]any, head *headInfo) {
	if head.contentType != "" {
		meta["contentType"] = head.contentType
	}
	if head.size > 0 {
		meta["size"] = head.size
	}
	if head.lastModified != "" {
		meta["lastModified"] = head.lastModified
	}
}

func streamMetadata(result *ffmpeg.ProbeResult) map[string]any {
	return map[string]any{
		"duration": result.Duration,
		"bitrate":  result.BitRate,
		"format":   result.Format,
	}
}

// htmlTitle extracts the page title from an HTML body, best-effort.
func htmlTitle(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncate cuts the text to limit runes and appends an ellipsis marker when
// anything was cut.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + ellipsis
}

func urlExtension(rawURL string) string {
	lower := strings.ToLower(rawURL)
	if i := strings.IndexAny(lower, "?#"); i >= 0 {
		lower = lower[:i]
	}
	slash := strings.LastIndex(lower, "/")
	dot := strings.LastIndex(lower, ".")
	if dot < 0 || dot < slash {
		return ""
	}
	return lower[dot+1:]
}
