package classify_test

import (
	"testing"

	"github.com/jonesrussell/north-cloud/media-monitor/internal/classify"
	"github.com/jonesrussell/north-cloud/media-monitor/internal/models"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		hint     string
		category models.Category
		stream   classify.StreamKind
	}{
		{"mp4 extension", "https://cdn.example.com/clip.mp4", "", models.CategoryVideo, classify.StreamNone},
		{"webm extension", "https://cdn.example.com/clip.webm", "", models.CategoryVideo, classify.StreamNone},
		{"extension with query string", "https://cdn.example.com/clip.mp4?token=abc", "", models.CategoryVideo, classify.StreamNone},
		{"extension with fragment", "https://cdn.example.com/clip.mov#t=30", "", models.CategoryVideo, classify.StreamNone},
		{"rtsp scheme", "rtsp://camera.local/feed", "", models.CategoryStream, classify.StreamRTSP},
		{"rtmp scheme", "rtmp://live.example.com/app/key", "", models.CategoryStream, classify.StreamRTMP},
		{"hls manifest", "https://live.example.com/channel/index.m3u8", "", models.CategoryStream, classify.StreamHLS},
		{"hls manifest in query", "https://live.example.com/play?src=index.m3u8", "", models.CategoryStream, classify.StreamHLS},
		{"dash manifest", "https://live.example.com/channel/manifest.mpd", "", models.CategoryStream, classify.StreamDASH},
		{"jpeg image", "https://img.example.com/photo.jpeg", "", models.CategoryImage, classify.StreamNone},
		{"gif image", "https://img.example.com/anim.gif", "", models.CategoryImage, classify.StreamNone},
		{"plain text", "https://example.com/readme.txt", "", models.CategoryText, classify.StreamNone},
		{"markdown", "https://example.com/notes.md", "", models.CategoryText, classify.StreamNone},
		{"html page", "https://example.com/index.html", "", models.CategoryHTML, classify.StreamNone},
		{"pdf document", "https://example.com/report.pdf", "", models.CategoryDocument, classify.StreamNone},
		{"hint used when no extension", "https://example.com/asset", "mp4", models.CategoryVideo, classify.StreamNone},
		{"hint is case-insensitive", "https://example.com/asset", "PNG", models.CategoryImage, classify.StreamNone},
		{"extension beats hint", "https://example.com/photo.png", "mp4", models.CategoryImage, classify.StreamNone},
		{"media path heuristic", "https://example.com/media/12345", "", models.CategoryVideo, classify.StreamNone},
		{"stream path heuristic", "https://example.com/stream/abc", "", models.CategoryStream, classify.StreamNone},
		{"unknown extension", "https://example.com/archive.zip", "", models.CategoryUnknown, classify.StreamNone},
		{"no extension no hint", "https://example.com/about", "", models.CategoryUnknown, classify.StreamNone},
		{"empty url", "", "", models.CategoryUnknown, classify.StreamNone},
		{"garbage input", "not a url at all", "", models.CategoryUnknown, classify.StreamNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify.Classify(tt.url, tt.hint)
			if got.Category != tt.category {
				t.Errorf("Classify(%q, %q).Category = %v, want %v", tt.url, tt.hint, got.Category, tt.category)
			}
			if got.Stream != tt.stream {
				t.Errorf("Classify(%q, %q).Stream = %v, want %v", tt.url, tt.hint, got.Stream, tt.stream)
			}
		})
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	url := "https://live.example.com/channel/index.m3u8"
	first := classify.Classify(url, "")
	for i := 0; i < 10; i++ {
		if got := classify.Classify(url, ""); got != first {
			t.Fatalf("Classify returned %v on repeat call, want %v", got, first)
		}
	}
}

func TestMimeFor(t *testing.T) {
	if got := classify.MimeFor("mp4"); got != "video/mp4" {
		t.Errorf("MimeFor(mp4) = %q, want video/mp4", got)
	}
	if got := classify.MimeFor("M3U8"); got != "application/vnd.apple.mpegurl" {
		t.Errorf("MimeFor(M3U8) = %q, want application/vnd.apple.mpegurl", got)
	}
	if got := classify.MimeFor("zip"); got != "" {
		t.Errorf("MimeFor(zip) = %q, want empty", got)
	}
}
