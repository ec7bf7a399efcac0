// Package classify maps URLs to media categories. Classification is a pure
// function: no I/O, total over all inputs, unrecognized input yields unknown.
package classify

import (
	"strings"

	"github.com/jonesrussell/north-cloud/media-monitor/internal/models"
)

// StreamKind is the concrete streaming protocol for CategoryStream resources.
type StreamKind string

const (
	StreamNone StreamKind = ""
	StreamRTSP StreamKind = "rtsp"
	StreamRTMP StreamKind = "rtmp"
	StreamHLS  StreamKind = "hls"
	StreamDASH StreamKind = "dash"
)

// Classification is the resolved category plus the streaming sub-type.
type Classification struct {
	Category models.Category
	Stream   StreamKind
}

type mediaType struct {
	Mime     string
	Category models.Category
	Stream   StreamKind
}

// mediaTypes maps file extensions and declared type hints to media types.
var mediaTypes = map[string]mediaType{
	// Video formats
	"mp4":  {Mime: "video/mp4", Category: models.CategoryVideo},
	"webm": {Mime: "video/webm", Category: models.CategoryVideo},
	"avi":  {Mime: "video/x-msvideo", Category: models.CategoryVideo},
	"mov":  {Mime: "video/quicktime", Category: models.CategoryVideo},
	"mkv":  {Mime: "video/x-matroska", Category: models.CategoryVideo},

	// Streaming formats
	"rtsp": {Mime: "application/rtsp", Category: models.CategoryStream, Stream: StreamRTSP},
	"rtmp": {Mime: "application/rtmp", Category: models.CategoryStream, Stream: StreamRTMP},
	"hls":  {Mime: "application/vnd.apple.mpegurl", Category: models.CategoryStream, Stream: StreamHLS},
	"m3u8": {Mime: "application/vnd.apple.mpegurl", Category: models.CategoryStream, Stream: StreamHLS},
	"dash": {Mime: "application/dash+xml", Category: models.CategoryStream, Stream: StreamDASH},
	"mpd":  {Mime: "application/dash+xml", Category: models.CategoryStream, Stream: StreamDASH},

	// Image formats
	"jpg":  {Mime: "image/jpeg", Category: models.CategoryImage},
	"jpeg": {Mime: "image/jpeg", Category: models.CategoryImage},
	"png":  {Mime: "image/png", Category: models.CategoryImage},
	"gif":  {Mime: "image/gif", Category: models.CategoryImage},
	"webp": {Mime: "image/webp", Category: models.CategoryImage},
	"svg":  {Mime: "image/svg+xml", Category: models.CategoryImage},

	// Document formats
	"txt":  {Mime: "text/plain", Category: models.CategoryText},
	"md":   {Mime: "text/markdown", Category: models.CategoryText},
	"html": {Mime: "text/html", Category: models.CategoryHTML},
	"htm":  {Mime: "text/html", Category: models.CategoryHTML},
	"pdf":  {Mime: "application/pdf", Category: models.CategoryDocument},
	"doc":  {Mime: "application/msword", Category: models.CategoryDocument},
	"docx": {Mime: "application/vnd.openxmlformats-officedocument.wordprocessingml.document", Category: models.CategoryDocument},
}

// MimeFor returns the MIME type registered for an extension or hint,
// or the empty string when it is not a known media type.
func MimeFor(ext string) string {
	return mediaTypes[strings.ToLower(ext)].Mime
}

// Classify resolves a URL and an optional declared type hint to a media
// category. Resolution order: URL scheme, manifest markers in the path or
// query, file extension, declared hint, path heuristics. Anything else is
// CategoryUnknown; callers decide whether unknown is fatal for an operation.
func Classify(rawURL, hint string) Classification {
	lower := strings.ToLower(rawURL)

	// 1. Scheme match for raw streaming protocols.
	switch {
	case strings.HasPrefix(lower, "rtsp://"):
		return Classification{Category: models.CategoryStream, Stream: StreamRTSP}
	case strings.HasPrefix(lower, "rtmp://"):
		return Classification{Category: models.CategoryStream, Stream: StreamRTMP}
	}

	// 2. Manifest markers anywhere in the path or query.
	switch {
	case strings.Contains(lower, ".m3u8"):
		return Classification{Category: models.CategoryStream, Stream: StreamHLS}
	case strings.Contains(lower, ".mpd"):
		return Classification{Category: models.CategoryStream, Stream: StreamDASH}
	}

	// 3. File extension lookup.
	if mt, ok := mediaTypes[extension(lower)]; ok {
		return Classification{Category: mt.Category, Stream: mt.Stream}
	}

	// 4. Declared hint from the watch-list entry or request body.
	if mt, ok := mediaTypes[strings.ToLower(hint)]; ok {
		return Classification{Category: mt.Category, Stream: mt.Stream}
	}

	// 5. Path substring heuristics.
	switch {
	case strings.Contains(lower, "/media/"):
		return Classification{Category: models.CategoryVideo}
	case strings.Contains(lower, "/stream"):
		return Classification{Category: models.CategoryStream}
	}

	return Classification{Category: models.CategoryUnknown}
}

// extension extracts the final path extension, stripping any query string
// or fragment. Returns the empty string when the URL has no extension.
func extension(lower string) string {
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
